package config

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

const testYAML = `
allocation_allowlist:
  - "0xabababababababababababababababababababab"
sender_allowlist:
  - "0x1111111111111111111111111111111111111111"
aggregator_allowlist:
  - "0x2222222222222222222222222222222222222222"
appraisals:
  - request_id: req-1
    value: "20"
`

func TestParse_ResolvesAddressesAndAppraisals(t *testing.T) {
	resolved, err := Parse([]byte(testYAML))
	require.NoError(t, err)

	require.Len(t, resolved.AllocationAllowlist, 1)
	require.Len(t, resolved.SenderAllowlist, 1)
	require.Len(t, resolved.AggregatorAllowlist, 1)
	require.Equal(t, big.NewInt(20), resolved.Appraisals["req-1"])
}

func TestParse_RejectsInvalidAddress(t *testing.T) {
	_, err := Parse([]byte("allocation_allowlist:\n  - \"not-an-address\"\n"))
	require.Error(t, err)
}

func TestParse_RejectsInvalidAppraisalValue(t *testing.T) {
	_, err := Parse([]byte("appraisals:\n  - request_id: req-1\n    value: \"not-a-number\"\n"))
	require.Error(t, err)
}
