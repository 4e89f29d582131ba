package tap

import (
	"math/big"
	"testing"

	"github.com/graphprotocol/tap-manager/taperr"
	"github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/require"
)

func TestAggregate_NoPrevious(t *testing.T) {
	allocationID := eth.MustNewAddress("0xabababababababababababababababababababab")

	receipts := []*Receipt{
		{AllocationID: allocationID, TimestampNs: 100, Nonce: 1, Value: big.NewInt(20)},
		{AllocationID: allocationID, TimestampNs: 200, Nonce: 2, Value: big.NewInt(30)},
	}

	rav, err := Aggregate(nil, receipts)
	require.NoError(t, err)
	require.Equal(t, uint64(200), rav.TimestampNsMax)
	require.Equal(t, 0, big.NewInt(50).Cmp(rav.ValueAggregate))
}

func TestAggregate_FoldsOntoPrevious(t *testing.T) {
	allocationID := eth.MustNewAddress("0xabababababababababababababababababababab")
	prev := &RAV{AllocationID: allocationID, TimestampNsMax: 100, ValueAggregate: big.NewInt(500)}

	receipts := []*Receipt{
		{AllocationID: allocationID, TimestampNs: 150, Nonce: 1, Value: big.NewInt(20)},
	}

	rav, err := Aggregate(prev, receipts)
	require.NoError(t, err)
	require.Equal(t, uint64(150), rav.TimestampNsMax)
	require.Equal(t, 0, big.NewInt(520).Cmp(rav.ValueAggregate))
}

func TestAggregate_Overflow(t *testing.T) {
	allocationID := eth.MustNewAddress("0xabababababababababababababababababababab")

	receipts := []*Receipt{
		{AllocationID: allocationID, TimestampNs: 1, Nonce: 1, Value: new(big.Int).Set(MaxUint128)},
		{AllocationID: allocationID, TimestampNs: 2, Nonce: 2, Value: big.NewInt(1)},
	}

	_, err := Aggregate(nil, receipts)
	require.ErrorIs(t, err, taperr.ErrRAVAggregationOverflow)
}

func TestAggregate_NoReceipts(t *testing.T) {
	_, err := Aggregate(nil, nil)
	require.Error(t, err)
}

func TestAggregate_AllocationMismatch(t *testing.T) {
	alloc1 := eth.MustNewAddress("0xabababababababababababababababababababab")
	alloc2 := eth.MustNewAddress("0xdeaddeaddeaddeaddeaddeaddeaddeaddeaddead")

	receipts := []*Receipt{
		{AllocationID: alloc1, TimestampNs: 1, Nonce: 1, Value: big.NewInt(10)},
		{AllocationID: alloc2, TimestampNs: 2, Nonce: 2, Value: big.NewInt(10)},
	}

	_, err := Aggregate(nil, receipts)
	require.Error(t, err)
}
