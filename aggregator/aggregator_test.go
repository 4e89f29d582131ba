package aggregator

import (
	"math/big"
	"testing"

	"github.com/graphprotocol/tap-manager/tap"
	"github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/require"
)

func TestAggregator_SimpleAggregation(t *testing.T) {
	domain := tap.NewDomain(1, eth.MustNewAddress("0x1234567890123456789012345678901234567890"))
	senderKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	aggregatorKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	senderAddr := senderKey.PublicKey().Address()

	agg := New(domain, aggregatorKey, []eth.Address{senderAddr})
	allocationID := eth.MustNewAddress("0xabababababababababababababababababababab")

	var receipts []*tap.SignedReceipt
	total := big.NewInt(0)
	for i := 0; i < 5; i++ {
		value := big.NewInt(int64(100 + i*10))
		r := tap.NewReceipt(allocationID, value)
		r.TimestampNs = uint64(1_000_000_000 + i)
		r.Nonce = uint64(i)
		signed, err := tap.Sign(domain, r, senderKey)
		require.NoError(t, err)
		receipts = append(receipts, signed)
		total.Add(total, value)
	}

	signedRAV, err := agg.AggregateReceipts(receipts, nil)
	require.NoError(t, err)
	require.Equal(t, total, signedRAV.Message.ValueAggregate)
	require.Equal(t, uint64(1_000_000_004), signedRAV.Message.TimestampNsMax)

	signer, err := signedRAV.RecoverSigner(domain)
	require.NoError(t, err)
	require.True(t, tap.AddressesEqual(signer, aggregatorKey.PublicKey().Address()))
}

func TestAggregator_RejectsUnauthorizedSigner(t *testing.T) {
	domain := tap.NewDomain(1, eth.MustNewAddress("0x1234567890123456789012345678901234567890"))
	authorizedKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	unauthorizedKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	aggregatorKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	allocationID := eth.MustNewAddress("0xabababababababababababababababababababab")

	agg := New(domain, aggregatorKey, []eth.Address{authorizedKey.PublicKey().Address()})

	r := tap.NewReceipt(allocationID, big.NewInt(10))
	signed, err := tap.Sign(domain, r, unauthorizedKey)
	require.NoError(t, err)

	_, err = agg.AggregateReceipts([]*tap.SignedReceipt{signed}, nil)
	require.ErrorIs(t, err, ErrInvalidSigner)
}

func TestAggregator_RejectsDuplicateSignature(t *testing.T) {
	domain := tap.NewDomain(1, eth.MustNewAddress("0x1234567890123456789012345678901234567890"))
	senderKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	aggregatorKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	allocationID := eth.MustNewAddress("0xabababababababababababababababababababab")

	agg := New(domain, aggregatorKey, []eth.Address{senderKey.PublicKey().Address()})

	r := tap.NewReceipt(allocationID, big.NewInt(10))
	signed, err := tap.Sign(domain, r, senderKey)
	require.NoError(t, err)

	_, err = agg.AggregateReceipts([]*tap.SignedReceipt{signed, signed}, nil)
	require.ErrorIs(t, err, ErrDuplicateSignature)
}

func TestAggregator_RejectsStaleTimestampAgainstPreviousRAV(t *testing.T) {
	domain := tap.NewDomain(1, eth.MustNewAddress("0x1234567890123456789012345678901234567890"))
	senderKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	aggregatorKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	allocationID := eth.MustNewAddress("0xabababababababababababababababababababab")

	agg := New(domain, aggregatorKey, []eth.Address{senderKey.PublicKey().Address()})

	previous := &tap.RAV{AllocationID: allocationID, TimestampNsMax: 2_000_000_000, ValueAggregate: big.NewInt(50)}
	previousSigned, err := tap.Sign(domain, previous, aggregatorKey)
	require.NoError(t, err)

	r := tap.NewReceipt(allocationID, big.NewInt(10))
	r.TimestampNs = 1_000_000_000
	signed, err := tap.Sign(domain, r, senderKey)
	require.NoError(t, err)

	_, err = agg.AggregateReceipts([]*tap.SignedReceipt{signed}, previousSigned)
	require.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestAggregator_RejectsAllocationMismatch(t *testing.T) {
	domain := tap.NewDomain(1, eth.MustNewAddress("0x1234567890123456789012345678901234567890"))
	senderKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	aggregatorKey, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)

	agg := New(domain, aggregatorKey, []eth.Address{senderKey.PublicKey().Address()})

	r1 := tap.NewReceipt(eth.MustNewAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), big.NewInt(10))
	r2 := tap.NewReceipt(eth.MustNewAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"), big.NewInt(10))
	s1, err := tap.Sign(domain, r1, senderKey)
	require.NoError(t, err)
	s2, err := tap.Sign(domain, r2, senderKey)
	require.NoError(t, err)

	_, err = agg.AggregateReceipts([]*tap.SignedReceipt{s1, s2}, nil)
	require.ErrorIs(t, err, ErrAllocationMismatch)
}
