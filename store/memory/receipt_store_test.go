package memory

import (
	"context"
	"math/big"
	"testing"

	"github.com/graphprotocol/tap-manager/receipt"
	"github.com/graphprotocol/tap-manager/tap"
	"github.com/graphprotocol/tap-manager/taperr"
	"github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/require"
)

func testSignedReceipt(t *testing.T, allocationID eth.Address, value int64) *tap.SignedReceipt {
	t.Helper()
	domain := tap.NewDomain(1, eth.MustNewAddress("0x1234567890123456789012345678901234567890"))
	key, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)
	r := tap.NewReceipt(allocationID, big.NewInt(value))
	signed, err := tap.Sign(domain, r, key)
	require.NoError(t, err)
	return signed
}

func TestReceiptStore_StoreAndRetrieve(t *testing.T) {
	ctx := context.Background()
	s := NewReceiptStore()
	allocation := eth.MustNewAddress("0xabababababababababababababababababababab")

	w := receipt.NewChecking(testSignedReceipt(t, allocation, 10))
	id, err := s.Store(ctx, w)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := s.Retrieve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.Equal(t, receipt.Checking, got.State)
}

func TestReceiptStore_RetrieveUnknownIDFails(t *testing.T) {
	s := NewReceiptStore()
	_, err := s.Retrieve(context.Background(), 999)
	require.Error(t, err)
}

func TestReceiptStore_ClaimFingerprintIsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	s := NewReceiptStore()
	var fp [32]byte
	fp[0] = 0xAB

	require.NoError(t, s.ClaimFingerprint(ctx, fp))
	err := s.ClaimFingerprint(ctx, fp)
	require.ErrorIs(t, err, taperr.ErrNonUniqueReceipt)
}

func TestReceiptStore_StoreDoesNotClaimFingerprint(t *testing.T) {
	ctx := context.Background()
	s := NewReceiptStore()
	allocation := eth.MustNewAddress("0xabababababababababababababababababababab")

	sr := testSignedReceipt(t, allocation, 10)
	failed, err := receipt.NewChecking(sr).ToFailed(taperr.ErrInvalidSignature)
	require.NoError(t, err)

	_, err = s.Store(ctx, failed)
	require.NoError(t, err)

	domain := tap.NewDomain(1, eth.MustNewAddress("0x1234567890123456789012345678901234567890"))
	fp := sr.Fingerprint(domain)
	exists, err := s.ExistsFingerprint(ctx, fp)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestReceiptStore_ReleaseFingerprintAllowsReclaim(t *testing.T) {
	ctx := context.Background()
	s := NewReceiptStore()
	var fp [32]byte
	fp[0] = 0x02

	require.NoError(t, s.ClaimFingerprint(ctx, fp))
	require.NoError(t, s.ReleaseFingerprint(ctx, fp))
	require.NoError(t, s.ClaimFingerprint(ctx, fp))
}

func TestReceiptStore_RetrieveRangeFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	s := NewReceiptStore()
	allocationA := eth.MustNewAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	allocationB := eth.MustNewAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	mk := func(allocation eth.Address, ts uint64) *receipt.WithState {
		sr := testSignedReceipt(t, allocation, 5)
		sr.Message.TimestampNs = ts
		return receipt.NewChecking(sr)
	}

	_, err := s.Store(ctx, mk(allocationA, 300))
	require.NoError(t, err)
	_, err = s.Store(ctx, mk(allocationA, 100))
	require.NoError(t, err)
	_, err = s.Store(ctx, mk(allocationA, 200))
	require.NoError(t, err)
	_, err = s.Store(ctx, mk(allocationB, 150))
	require.NoError(t, err)

	out, err := s.RetrieveRange(ctx, allocationA, 100, 250)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, uint64(100), out[0].Receipt.Message.TimestampNs)
	require.Equal(t, uint64(200), out[1].Receipt.Message.TimestampNs)
}

func TestReceiptStore_UpdateAndRemove(t *testing.T) {
	ctx := context.Background()
	s := NewReceiptStore()
	allocation := eth.MustNewAddress("0xabababababababababababababababababababab")

	w := receipt.NewChecking(testSignedReceipt(t, allocation, 10))
	id, err := s.Store(ctx, w)
	require.NoError(t, err)

	awaiting, err := w.ToAwaitingReserve([]string{"allocation_id"})
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, id, awaiting))

	got, err := s.Retrieve(ctx, id)
	require.NoError(t, err)
	require.Equal(t, receipt.AwaitingReserve, got.State)

	require.NoError(t, s.Remove(ctx, id))
	_, err = s.Retrieve(ctx, id)
	require.Error(t, err)
}
