package memory

import (
	"context"
	"math/big"
	"testing"

	"github.com/graphprotocol/tap-manager/tap"
	"github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/require"
)

func TestRAVStore_RetrieveLatestOnEmptyIsNotFound(t *testing.T) {
	s := NewRAVStore()
	allocation := eth.MustNewAddress("0xabababababababababababababababababababab")

	_, found, err := s.RetrieveLatest(context.Background(), allocation)
	require.NoError(t, err)
	require.False(t, found)
}

func TestRAVStore_StoreReplacesPreviousSlot(t *testing.T) {
	ctx := context.Background()
	s := NewRAVStore()
	allocation := eth.MustNewAddress("0xabababababababababababababababababababab")
	domain := tap.NewDomain(1, eth.MustNewAddress("0x1234567890123456789012345678901234567890"))
	key, err := eth.NewRandomPrivateKey()
	require.NoError(t, err)

	rav1 := &tap.RAV{AllocationID: allocation, TimestampNsMax: 100, ValueAggregate: big.NewInt(10)}
	signed1, err := tap.Sign(domain, rav1, key)
	require.NoError(t, err)
	require.NoError(t, s.Store(ctx, allocation, signed1))

	rav2 := &tap.RAV{AllocationID: allocation, TimestampNsMax: 200, ValueAggregate: big.NewInt(30)}
	signed2, err := tap.Sign(domain, rav2, key)
	require.NoError(t, err)
	require.NoError(t, s.Store(ctx, allocation, signed2))

	got, found, err := s.RetrieveLatest(ctx, allocation)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(200), got.Message.TimestampNsMax)
}
