package memory

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/graphprotocol/tap-manager/taperr"
	"github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/require"
)

func TestEscrowStore_GetOnUnknownSenderIsZero(t *testing.T) {
	s := NewEscrowStore()
	sender := eth.MustNewAddress("0x1111111111111111111111111111111111111111")

	bal, err := s.Get(context.Background(), sender)
	require.NoError(t, err)
	require.Equal(t, 0, bal.Sign())
}

func TestEscrowStore_TrySubtractFailsWhenInsufficient(t *testing.T) {
	ctx := context.Background()
	s := NewEscrowStore()
	sender := eth.MustNewAddress("0x1111111111111111111111111111111111111111")

	require.NoError(t, s.Add(ctx, sender, big.NewInt(50)))
	err := s.TrySubtract(ctx, sender, big.NewInt(100))
	require.ErrorIs(t, err, taperr.ErrInsufficientEscrow)

	bal, err := s.Get(ctx, sender)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(50), bal)
}

func TestEscrowStore_TrySubtractNeverGoesNegativeUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	s := NewEscrowStore()
	sender := eth.MustNewAddress("0x1111111111111111111111111111111111111111")
	require.NoError(t, s.Add(ctx, sender, big.NewInt(1000)))

	var wg sync.WaitGroup
	var succeeded int
	var mu sync.Mutex
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.TrySubtract(ctx, sender, big.NewInt(10)); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 100, succeeded)
	bal, err := s.Get(ctx, sender)
	require.NoError(t, err)
	require.Equal(t, 0, bal.Sign())
}
