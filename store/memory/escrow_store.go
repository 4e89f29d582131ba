package memory

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/graphprotocol/tap-manager/taperr"
	"github.com/streamingfast/eth-go"
)

// EscrowStore is a mutex-guarded map-backed EscrowStore. One lock guards
// the whole map; this trades per-sender parallelism for a trivially
// correct TrySubtract, which is fine for the scale this reference
// implementation targets (spec.md's production deployments are expected
// to back EscrowStore with a real ledger, not this one).
type EscrowStore struct {
	mu       sync.Mutex
	balances map[string]*big.Int
}

// NewEscrowStore returns an EscrowStore with every sender starting at a
// zero balance.
func NewEscrowStore() *EscrowStore {
	return &EscrowStore{balances: make(map[string]*big.Int)}
}

func (s *EscrowStore) Get(_ context.Context, sender eth.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bal, ok := s.balances[key(sender)]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

func (s *EscrowStore) TrySubtract(_ context.Context, sender eth.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bal, ok := s.balances[key(sender)]
	if !ok {
		bal = big.NewInt(0)
	}
	next := new(big.Int).Sub(bal, amount)
	if next.Sign() < 0 {
		return fmt.Errorf("escrow: sender %s: %w", sender, taperr.ErrInsufficientEscrow)
	}
	s.balances[key(sender)] = next
	return nil
}

func (s *EscrowStore) Add(_ context.Context, sender eth.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bal, ok := s.balances[key(sender)]
	if !ok {
		bal = big.NewInt(0)
	}
	s.balances[key(sender)] = new(big.Int).Add(bal, amount)
	return nil
}

func key(addr eth.Address) string {
	return addr.Pretty()
}
