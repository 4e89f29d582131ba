package memory

import (
	"context"
	"sync"

	"github.com/graphprotocol/tap-manager/tap"
	"github.com/streamingfast/eth-go"
)

// RAVStore is a mutex-guarded map-backed RAVStore, one slot per
// allocation. A single mutex makes writes linearizable per allocation (and
// across allocations, which is a strictly stronger guarantee than the
// contract requires).
type RAVStore struct {
	mu   sync.Mutex
	slot map[string]*tap.SignedRAV
}

// NewRAVStore returns an empty RAVStore.
func NewRAVStore() *RAVStore {
	return &RAVStore{slot: make(map[string]*tap.SignedRAV)}
}

func (s *RAVStore) Store(_ context.Context, allocationID eth.Address, rav *tap.SignedRAV) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slot[allocationID.Pretty()] = rav
	return nil
}

func (s *RAVStore) RetrieveLatest(_ context.Context, allocationID eth.Address) (*tap.SignedRAV, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rav, ok := s.slot[allocationID.Pretty()]
	return rav, ok, nil
}
