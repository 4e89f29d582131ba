// Package memory provides in-memory reference implementations of every
// store contract in package store, sufficient for tests and the demo CLI.
// None of these backends are durable across process restarts — that is
// explicitly delegated to whatever a production deployment plugs in
// (spec.md §1 Non-goals).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/graphprotocol/tap-manager/receipt"
	"github.com/graphprotocol/tap-manager/taperr"
	"github.com/streamingfast/eth-go"
)

// ReceiptStore is a mutex-guarded map-backed ReceiptStore. Fingerprint
// claims live in a separate map from the id-keyed records: Store never
// touches it, ClaimFingerprint is the only writer, so a Failed receipt can
// still be persisted for audit after its fingerprint lost the uniqueness
// race.
type ReceiptStore struct {
	mu            sync.Mutex
	records       map[uint64]*receipt.WithState
	fingerprints  map[[32]byte]struct{}
	nextID        uint64
}

// NewReceiptStore returns an empty ReceiptStore.
func NewReceiptStore() *ReceiptStore {
	return &ReceiptStore{
		records:      make(map[uint64]*receipt.WithState),
		fingerprints: make(map[[32]byte]struct{}),
	}
}

func (s *ReceiptStore) Store(_ context.Context, rws *receipt.WithState) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID

	cp := *rws
	cp.ID = id
	s.records[id] = &cp
	return id, nil
}

func (s *ReceiptStore) Retrieve(_ context.Context, id uint64) (*receipt.WithState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rws, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("no receipt with id %d", id)
	}
	cp := *rws
	return &cp, nil
}

func (s *ReceiptStore) RetrieveRange(_ context.Context, allocationID eth.Address, tsLo, tsHi uint64) ([]*receipt.WithState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*receipt.WithState
	for _, rws := range s.records {
		ts := rws.Receipt.Message.TimestampNs
		if !allocationEqual(rws.Receipt.Message.AllocationID, allocationID) {
			continue
		}
		if ts < tsLo || ts > tsHi {
			continue
		}
		cp := *rws
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Receipt.Message.TimestampNs < out[j].Receipt.Message.TimestampNs
	})
	return out, nil
}

func (s *ReceiptStore) Update(_ context.Context, id uint64, newState *receipt.WithState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("no receipt with id %d", id)
	}
	cp := *newState
	cp.ID = id
	s.records[id] = &cp
	return nil
}

func (s *ReceiptStore) Remove(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("no receipt with id %d", id)
	}
	delete(s.records, id)
	return nil
}

func (s *ReceiptStore) ClaimFingerprint(_ context.Context, fingerprint [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fingerprints[fingerprint]; exists {
		return taperr.ErrNonUniqueReceipt
	}
	s.fingerprints[fingerprint] = struct{}{}
	return nil
}

func (s *ReceiptStore) ExistsFingerprint(_ context.Context, fingerprint [32]byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.fingerprints[fingerprint]
	return ok, nil
}

func (s *ReceiptStore) ReleaseFingerprint(_ context.Context, fingerprint [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.fingerprints, fingerprint)
	return nil
}

func allocationEqual(a, b eth.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
