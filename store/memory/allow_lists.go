package memory

import (
	"context"
	"sync"

	"github.com/streamingfast/eth-go"
)

// AddressAllowList is a mutex-guarded set of addresses. It satisfies both
// store.AllocationAllowList and store.SenderAllowList, since both contracts
// reduce to "is this address recognized".
type AddressAllowList struct {
	mu      sync.RWMutex
	allowed map[string]struct{}
}

// NewAddressAllowList returns an AddressAllowList seeded with addrs.
func NewAddressAllowList(addrs ...eth.Address) *AddressAllowList {
	l := &AddressAllowList{allowed: make(map[string]struct{}, len(addrs))}
	for _, a := range addrs {
		l.allowed[a.Pretty()] = struct{}{}
	}
	return l
}

func (l *AddressAllowList) Allowed(_ context.Context, addr eth.Address) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.allowed[addr.Pretty()]
	return ok, nil
}

// Add registers addr, for use by config loading and tests.
func (l *AddressAllowList) Add(addr eth.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.allowed[addr.Pretty()] = struct{}{}
}

// Remove deregisters addr.
func (l *AddressAllowList) Remove(addr eth.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.allowed, addr.Pretty())
}
