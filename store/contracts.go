// Package store defines the four pluggable storage contracts (C4) the
// manager depends on: receipts, RAVs, escrow, and the read-mostly
// appraisal/allow-list sets. Implementations may be in-memory (package
// store/memory, used by tests and the demo CLI) or backed by a database;
// the manager is agnostic as long as the atomicity contracts documented on
// each method are honored.
package store

import (
	"context"
	"math/big"

	"github.com/graphprotocol/tap-manager/receipt"
	"github.com/graphprotocol/tap-manager/tap"
	"github.com/streamingfast/eth-go"
)

// ReceiptStore persists receipts through every state in their lifecycle
// and supports the range scans and fingerprint-uniqueness enforcement the
// check pipeline and RAV-request assembly need.
//
// Fingerprint claiming, not Store, is the exactly-once gate: ClaimFingerprint
// must be called once, atomically, before the escrow debit that moves a
// receipt into Reserved (spec.md §4.2, §4.5, §5). Store itself is a plain
// audit-trail insert and never fails on a duplicate fingerprint — a Failed
// receipt is still persisted for audit even though its fingerprint was
// already claimed by the record that rejected it.
type ReceiptStore interface {
	// Store assigns and returns a new id for rws and persists it.
	Store(ctx context.Context, rws *receipt.WithState) (id uint64, err error)
	Retrieve(ctx context.Context, id uint64) (*receipt.WithState, error)
	// RetrieveRange returns every record for allocationID with
	// tsLo <= TimestampNs <= tsHi, ordered by TimestampNs ascending.
	RetrieveRange(ctx context.Context, allocationID eth.Address, tsLo, tsHi uint64) ([]*receipt.WithState, error)
	Update(ctx context.Context, id uint64, newState *receipt.WithState) error
	Remove(ctx context.Context, id uint64) error

	// ClaimFingerprint atomically marks fingerprint as seen, failing with
	// taperr.ErrNonUniqueReceipt (wrapped) if it was already claimed. This
	// is the enforcement point for invariant I3 ("at most one Reserved
	// record per hash").
	ClaimFingerprint(ctx context.Context, fingerprint [32]byte) error
	// ExistsFingerprint is a non-atomic read used by the `unique` check as
	// a fast pre-filter; ClaimFingerprint is still required before the
	// receipt may be reserved.
	ExistsFingerprint(ctx context.Context, fingerprint [32]byte) (bool, error)
	// ReleaseFingerprint is the operator-driven re-admission escape hatch
	// spec.md §9 leaves as an open question for InsufficientEscrow
	// receipts: by default a claimed fingerprint is never released
	// automatically, but an operator may call this to allow the sender to
	// resubmit once escrow has been topped up.
	ReleaseFingerprint(ctx context.Context, fingerprint [32]byte) error
}

// RAVStore holds a single slot per allocation: the latest aggregator-signed
// RAV. Writes must be linearizable per allocation (spec.md §4.3, §5).
type RAVStore interface {
	Store(ctx context.Context, allocationID eth.Address, rav *tap.SignedRAV) error
	RetrieveLatest(ctx context.Context, allocationID eth.Address) (rav *tap.SignedRAV, found bool, err error)
}

// EscrowStore holds one balance per sender. TrySubtract must be atomic: it
// fails rather than ever driving the balance negative.
type EscrowStore interface {
	Get(ctx context.Context, sender eth.Address) (*big.Int, error)
	// TrySubtract atomically subtracts amount from sender's balance,
	// failing with taperr.ErrInsufficientEscrow (wrapped) and leaving the
	// balance untouched if that would drive it negative.
	TrySubtract(ctx context.Context, sender eth.Address, amount *big.Int) error
	Add(ctx context.Context, sender eth.Address, amount *big.Int) error
}

// AppraisalStore maps a caller-assigned request id (the service request a
// receipt pays for) to the value the receiver expects that receipt to
// carry. Populated externally, ahead of the receipt being signed.
type AppraisalStore interface {
	Get(ctx context.Context, requestID string) (value *big.Int, found bool, err error)
	Set(ctx context.Context, requestID string, value *big.Int) error
}

// AllocationAllowList reports whether an allocation id is recognized by
// this receiver.
type AllocationAllowList interface {
	Allowed(ctx context.Context, allocationID eth.Address) (bool, error)
}

// SenderAllowList reports whether a sender (or aggregator) address is
// authorized. The same interface shape serves both the sender allow-list
// consulted by the `signature` check and the aggregator allow-list
// consulted by VerifyAndStoreRAV.
type SenderAllowList interface {
	Allowed(ctx context.Context, addr eth.Address) (bool, error)
}
