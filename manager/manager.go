// Package manager implements the receiver-side manager (C6): the subsystem
// that admits receipts through a check pipeline, reserves escrow, and
// reconciles RAVs. It owns the compensating-action and concurrency
// contracts of spec.md §4.5-§4.6.
package manager

import (
	"context"
	"fmt"

	"github.com/graphprotocol/tap-manager/checks"
	"github.com/graphprotocol/tap-manager/receipt"
	"github.com/graphprotocol/tap-manager/store"
	"github.com/graphprotocol/tap-manager/tap"
	"github.com/graphprotocol/tap-manager/taperr"
	"github.com/graphprotocol/tap-manager/watermark"
	"go.uber.org/zap"
)

// Manager orchestrates the receipt lifecycle and RAV flow for a single
// EIP-712 domain. It holds no per-allocation or per-sender state itself —
// that lives entirely in the injected stores — so a Manager is safe to use
// concurrently from multiple goroutines.
type Manager struct {
	domain    *tap.Domain
	receipts  store.ReceiptStore
	ravs      store.RAVStore
	escrow    store.EscrowStore
	watermark *watermark.Watermark
	logger    *zap.Logger
	clock     Clock
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithLogger overrides the default no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// New builds a Manager over the given domain, stores, and watermark.
func New(domain *tap.Domain, receipts store.ReceiptStore, ravs store.RAVStore,
	escrow store.EscrowStore, wm *watermark.Watermark, opts ...Option) *Manager {
	m := &Manager{
		domain:    domain,
		receipts:  receipts,
		ravs:      ravs,
		escrow:    escrow,
		watermark: wm,
		logger:    zap.NewNop(),
		clock:     realClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// VerifyAndStoreReceipt runs signed through pipeline, and on success
// reserves escrow and persists the receipt as Reserved. On any failure the
// receipt is persisted as Failed (for audit) and the returned error
// explains why.
//
// The fingerprint claim happens once, atomically, immediately before the
// escrow debit (spec.md §4.2, §4.5, invariant I3): this is what makes two
// concurrent submissions of the identical receipt resolve to exactly one
// Reserved record and one NonUniqueReceipt rejection, never two debits.
func (m *Manager) VerifyAndStoreReceipt(ctx context.Context, signed *tap.SignedReceipt,
	requestID string, pipeline *checks.Pipeline) error {

	w := receipt.NewChecking(signed)
	fingerprint := signed.Fingerprint(m.domain)

	passed, checkErr := pipeline.Run(ctx, w)
	if checkErr != nil {
		return m.fail(ctx, w, checkErr)
	}

	awaiting, err := w.ToAwaitingReserve(passed)
	if err != nil {
		return m.fail(ctx, w, err)
	}

	if err := m.receipts.ClaimFingerprint(ctx, fingerprint); err != nil {
		return m.fail(ctx, awaiting, fmt.Errorf("%w", taperr.ErrNonUniqueReceipt))
	}

	sender, err := signed.RecoverSigner(m.domain)
	if err != nil {
		// Unreachable in practice: the signature check already recovered
		// this signer successfully. Treated as a failure, not a panic, to
		// keep the state machine's invariant that Failed always carries a
		// concrete cause. The fingerprint stays claimed (spec.md §9): a
		// Failed receipt still counts against unique_hash.
		return m.fail(ctx, awaiting, err)
	}

	if err := m.escrow.TrySubtract(ctx, sender, signed.Message.Value); err != nil {
		return m.fail(ctx, awaiting, err)
	}

	reserved, err := awaiting.ToReserved()
	if err != nil {
		if creditErr := m.escrow.Add(ctx, sender, signed.Message.Value); creditErr != nil {
			m.logger.Error("failed to credit back escrow after illegal transition",
				zap.Error(creditErr), zap.Stringer("sender", sender))
		}
		return m.fail(ctx, awaiting, err)
	}

	if _, err := m.receipts.Store(ctx, reserved); err != nil {
		if creditErr := m.escrow.Add(ctx, sender, signed.Message.Value); creditErr != nil {
			m.logger.Error("failed to credit back escrow after store failure",
				zap.Error(creditErr), zap.Stringer("sender", sender))
		}
		return m.fail(ctx, awaiting, taperr.Storage("store reserved receipt", err))
	}

	m.logger.Info("receipt reserved",
		zap.Stringer("allocation_id", signed.Message.AllocationID),
		zap.Uint64("timestamp_ns", signed.Message.TimestampNs),
		zap.String("request_id", requestID))
	return nil
}

// fail transitions w to Failed and persists the audit record.
func (m *Manager) fail(ctx context.Context, w *receipt.WithState, cause error) error {
	failed, err := w.ToFailed(cause)
	if err != nil {
		return err
	}
	if _, storeErr := m.receipts.Store(ctx, failed); storeErr != nil {
		m.logger.Error("failed to persist failed receipt", zap.Error(storeErr))
	}
	return cause
}
