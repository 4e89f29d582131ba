package manager

import (
	"context"
	"fmt"

	"github.com/graphprotocol/tap-manager/receipt"
	"github.com/graphprotocol/tap-manager/store"
	"github.com/graphprotocol/tap-manager/tap"
	"github.com/graphprotocol/tap-manager/taperr"
	"github.com/streamingfast/eth-go"
	"go.uber.org/zap"
)

// RAVRequest is the material the manager assembles for a caller to hand to
// an aggregator: the receipts it wants folded, the prior RAV they extend,
// any Failed receipts in the same window for evidentiary purposes, and the
// RAV the manager expects the aggregator to return.
type RAVRequest struct {
	ValidReceipts   []*tap.SignedReceipt
	PreviousRAV     *tap.SignedRAV
	InvalidReceipts []*receipt.WithState
	ExpectedRAV     *tap.RAV
}

// CreateRAVRequest gathers every Reserved receipt for allocationID with
// timestamp_ns <= now - timestampBufferNs and timestamp_ns > the previous
// RAV's timestamp_ns_max (if any), ordered ascending, and computes the RAV
// they should aggregate into. It does not mutate any store: nothing is
// reserved or removed until VerifyAndStoreRAV confirms the round trip.
func (m *Manager) CreateRAVRequest(ctx context.Context, allocationID eth.Address, timestampBufferNs uint64) (*RAVRequest, error) {
	now := m.clock.NowNs()
	if now < timestampBufferNs {
		return nil, fmt.Errorf("%w: buffer %d exceeds current time %d", taperr.ErrInvalidSystemTime, timestampBufferNs, now)
	}
	cutoff := now - timestampBufferNs

	previousRAV, found, err := m.ravs.RetrieveLatest(ctx, allocationID)
	if err != nil {
		return nil, taperr.Storage("retrieve latest RAV", err)
	}
	var floor uint64
	var previousRAVMessage *tap.RAV
	if found {
		floor = previousRAV.Message.TimestampNsMax
		previousRAVMessage = previousRAV.Message
	}

	records, err := m.receipts.RetrieveRange(ctx, allocationID, floor+1, cutoff)
	if err != nil {
		return nil, taperr.Storage("retrieve receipt range", err)
	}

	var validReceipts []*tap.SignedReceipt
	var invalidReceipts []*receipt.WithState
	for _, rws := range records {
		switch rws.State {
		case receipt.Reserved:
			validReceipts = append(validReceipts, rws.Receipt)
		case receipt.Failed:
			invalidReceipts = append(invalidReceipts, rws)
		}
	}

	if len(validReceipts) == 0 {
		return nil, taperr.ErrNoValidReceiptsForRAVRequest
	}

	receiptValues := make([]*tap.Receipt, len(validReceipts))
	for i, sr := range validReceipts {
		receiptValues[i] = sr.Message
	}
	expected, err := tap.Aggregate(previousRAVMessage, receiptValues)
	if err != nil {
		return nil, err
	}

	return &RAVRequest{
		ValidReceipts:   validReceipts,
		PreviousRAV:     previousRAV,
		InvalidReceipts: invalidReceipts,
		ExpectedRAV:     expected,
	}, nil
}

// VerifyAndStoreRAV verifies aggregatorSigned was produced by an address in
// aggregatorSigners, asserts its inner RAV equals expected byte-for-byte,
// then stores it, advances the watermark, and removes every receipt it
// absorbed. On any failure no state changes are made.
func (m *Manager) VerifyAndStoreRAV(ctx context.Context, allocationID eth.Address,
	expected *tap.RAV, aggregatorSigned *tap.SignedRAV, aggregatorSigners store.SenderAllowList) error {

	signer, err := aggregatorSigned.RecoverSigner(m.domain)
	if err != nil {
		return fmt.Errorf("%w: %s", taperr.ErrAggregatorSignerNotAuthorized, err)
	}
	ok, err := aggregatorSigners.Allowed(ctx, signer)
	if err != nil {
		return taperr.Storage("aggregator allow-list lookup", err)
	}
	if !ok {
		return fmt.Errorf("signer %s: %w", signer, taperr.ErrAggregatorSignerNotAuthorized)
	}

	if !aggregatorSigned.Message.Equal(expected) {
		return taperr.ErrInvalidReceivedRAV
	}

	if err := m.ravs.Store(ctx, allocationID, aggregatorSigned); err != nil {
		return taperr.Storage("store RAV", err)
	}

	m.watermark.Update(aggregatorSigned.Message.TimestampNsMax)

	records, err := m.receipts.RetrieveRange(ctx, allocationID, 0, aggregatorSigned.Message.TimestampNsMax)
	if err != nil {
		m.logger.Error("failed to enumerate receipts for removal after RAV store",
			zap.Error(err), zap.Stringer("allocation_id", allocationID))
		return nil
	}
	for _, rws := range records {
		if rws.State != receipt.Reserved {
			continue
		}
		if err := m.receipts.Remove(ctx, rws.ID); err != nil {
			m.logger.Error("failed to remove absorbed receipt",
				zap.Error(err), zap.Uint64("id", rws.ID))
		}
	}

	m.logger.Info("RAV stored and window absorbed",
		zap.Stringer("allocation_id", allocationID),
		zap.Uint64("timestamp_ns_max", aggregatorSigned.Message.TimestampNsMax))
	return nil
}
