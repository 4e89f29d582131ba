// Package aggregator provides a reference implementation of the external
// aggregator oracle described in spec.md §6: it validates a batch of
// signed receipts, folds them onto an optional previous RAV, and signs the
// result. Production deployments replace this with a call to a remote
// aggregator service; this package exists so the protocol is exercisable
// end to end without one (cmd/tapmanager uses it directly).
package aggregator

import (
	"errors"
	"fmt"

	"github.com/graphprotocol/tap-manager/tap"
	"github.com/streamingfast/eth-go"
)

var (
	// ErrNoReceipts mirrors taperr.ErrNoValidReceiptsForRAVRequest at the
	// oracle boundary: the aggregator is a separate trust domain and does
	// not import the manager's error taxonomy.
	ErrNoReceipts         = errors.New("no valid receipts for RAV request")
	ErrDuplicateSignature = errors.New("duplicate receipt signature in request")
	ErrInvalidSigner      = errors.New("receipt signed by unauthorized signer")
	ErrInvalidTimestamp   = errors.New("receipt timestamp not greater than previous RAV")
	ErrAllocationMismatch = errors.New("receipts span more than one allocation")
)

// Aggregator validates receipts and signs RAVs on behalf of a set of
// accepted signers.
type Aggregator struct {
	domain          *tap.Domain
	signerKey       *eth.PrivateKey
	acceptedSigners map[string]bool
}

// New builds an Aggregator that only accepts receipts signed by one of
// acceptedSigners, and signs its RAVs with signerKey. A previous RAV is
// accepted when signed by signerKey or by one of acceptedSigners.
func New(domain *tap.Domain, signerKey *eth.PrivateKey, acceptedSigners []eth.Address) *Aggregator {
	signerMap := make(map[string]bool, len(acceptedSigners))
	for _, addr := range acceptedSigners {
		signerMap[addr.Pretty()] = true
	}
	return &Aggregator{domain: domain, signerKey: signerKey, acceptedSigners: signerMap}
}

// AggregateReceipts validates receipts against previousRAV and returns a
// freshly signed RAV.
func (a *Aggregator) AggregateReceipts(receipts []*tap.SignedReceipt, previousRAV *tap.SignedRAV) (*tap.SignedRAV, error) {
	if len(receipts) == 0 {
		return nil, ErrNoReceipts
	}

	if err := a.checkSignaturesUnique(receipts); err != nil {
		return nil, err
	}
	if err := a.verifySigners(receipts); err != nil {
		return nil, err
	}
	if err := a.checkAllocationConsistency(receipts); err != nil {
		return nil, err
	}
	if previousRAV != nil {
		if err := a.verifyRAVSigner(previousRAV); err != nil {
			return nil, err
		}
		if err := checkReceiptTimestamps(receipts, previousRAV); err != nil {
			return nil, err
		}
	}

	var previousRAVMessage *tap.RAV
	if previousRAV != nil {
		previousRAVMessage = previousRAV.Message
	}
	receiptMessages := make([]*tap.Receipt, len(receipts))
	for i, r := range receipts {
		receiptMessages[i] = r.Message
	}

	rav, err := tap.Aggregate(previousRAVMessage, receiptMessages)
	if err != nil {
		return nil, err
	}

	return tap.Sign(a.domain, rav, a.signerKey)
}

func (a *Aggregator) checkSignaturesUnique(receipts []*tap.SignedReceipt) error {
	seen := make(map[[65]byte]bool, len(receipts))
	for _, r := range receipts {
		normalized := tap.NormalizeSignature(r.Signature)
		if seen[normalized] {
			return ErrDuplicateSignature
		}
		seen[normalized] = true
	}
	return nil
}

func (a *Aggregator) verifySigners(receipts []*tap.SignedReceipt) error {
	for _, r := range receipts {
		signer, err := r.RecoverSigner(a.domain)
		if err != nil {
			return err
		}
		if !a.acceptedSigners[signer.Pretty()] {
			return fmt.Errorf("%w: %s", ErrInvalidSigner, signer)
		}
	}
	return nil
}

func (a *Aggregator) verifyRAVSigner(rav *tap.SignedRAV) error {
	signer, err := rav.RecoverSigner(a.domain)
	if err != nil {
		return err
	}
	if !a.acceptedSigners[signer.Pretty()] && !tap.AddressesEqual(signer, a.signerKey.PublicKey().Address()) {
		return fmt.Errorf("%w: %s", ErrInvalidSigner, signer)
	}
	return nil
}

func (a *Aggregator) checkAllocationConsistency(receipts []*tap.SignedReceipt) error {
	first := receipts[0].Message.AllocationID
	for _, r := range receipts[1:] {
		if !tap.AddressesEqual(r.Message.AllocationID, first) {
			return ErrAllocationMismatch
		}
	}
	return nil
}

func checkReceiptTimestamps(receipts []*tap.SignedReceipt, previousRAV *tap.SignedRAV) error {
	floor := previousRAV.Message.TimestampNsMax
	for _, r := range receipts {
		if r.Message.TimestampNs <= floor {
			return ErrInvalidTimestamp
		}
	}
	return nil
}
