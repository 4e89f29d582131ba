// Package taperr defines the error taxonomy surfaced at TAP receipt manager
// component boundaries (check pipeline, escrow reservation, RAV flow,
// storage contracts). Callers should compare with errors.Is, never on the
// formatted string.
package taperr

import (
	"errors"
	"fmt"
)

// Check-pipeline rejections.
var (
	ErrInvalidAllocationID = errors.New("allocation id not in allow-list")
	ErrInvalidSignature    = errors.New("recovered signer not in sender allow-list")
	ErrInvalidTimestamp    = errors.New("receipt timestamp not greater than watermark")
	ErrNonUniqueReceipt    = errors.New("receipt fingerprint already seen")
	ErrInvalidValue        = errors.New("receipt value does not match appraisal")
)

// Escrow reservation.
var ErrInsufficientEscrow = errors.New("insufficient escrow balance")

// RAV flow.
var (
	ErrNoValidReceiptsForRAVRequest  = errors.New("no valid receipts for RAV request")
	ErrRAVAggregationOverflow        = errors.New("RAV aggregation would overflow uint128")
	ErrInvalidReceivedRAV            = errors.New("aggregator-returned RAV does not match expected RAV")
	ErrAggregatorSignerNotAuthorized = errors.New("RAV signer not an authorized aggregator")
)

// State machine.
var ErrIllegalStateTransition = errors.New("illegal receipt state transition")

// Startup / clock.
var ErrInvalidSystemTime = errors.New("system clock is before the Unix epoch")

// StorageError wraps any error returned by a storage contract (C4) so
// callers can distinguish "the store told us no" from "the store is
// broken" without the manager needing to know about concrete backends.
type StorageError struct {
	Op    string
	Inner error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Inner)
}

func (e *StorageError) Unwrap() error { return e.Inner }

// Storage wraps err as a StorageError, or returns nil if err is nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Inner: err}
}
