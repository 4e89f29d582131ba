package checks

import (
	"context"
	"fmt"

	"github.com/graphprotocol/tap-manager/receipt"
	"github.com/graphprotocol/tap-manager/taperr"
	"github.com/graphprotocol/tap-manager/watermark"
)

// TimestampCheck rejects receipts at or below the current watermark: they
// are either already folded into a RAV or past the settlement horizon.
func TimestampCheck(wm *watermark.Watermark) Check {
	return Check{
		Name: "timestamp",
		Fn: func(ctx context.Context, rws *receipt.WithState) error {
			ts := rws.Receipt.Message.TimestampNs
			floor := wm.Get()
			if ts <= floor {
				return fmt.Errorf("timestamp %d <= watermark %d: %w", ts, floor, taperr.ErrInvalidTimestamp)
			}
			return nil
		},
	}
}
