package checks

import (
	"context"
	"fmt"

	"github.com/graphprotocol/tap-manager/receipt"
	"github.com/graphprotocol/tap-manager/store"
	"github.com/graphprotocol/tap-manager/tap"
	"github.com/graphprotocol/tap-manager/taperr"
)

// ValueCheck rejects a receipt whose value does not match the appraisal
// recorded for requestID. The appraisal must already exist: it is set by
// the caller before the receipt is ever signed, so a missing appraisal is
// treated the same as a mismatched one.
func ValueCheck(domain *tap.Domain, appraisals store.AppraisalStore, requestID string) Check {
	return Check{
		Name: "value",
		Fn: func(ctx context.Context, rws *receipt.WithState) error {
			expected, found, err := appraisals.Get(ctx, requestID)
			if err != nil {
				return taperr.Storage("value check", err)
			}
			if !found {
				return fmt.Errorf("no appraisal for request %q: %w", requestID, taperr.ErrInvalidValue)
			}
			if rws.Receipt.Message.Value.Cmp(expected) != 0 {
				return fmt.Errorf("value %s != appraised %s: %w", rws.Receipt.Message.Value, expected, taperr.ErrInvalidValue)
			}
			return nil
		},
	}
}
