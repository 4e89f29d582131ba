package checks

import (
	"context"
	"fmt"

	"github.com/graphprotocol/tap-manager/receipt"
	"github.com/graphprotocol/tap-manager/store"
	"github.com/graphprotocol/tap-manager/taperr"
)

// AllocationIDCheck rejects receipts for an allocation the receiver does
// not recognize.
func AllocationIDCheck(allowlist store.AllocationAllowList) Check {
	return Check{
		Name: "allocation_id",
		Fn: func(ctx context.Context, rws *receipt.WithState) error {
			allocationID := rws.Receipt.Message.AllocationID
			ok, err := allowlist.Allowed(ctx, allocationID)
			if err != nil {
				return taperr.Storage("allocation_id check", err)
			}
			if !ok {
				return fmt.Errorf("allocation %s: %w", allocationID, taperr.ErrInvalidAllocationID)
			}
			return nil
		},
	}
}
