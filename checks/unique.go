package checks

import (
	"context"
	"fmt"

	"github.com/graphprotocol/tap-manager/receipt"
	"github.com/graphprotocol/tap-manager/store"
	"github.com/graphprotocol/tap-manager/tap"
	"github.com/graphprotocol/tap-manager/taperr"
)

// UniqueCheck rejects a receipt whose fingerprint was already claimed by
// an earlier one. This is a fast, non-atomic pre-filter: the manager still
// calls store.ReceiptStore.ClaimFingerprint before reservation to close the
// race a concurrent duplicate could otherwise win.
func UniqueCheck(domain *tap.Domain, receipts store.ReceiptStore) Check {
	return Check{
		Name: "unique",
		Fn: func(ctx context.Context, rws *receipt.WithState) error {
			fp := rws.Receipt.Fingerprint(domain)
			exists, err := receipts.ExistsFingerprint(ctx, fp)
			if err != nil {
				return taperr.Storage("unique check", err)
			}
			if exists {
				return fmt.Errorf("%w", taperr.ErrNonUniqueReceipt)
			}
			return nil
		},
	}
}
