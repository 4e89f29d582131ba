package checks

import (
	"context"
	"fmt"

	"github.com/graphprotocol/tap-manager/receipt"
	"github.com/graphprotocol/tap-manager/store"
	"github.com/graphprotocol/tap-manager/tap"
	"github.com/graphprotocol/tap-manager/taperr"
)

// SignatureCheck recovers the signer of the receipt under domain and
// rejects it unless the signer is on allowlist.
func SignatureCheck(domain *tap.Domain, allowlist store.SenderAllowList) Check {
	return Check{
		Name: "signature",
		Fn: func(ctx context.Context, rws *receipt.WithState) error {
			signer, err := rws.Receipt.RecoverSigner(domain)
			if err != nil {
				return fmt.Errorf("%w: %s", taperr.ErrInvalidSignature, err)
			}
			ok, err := allowlist.Allowed(ctx, signer)
			if err != nil {
				return taperr.Storage("signature check", err)
			}
			if !ok {
				return fmt.Errorf("signer %s: %w", signer, taperr.ErrInvalidSignature)
			}
			return nil
		},
	}
}
