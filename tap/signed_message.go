package tap

import (
	"fmt"

	"github.com/streamingfast/eth-go"
)

// SignedMessage wraps a message with its EIP-712 signature (spec.md §3,
// "SignedMessage⟨T⟩").
type SignedMessage[T EIP712Encodable] struct {
	Message   T             `json:"message"`
	Signature eth.Signature `json:"signature"`
}

// SignedReceipt is a Receipt with its signature.
type SignedReceipt = SignedMessage[*Receipt]

// SignedRAV is a RAV with its signature.
type SignedRAV = SignedMessage[*RAV]

// Sign computes the EIP-712 digest of message under domain and signs it
// with key, producing a 65-byte (r,s,v) signature.
func Sign[T EIP712Encodable](domain *Domain, message T, key *eth.PrivateKey) (*SignedMessage[T], error) {
	digest := hashTypedData(domain, message)

	sig, err := key.Sign(digest)
	if err != nil {
		return nil, fmt.Errorf("signing message: %w", err)
	}

	return &SignedMessage[T]{Message: message, Signature: sig}, nil
}

// RecoverSigner recovers the address that produced sm.Signature over
// sm.Message under domain. Fails with an error (not a panic) if the
// signature recovers to no valid point.
func (sm *SignedMessage[T]) RecoverSigner(domain *Domain) (eth.Address, error) {
	digest := hashTypedData(domain, sm.Message)

	signer, err := sm.Signature.Recover(digest)
	if err != nil {
		return eth.Address{}, fmt.Errorf("recovering signer: %w", err)
	}
	return signer, nil
}

// Fingerprint returns the domain-separated digest of sm.Message — the
// "unique_hash" of spec.md §4.1, stable across runs and independent of the
// signature. This is the replay key the `unique` check tests against the
// receipt store.
func (sm *SignedMessage[T]) Fingerprint(domain *Domain) [32]byte {
	digest := hashTypedData(domain, sm.Message)
	var fp [32]byte
	copy(fp[:], digest[:])
	return fp
}
