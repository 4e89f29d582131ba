package tap

import (
	"math/big"

	"github.com/streamingfast/eth-go"
)

// secp256k1 curve order N, used to normalize signatures into low-S
// canonical form.
var secp256k1N, _ = new(big.Int).SetString(
	"FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
var secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)

// NormalizeSignature returns sig in low-S canonical form. spec.md §4.1 is
// explicit that the core signed-message primitive does not normalize
// signatures — two distinct signatures can recover to the same signer and
// both are valid. This helper exists for components that want their own,
// additional anti-malleability defense on top of that (the aggregator
// reference implementation's duplicate-submission check), not for the
// `unique` check, which keys off Fingerprint instead.
func NormalizeSignature(sig eth.Signature) [65]byte {
	var result [65]byte
	copy(result[:], sig[:])

	s := new(big.Int).SetBytes(sig[32:64])
	if s.Cmp(secp256k1HalfN) > 0 {
		s = new(big.Int).Sub(secp256k1N, s)
		sBytes := s.Bytes()
		for i := 32; i < 64; i++ {
			result[i] = 0
		}
		copy(result[64-len(sBytes):64], sBytes)
		result[64] ^= 1
	}

	return result
}
