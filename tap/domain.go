// Package tap implements the EIP-712 signed-message primitive (C1) and the
// receipt/RAV value types and aggregation law (C2) of the Timeline
// Aggregation Protocol. It has no knowledge of storage, checks, or the
// manager — those are layered on top in sibling packages.
package tap

import (
	"math/big"

	"github.com/streamingfast/eth-go"
)

// EIP712Encodable is implemented by types that can be EIP-712 encoded.
type EIP712Encodable interface {
	eip712TypeHash() eth.Hash
	eip712EncodeData() []byte
}

// Domain is the EIP-712 domain separator shared by sender, receiver, and
// aggregator. All three must agree on every field or signature recovery
// silently yields the wrong address.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract eth.Address
}

// NewDomain builds the TAP EIP-712 domain described in spec.md §6:
// (name="TAP", version="1", chainId, verifyingContract).
func NewDomain(chainID uint64, verifyingContract eth.Address) *Domain {
	return &Domain{
		Name:              "TAP",
		Version:           "1",
		ChainID:           new(big.Int).SetUint64(chainID),
		VerifyingContract: verifyingContract,
	}
}

var (
	eip712DomainTypeHash = keccak256([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))

	receiptTypeHash = keccak256([]byte(
		"Receipt(address allocationId,uint64 timestampNs,uint64 nonce,uint128 value)"))

	ravTypeHash = keccak256([]byte(
		"ReceiptAggregateVoucher(address allocationId,uint64 timestampNsMax,uint128 valueAggregate)"))
)

// Separator computes the EIP-712 domain separator hash.
func (d *Domain) Separator() eth.Hash {
	encoded := make([]byte, 0, 32*4)
	encoded = append(encoded, eip712DomainTypeHash[:]...)
	encoded = append(encoded, keccak256([]byte(d.Name))[:]...)
	encoded = append(encoded, keccak256([]byte(d.Version))[:]...)
	encoded = append(encoded, padLeft(d.ChainID.Bytes(), 32)...)
	encoded = append(encoded, padLeft(d.VerifyingContract[:], 32)...)
	return keccak256(encoded)
}

// hashTypedData computes keccak256("\x19\x01" || domainSeparator || structHash).
func hashTypedData[T EIP712Encodable](domain *Domain, message T) eth.Hash {
	structHash := hashStruct(message)
	domainSep := domain.Separator()

	data := make([]byte, 0, 2+32+32)
	data = append(data, 0x19, 0x01)
	data = append(data, domainSep[:]...)
	data = append(data, structHash[:]...)
	return keccak256(data)
}

func hashStruct[T EIP712Encodable](message T) eth.Hash {
	data := make([]byte, 0, 32+64)
	typeHash := message.eip712TypeHash()
	data = append(data, typeHash[:]...)
	data = append(data, message.eip712EncodeData()...)
	return keccak256(data)
}

func keccak256(data []byte) eth.Hash {
	return eth.Keccak256(data)
}

func padLeft(b []byte, size int) []byte {
	if len(b) >= size {
		return b[len(b)-size:]
	}
	result := make([]byte, size)
	copy(result[size-len(b):], b)
	return result
}

func encodeUint64(v uint64) []byte {
	result := make([]byte, 32)
	for i := 0; i < 8; i++ {
		result[31-i] = byte(v >> (8 * i))
	}
	return result
}

func encodeUint128(v *big.Int) []byte {
	result := make([]byte, 32)
	if v != nil {
		b := v.Bytes()
		copy(result[32-len(b):], b)
	}
	return result
}
