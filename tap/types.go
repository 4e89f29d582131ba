package tap

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	"time"

	"github.com/streamingfast/eth-go"
)

// MaxUint128 is the largest value a Receipt/RAV value field may hold.
var MaxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Receipt is an immutable micro-payment authorization against a sender's
// escrow balance for a single allocation (spec.md §3).
type Receipt struct {
	AllocationID eth.Address `json:"allocation_id"`
	TimestampNs  uint64      `json:"timestamp_ns"`
	Nonce        uint64      `json:"nonce"`
	Value        *big.Int    `json:"value"`
}

// NewReceipt builds a receipt for allocationID with the current wall-clock
// time and a fresh random nonce, guaranteeing uniqueness even when two
// receipts land on the same nanosecond timestamp.
func NewReceipt(allocationID eth.Address, value *big.Int) *Receipt {
	return &Receipt{
		AllocationID: allocationID,
		TimestampNs:  uint64(time.Now().UnixNano()),
		Nonce:        randomUint64(),
		Value:        new(big.Int).Set(value),
	}
}

func (r *Receipt) eip712TypeHash() eth.Hash { return receiptTypeHash }

func (r *Receipt) eip712EncodeData() []byte {
	encoded := make([]byte, 0, 32*4)
	encoded = append(encoded, padLeft(r.AllocationID[:], 32)...)
	encoded = append(encoded, encodeUint64(r.TimestampNs)...)
	encoded = append(encoded, encodeUint64(r.Nonce)...)
	encoded = append(encoded, encodeUint128(r.Value)...)
	return encoded
}

// RAV (Receipt Aggregate Voucher) is the aggregator-signed, compressed claim
// against escrow for all receipts up to TimestampNsMax (spec.md §3).
type RAV struct {
	AllocationID   eth.Address `json:"allocation_id"`
	TimestampNsMax uint64      `json:"timestamp_ns_max"`
	ValueAggregate *big.Int    `json:"value_aggregate"`
}

func (r *RAV) eip712TypeHash() eth.Hash { return ravTypeHash }

func (r *RAV) eip712EncodeData() []byte {
	encoded := make([]byte, 0, 32*3)
	encoded = append(encoded, padLeft(r.AllocationID[:], 32)...)
	encoded = append(encoded, encodeUint64(r.TimestampNsMax)...)
	encoded = append(encoded, encodeUint128(r.ValueAggregate)...)
	return encoded
}

// Equal reports whether two RAVs describe the identical claim, field for
// field. Used by the manager to byte-for-byte gate an aggregator's reply
// against the locally expected RAV (spec.md §4.6).
func (r *RAV) Equal(other *RAV) bool {
	if r == nil || other == nil {
		return r == other
	}
	return AddressesEqual(r.AllocationID, other.AllocationID) &&
		r.TimestampNsMax == other.TimestampNsMax &&
		r.ValueAggregate != nil && other.ValueAggregate != nil &&
		r.ValueAggregate.Cmp(other.ValueAggregate) == 0
}

// AddressesEqual compares two eth.Address values by content. eth.Address is
// not guaranteed comparable with == across library versions, so this
// compares byte-by-byte, matching the teacher's own addressesEqual helper.
func AddressesEqual(a, b eth.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func randomUint64() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return binary.BigEndian.Uint64(b[:])
}
