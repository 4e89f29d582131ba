package tap

import (
	"fmt"
	"math/big"

	"github.com/graphprotocol/tap-manager/taperr"
)

// Aggregate applies the RAV aggregation law of spec.md §3 to receipts,
// folding them onto previous (which may be nil for the first RAV of an
// allocation). Every receipt in receipts must have a timestamp strictly
// greater than previous.TimestampNsMax; Aggregate trusts its caller on that
// (the manager selects the window) and does not check it. It does reject a
// receipt whose allocation differs from previous's (or, with no previous,
// from the first receipt's), and checks for overflow, since that is a
// protocol error rather than a caller bug.
func Aggregate(previous *RAV, receipts []*Receipt) (*RAV, error) {
	if len(receipts) == 0 {
		return nil, fmt.Errorf("aggregate: no receipts")
	}

	allocationID := receipts[0].AllocationID
	var timestampMax uint64
	valueAggregate := big.NewInt(0)

	if previous != nil {
		allocationID = previous.AllocationID
		timestampMax = previous.TimestampNsMax
		valueAggregate = new(big.Int).Set(previous.ValueAggregate)
	}

	for _, r := range receipts {
		if !AddressesEqual(r.AllocationID, allocationID) {
			return nil, fmt.Errorf("aggregate: receipt allocation %s does not match %s", r.AllocationID, allocationID)
		}

		next := new(big.Int).Add(valueAggregate, r.Value)
		if next.Cmp(MaxUint128) > 0 {
			return nil, fmt.Errorf("aggregate: %w", taperr.ErrRAVAggregationOverflow)
		}
		valueAggregate = next

		if r.TimestampNs > timestampMax {
			timestampMax = r.TimestampNs
		}
	}

	return &RAV{
		AllocationID:   allocationID,
		TimestampNsMax: timestampMax,
		ValueAggregate: valueAggregate,
	}, nil
}
