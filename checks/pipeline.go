// Package checks implements the ordered, composable, short-circuiting
// check pipeline (C3) that runs on every receipt before it is eligible for
// escrow reservation.
package checks

import (
	"context"

	"github.com/graphprotocol/tap-manager/receipt"
)

// CheckFunc evaluates rws and returns a non-nil error if it should be
// rejected. Implementations must not mutate rws.
type CheckFunc func(ctx context.Context, rws *receipt.WithState) error

// Check names a CheckFunc so the pipeline can report which checks passed.
type Check struct {
	Name string
	Fn   CheckFunc
}

// Pipeline runs an ordered sequence of checks, stopping at the first
// failure.
type Pipeline struct {
	checks []Check
}

// NewPipeline returns a Pipeline that runs checks in the given order.
func NewPipeline(checks ...Check) *Pipeline {
	return &Pipeline{checks: checks}
}

// Run evaluates every check in order against rws, returning the first
// error encountered (if any) along with the names of the checks that
// passed before it. On full success it returns every check's name and a
// nil error.
func (p *Pipeline) Run(ctx context.Context, rws *receipt.WithState) (passed []string, err error) {
	passed = make([]string, 0, len(p.checks))
	for _, c := range p.checks {
		if err := c.Fn(ctx, rws); err != nil {
			return passed, err
		}
		passed = append(passed, c.Name)
	}
	return passed, nil
}
