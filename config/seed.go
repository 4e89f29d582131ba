// Package config loads the YAML-described seed data used to populate a
// fresh manager: the allocation and sender allow-lists, the aggregator
// allow-list, and the initial appraisal table. This generalizes the
// hard-coded fixtures the original integration-test server wired through
// flags into a single loadable file, in the YAML load/parse idiom of
// sidecar/pricing.go.
package config

import (
	"fmt"
	"math/big"
	"os"

	"github.com/streamingfast/eth-go"
	"gopkg.in/yaml.v3"
)

// Appraisal maps a request id to its expected receipt value.
type Appraisal struct {
	RequestID string `yaml:"request_id"`
	ValueStr  string `yaml:"value"`
}

// Seed is the YAML-loadable shape of a manager's initial state.
type Seed struct {
	AllocationAllowlist []string    `yaml:"allocation_allowlist"`
	SenderAllowlist     []string    `yaml:"sender_allowlist"`
	AggregatorAllowlist []string    `yaml:"aggregator_allowlist"`
	Appraisals          []Appraisal `yaml:"appraisals"`
}

// Resolved is Seed with every address parsed and every appraisal value
// converted to *big.Int.
type Resolved struct {
	AllocationAllowlist []eth.Address
	SenderAllowlist     []eth.Address
	AggregatorAllowlist []eth.Address
	Appraisals          map[string]*big.Int
}

// Load reads and parses the seed file at path.
func Load(path string) (*Resolved, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed config: %w", err)
	}
	return Parse(data)
}

// Parse parses seed config YAML bytes and resolves every address and
// appraisal value.
func Parse(data []byte) (*Resolved, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed config: %w", err)
	}

	resolved := &Resolved{
		Appraisals: make(map[string]*big.Int, len(seed.Appraisals)),
	}

	var err error
	if resolved.AllocationAllowlist, err = resolveAddresses(seed.AllocationAllowlist); err != nil {
		return nil, fmt.Errorf("allocation_allowlist: %w", err)
	}
	if resolved.SenderAllowlist, err = resolveAddresses(seed.SenderAllowlist); err != nil {
		return nil, fmt.Errorf("sender_allowlist: %w", err)
	}
	if resolved.AggregatorAllowlist, err = resolveAddresses(seed.AggregatorAllowlist); err != nil {
		return nil, fmt.Errorf("aggregator_allowlist: %w", err)
	}

	for _, a := range seed.Appraisals {
		value, ok := new(big.Int).SetString(a.ValueStr, 10)
		if !ok {
			return nil, fmt.Errorf("appraisal %q: invalid value %q", a.RequestID, a.ValueStr)
		}
		resolved.Appraisals[a.RequestID] = value
	}

	return resolved, nil
}

func resolveAddresses(raw []string) ([]eth.Address, error) {
	out := make([]eth.Address, 0, len(raw))
	for _, s := range raw {
		addr, err := eth.NewAddress(s)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", s, err)
		}
		out = append(out, addr)
	}
	return out, nil
}
