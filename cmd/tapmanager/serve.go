package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/streamingfast/cli"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/cli/sflags"
	"github.com/streamingfast/eth-go"

	"github.com/graphprotocol/tap-manager/config"
	"github.com/graphprotocol/tap-manager/tap"
)

var serveCmd = Command(
	runServe,
	"serve",
	"Start the TAP receipt manager demo server",
	Description(`
		Starts an HTTP server exposing a receipt ingest endpoint ("/receipts")
		backed by an in-memory manager, check pipeline, and reference
		aggregator. Allow-lists and appraisals are seeded from a YAML file;
		see config.Seed for its shape.
	`),
	Flags(func(flags *pflag.FlagSet) {
		flags.String("listen-addr", ":8080", "HTTP server listen address")
		flags.Uint64("chain-id", 1337, "Chain ID for the EIP-712 domain")
		flags.String("verifying-contract", "", "Verifying contract address for the EIP-712 domain (required)")
		flags.String("seed-config", "", "Path to the seed config YAML file (required)")
		flags.String("aggregator-key", "", "Aggregator private key, hex-encoded (required)")
		flags.Duration("rav-buffer", 30*time.Second, "Minimum age a receipt must reach before a RAV request may absorb it")
		flags.Uint64("rav-trigger-count", 50, "Receipt count per allocation that triggers a RAV request")
	}),
)

func runServe(cmd *cobra.Command, args []string) error {
	listenAddr := sflags.MustGetString(cmd, "listen-addr")
	chainID := sflags.MustGetUint64(cmd, "chain-id")
	verifyingContractHex := sflags.MustGetString(cmd, "verifying-contract")
	seedConfigPath := sflags.MustGetString(cmd, "seed-config")
	aggregatorKeyHex := sflags.MustGetString(cmd, "aggregator-key")
	ravBuffer := sflags.MustGetDuration(cmd, "rav-buffer")
	ravTriggerCount := sflags.MustGetUint64(cmd, "rav-trigger-count")

	cli.Ensure(verifyingContractHex != "", "<verifying-contract> is required")
	verifyingContract, err := eth.NewAddress(verifyingContractHex)
	cli.NoError(err, "invalid <verifying-contract> %q", verifyingContractHex)

	cli.Ensure(seedConfigPath != "", "<seed-config> is required")
	seed, err := config.Load(seedConfigPath)
	cli.NoError(err, "failed to load seed config from %q", seedConfigPath)

	cli.Ensure(aggregatorKeyHex != "", "<aggregator-key> is required")
	aggregatorKey, err := eth.NewPrivateKey(aggregatorKeyHex)
	cli.NoError(err, "invalid <aggregator-key>")

	svcConfig := &ServiceConfig{
		ListenAddr:      listenAddr,
		Domain:          tap.NewDomain(chainID, verifyingContract),
		AggregatorKey:   aggregatorKey,
		Seed:            seed,
		RAVBufferNs:     uint64(ravBuffer.Nanoseconds()),
		RAVTriggerCount: int(ravTriggerCount),
	}

	app := NewApplication(cmd.Context())

	svc := NewService(svcConfig, zlog)
	app.SuperviseAndStart(svc)

	return app.WaitForTermination(zlog, 0*time.Second, 30*time.Second)
}
