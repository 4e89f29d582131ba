package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/streamingfast/cli"
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/eth-go"
)

var genKeysCmd = Command(
	runGenKeys,
	"genkeys",
	"Generate a random private key and its address, for local dev/demo use",
	Flags(func(flags *pflag.FlagSet) {
		flags.Int("count", 1, "number of keys to generate")
	}),
)

func runGenKeys(cmd *cobra.Command, args []string) error {
	count, err := cmd.Flags().GetInt("count")
	cli.NoError(err, "reading --count")

	for i := 0; i < count; i++ {
		key, err := eth.NewRandomPrivateKey()
		cli.NoError(err, "generating private key")

		fmt.Printf("private_key=0x%s address=%s\n", key.String(), key.PublicKey().Address().Pretty())
	}
	return nil
}
