package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	. "github.com/streamingfast/cli"
)

var reqIDCmd = Command(
	runReqID,
	"new-request-id",
	"Print a fresh request id, for use with the /receipts endpoint's appraisal lookup",
)

func runReqID(cmd *cobra.Command, args []string) error {
	fmt.Println(uuid.New().String())
	return nil
}
