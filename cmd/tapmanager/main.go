package main

import (
	. "github.com/streamingfast/cli"
	"github.com/streamingfast/logging"
	"go.uber.org/zap"
)

var zlog, _ = logging.PackageLogger("tapmanager", "github.com/graphprotocol/tap-manager/cmd/tapmanager")
var version = "dev"

func init() {
	logging.InstantiateLoggers(logging.WithDefaultLevel(zap.InfoLevel))
}

func main() {
	Run(
		"tapmanager",
		"TAP receipt manager demo CLI",
		ConfigureVersion(version),
		OnCommandErrorLogAndExit(zlog),

		serveCmd,
		genKeysCmd,
		reqIDCmd,
	)
}
