package main

import (
	"os"

	"gatelock/config"
	"gatelock/observability/logging"
)

func main() {
	logger := logging.Setup(serviceName, os.Getenv(config.EnvName))
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
