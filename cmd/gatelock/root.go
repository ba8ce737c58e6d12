package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "gatelock",
		Short: "Solve GateLock storage-chain puzzles on a dev node or in a simulated ledger",
		Long: `gatelock walks the packed record chain stored by a GateLock contract,
flips every visited record's unlocked bit through the node's storage override
and submits the visited keys to isSolved.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "override the configured log format (json, text, auto)")

	cmd.AddCommand(
		newSolveCmd(flags),
		newSimulateCmd(flags),
		newSlotCmd(),
		newDecodeCmd(),
	)
	return cmd
}
