package main

import (
	"github.com/spf13/cobra"

	"gatelock/config"
)

func newSimulateCmd(flags *rootFlags) *cobra.Command {
	var (
		length   int
		seed     int64
		levelDB  string
		maxSteps uint64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate a puzzle, provision it into a local ledger and solve it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			cfg.Backend = config.BackendMemory
			if levelDB != "" {
				cfg.Backend = config.BackendLevelDB
				cfg.LevelDBPath = levelDB
			}
			cfg.Simulation.Length = &length
			cfg.Simulation.Seed = &seed
			cfg.Solver.MaxSteps = maxSteps
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return run(cmd, flags, cfg)
		},
	}
	cmd.Flags().IntVar(&length, "length", 16, "number of chain elements")
	cmd.Flags().Int64Var(&seed, "seed", 1, "seed for the puzzle generator")
	cmd.Flags().StringVar(&levelDB, "leveldb", "", "persist the simulated ledger in a LevelDB directory")
	cmd.Flags().Uint64Var(&maxSteps, "max-steps", 0, "refuse chains longer than this (0 disables the guard)")
	return cmd
}
