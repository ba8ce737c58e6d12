package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"gatelock/config"
	"gatelock/ledger"
	"gatelock/observability"
	"gatelock/observability/logging"
	telemetry "gatelock/observability/otel"
	"gatelock/solver"
	"gatelock/storage"
)

const serviceName = "gatelock"

func newSolveCmd(flags *rootFlags) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve the puzzle of the configured deployment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cmd, flags, cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "gatelock.yaml", "path to a YAML or TOML config file, created with defaults when missing")
	return cmd
}

// run opens the configured deployment, solves it and prints the result. A
// rejected solution is reported as solver.ErrRejected after printing.
func run(cmd *cobra.Command, flags *rootFlags, cfg *config.Config) error {
	ctx := cmd.Context()
	opts := logging.Options{
		Service: serviceName,
		Env:     cfg.Environment,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Output:  cmd.ErrOrStderr(),
	}
	if flags.logLevel != "" {
		opts.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		opts.Format = flags.logFormat
	}
	logger, closer, err := logging.New(opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout.Duration)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	dep, err := openDeployment(ctx, cfg)
	if err != nil {
		return err
	}
	defer dep.Close()
	logger.LogAttrs(ctx, slog.LevelInfo, "deployment ready", deploymentAttrs(cfg, dep)...)

	s, err := solver.New(dep,
		solver.WithLogger(logger),
		solver.WithMetrics(observability.Solver()),
		solver.WithMaxSteps(cfg.Solver.MaxSteps),
	)
	if err != nil {
		return err
	}
	solveCtx, cancel := context.WithTimeout(ctx, cfg.SolveTimeout.Duration)
	defer cancel()
	res, solveErr := s.Solve(solveCtx)

	pushCtx, cancelPush := context.WithTimeout(ctx, cfg.RequestTimeout.Duration)
	defer cancelPush()
	if err := observability.Push(pushCtx, cfg.Metrics.PushGateway, cfg.Metrics.Job); err != nil {
		logger.Warn("metrics push failed", "error", err)
	}

	if solveErr != nil {
		return solveErr
	}
	if err := printResult(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	return res.Err()
}

// openDeployment dials the node for the rpc backend. The memory and leveldb
// backends provision a generated puzzle first.
func openDeployment(ctx context.Context, cfg *config.Config) (ledger.Deployment, error) {
	switch cfg.Backend {
	case config.BackendRPC:
		dialCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout.Duration)
		defer cancel()
		return ledger.Dial(dialCtx, cfg.DialConfig())
	case config.BackendMemory:
		return simulateInto(ctx, cfg, storage.NewMemBackend())
	case config.BackendLevelDB:
		backend, err := storage.NewLevelBackend(cfg.LevelDBPath)
		if err != nil {
			return ledger.Deployment{}, err
		}
		dep, err := simulateInto(ctx, cfg, backend)
		if err != nil {
			backend.Close()
			return ledger.Deployment{}, err
		}
		return dep, nil
	default:
		return ledger.Deployment{}, fmt.Errorf("backend %q not supported", cfg.Backend)
	}
}

func simulateInto(ctx context.Context, cfg *config.Config, backend storage.Backend) (ledger.Deployment, error) {
	puzzle := ledger.NewPuzzle(cfg.Simulation.Params())
	return ledger.Simulate(ctx, puzzle,
		ledger.WithBackend(backend),
		ledger.WithAddress(cfg.ContractAddress()),
		ledger.WithLayout(cfg.Layout()),
	)
}

// deploymentAttrs describes the opened deployment for the startup log line.
// Keys outside the logging allowlist are redacted.
func deploymentAttrs(cfg *config.Config, dep ledger.Deployment) []slog.Attr {
	attrs := []slog.Attr{
		logging.MaskField("backend", cfg.Backend),
		logging.MaskField("contract", dep.Address.Hex()),
	}
	if cfg.Backend == config.BackendRPC {
		attrs = append(attrs,
			logging.MaskField("admin_method", cfg.AdminMethod),
			slog.String("rpc_url", logging.MaskURL(cfg.RPCURL)),
		)
	}
	return attrs
}

type resultView struct {
	SolveID  string   `json:"solve_id"`
	Accepted bool     `json:"accepted"`
	Steps    uint64   `json:"steps"`
	Elapsed  string   `json:"elapsed"`
	IDs      []string `json:"ids"`
}

func printResult(w io.Writer, res solver.Result) error {
	view := resultView{
		SolveID:  res.SolveID,
		Accepted: res.Accepted,
		Steps:    res.Steps,
		Elapsed:  res.Elapsed.Round(time.Microsecond).String(),
		IDs:      make([]string, len(res.IDs)),
	}
	for i, id := range res.IDs {
		view.IDs[i] = id.Dec()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
