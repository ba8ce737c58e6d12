package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gatelock/ledger"
	"gatelock/observability"
	"gatelock/record"
	"gatelock/storage"
)

var (
	// ErrRejected is reported by Result.Err when the oracle returned false.
	ErrRejected = errors.New("solver: solution rejected")
	// ErrTooManySteps guards live nodes against corrupt length words.
	ErrTooManySteps = errors.New("solver: chain length exceeds step limit")
)

// Result is the outcome of one solve.
type Result struct {
	SolveID  string
	IDs      []*uint256.Int
	Accepted bool
	Steps    uint64
	Elapsed  time.Duration
}

// Err converts a rejection into ErrRejected for callers that treat it as a
// failure.
func (r Result) Err() error {
	if r.Accepted {
		return nil
	}
	return ErrRejected
}

// Option customises a Solver.
type Option func(*Solver)

// WithLogger sets the logger. Per-step output is emitted at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Solver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records storage, step and verdict metrics in m.
func WithMetrics(m *observability.SolverMetrics) Option {
	return func(s *Solver) {
		s.metrics = m
	}
}

// WithTracer overrides the tracer obtained from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Solver) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMaxSteps refuses chains longer than limit. Zero means no limit.
func WithMaxSteps(limit uint64) Option {
	return func(s *Solver) {
		s.maxSteps = limit
	}
}

// Solver walks the record chain of one deployment and submits the visited
// keys to its oracle. A Solver assumes exclusive access to the ledger; solve
// independent puzzles with separate deployments.
type Solver struct {
	dep      ledger.Deployment
	store    *storage.WordStore
	logger   *slog.Logger
	metrics  *observability.SolverMetrics
	tracer   trace.Tracer
	maxSteps uint64
	now      func() time.Time
}

// New binds a solver to dep.
func New(dep ledger.Deployment, opts ...Option) (*Solver, error) {
	if err := dep.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{
		dep:    dep.WithDefaults(),
		logger: slog.Default(),
		tracer: otel.Tracer("gatelock/solver"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = storage.NewWordStore(dep.Backend,
		storage.WithLogger(s.logger),
		storage.WithMetrics(s.metrics),
	)
	return s, nil
}

// Walk reads the chain length, then visits exactly that many records: each
// is read, written back with its unlocked flag set, and its parity branch
// selects the next key. Storage errors abort the walk; words already written
// stay written.
func (s *Solver) Walk(ctx context.Context) (*ChainState, error) {
	return s.walk(ctx, s.logger)
}

func (s *Solver) walk(ctx context.Context, logger *slog.Logger) (*ChainState, error) {
	state := newChainState()
	lengthWord, err := s.store.Read(ctx, s.dep.Address, s.dep.Layout.LengthSlot)
	if err != nil {
		return nil, fmt.Errorf("read chain length: %w", err)
	}
	total := lengthWord.Uint64()
	if s.maxSteps > 0 && total > s.maxSteps {
		return nil, fmt.Errorf("%w: length %d, limit %d", ErrTooManySteps, total, s.maxSteps)
	}
	s.metrics.SetChainLength(total)
	state.begin(total)
	logger.Debug("chain length read", "total", total)

	for state.Remaining > 0 {
		if err := s.step(ctx, logger, state); err != nil {
			return nil, err
		}
	}
	state.Phase = PhaseDone
	return state, nil
}

func (s *Solver) step(ctx context.Context, logger *slog.Logger, state *ChainState) error {
	index := state.Step()
	key := state.Key
	state.IDs = append(state.IDs, key)

	slot := storage.MappingSlot(key, s.dep.Layout.ValueMapSlot)
	word, err := s.store.Read(ctx, s.dep.Address, slot)
	if err != nil {
		return fmt.Errorf("step %d key %s: %w", index, key.Dec(), err)
	}
	rec := record.Decode(word)
	if err := s.store.Write(ctx, s.dep.Address, slot, record.SetUnlocked(word)); err != nil {
		return fmt.Errorf("step %d key %s: %w", index, key.Dec(), err)
	}
	state.Key = rec.Next()
	state.Remaining--
	s.metrics.ObserveStep()
	logger.Debug("chain step",
		"step", index,
		"key", key.Dec(),
		"first", rec.First,
		"second", rec.Second.Dec(),
		"was_unlocked", rec.Unlocked,
		"next", state.Key.Dec(),
	)
	return nil
}

// Solve walks the chain and asks the oracle to verify the visited keys. A
// false verdict yields Accepted == false with a nil error. On error the
// returned Result is empty.
func (s *Solver) Solve(ctx context.Context) (Result, error) {
	solveID := uuid.NewString()
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "gatelock.solve", trace.WithAttributes(
		attribute.String("gatelock.solve_id", solveID),
		attribute.String("gatelock.contract", s.dep.Address.Hex()),
	))
	defer span.End()

	logger := s.logger.With("solve_id", solveID, "contract", s.dep.Address.Hex())
	logger.Info("solve started")

	state, err := s.walk(ctx, logger)
	if err != nil {
		s.abort(span, logger, start, err)
		return Result{}, err
	}
	span.AddEvent("chain walked", trace.WithAttributes(stepsAttr(state.Total)))

	accepted, err := s.dep.Oracle.IsSolved(ctx, state.IDs)
	s.metrics.ObserveOracle(err)
	if err != nil {
		err = fmt.Errorf("verify solution: %w", err)
		s.abort(span, logger, start, err)
		return Result{}, err
	}

	elapsed := s.now().Sub(start)
	outcome := observability.OutcomeAccepted
	if !accepted {
		outcome = observability.OutcomeRejected
	}
	s.metrics.ObserveSolve(outcome, elapsed)
	span.SetAttributes(
		stepsAttr(state.Total),
		attribute.Bool("gatelock.accepted", accepted),
	)
	logger.Info("solve finished", "steps", state.Total, "accepted", accepted, "elapsed", elapsed)

	return Result{
		SolveID:  solveID,
		IDs:      state.IDs,
		Accepted: accepted,
		Steps:    state.Total,
		Elapsed:  elapsed,
	}, nil
}

func (s *Solver) abort(span trace.Span, logger *slog.Logger, start time.Time, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.metrics.ObserveSolve(observability.OutcomeError, s.now().Sub(start))
	logger.Error("solve aborted", "error", err)
}

// stepsAttr records the walked length on a span. Lengths beyond the int64
// range saturate at math.MaxInt64.
func stepsAttr(total uint64) attribute.KeyValue {
	if total > math.MaxInt64 {
		return attribute.Int64("gatelock.steps", math.MaxInt64)
	}
	return attribute.Int64("gatelock.steps", int64(total))
}
