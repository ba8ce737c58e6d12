package observability

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Outcome labels shared by storage and solve metrics.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// SolverMetrics bundles collectors for chain traversal and ledger access.
type SolverMetrics struct {
	storageOps  *prometheus.CounterVec
	steps       prometheus.Counter
	chainLength prometheus.Gauge
	solves      *prometheus.CounterVec
	duration    prometheus.Histogram
	oracleCalls *prometheus.CounterVec
}

var (
	solverMetricsOnce sync.Once
	solverRegistry    *SolverMetrics
)

// Solver returns the lazily-initialised metrics registry for the chain solver.
func Solver() *SolverMetrics {
	solverMetricsOnce.Do(func() {
		solverRegistry = &SolverMetrics{
			storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "gatelock",
				Subsystem: "storage",
				Name:      "operations_total",
				Help:      "Storage reads and admin writes segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
			steps: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "gatelock",
				Subsystem: "solver",
				Name:      "steps_total",
				Help:      "Chain elements visited across all solves.",
			}),
			chainLength: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "gatelock",
				Subsystem: "solver",
				Name:      "chain_length",
				Help:      "Length word read at the start of the most recent solve.",
			}),
			solves: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "gatelock",
				Subsystem: "solver",
				Name:      "solves_total",
				Help:      "Completed solves segmented by verdict.",
			}, []string{"outcome"}),
			duration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "gatelock",
				Subsystem: "solver",
				Name:      "solve_duration_seconds",
				Help:      "Wall clock duration of a solve including the oracle call.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
			}),
			oracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "gatelock",
				Subsystem: "oracle",
				Name:      "calls_total",
				Help:      "isSolved calls segmented by outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(
			solverRegistry.storageOps,
			solverRegistry.steps,
			solverRegistry.chainLength,
			solverRegistry.solves,
			solverRegistry.duration,
			solverRegistry.oracleCalls,
		)
	})
	return solverRegistry
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// ObserveStorage records a single backend operation ("read" or "write").
func (m *SolverMetrics) ObserveStorage(op string, err error) {
	if m == nil {
		return
	}
	op = strings.TrimSpace(op)
	if op == "" {
		op = "unknown"
	}
	m.storageOps.WithLabelValues(op, outcomeOf(err)).Inc()
}

// ObserveStep counts one visited chain element.
func (m *SolverMetrics) ObserveStep() {
	if m == nil {
		return
	}
	m.steps.Inc()
}

// SetChainLength records the length word of the current puzzle.
func (m *SolverMetrics) SetChainLength(length uint64) {
	if m == nil {
		return
	}
	m.chainLength.Set(float64(length))
}

// ObserveOracle records the outcome of a verification call.
func (m *SolverMetrics) ObserveOracle(err error) {
	if m == nil {
		return
	}
	m.oracleCalls.WithLabelValues(outcomeOf(err)).Inc()
}

// ObserveSolve records the verdict and wall clock duration of a solve.
func (m *SolverMetrics) ObserveSolve(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = OutcomeError
	}
	m.solves.WithLabelValues(outcome).Inc()
	seconds := elapsed.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.duration.Observe(seconds)
}

// Push sends the default registry to a Prometheus push gateway. Batch runs use
// it instead of exposing a scrape endpoint.
func Push(ctx context.Context, gateway, job string) error {
	gateway = strings.TrimSpace(gateway)
	if gateway == "" {
		return nil
	}
	if job = strings.TrimSpace(job); job == "" {
		job = "gatelock"
	}
	if err := push.New(gateway, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gateway, err)
	}
	return nil
}
