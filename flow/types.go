package flow

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNotConverged is returned when a solve exceeds its operation or time budget.
var ErrNotConverged = fmt.Errorf("flow: %w", errNotConverged)
var errNotConverged = fmt.Errorf("solver did not converge within budget")

// ErrGraphTooLarge is returned when the arc count does not fit int32 indices.
var ErrGraphTooLarge = fmt.Errorf("flow: %w", errGraphTooLarge)
var errGraphTooLarge = fmt.Errorf("graph too large for 32-bit arc indices")

// ErrVertexOutOfRange is returned for a vertex number outside [0, Len()).
var ErrVertexOutOfRange = fmt.Errorf("flow: %w", errVertexOutOfRange)
var errVertexOutOfRange = fmt.Errorf("vertex out of range")

// ErrDegreeExceeded is returned when a vertex has no free arc slot left.
var ErrDegreeExceeded = fmt.Errorf("flow: %w", errDegreeExceeded)
var errDegreeExceeded = fmt.Errorf("vertex arc slots exhausted")

// ErrSelfLoop is returned when an edge would connect a vertex to itself.
var ErrSelfLoop = fmt.Errorf("flow: %w", errSelfLoop)
var errSelfLoop = fmt.Errorf("self-loop not allowed")

// ErrMalformed is returned by Validate when sister arcs disagree.
var ErrMalformed = fmt.Errorf("flow: %w", errMalformed)
var errMalformed = fmt.Errorf("malformed arc pairing")

// ErrUnknownAlgorithm is returned for an Algorithm outside the known set.
var ErrUnknownAlgorithm = fmt.Errorf("flow: %w", errUnknownAlgorithm)
var errUnknownAlgorithm = fmt.Errorf("unknown max-flow algorithm")

// Terminal pseudo-vertices used in EdgeError.
const (
	Source = -1
	Sink   = -2
)

// EdgeError is returned when an arc has a negative or non-finite capacity.
type EdgeError struct {
	From, To int
	Cap      float64
}

func (e EdgeError) Error() string {
	return fmt.Sprintf("flow: invalid capacity on arc %s→%s: %g", vertexName(e.From), vertexName(e.To), e.Cap)
}

func vertexName(v int) string {
	switch v {
	case Source:
		return "s"
	case Sink:
		return "t"
	default:
		return fmt.Sprintf("%d", v)
	}
}

// Options configures every max-flow algorithm.
//   - Epsilon: residual capacities ≤ Epsilon count as zero (default 1e-9).
//   - MaxOperations: abort with ErrNotConverged after this many augmentations,
//     pushes and relabels combined (0 = unlimited).
//   - Timeout: abort with ErrNotConverged after this wall time (0 = unlimited).
//   - GlobalRelabelFrequency: push-relabel only; run a global relabel after
//     this many relabels per vertex (default 1).
//   - Logger: receives a debug record per solve (default zap.NewNop()).
type Options struct {
	Epsilon                float64
	MaxOperations          int64
	Timeout                time.Duration
	GlobalRelabelFrequency float64
	Logger                 *zap.Logger
}

// DefaultOptions returns production-safe defaults.
func DefaultOptions() Options {
	return Options{
		Epsilon:                1e-9,
		GlobalRelabelFrequency: 1,
		Logger:                 zap.NewNop(),
	}
}

func (o *Options) normalize() {
	if o.Epsilon <= 0 {
		o.Epsilon = 1e-9
	}
	if o.GlobalRelabelFrequency <= 0 {
		o.GlobalRelabelFrequency = 1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Stats counts the work done by one solve.
type Stats struct {
	Augmentations  int64
	Pushes         int64
	Relabels       int64
	GlobalRelabels int64
	Gaps           int64
}

func (s Stats) operations() int64 {
	return s.Augmentations + s.Pushes + s.Relabels
}

// budget enforces Options.MaxOperations and Options.Timeout.
type budget struct {
	max      int64
	deadline time.Time
	checks   int64
}

func newBudget(o Options) *budget {
	b := &budget{max: o.MaxOperations}
	if o.Timeout > 0 {
		b.deadline = time.Now().Add(o.Timeout)
	}

	return b
}

// check returns ErrNotConverged once the budget is spent. The clock is read
// every 1024 calls.
func (b *budget) check(st *Stats) error {
	if b.max > 0 && st.operations() > b.max {
		return fmt.Errorf("%w: %d operations", ErrNotConverged, st.operations())
	}
	b.checks++
	if !b.deadline.IsZero() && b.checks&1023 == 0 && time.Now().After(b.deadline) {
		return fmt.Errorf("%w: timeout after %d operations", ErrNotConverged, st.operations())
	}

	return nil
}
