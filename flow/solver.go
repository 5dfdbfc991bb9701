package flow

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Algorithm selects a max-flow strategy.
type Algorithm int

const (
	// IncrementalAugmenting grows search trees from both terminals and
	// reuses them across augmentations (Boykov–Kolmogorov).
	IncrementalAugmenting Algorithm = iota
	// PushRelabelFIFO processes active vertices first-in first-out.
	PushRelabelFIFO
	// PushRelabelHighestLevel always processes the highest active vertex.
	PushRelabelHighestLevel
	// Dinic alternates level graphs and blocking flows.
	Dinic
)

// Algorithms lists every strategy in declaration order.
var Algorithms = []Algorithm{IncrementalAugmenting, PushRelabelFIFO, PushRelabelHighestLevel, Dinic}

// String returns the configuration name of a.
func (a Algorithm) String() string {
	switch a {
	case IncrementalAugmenting:
		return "incremental"
	case PushRelabelFIFO:
		return "fifo"
	case PushRelabelHighestLevel:
		return "highest-level"
	case Dinic:
		return "dinic"
	default:
		return fmt.Sprintf("unknown(%d)", int(a))
	}
}

// ParseAlgorithm parses the names produced by Algorithm.String.
func ParseAlgorithm(name string) (Algorithm, error) {
	for _, a := range Algorithms {
		if a.String() == name {
			return a, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Solver computes a minimum s–t cut of a Graph. Implementations are
// stateless; all working memory is allocated per call.
type Solver interface {
	Solve(g *Graph, opts Options) (*Partition, error)
}

type solverFunc func(g *Graph, opts Options) (*residual, Stats, error)

func (f solverFunc) Solve(g *Graph, opts Options) (*Partition, error) {
	r, st, err := f(g, opts)
	if err != nil {
		return nil, err
	}

	return &Partition{Flow: r.flow(), Stats: st, sinkSide: r.cut()}, nil
}

// New returns the Solver for a.
func New(a Algorithm) (Solver, error) {
	switch a {
	case IncrementalAugmenting:
		return solverFunc(augmenting), nil
	case PushRelabelFIFO:
		return solverFunc(func(g *Graph, o Options) (*residual, Stats, error) {
			return pushRelabel(g, o, false)
		}), nil
	case PushRelabelHighestLevel:
		return solverFunc(func(g *Graph, o Options) (*residual, Stats, error) {
			return pushRelabel(g, o, true)
		}), nil
	case Dinic:
		return solverFunc(dinic), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(a))
	}
}

// Solve runs algorithm a on g. The graph is validated first and is never
// modified.
//
// Errors: ErrUnknownAlgorithm, EdgeError, ErrMalformed, ErrNotConverged.
// Complexity: see the individual algorithms.
func Solve(g *Graph, a Algorithm, opts Options) (*Partition, error) {
	opts.normalize()
	s, err := New(a)
	if err != nil {
		return nil, err
	}
	if err = g.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	p, err := s.Solve(g, opts)
	if err != nil {
		opts.Logger.Warn("max-flow aborted", zap.Stringer("algorithm", a), zap.Error(err))

		return nil, err
	}
	p.Algorithm = a
	opts.Logger.Debug("max-flow solved",
		zap.Stringer("algorithm", a),
		zap.Int("vertices", g.n),
		zap.Float64("flow", p.Flow),
		zap.Int64("augmentations", p.Stats.Augmentations),
		zap.Int64("pushes", p.Stats.Pushes),
		zap.Int64("relabels", p.Stats.Relabels),
		zap.Int64("global_relabels", p.Stats.GlobalRelabels),
		zap.Int64("gaps", p.Stats.Gaps),
		zap.Duration("elapsed", time.Since(start)),
	)

	return p, nil
}

// newResidual copies the capacities of g into fresh residual arrays.
func newResidual(g *Graph, eps float64) *residual {
	r := &residual{
		g:   g,
		res: make([]float64, len(g.cap)),
		snk: make([]float64, g.n),
		eps: eps,
	}
	copy(r.res, g.cap)
	copy(r.snk, g.sink)

	return r
}

// flow is the total flow into the sink: initial minus residual sink capacity.
func (r *residual) flow() float64 {
	var f float64
	for v, c := range r.g.sink {
		f += c - r.snk[v]
	}

	return f
}
