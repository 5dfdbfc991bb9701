package graphcut

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/voxcut/flow"
	"github.com/katalvlaran/voxcut/label"
	"github.com/katalvlaran/voxcut/seeds"
	"github.com/katalvlaran/voxcut/volume"
)

// Filter is a configured segmentation. It keeps no state between runs and
// is safe for concurrent use; each Run owns its graph exclusively.
type Filter struct {
	params   Parameters
	log      *zap.Logger
	progress ProgressFunc
	workers  int
	solver   flow.Options
	maxBytes int64
}

// Option configures a Filter.
type Option func(*Filter)

// WithLogger sets the logger (default zap.NewNop()).
func WithLogger(l *zap.Logger) Option {
	return func(f *Filter) {
		if l != nil {
			f.log = l
		}
	}
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(f *Filter) { f.progress = fn }
}

// WithWorkers bounds the goroutines of the parallel phases (<= 0: GOMAXPROCS).
func WithWorkers(n int) Option {
	return func(f *Filter) { f.workers = n }
}

// WithSolverOptions sets epsilon and budgets of the max-flow solve.
func WithSolverOptions(o flow.Options) Option {
	return func(f *Filter) { f.solver = o }
}

// WithMaxGraphBytes refuses regions whose estimated graph memory exceeds n
// (0: unlimited).
func WithMaxGraphBytes(n int64) Option {
	return func(f *Filter) { f.maxBytes = n }
}

// New returns a Filter for p. Parameters are checked by Run.
func New(p Parameters, opts ...Option) *Filter {
	f := &Filter{
		params: p,
		log:    zap.NewNop(),
		solver: flow.DefaultOptions(),
	}
	// the solver logs through the filter's logger unless told otherwise
	f.solver.Logger = nil
	for _, o := range opts {
		o(f)
	}

	return f
}

// Parameters returns the configuration of f.
func (f *Filter) Parameters() Parameters { return f.params }

// StageTiming is the wall time spent in one stage.
type StageTiming struct {
	Stage   Stage
	Elapsed time.Duration
}

// Result is the outcome of a successful run.
type Result struct {
	// Labels covers exactly the processed region.
	Labels *label.Buffer[uint16]
	// Flow is the maximum-flow value (the minimum cut energy).
	Flow float64
	// Solved is false when seeds covered every voxel and no solve ran.
	Solved bool
	Stats  flow.Stats
	// Foreground counts voxels labeled with ForegroundLabel.
	Foreground int
	Timings    []StageTiming
}

// Input bundles the caller-owned, read-only inputs of a run.
type Input struct {
	Grid   *volume.Grid
	Region volume.Region
	Seeds  seeds.Set
}

// run is the per-call state machine.
type run struct {
	f       *Filter
	rep     *reporter
	stage   Stage
	started time.Time
	timings []StageTiming
}

func (r *run) enter(s Stage) {
	r.finish()
	r.stage = s
	r.started = time.Now()
	r.rep.enter(s)
}

func (r *run) finish() {
	if r.stage == Idle {
		return
	}
	r.rep.report(1)
	d := time.Since(r.started)
	r.timings = append(r.timings, StageTiming{Stage: r.stage, Elapsed: d})
	r.f.log.Info("stage finished", zap.Stringer("stage", r.stage), zap.Duration("elapsed", d))
}

func (r *run) done() {
	r.finish()
	r.stage = Done
	r.rep.enter(Done)
	r.rep.report(1)
}

func (r *run) fail(err error) error {
	err = &StageError{Stage: r.stage, Err: classify(err)}
	r.f.log.Error("segmentation failed", zap.Stringer("stage", r.stage), zap.Error(err))
	r.stage = Failed
	r.rep.enter(Failed)

	return err
}

// checkpoint enforces cancellation between stages.
func (r *run) checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return r.fail(err)
	}

	return nil
}

// Run segments in.Region of in.Grid from in.Seeds.
//
// Steps:
//  1. Validating: parameters, grid, region and seeds; required seed classes
//     and memory budget unless the seeds cover the region. Nothing is allocated before this stage passes.
//  2. BuildingGraph: BuildGraph over the region.
//  3. Solving: max-flow with the configured algorithm.
//  4. WritingLabels: map the partition to ForegroundLabel/BackgroundLabel.
//
// When the seeds cover every voxel, stages 2 and 3 are skipped and labels
// follow seed membership. Cancellation of ctx is honored between stages.
// Errors are *StageError values wrapping one of the error classes.
func (f *Filter) Run(ctx context.Context, in Input) (*Result, error) {
	r := &run{f: f, rep: &reporter{fn: f.progress}}
	p := f.params

	r.enter(Validating)
	res, err := f.validate(in)
	if err != nil {
		return nil, r.fail(err)
	}
	if err = r.checkpoint(ctx); err != nil {
		return nil, err
	}

	out := &Result{}
	var part *flow.Partition
	if res.Covers() {
		f.log.Info("seeds cover the region, skipping solve", zap.Int("vertices", len(res.Marks)))
		sides := make([]bool, len(res.Marks))
		for v, m := range res.Marks {
			sides[v] = m == seeds.Foreground
		}
		part = flow.NewPartition(sides)
	} else {
		r.enter(BuildingGraph)
		g, err := BuildGraph(ctx, in.Grid, res, p, BuildOptions{
			Workers:  f.workers,
			Progress: r.rep.report,
			Logger:   f.log,
		})
		if err != nil {
			return nil, r.fail(err)
		}
		if err = r.checkpoint(ctx); err != nil {
			return nil, err
		}

		r.enter(Solving)
		opts := f.solver
		if opts.Logger == nil {
			opts.Logger = f.log
		}
		if part, err = flow.Solve(g.Graph, p.Algorithm, opts); err != nil {
			return nil, r.fail(err)
		}
		out.Solved, out.Flow, out.Stats = true, part.Flow, part.Stats
		if err = r.checkpoint(ctx); err != nil {
			return nil, err
		}
	}

	r.enter(WritingLabels)
	if out.Labels, err = label.Write(part, res.Region, p.ForegroundLabel, p.BackgroundLabel); err != nil {
		return nil, r.fail(err)
	}
	out.Foreground = part.CountSource()

	r.done()
	out.Timings = r.timings
	f.log.Info("segmentation done",
		zap.Stringer("region", res.Region),
		zap.Bool("solved", out.Solved),
		zap.Float64("flow", out.Flow),
		zap.Int("foreground", out.Foreground),
	)

	return out, nil
}

// validate runs every check that needs no graph allocation.
func (f *Filter) validate(in Input) (*seeds.Resolved, error) {
	p := f.params
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if in.Grid == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrInput)
	}
	if err := in.Grid.Validate(); err != nil {
		return nil, err
	}
	if err := in.Grid.ValidateRegion(in.Region); err != nil {
		return nil, err
	}
	res, err := seeds.Resolve(in.Seeds, in.Region)
	if err != nil {
		return nil, err
	}
	if p.UseForegroundBackground && !res.Covers() {
		if len(res.Foreground) == 0 {
			return nil, seeds.ErrNoForeground
		}
		if len(res.Background) == 0 {
			return nil, seeds.ErrNoBackground
		}
	}
	if f.maxBytes > 0 && !res.Covers() {
		if need := EstimateGraphBytes(in.Grid, in.Region, p.Connectivity); need > f.maxBytes {
			return nil, fmt.Errorf("%w: need %d bytes, limit %d", ErrGraphBudget, need, f.maxBytes)
		}
	}

	return res, nil
}

// Segment is a one-shot helper: New(p, opts...).Run(ctx, in).
func Segment(ctx context.Context, in Input, p Parameters, opts ...Option) (*Result, error) {
	return New(p, opts...).Run(ctx, in)
}
