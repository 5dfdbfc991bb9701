package graphcut_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/voxcut/boundary"
	"github.com/katalvlaran/voxcut/flow"
	"github.com/katalvlaran/voxcut/graphcut"
	"github.com/katalvlaran/voxcut/seeds"
	"github.com/katalvlaran/voxcut/volume"
)

// rampInput is the 4×4×1 diagonal ramp from intensity 10 at (0,0) to 200
// at (3,3), seeded at both corners.
func rampInput(t require.TestingT) graphcut.Input {
	ext := volume.Size{X: 4, Y: 4, Z: 1}
	data := make([]float64, ext.Len())
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			data[y*4+x] = 10 + float64(x+y)*190/6
		}
	}
	g, err := volume.NewGrid(ext, volume.Isotropic(), data)
	require.NoError(t, err)

	return graphcut.Input{
		Grid:   g,
		Region: volume.RegionOf(ext),
		Seeds: seeds.Set{
			Foreground: []volume.Index{{X: 0, Y: 0}},
			Background: []volume.Index{{X: 3, Y: 3}},
		},
	}
}

func rampParams() graphcut.Parameters {
	p := graphcut.DefaultParameters()
	p.Sigma = 1
	p.HistogramBins = 16
	p.HistogramSmoothing = 2

	return p
}

// FilterSuite runs the facade end to end.
type FilterSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *FilterSuite) SetupTest() {
	s.ctx = context.Background()
}

// TestRampScenario separates the dark half from the bright half along the
// diagonal; the tied diagonal x+y == 3 has no residual path to the sink.
func (s *FilterSuite) TestRampScenario() {
	in := rampInput(s.T())
	p := rampParams()
	res, err := graphcut.Segment(s.ctx, in, p)
	s.Require().NoError(err)
	s.Require().True(res.Solved)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := p.BackgroundLabel
			if x+y <= 3 {
				want = p.ForegroundLabel
			}
			s.Require().Equal(want, res.Labels.At(volume.Index{X: x, Y: y}), "voxel (%d,%d)", x, y)
		}
	}
	s.Require().Equal(10, res.Foreground)
	s.Require().Greater(res.Flow, 0.0)
}

// TestVariantsByteIdentical solves the same graph with every algorithm.
func (s *FilterSuite) TestVariantsByteIdentical() {
	in := rampInput(s.T())
	var ref []uint16
	for _, alg := range flow.Algorithms {
		p := rampParams()
		p.Algorithm = alg
		res, err := graphcut.Segment(s.ctx, in, p)
		s.Require().NoError(err, alg.String())
		if ref == nil {
			ref = res.Labels.Data
			continue
		}
		s.Require().Equal(ref, res.Labels.Data, alg.String())
	}
}

// TestFullSeedShortCircuit labels by seed membership without a solve.
func (s *FilterSuite) TestFullSeedShortCircuit() {
	ext := volume.Size{X: 2, Y: 2, Z: 1}
	g, err := volume.NewGrid(ext, volume.Isotropic(), []float64{1, 2, 3, 4})
	s.Require().NoError(err)
	in := graphcut.Input{
		Grid:   g,
		Region: volume.RegionOf(ext),
		Seeds: seeds.Set{
			Foreground: []volume.Index{{X: 0, Y: 0}, {X: 1, Y: 1}},
			Background: []volume.Index{{X: 1, Y: 0}, {X: 0, Y: 1}},
		},
	}
	var stages []graphcut.Stage
	res, err := graphcut.Segment(s.ctx, in, graphcut.DefaultParameters(),
		graphcut.WithProgress(func(st graphcut.Stage, f float64) {
			if f == 0 {
				stages = append(stages, st)
			}
		}))
	s.Require().NoError(err)
	s.Require().False(res.Solved)
	s.Require().Equal([]uint16{1, 0, 0, 1}, res.Labels.Data)
	s.Require().Equal([]graphcut.Stage{graphcut.Validating, graphcut.WritingLabels, graphcut.Done}, stages)

	// one class covering the region needs no statistics
	ext = volume.Size{X: 2, Y: 1, Z: 1}
	g, err = volume.NewGrid(ext, volume.Isotropic(), []float64{1, 2})
	s.Require().NoError(err)
	in = graphcut.Input{
		Grid:   g,
		Region: volume.RegionOf(ext),
		Seeds:  seeds.Set{Foreground: []volume.Index{{X: 0}, {X: 1}}},
	}
	s.Require().True(graphcut.DefaultParameters().UseForegroundBackground)
	res, err = graphcut.Segment(s.ctx, in, graphcut.DefaultParameters())
	s.Require().NoError(err)
	s.Require().False(res.Solved)
	s.Require().Equal([]uint16{1, 1}, res.Labels.Data)
	s.Require().Equal(2, res.Foreground)

	in.Seeds = seeds.Set{Background: in.Seeds.Foreground}
	res, err = graphcut.Segment(s.ctx, in, graphcut.DefaultParameters())
	s.Require().NoError(err)
	s.Require().Equal([]uint16{0, 0}, res.Labels.Data)
}

// TestFloatingVertex places a voxel cut off from both seeds on the
// foreground side.
func (s *FilterSuite) TestFloatingVertex() {
	ext := volume.Size{X: 3, Y: 1, Z: 1}
	g, err := volume.NewGrid(ext, volume.Isotropic(), []float64{0, 1000, 0})
	s.Require().NoError(err)
	p := graphcut.DefaultParameters()
	p.UseForegroundBackground = false
	p.Sigma = 1
	for _, alg := range flow.Algorithms {
		p.Algorithm = alg
		res, err := graphcut.Segment(s.ctx, graphcut.Input{
			Grid:   g,
			Region: volume.RegionOf(ext),
			Seeds: seeds.Set{
				Foreground: []volume.Index{{X: 0}},
				Background: []volume.Index{{X: 2}},
			},
		}, p)
		s.Require().NoError(err)
		s.Require().Equal([]uint16{1, 1, 0}, res.Labels.Data, alg.String())
	}
}

// TestProgressMonotone checks stage order and non-decreasing fractions.
func (s *FilterSuite) TestProgressMonotone() {
	type call struct {
		stage graphcut.Stage
		f     float64
	}
	var calls []call
	_, err := graphcut.Segment(s.ctx, rampInput(s.T()), rampParams(),
		graphcut.WithWorkers(3),
		graphcut.WithProgress(func(st graphcut.Stage, f float64) {
			calls = append(calls, call{st, f})
		}))
	s.Require().NoError(err)

	var order []graphcut.Stage
	for i, c := range calls {
		s.Require().GreaterOrEqual(c.f, 0.0)
		s.Require().LessOrEqual(c.f, 1.0)
		if i > 0 && calls[i-1].stage == c.stage {
			s.Require().GreaterOrEqual(c.f, calls[i-1].f)
		}
		if c.f == 0 {
			order = append(order, c.stage)
		}
	}
	s.Require().Equal([]graphcut.Stage{
		graphcut.Validating, graphcut.BuildingGraph, graphcut.Solving, graphcut.WritingLabels, graphcut.Done,
	}, order)
	s.Require().Equal(call{graphcut.Done, 1}, calls[len(calls)-1])
}

// TestTimings reports one entry per completed stage.
func (s *FilterSuite) TestTimings() {
	res, err := graphcut.Segment(s.ctx, rampInput(s.T()), rampParams())
	s.Require().NoError(err)
	s.Require().Len(res.Timings, 4)
	s.Require().Equal(graphcut.Validating, res.Timings[0].Stage)
	s.Require().Equal(graphcut.WritingLabels, res.Timings[3].Stage)
}

func TestFilterSuite(t *testing.T) {
	suite.Run(t, new(FilterSuite))
}

// TestHardConstraints verifies that seeds keep their side for random
// volumes, seeds and parameter combinations under every algorithm.
func TestHardConstraints(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	dirs := []boundary.Direction{boundary.None, boundary.PreferBrightToDark, boundary.PreferDarkToBright}
	for iter := 0; iter < 30; iter++ {
		ext := volume.Size{X: 3 + rng.Intn(4), Y: 3 + rng.Intn(4), Z: 1 + rng.Intn(3)}
		data := make([]float64, ext.Len())
		for i := range data {
			data[i] = rng.Float64() * 255
		}
		g, err := volume.NewGrid(ext, volume.Spacing{X: 1, Y: 1, Z: 0.5 + rng.Float64()}, data)
		require.NoError(t, err)
		region := volume.RegionOf(ext)

		var set seeds.Set
		used := map[volume.Index]bool{}
		for len(set.Foreground) < 3 || len(set.Background) < 3 {
			idx := region.Unflatten(rng.Intn(region.Len()))
			if used[idx] {
				continue
			}
			used[idx] = true
			if len(set.Foreground) < 3 {
				set.Foreground = append(set.Foreground, idx)
			} else {
				set.Background = append(set.Background, idx)
			}
		}

		p := graphcut.DefaultParameters()
		p.Sigma = 1 + rng.Float64()*100
		p.UseGradientMagnitude = rng.Intn(2) == 0
		p.UseForegroundBackground = rng.Intn(2) == 0
		p.BoundaryDirection = dirs[rng.Intn(len(dirs))]
		if rng.Intn(2) == 0 {
			p.Connectivity = volume.Conn26
		}
		for _, alg := range flow.Algorithms {
			p.Algorithm = alg
			res, err := graphcut.Segment(context.Background(), graphcut.Input{Grid: g, Region: region, Seeds: set}, p)
			require.NoError(t, err)
			for _, idx := range set.Foreground {
				require.Equal(t, p.ForegroundLabel, res.Labels.At(idx), "iter %d %s fg %s", iter, alg, idx)
			}
			for _, idx := range set.Background {
				require.Equal(t, p.BackgroundLabel, res.Labels.At(idx), "iter %d %s bg %s", iter, alg, idx)
			}
		}
	}
}

// TestErrorClasses maps every failure onto its class and stage.
func TestErrorClasses(t *testing.T) {
	base := rampInput(t)
	cases := []struct {
		name  string
		in    func(graphcut.Input) graphcut.Input
		p     func(graphcut.Parameters) graphcut.Parameters
		opts  []graphcut.Option
		class error
		cause error
		stage graphcut.Stage
	}{
		{
			name:  "ZeroSigma",
			p:     func(p graphcut.Parameters) graphcut.Parameters { p.Sigma = 0; return p },
			class: graphcut.ErrConfiguration,
			stage: graphcut.Validating,
		},
		{
			name:  "Connectivity",
			p:     func(p graphcut.Parameters) graphcut.Parameters { p.Connectivity = 8; return p },
			class: graphcut.ErrConfiguration,
			stage: graphcut.Validating,
		},
		{
			name:  "SameLabels",
			p:     func(p graphcut.Parameters) graphcut.Parameters { p.BackgroundLabel = p.ForegroundLabel; return p },
			class: graphcut.ErrConfiguration,
			stage: graphcut.Validating,
		},
		{
			name: "ConflictingSeeds",
			in: func(in graphcut.Input) graphcut.Input {
				in.Seeds.Background = append(in.Seeds.Background, volume.Index{})
				return in
			},
			class: graphcut.ErrConfiguration,
			cause: seeds.ErrConflict,
			stage: graphcut.Validating,
		},
		{
			name: "SeedOutsideRegion",
			in: func(in graphcut.Input) graphcut.Input {
				in.Seeds.Foreground = append(in.Seeds.Foreground, volume.Index{X: 9})
				return in
			},
			class: graphcut.ErrInput,
			cause: seeds.ErrOutOfRegion,
			stage: graphcut.Validating,
		},
		{
			name: "EmptyRegion",
			in: func(in graphcut.Input) graphcut.Input {
				in.Region = volume.Region{}
				return in
			},
			class: graphcut.ErrInput,
			cause: volume.ErrEmptyRegion,
			stage: graphcut.Validating,
		},
		{
			name:  "NaNSample",
			in:    withSample(5, math.NaN()),
			class: graphcut.ErrInput,
			cause: volume.ErrNonFiniteSample,
			stage: graphcut.Validating,
		},
		{
			name:  "InfSample",
			in:    withSample(5, math.Inf(1)),
			class: graphcut.ErrInput,
			cause: volume.ErrNonFiniteSample,
			stage: graphcut.Validating,
		},
		{
			name: "MissingBackground",
			in: func(in graphcut.Input) graphcut.Input {
				in.Seeds.Background = nil
				return in
			},
			class: graphcut.ErrInput,
			cause: seeds.ErrNoBackground,
			stage: graphcut.Validating,
		},
		{
			name:  "GraphBudget",
			opts:  []graphcut.Option{graphcut.WithMaxGraphBytes(64)},
			class: graphcut.ErrResourceExhaustion,
			cause: graphcut.ErrGraphBudget,
			stage: graphcut.Validating,
		},
		{
			name: "SolverBudget",
			opts: []graphcut.Option{graphcut.WithSolverOptions(flow.Options{MaxOperations: 1})},
			p: func(p graphcut.Parameters) graphcut.Parameters {
				p.Algorithm = flow.PushRelabelFIFO
				return p
			},
			class: graphcut.ErrNonConvergence,
			cause: flow.ErrNotConverged,
			stage: graphcut.Solving,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in, p := base, rampParams()
			if tc.in != nil {
				in = tc.in(in)
			}
			if tc.p != nil {
				p = tc.p(p)
			}
			res, err := graphcut.Segment(context.Background(), in, p, tc.opts...)
			require.Nil(t, res)
			require.ErrorIs(t, err, tc.class)
			if tc.cause != nil {
				require.ErrorIs(t, err, tc.cause)
			}
			var se *graphcut.StageError
			require.True(t, errors.As(err, &se))
			require.Equal(t, tc.stage, se.Stage)
		})
	}
}

// withSample copies the input grid with one sample replaced, bypassing
// NewGrid so the facade sees the raw buffer.
func withSample(o int, x float64) func(graphcut.Input) graphcut.Input {
	return func(in graphcut.Input) graphcut.Input {
		data := append([]float64(nil), in.Grid.Data...)
		data[o] = x
		g := *in.Grid
		g.Data = data
		in.Grid = &g
		return in
	}
}

// TestCanceled stops at the first stage boundary.
func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := graphcut.Segment(ctx, rampInput(t), rampParams())
	require.ErrorIs(t, err, context.Canceled)
	var se *graphcut.StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, graphcut.Validating, se.Stage)
}

// TestParametersValidate reports field names in the message.
func TestParametersValidate(t *testing.T) {
	require.NoError(t, graphcut.DefaultParameters().Validate())

	p := graphcut.DefaultParameters()
	p.BackgroundLabel = p.ForegroundLabel
	p.Lambda = -1
	err := p.Validate()
	require.ErrorIs(t, err, graphcut.ErrConfiguration)
	require.Contains(t, err.Error(), "BackgroundLabel")
	require.Contains(t, err.Error(), "Lambda")
}
