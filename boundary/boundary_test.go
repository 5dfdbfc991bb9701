package boundary_test

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/voxcut/boundary"
)

// TermSuite exercises the boundary-term model.
type TermSuite struct {
	suite.Suite
	rng *rand.Rand
}

func (s *TermSuite) SetupTest() {
	s.rng = rand.New(rand.NewSource(7))
}

func (s *TermSuite) sample() boundary.Sample {
	v := s.rng.Float64() * 255
	return boundary.Sample{Values: []float64{v}, Magnitude: v, Gradient: s.rng.Float64() * 10}
}

// TestSymmetryWithoutDirection verifies w(p,q) == w(q,p) for Direction None.
func (s *TermSuite) TestSymmetryWithoutDirection() {
	for _, useGrad := range []bool{false, true} {
		term := boundary.Term{Sigma: 12, UseIntensity: true, UseGradient: useGrad}
		s.Require().NoError(term.Validate())
		for i := 0; i < 200; i++ {
			p, q := s.sample(), s.sample()
			for _, d := range []float64{1, math.Sqrt2, math.Sqrt(3)} {
				pq, qp := term.Pair(p, q, d)
				s.Require().Equal(pq, qp)
			}
		}
	}
}

// TestMonotoneInSigma verifies weights never decrease as sigma grows.
func (s *TermSuite) TestMonotoneInSigma() {
	sigmas := []float64{0.5, 1, 2, 5, 10, 50, 1000}
	for i := 0; i < 200; i++ {
		p, q := s.sample(), s.sample()
		prev := -1.0
		for _, sigma := range sigmas {
			w := boundary.Term{Sigma: sigma, UseIntensity: true}.Weight(p, q, 1)
			s.Require().GreaterOrEqual(w, prev, "sigma=%g", sigma)
			prev = w
		}
	}
}

// TestBoundedByInverseDistance verifies 0 <= w <= 1/d for every configuration.
func (s *TermSuite) TestBoundedByInverseDistance() {
	dirs := []boundary.Direction{boundary.None, boundary.PreferBrightToDark, boundary.PreferDarkToBright}
	for _, dir := range dirs {
		term := boundary.Term{Sigma: 3, UseIntensity: true, UseGradient: true, Direction: dir}
		for i := 0; i < 100; i++ {
			p, q := s.sample(), s.sample()
			for _, d := range []float64{1, math.Sqrt2, 4} {
				w := term.Weight(p, q, d)
				s.Require().GreaterOrEqual(w, 0.0)
				s.Require().LessOrEqual(w, 1/d)
			}
		}
	}
}

// TestDirectedAsymmetry checks the bright-to-dark preference: the arc from
// the bright voxel is cheap, the reverse arc costs the full penalty.
func (s *TermSuite) TestDirectedAsymmetry() {
	bright := boundary.Sample{Values: []float64{200}, Magnitude: 200}
	dark := boundary.Sample{Values: []float64{20}, Magnitude: 20}

	term := boundary.Term{Sigma: 30, UseIntensity: true, Direction: boundary.PreferBrightToDark}
	fromBright, fromDark := term.Pair(bright, dark, 1)
	s.Require().InDelta(math.Exp(-180*180/(2*30*30.0)), fromBright, 1e-15)
	s.Require().Equal(1.0, fromDark)

	term.Direction = boundary.PreferDarkToBright
	fromBright, fromDark = term.Pair(bright, dark, 1)
	s.Require().Equal(1.0, fromBright)
	s.Require().Less(fromDark, 1e-3)
}

// TestGradientFactor checks that high gradients reduce the weight.
func (s *TermSuite) TestGradientFactor() {
	s.Require().Equal(1.0, boundary.GradientFactor(0, 0))
	s.Require().InDelta(0.5, boundary.GradientFactor(1, 1), 1e-15)
	flat := boundary.Sample{Values: []float64{10}, Magnitude: 10}
	edge := boundary.Sample{Values: []float64{10}, Magnitude: 10, Gradient: 40}
	term := boundary.Term{Sigma: 1, UseGradient: true}
	s.Require().Greater(term.Weight(flat, flat, 1), term.Weight(edge, edge, 1))
}

// TestVectorDistance uses the Euclidean norm across components.
func (s *TermSuite) TestVectorDistance() {
	p := boundary.Sample{Values: []float64{0, 0, 0}}
	q := boundary.Sample{Values: []float64{1, 2, 2}}
	s.Require().Equal(9.0, boundary.SquaredDistance(p.Values, q.Values))
	w := boundary.Term{Sigma: 3, UseIntensity: true}.Weight(p, q, 1)
	s.Require().InDelta(math.Exp(-0.5), w, 1e-15)
}

func TestTermSuite(t *testing.T) {
	suite.Run(t, new(TermSuite))
}

// TestValidate covers the configuration errors of the model.
func TestValidate(t *testing.T) {
	for _, sigma := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		err := boundary.Term{Sigma: sigma}.Validate()
		require.ErrorIs(t, err, boundary.ErrBadSigma, "sigma=%g", sigma)
	}
	require.ErrorIs(t, boundary.Term{Sigma: 1, Direction: 9}.Validate(), boundary.ErrBadDirection)
	require.NoError(t, boundary.Term{Sigma: 1e-3}.Validate())
}

// TestParseDirection round-trips the configuration names.
func TestParseDirection(t *testing.T) {
	for _, d := range []boundary.Direction{boundary.None, boundary.PreferBrightToDark, boundary.PreferDarkToBright} {
		got, err := boundary.ParseDirection(d.String())
		require.NoError(t, err)
		require.Equal(t, d, got)
	}
	_, err := boundary.ParseDirection("sideways")
	require.ErrorIs(t, err, boundary.ErrBadDirection)
}

// ExampleTerm_Weight shows face and diagonal weights for a small step.
func ExampleTerm_Weight() {
	term := boundary.Term{Sigma: 10, UseIntensity: true}
	p := boundary.Sample{Values: []float64{100}, Magnitude: 100}
	q := boundary.Sample{Values: []float64{110}, Magnitude: 110}

	fmt.Printf("face:     %.4f\n", term.Weight(p, q, 1))
	fmt.Printf("diagonal: %.4f\n", term.Weight(p, q, math.Sqrt2))
	// Output:
	// face:     0.6065
	// diagonal: 0.4289
}
