// Package boundary implements the boundary-term model of the graph cut: pure
// functions turning a pair of adjacent voxel samples into a non-negative
// n-link capacity. No state; safe for concurrent use.
//
// For an arc p→q at normalized spatial distance d:
//
//	s  = exp(-‖Ip − Iq‖² / (2σ²))      when UseIntensity, else 1
//	gf = 1 / (1 + (|∇Ip| + |∇Iq|)/2)    when UseGradient,  else 1
//	w  = s · gf / d
//
// With a Direction other than None the arc is asymmetric: only transitions in
// the preferred direction use s; the opposite transition costs the full 1/d
// (times gf). The arc p→q is the one counted when p ends on the source
// (object) side and q on the sink side, so PreferBrightToDark steers the cut
// to places where a bright object meets a dark background.
//
// Every weight satisfies 0 <= w <= 1/d.
package boundary

import (
	"errors"
	"fmt"
	"math"
)

// ErrBadSigma indicates a non-positive or non-finite sigma.
var ErrBadSigma = errors.New("boundary: sigma must be finite and > 0")

// ErrBadDirection indicates an unknown Direction value.
var ErrBadDirection = errors.New("boundary: unknown boundary direction")

// Direction selects the polarity preference of the boundary term.
type Direction int

const (
	// None keeps w(p,q) == w(q,p).
	None Direction = iota
	// PreferBrightToDark favors cuts where the object side is brighter.
	PreferBrightToDark
	// PreferDarkToBright favors cuts where the object side is darker.
	PreferDarkToBright
)

// String returns the configuration name of d.
func (d Direction) String() string {
	switch d {
	case None:
		return "none"
	case PreferBrightToDark:
		return "bright-to-dark"
	case PreferDarkToBright:
		return "dark-to-bright"
	default:
		return fmt.Sprintf("unknown(%d)", int(d))
	}
}

// ParseDirection parses the names produced by Direction.String.
func ParseDirection(name string) (Direction, error) {
	switch name {
	case "", "none":
		return None, nil
	case "bright-to-dark":
		return PreferBrightToDark, nil
	case "dark-to-bright":
		return PreferDarkToBright, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrBadDirection, name)
	}
}

// Sample is the per-voxel evidence the boundary term looks at.
type Sample struct {
	// Values holds the voxel's components (one for scalar images).
	Values []float64
	// Magnitude is the scalar brightness used for Direction.
	Magnitude float64
	// Gradient is |∇I| at the voxel; ignored unless Term.UseGradient.
	Gradient float64
}

// Term is a configured boundary-term model.
type Term struct {
	Sigma        float64
	UseIntensity bool
	UseGradient  bool
	Direction    Direction
}

// Validate rejects configurations that would divide by zero.
func (t Term) Validate() error {
	if !(t.Sigma > 0) || math.IsInf(t.Sigma, 0) {
		return fmt.Errorf("%w: got %g", ErrBadSigma, t.Sigma)
	}
	if t.Direction < None || t.Direction > PreferDarkToBright {
		return fmt.Errorf("%w: %d", ErrBadDirection, int(t.Direction))
	}

	return nil
}

// Weight returns the capacity of arc p→q at normalized distance d.
// The caller guarantees d > 0 and a validated Term.
// Complexity: O(C), C = number of components.
func (t Term) Weight(p, q Sample, d float64) float64 {
	s := 1.0
	if t.UseIntensity && t.favored(p, q) {
		s = Similarity(SquaredDistance(p.Values, q.Values), t.Sigma)
	}
	if t.UseGradient {
		s *= GradientFactor(p.Gradient, q.Gradient)
	}

	return s / d
}

// Pair returns the capacities of p→q and q→p.
func (t Term) Pair(p, q Sample, d float64) (pq, qp float64) {
	return t.Weight(p, q, d), t.Weight(q, p, d)
}

// favored reports whether the transition p→q may use the similarity term.
func (t Term) favored(p, q Sample) bool {
	switch t.Direction {
	case PreferBrightToDark:
		return p.Magnitude > q.Magnitude
	case PreferDarkToBright:
		return p.Magnitude < q.Magnitude
	default:
		return true
	}
}

// Similarity is exp(-diff2 / (2σ²)). Non-decreasing in sigma for fixed diff2.
func Similarity(diff2, sigma float64) float64 {
	return math.Exp(-diff2 / (2 * sigma * sigma))
}

// GradientFactor is 1 / (1 + mean(gp, gq)); 1 on flat regions, → 0 on edges.
func GradientFactor(gp, gq float64) float64 {
	return 1 / (1 + 0.5*(math.Abs(gp)+math.Abs(gq)))
}

// SquaredDistance returns ‖a − b‖².
func SquaredDistance(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}

	return s
}
