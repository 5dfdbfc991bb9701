// Package seeds holds the user-supplied hard constraints of a graph cut:
// foreground and background voxel marks, their validation against a
// processed region, and the immutable intensity statistics derived from them.
//
// A Set is expressed in the grid's index space. Resolve turns it into vertex
// numbers (volume.Region.Flatten) and enforces the invariants:
//
//   - every seed lies inside the processed region (ErrOutOfRegion);
//   - no voxel is both foreground and background (ErrConflict).
//
// Duplicate marks of the same class are merged.
package seeds

import (
	"errors"
	"fmt"
	"sort"

	"github.com/katalvlaran/voxcut/volume"
)

// Sentinel errors for seed handling.
var (
	// ErrOutOfRegion indicates a seed outside the processed region.
	ErrOutOfRegion = errors.New("seeds: seed outside processed region")
	// ErrConflict indicates a voxel marked both foreground and background.
	ErrConflict = errors.New("seeds: voxel marked foreground and background")
	// ErrMarkerSize indicates a marker buffer that does not match its extent.
	ErrMarkerSize = errors.New("seeds: marker buffer does not match extent")
	// ErrNoForeground indicates statistics were requested without foreground seeds.
	ErrNoForeground = errors.New("seeds: no foreground seeds")
	// ErrNoBackground indicates statistics were requested without background seeds.
	ErrNoBackground = errors.New("seeds: no background seeds")
)

// Mark classifies a vertex.
type Mark uint8

const (
	// Free vertices are decided by the cut.
	Free Mark = iota
	// Foreground vertices are tied to the source.
	Foreground
	// Background vertices are tied to the sink.
	Background
)

// String returns a short name for m.
func (m Mark) String() string {
	switch m {
	case Free:
		return "free"
	case Foreground:
		return "foreground"
	case Background:
		return "background"
	default:
		return fmt.Sprintf("mark(%d)", uint8(m))
	}
}

// Set is a caller-owned pair of seed lists in grid index space.
type Set struct {
	Foreground []volume.Index `cbor:"1,keyasint" yaml:"foreground"`
	Background []volume.Index `cbor:"2,keyasint" yaml:"background"`
}

// Resolved is a Set validated against one region and mapped to vertex numbers.
// It is immutable after Resolve returns.
type Resolved struct {
	Region volume.Region
	// Marks holds one Mark per vertex.
	Marks []Mark
	// Foreground and Background list vertex numbers in ascending order.
	Foreground []int
	Background []int
}

// Resolve validates s against r and flattens every seed.
//
// Steps:
//  1. Reject seeds outside r (ErrOutOfRegion).
//  2. Mark foreground vertices, then background vertices; a vertex reached
//     by both classes is rejected with ErrConflict.
//  3. Collect the marked vertex numbers per class in ascending order.
//
// Complexity: O(N + F + B) time, O(N) memory.
func Resolve(s Set, r volume.Region) (*Resolved, error) {
	if r.IsEmpty() {
		return nil, volume.ErrEmptyRegion
	}
	res := &Resolved{Region: r, Marks: make([]Mark, r.Len())}
	for _, idx := range s.Foreground {
		if !r.Contains(idx) {
			return nil, fmt.Errorf("%w: foreground %s not in %s", ErrOutOfRegion, idx, r)
		}
		res.Marks[r.Flatten(idx)] = Foreground
	}
	for _, idx := range s.Background {
		if !r.Contains(idx) {
			return nil, fmt.Errorf("%w: background %s not in %s", ErrOutOfRegion, idx, r)
		}
		v := r.Flatten(idx)
		if res.Marks[v] == Foreground {
			return nil, fmt.Errorf("%w: %s", ErrConflict, idx)
		}
		res.Marks[v] = Background
	}
	res.Foreground = collect(res.Marks, Foreground, len(s.Foreground))
	res.Background = collect(res.Marks, Background, len(s.Background))

	return res, nil
}

func collect(marks []Mark, want Mark, hint int) []int {
	out := make([]int, 0, hint)
	for v, m := range marks {
		if m == want {
			out = append(out, v)
		}
	}
	sort.Ints(out)

	return out
}

// Len returns the number of seeded vertices.
func (r *Resolved) Len() int {
	return len(r.Foreground) + len(r.Background)
}

// Covers reports whether every vertex of the region is seeded, in which case
// the partition is fully determined without a solve.
func (r *Resolved) Covers() bool {
	return r.Len() == len(r.Marks)
}

// FromMarkers scans the region of a marker volume (row-major over extent) and
// returns voxels equal to fg as foreground seeds and voxels equal to bg as
// background seeds. fg and bg must differ.
// Complexity: O(N) over the region.
func FromMarkers[T comparable](extent volume.Size, markers []T, r volume.Region, fg, bg T) (Set, error) {
	if len(markers) != extent.Len() {
		return Set{}, fmt.Errorf("%w: got %d, want %d", ErrMarkerSize, len(markers), extent.Len())
	}
	if fg == bg {
		return Set{}, fmt.Errorf("%w: marker values are equal", ErrConflict)
	}
	if !r.Within(extent) {
		return Set{}, volume.ErrRegionOutside
	}
	var s Set
	for v := 0; v < r.Len(); v++ {
		idx := r.Unflatten(v)
		switch markers[(idx.Z*extent.Y+idx.Y)*extent.X+idx.X] {
		case fg:
			s.Foreground = append(s.Foreground, idx)
		case bg:
			s.Background = append(s.Background, idx)
		}
	}

	return s, nil
}
