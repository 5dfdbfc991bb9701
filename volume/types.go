package volume

import (
	"errors"
	"fmt"
)

// Sentinel errors for volume operations.
var (
	// ErrEmptyExtent indicates the grid extent has a zero or negative dimension.
	ErrEmptyExtent = errors.New("volume: extent must be positive in every dimension")
	// ErrBufferSize indicates the sample buffer does not match extent × components.
	ErrBufferSize = errors.New("volume: buffer length does not match extent")
	// ErrNonFiniteSample indicates a NaN or infinite sample in the buffer.
	ErrNonFiniteSample = errors.New("volume: sample is not finite")
	// ErrBadSpacing indicates a spacing component is not strictly positive.
	ErrBadSpacing = errors.New("volume: spacing must be positive")
	// ErrEmptyRegion indicates the processed region contains no voxels.
	ErrEmptyRegion = errors.New("volume: processed region is empty")
	// ErrRegionOutside indicates the processed region exceeds the grid extent.
	ErrRegionOutside = errors.New("volume: processed region outside extent")
	// ErrBadConnectivity indicates an unsupported neighborhood connectivity.
	ErrBadConnectivity = errors.New("volume: connectivity must be 6 or 26")
)

// Index addresses a voxel in the grid's index space.
type Index struct {
	X, Y, Z int
}

// Add returns i shifted by o.
func (i Index) Add(o Offset) Index {
	return Index{X: i.X + o.X, Y: i.Y + o.Y, Z: i.Z + o.Z}
}

// String renders the index as "(x,y,z)".
func (i Index) String() string {
	return fmt.Sprintf("(%d,%d,%d)", i.X, i.Y, i.Z)
}

// Size is a voxel count along each axis.
type Size struct {
	X, Y, Z int
}

// Len returns the number of voxels covered by s.
func (s Size) Len() int {
	if s.X <= 0 || s.Y <= 0 || s.Z <= 0 {
		return 0
	}

	return s.X * s.Y * s.Z
}

// Spacing is the physical voxel size along each axis.
type Spacing struct {
	X, Y, Z float64
}

// Isotropic returns unit spacing.
func Isotropic() Spacing {
	return Spacing{X: 1, Y: 1, Z: 1}
}

// Min returns the smallest spacing component.
func (s Spacing) Min() float64 {
	m := s.X
	if s.Y < m {
		m = s.Y
	}
	if s.Z < m {
		m = s.Z
	}

	return m
}

func (s Spacing) valid() bool {
	return s.X > 0 && s.Y > 0 && s.Z > 0
}

// Region is a box of voxels: Origin is inclusive, Size is the extent.
type Region struct {
	Origin Index
	Size   Size
}

// RegionOf returns the region covering a full extent.
func RegionOf(s Size) Region {
	return Region{Size: s}
}

// Len returns the number of voxels in the region.
func (r Region) Len() int {
	return r.Size.Len()
}

// IsEmpty reports whether the region has no voxels.
func (r Region) IsEmpty() bool {
	return r.Len() == 0
}

// Contains reports whether i lies inside the region.
// Complexity: O(1).
func (r Region) Contains(i Index) bool {
	return i.X >= r.Origin.X && i.X < r.Origin.X+r.Size.X &&
		i.Y >= r.Origin.Y && i.Y < r.Origin.Y+r.Size.Y &&
		i.Z >= r.Origin.Z && i.Z < r.Origin.Z+r.Size.Z
}

// Within reports whether r lies completely inside extent s.
func (r Region) Within(s Size) bool {
	return r.Origin.X >= 0 && r.Origin.Y >= 0 && r.Origin.Z >= 0 &&
		r.Origin.X+r.Size.X <= s.X &&
		r.Origin.Y+r.Size.Y <= s.Y &&
		r.Origin.Z+r.Size.Z <= s.Z
}

// Flatten maps a grid index inside r to its region-relative row-major
// vertex number. The caller must ensure r.Contains(i).
// Complexity: O(1).
func (r Region) Flatten(i Index) int {
	return ((i.Z-r.Origin.Z)*r.Size.Y+(i.Y-r.Origin.Y))*r.Size.X + (i.X - r.Origin.X)
}

// Unflatten is the inverse of Flatten.
// Complexity: O(1).
func (r Region) Unflatten(v int) Index {
	plane := r.Size.X * r.Size.Y

	return Index{
		X: r.Origin.X + v%r.Size.X,
		Y: r.Origin.Y + (v%plane)/r.Size.X,
		Z: r.Origin.Z + v/plane,
	}
}

// String renders the region as "origin+size".
func (r Region) String() string {
	return fmt.Sprintf("%s+[%dx%dx%d]", r.Origin, r.Size.X, r.Size.Y, r.Size.Z)
}

// Connectivity selects the voxel neighborhood.
type Connectivity int

const (
	// Conn6 links face neighbors only.
	Conn6 Connectivity = 6
	// Conn26 links face, edge and corner neighbors.
	Conn26 Connectivity = 26
)

// Valid reports whether c is Conn6 or Conn26.
func (c Connectivity) Valid() bool {
	return c == Conn6 || c == Conn26
}

// Offset is a relative step between neighboring voxels.
type Offset struct {
	X, Y, Z int
}
