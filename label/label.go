// Package label writes a cut partition back onto voxel space as a two-valued
// label buffer.
//
// Vertex v of the partition corresponds to voxel Region.Unflatten(v), the
// same bijection the graph builder uses. Write allocates a region-sized
// buffer; WriteInto fills the region of a caller-owned full-extent buffer
// and leaves every voxel outside the region untouched.
package label

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/voxcut/volume"
)

// ErrSizeMismatch indicates a partition or buffer whose length does not
// match the region or extent it is written against.
var ErrSizeMismatch = errors.New("label: size mismatch")

// Pixel is the set of label pixel types.
type Pixel interface {
	~uint8 | ~uint16 | ~uint32 | ~int8 | ~int16 | ~int32 | ~float32 | ~float64
}

// Sides is the read side of a cut partition.
type Sides interface {
	Len() int
	IsSource(v int) bool
}

// Buffer is a label image covering exactly one region, row-major over the
// region (x fastest).
type Buffer[T Pixel] struct {
	Region volume.Region
	Data   []T
}

// At returns the label of grid index i, which must lie in the region.
func (b *Buffer[T]) At(i volume.Index) T {
	return b.Data[b.Region.Flatten(i)]
}

// Count returns the number of voxels equal to value.
func (b *Buffer[T]) Count(value T) int {
	n := 0
	for _, x := range b.Data {
		if x == value {
			n++
		}
	}

	return n
}

// Write maps p onto r: source-side vertices get fg, sink-side vertices bg.
// Complexity: O(N).
func Write[T Pixel](p Sides, r volume.Region, fg, bg T) (*Buffer[T], error) {
	if p.Len() != r.Len() {
		return nil, fmt.Errorf("%w: partition has %d vertices, region %s has %d", ErrSizeMismatch, p.Len(), r, r.Len())
	}
	b := &Buffer[T]{Region: r, Data: make([]T, r.Len())}
	for v := range b.Data {
		b.Data[v] = bg
		if p.IsSource(v) {
			b.Data[v] = fg
		}
	}

	return b, nil
}

// WriteInto maps p onto the region r of dst, a row-major buffer over extent.
// Voxels outside r keep their values.
// Complexity: O(N) over the region.
func WriteInto[T Pixel](dst []T, extent volume.Size, r volume.Region, p Sides, fg, bg T) error {
	if len(dst) != extent.Len() {
		return fmt.Errorf("%w: buffer has %d voxels, extent %d", ErrSizeMismatch, len(dst), extent.Len())
	}
	if !r.Within(extent) {
		return volume.ErrRegionOutside
	}
	if p.Len() != r.Len() {
		return fmt.Errorf("%w: partition has %d vertices, region %s has %d", ErrSizeMismatch, p.Len(), r, r.Len())
	}
	for v := 0; v < r.Len(); v++ {
		i := r.Unflatten(v)
		o := (i.Z*extent.Y+i.Y)*extent.X + i.X
		dst[o] = bg
		if p.IsSource(v) {
			dst[o] = fg
		}
	}

	return nil
}

// Paste copies b into the region of dst, a row-major buffer over extent.
// Voxels outside the region keep their values.
func (b *Buffer[T]) Paste(dst []T, extent volume.Size) error {
	if len(dst) != extent.Len() {
		return fmt.Errorf("%w: buffer has %d voxels, extent %d", ErrSizeMismatch, len(dst), extent.Len())
	}
	if !b.Region.Within(extent) {
		return volume.ErrRegionOutside
	}
	row := b.Region.Size.X
	for v := 0; v < len(b.Data); v += row {
		i := b.Region.Unflatten(v)
		o := (i.Z*extent.Y+i.Y)*extent.X + i.X
		copy(dst[o:o+row], b.Data[v:v+row])
	}

	return nil
}
