// Package volume treats a dense 3D voxel buffer as a grid graph. It is the
// read-only view the segmentation engine works on.
//
// What:
//
//   - Grid wraps a dense []float64 sample buffer with an extent (nx,ny,nz),
//     physical Spacing and an optional number of Components per voxel.
//   - Region selects the processed sub-volume (origin + size). A Region
//     defines the bijective, region-relative row-major flattening used to
//     address graph vertices: v = ((z-oz)·sy + (y-oy))·sx + (x-ox).
//   - Neighborhood precomputes the 6- or 26-connected offsets, their
//     opposite slots and their normalized spatial distances.
//   - Features extracts, in parallel, the per-vertex intensity vectors of a
//     region and (optionally) the gradient magnitude.
//
// Why:
//
//   - The flattening is the single contract shared by the graph builder and
//     the label writer, so it lives here as an explicit function instead of
//     an iterator relationship.
//   - Offsets are ordered so that slot k and slot len-1-k are negations of one
//     another, which lets the builder pair every arc with its reverse without
//     a lookup table.
//
// Complexity:
//
//   - Flatten / Unflatten: O(1).
//   - ExtractFeatures:     O(N·C) time, O(N·C) memory (N = region voxels,
//     C = components); gradient adds O(N·C).
//
// Errors:
//
//   - ErrEmptyExtent:      grid extent has a zero or negative dimension.
//   - ErrBufferSize:       len(Data) does not match the extent and components.
//   - ErrBadSpacing:       a spacing component is not strictly positive.
//   - ErrEmptyRegion:      processed region has no voxels.
//   - ErrRegionOutside:    processed region is not contained in the extent.
//   - ErrBadConnectivity:  connectivity is neither Conn6 nor Conn26.
package volume
