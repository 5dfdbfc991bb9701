// Package graphcut segments a region of a 3D voxel grid into foreground and
// background by a minimum s–t cut, the interactive graph-cut method of
// Boykov and Jolly.
//
// What:
//
//	Each voxel of the processed region becomes one flow vertex. Hard seeds
//	are tied to the source (foreground) or sink (background) with a capacity
//	no cut can afford. Free voxels get t-links from seed intensity
//	histograms when UseForegroundBackground is set, and n-links to their 6
//	or 26 neighbors from the boundary term (package boundary). The minimum
//	cut separates the two seed classes at the cheapest boundary.
//
// Stages:
//
//	Idle → Validating → BuildingGraph → Solving → WritingLabels → Done
//	                 ↘ Failed (from any middle stage)
//
// Validation catches configuration and input errors before anything is
// allocated. Cancellation is checked between stages; the solve itself is
// bounded only by flow.Options budgets. When seeds cover every voxel the
// graph is never built.
//
// Errors:
//
//	ErrConfiguration      - sigma, connectivity, direction, algorithm, labels, conflicting seeds.
//	ErrInput              - grid, region, seeds outside the region, missing seed class.
//	ErrNonConvergence     - solver budget exceeded.
//	ErrResourceExhaustion - graph over WithMaxGraphBytes or beyond 32-bit arc indices.
//
// Every error from Run is a *StageError naming the failing stage.
//
// Concurrency: feature extraction, histogram accumulation and capacity
// assignment run on disjoint vertex spans with errgroup; the solve is
// single-threaded. A Filter may serve concurrent runs.
package graphcut
