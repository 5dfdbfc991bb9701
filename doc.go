// Package voxcut segments 2D and 3D voxel volumes into foreground and
// background with interactive graph cuts.
//
// 🚀 What is voxcut?
//
//	A seeded min-cut segmentation engine for scalar and vector volumes:
//		• Grid graph: one vertex per voxel of a processed region, 6- or
//		  26-connected n-links weighted by a boundary term
//		• Hard seeds: foreground/background voxels tied to the terminals
//		• Regional term: seed histograms turned into t-link costs
//		• Max-flow: incremental augmenting (Boykov–Kolmogorov), FIFO and
//		  highest-level push-relabel, Dinic; every variant yields the same
//		  canonical cut
//		• Labels: region buffers or pass-through writes into full extents
//
// ✨ Guarantees
//
//   - Seeds always keep their class; a solve never flips a seed.
//   - Labels are byte-identical across algorithms for the same input.
//   - Inputs are read-only; each run owns its graph.
//   - Errors wrap one of four classes (configuration, input,
//     non-convergence, resource exhaustion) and record the failing stage.
//
// Under the hood:
//
//	volume/      grids, regions, spacing, neighborhoods, parallel features
//	boundary/    n-link weight functions
//	seeds/       seed sets, resolution, marker images, histogram model
//	flow/        arc-slot flow graph and max-flow solvers
//	label/       partition to label image
//	graphcut/    graph builder and the staged segmentation filter
//	config/      YAML + environment configuration
//	volio/       on-disk containers for grids, seeds and labels
//	cmd/voxcut   command-line front end
//
// Quick ASCII example (1D, two seeds):
//
//	  10   12   11 │ 90   92   91
//	  fg•          │           •bg
//	 ─────────────cut─────────────
//
// The weakest n-link lies on the intensity step, so the cut falls there.
//
//	go get github.com/katalvlaran/voxcut
package voxcut
