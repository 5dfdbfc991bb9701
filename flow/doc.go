// Package flow computes minimum s–t cuts of grid-structured flow networks
// with floating-point capacities. It provides four interchangeable
// maximum-flow strategies behind one Solver contract:
//
//   - IncrementalAugmenting ("incremental")
//
//   - Method: Boykov–Kolmogorov search trees grown from both terminals,
//     reused across augmentations and repaired by orphan adoption.
//
//   - Use for: grid graphs from image segmentation; usually the fastest.
//
//   - PushRelabelFIFO ("fifo")
//
//   - Method: preflow push-relabel, active vertices first-in first-out,
//     periodic global relabeling and gap relabeling.
//
//   - Time: O(n³).
//
//   - PushRelabelHighestLevel ("highest-level")
//
//   - Method: preflow push-relabel, highest active vertex first,
//     global and gap relabeling.
//
//   - Time: O(n²·√m); typically fewer relabels on grids.
//
//   - Dinic ("dinic")
//
//   - Method: level graph construction + blocking flow via DFS.
//
//   - Time: O(n²·m); used mainly as an independent cross-check.
//
// # Graph
//
// A Graph has n non-terminal vertices, each with a fixed number (stride) of
// arc slots, plus an implicit source s and sink t. Arc k of vertex v lives at
// index v*stride + k and is paired with a sister arc in the opposite
// direction; the two capacities are independent. Builders either call
// AddEdge (next free slot) or SetArc (explicit slot, safe from several
// goroutines over disjoint vertex ranges). Terminal capacities s→v and v→t
// are set with SetTerminal.
//
// Solvers work on private residual copies; a Graph is never modified and may
// be solved repeatedly, but must not be written while a solve runs.
//
// # Cut
//
// Every algorithm returns the same Partition: the sink side is the set of
// vertices that can still reach t in the final residual network. That set is
// identical for every maximum flow, so labels are byte-identical across
// strategies. Vertices joined to nothing, or only through saturated or
// zero-capacity arcs, fall on the source side.
//
// Residual capacities ≤ Options.Epsilon (default 1e-9) count as zero.
//
// # Errors
//
//	EdgeError           - negative, NaN or infinite capacity (Validate).
//	ErrMalformed        - an arc without a matching sister (Validate).
//	ErrVertexOutOfRange, ErrSelfLoop, ErrDegreeExceeded - AddEdge.
//	ErrGraphTooLarge    - arc indices would overflow int32 (NewGraph).
//	ErrNotConverged     - Options.MaxOperations or Options.Timeout exceeded.
//	ErrUnknownAlgorithm - unknown Algorithm value or name.
//
// A solve is not interruptible: budgets are the only way to bound it.
package flow
