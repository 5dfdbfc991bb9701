package flow

import (
	"fmt"
	"math"
)

// arcBytes is the memory held per arc slot by the graph and one solver copy.
const (
	arcBytes    = 4 + 4 + 8 + 8
	vertexBytes = 8 + 8 + 48
)

// Graph is a flow network of n non-terminal vertices with a fixed number of
// arc slots (stride) per vertex, plus an implicit source and sink.
//
// Arc a = v*stride + k is the k-th slot of vertex v. Every used arc has a
// sister arc in the opposite direction; capacities of the pair are
// independent, so the network may be asymmetric. Terminal capacities are
// stored per vertex.
//
// Slots are written either by AddEdge (next free slot, checked) or by SetArc
// (explicit slots, unchecked), which lets a builder fill disjoint vertex
// ranges from several goroutines. Solvers never mutate the Graph.
type Graph struct {
	n, stride int
	head      []int32 // target vertex of each arc, -1 when unused
	sister    []int32
	cap       []float64
	source    []float64 // s→v
	sink      []float64 // v→t
	deg       []int32   // next free slot, AddEdge only
}

// EstimateBytes returns the memory a graph of n vertices with the given
// stride needs, including one solver's working copy.
func EstimateBytes(n, stride int) int64 {
	return int64(n)*int64(stride)*arcBytes + int64(n)*vertexBytes
}

// NewGraph allocates a graph with n vertices and stride arc slots each.
// Complexity: O(n·stride).
func NewGraph(n, stride int) (*Graph, error) {
	if n < 0 || stride < 0 {
		return nil, fmt.Errorf("%w: n=%d stride=%d", ErrVertexOutOfRange, n, stride)
	}
	if int64(n)*int64(stride) > math.MaxInt32 || n > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d×%d arcs", ErrGraphTooLarge, n, stride)
	}
	m := n * stride
	g := &Graph{
		n:      n,
		stride: stride,
		head:   make([]int32, m),
		sister: make([]int32, m),
		cap:    make([]float64, m),
		source: make([]float64, n),
		sink:   make([]float64, n),
	}
	for a := range g.head {
		g.head[a] = -1
		g.sister[a] = -1
	}

	return g, nil
}

// Len returns the number of non-terminal vertices.
func (g *Graph) Len() int { return g.n }

// Stride returns the number of arc slots per vertex.
func (g *Graph) Stride() int { return g.stride }

// SetTerminal sets the capacities of s→v and v→t.
func (g *Graph) SetTerminal(v int, source, sink float64) {
	g.source[v] = source
	g.sink[v] = sink
}

// AddTerminal adds to the capacities of s→v and v→t.
func (g *Graph) AddTerminal(v int, source, sink float64) {
	g.source[v] += source
	g.sink[v] += sink
}

// Terminal returns the capacities of s→v and v→t.
func (g *Graph) Terminal(v int) (source, sink float64) {
	return g.source[v], g.sink[v]
}

// SetArc writes slot k of v as an arc v→u with capacity c whose sister is
// slot j of u. The caller writes the sister as well and guarantees that no
// other goroutine touches slot k of v.
func (g *Graph) SetArc(v, k, u, j int, c float64) {
	a := v*g.stride + k
	g.head[a] = int32(u)
	g.sister[a] = int32(u*g.stride + j)
	g.cap[a] = c
}

// Arc returns the target and capacity of slot k of v; ok is false for an
// unused slot.
func (g *Graph) Arc(v, k int) (to int, c float64, ok bool) {
	a := v*g.stride + k
	if g.head[a] < 0 {
		return 0, 0, false
	}

	return int(g.head[a]), g.cap[a], true
}

// AddEdge connects u and v with capacities cuv (u→v) and cvu (v→u) using the
// next free slot of each vertex.
//
// Errors: ErrVertexOutOfRange, ErrSelfLoop, ErrDegreeExceeded, EdgeError.
// Complexity: O(1).
func (g *Graph) AddEdge(u, v int, cuv, cvu float64) error {
	if u < 0 || u >= g.n || v < 0 || v >= g.n {
		return fmt.Errorf("%w: %d→%d", ErrVertexOutOfRange, u, v)
	}
	if u == v {
		return fmt.Errorf("%w: %d", ErrSelfLoop, u)
	}
	if !(cuv >= 0) || math.IsInf(cuv, 0) {
		return EdgeError{From: u, To: v, Cap: cuv}
	}
	if !(cvu >= 0) || math.IsInf(cvu, 0) {
		return EdgeError{From: v, To: u, Cap: cvu}
	}
	if g.deg == nil {
		g.deg = make([]int32, g.n)
	}
	if int(g.deg[u]) >= g.stride {
		return fmt.Errorf("%w: vertex %d", ErrDegreeExceeded, u)
	}
	if int(g.deg[v]) >= g.stride {
		return fmt.Errorf("%w: vertex %d", ErrDegreeExceeded, v)
	}
	ku, kv := int(g.deg[u]), int(g.deg[v])
	g.deg[u]++
	g.deg[v]++
	g.SetArc(u, ku, v, kv, cuv)
	g.SetArc(v, kv, u, ku, cvu)

	return nil
}

// Validate checks that every capacity is finite and non-negative and that
// every used arc is paired with a sister pointing back.
// Complexity: O(n·stride).
func (g *Graph) Validate() error {
	for v := 0; v < g.n; v++ {
		if c := g.source[v]; !(c >= 0) || math.IsInf(c, 0) {
			return EdgeError{From: Source, To: v, Cap: c}
		}
		if c := g.sink[v]; !(c >= 0) || math.IsInf(c, 0) {
			return EdgeError{From: v, To: Sink, Cap: c}
		}
	}
	for a, h := range g.head {
		if h < 0 {
			continue
		}
		v := a / g.stride
		if c := g.cap[a]; !(c >= 0) || math.IsInf(c, 0) {
			return EdgeError{From: v, To: int(h), Cap: c}
		}
		s := g.sister[a]
		if int(h) >= g.n || s < 0 || int(s) >= len(g.head) ||
			int(s)/g.stride != int(h) || int(g.head[s]) != v || int(g.sister[s]) != a {
			return fmt.Errorf("%w: arc %d of vertex %d", ErrMalformed, a%g.stride, v)
		}
	}

	return nil
}
