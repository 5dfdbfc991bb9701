package flow

// Partition is the result of a solve: the maximum flow value and, for every
// vertex, whether it lies on the source side of the minimum cut.
//
// The sink side is the set of vertices that can still reach the sink in the
// final residual network. That set is the same for every maximum flow, so
// all algorithms produce identical partitions. A vertex with no residual
// path to the sink, including one joined to nothing at all, is source side.
type Partition struct {
	Algorithm Algorithm
	Flow      float64
	Stats     Stats
	sinkSide  []bool
}

// Len returns the number of vertices.
func (p *Partition) Len() int { return len(p.sinkSide) }

// IsSource reports whether v lies on the source side.
func (p *Partition) IsSource(v int) bool { return !p.sinkSide[v] }

// CountSource returns the number of source-side vertices.
func (p *Partition) CountSource() int {
	n := 0
	for _, s := range p.sinkSide {
		if !s {
			n++
		}
	}

	return n
}

// NewPartition builds a partition from explicit sides, as used when every
// vertex is fixed without solving. source[v] is true for source-side vertices.
func NewPartition(source []bool) *Partition {
	p := &Partition{sinkSide: make([]bool, len(source))}
	for v, s := range source {
		p.sinkSide[v] = !s
	}

	return p
}

// residual is the state every algorithm hands to the cut extraction.
type residual struct {
	g   *Graph
	res []float64 // arc residuals, indexed like Graph.cap
	snk []float64 // residual v→t
	eps float64
}

// cut marks every vertex that reaches the sink through arcs with residual
// capacity above eps, by breadth-first search backwards from the sink.
// Complexity: O(n·stride).
func (r *residual) cut() []bool {
	g := r.g
	sinkSide := make([]bool, g.n)
	queue := make([]int32, 0, 64)
	for v := 0; v < g.n; v++ {
		if r.snk[v] > r.eps {
			sinkSide[v] = true
			queue = append(queue, int32(v))
		}
	}
	for i := 0; i < len(queue); i++ {
		u := int(queue[i])
		base := u * g.stride
		for a := base; a < base+g.stride; a++ {
			w := g.head[a]
			if w < 0 || sinkSide[w] {
				continue
			}
			// w reaches u through the sister arc w→u.
			if r.res[g.sister[a]] > r.eps {
				sinkSide[w] = true
				queue = append(queue, w)
			}
		}
	}

	return sinkSide
}
