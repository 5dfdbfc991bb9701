package flow

// pr is the working state of one push-relabel solve.
type pr struct {
	*residual
	excess  []float64
	height  []int32
	cur     []int32 // current-arc pointer, slot index
	queued  []bool
	dead    int32 // height of vertices that cannot reach the sink
	highest bool

	fifo    []int32
	fhead   int
	buckets [][]int32
	top     int32

	// every live vertex sits in the doubly linked list of its height
	first   []int32
	next    []int32
	prev    []int32
	count   []int32
	maxLive int32

	sinceGlobal int64
	globalEvery int64
	st          Stats
	bud         *budget
}

// pushRelabel computes a maximum preflow, which fixes the minimum cut without
// returning excess to the source.
//
// Steps:
//  1. Saturate every s→v arc; the capacity becomes excess at v.
//  2. Global relabel: exact distances to the sink by backwards BFS over
//     residual arcs; vertices that cannot reach the sink are retired.
//  3. Discharge active vertices (excess > eps, height ≤ n) in FIFO order or,
//     with highest set, highest height first: push along admissible arcs
//     (height drops by one), relabel when none is left.
//  4. Gap: when a relabel empties height k, every vertex above k is retired.
//  5. Repeat the global relabel after GlobalRelabelFrequency·n relabels.
//
// Complexity: O(n³) FIFO, O(n²·√m) highest-level; Memory: O(n·stride).
func pushRelabel(g *Graph, opts Options, highest bool) (*residual, Stats, error) {
	s := &pr{
		residual:    newResidual(g, opts.Epsilon),
		excess:      make([]float64, g.n),
		height:      make([]int32, g.n),
		cur:         make([]int32, g.n),
		queued:      make([]bool, g.n),
		dead:        int32(g.n) + 1,
		highest:     highest,
		first:       make([]int32, g.n+1),
		next:        make([]int32, g.n),
		prev:        make([]int32, g.n),
		count:       make([]int32, g.n+1),
		globalEvery: int64(opts.GlobalRelabelFrequency*float64(g.n)) + 1,
		bud:         newBudget(opts),
	}
	if highest {
		s.buckets = make([][]int32, g.n+1)
	}
	copy(s.excess, g.source)
	s.globalRelabel()

	for {
		v := s.pop()
		if v < 0 {
			break
		}
		s.discharge(v)
		if s.active(v) {
			s.push(v)
		}
		if err := s.bud.check(&s.st); err != nil {
			return nil, s.st, err
		}
		if s.sinceGlobal >= s.globalEvery {
			s.globalRelabel()
		}
	}

	return s.residual, s.st, nil
}

func (s *pr) active(v int32) bool {
	return s.excess[v] > s.eps && s.height[v] < s.dead
}

// push enqueues an active vertex once.
func (s *pr) push(v int32) {
	if s.queued[v] {
		return
	}
	s.queued[v] = true
	if !s.highest {
		s.fifo = append(s.fifo, v)
		return
	}
	h := s.height[v]
	s.buckets[h] = append(s.buckets[h], v)
	if h > s.top {
		s.top = h
	}
}

// pop returns the next active vertex or -1. Entries retired by a gap since
// they were queued are dropped.
func (s *pr) pop() int32 {
	if !s.highest {
		for s.fhead < len(s.fifo) {
			v := s.fifo[s.fhead]
			s.fhead++
			s.queued[v] = false
			if s.active(v) {
				return v
			}
		}
		s.fifo, s.fhead = s.fifo[:0], 0

		return -1
	}
	if s.top > s.maxLive {
		s.top = s.maxLive
	}
	for ; s.top > 0; s.top-- {
		b := s.buckets[s.top]
		for len(b) > 0 {
			v := b[len(b)-1]
			b = b[:len(b)-1]
			s.queued[v] = false
			if s.active(v) {
				s.buckets[s.top] = b
				return v
			}
		}
		s.buckets[s.top] = b
	}

	return -1
}

// discharge pushes excess out of v until it is gone or v is relabeled once.
func (s *pr) discharge(v int32) {
	g := s.g
	stride := int32(g.stride)
	for s.excess[v] > s.eps {
		if s.height[v] == 1 && s.snk[v] > s.eps {
			d := min(s.excess[v], s.snk[v])
			s.snk[v] -= d
			s.excess[v] -= d
			s.st.Pushes++
			continue
		}
		if s.cur[v] == stride {
			s.relabel(v)
			return
		}
		a := v*stride + s.cur[v]
		u := g.head[a]
		if u < 0 || s.res[a] <= s.eps || s.height[v] != s.height[u]+1 {
			s.cur[v]++
			continue
		}
		d := min(s.excess[v], s.res[a])
		s.res[a] -= d
		s.res[g.sister[a]] += d
		s.excess[v] -= d
		wasActive := s.excess[u] > s.eps
		s.excess[u] += d
		s.st.Pushes++
		if !wasActive && s.active(u) {
			s.push(u)
		}
	}
}

// relabel lifts v to one above its lowest residual neighbor. If v was the
// last vertex at its old height, the gap retires v and everything above it.
func (s *pr) relabel(v int32) {
	g := s.g
	stride := int32(g.stride)
	h := s.dead
	if s.snk[v] > s.eps {
		h = 1
	}
	base := v * stride
	for a := base; a < base+stride; a++ {
		if u := g.head[a]; u >= 0 && s.res[a] > s.eps && s.height[u]+1 < h {
			h = s.height[u] + 1
		}
	}
	old := s.height[v]
	s.unlink(v)
	s.cur[v] = 0
	s.st.Relabels++
	s.sinceGlobal++
	if s.count[old] == 0 {
		s.height[v] = s.dead
		s.gap(old)
		return
	}
	s.height[v] = min(h, s.dead)
	if s.height[v] < s.dead {
		s.link(v)
	}
}

// gap retires every live vertex above the emptied height k.
func (s *pr) gap(k int32) {
	for h := k + 1; h <= s.maxLive; h++ {
		for v := s.first[h]; v >= 0; v = s.next[v] {
			s.height[v] = s.dead
		}
		s.first[h] = -1
		s.count[h] = 0
	}
	s.maxLive = k - 1
	s.st.Gaps++
}

func (s *pr) link(v int32) {
	h := s.height[v]
	s.prev[v] = -1
	s.next[v] = s.first[h]
	if f := s.first[h]; f >= 0 {
		s.prev[f] = v
	}
	s.first[h] = v
	s.count[h]++
	if h > s.maxLive {
		s.maxLive = h
	}
}

func (s *pr) unlink(v int32) {
	h := s.height[v]
	if p := s.prev[v]; p >= 0 {
		s.next[p] = s.next[v]
	} else {
		s.first[h] = s.next[v]
	}
	if n := s.next[v]; n >= 0 {
		s.prev[n] = s.prev[v]
	}
	s.count[h]--
}

// globalRelabel recomputes exact sink distances and rebuilds the active set
// and the height lists.
func (s *pr) globalRelabel() {
	g := s.g
	stride := int32(g.stride)
	queue := make([]int32, 0, 64)
	for v := range s.height {
		s.height[v] = s.dead
		s.cur[v] = 0
		s.queued[v] = false
		if s.snk[v] > s.eps {
			s.height[v] = 1
			queue = append(queue, int32(v))
		}
	}
	for i := 0; i < len(queue); i++ {
		u := queue[i]
		base := u * stride
		for a := base; a < base+stride; a++ {
			w := g.head[a]
			if w < 0 || s.height[w] != s.dead || s.res[g.sister[a]] <= s.eps {
				continue
			}
			s.height[w] = s.height[u] + 1
			queue = append(queue, w)
		}
	}

	for h := range s.first {
		s.first[h] = -1
		s.count[h] = 0
	}
	s.maxLive = 0
	for _, v := range queue {
		s.link(v)
	}

	s.fifo, s.fhead = s.fifo[:0], 0
	for h := range s.buckets {
		s.buckets[h] = s.buckets[h][:0]
	}
	s.top = 0
	for v := range s.height {
		if s.active(int32(v)) {
			s.push(int32(v))
		}
	}
	s.sinceGlobal = 0
	s.st.GlobalRelabels++
}
