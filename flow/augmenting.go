package flow

// Tree membership and parent markers of the incremental augmenting solver.
const (
	free   uint8 = 0
	inS    uint8 = 1
	inT    uint8 = 2
	noArc        = int32(-1)
	rootOf       = int32(-2) // parent is a terminal
	orphan       = int32(-3)
	farAway      = int32(1 << 30)
)

// bk is the working state of one incremental augmenting-path solve.
type bk struct {
	*residual
	tr     []float64 // residual s→v when > 0, v→t when < 0
	tree   []uint8
	parent []int32 // arc from v towards its parent
	ts     []int32 // time stamp of dist
	dist   []int32 // distance to the terminal, valid when ts == time
	active []bool
	queue  []int32
	qhead  int
	orph   []int32
	time   int32
	st     Stats
	bud    *budget
}

// augmenting computes a maximum flow with two search trees, S rooted at the
// source and T rooted at the sink, that are grown, augmented through and
// repaired by orphan adoption, never rebuilt from scratch.
//
// Steps:
//  1. Route min(cs, ct) of every vertex straight through; the remainder
//     tr = cs − ct roots the vertex in S (tr > 0) or T (tr < 0).
//  2. Growth: expand active vertices across non-saturated arcs until an arc
//     joins S and T.
//  3. Augmentation: push the bottleneck along the path; vertices whose
//     parent arc saturates become orphans.
//  4. Adoption: each orphan looks for a new parent in its tree with a valid
//     terminal origin, preferring the shortest distance; otherwise it is freed
//     and its children become orphans.
//
// Complexity: O(n²·m·|C|) worst case; near-linear on grid graphs in practice.
// Memory: O(n·stride).
func augmenting(g *Graph, opts Options) (*residual, Stats, error) {
	s := &bk{
		residual: newResidual(g, opts.Epsilon),
		tr:       make([]float64, g.n),
		tree:     make([]uint8, g.n),
		parent:   make([]int32, g.n),
		ts:       make([]int32, g.n),
		dist:     make([]int32, g.n),
		active:   make([]bool, g.n),
		bud:      newBudget(opts),
	}
	for v := 0; v < g.n; v++ {
		s.parent[v] = noArc
		cs, ct := g.source[v], g.sink[v]
		s.tr[v] = cs - ct
		switch {
		case s.tr[v] > s.eps:
			s.tree[v], s.parent[v], s.dist[v] = inS, rootOf, 1
			s.activate(int32(v))
		case s.tr[v] < -s.eps:
			s.tree[v], s.parent[v], s.dist[v] = inT, rootOf, 1
			s.activate(int32(v))
		}
	}
	if err := s.run(); err != nil {
		return nil, s.st, err
	}
	for v, t := range s.tr {
		s.snk[v] = 0
		if t < 0 {
			s.snk[v] = -t
		}
	}

	return s.residual, s.st, nil
}

func (s *bk) activate(v int32) {
	if !s.active[v] {
		s.active[v] = true
		s.queue = append(s.queue, v)
	}
}

// next pops the next active vertex that still belongs to a tree.
func (s *bk) next() int32 {
	for s.qhead < len(s.queue) {
		v := s.queue[s.qhead]
		s.qhead++
		s.active[v] = false
		if s.tree[v] != free {
			return v
		}
	}
	s.queue, s.qhead = s.queue[:0], 0

	return -1
}

func (s *bk) tail(a int32) int32 { return a / int32(s.g.stride) }

func (s *bk) run() error {
	g := s.g
	stride := int32(g.stride)
	current := int32(-1)
	for {
		v := current
		if v >= 0 && s.tree[v] == free {
			v = -1
		}
		if v < 0 {
			if v = s.next(); v < 0 {
				return nil
			}
		}

		// growth
		bridge := noArc
		base := v * stride
		if s.tree[v] == inS {
			for a := base; a < base+stride; a++ {
				u := g.head[a]
				if u < 0 || s.res[a] <= s.eps {
					continue
				}
				switch s.tree[u] {
				case free:
					s.tree[u], s.parent[u] = inS, g.sister[a]
					s.ts[u], s.dist[u] = s.ts[v], s.dist[v]+1
					s.activate(u)
				case inT:
					bridge = a
				default:
					if s.ts[u] <= s.ts[v] && s.dist[u] > s.dist[v] {
						s.parent[u] = g.sister[a]
						s.ts[u], s.dist[u] = s.ts[v], s.dist[v]+1
					}
				}
				if bridge != noArc {
					break
				}
			}
		} else {
			for a := base; a < base+stride; a++ {
				u := g.head[a]
				if u < 0 || s.res[g.sister[a]] <= s.eps {
					continue
				}
				switch s.tree[u] {
				case free:
					s.tree[u], s.parent[u] = inT, g.sister[a]
					s.ts[u], s.dist[u] = s.ts[v], s.dist[v]+1
					s.activate(u)
				case inS:
					bridge = g.sister[a]
				default:
					if s.ts[u] <= s.ts[v] && s.dist[u] > s.dist[v] {
						s.parent[u] = g.sister[a]
						s.ts[u], s.dist[u] = s.ts[v], s.dist[v]+1
					}
				}
				if bridge != noArc {
					break
				}
			}
		}

		s.time++
		if bridge == noArc {
			current = -1
			continue
		}
		// v keeps its place at the front: it may have more bridges.
		current = v
		s.augment(bridge)
		s.st.Augmentations++
		if err := s.bud.check(&s.st); err != nil {
			return err
		}
		for len(s.orph) > 0 {
			x := s.orph[0]
			s.orph = s.orph[1:]
			s.adopt(x)
		}
	}
}

// augment pushes the bottleneck capacity along s ⇝ tail(bridge) → head(bridge) ⇝ t.
func (s *bk) augment(bridge int32) {
	g := s.g
	f := s.res[bridge]
	for x := s.tail(bridge); ; {
		a := s.parent[x]
		if a == rootOf {
			f = min(f, s.tr[x])
			break
		}
		f = min(f, s.res[g.sister[a]])
		x = g.head[a]
	}
	for x := g.head[bridge]; ; {
		a := s.parent[x]
		if a == rootOf {
			f = min(f, -s.tr[x])
			break
		}
		f = min(f, s.res[a])
		x = g.head[a]
	}

	s.res[g.sister[bridge]] += f
	s.res[bridge] -= f
	for x := s.tail(bridge); ; {
		a := s.parent[x]
		if a == rootOf {
			s.tr[x] -= f
			if s.tr[x] <= s.eps {
				s.makeOrphan(x)
			}
			break
		}
		s.res[a] += f
		s.res[g.sister[a]] -= f
		if s.res[g.sister[a]] <= s.eps {
			s.makeOrphan(x)
		}
		x = g.head[a]
	}
	for x := g.head[bridge]; ; {
		a := s.parent[x]
		if a == rootOf {
			s.tr[x] += f
			if s.tr[x] >= -s.eps {
				s.makeOrphan(x)
			}
			break
		}
		s.res[g.sister[a]] += f
		s.res[a] -= f
		if s.res[a] <= s.eps {
			s.makeOrphan(x)
		}
		x = g.head[a]
	}
}

func (s *bk) makeOrphan(x int32) {
	s.parent[x] = orphan
	s.orph = append(s.orph, x)
}

// adopt finds a new parent for orphan x or frees it.
func (s *bk) adopt(x int32) {
	g := s.g
	stride := int32(g.stride)
	side := s.tree[x]
	best, bestDist := noArc, farAway
	base := x * stride
	for a := base; a < base+stride; a++ {
		u := g.head[a]
		if u < 0 || s.tree[u] != side || !s.towardsTree(side, a) {
			continue
		}
		d := s.origin(u)
		if d >= farAway {
			continue
		}
		if d < bestDist {
			best, bestDist = a, d
		}
		// stamp the path so later searches stop early
		for y, dd := u, d; s.ts[y] != s.time; y = g.head[s.parent[y]] {
			s.ts[y], s.dist[y] = s.time, dd
			dd--
		}
	}
	if best != noArc {
		s.parent[x] = best
		s.ts[x], s.dist[x] = s.time, bestDist+1

		return
	}

	// no parent: free x and release its children
	s.tree[x] = free
	s.parent[x] = noArc
	for a := base; a < base+stride; a++ {
		u := g.head[a]
		if u < 0 || s.tree[u] != side {
			continue
		}
		if s.towardsTree(side, a) {
			s.activate(u)
		}
		if p := s.parent[u]; p >= 0 && g.head[p] == x {
			s.makeOrphan(u)
		}
	}
}

// towardsTree reports whether the arc between x and head(a) can carry flow in
// the direction of its tree: u→x for S, x→u for T.
func (s *bk) towardsTree(side uint8, a int32) bool {
	if side == inS {
		return s.res[s.g.sister[a]] > s.eps
	}

	return s.res[a] > s.eps
}

// origin returns the distance from u to its terminal, or farAway when u hangs
// below an orphan.
func (s *bk) origin(u int32) int32 {
	d := int32(0)
	for j := u; ; {
		if s.ts[j] == s.time {
			return d + s.dist[j]
		}
		a := s.parent[j]
		d++
		if a == rootOf {
			s.ts[j], s.dist[j] = s.time, 1
			return d
		}
		if a == orphan || a == noArc {
			return farAway
		}
		j = s.g.head[a]
	}
}
