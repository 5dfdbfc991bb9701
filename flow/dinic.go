package flow

import "math"

// dn is the working state of one Dinic solve.
type dn struct {
	*residual
	src   []float64 // residual s→v
	level []int32
	iter  []int32
	sinkL int32
	st    Stats
	bud   *budget
}

// dinic computes the maximum flow from the source to the sink using Dinic's
// algorithm (level graph + blocking flows).
//
// Steps:
//  1. BFS from the source over residual arcs assigns levels; the sink's
//     level is one above the closest vertex with residual v→t.
//  2. If the sink is unreachable, stop.
//  3. DFS from every source arc pushes blocking flow along arcs that climb
//     exactly one level, advancing a per-vertex current-arc pointer.
//  4. Repeat.
//
// Complexity: O(n²·m) in general; Memory: O(n·stride) plus recursion depth
// up to the longest level path.
func dinic(g *Graph, opts Options) (*residual, Stats, error) {
	s := &dn{
		residual: newResidual(g, opts.Epsilon),
		src:      make([]float64, g.n),
		level:    make([]int32, g.n),
		iter:     make([]int32, g.n),
		bud:      newBudget(opts),
	}
	copy(s.src, g.source)
	for s.buildLevels() {
		for v := range s.iter {
			s.iter[v] = 0
		}
		for v := 0; v < g.n; v++ {
			for s.level[v] == 1 && s.src[v] > s.eps {
				pushed := s.dfs(int32(v), s.src[v])
				if pushed <= 0 {
					break
				}
				s.src[v] -= pushed
				s.st.Augmentations++
				if err := s.bud.check(&s.st); err != nil {
					return nil, s.st, err
				}
			}
		}
	}

	return s.residual, s.st, nil
}

// buildLevels runs the BFS and reports whether the sink is reachable.
func (s *dn) buildLevels() bool {
	g := s.g
	queue := make([]int32, 0, 64)
	for v := range s.level {
		s.level[v] = -1
		if s.src[v] > s.eps {
			s.level[v] = 1
			queue = append(queue, int32(v))
		}
	}
	s.sinkL = -1
	for i := 0; i < len(queue); i++ {
		u := queue[i]
		if s.sinkL >= 0 && s.level[u] >= s.sinkL {
			break
		}
		if s.snk[u] > s.eps && s.sinkL < 0 {
			s.sinkL = s.level[u] + 1
		}
		base := u * int32(g.stride)
		for a := base; a < base+int32(g.stride); a++ {
			w := g.head[a]
			if w >= 0 && s.level[w] < 0 && s.res[a] > s.eps {
				s.level[w] = s.level[u] + 1
				queue = append(queue, w)
			}
		}
	}

	return s.sinkL > 0
}

// dfs sends up to avail from u towards the sink and returns the amount sent.
func (s *dn) dfs(u int32, avail float64) float64 {
	g := s.g
	if s.level[u]+1 == s.sinkL && s.snk[u] > s.eps {
		d := math.Min(avail, s.snk[u])
		s.snk[u] -= d

		return d
	}
	stride := int32(g.stride)
	for ; s.iter[u] < stride; s.iter[u]++ {
		a := u*stride + s.iter[u]
		w := g.head[a]
		if w < 0 || s.res[a] <= s.eps || s.level[w] != s.level[u]+1 || s.level[w] >= s.sinkL {
			continue
		}
		if pushed := s.dfs(w, math.Min(avail, s.res[a])); pushed > 0 {
			s.res[a] -= pushed
			s.res[g.sister[a]] += pushed

			return pushed
		}
	}

	return 0
}
