package volume

import "math"

// Neighborhood is the precomputed set of neighbor offsets for one
// connectivity and spacing. It is immutable once built.
//
// Offsets are ordered so that Offsets[k] == -Offsets[Opposite(k)], with
// Opposite(k) == len(Offsets)-1-k.
type Neighborhood struct {
	Conn     Connectivity
	Offsets  []Offset
	Distance []float64 // physical length / smallest spacing component
}

var (
	offsets6  = []Offset{{0, 0, -1}, {0, -1, 0}, {-1, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	offsets26 []Offset
)

func init() {
	for z := -1; z <= 1; z++ {
		for y := -1; y <= 1; y++ {
			for x := -1; x <= 1; x++ {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				offsets26 = append(offsets26, Offset{X: x, Y: y, Z: z})
			}
		}
	}
}

// NewNeighborhood builds the offsets for conn and their distances under spacing.
// Returns ErrBadConnectivity or ErrBadSpacing.
// Complexity: O(K), K = 6 or 26.
func NewNeighborhood(conn Connectivity, spacing Spacing) (*Neighborhood, error) {
	if !conn.Valid() {
		return nil, ErrBadConnectivity
	}
	if !spacing.valid() {
		return nil, ErrBadSpacing
	}
	src := offsets6
	if conn == Conn26 {
		src = offsets26
	}
	n := &Neighborhood{
		Conn:     conn,
		Offsets:  append([]Offset(nil), src...),
		Distance: make([]float64, len(src)),
	}
	unit := spacing.Min()
	for k, o := range n.Offsets {
		dx := float64(o.X) * spacing.X
		dy := float64(o.Y) * spacing.Y
		dz := float64(o.Z) * spacing.Z
		n.Distance[k] = math.Sqrt(dx*dx+dy*dy+dz*dz) / unit
	}

	return n, nil
}

// Len returns the number of neighbor slots.
func (n *Neighborhood) Len() int {
	return len(n.Offsets)
}

// Opposite returns the slot holding the negated offset of slot k.
// Complexity: O(1).
func (n *Neighborhood) Opposite(k int) int {
	return len(n.Offsets) - 1 - k
}

// InverseDistanceSum returns Σ 1/d over all slots. Boundary weights never
// exceed 1/d, so this bounds the n-link capacity leaving any vertex.
func (n *Neighborhood) InverseDistanceSum() float64 {
	var s float64
	for _, d := range n.Distance {
		s += 1 / d
	}

	return s
}
