package indexspace

// Topology holds the incidence maps used to propagate selection between
// granularities. It is built once per primitive and never mutated.
type Topology struct {
	Faces      int
	Edges      int
	Points     int
	FaceEdges  [][4]int // face id -> its four edge ids
	EdgePoints [][2]int // edge id -> its two point ids
}

// NewTopology returns the incidence maps of a kind.
func NewTopology(k Kind) *Topology {
	switch k {
	case Volume:
		return volumeTopology()
	case Surface:
		return &Topology{
			Faces: 1, Edges: 4, Points: 4,
			FaceEdges:  [][4]int{{0, 1, 2, 3}},
			EdgePoints: [][2]int{{0, 1}, {2, 3}, {0, 2}, {1, 3}},
		}
	}
	return &Topology{
		Edges: 1, Points: 2,
		EdgePoints: [][2]int{{0, 1}},
	}
}

func volumeTopology() *Topology {
	t := &Topology{Faces: 6, Edges: 12, Points: 8}

	edgeID := func(a Axis, sb, sc int) int { return 4*int(a) + 2*sb + sc }
	for f := 0; f < 6; f++ {
		slab, side := FaceSlab(f)
		s := int(side)
		var fe [4]int
		switch slab {
		case SlabUV: // w fixed
			fe = [4]int{edgeID(U, 0, s), edgeID(U, 1, s), edgeID(V, 0, s), edgeID(V, 1, s)}
		case SlabUW: // v fixed
			fe = [4]int{edgeID(U, s, 0), edgeID(U, s, 1), edgeID(W, 0, s), edgeID(W, 1, s)}
		case SlabVW: // u fixed
			fe = [4]int{edgeID(V, s, 0), edgeID(V, s, 1), edgeID(W, s, 0), edgeID(W, s, 1)}
		}
		t.FaceEdges = append(t.FaceEdges, fe)
	}

	point := func(su, sv, sw int) int { return su + 2*sv + 4*sw }
	for e := 0; e < 12; e++ {
		a := Axis(e / 4)
		sb, sc := (e/2)%2, e%2
		var ep [2]int
		switch a {
		case U:
			ep = [2]int{point(0, sb, sc), point(1, sb, sc)}
		case V:
			ep = [2]int{point(sb, 0, sc), point(sb, 1, sc)}
		case W:
			ep = [2]int{point(sb, sc, 0), point(sb, sc, 1)}
		}
		t.EdgePoints = append(t.EdgePoints, ep)
	}
	return t
}

// PickCount is the number of individually pickable primitives.
func (t *Topology) PickCount() int {
	return t.Faces + t.Edges + t.Points
}

// FacePoints returns the distinct corner points of a face.
func (t *Topology) FacePoints(face int) []int {
	seen := make(map[int]bool, 4)
	var out []int
	for _, e := range t.FaceEdges[face] {
		for _, p := range t.EdgePoints[e] {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}
