package indexspace

// ---------------------------------------------------------------------------
// Faces: quads at rendering resolution, one contiguous range per face.
// ---------------------------------------------------------------------------

// QuadOffsets returns the first quad of every face plus the total.
func (l Layout) QuadOffsets() []int {
	sizes := make([]int, l.FaceCount())
	for f := range sizes {
		ni, nj := l.FaceDims(f)
		sizes[f] = ni * nj
	}
	return cumulative(sizes)
}

// Quad returns the offset of cell (i, j) of a face in the quad buffer.
func (l Layout) Quad(face, i, j int) int {
	_, nj := l.FaceDims(face)
	return l.QuadOffsets()[face] + i*nj + j
}

// QuadCorners returns the four vertex indices of cell (i, j), wound so
// that the quad faces out of the primitive.
func (l Layout) QuadCorners(face, i, j int) [4]int {
	s, side := FaceSlab(face)
	v00 := l.Vertex(s, side, i, j)
	v10 := l.Vertex(s, side, i+1, j)
	v11 := l.Vertex(s, side, i+1, j+1)
	v01 := l.Vertex(s, side, i, j+1)
	if l.Kind == Volume && OutwardFlip(s, side) {
		return [4]int{v00, v01, v11, v10}
	}
	return [4]int{v00, v10, v11, v01}
}

// ---------------------------------------------------------------------------
// Internal grid lines: the structural grid drawn through rendering vertices.
// Per face, lines of constant first-axis index come first (one per interior
// structural slot, each with n_b segments), then lines of constant
// second-axis index.
// ---------------------------------------------------------------------------

// Direction selects which family of internal lines on a face.
type Direction int

const (
	ConstFirst  Direction = iota // first axis fixed, runs along the second
	ConstSecond                  // second axis fixed, runs along the first
)

func (l Layout) faceLineCounts(face int) (first, second int) {
	a, b := l.faceAxes(face)
	first = (l.NT[a] - 1) * l.N[b]
	second = (l.NT[b] - 1) * l.N[a]
	return first, second
}

// LineOffsets returns the first segment of every face's internal lines
// plus the total.
func (l Layout) LineOffsets() []int {
	sizes := make([]int, l.FaceCount())
	for f := range sizes {
		first, second := l.faceLineCounts(f)
		sizes[f] = first + second
	}
	return cumulative(sizes)
}

// LineSlots returns the number of interior structural slots for a face
// and direction.
func (l Layout) LineSlots(face int, d Direction) int {
	a, b := l.faceAxes(face)
	if d == ConstFirst {
		return l.NT[a] - 1
	}
	return l.NT[b] - 1
}

// LineSegments returns how many segments each line of the family has.
func (l Layout) LineSegments(face int, d Direction) int {
	a, b := l.faceAxes(face)
	if d == ConstFirst {
		return l.N[b]
	}
	return l.N[a]
}

// Line returns the segment offset of segment t of the line at interior
// structural slot (1-based) in the given family.
func (l Layout) Line(face int, d Direction, slot, t int) int {
	a, b := l.faceAxes(face)
	base := l.LineOffsets()[face]
	if d == ConstFirst {
		return base + (slot-1)*l.N[b] + t
	}
	first := (l.NT[a] - 1) * l.N[b]
	return base + first + (slot-1)*l.N[a] + t
}

// LineEnds returns the two vertex indices of a line segment.
func (l Layout) LineEnds(face int, d Direction, slot, t int) [2]int {
	s, side := FaceSlab(face)
	a, b := l.faceAxes(face)
	if d == ConstFirst {
		i := l.Refined(a, slot)
		return [2]int{l.Vertex(s, side, i, t), l.Vertex(s, side, i, t+1)}
	}
	j := l.Refined(b, slot)
	return [2]int{l.Vertex(s, side, t, j), l.Vertex(s, side, t+1, j)}
}

// ---------------------------------------------------------------------------
// Boundary edges: each box edge is a polyline at rendering resolution.
// ---------------------------------------------------------------------------

// EdgeAxis returns the axis an edge runs along and the sides of the two
// remaining axes (in axis order) that fix it.
func (l Layout) EdgeAxis(edge int) (a Axis, sb, sc Side) {
	switch l.Kind {
	case Curve:
		return U, Min, Min
	case Surface:
		// 0,1 along u at v-min/v-max; 2,3 along v at u-min/u-max
		return Axis(edge / 2), Side(edge % 2), Min
	}
	return Axis(edge / 4), Side((edge / 2) % 2), Side(edge % 2)
}

// EdgeOffsets returns the first segment of every edge plus the total.
func (l Layout) EdgeOffsets() []int {
	sizes := make([]int, l.EdgeCount())
	for e := range sizes {
		a, _, _ := l.EdgeAxis(e)
		sizes[e] = l.N[a]
	}
	return cumulative(sizes)
}

// EdgeSegment returns the segment offset of segment t of an edge.
func (l Layout) EdgeSegment(edge, t int) int {
	return l.EdgeOffsets()[edge] + t
}

// EdgeEnds returns the two vertex indices of segment t of an edge.
func (l Layout) EdgeEnds(edge, t int) [2]int {
	return [2]int{l.edgeVertex(edge, t), l.edgeVertex(edge, t+1)}
}

func (l Layout) edgeVertex(edge, t int) int {
	a, sb, sc := l.EdgeAxis(edge)
	switch l.Kind {
	case Curve:
		return t
	case Surface:
		if a == U {
			return l.At(t, int(sb)*l.N[1], 0)
		}
		return l.At(int(sb)*l.N[0], t, 0)
	}
	var idx [3]int
	idx[a] = t
	others := otherAxes(a)
	idx[others[0]] = int(sb) * l.N[others[0]]
	idx[others[1]] = int(sc) * l.N[others[1]]
	return l.At(idx[0], idx[1], idx[2])
}

func otherAxes(a Axis) [2]Axis {
	switch a {
	case U:
		return [2]Axis{V, W}
	case V:
		return [2]Axis{U, W}
	}
	return [2]Axis{U, V}
}

// ---------------------------------------------------------------------------
// Corner points.
// ---------------------------------------------------------------------------

// CornerOffsets returns 0..CornerCount: one point per corner.
func (l Layout) CornerOffsets() []int {
	sizes := make([]int, l.CornerCount())
	for i := range sizes {
		sizes[i] = 1
	}
	return cumulative(sizes)
}

// CornerSides decodes a corner id into its side on each axis.
func CornerSides(p int) [3]Side {
	return [3]Side{Side(p & 1), Side((p >> 1) & 1), Side((p >> 2) & 1)}
}

// Corner returns the vertex index of a corner point.
func (l Layout) Corner(p int) int {
	s := CornerSides(p)
	return l.At(int(s[0])*l.N[0], int(s[1])*l.N[1], int(s[2])*l.N[2])
}
