package kernel

// Mesh is the flattened, render-ready form of one tessellated primitive as
// handed to the desktop frontend. All arrays are flat: Vertices and Normals
// hold 3 floats per vertex, Triangles 3 indices per triangle, Lines 2 per
// segment (grid lines followed by boundary edges) and Points 1 per corner.
type Mesh struct {
	Name      string    `json:"name"`      // design graph node this came from
	Vertices  []float32 `json:"vertices"`  // [x0,y0,z0, x1,y1,z1, ...]
	Normals   []float32 `json:"normals"`   // [nx0,ny0,nz0, ...]
	Triangles []uint32  `json:"triangles"` // [i0,i1,i2, ...]
	Lines     []uint32  `json:"lines"`
	Points    []uint32  `json:"points"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles) / 3
}

// SegmentCount returns the number of line segments.
func (m *Mesh) SegmentCount() int {
	return len(m.Lines) / 2
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}
