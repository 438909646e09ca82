package tessellate

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/knotview/pkg/bounds"
	"github.com/chazu/knotview/pkg/gpu"
	"github.com/chazu/knotview/pkg/indexspace"
	"github.com/chazu/knotview/pkg/kernel"
)

// IndexBuffer is a flat index array split into one contiguous range per
// face, edge or corner. Offsets are in primitive units (quads, segments or
// points) and end with the total.
type IndexBuffer struct {
	Stride  int
	Indices []uint32
	Offsets []int
}

func newIndexBuffer(stride int, offsets []int) IndexBuffer {
	return IndexBuffer{
		Stride:  stride,
		Indices: make([]uint32, stride*offsets[len(offsets)-1]),
		Offsets: offsets,
	}
}

func (b IndexBuffer) put(at int, idx ...int) {
	for k, v := range idx {
		b.Indices[at*b.Stride+k] = uint32(v)
	}
}

// Count is the number of primitives in the buffer.
func (b IndexBuffer) Count() int {
	if len(b.Offsets) == 0 {
		return 0
	}
	return b.Offsets[len(b.Offsets)-1]
}

// Ranges is the number of ranges.
func (b IndexBuffer) Ranges() int {
	if len(b.Offsets) == 0 {
		return 0
	}
	return len(b.Offsets) - 1
}

// Range returns the indices of range i.
func (b IndexBuffer) Range(i int) []uint32 {
	return b.Indices[b.Offsets[i]*b.Stride : b.Offsets[i+1]*b.Stride]
}

// Geometry is the CPU-side tessellation of one primitive: a shared vertex
// buffer plus index buffers for faces (quads), internal grid lines,
// boundary edges and corner points.
type Geometry struct {
	Name     string
	Layout   indexspace.Layout
	Topology *indexspace.Topology

	Positions     []v3.Vec
	Normals       []v3.Vec
	VertexOffsets []int

	Faces  IndexBuffer
	Lines  IndexBuffer
	Edges  IndexBuffer
	Points IndexBuffer

	Box    sdf.Box3
	Sphere bounds.Sphere
}

// Kind is the primitive shape.
func (g *Geometry) Kind() indexspace.Kind { return g.Layout.Kind }

// VertexData flattens positions to x,y,z float32 triples.
func (g *Geometry) VertexData() []float32 {
	return flatten(g.Positions)
}

// NormalData flattens normals to x,y,z float32 triples.
func (g *Geometry) NormalData() []float32 {
	return flatten(g.Normals)
}

func flatten(vs []v3.Vec) []float32 {
	out := make([]float32, 0, 3*len(vs))
	for _, v := range vs {
		out = append(out, float32(v.X), float32(v.Y), float32(v.Z))
	}
	return out
}

// Triangles expands the face quads into triangles.
func (g *Geometry) Triangles() []uint32 {
	return gpu.QuadsToTriangles(g.Faces.Indices)
}

// Mesh converts the geometry to the frontend's flat mesh form.
func (g *Geometry) Mesh() *kernel.Mesh {
	lines := make([]uint32, 0, len(g.Lines.Indices)+len(g.Edges.Indices))
	lines = append(lines, g.Lines.Indices...)
	lines = append(lines, g.Edges.Indices...)
	return &kernel.Mesh{
		Name:      g.Name,
		Vertices:  g.VertexData(),
		Normals:   g.NormalData(),
		Triangles: g.Triangles(),
		Lines:     lines,
		Points:    append([]uint32(nil), g.Points.Indices...),
	}
}

func boxOf(points []v3.Vec) sdf.Box3 {
	if len(points) == 0 {
		return sdf.Box3{}
	}
	b := sdf.Box3{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}
