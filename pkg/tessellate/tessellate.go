// Package tessellate samples parametric patches into renderable geometry
// and walks a design graph to produce one geometry per primitive part.
//
// A patch is sampled at its distinct knots plus r-1 interior parameters
// per span. Knot lines are drawn as internal grid lines, so the coarse
// structure stays visible however fine the shading grid is.
package tessellate

import (
	"errors"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/knotview/pkg/bounds"
	"github.com/chazu/knotview/pkg/indexspace"
	"github.com/chazu/knotview/pkg/kernel"
	"github.com/chazu/knotview/pkg/sample"
)

// ErrUnsupportedPatch is returned for patches with other than 1, 2 or 3
// parameters.
var ErrUnsupportedPatch = errors.New("tessellate: unsupported patch")

func kindOf(p kernel.Patch) (indexspace.Kind, error) {
	switch p.Dim() {
	case 1:
		return indexspace.Curve, nil
	case 2:
		return indexspace.Surface, nil
	case 3:
		return indexspace.Volume, nil
	}
	return 0, fmt.Errorf("%w: dimension %d", ErrUnsupportedPatch, p.Dim())
}

// Tessellate samples p and fills every vertex and index buffer.
func Tessellate(p kernel.Patch, o Options) (*Geometry, error) {
	kind, err := kindOf(p)
	if err != nil {
		return nil, err
	}
	dim := kind.Dim()

	var nt indexspace.Counts
	breaks := make([][]float64, dim)
	for a := 0; a < dim; a++ {
		breaks[a] = sample.Breakpoints(p.Knots(a), p.Order(a))
		nt[a] = len(breaks[a]) - 1
	}
	r := Refinement(p, o)
	l, err := indexspace.New(kind, nt, r)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	params := make([][]float64, dim)
	for a := range params {
		params[a] = sample.Params(breaks[a], r[a])
	}

	g := &Geometry{
		Layout:        l,
		Topology:      indexspace.NewTopology(kind),
		Positions:     make([]v3.Vec, l.VertexCount()),
		Normals:       make([]v3.Vec, l.VertexCount()),
		VertexOffsets: l.VertexOffsets(),
	}

	switch kind {
	case indexspace.Curve:
		err = g.sampleCurve(p, params)
	case indexspace.Surface:
		err = g.sampleSurface(p, params)
	default:
		err = g.sampleVolume(p, params)
	}
	if err != nil {
		return nil, fmt.Errorf("tessellate: evaluating %s: %w", kind, err)
	}

	g.fillFaces()
	g.fillLines()
	g.fillEdges()
	g.fillPoints()
	g.Box = boxOf(g.Positions)
	g.Sphere = bounds.Ritter(g.Positions)
	return g, nil
}

// ---------------------------------------------------------------------------
// Vertices
// ---------------------------------------------------------------------------

func (g *Geometry) sampleCurve(p kernel.Patch, params [][]float64) error {
	s, err := p.EvaluateGrid(params)
	if err != nil {
		return err
	}
	for i := range params[0] {
		g.Positions[g.Layout.Vertex(indexspace.SlabUV, indexspace.Min, i, 0)] = s.Positions[s.Index(i, 0, 0)]
	}
	return nil
}

func (g *Geometry) sampleSurface(p kernel.Patch, params [][]float64) error {
	s, err := p.EvaluateGrid(params)
	if err != nil {
		return err
	}
	for i := range params[0] {
		for j := range params[1] {
			k := s.Index(i, j, 0)
			v := g.Layout.Vertex(indexspace.SlabUV, indexspace.Min, i, j)
			g.Positions[v] = s.Positions[k]
			g.Normals[v] = normal(s.Derivs[0][k], s.Derivs[1][k], false)
		}
	}
	return nil
}

// sampleVolume evaluates each of the six sides once, with the third
// parameter pinned to its minimum or maximum, and writes only the vertices
// the side owns.
func (g *Geometry) sampleVolume(p kernel.Patch, params [][]float64) error {
	l := g.Layout
	for _, slab := range []indexspace.Slab{indexspace.SlabUV, indexspace.SlabUW, indexspace.SlabVW} {
		a, b, third := slab.Axes()
		for _, side := range []indexspace.Side{indexspace.Min, indexspace.Max} {
			pinned := params[third][0]
			if side == indexspace.Max {
				pinned = params[third][len(params[third])-1]
			}
			gp := make([][]float64, 3)
			gp[a], gp[b], gp[third] = params[a], params[b], []float64{pinned}

			s, err := p.EvaluateGrid(gp)
			if err != nil {
				return fmt.Errorf("%s side %d: %w", slab, side, err)
			}
			flip := indexspace.OutwardFlip(slab, side)
			for i := 0; i <= l.N[a]; i++ {
				for j := 0; j <= l.N[b]; j++ {
					if !l.Owned(slab, i, j) {
						continue
					}
					var at [3]int
					at[a], at[b] = i, j
					k := s.Index(at[0], at[1], at[2])
					v := l.Vertex(slab, side, i, j)
					g.Positions[v] = s.Positions[k]
					g.Normals[v] = normal(s.Derivs[a][k], s.Derivs[b][k], flip)
				}
			}
		}
	}
	return nil
}

// normal returns the unit cross product da x db, or db x da when flipped.
// A degenerate cross product is kept as the zero vector.
func normal(da, db v3.Vec, flip bool) v3.Vec {
	n := da.Cross(db)
	if flip {
		n = db.Cross(da)
	}
	if l := n.Length(); l > 0 {
		return n.MulScalar(1 / l)
	}
	return v3.Vec{}
}

// ---------------------------------------------------------------------------
// Index buffers
// ---------------------------------------------------------------------------

func (g *Geometry) fillFaces() {
	l := g.Layout
	g.Faces = newIndexBuffer(4, l.QuadOffsets())
	for f := 0; f < l.FaceCount(); f++ {
		ni, nj := l.FaceDims(f)
		base := g.Faces.Offsets[f]
		for i := 0; i < ni; i++ {
			for j := 0; j < nj; j++ {
				c := l.QuadCorners(f, i, j)
				g.Faces.put(base+i*nj+j, c[0], c[1], c[2], c[3])
			}
		}
	}
}

func (g *Geometry) fillLines() {
	l := g.Layout
	g.Lines = newIndexBuffer(2, l.LineOffsets())
	for f := 0; f < l.FaceCount(); f++ {
		for _, d := range []indexspace.Direction{indexspace.ConstFirst, indexspace.ConstSecond} {
			segs := l.LineSegments(f, d)
			for slot := 1; slot <= l.LineSlots(f, d); slot++ {
				for t := 0; t < segs; t++ {
					e := l.LineEnds(f, d, slot, t)
					g.Lines.put(l.Line(f, d, slot, t), e[0], e[1])
				}
			}
		}
	}
}

func (g *Geometry) fillEdges() {
	l := g.Layout
	g.Edges = newIndexBuffer(2, l.EdgeOffsets())
	for e := 0; e < l.EdgeCount(); e++ {
		a, _, _ := l.EdgeAxis(e)
		for t := 0; t < l.N[a]; t++ {
			ends := l.EdgeEnds(e, t)
			g.Edges.put(g.Edges.Offsets[e]+t, ends[0], ends[1])
		}
	}
}

func (g *Geometry) fillPoints() {
	l := g.Layout
	g.Points = newIndexBuffer(1, l.CornerOffsets())
	for p := 0; p < l.CornerCount(); p++ {
		g.Points.put(p, l.Corner(p))
	}
}
