package tessellate

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/knotview/pkg/graph"
	"github.com/chazu/knotview/pkg/kernel"
	"github.com/chazu/knotview/pkg/kernel/bspline"
)

// Part is one primitive reached from a graph root, already placed in world
// space.
type Part struct {
	Node   graph.NodeID
	Name   string
	Patch  kernel.Patch
	Refine [3]int // per-axis override, 0 = rule
}

// transformStack accumulates placements during graph traversal. The top
// is the product of every transform from the root down.
type transformStack struct {
	m []sdf.M44
}

func newTransformStack() *transformStack {
	return &transformStack{m: []sdf.M44{sdf.Identity3d()}}
}

func (ts *transformStack) push(local sdf.M44) {
	ts.m = append(ts.m, ts.top().Mul(local))
}

func (ts *transformStack) pop() {
	if len(ts.m) > 1 {
		ts.m = ts.m[:len(ts.m)-1]
	}
}

func (ts *transformStack) top() sdf.M44 {
	return ts.m[len(ts.m)-1]
}

// placement converts transform data to a matrix: rotate about X, then Y,
// then Z (degrees), then translate.
func placement(td graph.TransformData) sdf.M44 {
	m := sdf.Identity3d()
	if td.Translation != nil {
		m = sdf.Translate3d(td.Translation.Vec())
	}
	if td.Rotation != nil {
		r := td.Rotation
		rot := sdf.RotateZ(r.Z * math.Pi / 180).
			Mul(sdf.RotateY(r.Y * math.Pi / 180)).
			Mul(sdf.RotateX(r.X * math.Pi / 180))
		m = m.Mul(rot)
	}
	return m
}

// Parts walks the graph from its roots and returns every primitive it
// reaches, in traversal order. A primitive reached twice (through two
// placements) yields two parts. The graph is never mutated.
func Parts(g *graph.DesignGraph) ([]Part, error) {
	if g == nil {
		return nil, nil
	}
	var parts []Part
	ts := newTransformStack()
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		collected, err := walkNode(g, root, ts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
		parts = append(parts, collected...)
	}
	return parts, nil
}

// Graph tessellates every part of g with o. Parts carrying a refinement
// override replace o.Refine.
func Graph(g *graph.DesignGraph, o Options) ([]*Geometry, error) {
	parts, err := Parts(g)
	if err != nil {
		return nil, err
	}
	out := make([]*Geometry, 0, len(parts))
	for _, p := range parts {
		geom, err := p.Tessellate(o)
		if err != nil {
			return nil, err
		}
		out = append(out, geom)
	}
	return out, nil
}

// Tessellate samples the part with its refinement override applied.
func (p Part) Tessellate(o Options) (*Geometry, error) {
	geom, err := Tessellate(p.Patch, o.WithRefine(p.Refine))
	if err != nil {
		return nil, fmt.Errorf("tessellate: part %q: %w", p.Name, err)
	}
	geom.Name = p.Name
	return geom, nil
}

func walkNode(g *graph.DesignGraph, n *graph.Node, ts *transformStack) ([]Part, error) {
	switch n.Kind {
	case graph.NodePrimitive:
		return handlePrimitive(n, ts)
	case graph.NodeTransform:
		return handleTransform(g, n, ts)
	case graph.NodeGroup:
		return handleGroup(g, n, ts)
	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

// handlePrimitive builds the control net of a primitive node and moves it
// into place.
func handlePrimitive(n *graph.Node, ts *transformStack) ([]Part, error) {
	patch, refine, err := Build(n.Data)
	if err != nil {
		return nil, fmt.Errorf("primitive node %s: %w", n.ID.Short(), err)
	}
	return []Part{{
		Node:   n.ID,
		Name:   n.Label(),
		Patch:  patch.Transform(ts.top()),
		Refine: refine,
	}}, nil
}

// Build turns primitive node data into a patch in its local frame.
func Build(data graph.NodeData) (*bspline.Patch, [3]int, error) {
	switch d := data.(type) {
	case graph.CurveData:
		pts := make([]v3.Vec, len(d.Points))
		for i, p := range d.Points {
			pts[i] = p.Vec()
		}
		p, err := bspline.Curve(d.Degree, pts, d.Weights, d.Knots)
		return p, [3]int{d.Refine}, err
	case graph.SurfaceData:
		p, err := bspline.Sheet(d.Degree, d.Segments, d.Size.Vec(), d.Bulge, d.Rational)
		return p, [3]int{d.Refine[0], d.Refine[1]}, err
	case graph.VolumeData:
		p, err := bspline.Box(d.Degree, d.Segments, d.Size.Vec())
		return p, d.Refine, err
	}
	return nil, [3]int{}, fmt.Errorf("%w: data type %T", ErrUnsupportedPatch, data)
}

// handleTransform pushes the placement, recurses into children, then pops.
func handleTransform(g *graph.DesignGraph, n *graph.Node, ts *transformStack) ([]Part, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	ts.push(placement(td))
	defer ts.pop()

	var parts []Part
	for _, child := range g.Children(n) {
		collected, err := walkNode(g, child, ts)
		if err != nil {
			return nil, err
		}
		parts = append(parts, collected...)
	}
	return parts, nil
}

// handleGroup recurses into children transparently.
func handleGroup(g *graph.DesignGraph, n *graph.Node, ts *transformStack) ([]Part, error) {
	var parts []Part
	for _, child := range g.Children(n) {
		collected, err := walkNode(g, child, ts)
		if err != nil {
			return nil, err
		}
		parts = append(parts, collected...)
	}
	return parts, nil
}
