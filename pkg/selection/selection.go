// Package selection keeps patch, face, edge and point selections of one
// primitive mutually consistent.
//
// Selecting at a coarse granularity cascades down (a face selects its
// edges, an edge its points). Deselecting recomputes the finer sets from
// what remains selected above them, never by subtraction, since a point can
// belong to several edges that are still selected. Switching granularity
// may balloon a finer selection up to a coarser one using an all-of
// (conjunction) or any-of (disjunction) rule.
package selection

import (
	"fmt"
	"strings"

	"github.com/chazu/knotview/pkg/indexspace"
)

// Granularity is the kind of sub-part the user is selecting.
type Granularity int

const (
	Patch Granularity = iota
	Face
	Edge
	Point
)

func (g Granularity) String() string {
	switch g {
	case Patch:
		return "patch"
	case Face:
		return "face"
	case Edge:
		return "edge"
	case Point:
		return "point"
	default:
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
}

// ParseGranularity parses the String form.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(s) {
	case "patch":
		return Patch, nil
	case "face":
		return Face, nil
	case "edge":
		return Edge, nil
	case "point":
		return Point, nil
	}
	return 0, fmt.Errorf("selection: unknown granularity %q", s)
}

func (g Granularity) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *Granularity) UnmarshalText(b []byte) error {
	v, err := ParseGranularity(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// State is the selection and visibility of one primitive. Every selected id
// is also visible.
type State struct {
	topo *indexspace.Topology

	patch  bool
	faces  IDSet
	edges  IDSet
	points IDSet

	visiblePatch  bool
	visibleFaces  IDSet
	visibleEdges  IDSet
	visiblePoints IDSet
}

// New returns an empty selection with everything visible.
func New(topo *indexspace.Topology) *State {
	return &State{
		topo:          topo,
		faces:         make(IDSet),
		edges:         make(IDSet),
		points:        make(IDSet),
		visiblePatch:  true,
		visibleFaces:  Range(topo.Faces),
		visibleEdges:  Range(topo.Edges),
		visiblePoints: Range(topo.Points),
	}
}

// Clone returns an independent copy sharing only the topology.
func (s *State) Clone() *State {
	return &State{
		topo:          s.topo,
		patch:         s.patch,
		faces:         s.faces.Clone(),
		edges:         s.edges.Clone(),
		points:        s.points.Clone(),
		visiblePatch:  s.visiblePatch,
		visibleFaces:  s.visibleFaces.Clone(),
		visibleEdges:  s.visibleEdges.Clone(),
		visiblePoints: s.visiblePoints.Clone(),
	}
}

// Classify splits a pick-local index into its granularity and the id
// within it: faces first, then edges, then points.
func (s *State) Classify(local int) (Granularity, int, bool) {
	t := s.topo
	switch {
	case local < 0:
		return Patch, 0, false
	case local < t.Faces:
		return Face, local, true
	case local < t.Faces+t.Edges:
		return Edge, local - t.Faces, true
	case local < t.PickCount():
		return Point, local - t.Faces - t.Edges, true
	}
	return Patch, 0, false
}

// Topology returns the incidence maps the state propagates along.
func (s *State) Topology() *indexspace.Topology {
	return s.topo
}

// PatchSelected reports whether the primitive is selected as a whole.
func (s *State) PatchSelected() bool {
	return s.patch
}

// Selected returns a copy of the selected ids at a granularity. Patch
// yields {0} when the primitive is selected.
func (s *State) Selected(g Granularity) IDSet {
	switch g {
	case Face:
		return s.faces.Clone()
	case Edge:
		return s.edges.Clone()
	case Point:
		return s.points.Clone()
	}
	if s.patch {
		return NewIDSet(0)
	}
	return NewIDSet()
}

// Visible returns a copy of the visible ids at a granularity.
func (s *State) Visible(g Granularity) IDSet {
	switch g {
	case Face:
		return s.visibleFaces.Clone()
	case Edge:
		return s.visibleEdges.Clone()
	case Point:
		return s.visiblePoints.Clone()
	}
	if s.visiblePatch {
		return NewIDSet(0)
	}
	return NewIDSet()
}

// Empty reports whether nothing is selected at any granularity.
func (s *State) Empty() bool {
	return !s.patch && len(s.faces) == 0 && len(s.edges) == 0 && len(s.points) == 0
}

// SelectObject selects everything visible (on) or clears the selection.
func (s *State) SelectObject(on bool) {
	if !on {
		s.patch = false
		s.faces = make(IDSet)
		s.edges = make(IDSet)
		s.points = make(IDSet)
		return
	}
	s.patch = s.visiblePatch
	s.faces = s.visibleFaces.Clone()
	s.edges = s.visibleEdges.Clone()
	s.points = s.visiblePoints.Clone()
}

// SelectFaces adds (on) or removes faces. Adding selects their edges and
// points; removing recomputes edges and points from the faces left.
func (s *State) SelectFaces(on bool, ids IDSet) {
	ids = ids.Intersect(s.visibleFaces)
	if on {
		s.faces.Union(ids)
		e := s.edgesOf(ids)
		s.edges.Union(e)
		s.points.Union(s.pointsOf(e))
		return
	}
	s.patch = false
	s.faces.Subtract(ids)
	s.edges = s.edgesOf(s.faces)
	s.points = s.pointsOf(s.edges)
}

// SelectEdges adds (on) or removes edges, cascading to points.
func (s *State) SelectEdges(on bool, ids IDSet) {
	ids = ids.Intersect(s.visibleEdges)
	if on {
		s.edges.Union(ids)
		s.points.Union(s.pointsOf(ids))
		return
	}
	s.patch = false
	s.edges.Subtract(ids)
	s.points = s.pointsOf(s.edges)
}

// SelectPoints adds (on) or removes points.
func (s *State) SelectPoints(on bool, ids IDSet) {
	ids = ids.Intersect(s.visiblePoints)
	if on {
		s.points.Union(ids)
		return
	}
	s.patch = false
	s.points.Subtract(ids)
}

// SetGranularity brings the sets in line with a new granularity.
// conjunction chooses the all-of rule when ballooning up; otherwise any-of.
func (s *State) SetGranularity(mode Granularity, conjunction bool) {
	switch mode {
	case Patch:
		s.SelectObject(!s.Empty())
	case Face:
		s.patch = false
		if len(s.edges) == 0 {
			s.edges = s.balloonEdges(s.points, conjunction)
		}
		if len(s.faces) == 0 {
			s.faces = s.balloonFaces(s.edges, conjunction)
		}
		s.edges = s.edgesOf(s.faces)
		s.points = s.pointsOf(s.edges)
	case Edge:
		s.patch = false
		if len(s.faces) == 0 && len(s.edges) == 0 {
			s.edges = s.balloonEdges(s.points, conjunction)
		}
		s.faces = make(IDSet)
		s.points.Union(s.pointsOf(s.edges))
	case Point:
		s.patch = false
		s.faces = make(IDSet)
		s.edges = make(IDSet)
	}
}

// Pick applies a decoded pick. local indexes faces, then edges, then
// points. A pick of a kind that is not drawn at mode is ignored and
// reported as false.
func (s *State) Pick(mode Granularity, local int, on bool) bool {
	t := s.topo
	switch {
	case mode == Patch:
		if local < 0 || local >= t.PickCount() {
			return false
		}
		s.SelectObject(on)
	case mode == Face && local >= 0 && local < t.Faces:
		s.SelectFaces(on, NewIDSet(local))
	case mode == Edge && local >= t.Faces && local < t.Faces+t.Edges:
		s.SelectEdges(on, NewIDSet(local-t.Faces))
	case mode == Point && local >= t.Faces+t.Edges && local < t.PickCount():
		s.SelectPoints(on, NewIDSet(local-t.Faces-t.Edges))
	default:
		return false
	}
	return true
}

// SetVisible shows or hides ids at a granularity. Hidden ids leave the
// selection. Patch ignores ids and toggles the whole primitive.
func (s *State) SetVisible(g Granularity, ids IDSet, on bool) {
	var vis IDSet
	switch g {
	case Patch:
		s.visiblePatch = on
		if !on {
			s.SelectObject(false)
		}
		return
	case Face:
		vis = s.visibleFaces
		ids = ids.Intersect(Range(s.topo.Faces))
	case Edge:
		vis = s.visibleEdges
		ids = ids.Intersect(Range(s.topo.Edges))
	case Point:
		vis = s.visiblePoints
		ids = ids.Intersect(Range(s.topo.Points))
	}
	if on {
		vis.Union(ids)
		return
	}
	// Deselect while the ids are still visible; the Select methods ignore
	// hidden ids.
	switch g {
	case Face:
		s.SelectFaces(false, ids)
	case Edge:
		s.SelectEdges(false, ids)
	case Point:
		s.SelectPoints(false, ids)
	}
	vis.Subtract(ids)
}

// PatchVisible reports whether the primitive is drawn at all.
func (s *State) PatchVisible() bool {
	return s.visiblePatch
}

// ---------------------------------------------------------------------------
// Propagation along the topology maps.
// ---------------------------------------------------------------------------

func (s *State) edgesOf(faces IDSet) IDSet {
	out := make(IDSet)
	for f := range faces {
		for _, e := range s.topo.FaceEdges[f] {
			if s.visibleEdges.Has(e) {
				out.Add(e)
			}
		}
	}
	return out
}

func (s *State) pointsOf(edges IDSet) IDSet {
	out := make(IDSet)
	for e := range edges {
		for _, p := range s.topo.EdgePoints[e] {
			if s.visiblePoints.Has(p) {
				out.Add(p)
			}
		}
	}
	return out
}

func (s *State) balloonEdges(points IDSet, conjunction bool) IDSet {
	out := make(IDSet)
	for e := range s.visibleEdges {
		ep := s.topo.EdgePoints[e]
		if qualifies(points, ep[:], conjunction) {
			out.Add(e)
		}
	}
	return out
}

func (s *State) balloonFaces(edges IDSet, conjunction bool) IDSet {
	out := make(IDSet)
	for f := range s.visibleFaces {
		fe := s.topo.FaceEdges[f]
		if qualifies(edges, fe[:], conjunction) {
			out.Add(f)
		}
	}
	return out
}

// qualifies applies the all-of / any-of rule of ids against set.
func qualifies(set IDSet, ids []int, conjunction bool) bool {
	if conjunction {
		for _, id := range ids {
			if !set.Has(id) {
				return false
			}
		}
		return len(ids) > 0
	}
	for _, id := range ids {
		if set.Has(id) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Engine: the granularity shared by every primitive.
// ---------------------------------------------------------------------------

// Engine holds the global granularity.
type Engine struct {
	mode Granularity
}

// Mode returns the current granularity.
func (e *Engine) Mode() Granularity {
	return e.mode
}

// SetGranularity switches every given state to mode. The conjunction flag
// applies to this call only.
func (e *Engine) SetGranularity(mode Granularity, conjunction bool, states ...*State) {
	e.mode = mode
	for _, s := range states {
		s.SetGranularity(mode, conjunction)
	}
}
