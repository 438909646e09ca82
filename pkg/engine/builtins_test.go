package engine

import (
	"strings"
	"testing"

	"github.com/chazu/knotview/pkg/graph"
)

// mustEval evaluates source and fails the test on any error.
func mustEval(t *testing.T, source string) *graph.DesignGraph {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	return g
}

// evalErrors evaluates source expecting non-fatal errors.
func evalErrors(t *testing.T, source string) []EvalError {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	return evalErrs
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

func TestSimpleVolume(t *testing.T) {
	g := mustEval(t, `(defprim "block" (volume :degree 2 :segments (list 3 4 5) :size (vec3 3 4 5)))`)

	if g.NodeCount() != 1 {
		t.Fatalf("expected 1 node, got %d", g.NodeCount())
	}
	n := g.Lookup("block")
	if n == nil {
		t.Fatal("no node named block")
	}
	if n.Kind != graph.NodePrimitive {
		t.Errorf("kind = %s, want primitive", n.Kind)
	}
	if n.ID != graph.NewNodeID("defprim/block") {
		t.Error("primitive ID is not derived from its name")
	}
	vd, ok := n.Data.(graph.VolumeData)
	if !ok {
		t.Fatalf("expected VolumeData, got %T", n.Data)
	}
	if vd.Degree != 2 || vd.Segments != [3]int{3, 4, 5} {
		t.Errorf("got degree %d segments %v", vd.Degree, vd.Segments)
	}
	if vd.Size != (graph.Vec3{X: 3, Y: 4, Z: 5}) {
		t.Errorf("size = %+v", vd.Size)
	}
	if len(g.Roots) != 1 || g.Roots[0] != n.ID {
		t.Errorf("unplaced primitive should be the only root, roots = %d", len(g.Roots))
	}
}

func TestVolumeRefine(t *testing.T) {
	g := mustEval(t, `
(defprim "a" (volume :degree 1 :refine 4))
(defprim "b" (volume :degree 1 :refine (list 2 3 4)))
`)
	if r := g.Lookup("a").Data.(graph.VolumeData).Refine; r != [3]int{4, 4, 4} {
		t.Errorf("scalar refine = %v", r)
	}
	if r := g.Lookup("b").Data.(graph.VolumeData).Refine; r != [3]int{2, 3, 4} {
		t.Errorf("list refine = %v", r)
	}
}

func TestSurface(t *testing.T) {
	g := mustEval(t, `
(defprim "dome" (surface :degree 2 :segments (list 3 2) :size (vec3 4 2 0)
                         :bulge 0.5 :rational true :refine (list 6 8)))
`)
	sd, ok := g.Lookup("dome").Data.(graph.SurfaceData)
	if !ok {
		t.Fatalf("expected SurfaceData, got %T", g.Lookup("dome").Data)
	}
	if sd.Segments != [2]int{3, 2} || sd.Bulge != 0.5 || !sd.Rational {
		t.Errorf("unexpected surface %+v", sd)
	}
	if sd.Refine != [2]int{6, 8} {
		t.Errorf("refine = %v", sd.Refine)
	}
}

func TestCurve(t *testing.T) {
	g := mustEval(t, `
(defprim "arc" (curve :degree 2
                      :points (list (vec3 1 0 0) (vec3 1 1 0) (vec3 0 1 0))
                      :weights (list 1 0.7071 1)
                      :knots (list 0 0 0 1 1 1)
                      :refine 32))
`)
	cd, ok := g.Lookup("arc").Data.(graph.CurveData)
	if !ok {
		t.Fatalf("expected CurveData, got %T", g.Lookup("arc").Data)
	}
	if cd.Degree != 2 || len(cd.Points) != 3 || len(cd.Weights) != 3 || len(cd.Knots) != 6 {
		t.Errorf("unexpected curve %+v", cd)
	}
	if cd.Points[1] != (graph.Vec3{X: 1, Y: 1}) {
		t.Errorf("points[1] = %+v", cd.Points[1])
	}
	if cd.Refine != 32 {
		t.Errorf("refine = %d", cd.Refine)
	}
}

func TestVariableReference(t *testing.T) {
	g := mustEval(t, `
(def w 6)
(def half (/ w 2))
(defprim "slab" (volume :degree 1 :size (vec3 w half 1)))
`)
	vd := g.Lookup("slab").Data.(graph.VolumeData)
	if vd.Size.X != 6 || vd.Size.Y != 3 {
		t.Errorf("size = %+v, want 6x3", vd.Size)
	}
}

func TestVec3(t *testing.T) {
	g := mustEval(t, `(defprim "v" (volume :degree 1 :size (vec3 1.5 2 1)))`)
	if g.Lookup("v").Data.(graph.VolumeData).Size.X != 1.5 {
		t.Error("float component lost")
	}

	errs := evalErrors(t, `(vec3 1 2)`)
	if !strings.Contains(errs[0].Message, "vec3") {
		t.Errorf("error should name vec3, got %q", errs[0].Message)
	}
}

// ---------------------------------------------------------------------------
// Placement and grouping
// ---------------------------------------------------------------------------

func TestGroupWithPlacement(t *testing.T) {
	g := mustEval(t, `
(defprim "block" (volume :degree 1 :size (vec3 1 1 1)))
(group "pair"
  (place (prim "block") :at (vec3 0 0 0) :rotate (vec3 0 0 90))
  (place (prim "block") :at (vec3 2 0 0)))
`)
	if g.NodeCount() != 4 {
		t.Fatalf("expected 4 nodes (1 prim + 2 place + 1 group), got %d", g.NodeCount())
	}
	grp := g.Lookup("pair")
	if grp == nil || grp.Kind != graph.NodeGroup {
		t.Fatal("group node missing")
	}
	if len(g.Roots) != 1 || g.Roots[0] != grp.ID {
		t.Fatalf("group should be the only root, roots = %d", len(g.Roots))
	}
	if len(grp.Children) != 2 || grp.Children[0] == grp.Children[1] {
		t.Fatal("each placement of a reused primitive needs its own node")
	}

	first := g.Get(grp.Children[0])
	td := first.Data.(graph.TransformData)
	if td.Rotation == nil || td.Rotation.Z != 90 {
		t.Errorf("rotation = %+v", td.Rotation)
	}
	second := g.Get(grp.Children[1]).Data.(graph.TransformData)
	if second.Translation == nil || second.Translation.X != 2 || second.Rotation != nil {
		t.Errorf("second placement = %+v", second)
	}
	if first.Children[0] != g.Lookup("block").ID {
		t.Error("placement does not wrap the primitive")
	}
}

func TestLooseNodesBecomeRoots(t *testing.T) {
	g := mustEval(t, `
(defprim "a" (volume :degree 1))
(defprim "b" (surface :degree 1))
(place (prim "a") :at (vec3 0 0 3))
`)
	// "a" is referenced by the placement; "b" and the placement are loose.
	if len(g.Roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(g.Roots))
	}
	if g.Roots[0] != g.Lookup("b").ID {
		t.Error("roots should follow creation order")
	}
	if g.Get(g.Roots[1]).Kind != graph.NodeTransform {
		t.Error("second root should be the placement")
	}
}

func TestEvaluateIDsAreStable(t *testing.T) {
	source := `
(defprim "a" (volume :degree 1))
(group "g" (place (prim "a") :at (vec3 1 0 0)) (place (prim "a") :at (vec3 2 0 0)))
`
	g1 := mustEval(t, source)
	g2 := mustEval(t, source)
	if len(g1.Nodes) != len(g2.Nodes) {
		t.Fatal("node counts differ")
	}
	for id := range g1.Nodes {
		if g2.Get(id) == nil {
			t.Errorf("node %s missing from second evaluation", id.Short())
		}
	}
}

func TestPlaceWithoutOffsetWarns(t *testing.T) {
	res, err := NewEngine().EvaluateResult(`
(defprim "a" (volume :degree 1))
(place (prim "a"))
`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected eval errors: %v", res.Errors)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a warning for an identity placement")
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestPrimLookupError(t *testing.T) {
	errs := evalErrors(t, `(place (prim "missing") :at (vec3 0 0 0))`)
	if !strings.Contains(errs[0].Message, "missing") {
		t.Errorf("error should name the missing primitive, got %q", errs[0].Message)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"unknown keyword", `(volume :degree 1 :colour 3)`, "unknown keyword :colour"},
		{"curve without points", `(curve :degree 2)`, "requires :points"},
		{"segments arity", `(volume :segments (list 1 2))`, "expected 3 integers"},
		{"defprim body", `(defprim "x" 5)`, "expected curve, surface or volume"},
		{"duplicate name", `(defprim "x" (volume)) (defprim "x" (volume))`, "already defined"},
		{"group child", `(group "g" 3)`, "expected node reference"},
		{"place target", `(place (vec3 0 0 0))`, "expected node reference"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := evalErrors(t, tt.source)
			if !strings.Contains(errs[0].Message, tt.want) {
				t.Errorf("message = %q, want containing %q", errs[0].Message, tt.want)
			}
		})
	}
}

func TestValidationErrorsReported(t *testing.T) {
	errs := evalErrors(t, `(defprim "thin" (volume :degree 1 :size (vec3 1 0 1)))`)
	if !strings.Contains(errs[0].Message, "must be positive") {
		t.Errorf("message = %q", errs[0].Message)
	}

	errs = evalErrors(t, `(defprim "short" (curve :degree 3 :points (list (vec3 0 0 0) (vec3 1 0 0))))`)
	if !strings.Contains(errs[0].Message, "needs at least 4 points") {
		t.Errorf("message = %q", errs[0].Message)
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	g := mustEval(t, "(def x (* 6 7))")
	if g.NodeCount() != 0 {
		t.Errorf("plain Lisp should create no nodes, got %d", g.NodeCount())
	}
}
