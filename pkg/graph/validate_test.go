package graph

import (
	"math"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// buildValidScene creates a valid scene: a volume and a placed surface
// under a group root.
func buildValidScene() *DesignGraph {
	g := New()

	blockID := NewNodeID("defprim/block")
	sheetID := NewNodeID("defprim/sheet")
	placeID := NewNodeID("place/sheet")
	groupID := NewNodeID("group/scene")

	g.AddNode(&Node{
		ID: blockID, Kind: NodePrimitive, Name: "block",
		Data: VolumeData{Degree: 2, Segments: [3]int{3, 4, 5}, Size: Vec3{3, 4, 5}},
	})
	g.AddNode(&Node{
		ID: sheetID, Kind: NodePrimitive, Name: "sheet",
		Data: SurfaceData{Degree: 3, Segments: [2]int{2, 2}, Size: Vec3{2, 2, 0}, Bulge: 0.5, Rational: true},
	})
	at := Vec3{0, 0, 4}
	g.AddNode(&Node{
		ID: placeID, Kind: NodeTransform,
		Children: []NodeID{sheetID},
		Data:     TransformData{Translation: &at},
	})
	g.AddNode(&Node{
		ID:       groupID,
		Kind:     NodeGroup,
		Name:     "scene",
		Children: []NodeID{blockID, placeID},
		Data:     GroupData{Description: "block with lid"},
	})
	g.AddRoot(groupID)

	return g
}

// hasError returns true if errs contains at least one error-severity finding
// whose message contains substr.
func hasError(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// hasWarning returns true if errs contains at least one warning-severity
// finding whose message contains substr.
func hasWarning(errs []ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == SeverityWarning && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// errorCount returns the number of error-severity findings.
func errorCount(errs []ValidationError) int {
	n := 0
	for _, e := range errs {
		if e.Severity == SeverityError {
			n++
		}
	}
	return n
}

// primitiveGraph wraps a single primitive in a rooted graph.
func primitiveGraph(data NodeData) *DesignGraph {
	g := New()
	id := NewNodeID("defprim/p")
	g.AddNode(&Node{ID: id, Kind: NodePrimitive, Name: "p", Data: data})
	g.AddRoot(id)
	return g
}

func logAll(t *testing.T, errs []ValidationError) {
	t.Helper()
	for _, e := range errs {
		t.Logf("  %s", e)
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestValidate_ValidGraph(t *testing.T) {
	errs := Validate(buildValidScene())
	for _, e := range errs {
		t.Errorf("unexpected validation finding: %s", e)
	}
}

func TestValidate_EmptyGraph(t *testing.T) {
	errs := Validate(New())
	for _, e := range errs {
		t.Errorf("unexpected validation error on empty graph: %s", e)
	}
}

func TestValidate_CycleDetection(t *testing.T) {
	g := New()

	aID := NewNodeID("a")
	bID := NewNodeID("b")
	cID := NewNodeID("c")

	// a -> b -> c -> a
	g.AddNode(&Node{ID: aID, Kind: NodeGroup, Name: "a", Children: []NodeID{bID}, Data: GroupData{}})
	g.AddNode(&Node{ID: bID, Kind: NodeGroup, Name: "b", Children: []NodeID{cID}, Data: GroupData{}})
	g.AddNode(&Node{ID: cID, Kind: NodeGroup, Name: "c", Children: []NodeID{aID}, Data: GroupData{}})
	g.AddRoot(aID)

	errs := Validate(g)
	if !hasError(errs, "cycle") {
		t.Error("expected cycle detection error, got none")
		logAll(t, errs)
	}
}

func TestValidate_DanglingReference(t *testing.T) {
	g := New()

	parentID := NewNodeID("parent")
	g.AddNode(&Node{
		ID: parentID, Kind: NodeGroup, Name: "parent",
		Children: []NodeID{NewNodeID("missing-child")},
		Data:     GroupData{},
	})
	g.AddRoot(parentID)

	errs := Validate(g)
	if !hasError(errs, "does not exist") {
		t.Error("expected dangling reference error, got none")
		logAll(t, errs)
	}
}

func TestValidate_DuplicateName(t *testing.T) {
	g := buildValidScene()
	dup := NewNodeID("defprim/block-2")
	g.Nodes[dup] = &Node{
		ID: dup, Kind: NodePrimitive, Name: "block",
		Data: VolumeData{Degree: 1, Segments: [3]int{1, 1, 1}, Size: Vec3{1, 1, 1}},
	}
	group := g.Lookup("scene")
	group.Children = append(group.Children, dup)

	if errs := Validate(g); !hasError(errs, "duplicate name") {
		t.Error("expected duplicate name error")
		logAll(t, errs)
	}
}

func TestValidate_OrphanNode(t *testing.T) {
	g := buildValidScene()
	orphanID := NewNodeID("defprim/orphan")
	g.AddNode(&Node{
		ID: orphanID, Kind: NodePrimitive, Name: "orphan",
		Data: CurveData{Degree: 1, Points: []Vec3{{0, 0, 0}, {1, 1, 1}}},
	})

	errs := Validate(g)
	if !hasWarning(errs, "orphan") {
		t.Error("expected orphan warning, got none")
		logAll(t, errs)
	}
	if errorCount(errs) != 0 {
		t.Errorf("expected 0 errors for orphan-only graph, got %d", errorCount(errs))
		logAll(t, errs)
	}
}

func TestValidate_NameIndexPointsToMissingNode(t *testing.T) {
	g := buildValidScene()
	g.NameIndex["ghost"] = NewNodeID("ghost")
	if errs := Validate(g); !hasError(errs, "non-existent node") {
		t.Error("expected name index error")
		logAll(t, errs)
	}
}

func TestValidate_RootReferencesNonExistentNode(t *testing.T) {
	g := New()
	g.AddRoot(NewNodeID("nowhere"))
	if errs := Validate(g); !hasError(errs, "root reference") {
		t.Error("expected root reference error")
		logAll(t, errs)
	}
}

func TestValidate_Primitives(t *testing.T) {
	tests := []struct {
		name string
		data NodeData
		want string // "" = valid
	}{
		{"curve ok", CurveData{Degree: 2, Points: []Vec3{{}, {X: 1}, {X: 2}}}, ""},
		{"curve degree", CurveData{Degree: 0, Points: []Vec3{{}, {X: 1}}}, "curve degree"},
		{"curve too few points", CurveData{Degree: 3, Points: []Vec3{{}, {X: 1}}}, "needs at least 4 points"},
		{"curve knot count", CurveData{Degree: 1, Points: []Vec3{{}, {X: 1}}, Knots: []float64{0, 1}}, "knots, want 4"},
		{"curve knots decrease", CurveData{Degree: 1, Points: []Vec3{{}, {X: 1}}, Knots: []float64{0, 1, 0.5, 1}}, "non-decreasing"},
		{"curve weight count", CurveData{Degree: 1, Points: []Vec3{{}, {X: 1}}, Weights: []float64{1}}, "weights for 2 points"},
		{"curve weight sign", CurveData{Degree: 1, Points: []Vec3{{}, {X: 1}}, Weights: []float64{1, -1}}, "must be positive"},
		{"curve weight nan", CurveData{Degree: 1, Points: []Vec3{{}, {X: 1}}, Weights: []float64{1, math.NaN()}}, "must be positive"},
		{"curve refine", CurveData{Degree: 1, Points: []Vec3{{}, {X: 1}}, Refine: -2}, "refinement"},
		{"surface ok", SurfaceData{Degree: 2, Segments: [2]int{1, 3}, Size: Vec3{1, 2, 0}}, ""},
		{"surface segments", SurfaceData{Degree: 2, Segments: [2]int{0, 3}, Size: Vec3{1, 2, 0}}, "segments"},
		{"surface size", SurfaceData{Degree: 2, Segments: [2]int{1, 1}, Size: Vec3{0, 2, 0}}, "must be positive"},
		{"surface refine", SurfaceData{Degree: 2, Segments: [2]int{1, 1}, Size: Vec3{1, 1, 0}, Refine: [2]int{0, -1}}, "refinement"},
		{"surface bulge", SurfaceData{Degree: 2, Segments: [2]int{1, 1}, Size: Vec3{1, 1, 0}, Bulge: math.Inf(1)}, "bulge"},
		{"volume ok", VolumeData{Degree: 1, Segments: [3]int{1, 1, 1}, Size: Vec3{1, 1, 1}, Refine: [3]int{2, 0, 1}}, ""},
		{"volume degree", VolumeData{Degree: 0, Segments: [3]int{1, 1, 1}, Size: Vec3{1, 1, 1}}, "volume degree"},
		{"volume size", VolumeData{Degree: 1, Segments: [3]int{1, 1, 1}, Size: Vec3{1, 1, -1}}, "must be positive"},
		{"wrong data", GroupData{}, "unsupported data type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(primitiveGraph(tt.data))
			if tt.want == "" {
				if errorCount(errs) != 0 {
					t.Errorf("expected valid primitive")
					logAll(t, errs)
				}
				return
			}
			if !hasError(errs, tt.want) {
				t.Errorf("expected error containing %q", tt.want)
				logAll(t, errs)
			}
		})
	}
}

func TestValidate_PrimitiveDataOnGroup(t *testing.T) {
	g := New()
	id := NewNodeID("group/odd")
	g.AddNode(&Node{ID: id, Kind: NodeGroup, Data: CurveData{Degree: 1}})
	g.AddRoot(id)
	if errs := Validate(g); !hasError(errs, "carries primitive data") {
		t.Error("expected misplaced primitive data error")
		logAll(t, errs)
	}
}

func TestValidate_Transforms(t *testing.T) {
	g := buildValidScene()
	sheet := g.Lookup("sheet")

	identity := NewNodeID("place/identity")
	g.AddNode(&Node{
		ID: identity, Kind: NodeTransform,
		Children: []NodeID{sheet.ID},
		Data:     TransformData{Rotation: &Vec3{}},
	})
	twoKids := NewNodeID("place/two")
	g.AddNode(&Node{
		ID: twoKids, Kind: NodeTransform,
		Children: []NodeID{sheet.ID, g.Lookup("block").ID},
		Data:     TransformData{Translation: &Vec3{X: 1}},
	})
	wrongData := NewNodeID("place/wrong")
	g.AddNode(&Node{
		ID: wrongData, Kind: NodeTransform,
		Children: []NodeID{sheet.ID},
		Data:     GroupData{},
	})
	scene := g.Lookup("scene")
	scene.Children = append(scene.Children, identity, twoKids, wrongData)

	errs := Validate(g)
	if !hasWarning(errs, "identity") {
		t.Error("expected identity transform warning")
	}
	if !hasError(errs, "want 1") {
		t.Error("expected child count error")
	}
	if !hasError(errs, "unexpected data type") {
		t.Error("expected data type error")
	}
}

func TestValidateAll_Separates(t *testing.T) {
	g := buildValidScene()
	g.AddNode(&Node{
		ID: NewNodeID("defprim/orphan"), Kind: NodePrimitive, Name: "orphan",
		Data: CurveData{Degree: 5, Points: []Vec3{{}, {X: 1}}},
	})
	res := ValidateAll(g)
	if len(res.Errors) != 1 {
		t.Errorf("errors = %d, want 1", len(res.Errors))
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %d, want 1", len(res.Warnings))
	}
}

func TestValidationError_String(t *testing.T) {
	e1 := ValidationError{
		Message:  "test graph error",
		Severity: SeverityError,
	}
	if !strings.Contains(e1.Error(), "error") {
		t.Errorf("expected 'error' in string, got %q", e1.Error())
	}
	if !strings.Contains(e1.Error(), "test graph error") {
		t.Errorf("expected message in string, got %q", e1.Error())
	}

	e2 := ValidationError{
		NodeID:   NewNodeID("test"),
		Message:  "test node warning",
		Severity: SeverityWarning,
	}
	if !strings.Contains(e2.Error(), "warning") {
		t.Errorf("expected 'warning' in string, got %q", e2.Error())
	}
	if !strings.Contains(e2.Error(), "node") {
		t.Errorf("expected 'node' in string, got %q", e2.Error())
	}
}
