package graph

import (
	"encoding/json"
	"testing"
)

func TestNewDesignGraph(t *testing.T) {
	g := New()
	if g.Nodes == nil {
		t.Fatal("Nodes map should be initialized")
	}
	if g.NameIndex == nil {
		t.Fatal("NameIndex map should be initialized")
	}
	if g.NodeCount() != 0 {
		t.Errorf("empty graph should have 0 nodes, got %d", g.NodeCount())
	}
}

func TestAddNodeAndLookup(t *testing.T) {
	g := New()

	id := NewNodeID("defprim/block")
	node := &Node{
		ID:   id,
		Kind: NodePrimitive,
		Name: "block",
		Data: VolumeData{Degree: 2, Segments: [3]int{3, 4, 5}, Size: Vec3{3, 4, 5}},
	}
	g.AddNode(node)
	g.AddRoot(id)
	g.AddRoot(id)

	if g.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", g.NodeCount())
	}

	found := g.Lookup("block")
	if found == nil {
		t.Fatal("Lookup('block') returned nil")
	}
	if found.ID != id {
		t.Errorf("lookup returned wrong node")
	}

	must := g.MustLookup("block")
	if must.ID != id {
		t.Errorf("MustLookup returned wrong node")
	}

	if g.Lookup("nonexistent") != nil {
		t.Error("Lookup should return nil for missing name")
	}

	got := g.Get(id)
	if got == nil || got.Label() != "block" {
		t.Errorf("Get by ID failed")
	}

	if len(g.Roots) != 1 || g.Roots[0] != id {
		t.Errorf("roots = %v, want [%s]", g.Roots, id.Short())
	}
}

func TestMustLookupPanics(t *testing.T) {
	g := New()
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustLookup should panic on missing name")
		}
	}()
	g.MustLookup("missing")
}

func TestPrimitivesAndChildren(t *testing.T) {
	g := New()

	curveID := NewNodeID("defprim/arc")
	sheetID := NewNodeID("defprim/sheet")
	groupID := NewNodeID("group/scene")

	g.AddNode(&Node{
		ID: curveID, Kind: NodePrimitive, Name: "arc",
		Data: CurveData{Degree: 1, Points: []Vec3{{0, 0, 0}, {1, 0, 0}}},
	})
	g.AddNode(&Node{
		ID: sheetID, Kind: NodePrimitive, Name: "sheet",
		Data: SurfaceData{Degree: 2, Segments: [2]int{2, 2}, Size: Vec3{1, 1, 0}},
	})
	g.AddNode(&Node{
		ID: groupID, Kind: NodeGroup, Name: "scene",
		Children: []NodeID{curveID, sheetID, NewNodeID("dangling")},
		Data:     GroupData{},
	})

	if n := len(g.Primitives()); n != 2 {
		t.Errorf("Primitives() count = %d, want 2", n)
	}
	children := g.Children(g.Get(groupID))
	if len(children) != 2 {
		t.Fatalf("Children count = %d, want 2 (dangling skipped)", len(children))
	}
	if children[0].Name != "arc" {
		t.Errorf("first child = %q, want %q", children[0].Name, "arc")
	}

	unref := g.Unreferenced()
	if len(unref) != 1 || unref[0] != groupID {
		t.Errorf("Unreferenced() = %v, want only the group", unref)
	}
}

func TestNodeIDDeterministic(t *testing.T) {
	a := NewNodeID("defprim/front")
	b := NewNodeID("defprim/front")
	if a != b {
		t.Error("same path should produce same NodeID")
	}

	c := NewNodeID("defprim/back")
	if a == c {
		t.Error("different paths should produce different NodeIDs")
	}
}

func TestNodeIDZero(t *testing.T) {
	var id NodeID
	if !id.IsZero() {
		t.Error("zero-value NodeID should be zero")
	}
	id = NewNodeID("something")
	if id.IsZero() {
		t.Error("non-zero NodeID should not be zero")
	}
	if len(id.Short()) != 8 {
		t.Errorf("Short() len = %d, want 8", len(id.Short()))
	}
}

func TestNodeIDText(t *testing.T) {
	id := NewNodeID("defprim/lid")
	b, err := json.Marshal(map[NodeID]int{id: 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[NodeID]int
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[id] != 1 {
		t.Errorf("round trip lost key %s", id.Short())
	}

	var bad NodeID
	if err := bad.UnmarshalText([]byte("abc")); err == nil {
		t.Error("short hex should be rejected")
	}
}

func TestVec3(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	if sum := a.Add(b); sum != (Vec3{5, 7, 9}) {
		t.Errorf("Add = %v, want (5, 7, 9)", sum)
	}
	if v := a.Vec(); v.X != 1 || v.Y != 2 || v.Z != 3 {
		t.Errorf("Vec = %v", v)
	}
	if a.IsZero() || !(Vec3{}).IsZero() {
		t.Error("IsZero mismatch")
	}
}

func TestNodeDataInterface(t *testing.T) {
	// Verify all concrete types implement NodeData at compile time.
	var _ NodeData = CurveData{}
	var _ NodeData = SurfaceData{}
	var _ NodeData = VolumeData{}
	var _ NodeData = TransformData{}
	var _ NodeData = GroupData{}
}

func TestStringers(t *testing.T) {
	if NodePrimitive.String() != "primitive" {
		t.Errorf("NodePrimitive.String() = %q", NodePrimitive.String())
	}
	if NodeGroup.String() != "group" {
		t.Errorf("NodeGroup.String() = %q", NodeGroup.String())
	}
	if NodeKind(99).String() != "unknown" {
		t.Errorf("NodeKind(99).String() = %q", NodeKind(99).String())
	}
	if SeverityWarning.String() != "warning" {
		t.Errorf("SeverityWarning.String() = %q", SeverityWarning.String())
	}
}
