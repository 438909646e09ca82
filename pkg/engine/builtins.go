package engine

import (
	"fmt"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/knotview/pkg/graph"
)

// builder collects the nodes one evaluation creates. order records
// creation order so roots can be promoted deterministically.
type builder struct {
	g     *graph.DesignGraph
	seq   int
	order []graph.NodeID
}

func newBuilder() *builder {
	return &builder{g: graph.New()}
}

func (b *builder) add(n *graph.Node) {
	if b.g.Get(n.ID) == nil {
		b.order = append(b.order, n.ID)
	}
	b.g.AddNode(n)
}

// anon returns a creation path unique within this evaluation.
func (b *builder) anon(prefix, label string) string {
	b.seq++
	return fmt.Sprintf("%s/%s/%d", prefix, label, b.seq)
}

// promoteRoots makes every node nothing else references a root, in the
// order the script created them.
func (b *builder) promoteRoots() {
	free := make(map[graph.NodeID]bool)
	for _, id := range b.g.Unreferenced() {
		free[id] = true
	}
	for _, id := range b.order {
		if free[id] {
			b.g.AddRoot(id)
		}
	}
}

// registerBuiltins installs the scene DSL into env. Source must go through
// preprocessSource first so keywords arrive as marked strings.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	g := b.g

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: graph.Vec3{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (curve :degree 3 :points (list (vec3 ...) ...) :weights (list ...)
	//        :knots (list ...) :refine 64)
	// -----------------------------------------------------------------------
	env.AddFunction("curve", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.check(name, "degree", "points", "weights", "knots", "refine"); err != nil {
			return zygo.SexpNull, err
		}
		cd := graph.CurveData{Degree: 3}
		var err error
		if v, ok := pa.kw["degree"]; ok {
			if cd.Degree, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("curve: degree: %w", err)
			}
		}
		v, ok := pa.kw["points"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("curve requires :points")
		}
		if cd.Points, err = listOf(v, toVec3); err != nil {
			return zygo.SexpNull, fmt.Errorf("curve: points: %w", err)
		}
		if v, ok := pa.kw["weights"]; ok {
			if cd.Weights, err = listOf(v, toFloat64); err != nil {
				return zygo.SexpNull, fmt.Errorf("curve: weights: %w", err)
			}
		}
		if v, ok := pa.kw["knots"]; ok {
			if cd.Knots, err = listOf(v, toFloat64); err != nil {
				return zygo.SexpNull, fmt.Errorf("curve: knots: %w", err)
			}
		}
		if v, ok := pa.kw["refine"]; ok {
			if cd.Refine, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("curve: refine: %w", err)
			}
		}
		return &sexpPrim{data: cd}, nil
	})

	// -----------------------------------------------------------------------
	// (surface :degree 2 :segments (list 3 2) :size (vec3 4 2 0)
	//          :bulge 0.5 :rational true :refine 8)
	// -----------------------------------------------------------------------
	env.AddFunction("surface", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.check(name, "degree", "segments", "size", "bulge", "rational", "refine"); err != nil {
			return zygo.SexpNull, err
		}
		sd := graph.SurfaceData{Degree: 3, Segments: [2]int{1, 1}, Size: graph.Vec3{X: 1, Y: 1}}
		var err error
		if v, ok := pa.kw["degree"]; ok {
			if sd.Degree, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("surface: degree: %w", err)
			}
		}
		if v, ok := pa.kw["segments"]; ok {
			segs, err := intsN(v, 2)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface: segments: %w", err)
			}
			sd.Segments = [2]int{segs[0], segs[1]}
		}
		if v, ok := pa.kw["size"]; ok {
			if sd.Size, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("surface: size: %w", err)
			}
		}
		if v, ok := pa.kw["bulge"]; ok {
			if sd.Bulge, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("surface: bulge: %w", err)
			}
		}
		if v, ok := pa.kw["rational"]; ok {
			if sd.Rational, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("surface: rational: %w", err)
			}
		}
		if v, ok := pa.kw["refine"]; ok {
			r, err := refineArg(v, 2)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("surface: refine: %w", err)
			}
			sd.Refine = [2]int{r[0], r[1]}
		}
		return &sexpPrim{data: sd}, nil
	})

	// -----------------------------------------------------------------------
	// (volume :degree 2 :segments (list 3 4 5) :size (vec3 3 4 5) :refine 2)
	// -----------------------------------------------------------------------
	env.AddFunction("volume", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.check(name, "degree", "segments", "size", "refine"); err != nil {
			return zygo.SexpNull, err
		}
		vd := graph.VolumeData{Degree: 3, Segments: [3]int{1, 1, 1}, Size: graph.Vec3{X: 1, Y: 1, Z: 1}}
		var err error
		if v, ok := pa.kw["degree"]; ok {
			if vd.Degree, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("volume: degree: %w", err)
			}
		}
		if v, ok := pa.kw["segments"]; ok {
			if vd.Segments, err = intsN(v, 3); err != nil {
				return zygo.SexpNull, fmt.Errorf("volume: segments: %w", err)
			}
		}
		if v, ok := pa.kw["size"]; ok {
			if vd.Size, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("volume: size: %w", err)
			}
		}
		if v, ok := pa.kw["refine"]; ok {
			if vd.Refine, err = refineArg(v, 3); err != nil {
				return zygo.SexpNull, fmt.Errorf("volume: refine: %w", err)
			}
		}
		return &sexpPrim{data: vd}, nil
	})

	// -----------------------------------------------------------------------
	// (defprim "name" (volume ...))
	// -----------------------------------------------------------------------
	env.AddFunction("defprim", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("defprim requires a name and a primitive expression")
		}
		primName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defprim: name: %w", err)
		}
		if primName == "" {
			return zygo.SexpNull, fmt.Errorf("defprim: name must not be empty")
		}
		if g.Lookup(primName) != nil {
			return zygo.SexpNull, fmt.Errorf("defprim: %q is already defined", primName)
		}
		body, ok := args[1].(*sexpPrim)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("defprim: expected curve, surface or volume, got %T (%s)",
				args[1], args[1].SexpString(nil))
		}

		id := graph.NewNodeID("defprim/" + primName)
		b.add(&graph.Node{
			ID:   id,
			Kind: graph.NodePrimitive,
			Name: primName,
			Data: body.data,
		})
		return &sexpNodeRef{id: id, name: primName}, nil
	})

	// -----------------------------------------------------------------------
	// (prim "name")
	// -----------------------------------------------------------------------
	env.AddFunction("prim", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("prim requires a name argument")
		}
		primName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("prim: name: %w", err)
		}
		n := g.Lookup(primName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("prim: no primitive named %q", primName)
		}
		return &sexpNodeRef{id: n.ID, name: primName}, nil
	})

	// -----------------------------------------------------------------------
	// (place (prim "lid") :at (vec3 0 0 2) :rotate (vec3 0 0 90))
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.check(name, "at", "rotate"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("place requires exactly one node reference")
		}
		childID, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}

		td := graph.TransformData{}
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			td.Translation = &vec
		}
		if v, ok := pa.kw["rotate"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
			}
			td.Rotation = &vec
		}

		label := "?"
		if child := g.Get(childID); child != nil {
			label = child.Label()
		}
		id := graph.NewNodeID(b.anon("place", label))
		b.add(&graph.Node{
			ID:       id,
			Kind:     graph.NodeTransform,
			Children: []graph.NodeID{childID},
			Data:     td,
		})
		return &sexpNodeRef{id: id}, nil
	})

	// -----------------------------------------------------------------------
	// (group "name" (place ...) (prim ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("group requires a name argument")
		}
		groupName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: name: %w", err)
		}
		if g.Lookup(groupName) != nil {
			return zygo.SexpNull, fmt.Errorf("group: %q is already defined", groupName)
		}

		children := make([]graph.NodeID, 0, len(args)-1)
		for i, a := range args[1:] {
			ref, ok := a.(*sexpNodeRef)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("group: child %d: expected node reference, got %T (%s)",
					i+1, a, a.SexpString(nil))
			}
			children = append(children, ref.id)
		}

		id := graph.NewNodeID("group/" + groupName)
		b.add(&graph.Node{
			ID:       id,
			Kind:     graph.NodeGroup,
			Name:     groupName,
			Children: children,
			Data:     graph.GroupData{},
		})
		g.AddRoot(id)
		return &sexpNodeRef{id: id, name: groupName}, nil
	})
}

// refineArg accepts a single count applied to every axis or a list of n.
func refineArg(s zygo.Sexp, n int) ([3]int, error) {
	if v, err := toInt(s); err == nil {
		var out [3]int
		for i := 0; i < n; i++ {
			out[i] = v
		}
		return out, nil
	}
	return intsN(s, n)
}
