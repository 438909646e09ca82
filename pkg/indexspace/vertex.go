package indexspace

// slabSizes returns the number of vertices each slab side owns.
func (l Layout) slabSizes() (uv, uw, vw int) {
	nu, nv, nw := l.N[0], l.N[1], l.N[2]
	uv = (nu + 1) * (nv + 1)
	uw = (nu + 1) * (nw - 1)
	vw = (nv - 1) * (nw - 1)
	return uv, uw, vw
}

// VertexCount is the number of rendering grid vertices.
func (l Layout) VertexCount() int {
	switch l.Kind {
	case Curve:
		return l.N[0] + 1
	case Surface:
		return (l.N[0] + 1) * (l.N[1] + 1)
	}
	uv, uw, vw := l.slabSizes()
	return 2 * (uv + uw + vw)
}

// VertexOffsets returns the start of the vertex range each face owns, with
// the total as the last entry.
func (l Layout) VertexOffsets() []int {
	if l.Kind != Volume {
		return []int{0, l.VertexCount()}
	}
	uv, uw, vw := l.slabSizes()
	return cumulative([]int{uv, uv, uw, uw, vw, vw})
}

// Vertex maps slab coordinates (i along the slab's first axis, j along its
// second, both over the full closed range) to a vertex index. Boundary rows
// of the UW and VW slabs are redirected to the slab that owns them.
//
// Surfaces ignore slab and side. Curves also ignore j.
func (l Layout) Vertex(s Slab, side Side, i, j int) int {
	switch l.Kind {
	case Curve:
		return i
	case Surface:
		return i*(l.N[1]+1) + j
	}

	nu, nv, nw := l.N[0], l.N[1], l.N[2]
	uv, uw, vw := l.slabSizes()

	switch s {
	case SlabUV:
		return int(side)*uv + i*(nv+1) + j
	case SlabUW:
		// i along u, j along w
		jv := 0
		if side == Max {
			jv = nv
		}
		switch j {
		case 0:
			return l.Vertex(SlabUV, Min, i, jv)
		case nw:
			return l.Vertex(SlabUV, Max, i, jv)
		}
		return 2*uv + int(side)*uw + i*(nw-1) + (j - 1)
	default:
		// i along v, j along w
		iu := 0
		if side == Max {
			iu = nu
		}
		switch {
		case j == 0:
			return l.Vertex(SlabUV, Min, iu, i)
		case j == nw:
			return l.Vertex(SlabUV, Max, iu, i)
		case i == 0:
			return l.Vertex(SlabUW, Min, iu, j)
		case i == nv:
			return l.Vertex(SlabUW, Max, iu, j)
		}
		return 2*uv + 2*uw + int(side)*vw + (i-1)*(nw-1) + (j - 1)
	}
}

// Owned reports whether slab coordinate (i, j) has its own offset rather
// than being an alias of another slab's vertex.
func (l Layout) Owned(s Slab, i, j int) bool {
	if l.Kind != Volume {
		return true
	}
	nv, nw := l.N[1], l.N[2]
	switch s {
	case SlabUW:
		return j > 0 && j < nw
	case SlabVW:
		return i > 0 && i < nv && j > 0 && j < nw
	}
	return true
}

// At maps a rendering grid coordinate on the primitive's boundary to a
// vertex index. For volumes at least one coordinate must lie on a side.
func (l Layout) At(iu, iv, iw int) int {
	switch l.Kind {
	case Curve:
		return iu
	case Surface:
		return l.Vertex(SlabUV, Min, iu, iv)
	}
	nu, nv, nw := l.N[0], l.N[1], l.N[2]
	switch {
	case iw == 0:
		return l.Vertex(SlabUV, Min, iu, iv)
	case iw == nw:
		return l.Vertex(SlabUV, Max, iu, iv)
	case iv == 0:
		return l.Vertex(SlabUW, Min, iu, iw)
	case iv == nv:
		return l.Vertex(SlabUW, Max, iu, iw)
	case iu == 0:
		return l.Vertex(SlabVW, Min, iv, iw)
	case iu == nu:
		return l.Vertex(SlabVW, Max, iv, iw)
	}
	return -1
}

// OutwardFlip reports whether a face's first-derivative order must be
// reversed for its normal (and its quad winding) to point out of a
// right-handed volume.
func OutwardFlip(s Slab, side Side) bool {
	// du x dw points toward -v, so the UW slab flips on its maximum side.
	if s == SlabUW {
		return side == Max
	}
	return side == Min
}
