package graph

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// CurveData is a NURBS curve given by its control polygon. Nil knots mean
// a clamped uniform knot vector; nil weights a polynomial curve.
type CurveData struct {
	Degree  int       `json:"degree"`
	Points  []Vec3    `json:"points"`
	Weights []float64 `json:"weights,omitempty"`
	Knots   []float64 `json:"knots,omitempty"`
	Refine  int       `json:"refine,omitempty"` // 0 = refinement rule
}

func (CurveData) nodeData() {}

// SurfaceData is a rectangular sheet of Segments knot spans per axis,
// Size.X by Size.Y, optionally domed by Bulge along +Z.
type SurfaceData struct {
	Degree   int     `json:"degree"`
	Segments [2]int  `json:"segments"`
	Size     Vec3    `json:"size"`
	Bulge    float64 `json:"bulge,omitempty"`
	Rational bool    `json:"rational,omitempty"`
	Refine   [2]int  `json:"refine,omitempty"`
}

func (SurfaceData) nodeData() {}

// VolumeData is a box-shaped trivariate spline of Segments knot spans per
// axis.
type VolumeData struct {
	Degree   int    `json:"degree"`
	Segments [3]int `json:"segments"`
	Size     Vec3   `json:"size"`
	Refine   [3]int `json:"refine,omitempty"`
}

func (VolumeData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData represents a spatial transformation applied to a child node.
// Created by the (place ...) Lisp form.
type TransformData struct {
	Translation *Vec3 `json:"translation,omitempty"`
	Rotation    *Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData represents a logical grouping of primitives.
// Created by the (group ...) Lisp form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
