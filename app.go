package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/chazu/knotview/pkg/bounds"
	"github.com/chazu/knotview/pkg/config"
	"github.com/chazu/knotview/pkg/engine"
	"github.com/chazu/knotview/pkg/gpu"
	"github.com/chazu/knotview/pkg/kernel"
	"github.com/chazu/knotview/pkg/scene"
	"github.com/chazu/knotview/pkg/selection"
	"github.com/chazu/knotview/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to objects.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
//
// The scene lives for the whole app. The frontend owns the WebGL context,
// so frames are drawn into a recording device and the draw list, together
// with any buffers created since the last frame, is shipped back for replay.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	engine *engine.Engine
	scene  *scene.Scene

	frameMu sync.Mutex // serializes Frame; the recorder is the render thread
	device  *gpu.Recorder
	sent    gpu.Buffer
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	*kernel.Mesh
	Object string `json:"object"`
	Kind   string `json:"kind"`
	Color  string `json:"color"`
	Picks  [2]int `json:"picks"` // pick key range [min, max)
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// BufferData is one device buffer the frontend has not seen yet.
type BufferData struct {
	ID    gpu.Buffer `json:"id"`
	Index bool       `json:"index"`
	Data  []byte     `json:"data"`
}

// DrawCall is a recorded draw with its topology and index type spelled
// out for WebGL.
type DrawCall struct {
	gpu.Call
	Mode  string `json:"mode"`  // triangles, lines or points
	Index string `json:"index"` // uint16 or uint32
}

func indexType(c gpu.Call) string {
	if c.Format == gpu.Uint16 {
		return "uint16"
	}
	return "uint32"
}

func drawMode(c gpu.Call) string {
	switch c.Topology {
	case gpu.Lines:
		return "lines"
	case gpu.Points:
		return "points"
	}
	return "triangles"
}

// FrameData is one recorded frame. Released buffers are no longer used
// and can be deleted by the frontend.
type FrameData struct {
	Buffers  []BufferData `json:"buffers"`
	Released []gpu.Buffer `json:"released"`
	Calls    []DrawCall   `json:"calls"`
	Error    string       `json:"error,omitempty"`
}

// PickRequest carries the picking pass read back by the frontend.
type PickRequest struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Pixels []byte `json:"pixels"` // RGBA, row-major, top row first
	X0     int    `json:"x0"`
	Y0     int    `json:"y0"`
	X1     int    `json:"x1"`
	Y1     int    `json:"y1"`
	Select bool   `json:"select"`
}

// NewApp creates a new App with the default configuration.
func NewApp() *App {
	return NewAppWithConfig(config.Default())
}

// NewAppWithConfig creates an App and starts its scene.
func NewAppWithConfig(cfg *config.Config) *App {
	ctx, cancel := context.WithCancel(context.Background())
	s := scene.New(cfg.SceneOptions())
	s.SetLogger(log.Default())
	go func() {
		if err := s.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("scene stopped: %v", err)
		}
	}()
	return &App{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		engine: cfg.NewEngine(),
		scene:  s,
		device: gpu.NewRecorder(),
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// shutdown stops the scene owner.
func (a *App) shutdown(ctx context.Context) {
	a.cancel()
}

// Evaluate takes Lisp source, replaces the scene with its primitives and
// returns their meshes. This is the primary binding called by the editor.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
	fail := func(msg string) EvalResult {
		result.Errors = append(result.Errors, EvalErrorData{Message: msg})
		return result
	}

	// Step 1: Evaluate the Lisp source into a design graph.
	res, err := a.engine.EvaluateResult(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		return fail(err.Error())
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message})
	}

	// Step 2: Convert eval errors to the frontend format.
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 3: Flatten the graph and tessellate into the scene.
	parts, err := tessellate.Parts(res.Graph)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		return fail("tessellation failed: " + err.Error())
	}
	if err := a.scene.Clear(a.ctx); err != nil {
		return fail(err.Error())
	}
	objs, err := a.scene.Add(a.ctx, parts...)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		return fail("tessellation failed: " + err.Error())
	}

	// Step 4: Convert scene objects to the frontend MeshData format.
	for i, o := range objs {
		r := o.Colors()
		result.Meshes = append(result.Meshes, MeshData{
			Mesh:   o.Geometry().Mesh(),
			Object: o.ID().String(),
			Kind:   o.Geometry().Kind().String(),
			Color:  colorPalette[i%len(colorPalette)],
			Picks:  [2]int{int(r.Min), int(r.Max)},
		})
	}
	return result
}

// SetGranularity switches the selection mode: patch, face, edge or point.
func (a *App) SetGranularity(mode string, conjunction bool) error {
	g, err := selection.ParseGranularity(mode)
	if err != nil {
		return err
	}
	return a.scene.SetGranularity(a.ctx, g, conjunction)
}

// Select selects (on) or deselects ids of one object at a granularity.
// Patch ignores ids.
func (a *App) Select(object, granularity string, ids []int, on bool) error {
	id, g, err := parseTarget(object, granularity)
	if err != nil {
		return err
	}
	switch g {
	case selection.Face:
		return a.scene.SelectFaces(a.ctx, id, on, ids...)
	case selection.Edge:
		return a.scene.SelectEdges(a.ctx, id, on, ids...)
	case selection.Point:
		return a.scene.SelectPoints(a.ctx, id, on, ids...)
	}
	return a.scene.SelectObject(a.ctx, id, on)
}

// SelectAll selects or clears every object.
func (a *App) SelectAll(on bool) error {
	return a.scene.SelectAll(a.ctx, on)
}

// SetVisible shows or hides ids of one object at a granularity.
func (a *App) SetVisible(object, granularity string, ids []int, on bool) error {
	id, g, err := parseTarget(object, granularity)
	if err != nil {
		return err
	}
	return a.scene.SetVisible(a.ctx, id, g, on, ids...)
}

func parseTarget(object, granularity string) (uuid.UUID, selection.Granularity, error) {
	id, err := uuid.Parse(object)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("object id: %w", err)
	}
	g, err := selection.ParseGranularity(granularity)
	if err != nil {
		return uuid.Nil, 0, err
	}
	return id, g, nil
}

// Pick applies a picking readback and reports what changed.
func (a *App) Pick(req PickRequest) ([]scene.Hit, error) {
	if req.Width <= 0 || req.Height <= 0 || len(req.Pixels) != 4*req.Width*req.Height {
		return nil, fmt.Errorf("pick: %d bytes for a %dx%d image", len(req.Pixels), req.Width, req.Height)
	}
	img := &image.RGBA{
		Pix:    req.Pixels,
		Stride: 4 * req.Width,
		Rect:   image.Rect(0, 0, req.Width, req.Height),
	}
	rect := image.Rect(req.X0, req.Y0, req.X1, req.Y1)
	hits, err := a.scene.Pick(a.ctx, img, rect, req.Select)
	if hits == nil {
		hits = []scene.Hit{}
	}
	return hits, err
}

// Frame draws the scene, or its picking pass, with the given column-major
// model-view-projection matrix.
func (a *App) Frame(mvp [16]float32, picking bool) FrameData {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	a.device.Reset()
	err := a.scene.Frame(a.device, mvp, picking)
	out := FrameData{
		Calls: lo.Map(a.device.Calls(), func(c gpu.Call, _ int) DrawCall {
			return DrawCall{Call: c, Mode: drawMode(c), Index: indexType(c)}
		}),
		Buffers:  []BufferData{},
		Released: []gpu.Buffer{},
	}
	if err != nil {
		log.Printf("Frame error: %v", err)
		out.Error = err.Error()
	}
	// Buffers created and released between two frames are never shipped.
	out.Released = append(out.Released, lo.Filter(a.device.TakeReleased(), func(b gpu.Buffer, _ int) bool {
		return b <= a.sent
	})...)
	for b := a.sent + 1; int(b) <= a.device.Buffers(); b++ {
		a.sent = b
		if !a.device.Has(b) {
			continue
		}
		out.Buffers = append(out.Buffers, BufferData{
			ID:    b,
			Index: a.device.Usage(b) == gpu.IndexUsage,
			Data:  a.device.Data(b),
		})
	}
	return out
}

// Bounds returns a sphere around the visible objects, or the selected ones.
func (a *App) Bounds(selectedOnly bool) bounds.Sphere {
	return a.scene.Bounds(selectedOnly)
}

// Objects lists the ids of the objects on display, in pick order.
func (a *App) Objects() []string {
	return lo.Map(a.scene.Snapshot().Views, func(v scene.View, _ int) string {
		return v.Object.ID().String()
	})
}
