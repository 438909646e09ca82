package scene

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dustin/go-humanize"
	"github.com/gogpu/gputypes"
	"github.com/google/uuid"

	"github.com/chazu/knotview/pkg/gpu"
	"github.com/chazu/knotview/pkg/pick"
	"github.com/chazu/knotview/pkg/selection"
	"github.com/chazu/knotview/pkg/tessellate"
)

var (
	// ErrNotInitialized is reported by WaitInitialized for an object that
	// left the scene before the rendering thread initialized it.
	ErrNotInitialized = errors.New("scene: object not initialized")
	// ErrInitTimeout is returned when GPU initialization does not complete
	// within the configured bound.
	ErrInitTimeout = errors.New("scene: initialization timed out")
	// ErrClosed is returned once the scene owner has stopped.
	ErrClosed = errors.New("scene: closed")
	// ErrUnknownObject is returned for an id the scene does not hold.
	ErrUnknownObject = errors.New("scene: unknown object")
)

// Material colors.
var (
	DefaultColor  = [4]float32{0.72, 0.74, 0.78, 1}
	SelectedColor = [4]float32{1, 0.55, 0.1, 1}
	GridLineColor = [4]float32{0.25, 0.27, 0.3, 1}
	EdgeColor     = [4]float32{0.05, 0.05, 0.05, 1}
	PointColor    = [4]float32{0.1, 0.3, 0.9, 1}
)

// buffers are the GPU handles of an initialized object. Zero means the
// index range was empty and nothing was created.
type buffers struct {
	positions, normals gpu.Buffer
	triangles          gpu.Buffer
	lines, edges       gpu.Buffer
	points             gpu.Buffer
	format             gputypes.IndexFormat
}

func (b buffers) all() []gpu.Buffer {
	return []gpu.Buffer{b.positions, b.normals, b.triangles, b.lines, b.edges, b.points}
}

// Object is one tessellated primitive as held by a Scene. Geometry and pick
// colors are fixed at construction. Selection state is owned by the scene
// goroutine; GPU state by the rendering thread.
type Object struct {
	id     uuid.UUID
	geom   *tessellate.Geometry
	colors pick.Range
	color  [4]float32

	sel *selection.State

	buf         buffers
	once        sync.Once
	initialized atomic.Bool
	initErr     error
	ready       chan struct{}
}

func newObject(geom *tessellate.Geometry, colors pick.Range) *Object {
	return &Object{
		id:     uuid.New(),
		geom:   geom,
		colors: colors,
		color:  DefaultColor,
		sel:    selection.New(geom.Topology),
		ready:  make(chan struct{}),
	}
}

// ID is the stable handle for the object.
func (o *Object) ID() uuid.UUID { return o.id }

// Name is the design node the object came from.
func (o *Object) Name() string { return o.geom.Name }

// Geometry returns the CPU-side tessellation.
func (o *Object) Geometry() *tessellate.Geometry { return o.geom }

// Colors is the pick key range reserved for the object.
func (o *Object) Colors() pick.Range { return o.colors }

// HasColor reports whether a color read back from a picking pass belongs
// to the object.
func (o *Object) HasColor(c pick.Color) bool { return o.colors.Contains(c) }

// BaseColor is the pick color of the object's first primitive.
func (o *Object) BaseColor() pick.Color { return o.colors.Base() }

// Center is the centre of the object's bounding sphere.
func (o *Object) Center() v3.Vec { return o.geom.Sphere.Center }

// Radius is the radius of the object's bounding sphere.
func (o *Object) Radius() float64 { return o.geom.Sphere.Radius }

// Initialized reports whether Initialize has completed successfully.
func (o *Object) Initialized() bool { return o.initialized.Load() }

// WaitInitialized blocks until Initialize has run or ctx is done.
func (o *Object) WaitInitialized(ctx context.Context) error {
	select {
	case <-o.ready:
		return o.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Initialize creates and fills the object's GPU buffers. It must run on
// the rendering thread. Later calls are no-ops returning the first result.
func (o *Object) Initialize(dev gpu.Device, logger *log.Logger) error {
	o.once.Do(func() {
		if err := o.upload(dev, logger); err != nil {
			o.initErr = fmt.Errorf("scene: initializing %q: %w", o.Name(), err)
		} else {
			o.initialized.Store(true)
		}
		close(o.ready)
	})
	return o.WaitInitialized(context.Background())
}

// abandon settles an object that will never be initialized.
func (o *Object) abandon() {
	o.once.Do(func() {
		o.initErr = ErrNotInitialized
		close(o.ready)
	})
}

func (o *Object) upload(dev gpu.Device, logger *log.Logger) error {
	g := o.geom
	total := 0
	create := func(usage gputypes.BufferUsage, data []byte) (gpu.Buffer, error) {
		if len(data) == 0 {
			return 0, nil
		}
		b, err := dev.CreateBuffer(usage, len(data))
		if err != nil {
			return 0, err
		}
		if err := dev.Upload(b, data); err != nil {
			return 0, err
		}
		total += len(data)
		return b, nil
	}

	// Short indices whenever every vertex is addressable with 16 bits.
	o.buf.format = gpu.Uint32
	if len(g.Positions) <= math.MaxUint16+1 {
		o.buf.format = gpu.Uint16
	}
	createIndex := func(idx []uint32) (gpu.Buffer, error) {
		if o.buf.format == gpu.Uint32 {
			return create(gpu.IndexUsage, gpu.Bytes(idx))
		}
		short, err := gpu.Narrow[uint16](idx)
		if err != nil {
			return 0, err
		}
		return create(gpu.IndexUsage, gpu.Bytes(short))
	}

	var err error
	if o.buf.positions, err = create(gpu.VertexUsage, gpu.Bytes(g.VertexData())); err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	if o.buf.normals, err = create(gpu.VertexUsage, gpu.Bytes(g.NormalData())); err != nil {
		return fmt.Errorf("normals: %w", err)
	}
	if o.buf.triangles, err = createIndex(g.Triangles()); err != nil {
		return fmt.Errorf("faces: %w", err)
	}
	if o.buf.lines, err = createIndex(g.Lines.Indices); err != nil {
		return fmt.Errorf("lines: %w", err)
	}
	if o.buf.edges, err = createIndex(g.Edges.Indices); err != nil {
		return fmt.Errorf("edges: %w", err)
	}
	if o.buf.points, err = createIndex(g.Points.Indices); err != nil {
		return fmt.Errorf("points: %w", err)
	}
	logger.Printf("scene: uploaded %s %q: %d vertices, %s", g.Kind(), o.Name(), len(g.Positions), humanize.Bytes(uint64(total)))
	return nil
}

// release frees the object's GPU buffers. Rendering thread only; the
// object must already be settled so Initialize cannot run again.
func (o *Object) release(dev gpu.Device) {
	o.initialized.Store(false)
	for _, b := range o.buf.all() {
		dev.Release(b)
	}
	o.buf = buffers{}
}

// Draw issues the object's draw calls. In picking mode every visible face,
// edge and corner is drawn in its own pick color; otherwise faces use the
// material color, selected primitives the highlight color, and corners are
// shown only at point granularity or when selected. An object that is not
// initialized, or hidden, draws nothing.
func (o *Object) Draw(dev gpu.Device, mvp [16]float32, picking bool, sel *selection.State, mode selection.Granularity) {
	if !o.Initialized() || !sel.PatchVisible() {
		return
	}
	g := o.geom
	t := g.Topology
	dev.SetTransform(mvp)
	dev.BindVertices(o.buf.positions, o.buf.normals)

	shade := func(local int, selected bool, base [4]float32) [4]float32 {
		switch {
		case picking:
			return o.colors.Color(local).RGBA()
		case selected:
			return SelectedColor
		}
		return base
	}

	visible, selected := sel.Visible(selection.Face), sel.Selected(selection.Face)
	for f := 0; f < g.Faces.Ranges(); f++ {
		if !visible.Has(f) {
			continue
		}
		off := g.Faces.Offsets
		dev.SetColor(shade(f, selected.Has(f), o.color))
		dev.DrawIndexed(gpu.Triangles, o.buf.triangles, o.buf.format, 6*off[f], 6*(off[f+1]-off[f]))
	}

	if !picking && g.Lines.Count() > 0 {
		dev.SetColor(GridLineColor)
		dev.DrawIndexed(gpu.Lines, o.buf.lines, o.buf.format, 0, len(g.Lines.Indices))
	}

	visible, selected = sel.Visible(selection.Edge), sel.Selected(selection.Edge)
	for e := 0; e < g.Edges.Ranges(); e++ {
		if !visible.Has(e) {
			continue
		}
		off := g.Edges.Offsets
		dev.SetColor(shade(t.Faces+e, selected.Has(e), EdgeColor))
		dev.DrawIndexed(gpu.Lines, o.buf.edges, o.buf.format, 2*off[e], 2*(off[e+1]-off[e]))
	}

	visible, selected = sel.Visible(selection.Point), sel.Selected(selection.Point)
	for p := 0; p < g.Points.Ranges(); p++ {
		if !visible.Has(p) || !(picking || mode == selection.Point || selected.Has(p)) {
			continue
		}
		dev.SetColor(shade(t.Faces+t.Edges+p, selected.Has(p), PointColor))
		dev.DrawIndexed(gpu.Points, o.buf.points, o.buf.format, g.Points.Offsets[p], 1)
	}
}
