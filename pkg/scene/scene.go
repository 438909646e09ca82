// Package scene holds the tessellated primitives on display together with
// their pick colors and selection state.
//
// A Scene has a single owner goroutine (Run). Every mutation, including
// selection changes and picking, is submitted to it as a closure and
// applied in order. After each mutation the owner publishes an immutable
// Snapshot, which the rendering thread reads without locking. GPU work
// happens only in Frame, on the rendering thread.
package scene

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/knotview/pkg/bounds"
	"github.com/chazu/knotview/pkg/gpu"
	"github.com/chazu/knotview/pkg/pick"
	"github.com/chazu/knotview/pkg/selection"
	"github.com/chazu/knotview/pkg/tessellate"
)

// Options configures a Scene.
type Options struct {
	Tessellation tessellate.Options
	Workers      int           // concurrent tessellations; <= 0 means GOMAXPROCS
	InitTimeout  time.Duration // bound for AddAndWait
	NoiseCap     int           // pick region noise threshold cap
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		Tessellation: tessellate.DefaultOptions(),
		Workers:      runtime.GOMAXPROCS(0),
		InitTimeout:  5 * time.Second,
		NoiseCap:     pick.DefaultNoiseCap,
	}
}

// View is one object as seen by a snapshot.
type View struct {
	Object    *Object
	Selection *selection.State // read-only copy
}

// Snapshot is an immutable view of the scene at one point in its history.
type Snapshot struct {
	Version uint64
	Mode    selection.Granularity
	Views   []View
}

// Find returns the view of an object.
func (s *Snapshot) Find(id uuid.UUID) (View, bool) {
	return lo.Find(s.Views, func(v View) bool { return v.Object.ID() == id })
}

// Scene owns a collection of objects. Create one with New and start its
// owner with Run.
type Scene struct {
	opts Options
	ops  chan func()
	done chan struct{}
	snap atomic.Pointer[Snapshot]
	log  atomic.Pointer[log.Logger]

	retiredMu sync.Mutex
	retired   []*Object // left the scene, buffers not yet released

	// owned by the Run goroutine
	objects []*Object
	alloc   *pick.Allocator
	engine  selection.Engine
	version uint64
}

// New returns a scene with no objects.
func New(opts Options) *Scene {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	s := &Scene{
		opts:  opts,
		ops:   make(chan func()),
		done:  make(chan struct{}),
		alloc: pick.NewAllocator(),
	}
	s.snap.Store(&Snapshot{})
	s.SetLogger(nil)
	return s
}

// SetLogger directs lifecycle messages to l. Nil discards them.
func (s *Scene) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	s.log.Store(l)
}

func (s *Scene) logger() *log.Logger {
	return s.log.Load()
}

// Options returns the scene's settings.
func (s *Scene) Options() Options {
	return s.opts
}

// Run applies submitted mutations until ctx is done. It must be called
// exactly once. Objects that were never initialized are settled with
// ErrNotInitialized on the way out.
func (s *Scene) Run(ctx context.Context) error {
	defer func() {
		s.retire(s.objects...)
		close(s.done)
	}()
	for {
		select {
		case op := <-s.ops:
			op()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// do runs f on the owner goroutine and waits for it.
func (s *Scene) do(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	op := func() {
		defer close(finished)
		f()
	}
	select {
	case s.ops <- op:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// retire settles objects leaving the scene and queues their buffers for
// release by the next Frame.
func (s *Scene) retire(objs ...*Object) {
	for _, o := range objs {
		o.abandon()
	}
	s.retiredMu.Lock()
	s.retired = append(s.retired, objs...)
	s.retiredMu.Unlock()
}

// releaseRetired frees the buffers of retired objects. Rendering thread only.
func (s *Scene) releaseRetired(dev gpu.Device) {
	s.retiredMu.Lock()
	objs := s.retired
	s.retired = nil
	s.retiredMu.Unlock()
	for _, o := range objs {
		o.release(dev)
	}
}

// publish stores a fresh snapshot. Owner goroutine only.
func (s *Scene) publish() {
	s.version++
	views := make([]View, len(s.objects))
	for i, o := range s.objects {
		views[i] = View{Object: o, Selection: o.sel.Clone()}
	}
	s.snap.Store(&Snapshot{Version: s.version, Mode: s.engine.Mode(), Views: views})
}

// Snapshot returns the latest published view.
func (s *Scene) Snapshot() *Snapshot {
	return s.snap.Load()
}

func (s *Scene) object(id uuid.UUID) (*Object, error) {
	o, ok := lo.Find(s.objects, func(o *Object) bool { return o.id == id })
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	return o, nil
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// Add tessellates parts concurrently, then registers the results in
// submission order. The returned objects are queued for GPU initialization
// by the next Frame.
func (s *Scene) Add(ctx context.Context, parts ...tessellate.Part) ([]*Object, error) {
	geoms := make([]*tessellate.Geometry, len(parts))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.Workers)
	for i, p := range parts {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			g, err := p.Tessellate(s.opts.Tessellation)
			if err != nil {
				return err
			}
			geoms[i] = g
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	return s.AddGeometry(ctx, geoms...)
}

// AddGeometry registers already tessellated primitives, reserving pick
// colors for each in order.
func (s *Scene) AddGeometry(ctx context.Context, geoms ...*tessellate.Geometry) ([]*Object, error) {
	var added []*Object
	var err error
	if derr := s.do(ctx, func() {
		for _, g := range geoms {
			var r pick.Range
			r, err = s.alloc.Allocate(g.Topology.PickCount())
			if err != nil {
				err = fmt.Errorf("scene: %q: %w", g.Name, err)
				break
			}
			o := newObject(g, r)
			o.sel.SetGranularity(s.engine.Mode(), false)
			added = append(added, o)
		}
		if err != nil {
			return
		}
		s.objects = append(s.objects, added...)
		if n := s.alloc.Wrapped(); n > 0 {
			s.logger().Printf("scene: pick colors wrapped %d times", n)
		}
		s.publish()
	}); derr != nil {
		return nil, derr
	}
	return added, err
}

// AddAndWait adds parts and waits for the rendering thread to initialize
// them, bounded by the configured InitTimeout.
func (s *Scene) AddAndWait(ctx context.Context, parts ...tessellate.Part) ([]*Object, error) {
	objs, err := s.Add(ctx, parts...)
	if err != nil {
		return nil, err
	}
	return objs, waitWithTimeout(ctx, objs, s.opts.InitTimeout)
}

// waitWithTimeout waits for every object's initialization, failing with
// ErrInitTimeout once timeout has elapsed.
func waitWithTimeout(ctx context.Context, objs []*Object, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultOptions().InitTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for _, o := range objs {
		select {
		case <-o.ready:
			if o.initErr != nil {
				return o.initErr
			}
		case <-timer.C:
			return fmt.Errorf("%w after %s (%q)", ErrInitTimeout, timeout, o.Name())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Remove drops an object. Its pick colors are not reused.
func (s *Scene) Remove(ctx context.Context, id uuid.UUID) error {
	var err error
	if derr := s.do(ctx, func() {
		var o *Object
		if o, err = s.object(id); err != nil {
			return
		}
		s.retire(o)
		s.objects = lo.Without(s.objects, o)
		s.publish()
	}); derr != nil {
		return derr
	}
	return err
}

// Clear drops every object and restarts pick color allocation.
func (s *Scene) Clear(ctx context.Context) error {
	return s.do(ctx, func() {
		s.retire(s.objects...)
		s.objects = nil
		s.alloc.Reset()
		s.publish()
	})
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

// SetGranularity switches every object to mode.
func (s *Scene) SetGranularity(ctx context.Context, mode selection.Granularity, conjunction bool) error {
	return s.do(ctx, func() {
		states := lo.Map(s.objects, func(o *Object, _ int) *selection.State { return o.sel })
		s.engine.SetGranularity(mode, conjunction, states...)
		s.publish()
	})
}

// update applies f to one object's selection state.
func (s *Scene) update(ctx context.Context, id uuid.UUID, f func(*selection.State)) error {
	var err error
	if derr := s.do(ctx, func() {
		var o *Object
		if o, err = s.object(id); err != nil {
			return
		}
		f(o.sel)
		s.publish()
	}); derr != nil {
		return derr
	}
	return err
}

// SelectObject selects or deselects a whole object.
func (s *Scene) SelectObject(ctx context.Context, id uuid.UUID, on bool) error {
	return s.update(ctx, id, func(st *selection.State) { st.SelectObject(on) })
}

// SelectFaces selects or deselects faces of an object.
func (s *Scene) SelectFaces(ctx context.Context, id uuid.UUID, on bool, ids ...int) error {
	return s.update(ctx, id, func(st *selection.State) { st.SelectFaces(on, selection.NewIDSet(ids...)) })
}

// SelectEdges selects or deselects edges of an object.
func (s *Scene) SelectEdges(ctx context.Context, id uuid.UUID, on bool, ids ...int) error {
	return s.update(ctx, id, func(st *selection.State) { st.SelectEdges(on, selection.NewIDSet(ids...)) })
}

// SelectPoints selects or deselects corner points of an object.
func (s *Scene) SelectPoints(ctx context.Context, id uuid.UUID, on bool, ids ...int) error {
	return s.update(ctx, id, func(st *selection.State) { st.SelectPoints(on, selection.NewIDSet(ids...)) })
}

// SetVisible shows or hides primitives of an object at a granularity.
func (s *Scene) SetVisible(ctx context.Context, id uuid.UUID, g selection.Granularity, on bool, ids ...int) error {
	return s.update(ctx, id, func(st *selection.State) { st.SetVisible(g, selection.NewIDSet(ids...), on) })
}

// SelectAll selects or deselects every object.
func (s *Scene) SelectAll(ctx context.Context, on bool) error {
	return s.do(ctx, func() {
		for _, o := range s.objects {
			o.sel.SelectObject(on)
		}
		s.publish()
	})
}

// ---------------------------------------------------------------------------
// Picking
// ---------------------------------------------------------------------------

// Hit is one primitive changed by a pick.
type Hit struct {
	Object      uuid.UUID             `json:"object"`
	Granularity selection.Granularity `json:"granularity"`
	Index       int                   `json:"index"`
	Pixels      int                   `json:"pixels"`
}

// Pick applies a picking readback. img must hold the picking pass drawn
// from the current snapshot; rect is the region the user swept. Every key
// that survives the noise threshold and decodes to a primitive drawable at
// the current granularity is selected (on) or deselected.
func (s *Scene) Pick(ctx context.Context, img *image.RGBA, rect image.Rectangle, on bool) ([]Hit, error) {
	samples := pick.Tally(img, rect, s.opts.NoiseCap)
	if len(samples) == 0 {
		return nil, nil
	}
	var hits []Hit
	err := s.do(ctx, func() {
		ranges := lo.Map(s.objects, func(o *Object, _ int) pick.Range { return o.colors })
		mode := s.engine.Mode()
		for _, smp := range samples {
			h, ok := pick.Decode(ranges, smp.Color)
			if !ok {
				continue
			}
			o := s.objects[h.Object]
			g, idx, ok := o.sel.Classify(h.Local)
			if !ok || !o.sel.Pick(mode, h.Local, on) {
				continue
			}
			if mode == selection.Patch {
				g, idx = selection.Patch, 0
			}
			hits = append(hits, Hit{Object: o.id, Granularity: g, Index: idx, Pixels: smp.Count})
		}
		if len(hits) > 0 {
			s.publish()
		}
	})
	return hits, err
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// Frame runs on the rendering thread: it releases the buffers of objects
// removed since the last frame, initializes objects added since then, and
// draws every visible object of the latest snapshot.
// Initialization failures are returned after drawing what could be drawn.
func (s *Scene) Frame(dev gpu.Device, mvp [16]float32, picking bool) error {
	s.releaseRetired(dev)
	snap := s.Snapshot()
	var errs []error
	for _, v := range snap.Views {
		if !v.Object.Initialized() {
			if err := v.Object.Initialize(dev, s.logger()); err != nil {
				if !errors.Is(err, ErrNotInitialized) {
					errs = append(errs, err)
				}
				continue
			}
		}
		v.Object.Draw(dev, mvp, picking, v.Selection, snap.Mode)
	}
	return errors.Join(errs...)
}

// Bounds returns a sphere around every visible object, or around the
// selected ones only. It is the zero sphere when nothing qualifies.
func (s *Scene) Bounds(selectedOnly bool) bounds.Sphere {
	snap := s.Snapshot()
	var spheres []bounds.Sphere
	for _, v := range snap.Views {
		if !v.Selection.PatchVisible() || (selectedOnly && v.Selection.Empty()) {
			continue
		}
		spheres = append(spheres, v.Object.geom.Sphere)
	}
	return bounds.Aggregate(spheres)
}
