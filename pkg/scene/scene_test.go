package scene_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/knotview/pkg/gpu"
	"github.com/chazu/knotview/pkg/kernel/bspline"
	"github.com/chazu/knotview/pkg/pick"
	"github.com/chazu/knotview/pkg/scene"
	"github.com/chazu/knotview/pkg/selection"
	"github.com/chazu/knotview/pkg/tessellate"
)

var identity = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func startScene(t *testing.T, opts scene.Options) *scene.Scene {
	t.Helper()
	s := scene.New(opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s
}

func boxPart(t *testing.T, name string, at v3.Vec) tessellate.Part {
	t.Helper()
	b, err := bspline.Box(1, [3]int{1, 1, 1}, v3.Vec{X: 2, Y: 2, Z: 2})
	require.NoError(t, err)
	return tessellate.Part{Name: name, Patch: b.Transform(sdf.Translate3d(at)), Refine: [3]int{2, 2, 2}}
}

func sheetPart(t *testing.T, name string) tessellate.Part {
	t.Helper()
	p, err := bspline.Sheet(2, [2]int{2, 2}, v3.Vec{X: 1, Y: 1}, 0.2, false)
	require.NoError(t, err)
	return tessellate.Part{Name: name, Patch: p}
}

// paint fills img with the background and then draws rects in colors.
func paint(img *image.RGBA, rects map[image.Rectangle]pick.Color) {
	white := color.RGBA{255, 255, 255, 255}
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			img.SetRGBA(x, y, white)
		}
	}
	for r, c := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.SetRGBA(x, y, color.RGBA{c[0], c[1], c[2], 255})
			}
		}
	}
}

func TestAddAllocatesColorsInOrder(t *testing.T) {
	s := startScene(t, scene.DefaultOptions())
	ctx := context.Background()

	objs, err := s.Add(ctx, boxPart(t, "a", v3.Vec{}), sheetPart(t, "b"), boxPart(t, "c", v3.Vec{X: 5}))
	require.NoError(t, err)
	require.Len(t, objs, 3)

	assert.Equal(t, pick.Range{Min: 0, Max: 26}, objs[0].Colors())
	assert.Equal(t, pick.Range{Min: 26, Max: 35}, objs[1].Colors())
	assert.Equal(t, pick.Range{Min: 35, Max: 61}, objs[2].Colors())
	assert.Equal(t, []string{"a", "b", "c"}, []string{objs[0].Name(), objs[1].Name(), objs[2].Name()})

	assert.True(t, objs[1].HasColor(pick.FromKey(30)))
	assert.False(t, objs[1].HasColor(pick.FromKey(35)))
	assert.Equal(t, pick.FromKey(35), objs[2].BaseColor())
	assert.InDelta(t, 5, objs[2].Center().X, 1e-9)

	snap := s.Snapshot()
	require.Len(t, snap.Views, 3)
	assert.False(t, objs[0].Initialized(), "no frame has run yet")
}

func TestFrameInitializesThenDraws(t *testing.T) {
	s := startScene(t, scene.DefaultOptions())
	objs, err := s.Add(context.Background(), boxPart(t, "a", v3.Vec{}))
	require.NoError(t, err)

	rec := gpu.NewRecorder()
	require.NoError(t, s.Frame(rec, identity, false))
	assert.True(t, objs[0].Initialized())
	// one span per axis has no grid lines, so no line buffer
	assert.Equal(t, 5, rec.Buffers())
	assert.NoError(t, objs[0].WaitInitialized(context.Background()))

	calls := rec.Calls()
	// 6 faces and 12 edges; corners only at point granularity
	require.Len(t, calls, 6+12)
	assert.Equal(t, gpu.Triangles, calls[0].Topology)
	assert.Equal(t, 6*2*2, calls[0].Count)
	assert.Equal(t, scene.DefaultColor, calls[0].Color)
	assert.Equal(t, identity, calls[0].Transform)
	assert.Equal(t, gpu.Uint16, calls[0].Format, "small primitives use short indices")

	uploaded := rec.Uploaded()
	rec.Reset()
	require.NoError(t, s.Frame(rec, identity, false))
	assert.Equal(t, uploaded, rec.Uploaded(), "second frame must not upload again")
}

func TestPickingPassUsesPickColors(t *testing.T) {
	s := startScene(t, scene.DefaultOptions())
	objs, err := s.Add(context.Background(), sheetPart(t, "sheet"))
	require.NoError(t, err)

	rec := gpu.NewRecorder()
	require.NoError(t, s.Frame(rec, identity, true))
	calls := rec.Calls()
	// 1 face, 4 edges, 4 corners, no grid lines
	require.Len(t, calls, 9)
	for i, c := range calls {
		assert.Equal(t, objs[0].Colors().Color(i).RGBA(), c.Color, "call %d", i)
	}
	assert.Equal(t, gpu.Points, calls[8].Topology)
}

func TestAddAndWait(t *testing.T) {
	opts := scene.DefaultOptions()
	opts.InitTimeout = time.Second
	s := startScene(t, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		rec := gpu.NewRecorder()
		for ctx.Err() == nil {
			_ = s.Frame(rec, identity, false)
			time.Sleep(time.Millisecond)
		}
	}()

	objs, err := s.AddAndWait(ctx, boxPart(t, "a", v3.Vec{}))
	require.NoError(t, err)
	assert.True(t, objs[0].Initialized())
}

func TestAddAndWaitTimesOut(t *testing.T) {
	opts := scene.DefaultOptions()
	opts.InitTimeout = 20 * time.Millisecond
	s := startScene(t, opts)

	_, err := s.AddAndWait(context.Background(), boxPart(t, "a", v3.Vec{}))
	assert.ErrorIs(t, err, scene.ErrInitTimeout)
}

type failingDevice struct{ *gpu.Recorder }

func (failingDevice) Upload(gpu.Buffer, []byte) error { return errors.New("device lost") }

func TestInitializeFailureIsObservable(t *testing.T) {
	s := startScene(t, scene.DefaultOptions())
	objs, err := s.Add(context.Background(), boxPart(t, "a", v3.Vec{}))
	require.NoError(t, err)

	err = s.Frame(failingDevice{gpu.NewRecorder()}, identity, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device lost")
	assert.False(t, objs[0].Initialized())
	assert.Error(t, objs[0].WaitInitialized(context.Background()))
}

func TestRemovedObjectIsSettled(t *testing.T) {
	s := startScene(t, scene.DefaultOptions())
	ctx := context.Background()
	objs, err := s.Add(ctx, boxPart(t, "a", v3.Vec{}))
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, objs[0].ID()))
	assert.ErrorIs(t, objs[0].WaitInitialized(ctx), scene.ErrNotInitialized)
	assert.Empty(t, s.Snapshot().Views)
	assert.ErrorIs(t, s.Remove(ctx, objs[0].ID()), scene.ErrUnknownObject)
}

func TestClearRestartsColors(t *testing.T) {
	s := startScene(t, scene.DefaultOptions())
	ctx := context.Background()
	_, err := s.Add(ctx, boxPart(t, "a", v3.Vec{}))
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx))

	objs, err := s.Add(ctx, sheetPart(t, "b"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), objs[0].Colors().Min)
}

func TestRemovedObjectsReleaseBuffers(t *testing.T) {
	s := startScene(t, scene.DefaultOptions())
	ctx := context.Background()
	objs, err := s.Add(ctx, boxPart(t, "a", v3.Vec{}), sheetPart(t, "b"))
	require.NoError(t, err)

	rec := gpu.NewRecorder()
	require.NoError(t, s.Frame(rec, identity, false))
	live := rec.Live()
	require.Positive(t, live)

	require.NoError(t, s.Remove(ctx, objs[1].ID()))
	require.NoError(t, s.Frame(rec, identity, false))
	remaining := rec.Live()
	assert.Less(t, remaining, live)
	assert.NotEmpty(t, rec.TakeReleased())
	assert.False(t, objs[1].Initialized())

	require.NoError(t, s.Clear(ctx))
	rec.Reset()
	require.NoError(t, s.Frame(rec, identity, false))
	assert.Zero(t, rec.Live(), "every buffer is released after Clear")
	assert.Empty(t, rec.Calls())

	// The same box again holds as many buffers as the first one did.
	_, err = s.Add(ctx, boxPart(t, "c", v3.Vec{}))
	require.NoError(t, err)
	require.NoError(t, s.Frame(rec, identity, false))
	assert.Equal(t, remaining, rec.Live())
}

func TestPickFaceSelectsAndCascades(t *testing.T) {
	s := startScene(t, scene.DefaultOptions())
	ctx := context.Background()
	objs, err := s.Add(ctx, boxPart(t, "a", v3.Vec{}))
	require.NoError(t, err)
	require.NoError(t, s.SetGranularity(ctx, selection.Face, false))

	r := objs[0].Colors()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	paint(img, map[image.Rectangle]pick.Color{
		image.Rect(0, 0, 3, 3): r.Color(2), // face 2
		image.Rect(3, 0, 4, 1): r.Color(1), // a single stray pixel
	})

	hits, err := s.Pick(ctx, img, image.Rect(0, 0, 4, 3), true)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, scene.Hit{Object: objs[0].ID(), Granularity: selection.Face, Index: 2, Pixels: 9}, hits[0])

	v, ok := s.Snapshot().Find(objs[0].ID())
	require.True(t, ok)
	assert.Equal(t, []int{2}, v.Selection.Selected(selection.Face).Sorted())
	assert.Len(t, v.Selection.Selected(selection.Edge), 4)
	assert.Len(t, v.Selection.Selected(selection.Point), 4)

	// Deselect by picking again.
	_, err = s.Pick(ctx, img, image.Rect(0, 0, 3, 3), false)
	require.NoError(t, err)
	v, _ = s.Snapshot().Find(objs[0].ID())
	assert.True(t, v.Selection.Empty())
}

func TestPickIgnoresOtherGranularity(t *testing.T) {
	s := startScene(t, scene.DefaultOptions())
	ctx := context.Background()
	objs, err := s.Add(ctx, boxPart(t, "a", v3.Vec{}))
	require.NoError(t, err)
	require.NoError(t, s.SetGranularity(ctx, selection.Face, false))

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	paint(img, map[image.Rectangle]pick.Color{image.Rect(0, 0, 4, 4): objs[0].Colors().Color(6)}) // edge 0

	hits, err := s.Pick(ctx, img, img.Rect, true)
	require.NoError(t, err)
	assert.Empty(t, hits)

	paint(img, nil)
	hits, err = s.Pick(ctx, img, img.Rect, true)
	require.NoError(t, err)
	assert.Empty(t, hits, "background decodes to no pick")
}

func TestPickAtPatchSelectsObject(t *testing.T) {
	s := startScene(t, scene.DefaultOptions())
	ctx := context.Background()
	objs, err := s.Add(ctx, boxPart(t, "a", v3.Vec{}), boxPart(t, "b", v3.Vec{X: 4}))
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	paint(img, map[image.Rectangle]pick.Color{img.Rect: objs[1].Colors().Color(20)})
	hits, err := s.Pick(ctx, img, img.Rect, true)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, selection.Patch, hits[0].Granularity)

	v, _ := s.Snapshot().Find(objs[1].ID())
	assert.True(t, v.Selection.PatchSelected())
	v, _ = s.Snapshot().Find(objs[0].ID())
	assert.True(t, v.Selection.Empty())
}

func TestBounds(t *testing.T) {
	s := startScene(t, scene.DefaultOptions())
	ctx := context.Background()
	objs, err := s.Add(ctx, boxPart(t, "left", v3.Vec{X: -5}), boxPart(t, "right", v3.Vec{X: 5}))
	require.NoError(t, err)

	all := s.Bounds(false)
	for _, o := range objs {
		for _, p := range o.Geometry().Positions {
			assert.True(t, all.Contains(p, 1e-9))
		}
	}
	assert.Zero(t, s.Bounds(true).Radius, "nothing selected")

	require.NoError(t, s.SelectObject(ctx, objs[1].ID(), true))
	sel := s.Bounds(true)
	for _, p := range objs[1].Geometry().Positions {
		assert.True(t, sel.Contains(p, 1e-9))
	}
	assert.Greater(t, sel.Center.X, 0.0)

	require.NoError(t, s.SetVisible(ctx, objs[1].ID(), selection.Patch, false))
	assert.Zero(t, s.Bounds(true).Radius, "hidden objects leave the selection")
}

func TestHiddenObjectDrawsNothing(t *testing.T) {
	s := startScene(t, scene.DefaultOptions())
	ctx := context.Background()
	objs, err := s.Add(ctx, boxPart(t, "a", v3.Vec{}))
	require.NoError(t, err)
	require.NoError(t, s.SetVisible(ctx, objs[0].ID(), selection.Patch, false))

	rec := gpu.NewRecorder()
	require.NoError(t, s.Frame(rec, identity, false))
	assert.True(t, objs[0].Initialized())
	assert.Empty(t, rec.Calls())
}

func TestSelectedFaceIsHighlighted(t *testing.T) {
	s := startScene(t, scene.DefaultOptions())
	ctx := context.Background()
	objs, err := s.Add(ctx, boxPart(t, "a", v3.Vec{}))
	require.NoError(t, err)
	require.NoError(t, s.SetGranularity(ctx, selection.Face, false))
	require.NoError(t, s.SelectFaces(ctx, objs[0].ID(), true, 3))

	rec := gpu.NewRecorder()
	require.NoError(t, s.Frame(rec, identity, false))
	calls := rec.Calls()
	assert.Equal(t, scene.SelectedColor, calls[3].Color)
	assert.Equal(t, scene.DefaultColor, calls[2].Color)
}

func TestClosedScene(t *testing.T) {
	s := scene.New(scene.DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	objs, err := s.Add(context.Background(), boxPart(t, "a", v3.Vec{}))
	require.NoError(t, err)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.ErrorIs(t, s.SelectAll(context.Background(), true), scene.ErrClosed)
	assert.ErrorIs(t, objs[0].WaitInitialized(context.Background()), scene.ErrNotInitialized)
}
