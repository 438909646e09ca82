package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
)

// Call is one recorded draw.
type Call struct {
	Topology  gputypes.PrimitiveTopology `json:"topology"`
	Buffer    Buffer                     `json:"buffer"`
	Format    gputypes.IndexFormat       `json:"format"`
	First     int                        `json:"first"`
	Count     int                        `json:"count"`
	Color     [4]float32                 `json:"color"`
	Transform [16]float32                `json:"transform"`
	Positions Buffer                     `json:"positions"`
	Normals   Buffer                     `json:"normals"`
}

// Recorder is an in-memory Device. It keeps the bytes of every live buffer
// and logs draws, for headless use and tests.
type Recorder struct {
	mu        sync.Mutex
	next      Buffer
	usage     map[Buffer]gputypes.BufferUsage
	data      map[Buffer][]byte
	uploaded  int
	released  []Buffer
	color     [4]float32
	transform [16]float32
	positions Buffer
	normals   Buffer
	calls     []Call
}

var _ Device = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		usage: make(map[Buffer]gputypes.BufferUsage),
		data:  make(map[Buffer][]byte),
	}
}

func (r *Recorder) CreateBuffer(usage gputypes.BufferUsage, size int) (Buffer, error) {
	if size < 0 {
		return 0, fmt.Errorf("gpu: negative buffer size %d", size)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.usage[r.next] = usage
	r.data[r.next] = make([]byte, size)
	return r.next, nil
}

func (r *Recorder) Upload(b Buffer, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[b]; !ok {
		return fmt.Errorf("gpu: upload to unknown buffer %d", b)
	}
	r.data[b] = append([]byte(nil), data...)
	r.uploaded += len(data)
	return nil
}

func (r *Recorder) Release(b Buffer) {
	if b == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[b]; !ok {
		return
	}
	delete(r.data, b)
	delete(r.usage, b)
	r.released = append(r.released, b)
}

func (r *Recorder) BindVertices(positions, normals Buffer) {
	r.mu.Lock()
	r.positions, r.normals = positions, normals
	r.mu.Unlock()
}

func (r *Recorder) SetTransform(mvp [16]float32) {
	r.mu.Lock()
	r.transform = mvp
	r.mu.Unlock()
}

func (r *Recorder) SetColor(rgba [4]float32) {
	r.mu.Lock()
	r.color = rgba
	r.mu.Unlock()
}

func (r *Recorder) DrawIndexed(topology gputypes.PrimitiveTopology, b Buffer, format gputypes.IndexFormat, first, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{
		Topology:  topology,
		Buffer:    b,
		Format:    format,
		First:     first,
		Count:     count,
		Color:     r.color,
		Transform: r.transform,
		Positions: r.positions,
		Normals:   r.normals,
	})
}

// Calls returns the draws recorded since the last Reset.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Reset forgets recorded draws but keeps buffers.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// Data returns a copy of a buffer's bytes.
func (r *Recorder) Data(b Buffer) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.data[b]...)
}

// Usage returns the flags a buffer was created with.
func (r *Recorder) Usage(b Buffer) gputypes.BufferUsage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usage[b]
}

// Buffers is the number of buffers created, released ones included.
// Handles run from 1 to Buffers.
func (r *Recorder) Buffers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.next)
}

// Live is the number of buffers not yet released.
func (r *Recorder) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// Has reports whether b exists and has not been released.
func (r *Recorder) Has(b Buffer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.data[b]
	return ok
}

// TakeReleased returns the buffers released since the last call.
func (r *Recorder) TakeReleased() []Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.released
	r.released = nil
	return out
}

// Uploaded is the total number of bytes uploaded.
func (r *Recorder) Uploaded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uploaded
}
