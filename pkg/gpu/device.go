// Package gpu is the contract between scene objects and the GPU buffer
// layer. A Device creates buffers, accepts raw uploads and issues indexed
// draws; the renderer behind it is supplied by the host application.
package gpu

import (
	"github.com/gogpu/gputypes"
)

// Buffer is an opaque device buffer handle. The zero value is no buffer.
type Buffer uint32

// Usage flags of the buffers scene objects create.
const (
	VertexUsage = gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
	IndexUsage  = gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst
)

// Index element types. Uint16 halves index uploads for primitives with at
// most 65536 vertices.
const (
	Uint16 = gputypes.IndexFormatUint16
	Uint32 = gputypes.IndexFormatUint32
)

// Topologies of the four index buffers of a primitive.
const (
	Triangles = gputypes.PrimitiveTopologyTriangleList
	Lines     = gputypes.PrimitiveTopologyLineList
	Points    = gputypes.PrimitiveTopologyPointList
)

// Device is the GPU buffer layer. Every method must be called on the
// rendering thread that owns the device context.
type Device interface {
	// CreateBuffer allocates a buffer of size bytes.
	CreateBuffer(usage gputypes.BufferUsage, size int) (Buffer, error)
	// Upload replaces the contents of b.
	Upload(b Buffer, data []byte) error
	// Release frees b. Releasing the zero Buffer does nothing.
	Release(b Buffer)
	// BindVertices selects the position and normal buffers for later draws.
	BindVertices(positions, normals Buffer)
	// SetTransform sets the column-major model-view-projection matrix.
	SetTransform(mvp [16]float32)
	// SetColor sets the flat color of later draws.
	SetColor(rgba [4]float32)
	// DrawIndexed draws count indices of format from b starting at index first.
	DrawIndexed(topology gputypes.PrimitiveTopology, b Buffer, format gputypes.IndexFormat, first, count int)
}
