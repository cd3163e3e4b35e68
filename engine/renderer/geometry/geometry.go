// Package geometry owns GPU-resident vertex data: a vertex array plus its vertex and index
// buffers, acquired together and released together.
package geometry

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/gloom-go/common"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/bindable"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
)

// ErrInvalidGeometry is returned by New for vertex or index data that cannot be drawn.
var ErrInvalidGeometry = errors.New("geometry: invalid vertex data")

const (
	vertexBufferIndex = 0
	indexBufferIndex  = 1

	// positionComponents is the number of floats per vertex (x, y, z).
	positionComponents = 3
	// positionAttribute is the attribute slot ("layout (location = 0)").
	positionAttribute = 0
)

// Geometry is indexed triangle data living on the GPU. It owns one vertex array and exactly
// two buffers (vertices, indices) from New until Release.
type Geometry struct {
	drv      driver.Driver
	vao      uint32
	buffers  [2]uint32
	count    int32
	released bool
}

var _ bindable.Bindable = &Geometry{}

// New uploads vertices (tightly packed xyz float32 triples) and indices in one pass and
// describes attribute 0 as a vec3 position. All binding points are neutral on return.
//
// Parameters:
//   - drv: the driver of the current context
//   - vertices: xyz positions, len must be a non-zero multiple of 3
//   - indices: triangle indices into vertices, must not be empty
//
// Returns:
//   - *Geometry: the uploaded geometry
//   - error: ErrInvalidGeometry if the data is empty or misaligned
func New(drv driver.Driver, vertices []float32, indices []uint32) (*Geometry, error) {
	if len(vertices) == 0 || len(vertices)%positionComponents != 0 {
		return nil, fmt.Errorf("%w: %d floats is not a non-empty list of xyz positions", ErrInvalidGeometry, len(vertices))
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: no indices", ErrInvalidGeometry)
	}
	vertexCount := uint32(len(vertices) / positionComponents)
	for _, idx := range indices {
		if idx >= vertexCount {
			return nil, fmt.Errorf("%w: index %d out of range for %d vertices", ErrInvalidGeometry, idx, vertexCount)
		}
	}

	g := &Geometry{
		drv:   drv,
		count: int32(len(indices)),
	}

	g.vao = drv.GenVertexArray()
	drv.BindVertexArray(g.vao)
	copy(g.buffers[:], drv.GenBuffers(len(g.buffers)))

	drv.BindBuffer(driver.TargetArrayBuffer, g.buffers[vertexBufferIndex])
	drv.BufferData(driver.TargetArrayBuffer, common.ByteSize(vertices), common.SlicePointer(vertices), driver.UsageStaticDraw)

	drv.BindBuffer(driver.TargetElementArrayBuffer, g.buffers[indexBufferIndex])
	drv.BufferData(driver.TargetElementArrayBuffer, common.ByteSize(indices), common.SlicePointer(indices), driver.UsageStaticDraw)

	drv.EnableVertexAttribArray(positionAttribute)
	drv.VertexAttribPointer(
		positionAttribute,
		positionComponents,
		driver.TypeFloat,
		false,
		positionComponents*common.SizeOf[float32](),
		0,
	)

	drv.BindBuffer(driver.TargetArrayBuffer, 0)
	drv.BindBuffer(driver.TargetElementArrayBuffer, 0)
	drv.BindVertexArray(0)

	return g, nil
}

// Count returns the number of indices to draw.
func (g *Geometry) Count() int32 {
	return g.count
}

// Handles returns the vertex array handle and the (vertex, index) buffer handles.
func (g *Geometry) Handles() (vao uint32, buffers [2]uint32) {
	return g.vao, g.buffers
}

// Bind binds the vertex array, then the vertex and index buffers.
func (g *Geometry) Bind() {
	g.drv.BindVertexArray(g.vao)
	g.drv.BindBuffer(driver.TargetArrayBuffer, g.buffers[vertexBufferIndex])
	g.drv.BindBuffer(driver.TargetElementArrayBuffer, g.buffers[indexBufferIndex])
}

// Unbind resets both buffer binding points, then the vertex array.
func (g *Geometry) Unbind() {
	g.drv.BindBuffer(driver.TargetArrayBuffer, 0)
	g.drv.BindBuffer(driver.TargetElementArrayBuffer, 0)
	g.drv.BindVertexArray(0)
}

// Release deletes both buffers and the vertex array. Later calls are no-ops.
func (g *Geometry) Release() {
	if g.released {
		return
	}
	g.released = true
	g.drv.DeleteBuffers(g.buffers[:])
	g.drv.DeleteVertexArray(g.vao)
}
