package renderer

import (
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/shader"
	"go.uber.org/zap"
)

// RenderLoopBuilderOption is a functional option applied to a render loop during construction via NewRenderLoop.
type RenderLoopBuilderOption func(*renderLoop)

// WithSources sets the shader sources linked into the render loop's program.
//
// Parameters:
//   - sources: one source per shader stage
//
// Returns:
//   - RenderLoopBuilderOption: a function that applies the sources option to a render loop
func WithSources(sources ...shader.Source) RenderLoopBuilderOption {
	return func(r *renderLoop) {
		r.sources = append(r.sources, sources...)
	}
}

// WithGeometry replaces the default single triangle with the given vertex positions and indices.
//
// Parameters:
//   - vertices: packed xyz positions
//   - indices: triangle indices into vertices
//
// Returns:
//   - RenderLoopBuilderOption: a function that applies the geometry option to a render loop
func WithGeometry(vertices []float32, indices []uint32) RenderLoopBuilderOption {
	return func(r *renderLoop) {
		r.vertices = vertices
		r.indices = indices
	}
}

// WithClearColor sets the color the back buffer is cleared to every frame.
//
// Parameters:
//   - red, green, blue, alpha: color components in [0, 1]
//
// Returns:
//   - RenderLoopBuilderOption: a function that applies the clear color option to a render loop
func WithClearColor(red, green, blue, alpha float32) RenderLoopBuilderOption {
	return func(r *renderLoop) {
		r.clearColor = [4]float32{red, green, blue, alpha}
	}
}

// WithTimeUniform sets the name of the float uniform receiving the elapsed time. Defaults to "elapsed".
//
// Parameters:
//   - name: the uniform name
//
// Returns:
//   - RenderLoopBuilderOption: a function that applies the uniform name to a render loop
func WithTimeUniform(name string) RenderLoopBuilderOption {
	return func(r *renderLoop) {
		r.timeUniform = name
	}
}

// WithOffsetUniform sets the name of the optional float uniform receiving the input time offset.
// Defaults to "offset". Programs that do not declare it are accepted.
//
// Parameters:
//   - name: the uniform name
//
// Returns:
//   - RenderLoopBuilderOption: a function that applies the uniform name to a render loop
func WithOffsetUniform(name string) RenderLoopBuilderOption {
	return func(r *renderLoop) {
		r.offsetUniform = name
	}
}

// WithLogger sets the logger receiving shader build failures and driver debug messages.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - RenderLoopBuilderOption: a function that applies the logger to a render loop
func WithLogger(logger *zap.Logger) RenderLoopBuilderOption {
	return func(r *renderLoop) {
		if logger != nil {
			r.logger = logger
		}
	}
}
