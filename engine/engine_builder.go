package engine

import (
	"time"

	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow sets the window whose event loop the engine runs and whose context the render
// thread takes.
//
// Parameters:
//   - w: a spawned Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithDriverFactory sets the function creating the GPU driver on the render thread,
// after the context is current.
//
// Parameters:
//   - factory: the driver constructor, e.g. opengl.New
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDriverFactory(factory DriverFactory) EngineBuilderOption {
	return func(e *engine) {
		e.newDriver = factory
	}
}

// WithRendererFactory sets the function building the render loop on the render thread.
//
// Parameters:
//   - factory: the render loop constructor
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRendererFactory(factory RendererFactory) EngineBuilderOption {
	return func(e *engine) {
		e.newRenderer = factory
	}
}

// WithLogger sets the logger used by the render thread, the watchdog and the profiler.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//   - interval: how often a sample is logged, <= 0 for the profiler default
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool, interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
		e.profilerInterval = interval
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithShutdownTimeout bounds how long Run waits for the render thread after the window closes.
// Values <= 0 keep the default of 2 seconds.
//
// Parameters:
//   - timeout: the maximum wait
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShutdownTimeout(timeout time.Duration) EngineBuilderOption {
	return func(e *engine) {
		if timeout > 0 {
			e.shutdownTimeout = timeout
		}
	}
}
