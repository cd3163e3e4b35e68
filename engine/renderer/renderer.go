package renderer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/gloom-go/common"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/bindable"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/geometry"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/shader"
	"go.uber.org/zap"
)

// ErrNoSources is returned by NewRenderLoop when no shader sources were supplied.
var ErrNoSources = errors.New("renderer: no shader sources")

// FrameTime carries the clock readings for a single frame, in seconds.
type FrameTime struct {
	// Elapsed is the time since the render loop started.
	Elapsed float32
	// Delta is the time since the previous frame.
	Delta float32
}

// renderLoop is the implementation of the RenderLoop interface.
type renderLoop struct {
	drv    driver.Driver
	logger *zap.Logger

	sources  []shader.Source
	vertices []float32
	indices  []uint32

	clearColor [4]float32

	timeUniform   string
	offsetUniform string
	hasOffset     bool

	program  *shader.Program
	geometry *geometry.Geometry

	timeOffset float32
	pendingFit *[2]int32
}

// RenderLoop owns the GPU resources of the draw loop and renders one frame per call.
// Every method must be called from the thread that owns the GL context.
type RenderLoop interface {
	// HandleInput applies the pressed keys to the time accumulator.
	// The caller holds the input lock for the duration of the call.
	//
	// Parameters:
	//   - pressed: the key codes currently held down
	//   - deltaTime: the frame delta in seconds
	HandleInput(pressed []uint32, deltaTime float32)

	// RenderFrame clears the back buffer and draws the geometry with the shader program.
	//
	// Parameters:
	//   - t: the clock readings for this frame
	//
	// Returns:
	//   - error: error if a uniform could not be assigned
	RenderFrame(t FrameTime) error

	// Resize schedules a viewport change, applied at the start of the next frame.
	//
	// Parameters:
	//   - width: the new framebuffer width in pixels
	//   - height: the new framebuffer height in pixels
	Resize(width, height int)

	// TimeOffset returns the accumulated input offset in seconds.
	TimeOffset() float32

	// Release deletes the geometry and the program, then unregisters the debug callback.
	Release()
}

var _ RenderLoop = &renderLoop{}

// NewRenderLoop runs the one-time setup on the calling thread: global feature toggles,
// debug-callback registration, program build, geometry build and uniform resolution.
// Any resource acquired before a failing step is released before returning.
//
// Parameters:
//   - drv: the driver bound to the current context
//   - options: functional options for render loop configuration
//
// Returns:
//   - RenderLoop: the ready render loop
//   - error: error if any setup step fails
func NewRenderLoop(drv driver.Driver, options ...RenderLoopBuilderOption) (RenderLoop, error) {
	vertices, indices := geometry.TriangleRow(1)
	r := &renderLoop{
		drv:           drv,
		logger:        zap.NewNop(),
		vertices:      vertices,
		indices:       indices,
		clearColor:    [4]float32{0.163, 0.163, 0.163, 1},
		timeUniform:   "elapsed",
		offsetUniform: "offset",
	}

	for _, opt := range options {
		opt(r)
	}

	if len(r.sources) == 0 {
		return nil, ErrNoSources
	}

	r.configure()

	if err := r.build(); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

func (r *renderLoop) configure() {
	r.drv.Enable(driver.CapCullFace)
	r.drv.Disable(driver.CapMultisample)
	r.drv.Enable(driver.CapBlend)
	r.drv.BlendFunc(driver.BlendSrcAlpha, driver.BlendOneMinusSrcAlpha)
	r.drv.Enable(driver.CapDebugOutputSynchronous)

	gl := r.logger.Named("gl")
	r.drv.SetDebugCallback(func(msg driver.DebugMessage) {
		fields := []zap.Field{
			zap.Uint32("source", msg.Source),
			zap.Uint32("type", msg.Type),
			zap.Uint32("id", msg.ID),
		}
		switch msg.Severity {
		case driver.DebugSeverityHigh:
			gl.Error(msg.Message, fields...)
		case driver.DebugSeverityMedium:
			gl.Warn(msg.Message, fields...)
		case driver.DebugSeverityLow:
			gl.Info(msg.Message, fields...)
		default:
			gl.Debug(msg.Message, fields...)
		}
	})
}

func (r *renderLoop) build() error {
	b := shader.NewProgramBuilder(r.drv, shader.WithLogger(r.logger.Named("shader")))
	for _, src := range r.sources {
		b.AttachSource(src)
	}
	program, err := b.Link()
	if err != nil {
		return fmt.Errorf("failed to build shader program: %w", err)
	}
	r.program = program

	geo, err := geometry.New(r.drv, r.vertices, r.indices)
	if err != nil {
		return fmt.Errorf("failed to build geometry: %w", err)
	}
	r.geometry = geo

	if err := r.program.LocateUniform(r.timeUniform); err != nil {
		return fmt.Errorf("failed to locate time uniform: %w", err)
	}

	err = r.program.LocateUniform(r.offsetUniform)
	switch {
	case err == nil:
		r.hasOffset = true
	case errors.Is(err, shader.ErrUniformNotFound):
		r.logger.Debug("offset uniform not active", zap.String("uniform", r.offsetUniform))
	default:
		return fmt.Errorf("failed to locate offset uniform: %w", err)
	}
	return nil
}

func (r *renderLoop) HandleInput(pressed []uint32, deltaTime float32) {
	// A held reset wins over A and D regardless of press order.
	if slices.Contains(pressed, common.KeyR) {
		r.timeOffset = 0
		return
	}
	for _, key := range pressed {
		switch key {
		case common.KeyA:
			r.timeOffset += deltaTime
		case common.KeyD:
			r.timeOffset -= deltaTime
		}
	}
}

func (r *renderLoop) RenderFrame(t FrameTime) error {
	if r.pendingFit != nil {
		r.drv.Viewport(0, 0, r.pendingFit[0], r.pendingFit[1])
		r.pendingFit = nil
	}

	c := r.clearColor
	r.drv.ClearColor(c[0], c[1], c[2], c[3])
	r.drv.Clear(driver.ColorBufferBit)

	var err error
	bindable.Use(func() {
		if err = r.program.SetFloat(r.timeUniform, t.Elapsed+r.timeOffset); err != nil {
			return
		}
		if r.hasOffset {
			if err = r.program.SetFloat(r.offsetUniform, r.timeOffset); err != nil {
				return
			}
		}
		r.drv.DrawElements(driver.ModeTriangles, r.geometry.Count(), driver.TypeUnsignedInt, 0)
	}, r.geometry, r.program)
	return err
}

func (r *renderLoop) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.pendingFit = &[2]int32{int32(width), int32(height)}
}

func (r *renderLoop) TimeOffset() float32 {
	return r.timeOffset
}

func (r *renderLoop) Release() {
	if r.geometry != nil {
		r.geometry.Release()
	}
	if r.program != nil {
		r.program.Release()
	}
	r.drv.SetDebugCallback(nil)
}
