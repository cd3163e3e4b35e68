package engine

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/gloom-go/common"
	"github.com/Carmen-Shannon/gloom-go/engine/input"
	"github.com/Carmen-Shannon/gloom-go/engine/profiler"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
	"go.uber.org/zap"
)

// Window is the part of the platform window the engine drives. The event loop methods run
// on the main thread; TakeContext is called once by the render thread and Wake may be
// called from any goroutine.
type Window interface {
	SetUpdateCallback(callback func())
	SetResizeCallback(callback func(width, height int))
	SetKeyDownCallback(callback func(keyCode uint32))
	SetKeyUpCallback(callback func(keyCode uint32))
	TakeContext() (driver.Context, error)
	RequestClose()
	Wake()
	ProcessMessages()
	Close() error
}

// DriverFactory creates the GPU driver once the context is current on the render thread.
type DriverFactory func() (driver.Driver, error)

// RendererFactory builds the render loop on the render thread.
type RendererFactory func(drv driver.Driver) (renderer.RenderLoop, error)

// engine implements the Engine interface.
// Coordinates the render, watchdog, and window threads.
type engine struct {
	logger *zap.Logger

	window      Window
	newDriver   DriverFactory
	newRenderer RendererFactory

	keys   *input.PressedKeys
	health *HealthFlag

	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	// pendingSize carries the latest framebuffer size from the event thread to the render thread.
	pendingSize atomic.Pointer[[2]int]

	errMu     sync.Mutex
	renderErr error

	profiler         *profiler.Profiler
	profilingEnabled bool
	profilerInterval time.Duration

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	shutdownTimeout  time.Duration
}

// Engine is the main entry point for the engine.
// It runs the render thread, the watchdog supervising it and the window event loop.
type Engine interface {
	// Run starts the render and watchdog goroutines and runs the window event loop on the
	// calling goroutine, which must be the main thread. Blocks until the window closes.
	//
	// Returns:
	//   - error: the render thread failure (a setup error, a frame error or a *RenderPanicError),
	//     ErrShutdownTimeout, or nil after a normal close
	Run() error

	// Quit signals all engine goroutines to stop and closes the window.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Healthy reports whether the render thread is still running normally.
	//
	// Returns:
	//   - bool: false once the watchdog has observed a render failure
	Healthy() bool

	// Keys returns the pressed-key set shared with the render thread.
	//
	// Returns:
	//   - *input.PressedKeys: the live key set
	Keys() *input.PressedKeys
}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (window, factories, profiling, etc.)
//
// Returns:
//   - Engine: the newly created engine
//   - error: error if a required option is missing
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		logger:          zap.NewNop(),
		keys:            input.NewPressedKeys(),
		health:          NewHealthFlag(),
		quitChannel:     make(chan struct{}),
		shutdownTimeout: 2 * time.Second,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window == nil {
		return nil, ErrNoWindow
	}
	if e.newDriver == nil {
		return nil, errors.New("engine: no driver factory")
	}
	if e.newRenderer == nil {
		return nil, errors.New("engine: no renderer factory")
	}
	e.profiler = profiler.NewProfiler(
		profiler.WithLogger(e.logger.Named("profiler")),
		profiler.WithInterval(e.profilerInterval),
	)

	e.window.SetKeyDownCallback(e.onKeyDown)
	e.window.SetKeyUpCallback(e.onKeyUp)
	e.window.SetResizeCallback(e.onResize)
	e.window.SetUpdateCallback(e.onUpdate)

	return e, nil
}

func (e *engine) Run() error {
	results := make(chan error, 1)

	e.wg.Add(2)
	go e.handleRender(results)
	go e.handleWatchdog(results)

	e.window.ProcessMessages()

	e.signalQuit()
	waitErr := e.wait()
	if errors.Is(waitErr, ErrShutdownTimeout) {
		// The render thread may still have the context current; destroying the window under
		// it is undefined. The window is left to process exit.
		e.logger.Warn("window left open, render thread still owns the GL context")
	} else if err := e.window.Close(); err != nil {
		e.logger.Warn("failed to close window", zap.Error(err))
	}

	return errors.Join(e.failure(), waitErr)
}

// Quit signals all engine goroutines to stop and asks the window to close.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
	e.window.Wake()
}

func (e *engine) Healthy() bool {
	return e.health.Healthy()
}

func (e *engine) Keys() *input.PressedKeys {
	return e.keys
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// wait blocks until the render and watchdog goroutines are done or the shutdown timeout elapses.
func (e *engine) wait() error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(e.shutdownTimeout):
		e.logger.Error("render thread did not stop", zap.Duration("timeout", e.shutdownTimeout))
		return ErrShutdownTimeout
	}
}

func (e *engine) failure() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.renderErr
}

// onUpdate runs once per event loop iteration on the main thread.
func (e *engine) onUpdate() {
	select {
	case <-e.quitChannel:
		e.window.RequestClose()
		return
	default:
	}
	if !e.health.Healthy() {
		e.window.RequestClose()
	}
}

func (e *engine) onKeyDown(keyCode uint32) {
	e.keys.Press(keyCode)
	if keyCode == common.KeyEsc {
		e.window.RequestClose()
	}
}

func (e *engine) onKeyUp(keyCode uint32) {
	e.keys.Release(keyCode)
}

func (e *engine) onResize(width, height int) {
	e.pendingSize.Store(&[2]int{width, height})
}

// handleRender runs the render thread. It reports exactly one result on results: nil after a
// quit signal, the setup or frame error, or a *RenderPanicError if the thread panicked.
func (e *engine) handleRender(results chan<- error) {
	defer e.wg.Done()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = &RenderPanicError{Value: r, Stack: debug.Stack()}
		}
		results <- err
	}()

	// The GL context is bound to this OS thread for the rest of the goroutine's life. A
	// goroutine that exits while locked takes its thread down with it.
	runtime.LockOSThread()

	err = e.render()
}

func (e *engine) render() error {
	ctx, err := e.window.TakeContext()
	if err != nil {
		return fmt.Errorf("failed to take GL context: %w", err)
	}
	if err := ctx.MakeCurrent(); err != nil {
		return err
	}
	defer ctx.Release()

	drv, err := e.newDriver()
	if err != nil {
		return fmt.Errorf("failed to create driver: %w", err)
	}

	loop, err := e.newRenderer(drv)
	if err != nil {
		return fmt.Errorf("render setup failed: %w", err)
	}
	defer loop.Release()

	log := e.logger.Named("render")
	log.Info("render loop started")

	start := time.Now()
	lastRender := start

	for {
		select {
		case <-e.quitChannel:
			log.Info("render loop stopped")
			return nil
		default:
		}

		now := time.Now()
		frame := renderer.FrameTime{
			Elapsed: float32(now.Sub(start).Seconds()),
			Delta:   float32(now.Sub(lastRender).Seconds()),
		}
		lastRender = now

		if size := e.pendingSize.Swap(nil); size != nil {
			loop.Resize(size[0], size[1])
		}

		e.keys.Read(func(pressed []uint32) {
			loop.HandleInput(pressed, frame.Delta)
		})

		if err := loop.RenderFrame(frame); err != nil {
			return fmt.Errorf("frame failed: %w", err)
		}
		ctx.SwapBuffers()

		if e.profilingEnabled {
			e.profiler.Tick()
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// handleWatchdog waits for the single render result. A failure flips the health flag,
// is logged and wakes the event loop so it can observe the flag.
func (e *engine) handleWatchdog(results <-chan error) {
	defer e.wg.Done()

	err := <-results
	if err == nil {
		return
	}

	e.errMu.Lock()
	e.renderErr = err
	e.errMu.Unlock()

	if e.health.MarkFailed() {
		log := e.logger.Named("watchdog")
		var panicErr *RenderPanicError
		if errors.As(err, &panicErr) {
			log.Error("render thread panicked", zap.Error(err), zap.ByteString("stack", panicErr.Stack))
		} else {
			log.Error("render thread failed", zap.Error(err))
		}
	}
	e.window.Wake()
}
