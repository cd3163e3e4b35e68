package engine

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/gloom-go/common"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver/drivertest"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/shader"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// fakeContext records the render thread's use of the GL context.
type fakeContext struct {
	makeErr  error
	current  atomic.Bool
	swaps    atomic.Int64
	released atomic.Bool
}

func (c *fakeContext) MakeCurrent() error {
	if c.makeErr != nil {
		return c.makeErr
	}
	c.current.Store(true)
	return nil
}

func (c *fakeContext) SwapBuffers() {
	c.swaps.Add(1)
}

func (c *fakeContext) Release() {
	c.current.Store(false)
	c.released.Store(true)
}

// fakeWindow runs an event loop fed by post, the way the GLFW window blocks in WaitEvents.
type fakeWindow struct {
	ctx   *fakeContext
	taken atomic.Bool

	events chan func()
	wake   chan struct{}

	running        atomic.Bool
	closeRequested atomic.Bool
	closed         atomic.Bool

	onUpdate  func()
	onResize  func(width, height int)
	onKeyDown func(keyCode uint32)
	onKeyUp   func(keyCode uint32)
}

var _ Window = &fakeWindow{}

func newFakeWindow() *fakeWindow {
	w := &fakeWindow{
		ctx:    &fakeContext{},
		events: make(chan func(), 16),
		wake:   make(chan struct{}, 1),
	}
	w.running.Store(true)
	return w
}

func (w *fakeWindow) SetUpdateCallback(callback func())                  { w.onUpdate = callback }
func (w *fakeWindow) SetResizeCallback(callback func(width, height int)) { w.onResize = callback }
func (w *fakeWindow) SetKeyDownCallback(callback func(keyCode uint32))   { w.onKeyDown = callback }
func (w *fakeWindow) SetKeyUpCallback(callback func(keyCode uint32))     { w.onKeyUp = callback }

func (w *fakeWindow) TakeContext() (driver.Context, error) {
	if !w.taken.CompareAndSwap(false, true) {
		return nil, driver.ErrContextTaken
	}
	return w.ctx, nil
}

func (w *fakeWindow) RequestClose() {
	w.closeRequested.Store(true)
	w.running.Store(false)
}

func (w *fakeWindow) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *fakeWindow) ProcessMessages() {
	for w.running.Load() {
		select {
		case ev := <-w.events:
			ev()
		case <-w.wake:
		}
		if !w.running.Load() {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

func (w *fakeWindow) Close() error {
	w.closed.Store(true)
	return nil
}

// post queues fn to run on the event loop goroutine.
func (w *fakeWindow) post(fn func()) {
	w.events <- fn
}

func (w *fakeWindow) keyDown(key uint32) { w.post(func() { w.onKeyDown(key) }) }
func (w *fakeWindow) keyUp(key uint32)   { w.post(func() { w.onKeyUp(key) }) }

// fakeLoop is a RenderLoop whose frames can panic, fail or block on demand.
type fakeLoop struct {
	mu       sync.Mutex
	frames   int
	seen     map[uint32]bool
	pressed  []uint32
	resized  [2]int
	released bool

	panicAt int
	failAt  int
	block   chan struct{}
}

var _ renderer.RenderLoop = &fakeLoop{}

var errFrame = errors.New("uniform upload failed")

func newFakeLoop() *fakeLoop {
	return &fakeLoop{seen: make(map[uint32]bool)}
}

func (l *fakeLoop) HandleInput(pressed []uint32, deltaTime float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pressed = slices.Clone(pressed)
	for _, k := range pressed {
		l.seen[k] = true
	}
}

func (l *fakeLoop) RenderFrame(t renderer.FrameTime) error {
	l.mu.Lock()
	l.frames++
	n := l.frames
	l.mu.Unlock()

	if n == l.panicAt {
		panic("context lost")
	}
	if n == l.failAt {
		return errFrame
	}
	if l.block != nil {
		<-l.block
	}
	return nil
}

func (l *fakeLoop) Resize(width, height int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resized = [2]int{width, height}
}

func (l *fakeLoop) TimeOffset() float32 { return 0 }

func (l *fakeLoop) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = true
}

func (l *fakeLoop) frameCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

func (l *fakeLoop) sawKey(key uint32) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen[key]
}

func (l *fakeLoop) lastPressed() []uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.pressed)
}

func (l *fakeLoop) isReleased() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func newTestEngine(t *testing.T, w *fakeWindow, loop *fakeLoop, options ...EngineBuilderOption) Engine {
	t.Helper()
	options = append([]EngineBuilderOption{
		WithWindow(w),
		WithLogger(zaptest.NewLogger(t)),
		WithDriverFactory(func() (driver.Driver, error) { return drivertest.New(), nil }),
		WithRendererFactory(func(driver.Driver) (renderer.RenderLoop, error) { return loop, nil }),
		WithRenderFrameLimit(1000),
	}, options...)
	e, err := NewEngine(options...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

// runAsync runs the engine's event loop on a separate goroutine and returns its result channel.
func runAsync(e Engine) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- e.Run()
	}()
	return done
}

func awaitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return")
		return nil
	}
}

func TestRenderPanicShutsDownGracefully(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	w := newFakeWindow()
	loop := newFakeLoop()
	loop.panicAt = 3
	e := newTestEngine(t, w, loop, WithLogger(zap.New(core)))

	err := awaitRun(t, runAsync(e))

	var panicErr *RenderPanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Run() error = %v, want *RenderPanicError", err)
	}
	if panicErr.Value != "context lost" {
		t.Errorf("panic value = %v, want %q", panicErr.Value, "context lost")
	}
	if len(panicErr.Stack) == 0 {
		t.Error("panic stack is empty")
	}
	if e.Healthy() {
		t.Error("Healthy() = true after a render panic")
	}
	if !w.closeRequested.Load() || !w.closed.Load() {
		t.Errorf("close requested/closed = %t/%t, want both", w.closeRequested.Load(), w.closed.Load())
	}
	if !loop.isReleased() || !w.ctx.released.Load() {
		t.Error("render resources were not released after the panic")
	}
	if got := logs.FilterMessage("render thread panicked").Len(); got != 1 {
		t.Errorf("logged the panic %d times, want 1", got)
	}
}

func TestFrameErrorShutsDown(t *testing.T) {
	w := newFakeWindow()
	loop := newFakeLoop()
	loop.failAt = 2
	e := newTestEngine(t, w, loop)

	err := awaitRun(t, runAsync(e))

	if !errors.Is(err, errFrame) {
		t.Fatalf("Run() error = %v, want %v", err, errFrame)
	}
	if e.Healthy() {
		t.Error("Healthy() = true after a frame error")
	}
}

func TestSetupFailures(t *testing.T) {
	errSetup := errors.New("shader build failed")

	tests := []struct {
		name    string
		window  func() *fakeWindow
		options []EngineBuilderOption
		want    error
	}{
		{
			name: "renderer setup",
			options: []EngineBuilderOption{
				WithRendererFactory(func(driver.Driver) (renderer.RenderLoop, error) { return nil, errSetup }),
			},
			want: errSetup,
		},
		{
			name: "driver creation",
			options: []EngineBuilderOption{
				WithDriverFactory(func() (driver.Driver, error) { return nil, errSetup }),
			},
			want: errSetup,
		},
		{
			name: "context already taken",
			window: func() *fakeWindow {
				w := newFakeWindow()
				w.taken.Store(true)
				return w
			},
			want: driver.ErrContextTaken,
		},
		{
			name: "make current",
			window: func() *fakeWindow {
				w := newFakeWindow()
				w.ctx.makeErr = errSetup
				return w
			},
			want: errSetup,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newFakeWindow()
			if tt.window != nil {
				w = tt.window()
			}
			e := newTestEngine(t, w, newFakeLoop(), tt.options...)

			err := awaitRun(t, runAsync(e))

			if !errors.Is(err, tt.want) {
				t.Errorf("Run() error = %v, want %v", err, tt.want)
			}
			if e.Healthy() {
				t.Error("Healthy() = true after a setup failure")
			}
			if !w.closed.Load() {
				t.Error("window was not closed")
			}
		})
	}
}

func TestEscapeClosesWindow(t *testing.T) {
	w := newFakeWindow()
	loop := newFakeLoop()
	e := newTestEngine(t, w, loop)
	done := runAsync(e)

	waitFor(t, "first frames", func() bool { return loop.frameCount() > 2 })
	w.keyDown(common.KeyEsc)

	if err := awaitRun(t, done); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !e.Healthy() {
		t.Error("Healthy() = false after a normal close")
	}
	if !loop.isReleased() || !w.ctx.released.Load() || !w.closed.Load() {
		t.Error("resources were not released after escape")
	}
	if w.ctx.swaps.Load() == 0 {
		t.Error("no buffer swaps were presented")
	}
}

func TestKeyEventsReachRenderThread(t *testing.T) {
	w := newFakeWindow()
	loop := newFakeLoop()
	e := newTestEngine(t, w, loop)
	done := runAsync(e)

	w.keyDown(common.KeyA)
	w.keyDown(common.KeyA)
	waitFor(t, "KeyA on the render thread", func() bool { return loop.sawKey(common.KeyA) })
	if got := e.Keys().Len(); got != 1 {
		t.Errorf("Keys().Len() = %d after a repeated key-down, want 1", got)
	}

	w.keyUp(common.KeyA)
	waitFor(t, "KeyA released", func() bool { return len(loop.lastPressed()) == 0 })

	e.Quit()
	if err := awaitRun(t, done); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if e.Keys().Contains(common.KeyA) {
		t.Error("KeyA still pressed after key-up")
	}
}

func TestResizeReachesRenderThread(t *testing.T) {
	w := newFakeWindow()
	loop := newFakeLoop()
	e := newTestEngine(t, w, loop)
	done := runAsync(e)

	w.post(func() { w.onResize(800, 600) })
	waitFor(t, "resize", func() bool {
		loop.mu.Lock()
		defer loop.mu.Unlock()
		return loop.resized == [2]int{800, 600}
	})

	e.Quit()
	if err := awaitRun(t, done); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestShutdownTimeout(t *testing.T) {
	w := newFakeWindow()
	loop := newFakeLoop()
	loop.block = make(chan struct{})
	unblock := sync.OnceFunc(func() { close(loop.block) })
	t.Cleanup(unblock)
	// The blocked render goroutine may outlive the test, so it must not log through t.
	e := newTestEngine(t, w, loop, WithShutdownTimeout(20*time.Millisecond), WithLogger(zap.NewNop()))
	done := runAsync(e)

	waitFor(t, "first frame", func() bool { return loop.frameCount() > 0 })
	e.Quit()

	if err := awaitRun(t, done); !errors.Is(err, ErrShutdownTimeout) {
		t.Fatalf("Run() error = %v, want ErrShutdownTimeout", err)
	}
	if !w.ctx.current.Load() {
		t.Fatal("context no longer current, the render thread should still own it")
	}
	if w.closed.Load() {
		t.Error("window closed while the render thread still holds the context current")
	}

	// Once the stuck frame returns, the render thread still releases in order.
	unblock()
	waitFor(t, "late release", func() bool { return loop.isReleased() && w.ctx.released.Load() })
	if w.closed.Load() {
		t.Error("window closed after Run returned")
	}
}

func TestEngineDrivesRenderLoop(t *testing.T) {
	drv := drivertest.New()
	w := newFakeWindow()
	vert := shader.Source{Path: "simple.vert", Type: shader.ShaderTypeVertex, Text: "uniform float elapsed;\nvoid main() {}\n"}
	frag := shader.Source{Path: "simple.frag", Type: shader.ShaderTypeFragment, Text: "uniform float offset;\nvoid main() {}\n"}

	e, err := NewEngine(
		WithWindow(w),
		WithLogger(zaptest.NewLogger(t)),
		WithDriverFactory(func() (driver.Driver, error) { return drv, nil }),
		WithRendererFactory(func(d driver.Driver) (renderer.RenderLoop, error) {
			return renderer.NewRenderLoop(d, renderer.WithSources(vert, frag))
		}),
		WithRenderFrameLimit(1000),
		WithProfiling(true, 10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	done := runAsync(e)

	waitFor(t, "draws", func() bool { return drv.Draws() >= 5 })
	w.keyDown(common.KeyEsc)

	if err := awaitRun(t, done); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := drv.LiveHandles(); got != 0 {
		t.Errorf("LiveHandles() = %d after shutdown, want 0", got)
	}
}

func TestNewEngineRequiresCollaborators(t *testing.T) {
	drvFactory := WithDriverFactory(func() (driver.Driver, error) { return drivertest.New(), nil })
	loopFactory := WithRendererFactory(func(driver.Driver) (renderer.RenderLoop, error) { return newFakeLoop(), nil })

	tests := []struct {
		name    string
		options []EngineBuilderOption
	}{
		{"no window", []EngineBuilderOption{drvFactory, loopFactory}},
		{"no driver factory", []EngineBuilderOption{WithWindow(newFakeWindow()), loopFactory}},
		{"no renderer factory", []EngineBuilderOption{WithWindow(newFakeWindow()), drvFactory}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEngine(tt.options...); err == nil {
				t.Error("NewEngine() error = nil")
			}
		})
	}
}

func TestHealthFlagFailsOnce(t *testing.T) {
	h := NewHealthFlag()
	if !h.Healthy() {
		t.Fatal("new flag is not healthy")
	}

	var transitions atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h.MarkFailed() {
				transitions.Add(1)
			}
			_ = h.Healthy()
		}()
	}
	wg.Wait()

	if got := transitions.Load(); got != 1 {
		t.Errorf("MarkFailed() transitioned %d times, want 1", got)
	}
	if h.Healthy() {
		t.Error("Healthy() = true after MarkFailed")
	}
}

func TestRenderPanicErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	if err := (&RenderPanicError{Value: cause}); !errors.Is(err, cause) {
		t.Errorf("errors.Is(%v, cause) = false", err)
	}
	if err := (&RenderPanicError{Value: 42}); err.Unwrap() != nil {
		t.Errorf("Unwrap() = %v for a non-error value, want nil", err.Unwrap())
	}
}
