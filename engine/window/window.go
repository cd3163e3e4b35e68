package window

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
	"go.uber.org/zap"
)

// Window provides platform windowing, the OpenGL context and input event handling.
// Every method except TakeContext and Wake must be called from the main thread.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// TakeContext hands out the window's GL context. It succeeds exactly once; the caller
	// becomes the only thread allowed to make the context current.
	//
	// Returns:
	//   - driver.Context: the context handle
	//   - error: driver.ErrContextTaken on every call after the first
	TakeContext() (driver.Context, error)

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// RequestClose asks the message loop to exit after the current iteration.
	RequestClose()

	// Wake unblocks a ProcessMessages call waiting for events. Safe to call from any goroutine.
	Wake()

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	logger *zap.Logger

	// title is the window title displayed in the title bar.
	title string

	// width is the current framebuffer width in pixels.
	width int

	// height is the current framebuffer height in pixels.
	height int

	// minWidth and minHeight bound resizing from below, 0 leaves them unbounded.
	minWidth  int
	minHeight int

	resizable bool
	vsync     bool

	// glMajor and glMinor select the requested OpenGL core profile version.
	glMajor int
	glMinor int

	// debugContext requests a context that delivers driver debug messages.
	debugContext bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// contextTaken guards the one-shot TakeContext handoff.
	contextTaken atomic.Bool

	// onUpdate is called each iteration of the message loop (if set).
	onUpdate func()

	// onResize is called when the framebuffer is resized.
	onResize func(width, height int)

	// onKeyDown is called when a key is pressed or repeats.
	onKeyDown func(keyCode uint32)

	// onKeyUp is called when a key is released.
	onKeyUp func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new Window with the specified options.
// Applies default values first, then each option in order. Must be called from the main thread.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the spawned window
//   - error: error if GLFW or the window could not be initialized
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	w.logger.Info("window created",
		zap.String("title", w.title),
		zap.Int("width", w.width),
		zap.Int("height", w.height),
	)
	return w, nil
}

func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		logger:       zap.NewNop(),
		title:        "gloom",
		width:        1280,
		height:       720,
		resizable:    true,
		vsync:        true,
		glMajor:      4,
		glMinor:      6,
		debugContext: true,
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) TakeContext() (driver.Context, error) {
	if !w.contextTaken.CompareAndSwap(false, true) {
		return nil, driver.ErrContextTaken
	}
	return platformContext(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Wake() {
	platformWake()
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
