package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	parent  *engineWindow
	window  *glfw.Window
	running bool
}

// glfwContext is the driver.Context of a GLFW window.
type glfwContext struct {
	window *glfw.Window
	vsync  bool
}

var _ driver.Context = &glfwContext{}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

// newPlatformWindow creates the GLFW window with input callbacks and stores it as the internal window.
// The GL context is created with the window but is not made current on this thread.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	// GLFW event processing must stay on the main OS thread.
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
	glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
	glfw.WindowHint(glfw.ContextVersionMajor, w.glMajor)
	glfw.WindowHint(glfw.ContextVersionMinor, w.glMinor)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLDebugContext, boolHint(w.debugContext))
	glfw.WindowHint(glfw.Resizable, boolHint(w.resizable))

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}

	if w.minWidth > 0 || w.minHeight > 0 {
		win.SetSizeLimits(w.minWidth, w.minHeight, glfw.DontCare, glfw.DontCare)
	}

	gw := &glfwWindow{
		parent:  w,
		window:  win,
		running: true,
	}
	w.internalWindow = gw

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetKeyCallback
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyUnknown {
			return
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			if w.onKeyDown != nil {
				w.onKeyDown(uint32(key))
			}
		case glfw.Release:
			if w.onKeyUp != nil {
				w.onKeyUp(uint32(key))
			}
		}
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetCloseCallback
	win.SetCloseCallback(func(_ *glfw.Window) {
		w.logger.Debug("window close requested")
	})

	// On high-DPI displays the framebuffer size differs from the window size; the viewport
	// needs pixel dimensions.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

// platformContext wraps the GLFW window's context for the render thread.
func platformContext(w *engineWindow) (driver.Context, error) {
	if w.internalWindow == nil {
		return nil, fmt.Errorf("window is not initialized")
	}
	gw := w.internalWindow.(*glfwWindow)
	return &glfwContext{window: gw.window, vsync: w.vsync}, nil
}

// MakeCurrent binds the context to the calling thread and applies the swap interval.
// go-gl/glfw reports GLFW errors by panicking; they are returned as errors here.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.MakeContextCurrent
func (c *glfwContext) MakeCurrent() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to make context current: %v", r)
		}
	}()
	c.window.MakeContextCurrent()
	if c.vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	return nil
}

// SwapBuffers presents the back buffer.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SwapBuffers
func (c *glfwContext) SwapBuffers() {
	c.window.SwapBuffers()
}

// Release detaches the context from the calling thread.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#DetachCurrentContext
func (c *glfwContext) Release() {
	glfw.DetachCurrentContext()
}

// platformIsRunningCheck returns whether the GLFW window is still active.
// Returns false if the internal window is nil, the running flag is cleared, or GLFW reports ShouldClose.
//
// Parameters:
//   - w: the engineWindow to check
//
// Returns:
//   - bool: true if the window is still running
func platformIsRunningCheck(w *engineWindow) bool {
	if w.internalWindow == nil {
		return false
	}
	gw := w.internalWindow.(*glfwWindow)
	return gw.running && !gw.window.ShouldClose()
}

// platformRequestClose flags the window so the message loop exits after the current iteration.
func platformRequestClose(w *engineWindow) {
	if w.internalWindow == nil {
		return
	}
	gw := w.internalWindow.(*glfwWindow)
	gw.running = false
	gw.window.SetShouldClose(true)
}

// platformWake posts an empty event so a blocked WaitEvents returns.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PostEmptyEvent
func platformWake() {
	glfw.PostEmptyEvent()
}

// platformCloseWindow destroys the GLFW window and terminates the GLFW library.
// Returns an error if the internal window has not been initialized.
//
// Parameters:
//   - w: the engineWindow to close
//
// Returns:
//   - error: error if the window is not initialized
func platformCloseWindow(w *engineWindow) error {
	if w.internalWindow == nil {
		return fmt.Errorf("window is not initialized")
	}
	gw := w.internalWindow.(*glfwWindow)
	gw.running = false
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	w.internalWindow = nil
	glfw.Terminate()
	w.logger.Info("window closed")
	return nil
}

// platformProcessMessages blocks until at least one event is available, then processes it.
// The render thread presents on its own, so the main thread has nothing to do between events.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#WaitEvents
func platformProcessMessages(w *engineWindow) bool {
	glfw.WaitEvents()
	return platformIsRunningCheck(w)
}
