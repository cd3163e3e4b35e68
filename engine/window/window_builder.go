package window

import "go.uber.org/zap"

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithWidth sets the initial window width.
//
// Parameters:
//   - width: initial width in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithWidth(width int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
	}
}

// WithHeight sets the initial window height.
//
// Parameters:
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithHeight(height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.height = height
	}
}

// WithMinSize sets the minimum allowed window size.
//
// Parameters:
//   - width: minimum width in pixels
//   - height: minimum height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth = width
		w.minHeight = height
	}
}

// WithResizable sets whether the user can resize the window.
//
// Parameters:
//   - resizable: true to allow resizing (default)
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithResizable(resizable bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.resizable = resizable
	}
}

// WithVSync sets whether buffer swaps wait for the vertical blank.
//
// Parameters:
//   - vsync: true for a swap interval of 1 (default), false for 0
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithVSync(vsync bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.vsync = vsync
	}
}

// WithGLVersion sets the requested OpenGL core profile version. Defaults to 4.6.
//
// Parameters:
//   - major: the major version
//   - minor: the minor version
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithGLVersion(major, minor int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.glMajor = major
		w.glMinor = minor
	}
}

// WithDebugContext sets whether a debug context is requested.
//
// Parameters:
//   - debug: true to request a debug context (default)
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithDebugContext(debug bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.debugContext = debug
	}
}

// WithLogger sets the logger receiving window lifecycle messages.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) WindowBuilderOption {
	return func(w *engineWindow) {
		if logger != nil {
			w.logger = logger
		}
	}
}
