package common

// Key codes shared between the window and the render loop. The values match GLFW key
// codes, which use ASCII for printable keys, so a glfw.Key converts with a plain uint32().
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyA     uint32 = 65  // A key (ASCII), advances the time accumulator
	KeyD     uint32 = 68  // D key (ASCII), rewinds the time accumulator
	KeyR     uint32 = 82  // R key (ASCII), resets the time accumulator
	KeySpace uint32 = 32  // Spacebar (ASCII)
	KeyEsc   uint32 = 256 // Escape key (GLFW), requests shutdown
)

// Arrow keys (GLFW).
const (
	KeyRight uint32 = 262
	KeyLeft  uint32 = 263
	KeyDown  uint32 = 264
	KeyUp    uint32 = 265
)
