// Package driver describes the slice of the OpenGL API the harness consumes.
// Implementations live in sub-packages: opengl talks to a real context, drivertest
// keeps an in-memory model of the binding state for tests.
package driver

import (
	"errors"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Driver is the GPU driver surface. Every method must be called from the thread that
// currently owns the GL context.
//
// The API is a large mutable global: each binding point (current program, bound array
// buffer, bound element buffer, bound vertex array) holds exactly one handle at a time
// and handle 0 is the neutral binding.
type Driver interface {
	// CreateProgram allocates an empty program object.
	//
	// Returns:
	//   - uint32: the new program handle (never 0 on success)
	CreateProgram() uint32

	// DeleteProgram releases a program object.
	//
	// Parameters:
	//   - program: the program handle to delete
	DeleteProgram(program uint32)

	// UseProgram makes program the current program. 0 clears the binding.
	//
	// Parameters:
	//   - program: the program handle to make current
	UseProgram(program uint32)

	// CurrentProgram queries the current program binding.
	//
	// Returns:
	//   - uint32: the currently active program handle, 0 if none
	CurrentProgram() uint32

	// CreateShader allocates a shader stage object of the given stage enum.
	//
	// Parameters:
	//   - stage: one of the Stage* constants
	//
	// Returns:
	//   - uint32: the new shader handle
	CreateShader(stage uint32) uint32

	// ShaderSource replaces the source text of a shader object.
	//
	// Parameters:
	//   - shader: the shader handle
	//   - source: the full source text
	ShaderSource(shader uint32, source string)

	// CompileShader compiles the source previously set on shader.
	CompileShader(shader uint32)

	// ShaderCompiled reports the COMPILE_STATUS of a shader.
	ShaderCompiled(shader uint32) bool

	// ShaderInfoLog retrieves at most maxLength bytes of the shader info log.
	ShaderInfoLog(shader uint32, maxLength int) string

	// DeleteShader releases a shader object.
	DeleteShader(shader uint32)

	// AttachShader attaches a compiled shader to a program.
	AttachShader(program, shader uint32)

	// LinkProgram links all attached shaders of program.
	LinkProgram(program uint32)

	// ProgramLinked reports the LINK_STATUS of a program.
	ProgramLinked(program uint32) bool

	// ProgramInfoLog retrieves at most maxLength bytes of the program info log.
	ProgramInfoLog(program uint32, maxLength int) string

	// GetUniformLocation resolves a uniform name against a linked program.
	//
	// Parameters:
	//   - program: the program handle
	//   - name: the uniform name, without a trailing NUL
	//
	// Returns:
	//   - int32: the location, or a negative value if the uniform is not active
	GetUniformLocation(program uint32, name string) int32

	// GetError pops the oldest recorded error code, ErrorNone when the channel is empty.
	GetError() ErrorCode

	// Uniform1f assigns a float uniform on the current program.
	Uniform1f(location int32, value float32)

	// Uniform1i assigns an int uniform on the current program.
	Uniform1i(location int32, value int32)

	// Uniform3fv assigns a vec3 uniform on the current program.
	Uniform3fv(location int32, value mgl32.Vec3)

	// UniformMatrix4fv assigns count mat4 values starting at value on the current program.
	UniformMatrix4fv(location int32, count int32, transpose bool, value mgl32.Mat4)

	// GenVertexArray allocates a vertex array object.
	GenVertexArray() uint32

	// DeleteVertexArray releases a vertex array object.
	DeleteVertexArray(vao uint32)

	// BindVertexArray binds vao. 0 clears the binding.
	BindVertexArray(vao uint32)

	// BoundVertexArray queries the VERTEX_ARRAY_BINDING.
	BoundVertexArray() uint32

	// GenBuffers allocates n buffer objects.
	GenBuffers(n int) []uint32

	// DeleteBuffers releases the given buffer objects.
	DeleteBuffers(buffers []uint32)

	// BindBuffer binds buffer to target. 0 clears the binding.
	BindBuffer(target BufferTarget, buffer uint32)

	// BoundBuffer queries the buffer bound to target.
	BoundBuffer(target BufferTarget) uint32

	// BufferData uploads size bytes starting at data to the buffer bound to target.
	//
	// Parameters:
	//   - target: the binding point whose buffer receives the data
	//   - size: the number of bytes to copy
	//   - data: pointer to the first byte of contiguous memory
	//   - usage: a Usage* hint
	BufferData(target BufferTarget, size int, data unsafe.Pointer, usage uint32)

	// EnableVertexAttribArray enables the generic vertex attribute at index.
	EnableVertexAttribArray(index uint32)

	// VertexAttribPointer describes the layout of the attribute at index in the bound array buffer.
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int)

	// ClearColor sets the clear color.
	ClearColor(r, g, b, a float32)

	// Viewport maps normalized device coordinates to the given window rectangle.
	Viewport(x, y, width, height int32)

	// Clear clears the buffers selected by mask.
	Clear(mask uint32)

	// DrawElements issues an indexed draw using the bound element buffer.
	DrawElements(mode uint32, count int32, xtype uint32, offset int)

	// Enable turns on a server-side capability.
	Enable(capability uint32)

	// Disable turns off a server-side capability.
	Disable(capability uint32)

	// BlendFunc sets the source and destination blend factors.
	BlendFunc(sfactor, dfactor uint32)

	// SetDebugCallback registers a callback receiving driver debug messages and turns
	// DEBUG_OUTPUT on. A nil callback turns DEBUG_OUTPUT off and drops later messages.
	SetDebugCallback(callback func(msg DebugMessage))
}

// ErrContextTaken is returned when the single GL context of a window is requested twice.
var ErrContextTaken = errors.New("driver: context already taken")

// Context is the windowing-side handle to a GL context. Exactly one thread owns it;
// MakeCurrent must run on that thread before any Driver call.
type Context interface {
	// MakeCurrent binds the context to the calling OS thread.
	//
	// Returns:
	//   - error: error if the context could not be made current
	MakeCurrent() error

	// SwapBuffers presents the back buffer. Blocks until the swap interval elapses.
	SwapBuffers()

	// Release detaches the context from the calling thread.
	Release()
}

// DebugMessage is a message delivered through the driver debug callback.
type DebugMessage struct {
	Source   uint32
	Type     uint32
	ID       uint32
	Severity uint32
	Message  string
}
