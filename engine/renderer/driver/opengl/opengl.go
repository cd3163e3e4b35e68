// Package opengl implements driver.Driver on top of go-gl's OpenGL 4.6 core bindings.
package opengl

import (
	"fmt"
	"unsafe"

	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// glDriver forwards every call to the GL function pointers loaded by gl.Init.
type glDriver struct {
	// debugCallback is kept reachable for as long as it is registered with the driver.
	debugCallback func(msg driver.DebugMessage)
}

var _ driver.Driver = &glDriver{}

// New loads the GL function pointers for the context current on the calling thread.
// The context must already be current; the returned driver is only valid on this thread.
//
// Reference: https://pkg.go.dev/github.com/go-gl/gl/v4.6-core/gl#Init
//
// Returns:
//   - driver.Driver: the GL-backed driver
//   - error: error if the function pointers could not be loaded
func New() (driver.Driver, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return &glDriver{}, nil
}

// Version returns the GL_VERSION string of the current context.
func Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

func (d *glDriver) CreateProgram() uint32 {
	return gl.CreateProgram()
}

func (d *glDriver) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (d *glDriver) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (d *glDriver) CurrentProgram() uint32 {
	var program int32
	gl.GetIntegerv(gl.CURRENT_PROGRAM, &program)
	return uint32(program)
}

func (d *glDriver) CreateShader(stage uint32) uint32 {
	return gl.CreateShader(stage)
}

func (d *glDriver) ShaderSource(shader uint32, source string) {
	csources, free := gl.Strs(source + "\x00")
	defer free()
	gl.ShaderSource(shader, 1, csources, nil)
}

func (d *glDriver) CompileShader(shader uint32) {
	gl.CompileShader(shader)
}

func (d *glDriver) ShaderCompiled(shader uint32) bool {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status == gl.TRUE
}

func (d *glDriver) ShaderInfoLog(shader uint32, maxLength int) string {
	buf := make([]byte, maxLength+1)
	var length int32
	gl.GetShaderInfoLog(shader, int32(len(buf)), &length, &buf[0])
	return string(buf[:length])
}

func (d *glDriver) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (d *glDriver) AttachShader(program, shader uint32) {
	gl.AttachShader(program, shader)
}

func (d *glDriver) LinkProgram(program uint32) {
	gl.LinkProgram(program)
}

func (d *glDriver) ProgramLinked(program uint32) bool {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	return status == gl.TRUE
}

func (d *glDriver) ProgramInfoLog(program uint32, maxLength int) string {
	buf := make([]byte, maxLength+1)
	var length int32
	gl.GetProgramInfoLog(program, int32(len(buf)), &length, &buf[0])
	return string(buf[:length])
}

func (d *glDriver) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *glDriver) GetError() driver.ErrorCode {
	return driver.ErrorCode(gl.GetError())
}

func (d *glDriver) Uniform1f(location int32, value float32) {
	gl.Uniform1f(location, value)
}

func (d *glDriver) Uniform1i(location int32, value int32) {
	gl.Uniform1i(location, value)
}

func (d *glDriver) Uniform3fv(location int32, value mgl32.Vec3) {
	gl.Uniform3fv(location, 1, &value[0])
}

func (d *glDriver) UniformMatrix4fv(location int32, count int32, transpose bool, value mgl32.Mat4) {
	gl.UniformMatrix4fv(location, count, transpose, &value[0])
}

func (d *glDriver) GenVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (d *glDriver) DeleteVertexArray(vao uint32) {
	gl.DeleteVertexArrays(1, &vao)
}

func (d *glDriver) BindVertexArray(vao uint32) {
	gl.BindVertexArray(vao)
}

func (d *glDriver) BoundVertexArray() uint32 {
	var vao int32
	gl.GetIntegerv(gl.VERTEX_ARRAY_BINDING, &vao)
	return uint32(vao)
}

func (d *glDriver) GenBuffers(n int) []uint32 {
	buffers := make([]uint32, n)
	if n > 0 {
		gl.GenBuffers(int32(n), &buffers[0])
	}
	return buffers
}

func (d *glDriver) DeleteBuffers(buffers []uint32) {
	if len(buffers) == 0 {
		return
	}
	gl.DeleteBuffers(int32(len(buffers)), &buffers[0])
}

func (d *glDriver) BindBuffer(target driver.BufferTarget, buffer uint32) {
	gl.BindBuffer(uint32(target), buffer)
}

func (d *glDriver) BoundBuffer(target driver.BufferTarget) uint32 {
	var pname uint32
	switch target {
	case driver.TargetArrayBuffer:
		pname = gl.ARRAY_BUFFER_BINDING
	case driver.TargetElementArrayBuffer:
		pname = gl.ELEMENT_ARRAY_BUFFER_BINDING
	default:
		return 0
	}
	var buffer int32
	gl.GetIntegerv(pname, &buffer)
	return uint32(buffer)
}

func (d *glDriver) BufferData(target driver.BufferTarget, size int, data unsafe.Pointer, usage uint32) {
	gl.BufferData(uint32(target), size, data, usage)
}

func (d *glDriver) EnableVertexAttribArray(index uint32) {
	gl.EnableVertexAttribArray(index)
}

func (d *glDriver) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	gl.VertexAttribPointer(index, size, xtype, normalized, stride, gl.PtrOffset(offset))
}

func (d *glDriver) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (d *glDriver) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (d *glDriver) Clear(mask uint32) {
	gl.Clear(mask)
}

func (d *glDriver) DrawElements(mode uint32, count int32, xtype uint32, offset int) {
	gl.DrawElements(mode, count, xtype, gl.PtrOffset(offset))
}

func (d *glDriver) Enable(capability uint32) {
	gl.Enable(capability)
}

func (d *glDriver) Disable(capability uint32) {
	gl.Disable(capability)
}

func (d *glDriver) BlendFunc(sfactor, dfactor uint32) {
	gl.BlendFunc(sfactor, dfactor)
}

// SetDebugCallback registers callback through glDebugMessageCallback and enables
// DEBUG_OUTPUT. A nil callback disables DEBUG_OUTPUT instead.
// Requires a 4.3+ context; the caller is expected to enable DEBUG_OUTPUT_SYNCHRONOUS so
// messages arrive on the render thread.
//
// Reference: https://pkg.go.dev/github.com/go-gl/gl/v4.6-core/gl#DebugMessageCallback
func (d *glDriver) SetDebugCallback(callback func(msg driver.DebugMessage)) {
	d.debugCallback = callback
	if callback == nil {
		gl.Disable(gl.DEBUG_OUTPUT)
		return
	}
	gl.Enable(gl.DEBUG_OUTPUT)
	gl.DebugMessageCallback(func(source, gltype, id, severity uint32, _ int32, message string, _ unsafe.Pointer) {
		if d.debugCallback == nil {
			return
		}
		d.debugCallback(driver.DebugMessage{
			Source:   source,
			Type:     gltype,
			ID:       id,
			Severity: severity,
			Message:  message,
		})
	}, nil)
}
