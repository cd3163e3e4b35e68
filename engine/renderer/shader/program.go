package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/gloom-go/engine/renderer/bindable"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
	"github.com/go-gl/mathgl/mgl32"
)

// Program is a linked GPU program plus a cache of resolved uniform locations.
// It owns its program handle exclusively; only ProgramBuilder.Link creates one.
type Program struct {
	drv    driver.Driver
	handle uint32

	// uniforms holds resolved locations. A missing key means "not resolved yet",
	// not "does not exist".
	uniforms map[string]int32

	released bool
}

var _ bindable.Bindable = &Program{}

func newProgram(drv driver.Driver, handle uint32) *Program {
	return &Program{
		drv:      drv,
		handle:   handle,
		uniforms: make(map[string]int32),
	}
}

// Handle returns the driver program handle.
func (p *Program) Handle() uint32 {
	return p.handle
}

// Bind makes the program current.
func (p *Program) Bind() {
	p.drv.UseProgram(p.handle)
}

// Unbind clears the current program binding.
func (p *Program) Unbind() {
	p.drv.UseProgram(0)
}

// Location returns the cached location of a resolved uniform.
func (p *Program) Location(name string) (int32, bool) {
	loc, ok := p.uniforms[name]
	return loc, ok
}

// LocateUniform resolves name against the program and caches its location.
// Already cached names return immediately without querying the driver.
//
// Parameters:
//   - name: the uniform name as declared in GLSL
//
// Returns:
//   - error: *NameEncodingError, *UniformError, ErrUniformNotFound or ErrProgramReleased
func (p *Program) LocateUniform(name string) error {
	if p.released {
		return ErrProgramReleased
	}
	if _, ok := p.uniforms[name]; ok {
		return nil
	}
	if i := strings.IndexByte(name, 0); i >= 0 {
		return &NameEncodingError{Name: name, Index: i}
	}

	location := p.drv.GetUniformLocation(p.handle, name)
	if code := p.drv.GetError(); code != driver.ErrorNone {
		return &UniformError{Op: "locate", Name: name, Code: code}
	}
	// Inactive uniforms (undeclared or optimized out) resolve to -1.
	if location < 0 {
		return fmt.Errorf("%w: %q", ErrUniformNotFound, name)
	}

	p.uniforms[name] = location
	return nil
}

// SetUniform assigns a single-value uniform through assign, which receives the cached location.
// The program is made current for the assignment and the previously current program is
// restored afterwards, whether or not the driver reports an error.
//
// Parameters:
//   - p: the program owning the uniform
//   - name: a uniform previously resolved with LocateUniform
//   - value: the value to assign
//   - assign: the driver primitive, e.g. drv.Uniform1f
//
// Returns:
//   - error: ErrUniformNotFound if name is not cached, *UniformError on a driver error
func SetUniform[T any](p *Program, name string, value T, assign func(location int32, value T)) error {
	location, err := p.cached(name)
	if err != nil {
		return err
	}
	return p.whileCurrent(name, func() {
		assign(location, value)
	})
}

// SetUniformMatrix is SetUniform for matrix primitives, which additionally take a count
// (always 1) and a transpose flag (always false, matrices are column-major).
//
// Parameters:
//   - p: the program owning the uniform
//   - name: a uniform previously resolved with LocateUniform
//   - value: the matrix to assign
//   - assign: the driver primitive, e.g. drv.UniformMatrix4fv
//
// Returns:
//   - error: ErrUniformNotFound if name is not cached, *UniformError on a driver error
func SetUniformMatrix[T any](p *Program, name string, value T, assign func(location, count int32, transpose bool, value T)) error {
	location, err := p.cached(name)
	if err != nil {
		return err
	}
	return p.whileCurrent(name, func() {
		assign(location, 1, false, value)
	})
}

// SetFloat assigns a float uniform.
func (p *Program) SetFloat(name string, value float32) error {
	return SetUniform(p, name, value, p.drv.Uniform1f)
}

// SetInt assigns an int (or sampler) uniform.
func (p *Program) SetInt(name string, value int32) error {
	return SetUniform(p, name, value, p.drv.Uniform1i)
}

// SetVec3 assigns a vec3 uniform.
func (p *Program) SetVec3(name string, value mgl32.Vec3) error {
	return SetUniform(p, name, value, p.drv.Uniform3fv)
}

// SetMat4 assigns a mat4 uniform.
func (p *Program) SetMat4(name string, value mgl32.Mat4) error {
	return SetUniformMatrix(p, name, value, p.drv.UniformMatrix4fv)
}

func (p *Program) cached(name string) (int32, error) {
	if p.released {
		return 0, ErrProgramReleased
	}
	location, ok := p.uniforms[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUniformNotFound, name)
	}
	return location, nil
}

// whileCurrent runs fn with this program current: read current, use, act, check, restore.
func (p *Program) whileCurrent(name string, fn func()) error {
	previous := p.drv.CurrentProgram()
	p.drv.UseProgram(p.handle)
	defer p.drv.UseProgram(previous)

	fn()
	if code := p.drv.GetError(); code != driver.ErrorNone {
		return &UniformError{Op: "assign", Name: name, Code: code}
	}
	return nil
}

// Release deletes the program handle. Later calls are no-ops.
func (p *Program) Release() {
	if p.released {
		return
	}
	p.released = true
	p.drv.DeleteProgram(p.handle)
	clear(p.uniforms)
}
