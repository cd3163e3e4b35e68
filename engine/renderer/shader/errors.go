package shader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
)

var (
	// ErrUniformNotFound is returned when a uniform is not active in the program, or has not
	// been resolved with LocateUniform before a set call.
	ErrUniformNotFound = errors.New("shader: uniform not found")

	// ErrBuilderLinked is returned by any ProgramBuilder step after Link.
	ErrBuilderLinked = errors.New("shader: program builder already linked")

	// ErrProgramReleased is returned by Program operations after Release.
	ErrProgramReleased = errors.New("shader: program already released")
)

// NameEncodingError reports a uniform name that cannot be passed to the driver as a
// NUL-terminated string.
type NameEncodingError struct {
	Name  string
	Index int
}

func (e *NameEncodingError) Error() string {
	return fmt.Sprintf("shader: uniform name %q contains a NUL byte at index %d", e.Name, e.Index)
}

// UniformError reports a driver error code observed after a uniform operation.
// Op is "locate" for location queries and "assign" for value assignments.
type UniformError struct {
	Op   string
	Name string
	Code driver.ErrorCode
}

func (e *UniformError) Error() string {
	switch e.Code {
	case driver.ErrorInvalidValue:
		return fmt.Sprintf("shader: %s uniform %q: INVALID_VALUE (program handle not generated by the driver)", e.Op, e.Name)
	case driver.ErrorInvalidOperation:
		return fmt.Sprintf("shader: %s uniform %q: INVALID_OPERATION (not a linked program or mismatched uniform type)", e.Op, e.Name)
	default:
		return fmt.Sprintf("shader: %s uniform %q: unexpected driver error %s", e.Op, e.Name, e.Code)
	}
}

// UnknownStageError reports a shader file whose extension maps to no stage.
type UnknownStageError struct {
	Path string
	Ext  string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("shader: unrecognized extension %q for %s (want .vert, .frag, .tcs, .tes or .geom)", e.Ext, e.Path)
}

// CompileError carries the driver's compile log for a failed stage.
type CompileError struct {
	Type ShaderType
	Path string
	Log  string
}

func (e *CompileError) Error() string {
	path := e.Path
	if path == "" {
		path = "<inline>"
	}
	return fmt.Sprintf("shader: failed to compile %s shader %s:\n%s", e.Type, path, e.Log)
}

// LinkError carries the driver's link log for a failed program.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("shader: failed to link program:\n%s", e.Log)
}
