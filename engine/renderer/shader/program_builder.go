package shader

import (
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
	"go.uber.org/zap"
)

// MaxInfoLogLength bounds the compile and link logs retrieved from the driver.
const MaxInfoLogLength = 511

// compileUnit is a compiled but not yet linked shader stage.
type compileUnit struct {
	handle     uint32
	shaderType ShaderType
}

// ProgramBuilder assembles a Program: attach and compile stages, then Link.
//
// Steps chain and the first failure is latched: later steps become no-ops and Link reports
// the latched error after releasing everything the builder allocated. A builder is
// single-use; after Link every step fails with ErrBuilderLinked.
//
//	program, err := shader.NewProgramBuilder(drv).
//		AttachFile("assets/shaders/simple.vert").
//		AttachFile("assets/shaders/simple.frag").
//		Link()
type ProgramBuilder struct {
	drv     driver.Driver
	logger  *zap.Logger
	program uint32
	units   []compileUnit
	err     error
	linked  bool
}

// ProgramBuilderOption is a functional option applied by NewProgramBuilder.
type ProgramBuilderOption func(*ProgramBuilder)

// WithLogger routes compile and link diagnostics to logger.
//
// Parameters:
//   - logger: the logger to use, nil keeps the no-op default
//
// Returns:
//   - ProgramBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) ProgramBuilderOption {
	return func(b *ProgramBuilder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewProgramBuilder allocates an empty program on drv and returns a builder for it.
//
// Parameters:
//   - drv: the driver of the current context
//   - options: functional options applied in order
//
// Returns:
//   - *ProgramBuilder: a builder in the created state
func NewProgramBuilder(drv driver.Driver, options ...ProgramBuilderOption) *ProgramBuilder {
	b := &ProgramBuilder{
		drv:    drv,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		opt(b)
	}
	b.program = drv.CreateProgram()
	return b
}

// Err returns the latched error, if any.
func (b *ProgramBuilder) Err() error {
	return b.err
}

func (b *ProgramBuilder) usable() bool {
	if b.linked {
		if b.err == nil {
			b.err = ErrBuilderLinked
		}
		return false
	}
	return b.err == nil
}

// AttachFile compiles the shader file at path. The stage comes from the extension, which is
// validated before the file is read.
//
// Parameters:
//   - path: the shader file path
//
// Returns:
//   - *ProgramBuilder: the builder, for chaining
func (b *ProgramBuilder) AttachFile(path string) *ProgramBuilder {
	if !b.usable() {
		return b
	}
	src, err := ReadSource(path)
	if err != nil {
		b.err = err
		b.logger.Error("failed to load shader source", zap.String("path", path), zap.Error(err))
		return b
	}
	return b.AttachSource(src)
}

// AttachSource compiles an already loaded source.
func (b *ProgramBuilder) AttachSource(src Source) *ProgramBuilder {
	if !b.usable() {
		return b
	}
	b.compile(src.Text, src.Type, src.Path)
	return b
}

// CompileShader compiles source as a stage of the given type.
//
// Parameters:
//   - source: the GLSL text
//   - shaderType: the stage to compile
//
// Returns:
//   - *ProgramBuilder: the builder, for chaining
func (b *ProgramBuilder) CompileShader(source string, shaderType ShaderType) *ProgramBuilder {
	if !b.usable() {
		return b
	}
	b.compile(source, shaderType, "")
	return b
}

func (b *ProgramBuilder) compile(source string, shaderType ShaderType, path string) {
	handle := b.drv.CreateShader(shaderType.Stage())
	b.drv.ShaderSource(handle, source)
	b.drv.CompileShader(handle)

	if !b.drv.ShaderCompiled(handle) {
		log := b.drv.ShaderInfoLog(handle, MaxInfoLogLength)
		b.drv.DeleteShader(handle)
		b.err = &CompileError{Type: shaderType, Path: path, Log: log}
		b.logger.Error("shader compilation failed",
			zap.Stringer("stage", shaderType),
			zap.String("path", path),
			zap.String("log", log),
		)
		return
	}

	b.units = append(b.units, compileUnit{handle: handle, shaderType: shaderType})
}

// Link attaches every compiled unit, links the program and releases the units, whatever the
// link outcome. A failed link deletes the program handle and reports *LinkError.
//
// Returns:
//   - *Program: the linked program with an empty uniform cache
//   - error: the latched attach/compile error, *LinkError or ErrBuilderLinked
func (b *ProgramBuilder) Link() (*Program, error) {
	if b.linked {
		return nil, ErrBuilderLinked
	}
	b.linked = true
	defer b.releaseUnits()

	if b.err != nil {
		b.drv.DeleteProgram(b.program)
		return nil, b.err
	}

	for _, u := range b.units {
		b.drv.AttachShader(b.program, u.handle)
	}
	b.drv.LinkProgram(b.program)

	if !b.drv.ProgramLinked(b.program) {
		log := b.drv.ProgramInfoLog(b.program, MaxInfoLogLength)
		b.logger.Error("program link failed", zap.Uint32("program", b.program), zap.String("log", log))
		b.drv.DeleteProgram(b.program)
		b.err = &LinkError{Log: log}
		return nil, b.err
	}

	b.logger.Debug("program linked", zap.Uint32("program", b.program), zap.Int("stages", len(b.units)))
	return newProgram(b.drv, b.program), nil
}

func (b *ProgramBuilder) releaseUnits() {
	for _, u := range b.units {
		b.drv.DeleteShader(u.handle)
	}
	b.units = nil
}
