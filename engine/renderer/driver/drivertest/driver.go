// Package drivertest provides an in-memory driver.Driver that models the GL binding state
// machine closely enough to test resource lifecycles without a GPU.
//
// Shader "compilation" fails when the source contains an #error directive, and linking
// collects every `uniform <type> <name>;` declaration of the attached stages into the
// program's active uniforms.
package drivertest

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unsafe"

	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
	"github.com/go-gl/mathgl/mgl32"
)

var uniformDecl = regexp.MustCompile(`uniform\s+\w+\s+(\w+)\s*(?:\[\s*\d+\s*\])?\s*;`)

type programState struct {
	attached []uint32
	linked   bool
	infoLog  string
	uniforms map[string]int32
	values   map[int32]any
}

type shaderState struct {
	stage    uint32
	source   string
	compiled bool
	infoLog  string
}

type vertexAttrib struct {
	enabled    bool
	size       int32
	xtype      uint32
	normalized bool
	stride     int32
	offset     int
	buffer     uint32
}

type vertexArrayState struct {
	elementBuffer uint32
	attribs       map[uint32]*vertexAttrib
}

// Driver is a headless driver.Driver. The zero value is not usable; call New.
type Driver struct {
	mu sync.Mutex

	nextHandle uint32

	programs map[uint32]*programState
	shaders  map[uint32]*shaderState
	buffers  map[uint32][]byte
	arrays   map[uint32]*vertexArrayState

	currentProgram uint32
	boundArray     uint32
	boundBuffers   map[driver.BufferTarget]uint32

	errors []driver.ErrorCode

	enabled    map[uint32]bool
	blend      [2]uint32
	clearColor [4]float32

	calls          []string
	uniformQueries int
	draws          int

	debugCallback func(msg driver.DebugMessage)

	// LinkFailure, when non-empty, makes every LinkProgram fail with this info log.
	LinkFailure string
}

var _ driver.Driver = &Driver{}

// New creates an empty headless driver with every binding point neutral.
func New() *Driver {
	return &Driver{
		programs:     make(map[uint32]*programState),
		shaders:      make(map[uint32]*shaderState),
		buffers:      make(map[uint32][]byte),
		arrays:       make(map[uint32]*vertexArrayState),
		boundBuffers: make(map[driver.BufferTarget]uint32),
		enabled:      make(map[uint32]bool),
	}
}

func (d *Driver) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *Driver) handle() uint32 {
	d.nextHandle++
	return d.nextHandle
}

func (d *Driver) pushError(code driver.ErrorCode) {
	d.errors = append(d.errors, code)
}

// InjectError queues an error code that the next GetError call will report.
func (d *Driver) InjectError(code driver.ErrorCode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pushError(code)
}

// Calls returns a copy of the recorded call trace.
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// ResetCalls clears the recorded call trace.
func (d *Driver) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// UniformQueries returns how many GetUniformLocation calls reached the driver.
func (d *Driver) UniformQueries() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uniformQueries
}

// Draws returns how many DrawElements calls were issued.
func (d *Driver) Draws() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draws
}

// LiveHandles returns the number of allocated and not yet deleted objects of every kind.
func (d *Driver) LiveHandles() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.programs) + len(d.shaders) + len(d.buffers) + len(d.arrays)
}

// LivePrograms returns the number of program objects not yet deleted.
func (d *Driver) LivePrograms() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.programs)
}

// LiveShaders returns the number of shader objects not yet deleted.
func (d *Driver) LiveShaders() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.shaders)
}

// BufferContents returns a copy of the bytes uploaded to buffer.
func (d *Driver) BufferContents(buffer uint32) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.buffers[buffer]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// ElementBuffer returns the element buffer captured by vertex array vao.
func (d *Driver) ElementBuffer(vao uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a, ok := d.arrays[vao]; ok {
		return a.elementBuffer
	}
	return 0
}

// Attribute describes an attribute slot of a vertex array as (size, stride, buffer, enabled).
func (d *Driver) Attribute(vao, index uint32) (size, stride int32, buffer uint32, enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.arrays[vao]
	if !ok {
		return 0, 0, 0, false
	}
	attr, ok := a.attribs[index]
	if !ok {
		return 0, 0, 0, false
	}
	return attr.size, attr.stride, attr.buffer, attr.enabled
}

// UniformValue returns the last value assigned to the named uniform of program.
func (d *Driver) UniformValue(program uint32, name string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.programs[program]
	if !ok {
		return nil, false
	}
	loc, ok := p.uniforms[name]
	if !ok {
		return nil, false
	}
	v, ok := p.values[loc]
	return v, ok
}

// Enabled reports whether capability has been turned on.
func (d *Driver) Enabled(capability uint32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled[capability]
}

// EmitDebug delivers msg through the registered debug callback, if any, while
// DEBUG_OUTPUT is enabled.
func (d *Driver) EmitDebug(msg driver.DebugMessage) {
	d.mu.Lock()
	cb := d.debugCallback
	on := d.enabled[driver.CapDebugOutput]
	d.mu.Unlock()
	if cb != nil && on {
		cb(msg)
	}
}

func (d *Driver) CreateProgram() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.handle()
	d.programs[h] = &programState{
		uniforms: make(map[string]int32),
		values:   make(map[int32]any),
	}
	d.record("CreateProgram() = %d", h)
	return h
}

func (d *Driver) DeleteProgram(program uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DeleteProgram(%d)", program)
	if _, ok := d.programs[program]; !ok {
		d.pushError(driver.ErrorInvalidValue)
		return
	}
	delete(d.programs, program)
	if d.currentProgram == program {
		d.currentProgram = 0
	}
}

func (d *Driver) UseProgram(program uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("UseProgram(%d)", program)
	if program != 0 {
		p, ok := d.programs[program]
		if !ok {
			d.pushError(driver.ErrorInvalidValue)
			return
		}
		if !p.linked {
			d.pushError(driver.ErrorInvalidOperation)
			return
		}
	}
	d.currentProgram = program
}

func (d *Driver) CurrentProgram() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentProgram
}

func (d *Driver) CreateShader(stage uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch stage {
	case driver.StageVertex, driver.StageFragment, driver.StageTessControl,
		driver.StageTessEvaluation, driver.StageGeometry:
	default:
		d.pushError(driver.ErrorInvalidEnum)
		return 0
	}
	h := d.handle()
	d.shaders[h] = &shaderState{stage: stage}
	d.record("CreateShader(0x%04X) = %d", stage, h)
	return h
}

func (d *Driver) ShaderSource(shader uint32, source string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ShaderSource(%d)", shader)
	if s, ok := d.shaders[shader]; ok {
		s.source = source
		return
	}
	d.pushError(driver.ErrorInvalidValue)
}

func (d *Driver) CompileShader(shader uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CompileShader(%d)", shader)
	s, ok := d.shaders[shader]
	if !ok {
		d.pushError(driver.ErrorInvalidValue)
		return
	}
	s.compiled, s.infoLog = compile(s.source)
}

// compile accepts any non-empty source without an #error directive.
func compile(source string) (bool, string) {
	if strings.TrimSpace(source) == "" {
		return false, "0:0(0): error: empty shader source"
	}
	for i, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "#error"); ok {
			return false, fmt.Sprintf("0:%d(1): error: %s", i+1, strings.TrimSpace(rest))
		}
	}
	return true, ""
}

func (d *Driver) ShaderCompiled(shader uint32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.shaders[shader]; ok {
		return s.compiled
	}
	d.pushError(driver.ErrorInvalidValue)
	return false
}

func (d *Driver) ShaderInfoLog(shader uint32, maxLength int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.shaders[shader]
	if !ok {
		d.pushError(driver.ErrorInvalidValue)
		return ""
	}
	return truncate(s.infoLog, maxLength)
}

func (d *Driver) DeleteShader(shader uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DeleteShader(%d)", shader)
	if _, ok := d.shaders[shader]; !ok {
		d.pushError(driver.ErrorInvalidValue)
		return
	}
	delete(d.shaders, shader)
}

func (d *Driver) AttachShader(program, shader uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("AttachShader(%d, %d)", program, shader)
	p, ok := d.programs[program]
	if !ok {
		d.pushError(driver.ErrorInvalidValue)
		return
	}
	if _, ok := d.shaders[shader]; !ok {
		d.pushError(driver.ErrorInvalidValue)
		return
	}
	p.attached = append(p.attached, shader)
}

func (d *Driver) LinkProgram(program uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("LinkProgram(%d)", program)
	p, ok := d.programs[program]
	if !ok {
		d.pushError(driver.ErrorInvalidValue)
		return
	}
	p.linked, p.infoLog = false, ""
	clear(p.uniforms)
	clear(p.values)

	if d.LinkFailure != "" {
		p.infoLog = d.LinkFailure
		return
	}
	if len(p.attached) == 0 {
		p.infoLog = "error: no shaders attached to program"
		return
	}
	hasVertex := false
	var next int32
	for _, h := range p.attached {
		s, ok := d.shaders[h]
		if !ok || !s.compiled {
			p.infoLog = fmt.Sprintf("error: shader %d is not compiled", h)
			return
		}
		if s.stage == driver.StageVertex {
			hasVertex = true
		}
		for _, m := range uniformDecl.FindAllStringSubmatch(s.source, -1) {
			if _, seen := p.uniforms[m[1]]; !seen {
				p.uniforms[m[1]] = next
				next++
			}
		}
	}
	if !hasVertex {
		p.infoLog = "error: program lacks a vertex shader"
		return
	}
	p.linked = true
}

func (d *Driver) ProgramLinked(program uint32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.programs[program]; ok {
		return p.linked
	}
	d.pushError(driver.ErrorInvalidValue)
	return false
}

func (d *Driver) ProgramInfoLog(program uint32, maxLength int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.programs[program]
	if !ok {
		d.pushError(driver.ErrorInvalidValue)
		return ""
	}
	return truncate(p.infoLog, maxLength)
}

func (d *Driver) GetUniformLocation(program uint32, name string) int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uniformQueries++
	d.record("GetUniformLocation(%d, %q)", program, name)
	p, ok := d.programs[program]
	if !ok {
		d.pushError(driver.ErrorInvalidValue)
		return -1
	}
	if !p.linked {
		d.pushError(driver.ErrorInvalidOperation)
		return -1
	}
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	return -1
}

func (d *Driver) GetError() driver.ErrorCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.errors) == 0 {
		return driver.ErrorNone
	}
	code := d.errors[0]
	d.errors = d.errors[1:]
	return code
}

func (d *Driver) assign(name string, location int32, value any) {
	d.record("%s(%d, %v)", name, location, value)
	if d.currentProgram == 0 {
		d.pushError(driver.ErrorInvalidOperation)
		return
	}
	p := d.programs[d.currentProgram]
	if location < 0 || int(location) >= len(p.uniforms) {
		d.pushError(driver.ErrorInvalidOperation)
		return
	}
	p.values[location] = value
}

func (d *Driver) Uniform1f(location int32, value float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.assign("Uniform1f", location, value)
}

func (d *Driver) Uniform1i(location int32, value int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.assign("Uniform1i", location, value)
}

func (d *Driver) Uniform3fv(location int32, value mgl32.Vec3) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.assign("Uniform3fv", location, value)
}

func (d *Driver) UniformMatrix4fv(location int32, count int32, transpose bool, value mgl32.Mat4) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if count != 1 || transpose {
		d.record("UniformMatrix4fv(%d, %d, %t)", location, count, transpose)
		d.pushError(driver.ErrorInvalidValue)
		return
	}
	d.assign("UniformMatrix4fv", location, value)
}

func (d *Driver) GenVertexArray() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.handle()
	d.arrays[h] = &vertexArrayState{attribs: make(map[uint32]*vertexAttrib)}
	d.record("GenVertexArray() = %d", h)
	return h
}

func (d *Driver) DeleteVertexArray(vao uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DeleteVertexArray(%d)", vao)
	if _, ok := d.arrays[vao]; !ok {
		d.pushError(driver.ErrorInvalidValue)
		return
	}
	delete(d.arrays, vao)
	if d.boundArray == vao {
		d.boundArray = 0
	}
}

func (d *Driver) BindVertexArray(vao uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("BindVertexArray(%d)", vao)
	if vao != 0 {
		a, ok := d.arrays[vao]
		if !ok {
			d.pushError(driver.ErrorInvalidOperation)
			return
		}
		d.boundBuffers[driver.TargetElementArrayBuffer] = a.elementBuffer
	} else {
		d.boundBuffers[driver.TargetElementArrayBuffer] = 0
	}
	d.boundArray = vao
}

func (d *Driver) BoundVertexArray() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.boundArray
}

func (d *Driver) GenBuffers(n int) []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]uint32, n)
	for i := range out {
		out[i] = d.handle()
		d.buffers[out[i]] = nil
	}
	d.record("GenBuffers(%d) = %v", n, out)
	return out
}

func (d *Driver) DeleteBuffers(buffers []uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DeleteBuffers(%v)", buffers)
	for _, b := range buffers {
		if _, ok := d.buffers[b]; !ok {
			d.pushError(driver.ErrorInvalidValue)
			continue
		}
		delete(d.buffers, b)
		for target, bound := range d.boundBuffers {
			if bound == b {
				d.boundBuffers[target] = 0
			}
		}
	}
}

func (d *Driver) BindBuffer(target driver.BufferTarget, buffer uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("BindBuffer(%s, %d)", target, buffer)
	if _, ok := d.buffers[buffer]; buffer != 0 && !ok {
		d.pushError(driver.ErrorInvalidValue)
		return
	}
	d.boundBuffers[target] = buffer
	// The element buffer binding is vertex array state.
	if target == driver.TargetElementArrayBuffer && d.boundArray != 0 {
		d.arrays[d.boundArray].elementBuffer = buffer
	}
}

func (d *Driver) BoundBuffer(target driver.BufferTarget) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.boundBuffers[target]
}

func (d *Driver) BufferData(target driver.BufferTarget, size int, data unsafe.Pointer, usage uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("BufferData(%s, %d, 0x%04X)", target, size, usage)
	buffer := d.boundBuffers[target]
	if buffer == 0 {
		d.pushError(driver.ErrorInvalidOperation)
		return
	}
	if size < 0 || (size > 0 && data == nil) {
		d.pushError(driver.ErrorInvalidValue)
		return
	}
	contents := make([]byte, size)
	if size > 0 {
		copy(contents, unsafe.Slice((*byte)(data), size))
	}
	d.buffers[buffer] = contents
}

func (d *Driver) vertexAttrib(index uint32) *vertexAttrib {
	a := d.arrays[d.boundArray]
	attr, ok := a.attribs[index]
	if !ok {
		attr = &vertexAttrib{}
		a.attribs[index] = attr
	}
	return attr
}

func (d *Driver) EnableVertexAttribArray(index uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("EnableVertexAttribArray(%d)", index)
	if d.boundArray == 0 {
		d.pushError(driver.ErrorInvalidOperation)
		return
	}
	d.vertexAttrib(index).enabled = true
}

func (d *Driver) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("VertexAttribPointer(%d, %d, 0x%04X, %t, %d, %d)", index, size, xtype, normalized, stride, offset)
	if d.boundArray == 0 || d.boundBuffers[driver.TargetArrayBuffer] == 0 {
		d.pushError(driver.ErrorInvalidOperation)
		return
	}
	attr := d.vertexAttrib(index)
	attr.size, attr.xtype, attr.normalized = size, xtype, normalized
	attr.stride, attr.offset = stride, offset
	attr.buffer = d.boundBuffers[driver.TargetArrayBuffer]
}

func (d *Driver) ClearColor(r, g, b, a float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearColor = [4]float32{r, g, b, a}
	d.record("ClearColor(%g, %g, %g, %g)", r, g, b, a)
}

func (d *Driver) Viewport(x, y, width, height int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Viewport(%d, %d, %d, %d)", x, y, width, height)
	if width < 0 || height < 0 {
		d.pushError(driver.ErrorInvalidValue)
	}
}

func (d *Driver) Clear(mask uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Clear(0x%04X)", mask)
}

func (d *Driver) DrawElements(mode uint32, count int32, xtype uint32, offset int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DrawElements(0x%04X, %d, 0x%04X, %d)", mode, count, xtype, offset)
	if d.currentProgram == 0 || d.boundArray == 0 || d.boundBuffers[driver.TargetElementArrayBuffer] == 0 {
		d.pushError(driver.ErrorInvalidOperation)
		return
	}
	d.draws++
}

func (d *Driver) Enable(capability uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Enable(0x%04X)", capability)
	d.enabled[capability] = true
}

func (d *Driver) Disable(capability uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Disable(0x%04X)", capability)
	d.enabled[capability] = false
}

func (d *Driver) BlendFunc(sfactor, dfactor uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("BlendFunc(0x%04X, 0x%04X)", sfactor, dfactor)
	d.blend = [2]uint32{sfactor, dfactor}
}

func (d *Driver) SetDebugCallback(callback func(msg driver.DebugMessage)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("SetDebugCallback(%t)", callback != nil)
	d.debugCallback = callback
	d.enabled[driver.CapDebugOutput] = callback != nil
}

func truncate(s string, maxLength int) string {
	if maxLength >= 0 && len(s) > maxLength {
		return s[:maxLength]
	}
	return s
}
