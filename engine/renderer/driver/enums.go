package driver

import "fmt"

// Enum values match the OpenGL headers so implementations can forward them unchanged.

// Shader stage kinds.
const (
	StageVertex         uint32 = 0x8B31
	StageFragment       uint32 = 0x8B30
	StageTessControl    uint32 = 0x8E88
	StageTessEvaluation uint32 = 0x8E87
	StageGeometry       uint32 = 0x8DD9
)

// BufferTarget is a buffer binding point.
type BufferTarget uint32

const (
	// TargetArrayBuffer is the vertex attribute binding point (GL_ARRAY_BUFFER).
	TargetArrayBuffer BufferTarget = 0x8892
	// TargetElementArrayBuffer is the index binding point (GL_ELEMENT_ARRAY_BUFFER).
	TargetElementArrayBuffer BufferTarget = 0x8893
)

func (t BufferTarget) String() string {
	switch t {
	case TargetArrayBuffer:
		return "ARRAY_BUFFER"
	case TargetElementArrayBuffer:
		return "ELEMENT_ARRAY_BUFFER"
	default:
		return fmt.Sprintf("BufferTarget(0x%04X)", uint32(t))
	}
}

// Buffer usage hints.
const (
	UsageStaticDraw  uint32 = 0x88E4
	UsageDynamicDraw uint32 = 0x88E8
)

// Data types.
const (
	TypeFloat       uint32 = 0x1406
	TypeUnsignedInt uint32 = 0x1405
)

// Primitive modes.
const (
	ModeTriangles uint32 = 0x0004
)

// Clear masks.
const (
	ColorBufferBit uint32 = 0x4000
	DepthBufferBit uint32 = 0x0100
)

// Capabilities toggled with Enable and Disable.
const (
	CapCullFace               uint32 = 0x0B44
	CapBlend                  uint32 = 0x0BE2
	CapMultisample            uint32 = 0x809D
	CapDebugOutput            uint32 = 0x92E0
	CapDebugOutputSynchronous uint32 = 0x8242
)

// Blend factors.
const (
	BlendSrcAlpha         uint32 = 0x0302
	BlendOneMinusSrcAlpha uint32 = 0x0303
)

// Debug message severities.
const (
	DebugSeverityHigh         uint32 = 0x9146
	DebugSeverityMedium       uint32 = 0x9147
	DebugSeverityLow          uint32 = 0x9148
	DebugSeverityNotification uint32 = 0x826B
)

// ErrorCode is a value returned by GetError.
type ErrorCode uint32

const (
	ErrorNone                        ErrorCode = 0
	ErrorInvalidEnum                 ErrorCode = 0x0500
	ErrorInvalidValue                ErrorCode = 0x0501
	ErrorInvalidOperation            ErrorCode = 0x0502
	ErrorStackOverflow               ErrorCode = 0x0503
	ErrorStackUnderflow              ErrorCode = 0x0504
	ErrorOutOfMemory                 ErrorCode = 0x0505
	ErrorInvalidFramebufferOperation ErrorCode = 0x0506
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorNone:
		return "NO_ERROR"
	case ErrorInvalidEnum:
		return "INVALID_ENUM"
	case ErrorInvalidValue:
		return "INVALID_VALUE"
	case ErrorInvalidOperation:
		return "INVALID_OPERATION"
	case ErrorStackOverflow:
		return "STACK_OVERFLOW"
	case ErrorStackUnderflow:
		return "STACK_UNDERFLOW"
	case ErrorOutOfMemory:
		return "OUT_OF_MEMORY"
	case ErrorInvalidFramebufferOperation:
		return "INVALID_FRAMEBUFFER_OPERATION"
	default:
		return fmt.Sprintf("ErrorCode(0x%04X)", uint32(c))
	}
}
