package driver

import "testing"

func TestErrorCodeString(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrorNone, "NO_ERROR"},
		{ErrorInvalidValue, "INVALID_VALUE"},
		{ErrorInvalidOperation, "INVALID_OPERATION"},
		{ErrorOutOfMemory, "OUT_OF_MEMORY"},
		{ErrorCode(0x1234), "ErrorCode(0x1234)"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("ErrorCode(%d).String() = %q, want %q", uint32(tt.code), got, tt.want)
		}
	}
}

func TestBufferTargetString(t *testing.T) {
	if got := TargetArrayBuffer.String(); got != "ARRAY_BUFFER" {
		t.Errorf("TargetArrayBuffer.String() = %q", got)
	}
	if got := TargetElementArrayBuffer.String(); got != "ELEMENT_ARRAY_BUFFER" {
		t.Errorf("TargetElementArrayBuffer.String() = %q", got)
	}
	if got := BufferTarget(7).String(); got != "BufferTarget(0x0007)" {
		t.Errorf("BufferTarget(7).String() = %q", got)
	}
}
