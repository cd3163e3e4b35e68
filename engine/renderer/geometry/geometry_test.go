package geometry

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver/drivertest"
	"github.com/google/go-cmp/cmp"
)

var (
	triangleVertices = []float32{
		-0.5, -0.5, 0,
		0.5, -0.5, 0,
		0, 0.5, 0,
	}
	triangleIndices = []uint32{0, 1, 2}
)

func assertNeutral(t *testing.T, drv *drivertest.Driver) {
	t.Helper()
	if got := drv.BoundVertexArray(); got != 0 {
		t.Errorf("BoundVertexArray() = %d, want 0", got)
	}
	if got := drv.BoundBuffer(driver.TargetArrayBuffer); got != 0 {
		t.Errorf("BoundBuffer(ARRAY_BUFFER) = %d, want 0", got)
	}
	if got := drv.BoundBuffer(driver.TargetElementArrayBuffer); got != 0 {
		t.Errorf("BoundBuffer(ELEMENT_ARRAY_BUFFER) = %d, want 0", got)
	}
}

func TestNewUploadsAndLeavesStateNeutral(t *testing.T) {
	drv := drivertest.New()

	g, err := New(drv, triangleVertices, triangleIndices)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := g.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
	assertNeutral(t, drv)

	vao, buffers := g.Handles()
	vertexBytes, ok := drv.BufferContents(buffers[0])
	if !ok || len(vertexBytes) != 36 {
		t.Fatalf("vertex buffer holds %d bytes, want 36", len(vertexBytes))
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(vertexBytes[12:])); got != 0.5 {
		t.Errorf("vertex buffer float[3] = %v, want 0.5", got)
	}
	indexBytes, _ := drv.BufferContents(buffers[1])
	if len(indexBytes) != 12 {
		t.Errorf("index buffer holds %d bytes, want 12", len(indexBytes))
	}

	size, stride, buffer, enabled := drv.Attribute(vao, 0)
	if size != 3 || stride != 12 || buffer != buffers[0] || !enabled {
		t.Errorf("attribute 0 = (size %d, stride %d, buffer %d, enabled %t), want (3, 12, %d, true)",
			size, stride, buffer, enabled, buffers[0])
	}
	if code := drv.GetError(); code != driver.ErrorNone {
		t.Errorf("GetError() = %v after New", code)
	}
}

func TestBindUnbind(t *testing.T) {
	drv := drivertest.New()
	g, err := New(drv, triangleVertices, triangleIndices)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	vao, buffers := g.Handles()
	drv.ResetCalls()

	g.Bind()
	if got := drv.BoundVertexArray(); got != vao {
		t.Errorf("BoundVertexArray() = %d after Bind, want %d", got, vao)
	}
	if got := drv.BoundBuffer(driver.TargetElementArrayBuffer); got != buffers[1] {
		t.Errorf("BoundBuffer(ELEMENT_ARRAY_BUFFER) = %d after Bind, want %d", got, buffers[1])
	}
	g.Unbind()
	assertNeutral(t, drv)

	want := []string{
		"BindVertexArray(1)",
		"BindBuffer(ARRAY_BUFFER, 2)",
		"BindBuffer(ELEMENT_ARRAY_BUFFER, 3)",
		"BindBuffer(ARRAY_BUFFER, 0)",
		"BindBuffer(ELEMENT_ARRAY_BUFFER, 0)",
		"BindVertexArray(0)",
	}
	if diff := cmp.Diff(want, drv.Calls()); diff != "" {
		t.Errorf("bind/unbind trace mismatch (-want +got):\n%s", diff)
	}
}

func TestRepeatedInitReleaseLeaksNothing(t *testing.T) {
	drv := drivertest.New()
	seen := make(map[uint32]bool)

	for i := range 25 {
		g, err := New(drv, triangleVertices, triangleIndices)
		if err != nil {
			t.Fatalf("New() #%d error = %v", i, err)
		}
		vao, buffers := g.Handles()
		for _, h := range []uint32{vao, buffers[0], buffers[1]} {
			if seen[h] {
				t.Fatalf("handle %d reused on iteration %d", h, i)
			}
			seen[h] = true
		}
		g.Release()
		if got := drv.LiveHandles(); got != 0 {
			t.Fatalf("LiveHandles() = %d after Release #%d, want 0", got, i)
		}
	}
}

func TestReleaseIsSingleShot(t *testing.T) {
	drv := drivertest.New()
	g, err := New(drv, triangleVertices, triangleIndices)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	g.Release()
	g.Release()

	deletes := 0
	for _, c := range drv.Calls() {
		if strings.HasPrefix(c, "DeleteBuffers(") || strings.HasPrefix(c, "DeleteVertexArray(") {
			deletes++
		}
	}
	if deletes != 2 {
		t.Errorf("issued %d delete calls, want 2", deletes)
	}
	if code := drv.GetError(); code != driver.ErrorNone {
		t.Errorf("GetError() = %v after double Release", code)
	}
}

func TestNewRejectsInvalidData(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		indices  []uint32
	}{
		{"no vertices", nil, []uint32{0}},
		{"partial vertex", []float32{0, 1}, []uint32{0}},
		{"no indices", triangleVertices, nil},
		{"index out of range", triangleVertices, []uint32{0, 1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := drivertest.New()
			_, err := New(drv, tt.vertices, tt.indices)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("New() error = %v, want ErrInvalidGeometry", err)
			}
			if got := drv.LiveHandles(); got != 0 {
				t.Errorf("LiveHandles() = %d after rejected New, want 0", got)
			}
		})
	}
}

func TestTriangleRow(t *testing.T) {
	vertices, indices := TriangleRow(5)
	if len(vertices) != 45 || len(indices) != 15 {
		t.Fatalf("TriangleRow(5) = %d floats, %d indices; want 45, 15", len(vertices), len(indices))
	}
	if vertices[0] != -1 {
		t.Errorf("first vertex x = %v, want -1", vertices[0])
	}
	if right := vertices[len(vertices)-6]; math.Abs(float64(right-1)) > 1e-5 {
		t.Errorf("last triangle right x = %v, want 1", right)
	}
	for i, idx := range indices {
		if idx != uint32(i) {
			t.Errorf("indices[%d] = %d, want %d", i, idx, i)
		}
	}

	drv := drivertest.New()
	g, err := New(drv, vertices, indices)
	if err != nil {
		t.Fatalf("New(TriangleRow(5)) error = %v", err)
	}
	if g.Count() != 15 {
		t.Errorf("Count() = %d, want 15", g.Count())
	}

	if v, i := TriangleRow(0); v != nil || i != nil {
		t.Errorf("TriangleRow(0) = %v, %v; want nil, nil", v, i)
	}
}
