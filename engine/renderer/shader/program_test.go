package shader

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver/drivertest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
)

func linkedProgram(t *testing.T, drv *drivertest.Driver) *Program {
	t.Helper()
	p, err := NewProgramBuilder(drv).
		CompileShader(vertexSource, ShaderTypeVertex).
		CompileShader(fragmentSource, ShaderTypeFragment).
		Link()
	if err != nil {
		t.Fatalf("Link() error = %v", err)
	}
	return p
}

func TestLocateUniformIsIdempotent(t *testing.T) {
	drv := drivertest.New()
	p := linkedProgram(t, drv)

	if err := p.LocateUniform("elapsed"); err != nil {
		t.Fatalf("LocateUniform(elapsed) error = %v", err)
	}
	first, ok := p.Location("elapsed")
	if !ok {
		t.Fatal("Location(elapsed) not cached after LocateUniform")
	}

	for range 3 {
		if err := p.LocateUniform("elapsed"); err != nil {
			t.Fatalf("repeated LocateUniform(elapsed) error = %v", err)
		}
	}
	if got := drv.UniformQueries(); got != 1 {
		t.Errorf("driver saw %d uniform queries, want 1", got)
	}
	if got, _ := p.Location("elapsed"); got != first {
		t.Errorf("cached location changed from %d to %d", first, got)
	}
}

func TestLocateUniformNotFound(t *testing.T) {
	drv := drivertest.New()
	p := linkedProgram(t, drv)

	err := p.LocateUniform("missing")
	if !errors.Is(err, ErrUniformNotFound) {
		t.Fatalf("LocateUniform(missing) error = %v, want ErrUniformNotFound", err)
	}
	if _, ok := p.Location("missing"); ok {
		t.Error("missing uniform was cached")
	}
	// Absence from the cache means unresolved, so the next call asks the driver again.
	_ = p.LocateUniform("missing")
	if got := drv.UniformQueries(); got != 2 {
		t.Errorf("driver saw %d uniform queries, want 2", got)
	}
}

func TestLocateUniformRejectsNulBytes(t *testing.T) {
	drv := drivertest.New()
	p := linkedProgram(t, drv)

	err := p.LocateUniform("ela\x00psed")
	var nameErr *NameEncodingError
	if !errors.As(err, &nameErr) {
		t.Fatalf("LocateUniform() error = %v, want *NameEncodingError", err)
	}
	if nameErr.Index != 3 {
		t.Errorf("NameEncodingError.Index = %d, want 3", nameErr.Index)
	}
	if got := drv.UniformQueries(); got != 0 {
		t.Errorf("driver saw %d uniform queries, want 0", got)
	}
}

func TestLocateUniformReportsDriverError(t *testing.T) {
	drv := drivertest.New()
	p := linkedProgram(t, drv)
	drv.InjectError(driver.ErrorInvalidOperation)

	err := p.LocateUniform("elapsed")
	var uniformErr *UniformError
	if !errors.As(err, &uniformErr) {
		t.Fatalf("LocateUniform() error = %v, want *UniformError", err)
	}
	if uniformErr.Op != "locate" || uniformErr.Code != driver.ErrorInvalidOperation {
		t.Errorf("UniformError = %+v", uniformErr)
	}
	if _, ok := p.Location("elapsed"); ok {
		t.Error("uniform cached despite driver error")
	}
}

func TestSetUniformRequiresResolvedName(t *testing.T) {
	drv := drivertest.New()
	p := linkedProgram(t, drv)
	drv.ResetCalls()

	if err := p.SetFloat("elapsed", 1); !errors.Is(err, ErrUniformNotFound) {
		t.Errorf("SetFloat() error = %v, want ErrUniformNotFound", err)
	}
	if err := p.SetMat4("transform", mgl32.Ident4()); !errors.Is(err, ErrUniformNotFound) {
		t.Errorf("SetMat4() error = %v, want ErrUniformNotFound", err)
	}
	if calls := drv.Calls(); len(calls) != 0 {
		t.Errorf("unresolved set issued driver calls: %v", calls)
	}
}

func TestSetUniformScalar(t *testing.T) {
	drv := drivertest.New()
	p := linkedProgram(t, drv)

	if err := p.LocateUniform("elapsed"); err != nil {
		t.Fatalf("LocateUniform() error = %v", err)
	}
	if err := SetUniform(p, "elapsed", float32(1.5), drv.Uniform1f); err != nil {
		t.Fatalf("SetUniform() error = %v", err)
	}
	if code := drv.GetError(); code != driver.ErrorNone {
		t.Errorf("GetError() = %v after SetUniform, want NO_ERROR", code)
	}
	got, ok := drv.UniformValue(p.Handle(), "elapsed")
	if !ok || got != float32(1.5) {
		t.Errorf("elapsed = %v (set %t), want 1.5", got, ok)
	}
}

func TestSetUniformMatrix(t *testing.T) {
	drv := drivertest.New()
	p := linkedProgram(t, drv)
	m := mgl32.Translate3D(1, 2, 3)

	if err := p.LocateUniform("transform"); err != nil {
		t.Fatalf("LocateUniform() error = %v", err)
	}
	if err := p.SetMat4("transform", m); err != nil {
		t.Fatalf("SetMat4() error = %v", err)
	}
	got, _ := drv.UniformValue(p.Handle(), "transform")
	if got != m {
		t.Errorf("transform = %v, want %v", got, m)
	}
}

func TestSetUniformRestoresCurrentProgram(t *testing.T) {
	tests := []struct {
		name        string
		withCurrent bool
		failWith    driver.ErrorCode
	}{
		{name: "no current program"},
		{name: "other program current", withCurrent: true},
		{name: "driver error, no current program", failWith: driver.ErrorInvalidOperation},
		{name: "driver error, other program current", withCurrent: true, failWith: driver.ErrorInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := drivertest.New()
			p := linkedProgram(t, drv)
			if err := p.LocateUniform("elapsed"); err != nil {
				t.Fatalf("LocateUniform() error = %v", err)
			}

			var previous uint32
			if tt.withCurrent {
				other := linkedProgram(t, drv)
				other.Bind()
				previous = other.Handle()
			}
			if tt.failWith != driver.ErrorNone {
				drv.InjectError(tt.failWith)
			}

			err := p.SetFloat("elapsed", 2)
			if tt.failWith != driver.ErrorNone {
				var uniformErr *UniformError
				if !errors.As(err, &uniformErr) || uniformErr.Code != tt.failWith || uniformErr.Op != "assign" {
					t.Errorf("SetFloat() error = %v, want assign *UniformError with %v", err, tt.failWith)
				}
			} else if err != nil {
				t.Errorf("SetFloat() error = %v", err)
			}

			if got := drv.CurrentProgram(); got != previous {
				t.Errorf("CurrentProgram() = %d after SetFloat, want %d", got, previous)
			}
		})
	}
}

func TestSetUniformCallSequence(t *testing.T) {
	drv := drivertest.New()
	p := linkedProgram(t, drv)
	other := linkedProgram(t, drv)
	if err := p.LocateUniform("elapsed"); err != nil {
		t.Fatalf("LocateUniform() error = %v", err)
	}
	other.Bind()
	drv.ResetCalls()

	if err := p.SetFloat("elapsed", 1.5); err != nil {
		t.Fatalf("SetFloat() error = %v", err)
	}

	loc, _ := p.Location("elapsed")
	want := []string{
		callf("UseProgram(%d)", p.Handle()),
		callf("Uniform1f(%d, 1.5)", loc),
		callf("UseProgram(%d)", other.Handle()),
	}
	if diff := cmp.Diff(want, drv.Calls()); diff != "" {
		t.Errorf("call sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestProgramBindUnbind(t *testing.T) {
	drv := drivertest.New()
	p := linkedProgram(t, drv)

	p.Bind()
	if got := drv.CurrentProgram(); got != p.Handle() {
		t.Errorf("CurrentProgram() = %d after Bind, want %d", got, p.Handle())
	}
	p.Unbind()
	if got := drv.CurrentProgram(); got != 0 {
		t.Errorf("CurrentProgram() = %d after Unbind, want 0", got)
	}
}

func TestProgramReleaseIsSingleShot(t *testing.T) {
	drv := drivertest.New()
	p := linkedProgram(t, drv)

	p.Release()
	p.Release()

	if got := drv.LivePrograms(); got != 0 {
		t.Errorf("LivePrograms() = %d, want 0", got)
	}
	deletes := 0
	for _, c := range drv.Calls() {
		if c == callf("DeleteProgram(%d)", p.Handle()) {
			deletes++
		}
	}
	if deletes != 1 {
		t.Errorf("DeleteProgram issued %d times, want 1", deletes)
	}
	if code := drv.GetError(); code != driver.ErrorNone {
		t.Errorf("GetError() = %v after double Release", code)
	}
	if err := p.LocateUniform("elapsed"); !errors.Is(err, ErrProgramReleased) {
		t.Errorf("LocateUniform() after Release error = %v, want ErrProgramReleased", err)
	}
}
