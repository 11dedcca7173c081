package sim

import (
	"errors"
	"testing"

	"github.com/san-kum/bucketsim/internal/bucket"
)

func TestSimError(t *testing.T) {
	err := SimError{Turn: 150, Message: "test error"}
	expected := "turn 150: test error"
	if err.Error() != expected {
		t.Errorf("SimError.Error() = %q, want %q", err.Error(), expected)
	}
}

func TestUnjoin(t *testing.T) {
	a := &bucket.ParticleError{Index: 1, Wrapped: bucket.ErrDomain}
	b := &bucket.ParticleError{Index: 2, Wrapped: bucket.ErrDomain}

	if got := unjoin(errors.Join(a, b)); len(got) != 2 {
		t.Errorf("expected 2 errors, got %d", len(got))
	}
	if got := unjoin(a); len(got) != 1 || got[0] != a {
		t.Errorf("single error not passed through: %v", got)
	}
}

func TestRenderFunc(t *testing.T) {
	called := 0
	var r Renderer = RenderFunc(func(turn int, ps []bucket.Particle, ke float64) bool {
		called++
		return turn < 3
	})
	if !r.Render(1, nil, 0) || r.Render(3, nil, 0) {
		t.Error("RenderFunc did not forward return value")
	}
	if called != 2 {
		t.Errorf("expected 2 calls, got %d", called)
	}
}
