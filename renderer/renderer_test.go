package renderer

import (
	"strings"
	"sync"
	"testing"
)

// TestBeginFrameRequiresConfiguredSurface verifies BeginFrame returns an
// error instead of dereferencing a nil surface format when the host never
// called ConfigureSurface.
func TestBeginFrameRequiresConfiguredSurface(t *testing.T) {
	r := &renderer{mu: &sync.Mutex{}}

	tgt, err := r.BeginFrame()
	if err == nil {
		t.Fatal("BeginFrame() error = nil, want unconfigured-surface error")
	}
	if !strings.Contains(err.Error(), "not configured") {
		t.Errorf("unexpected error: %v", err)
	}
	if tgt != nil {
		t.Errorf("BeginFrame() returned a target from an unconfigured surface")
	}
}
