package agent_buffer

import (
	"testing"
	"time"
)

// lockedWithin reports whether gate.Lock succeeds within d. The lock is released again on success.
func lockedWithin(g *SyncGate, d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		g.Lock()
		close(done)
		g.Unlock()
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}

func TestGateRunningReleasesBetweenFrames(t *testing.T) {
	g := NewSyncGate()
	g.beginFrame()
	g.endFrame()
	if g.State() != Running {
		t.Fatalf("state = %v, want running", g.State())
	}
	if !lockedWithin(g, time.Second) {
		t.Fatal("simulation could not acquire the lock between frames")
	}
}

func TestGateUserPauseBlocksSimulation(t *testing.T) {
	g := NewSyncGate()
	g.TogglePause()
	g.beginFrame()
	g.endFrame()
	if g.State() != PausedByUser {
		t.Fatalf("state = %v, want paused", g.State())
	}

	acquired := make(chan struct{})
	go func() {
		g.Lock()
		close(acquired)
		g.Unlock()
	}()

	// Frames keep running while paused.
	for i := 0; i < 3; i++ {
		g.beginFrame()
		g.endFrame()
	}
	select {
	case <-acquired:
		t.Fatal("simulation acquired the lock while paused")
	case <-time.After(50 * time.Millisecond):
	}

	g.TogglePause()
	g.beginFrame()
	g.endFrame()
	if g.State() != Running {
		t.Fatalf("state = %v after resume, want running", g.State())
	}
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("simulation still blocked after resume")
	}
}

func TestGateDoubleToggleCancels(t *testing.T) {
	g := NewSyncGate()
	g.TogglePause()
	g.TogglePause()
	g.beginFrame()
	g.endFrame()
	if g.State() != Running {
		t.Errorf("state = %v, want running", g.State())
	}
}

func TestGateBeginPausedWaitsForReadiness(t *testing.T) {
	g := NewSyncGate()
	g.RequestBeginPaused()

	g.beginFrame()
	g.endFrame()
	if g.Paused() {
		t.Fatal("paused before readiness")
	}

	g.beginFrame()
	g.setReady(true)
	g.endFrame()
	if g.State() != PausedForReadiness {
		t.Fatalf("state = %v, want paused for readiness", g.State())
	}
	if lockedWithin(g, 50*time.Millisecond) {
		t.Fatal("simulation acquired the lock while paused for readiness")
	}

	// The request is one-shot: resuming does not re-engage it.
	g.TogglePause()
	g.beginFrame()
	g.endFrame()
	g.beginFrame()
	g.endFrame()
	if g.State() != Running {
		t.Errorf("state = %v, want running", g.State())
	}
}

func TestGateReleasePause(t *testing.T) {
	g := NewSyncGate()
	g.TogglePause()
	g.beginFrame()
	g.endFrame()

	g.ReleasePause()
	if g.Paused() {
		t.Fatal("still paused after ReleasePause")
	}
	if !lockedWithin(g, time.Second) {
		t.Fatal("lock still held after ReleasePause")
	}
	// No-op when running.
	g.ReleasePause()
}

func TestRegistryBeginPausedEngagesOnlyWithData(t *testing.T) {
	r := NewRegistry(NewMemoryDevice())
	r.Register("prey", "alive", positionSpec())
	r.Gate().RequestBeginPaused()

	renderOnce(r)
	if r.Gate().Paused() {
		t.Fatal("paused on an empty scene")
	}
	r.SetRequiredSize("prey", "alive", 5, false)
	renderOnce(r)
	if r.Gate().Paused() {
		t.Fatal("paused before data arrived")
	}
	r.CopyAttributeData("prey", "alive", 5, []Source{ramp(15, 0)})
	renderOnce(r)
	if r.Gate().State() != PausedForReadiness {
		t.Fatalf("state = %v, want paused for readiness", r.Gate().State())
	}

	// The paused render side keeps drawing the last committed frame.
	f := renderOnce(r)
	if len(f.Draws) != 1 || f.Draws[0].Instances != 5 || f.Pause != PausedForReadiness {
		t.Errorf("paused frame = %+v", f)
	}
	r.Gate().ReleasePause()
}

func TestGateStatusFlagsDoNotTakeTheLock(t *testing.T) {
	g := NewSyncGate()
	g.Lock()
	defer g.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = g.State()
		_ = g.IsReady()
		_ = g.Paused()
		g.TogglePause()
		g.RequestBeginPaused()
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("status flag access blocked on the render buffer lock")
	}

	// Requests are only applied by the render side at a frame boundary.
	if g.State() != Running {
		t.Errorf("state = %v before any frame, want running", g.State())
	}
}
