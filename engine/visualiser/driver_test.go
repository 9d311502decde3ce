package visualiser

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-vis/engine/agent_buffer"
	"github.com/Carmen-Shannon/oxy-vis/engine/profiler"
)

func TestDriverMaxSteps(t *testing.T) {
	registry, _ := newTestRegistry()
	sim := &countingSim{step: 3}
	p := profiler.NewProfiler()
	d := NewDriver(registry, sim, WithMaxSteps(7), WithStepProfiler(p))
	d.Start()
	if err := d.Join(); err != nil {
		t.Fatal(err)
	}
	if d.Steps() != 7 || sim.count != 21 {
		t.Errorf("steps = %d, count = %d, want 7 and 21", d.Steps(), sim.count)
	}
	if d.IsRunning() {
		t.Error("driver still running after Join")
	}

	info, _ := registry.Record("boid", "alive")
	if info.RequiredSize != 21 {
		t.Errorf("required size = %d, want 21", info.RequiredSize)
	}
}

func TestDriverStepErrorStops(t *testing.T) {
	registry, _ := newTestRegistry()
	boom := errors.New("diverged")
	d := NewDriver(registry, &countingSim{step: 1, err: boom})
	d.Start()
	if err := d.Join(); !errors.Is(err, boom) {
		t.Fatalf("Join = %v, want %v", err, boom)
	}
	if d.Steps() != 0 {
		t.Errorf("steps = %d after a failed first step", d.Steps())
	}

	// The failed step released the render lock.
	lock := registry.AcquireRenderLock()
	lock.Release()
}

// mismatchedSim publishes the wrong number of sources, a contract violation.
type mismatchedSim struct{}

func (mismatchedSim) Step() error { return nil }

func (mismatchedSim) Populations() []Population {
	return []Population{{Agent: "boid", State: "alive", Count: 1}}
}

func TestDriverRecoversRegistryPanic(t *testing.T) {
	registry, _ := newTestRegistry()
	registry.SetRequiredSize("boid", "alive", 4, false)
	registry.RenderFrame(func(agent_buffer.Frame) {})

	d := NewDriver(registry, mismatchedSim{})
	d.Start()
	if err := d.Join(); !errors.Is(err, agent_buffer.ErrSourceMismatch) {
		t.Fatalf("Join = %v, want ErrSourceMismatch", err)
	}
	lock := registry.AcquireRenderLock()
	lock.Release()
}

func TestDriverStepsPerSecond(t *testing.T) {
	registry, _ := newTestRegistry()
	d := NewDriver(registry, &countingSim{step: 1}, WithStepsPerSecond(50))
	if got := d.limiter.Interval().Milliseconds(); got != 20 {
		t.Errorf("interval = %dms, want 20ms", got)
	}
}

func TestDriverCountsOnlyPublishedSteps(t *testing.T) {
	registry, _ := newTestRegistry()
	sim := &slowSim{countingSim: countingSim{step: 1, limit: 10}, started: make(chan struct{}, 1)}
	d := NewDriver(registry, sim)

	// Holding the lock lets the first step compute but not publish.
	lock := registry.AcquireRenderLock()
	d.Start()
	<-sim.started
	time.Sleep(20 * time.Millisecond)
	if got := d.Steps(); got != 0 {
		lock.Release()
		t.Fatalf("steps = %d before the first publish", got)
	}
	lock.Release()

	eventually(t, "first publish", func() bool { return d.Steps() > 0 })
	d.Stop()
	if err := d.Join(); err != nil {
		t.Fatal(err)
	}
}
