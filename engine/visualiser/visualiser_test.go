package visualiser

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-vis/engine/agent_buffer"
)

// fakeRenderer records what each frame would have drawn.
type fakeRenderer struct {
	mu        sync.Mutex
	frames    int
	ready     int
	instances map[agent_buffer.AgentStateKey]int
	presents  int
	failOn    func(agent_buffer.Frame) error
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{instances: make(map[agent_buffer.AgentStateKey]int)}
}

func (f *fakeRenderer) DrawFrame(frame agent_buffer.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames++
	if frame.Ready {
		f.ready++
	}
	for _, d := range frame.Draws {
		f.instances[d.Key] = d.Instances
	}
	if f.failOn != nil {
		return f.failOn(frame)
	}
	return nil
}

func (f *fakeRenderer) Present() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presents++
}

func (f *fakeRenderer) Resize(width, height int) {}

func (f *fakeRenderer) SetViewProjection(m [16]float32) {}

func (f *fakeRenderer) drawn(agent, state string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instances[agent_buffer.AgentStateKey{Agent: agent, State: state}]
}

// countingSim publishes one xyz population whose size grows by step each step, up to limit if set.
type countingSim struct {
	step  int
	limit int
	count int
	err   error
	pos   agent_buffer.HostSource
}

func (s *countingSim) Step() error {
	if s.err != nil {
		return s.err
	}
	s.count += s.step
	if s.limit > 0 {
		s.count = min(s.count, s.limit)
	}
	s.pos = make(agent_buffer.HostSource, s.count*3)
	for i := range s.pos {
		s.pos[i] = float32(i)
	}
	return nil
}

func (s *countingSim) Populations() []Population {
	return []Population{{
		Agent:   "boid",
		State:   "alive",
		Count:   s.count,
		Sources: []agent_buffer.Source{s.pos},
	}}
}

func newTestRegistry() (agent_buffer.Registry, *agent_buffer.MemoryDevice) {
	device := agent_buffer.NewMemoryDevice()
	r := agent_buffer.NewRegistry(device)
	r.Register("boid", "alive", agent_buffer.AttributeSpec{
		Core: []agent_buffer.AttributeRole{agent_buffer.RolePositionXYZ},
	})
	return r, device
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestVisualiserDrawsPublishedSteps(t *testing.T) {
	registry, device := newTestRegistry()
	fr := newFakeRenderer()
	v := NewVisualiser(registry, fr, WithProfiling(true))
	d := NewDriver(registry, &countingSim{step: 100, limit: 500}, WithStopOn(v.Done()), WithStepProfiler(v.Profiler()))

	v.Start()
	d.Start()
	eventually(t, "full population drawn", func() bool { return fr.drawn("boid", "alive") == 500 })

	v.Stop()
	if err := v.Join(); err != nil {
		t.Fatalf("visualiser: %v", err)
	}
	if err := d.Join(); err != nil {
		t.Fatalf("driver: %v", err)
	}
	if v.IsRunning() {
		t.Error("still running after Join")
	}
	if device.LiveBuffers() != 0 {
		t.Errorf("%d buffers leaked after shutdown", device.LiveBuffers())
	}
	if v.Frames() == 0 || fr.presents != int(v.Frames()) {
		t.Errorf("frames = %d, presents = %d", v.Frames(), fr.presents)
	}
}

func TestVisualiserDrawErrorStopsRendering(t *testing.T) {
	registry, device := newTestRegistry()
	boom := errors.New("device lost")
	fr := newFakeRenderer()
	fr.failOn = func(f agent_buffer.Frame) error {
		if f.Ready {
			return boom
		}
		return nil
	}
	v := NewVisualiser(registry, fr)
	d := NewDriver(registry, &countingSim{step: 10, limit: 200}, WithStopOn(v.Done()))

	v.Start()
	d.Start()
	err := v.Join()
	if !errors.Is(err, boom) {
		t.Fatalf("Join = %v, want %v", err, boom)
	}
	select {
	case <-v.Done():
	default:
		t.Error("Done not closed after a fatal error")
	}
	if err := d.Join(); err != nil {
		t.Errorf("driver: %v", err)
	}
	if device.LiveBuffers() != 0 {
		t.Errorf("%d buffers leaked after a fatal error", device.LiveBuffers())
	}
}

func TestVisualiserGrowthFailureIsReported(t *testing.T) {
	registry, device := newTestRegistry()
	registry.SetRequiredSize("boid", "alive", 10, false)
	device.FailAllocation = true

	v := NewVisualiser(registry, newFakeRenderer())
	v.Start()
	if err := v.Join(); !errors.Is(err, agent_buffer.ErrBufferAllocation) {
		t.Fatalf("Join = %v, want ErrBufferAllocation", err)
	}
}

func TestBeginPausedHoldsSimulation(t *testing.T) {
	registry, _ := newTestRegistry()
	fr := newFakeRenderer()
	v := NewVisualiser(registry, fr, WithBeginPaused())
	d := NewDriver(registry, &countingSim{step: 1, limit: 50}, WithStopOn(v.Done()))

	v.Start()
	d.Start()
	eventually(t, "begin paused", func() bool { return v.PauseState() == agent_buffer.PausedForReadiness })

	framesAtPause := v.Frames()
	eventually(t, "frames while paused", func() bool { return v.Frames() > framesAtPause+5 })
	held := d.Steps()
	framesAtPause = v.Frames()
	eventually(t, "more frames while paused", func() bool { return v.Frames() > framesAtPause+5 })
	if d.Steps() != held {
		t.Fatalf("simulation advanced from %d to %d while paused", held, d.Steps())
	}

	v.TogglePause()
	eventually(t, "resume", func() bool { return d.Steps() > held })
	if v.PauseState() != agent_buffer.Running {
		t.Errorf("state = %v after resume", v.PauseState())
	}

	v.Stop()
	if err := v.Join(); err != nil {
		t.Fatal(err)
	}
	if err := d.Join(); err != nil {
		t.Fatal(err)
	}
}

func TestStopWhilePausedReleasesSimulation(t *testing.T) {
	registry, _ := newTestRegistry()
	v := NewVisualiser(registry, newFakeRenderer())
	d := NewDriver(registry, &countingSim{step: 1, limit: 50}, WithStopOn(v.Done()))

	v.Start()
	d.Start()
	eventually(t, "first step", func() bool { return d.Steps() > 0 })
	v.TogglePause()
	eventually(t, "pause", func() bool { return v.PauseState() == agent_buffer.PausedByUser })

	v.Stop()
	if err := v.Join(); err != nil {
		t.Fatal(err)
	}

	joined := make(chan error, 1)
	go func() { joined <- d.Join() }()
	select {
	case err := <-joined:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("simulation still blocked after the visualiser stopped")
	}
}

func TestStartTwicePanics(t *testing.T) {
	registry, _ := newTestRegistry()
	v := NewVisualiser(registry, newFakeRenderer())
	v.Start()
	defer func() {
		v.Stop()
		v.Join()
	}()
	defer func() {
		if recover() == nil {
			t.Error("second Start did not panic")
		}
	}()
	v.Start()
}

func TestRunRequiresWindow(t *testing.T) {
	registry, _ := newTestRegistry()
	v := NewVisualiser(registry, newFakeRenderer())
	if err := v.Run(); err == nil {
		t.Error("Run without a window returned nil")
	}
}

// slowSim is a countingSim whose Step takes a fixed time. The first Step signals started.
type slowSim struct {
	countingSim
	delay   time.Duration
	started chan struct{}
}

func (s *slowSim) Step() error {
	select {
	case s.started <- struct{}{}:
	default:
	}
	time.Sleep(s.delay)
	return s.countingSim.Step()
}

func TestFramesAdvanceWhileSimulationSteps(t *testing.T) {
	registry, _ := newTestRegistry()
	v := NewVisualiser(registry, newFakeRenderer())
	sim := &slowSim{countingSim: countingSim{step: 1, limit: 10}, delay: 300 * time.Millisecond, started: make(chan struct{}, 1)}
	d := NewDriver(registry, sim, WithStopOn(v.Done()))

	v.Start()
	d.Start()
	select {
	case <-sim.started:
	case <-time.After(5 * time.Second):
		t.Fatal("simulation never stepped")
	}

	before := v.Frames()
	time.Sleep(150 * time.Millisecond)
	if got := v.Frames() - before; got == 0 {
		t.Error("no frames rendered while the simulation was computing a step")
	}

	v.Stop()
	if err := v.Join(); err != nil {
		t.Fatal(err)
	}
	if err := d.Join(); err != nil {
		t.Fatal(err)
	}
}
