package visualiser

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/agent_buffer"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/profiler"
	"github.com/Carmen-Shannon/oxy-vis/engine/window"
)

// FrameRenderer is the part of the renderer the render loop drives.
type FrameRenderer interface {
	DrawFrame(frame agent_buffer.Frame) error
	Present()
	Resize(width, height int)
	SetViewProjection(m [16]float32)
}

// visualiser implements the Visualiser interface.
type visualiser struct {
	registry agent_buffer.Registry
	renderer FrameRenderer
	window   window.Window
	camera   camera.Camera
	title    string

	running  atomic.Bool
	stopping atomic.Bool
	started  bool
	wg       sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	errMu *sync.Mutex
	err   error

	resizeMu      *sync.Mutex
	pendingResize *[2]int

	profiler         *profiler.Profiler
	profilingEnabled bool

	beginPaused      bool
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	frameCount       atomic.Int64
}

// Visualiser runs the background render loop that draws a registry's agent populations.
//
// The render goroutine is pinned to its OS thread and owns the GPU context. Each frame it runs the
// registry's growth-then-draw pass under the render buffer lock, then presents. A fatal error in
// the loop is recovered, logged and returned from Join; the registry's GPU buffers are released
// when the loop exits.
type Visualiser interface {
	// Start launches the render goroutine. Calling Start more than once panics.
	Start()

	// Stop asks the render goroutine to exit after its current frame. Safe to call multiple times
	// and from any goroutine.
	Stop()

	// Join blocks until the render goroutine has exited.
	//
	// Returns:
	//   - error: the fatal error that stopped rendering, or nil after a clean Stop
	Join() error

	// Run starts rendering and processes window messages on the calling goroutine until the window
	// closes or rendering stops, then stops and joins. Requires a window.
	//
	// Returns:
	//   - error: the result of Join
	Run() error

	// IsRunning reports whether the render goroutine is active.
	IsRunning() bool

	// Done returns a channel closed once the render loop has been told to stop.
	Done() <-chan struct{}

	// TogglePause pauses or resumes the simulation at the end of the next frame.
	TogglePause()

	// PauseState returns the current pause state.
	PauseState() agent_buffer.PauseState

	// Frames returns the number of frames rendered so far.
	Frames() int64

	// Profiler returns the profiler the render loop ticks, for the simulation driver to record steps on.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler, or nil when profiling is disabled
	Profiler() *profiler.Profiler
}

var _ Visualiser = &visualiser{}

// NewVisualiser creates a Visualiser drawing registry through r.
//
// Parameters:
//   - registry: the agent buffer registry to draw
//   - r: the renderer, usually renderer.Renderer
//   - options: functional options for window, camera, pause and frame limiting
//
// Returns:
//   - Visualiser: the new, not yet started visualiser
func NewVisualiser(registry agent_buffer.Registry, r FrameRenderer, options ...VisualiserBuilderOption) Visualiser {
	if registry == nil || r == nil {
		panic("visualiser: NewVisualiser requires a registry and a renderer")
	}
	v := &visualiser{
		registry:    registry,
		renderer:    r,
		title:       "Agent Visualiser",
		quitChannel: make(chan struct{}),
		errMu:       &sync.Mutex{},
		resizeMu:    &sync.Mutex{},
	}
	for _, opt := range options {
		opt(v)
	}
	if v.profilingEnabled {
		v.profiler = profiler.NewProfiler()
	}
	if v.window != nil {
		v.bindWindow()
	}
	return v
}

func (v *visualiser) Start() {
	if v.started {
		panic("visualiser: Start called twice")
	}
	v.started = true
	if v.beginPaused {
		v.registry.Gate().RequestBeginPaused()
	}
	v.running.Store(true)
	v.wg.Add(1)
	go v.handleRender()
}

func (v *visualiser) Stop() {
	v.signalQuit()
}

func (v *visualiser) Join() error {
	v.wg.Wait()
	v.errMu.Lock()
	defer v.errMu.Unlock()
	return v.err
}

func (v *visualiser) Run() error {
	if v.window == nil {
		return errors.New("visualiser: Run requires a window")
	}
	v.window.SetLoopHook(func() {
		if !v.IsRunning() {
			v.window.RequestClose()
		}
	})
	v.Start()
	v.window.ProcessMessages()
	v.Stop()
	return v.Join()
}

func (v *visualiser) IsRunning() bool {
	return v.running.Load()
}

func (v *visualiser) Done() <-chan struct{} {
	return v.quitChannel
}

func (v *visualiser) TogglePause() {
	v.registry.Gate().TogglePause()
}

func (v *visualiser) PauseState() agent_buffer.PauseState {
	return v.registry.PauseState()
}

func (v *visualiser) Frames() int64 {
	return v.frameCount.Load()
}

func (v *visualiser) Profiler() *profiler.Profiler {
	return v.profiler
}

// signalQuit closes the quit channel to signal the render goroutine to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (v *visualiser) signalQuit() {
	v.quitOnce.Do(func() {
		v.stopping.Store(true)
		close(v.quitChannel)
	})
}

func (v *visualiser) setErr(err error) {
	v.errMu.Lock()
	defer v.errMu.Unlock()
	if v.err == nil {
		v.err = err
	}
}

// bindWindow routes window input to the camera, the renderer and the pause toggle.
func (v *visualiser) bindWindow() {
	in := window.Input{
		KeyDown: func(keyCode uint32) {
			switch keyCode {
			case common.KeyP, common.KeySpace:
				v.TogglePause()
			case common.KeyR:
				if v.camera != nil {
					v.camera.Reset()
				}
			}
		},
		Resize: func(width, height int) {
			v.resizeMu.Lock()
			v.pendingResize = &[2]int{width, height}
			v.resizeMu.Unlock()
		},
	}
	if v.camera != nil {
		v.camera.SetAspect(v.window.Size())
		in.Scroll = v.camera.Zoom
		in.Drag = v.camera.Orbit
	}
	v.window.SetInput(in)
}

// handleRender runs the render loop until Stop is called or a frame fails.
// Recovers from panics so a GPU fault ends rendering with an error instead of crashing the process.
func (v *visualiser) handleRender() {
	defer v.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			log.Printf("[Visualiser] render goroutine recovered from panic: %v", err)
			v.setErr(err)
		}
		v.shutdown()
	}()

	lastState := v.registry.PauseState()
	v.updateTitle(lastState)

	for !v.stopping.Load() {
		frameStart := time.Now()

		v.applyResize()
		if v.camera != nil {
			v.renderer.SetViewProjection(v.camera.ViewProjectionMatrix())
		}

		var drawErr error
		v.registry.RenderFrame(func(frame agent_buffer.Frame) {
			drawErr = v.renderer.DrawFrame(frame)
		})
		if drawErr != nil {
			panic(fmt.Errorf("draw frame: %w", drawErr))
		}
		v.renderer.Present()
		v.frameCount.Add(1)

		if state := v.registry.PauseState(); state != lastState {
			log.Printf("[Visualiser] %s", state)
			v.updateTitle(state)
			lastState = state
		}

		if v.profilingEnabled && v.profiler != nil {
			v.profiler.Tick()
		}

		// Frame rate limiting
		if v.renderFrameLimit > 0 {
			if remaining := v.renderFrameLimit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// shutdown drops a pause-held lock so the simulation can finish, then releases the GPU buffers.
// Runs on the render goroutine.
func (v *visualiser) shutdown() {
	v.registry.Gate().ReleasePause()
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Visualiser] releasing agent buffers: %v", r)
			}
		}()
		v.registry.Release()
	}()
	v.running.Store(false)
	v.signalQuit()
}

func (v *visualiser) applyResize() {
	v.resizeMu.Lock()
	size := v.pendingResize
	v.pendingResize = nil
	v.resizeMu.Unlock()
	if size == nil || size[0] == 0 || size[1] == 0 {
		return
	}
	v.renderer.Resize(size[0], size[1])
	if v.camera != nil {
		v.camera.SetAspect(size[0], size[1])
	}
}

func (v *visualiser) updateTitle(state agent_buffer.PauseState) {
	if v.window == nil {
		return
	}
	if state == agent_buffer.Running {
		v.window.SetTitle(v.title)
		return
	}
	v.window.SetTitle(fmt.Sprintf("%s [%s]", v.title, state))
}
