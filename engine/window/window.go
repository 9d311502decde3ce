package window

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Input is the set of input handlers a Window dispatches to. Nil handlers are skipped. Handlers
// run on the goroutine that calls ProcessMessages.
type Input struct {
	// KeyDown receives key presses (see common.Key*). Escape closes the window and is not forwarded.
	KeyDown func(keyCode uint32)
	// Scroll receives the vertical wheel delta, positive away from the user.
	Scroll func(delta float32)
	// Drag receives the cursor movement in pixels while the left button is held.
	Drag func(dx, dy float32)
	// Resize receives the new framebuffer size in pixels.
	Resize func(width, height int)
}

// Window is the desktop window the visualiser draws into.
type Window interface {
	// SetInput replaces the input handlers.
	SetInput(in Input)

	// SetLoopHook sets a function run once per message loop iteration, after events are handled.
	SetLoopHook(hook func())

	// SetTitle changes the title on the next loop iteration. Safe from any goroutine.
	SetTitle(title string)

	// SurfaceDescriptor describes the window to WebGPU for surface creation.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil once the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is open and no close has been requested.
	IsRunning() bool

	// RequestClose makes ProcessMessages return. Safe from any goroutine.
	RequestClose()

	// Close destroys the window and shuts GLFW down. Call it on the creating goroutine after
	// ProcessMessages returns.
	//
	// Returns:
	//   - error: the window was already closed
	Close() error

	// ProcessMessages polls events until the window closes.
	ProcessMessages()

	// Size returns the framebuffer size in pixels.
	Size() (width, height int)
}

type glfwWindow struct {
	mu     *sync.Mutex
	handle *glfw.Window
	config windowConfig

	input Input
	hook  func()

	pendingTitle   *string
	closeRequested bool
	width, height  int

	dragging bool
	cursor   [2]float64
}

var _ Window = &glfwWindow{}

// NewWindow opens a GLFW window without a client API, for WebGPU to present into. The calling
// goroutine is locked to its OS thread and must be the one that runs ProcessMessages. Failure to
// open the window panics.
//
// Parameters:
//   - options: title and size options
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &glfwWindow{
		mu: &sync.Mutex{},
		config: windowConfig{
			title:   "Agent Visualiser",
			width:   1280,
			height:  720,
			minSize: [2]int{320, 200},
			maxSize: [2]int{3840, 2160},
		},
	}
	for _, opt := range options {
		opt(&w.config)
	}

	runtime.LockOSThread()
	if err := w.open(); err != nil {
		panic(fmt.Sprintf("window: %v", err))
	}
	return w
}

func (w *glfwWindow) SetInput(in Input) {
	w.input = in
}

func (w *glfwWindow) SetLoopHook(hook func()) {
	w.hook = hook
}

func (w *glfwWindow) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pendingTitle = &title
}

func (w *glfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.handle == nil {
		return nil
	}
	return surfaceDescriptor(w.handle)
}

func (w *glfwWindow) IsRunning() bool {
	w.mu.Lock()
	requested := w.closeRequested
	w.mu.Unlock()
	return !requested && w.handle != nil && !w.handle.ShouldClose()
}

func (w *glfwWindow) RequestClose() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeRequested = true
}

func (w *glfwWindow) Close() error {
	if w.handle == nil {
		return fmt.Errorf("window %q already closed", w.config.title)
	}
	w.handle.Destroy()
	w.handle = nil
	glfw.Terminate()
	return nil
}

func (w *glfwWindow) ProcessMessages() {
	for w.IsRunning() {
		glfw.PollEvents()

		w.mu.Lock()
		title := w.pendingTitle
		w.pendingTitle = nil
		w.mu.Unlock()
		if title != nil && w.handle != nil {
			w.handle.SetTitle(*title)
		}

		if w.hook != nil {
			w.hook()
		}
		runtime.Gosched()
	}
}

func (w *glfwWindow) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

func (w *glfwWindow) setSize(width, height int) {
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()
}
