package visualiser

import (
	"time"

	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/window"
)

// VisualiserBuilderOption is a functional option for configuring a Visualiser.
type VisualiserBuilderOption func(*visualiser)

// WithWindow attaches the window the renderer draws into. Its input drives the pause toggle
// (P or Space), the camera (drag to orbit, scroll to zoom, R to reset) and surface resizes.
//
// Parameters:
//   - w: the window
//
// Returns:
//   - VisualiserBuilderOption: option function to apply
func WithWindow(w window.Window) VisualiserBuilderOption {
	return func(v *visualiser) {
		v.window = w
	}
}

// WithCamera sets the camera whose view-projection is uploaded every frame.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - VisualiserBuilderOption: option function to apply
func WithCamera(c camera.Camera) VisualiserBuilderOption {
	return func(v *visualiser) {
		v.camera = c
	}
}

// WithTitle sets the window title. The pause state is appended while paused.
//
// Parameters:
//   - title: the window title
//
// Returns:
//   - VisualiserBuilderOption: option function to apply
func WithTitle(title string) VisualiserBuilderOption {
	return func(v *visualiser) {
		v.title = title
	}
}

// WithBeginPaused pauses the simulation as soon as every population has received its first data,
// so the initial state can be inspected before the first step runs on.
//
// Returns:
//   - VisualiserBuilderOption: option function to apply
func WithBeginPaused() VisualiserBuilderOption {
	return func(v *visualiser) {
		v.beginPaused = true
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, logs FPS, simulation steps per second and memory stats every second
//
// Returns:
//   - VisualiserBuilderOption: option function to apply
func WithProfiling(enabled bool) VisualiserBuilderOption {
	return func(v *visualiser) {
		v.profilingEnabled = enabled
	}
}

// WithFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - VisualiserBuilderOption: option function to apply
func WithFrameLimit(fps float64) VisualiserBuilderOption {
	return func(v *visualiser) {
		if fps <= 0 {
			v.renderFrameLimit = 0
			return
		}
		v.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
