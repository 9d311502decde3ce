package window

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var surfaceDescriptor = wgpuglfw.GetSurfaceDescriptor

// open creates the GLFW window and routes its events to w.input.
func (w *glfwWindow) open() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init GLFW: %w", err)
	}
	// no GL context; WebGPU owns the surface
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	c := w.config
	handle, err := glfw.CreateWindow(c.width, c.height, c.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("create %q: %w", c.title, err)
	}
	handle.SetSizeLimits(c.minSize[0], c.minSize[1], c.maxSize[0], c.maxSize[1])

	handle.SetKeyCallback(w.onKey)
	handle.SetScrollCallback(func(_ *glfw.Window, _, dy float64) {
		if w.input.Scroll != nil {
			w.input.Scroll(float32(dy))
		}
	})
	handle.SetMouseButtonCallback(w.onButton)
	handle.SetCursorPosCallback(w.onCursor)
	// framebuffer pixels, which differ from window coordinates on high-DPI displays
	handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.setSize(width, height)
		if w.input.Resize != nil {
			w.input.Resize(width, height)
		}
	})

	w.handle = handle
	w.setSize(handle.GetFramebufferSize())
	return nil
}

func (w *glfwWindow) onKey(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	if key == glfw.Key(common.KeyEsc) {
		win.SetShouldClose(true)
		return
	}
	if w.input.KeyDown != nil {
		w.input.KeyDown(uint32(key))
	}
}

func (w *glfwWindow) onButton(win *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}
	w.dragging = action == glfw.Press
	if w.dragging {
		w.cursor[0], w.cursor[1] = win.GetCursorPos()
	}
}

func (w *glfwWindow) onCursor(_ *glfw.Window, x, y float64) {
	if !w.dragging {
		return
	}
	dx, dy := x-w.cursor[0], y-w.cursor[1]
	w.cursor = [2]float64{x, y}
	if w.input.Drag != nil {
		w.input.Drag(float32(dx), float32(dy))
	}
}
