package renderer

// RendererBackendType selects the GPU API behind a Renderer. WebGPU is the only one.
type RendererBackendType int

const (
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode is how finished agent frames reach the surface.
type PresentMode int

const (
	// PresentModeVSync presents on vertical blank. The render loop then runs at the display rate
	// regardless of the simulation rate.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents as soon as a frame is done. Use with a visualiser frame limit.
	PresentModeUncapped
)

// MSAASampleCount is the sample count of the agent render target. Only the counts every WebGPU
// adapter supports are offered.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	// MSAA4x is the default. Thin dart meshes alias badly without it.
	MSAA4x MSAASampleCount = 4
)

// normalized returns c, or MSAA4x for any count the backend cannot create.
func (c MSAASampleCount) normalized() MSAASampleCount {
	switch c {
	case MSAAOff, MSAA4x:
		return c
	default:
		return MSAA4x
	}
}

// RendererBackend is the backend a Renderer drives: device, surface, pipelines and draw passes.
type RendererBackend interface {
	wgpuRendererBackend
}
