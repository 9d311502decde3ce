package renderer

import (
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithMSAA sets the sample count of the agent render target. Counts other than MSAAOff and
// MSAA4x fall back to MSAA4x.
//
// Parameters:
//   - count: MSAAOff or MSAA4x (default)
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingMSAA = &count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). Useful for benchmarking CPU vs GPU rendering performance.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithMesh replaces the mesh drawn once per agent. The default is a dart pointing along +Z.
//
// Parameters:
//   - mesh: the Mesh to instance
//
// Returns:
//   - RendererBuilderOption: a function that applies the mesh option to a renderer
func WithMesh(mesh Mesh) RendererBuilderOption {
	return func(r *renderer) {
		r.mesh = mesh
	}
}

// WithClearColor sets the color the surface is cleared to at the start of each frame.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(color wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = color
	}
}

// WithPipelineOptions appends options applied to every agent pipeline the renderer generates,
// e.g. pipeline.WithCullMode(wgpu.CullModeNone) for open meshes.
//
// Parameters:
//   - opts: the pipeline options
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipeline options to a renderer
func WithPipelineOptions(opts ...pipeline.PipelineBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.pipelineOptions = append(r.pipelineOptions, opts...)
	}
}
