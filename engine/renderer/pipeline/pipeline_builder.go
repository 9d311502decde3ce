package pipeline

import (
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption configures a Pipeline before registration.
type PipelineBuilderOption func(*pipeline)

// WithShaders sets the vertex and fragment stages.
func WithShaders(vs, fs shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertex, p.frag = vs, fs
	}
}

// WithDepth sets depth testing and depth writes. Without a test every fragment passes.
//
// Parameters:
//   - test: compare against the depth buffer
//   - write: store fragment depth
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithDepth(test, write bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fixed.DepthTest, p.fixed.DepthWrite = test, write
	}
}

// WithBlend sets the color blend, e.g. AlphaBlend. nil draws opaque.
func WithBlend(blend *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fixed.Blend = blend
	}
}

// WithCullMode sets face culling. Open meshes need wgpu.CullModeNone.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fixed.Cull = mode
	}
}

// WithTopology sets the primitive topology.
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fixed.Topology = topology
	}
}

// WithFrontFace sets which winding faces the camera.
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fixed.FrontFace = frontFace
	}
}
