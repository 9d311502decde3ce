package pipeline

import (
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// FixedFunction is the non-programmable state a render pipeline is created with.
type FixedFunction struct {
	DepthTest  bool
	DepthWrite bool
	Cull       wgpu.CullMode
	Topology   wgpu.PrimitiveTopology
	FrontFace  wgpu.FrontFace
	// Blend is the color blend, or nil for opaque output.
	Blend *wgpu.BlendState
}

// DefaultFixedFunction draws opaque, depth tested, back-face culled triangle lists wound
// counter-clockwise.
func DefaultFixedFunction() FixedFunction {
	return FixedFunction{
		DepthTest:  true,
		DepthWrite: true,
		Cull:       wgpu.CullModeBack,
		Topology:   wgpu.PrimitiveTopologyTriangleList,
		FrontFace:  wgpu.FrontFaceCCW,
	}
}

// AlphaBlend is straight alpha over blending.
var AlphaBlend = &wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

type pipeline struct {
	key    string
	vertex shader.Shader
	frag   shader.Shader
	fixed  FixedFunction

	// set once the backend has registered the pipeline
	gpu     *wgpu.RenderPipeline
	layouts []*wgpu.BindGroupLayout
}

// Pipeline draws one agent attribute layout: its generated vertex and fragment shaders, the fixed
// function state and, after registration, the GPU pipeline with its bind group layouts.
type Pipeline interface {
	// PipelineKey returns the attribute layout key the pipeline is cached under.
	PipelineKey() string

	// Shader returns the stage's shader, or nil.
	Shader(shaderType shader.ShaderType) shader.Shader

	// FixedFunction returns the state the GPU pipeline is created with.
	FixedFunction() FixedFunction

	// RenderPipeline returns the GPU pipeline, or nil before registration.
	RenderPipeline() *wgpu.RenderPipeline

	// BindGroupLayout returns the layout of a bind group.
	//
	// Parameters:
	//   - group: the group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout, or nil before registration or for an unknown group
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// SetRenderPipeline is called by the backend once the GPU objects exist.
	SetRenderPipeline(p *wgpu.RenderPipeline, layouts []*wgpu.BindGroupLayout)

	// Release frees the GPU objects. The shaders stay, so the pipeline can be registered again.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates an unregistered pipeline with DefaultFixedFunction state.
//
// Parameters:
//   - key: the attribute layout key
//   - opts: shaders and fixed function overrides
//
// Returns:
//   - Pipeline: the pipeline
func NewPipeline(key string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{key: key, fixed: DefaultFixedFunction()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.key
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertex
	case shader.ShaderTypeFragment:
		return p.frag
	}
	return nil
}

func (p *pipeline) FixedFunction() FixedFunction {
	return p.fixed
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.gpu
}

func (p *pipeline) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	if group < 0 || group >= len(p.layouts) {
		return nil
	}
	return p.layouts[group]
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline, layouts []*wgpu.BindGroupLayout) {
	p.gpu, p.layouts = rp, layouts
}

func (p *pipeline) Release() {
	if p.gpu != nil {
		p.gpu.Release()
	}
	for _, l := range p.layouts {
		if l != nil {
			l.Release()
		}
	}
	p.gpu, p.layouts = nil, nil
}
