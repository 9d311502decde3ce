package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/engine/agent_buffer"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("agents")
	if p.PipelineKey() != "agents" {
		t.Errorf("PipelineKey = %q", p.PipelineKey())
	}
	if got := p.FixedFunction(); got != DefaultFixedFunction() {
		t.Errorf("FixedFunction = %+v", got)
	}
	if p.FixedFunction().Blend != nil {
		t.Error("default pipeline blends")
	}
	if p.RenderPipeline() != nil || p.BindGroupLayout(0) != nil {
		t.Error("unregistered pipeline has GPU objects")
	}
}

func TestPipelineOptions(t *testing.T) {
	vs, fs, err := shader.NewAgentShaders([]shader.Attribute{
		{Name: "xyz_pos", Role: agent_buffer.RolePositionXYZ, Width: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	p := NewPipeline("agents",
		WithShaders(vs, fs),
		WithCullMode(wgpu.CullModeNone),
		WithDepth(true, false),
		WithBlend(AlphaBlend),
	)
	if p.Shader(shader.ShaderTypeVertex) != vs || p.Shader(shader.ShaderTypeFragment) != fs {
		t.Error("shaders not set")
	}
	want := DefaultFixedFunction()
	want.Cull = wgpu.CullModeNone
	want.DepthWrite = false
	want.Blend = AlphaBlend
	if got := p.FixedFunction(); got != want {
		t.Errorf("FixedFunction = %+v, want %+v", got, want)
	}
	if p.BindGroupLayout(-1) != nil || p.BindGroupLayout(5) != nil {
		t.Error("out of range layout should be nil")
	}
	// Releasing an unregistered pipeline is a no-op.
	p.Release()
}
