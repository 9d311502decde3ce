package shader

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/engine/agent_buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

func flockAttributes() []Attribute {
	return []Attribute{
		{Name: "xyz_pos", Role: agent_buffer.RolePositionXYZ, Width: 3},
		{Name: "xyz_fwd", Role: agent_buffer.RoleForwardXYZ, Width: 3},
		{Name: "color", Role: agent_buffer.RoleColor, Width: 1},
		{Name: "energy", Role: agent_buffer.RoleCustom, Width: 2},
	}
}

func TestNewAgentShadersDeclaresOneBindingPerAttribute(t *testing.T) {
	vs, fs, err := NewAgentShaders(flockAttributes())
	if err != nil {
		t.Fatal(err)
	}
	src := vs.Source()
	for i, want := range []string{
		"@group(1) @binding(0) var<storage, read> xyz_pos: array<f32>;",
		"@group(1) @binding(1) var<storage, read> xyz_fwd: array<f32>;",
		"@group(1) @binding(2) var<storage, read> color: array<f32>;",
		"@group(1) @binding(3) var<storage, read> energy: array<f32>;",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("binding %d missing: %q", i, want)
		}
		if got := vs.BindGroupVarName(AgentGroup, i); got != flockAttributes()[i].Name {
			t.Errorf("BindGroupVarName(1, %d) = %q", i, got)
		}
	}
	if fs.Source() != src {
		t.Error("fragment and vertex stages should share one module source")
	}

	agents := vs.BindGroupLayoutDescriptors()[AgentGroup]
	if len(agents.Entries) != 4 {
		t.Fatalf("agent group has %d entries, want 4", len(agents.Entries))
	}
	for _, e := range agents.Entries {
		if e.Buffer.Type != wgpu.BufferBindingTypeReadOnlyStorage || e.Visibility != wgpu.ShaderStageVertex {
			t.Errorf("entry %d = %+v", e.Binding, e)
		}
	}
	if _, ok := fs.BindGroupLayoutDescriptors()[AgentGroup]; ok {
		t.Error("fragment stage should not declare agent buffers")
	}
}

func TestNewAgentShadersLoaders(t *testing.T) {
	vs, _, err := NewAgentShaders(flockAttributes())
	if err != nil {
		t.Fatal(err)
	}
	src := vs.Source()
	for _, want := range []string{
		"fn load_xyz_pos(i: u32) -> vec3<f32>",
		"fn load_color(i: u32) -> f32",
		"fn load_energy(i: u32) -> vec2<f32>",
		"pos = load_xyz_pos(instance);",
		"fwd = load_xyz_fwd(instance);",
		"tint = palette(load_color(instance));",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("source missing %q", want)
		}
	}
	if strings.Contains(src, "load_energy(instance)") {
		t.Error("custom attributes should not feed the transform")
	}
	if strings.Contains(src, "cos(pitch) * sin(heading)") {
		t.Error("angle forward emitted without angle roles")
	}
}

func TestNewAgentShadersAngles(t *testing.T) {
	vs, _, err := NewAgentShaders([]Attribute{
		{Name: "xy_pos", Role: agent_buffer.RolePositionXY, Width: 2},
		{Name: "direction_hpb", Role: agent_buffer.RoleDirectionHPB, Width: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	src := vs.Source()
	for _, want := range []string{
		"pos = vec3<f32>(load_xy_pos(instance), pos.z);",
		"bank = load_direction_hpb(instance).z;",
		"fwd = vec3<f32>(cos(pitch) * sin(heading), sin(pitch), cos(pitch) * cos(heading));",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("source missing %q", want)
		}
	}
}

func TestNewAgentShadersRejectsBadAttributes(t *testing.T) {
	tests := []struct {
		name  string
		attrs []Attribute
	}{
		{"empty name", []Attribute{{Name: "", Width: 1}}},
		{"leading digit", []Attribute{{Name: "1x", Width: 1}}},
		{"reserved", []Attribute{{Name: "camera", Width: 1}}},
		{"loader prefix", []Attribute{{Name: "load_x", Width: 1}}},
		{"width", []Attribute{{Name: "x", Width: 4}}},
		{"duplicate", []Attribute{{Name: "x", Width: 1}, {Name: "x", Width: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := NewAgentShaders(tt.attrs); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLayoutKey(t *testing.T) {
	a := LayoutKey(flockAttributes())
	if a != "agents[xyz_pos/3,xyz_fwd/3,color/1,energy/2]" {
		t.Errorf("LayoutKey = %q", a)
	}
	if LayoutKey(flockAttributes()[:3]) == a {
		t.Error("different layouts share a key")
	}
}

func TestMergeBindGroupLayouts(t *testing.T) {
	vs, fs, err := NewAgentShaders(flockAttributes())
	if err != nil {
		t.Fatal(err)
	}
	merged := MergeBindGroupLayouts(vs.BindGroupLayoutDescriptors(), fs.BindGroupLayoutDescriptors())
	if len(merged) != 2 {
		t.Fatalf("merged %d groups, want 2", len(merged))
	}
	cam := merged[CameraGroup].Entries
	if len(cam) != 1 || cam[0].Visibility != wgpu.ShaderStageVertex|wgpu.ShaderStageFragment {
		t.Errorf("camera entries = %+v", cam)
	}
	agents := merged[AgentGroup].Entries
	for i, e := range agents {
		if int(e.Binding) != i {
			t.Errorf("agent entry %d has binding %d", i, e.Binding)
		}
	}
}
