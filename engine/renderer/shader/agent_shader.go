package shader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-vis/engine/agent_buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// CameraGroup is the bind group holding the camera uniform.
	CameraGroup = 0
	// AgentGroup is the bind group holding one storage buffer per agent attribute, in slot order.
	AgentGroup = 1

	// CameraUniformSize is the byte size of the camera uniform: a view-projection mat4x4 followed by a light direction vec4.
	CameraUniformSize = 80

	// MeshVertexStride is the byte stride of one mesh vertex: position vec3 followed by normal vec3.
	MeshVertexStride = 24

	vertexEntryPoint   = "vs_main"
	fragmentEntryPoint = "fs_main"
)

// Attribute describes one per-agent storage buffer read by the generated vertex shader.
type Attribute struct {
	// Name is the WGSL variable name of the buffer.
	Name string
	// Role decides how the value contributes to the instance transform and color. RoleCustom values are declared but unused.
	Role agent_buffer.AttributeRole
	// Width is the number of float32 elements per agent (1-3).
	Width int
}

// AttributesFromSlots builds the shader attribute list for a record's buffer slots.
//
// Parameters:
//   - slots: the record's slots, core first
//
// Returns:
//   - []Attribute: one attribute per slot, in binding order
func AttributesFromSlots(slots []*agent_buffer.BufferSlot) []Attribute {
	attrs := make([]Attribute, len(slots))
	for i, s := range slots {
		attrs[i] = Attribute{Name: s.Name(), Role: s.Role(), Width: s.Width()}
	}
	return attrs
}

// LayoutKey returns a key identifying the attribute layout. Records with equal keys can share a pipeline.
//
// Parameters:
//   - attrs: the attribute list in binding order
//
// Returns:
//   - string: the layout key
func LayoutKey(attrs []Attribute) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = fmt.Sprintf("%s/%d", a.Name, a.Width)
	}
	return "agents[" + strings.Join(parts, ",") + "]"
}

// NewAgentShaders generates the vertex and fragment stages that draw one mesh instance per agent.
// The vertex stage reads the agent at instance_index from each attribute buffer in AgentGroup and
// builds the instance transform from the position, orientation and scale roles present.
//
// Parameters:
//   - attrs: the attribute list in binding order
//
// Returns:
//   - Shader: the vertex stage
//   - Shader: the fragment stage
//   - error: an error if an attribute has an invalid name or width
func NewAgentShaders(attrs []Attribute) (Shader, Shader, error) {
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		if !validIdentifier(a.Name) {
			return nil, nil, fmt.Errorf("shader: invalid attribute name %q", a.Name)
		}
		if a.Width < 1 || a.Width > 3 {
			return nil, nil, fmt.Errorf("shader: attribute %q has width %d", a.Name, a.Width)
		}
		if seen[a.Name] {
			return nil, nil, fmt.Errorf("shader: duplicate attribute %q", a.Name)
		}
		seen[a.Name] = true
	}

	key := LayoutKey(attrs)
	source := generateAgentSource(attrs)

	vs := newShader(key+" vertex", ShaderTypeVertex, vertexEntryPoint, source)
	vs.addBinding(CameraGroup, cameraEntry(wgpu.ShaderStageVertex), "camera")
	for i, a := range attrs {
		vs.addBinding(AgentGroup, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeReadOnlyStorage,
			},
		}, a.Name)
	}
	vs.vertexLayouts = []wgpu.VertexBufferLayout{
		{
			ArrayStride: MeshVertexStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			},
		},
	}

	fs := newShader(key+" fragment", ShaderTypeFragment, fragmentEntryPoint, source)
	fs.addBinding(CameraGroup, cameraEntry(wgpu.ShaderStageFragment), "camera")

	return vs, fs, nil
}

func cameraEntry(stage wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: stage,
		Buffer: wgpu.BufferBindingLayout{
			Type:           wgpu.BufferBindingTypeUniform,
			MinBindingSize: CameraUniformSize,
		},
	}
}

// MergeBindGroupLayouts combines the per-stage descriptors of a render pipeline. Entries present
// in both stages have their visibility OR-ed together.
//
// Parameters:
//   - vertexLayouts: the vertex stage descriptors keyed by group
//   - fragmentLayouts: the fragment stage descriptors keyed by group
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group, entries sorted by binding
func MergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, stage := range []map[int]wgpu.BindGroupLayoutDescriptor{vertexLayouts, fragmentLayouts} {
		for g, desc := range stage {
			entries := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range merged[g].Entries {
				entries[e.Binding] = e
			}
			for _, e := range desc.Entries {
				if existing, ok := entries[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					entries[e.Binding] = existing
				} else {
					entries[e.Binding] = e
				}
			}
			flat := make([]wgpu.BindGroupLayoutEntry, 0, len(entries))
			for _, e := range entries {
				flat = append(flat, e)
			}
			sort.Slice(flat, func(i, j int) bool { return flat[i].Binding < flat[j].Binding })
			merged[g] = wgpu.BindGroupLayoutDescriptor{Label: fmt.Sprintf("group %d", g), Entries: flat}
		}
	}
	return merged
}

func generateAgentSource(attrs []Attribute) string {
	var b strings.Builder

	b.WriteString(`struct Camera {
    view_proj: mat4x4<f32>,
    light_dir: vec4<f32>,
};

struct VertexIn {
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
};

struct VertexOut {
    @builtin(position) clip: vec4<f32>,
    @location(0) color: vec3<f32>,
    @location(1) normal: vec3<f32>,
};

`)
	fmt.Fprintf(&b, "@group(%d) @binding(0) var<uniform> camera: Camera;\n", CameraGroup)
	for i, a := range attrs {
		fmt.Fprintf(&b, "@group(%d) @binding(%d) var<storage, read> %s: array<f32>;\n", AgentGroup, i, a.Name)
	}
	b.WriteString("\n")

	for _, a := range attrs {
		writeLoader(&b, a)
	}

	b.WriteString(`fn safe_normalize(v: vec3<f32>, fallback: vec3<f32>) -> vec3<f32> {
    let l = length(v);
    if (l < 1e-6) {
        return fallback;
    }
    return v / l;
}

fn palette(c: f32) -> vec3<f32> {
    let h = fract(c) * 6.0;
    let rgb = clamp(abs((vec3<f32>(h) + vec3<f32>(0.0, 4.0, 2.0)) % 6.0 - 3.0) - 1.0, vec3<f32>(0.0), vec3<f32>(1.0));
    return mix(vec3<f32>(1.0), rgb, 0.75);
}

@vertex
fn vs_main(v: VertexIn, @builtin(instance_index) instance: u32) -> VertexOut {
    var pos = vec3<f32>(0.0, 0.0, 0.0);
    var fwd = vec3<f32>(0.0, 0.0, 1.0);
    var up = vec3<f32>(0.0, 1.0, 0.0);
    var scale = vec3<f32>(1.0, 1.0, 1.0);
    var tint = vec3<f32>(0.8, 0.8, 0.8);
    var heading = 0.0;
    var pitch = 0.0;
    var bank = 0.0;

`)
	angles := false
	for _, a := range attrs {
		stmt, usesAngles := roleStatement(a)
		if stmt == "" {
			continue
		}
		angles = angles || usesAngles
		for _, line := range strings.Split(stmt, "\n") {
			b.WriteString("    " + line + "\n")
		}
	}
	if angles {
		b.WriteString("    fwd = vec3<f32>(cos(pitch) * sin(heading), sin(pitch), cos(pitch) * cos(heading));\n")
	}

	b.WriteString(`
    let f = safe_normalize(fwd, vec3<f32>(0.0, 0.0, 1.0));
    var r = cross(up, f);
    if (dot(r, r) < 1e-8) {
        r = cross(vec3<f32>(1.0, 0.0, 0.0), f);
    }
    r = normalize(r);
    let u0 = cross(f, r);
    let rb = r * cos(bank) + u0 * sin(bank);
    let ub = u0 * cos(bank) - r * sin(bank);

    let local = v.position * scale;
    let world = pos + rb * local.x + ub * local.y + f * local.z;

    var out: VertexOut;
    out.clip = camera.view_proj * vec4<f32>(world, 1.0);
    out.normal = rb * v.normal.x + ub * v.normal.y + f * v.normal.z;
    out.color = tint;
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    let n = safe_normalize(in.normal, vec3<f32>(0.0, 1.0, 0.0));
    let diffuse = max(dot(n, -safe_normalize(camera.light_dir.xyz, vec3<f32>(0.0, -1.0, 0.0))), 0.0);
    return vec4<f32>(in.color * (0.3 + 0.7 * diffuse), 1.0);
}
`)
	return b.String()
}

// writeLoader emits load_<name>(i) returning the agent's value as f32, vec2 or vec3.
func writeLoader(b *strings.Builder, a Attribute) {
	switch a.Width {
	case 1:
		fmt.Fprintf(b, "fn load_%[1]s(i: u32) -> f32 {\n    return %[1]s[i];\n}\n\n", a.Name)
	case 2:
		fmt.Fprintf(b, "fn load_%[1]s(i: u32) -> vec2<f32> {\n    return vec2<f32>(%[1]s[i * 2u], %[1]s[i * 2u + 1u]);\n}\n\n", a.Name)
	case 3:
		fmt.Fprintf(b, "fn load_%[1]s(i: u32) -> vec3<f32> {\n    return vec3<f32>(%[1]s[i * 3u], %[1]s[i * 3u + 1u], %[1]s[i * 3u + 2u]);\n}\n\n", a.Name)
	}
}

// roleStatement returns the WGSL applying one attribute to the vertex locals, and whether it sets heading or pitch.
func roleStatement(a Attribute) (string, bool) {
	load := fmt.Sprintf("load_%s(instance)", a.Name)
	switch a.Role {
	case agent_buffer.RolePositionX:
		return "pos.x = " + load + ";", false
	case agent_buffer.RolePositionY:
		return "pos.y = " + load + ";", false
	case agent_buffer.RolePositionZ:
		return "pos.z = " + load + ";", false
	case agent_buffer.RolePositionXY:
		return "pos = vec3<f32>(" + load + ", pos.z);", false
	case agent_buffer.RolePositionXYZ:
		return "pos = " + load + ";", false
	case agent_buffer.RoleForwardX:
		return "fwd.x = " + load + ";", false
	case agent_buffer.RoleForwardY:
		return "fwd.y = " + load + ";", false
	case agent_buffer.RoleForwardZ:
		return "fwd.z = " + load + ";", false
	case agent_buffer.RoleForwardXYZ:
		return "fwd = " + load + ";", false
	case agent_buffer.RoleUpX:
		return "up.x = " + load + ";", false
	case agent_buffer.RoleUpY:
		return "up.y = " + load + ";", false
	case agent_buffer.RoleUpZ:
		return "up.z = " + load + ";", false
	case agent_buffer.RoleUpXYZ:
		return "up = " + load + ";", false
	case agent_buffer.RoleHeading:
		return "heading = " + load + ";", true
	case agent_buffer.RolePitch:
		return "pitch = " + load + ";", true
	case agent_buffer.RoleBank:
		return "bank = " + load + ";", false
	case agent_buffer.RoleDirectionHP:
		return "heading = " + load + ".x;\npitch = " + load + ".y;", true
	case agent_buffer.RoleDirectionHPB:
		return "heading = " + load + ".x;\npitch = " + load + ".y;\nbank = " + load + ".z;", true
	case agent_buffer.RoleColor:
		return "tint = palette(" + load + ");", false
	case agent_buffer.RoleScaleX:
		return "scale.x = " + load + ";", false
	case agent_buffer.RoleScaleY:
		return "scale.y = " + load + ";", false
	case agent_buffer.RoleScaleZ:
		return "scale.z = " + load + ";", false
	case agent_buffer.RoleScaleXY:
		return "scale = vec3<f32>(" + load + ", scale.z);", false
	case agent_buffer.RoleScaleXYZ:
		return "scale = " + load + ";", false
	case agent_buffer.RoleUniformScale:
		return "scale = scale * " + load + ";", false
	default:
		return "", false
	}
}

// reservedNames are module-scope declarations of the generated source, plus the loader parameter.
var reservedNames = map[string]bool{
	"Camera": true, "VertexIn": true, "VertexOut": true, "camera": true,
	"safe_normalize": true, "palette": true, "vs_main": true, "fs_main": true, "i": true,
	"fn": true, "var": true, "let": true, "const": true, "struct": true, "return": true,
	"if": true, "else": true, "loop": true, "for": true, "while": true, "true": true, "false": true,
}

// validIdentifier reports whether name is usable as an attribute buffer name in the generated source.
func validIdentifier(name string) bool {
	if name == "" || strings.HasPrefix(name, "__") || strings.HasPrefix(name, "load_") || reservedNames[name] {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
