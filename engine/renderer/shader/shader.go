package shader

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType is the pipeline stage an entry point runs in.
type ShaderType int

const (
	ShaderTypeVertex ShaderType = iota
	ShaderTypeFragment
)

// binding is one resource a stage declares: where it sits and the WGSL variable bound to it.
type binding struct {
	group   int
	entry   wgpu.BindGroupLayoutEntry
	varName string
}

type shader struct {
	key           string
	stage         ShaderType
	entry         string
	module        *wgpu.ShaderModuleDescriptor
	binds         []binding
	vertexLayouts []wgpu.VertexBufferLayout
}

// Shader is one stage of a generated agent program. The vertex and fragment stages of a layout
// share a single WGSL source and differ in entry point, declared bindings and vertex inputs.
type Shader interface {
	// Key identifies the stage, e.g. "<layout key> vertex".
	Key() string

	// Source returns the generated WGSL.
	Source() string

	// BindGroupLayoutDescriptors builds the layouts of the bindings this stage declares, keyed by
	// group. Pipelines merge both stages' descriptors with MergeBindGroupLayouts.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the WGSL variable at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding within the group
	//
	// Returns:
	//   - string: the variable name, or "" when the stage declares nothing there
	BindGroupVarName(group, binding int) string

	// VertexLayouts returns the vertex buffers the stage reads. Empty for fragment stages.
	VertexLayouts() []wgpu.VertexBufferLayout

	EntryPoint() string

	// Module returns the descriptor to compile the source with.
	Module() *wgpu.ShaderModuleDescriptor

	ShaderType() ShaderType
}

var _ Shader = &shader{}

func newShader(key string, stage ShaderType, entryPoint, source string) *shader {
	return &shader{
		key:   key,
		stage: stage,
		entry: entryPoint,
		module: &wgpu.ShaderModuleDescriptor{
			Label:          key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
		},
	}
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.module.WGSLDescriptor.Code
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	out := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, b := range s.binds {
		desc := out[b.group]
		desc.Entries = append(desc.Entries, b.entry)
		out[b.group] = desc
	}
	return out
}

func (s *shader) BindGroupVarName(group, bindingIndex int) string {
	for _, b := range s.binds {
		if b.group == group && int(b.entry.Binding) == bindingIndex {
			return b.varName
		}
	}
	return ""
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) EntryPoint() string {
	return s.entry
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) ShaderType() ShaderType {
	return s.stage
}

// addBinding declares a resource of the stage.
func (s *shader) addBinding(group int, entry wgpu.BindGroupLayoutEntry, varName string) {
	s.binds = append(s.binds, binding{group: group, entry: entry, varName: varName})
}
