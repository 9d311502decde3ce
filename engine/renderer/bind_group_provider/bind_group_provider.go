package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// meshBuffers are the vertex and index buffers of an instanced mesh, plus the bytes waiting to be
// uploaded into them.
type meshBuffers struct {
	vertices   *wgpu.Buffer
	indices    *wgpu.Buffer
	indexCount int

	pendingVertices []byte
	pendingIndices  []byte
}

type bindGroupProvider struct {
	label string

	// set by the renderer backend; freed by Release
	group   *wgpu.BindGroup
	uniform []*wgpu.Buffer // by binding
	mesh    meshBuffers

	uniformSize uint64
}

// BindGroupProvider holds the GPU resources of one renderer-owned binding: the camera uniform
// group or the instanced agent mesh. Agent attribute buffers are not owned here; they belong to
// the agent buffer slots and reach shaders through a UnitTable.
type BindGroupProvider interface {
	// Release frees every buffer and the bind group set on the provider.
	Release()

	Label() string

	// BindGroup returns the group set by the backend, or nil before initialization.
	BindGroup() *wgpu.BindGroup

	// Buffer returns the buffer at a binding, or nil.
	Buffer(binding int) *wgpu.Buffer

	VertexBuffer() *wgpu.Buffer
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices drawn per instance.
	IndexCount() int

	// UniformSize returns the uniform buffer size set by WithUniformSize, or 0.
	UniformSize() uint64

	// TakeMeshData hands over the bytes staged by WithMeshData. Later calls return nil.
	//
	// Returns:
	//   - []byte: vertex bytes
	//   - []byte: index bytes
	TakeMeshData() ([]byte, []byte)

	SetBindGroup(bg *wgpu.BindGroup)
	SetBuffer(binding int, buf *wgpu.Buffer)
	SetVertexBuffer(buf *wgpu.Buffer)
	SetIndexBuffer(buf *wgpu.Buffer)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider. GPU objects are attached later by the renderer
// backend.
//
// Parameters:
//   - label: prefix for the labels of the GPU objects made for it
//   - options: WithUniformSize for a uniform group, WithMeshData for a mesh
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{label: label}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.group
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	if binding < 0 || binding >= len(p.uniform) {
		return nil
	}
	return p.uniform[binding]
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.mesh.vertices
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.mesh.indices
}

func (p *bindGroupProvider) IndexCount() int {
	return p.mesh.indexCount
}

func (p *bindGroupProvider) UniformSize() uint64 {
	return p.uniformSize
}

func (p *bindGroupProvider) TakeMeshData() ([]byte, []byte) {
	v, i := p.mesh.pendingVertices, p.mesh.pendingIndices
	p.mesh.pendingVertices, p.mesh.pendingIndices = nil, nil
	return v, i
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.group = bg
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	for len(p.uniform) <= binding {
		p.uniform = append(p.uniform, nil)
	}
	p.uniform[binding] = buf
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer) {
	p.mesh.vertices = buf
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer) {
	p.mesh.indices = buf
}

func (p *bindGroupProvider) Release() {
	if p.group != nil {
		p.group.Release()
		p.group = nil
	}
	owned := append(p.uniform, p.mesh.vertices, p.mesh.indices)
	for _, buf := range owned {
		if buf != nil {
			buf.Release()
		}
	}
	p.uniform = nil
	p.mesh.vertices, p.mesh.indices = nil, nil
}
