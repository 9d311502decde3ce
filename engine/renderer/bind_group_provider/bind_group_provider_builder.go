package bind_group_provider

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithUniformSize sizes the uniform buffer created for binding 0 when the provider is initialized
// as a uniform group.
//
// Parameters:
//   - size: the uniform buffer size in bytes
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithUniformSize(size uint64) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.uniformSize = size
	}
}

// WithMeshData stages vertex and index bytes for upload when the provider is initialized as a mesh.
// The staged bytes are dropped once uploaded.
//
// Parameters:
//   - vertices: raw interleaved vertex data
//   - indices: raw uint32 index data
//   - indexCount: the number of indices drawn per instance
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithMeshData(vertices, indices []byte, indexCount int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.mesh.pendingVertices = vertices
		p.mesh.pendingIndices = indices
		p.mesh.indexCount = indexCount
	}
}
