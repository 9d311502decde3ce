package agent_buffer

// BufferHandle is an opaque GPU interop buffer owned by a BufferSlot.
// The concrete type is defined by the Device that created it.
type BufferHandle interface {
	// Elements returns the number of float32 elements the buffer can hold.
	Elements() int
}

// Source is a simulation-owned attribute column that CopyAttributeData copies from.
// Devices type-switch on the concrete source; HostSource is understood by every device.
type Source interface {
	// Len returns the number of float32 elements available in the source.
	Len() int
}

// HostSource is an attribute column that lives in host memory.
type HostSource []float32

// Len returns the number of elements in the column.
func (s HostSource) Len() int {
	return len(s)
}

// Device is the GPU the subsystem allocates interop buffers from.
//
// CreateBuffer, CopyBuffer, Bind and ReleaseBuffer are only called from the render goroutine
// during the growth pass or teardown. CopyFromSource is called from the simulation goroutine
// while it holds the render buffer lock.
type Device interface {
	// CreateBuffer allocates a zeroed buffer able to hold elements float32 values.
	//
	// Parameters:
	//   - label: a debug label for the buffer
	//   - elements: the number of float32 elements to allocate
	//
	// Returns:
	//   - BufferHandle: the new buffer
	//   - error: an error if the allocation fails
	CreateBuffer(label string, elements int) (BufferHandle, error)

	// CopyBuffer copies the first elements values of src into the start of dst.
	//
	// Parameters:
	//   - dst: the destination buffer
	//   - src: the source buffer
	//   - elements: the number of float32 elements to copy
	//
	// Returns:
	//   - error: an error if the copy fails
	CopyBuffer(dst, src BufferHandle, elements int) error

	// CopyFromSource copies the first elements values of a simulation column into the start of dst.
	//
	// Parameters:
	//   - dst: the destination buffer
	//   - src: the simulation-owned source column
	//   - elements: the number of float32 elements to copy
	//
	// Returns:
	//   - error: an error if the copy fails or the source type is unsupported
	CopyFromSource(dst BufferHandle, src Source, elements int) error

	// Bind makes buf the buffer visible to shaders at the given texture unit.
	//
	// Parameters:
	//   - unit: the texture unit index
	//   - buf: the buffer to bind
	//
	// Returns:
	//   - error: an error if the binding fails
	Bind(unit int, buf BufferHandle) error

	// ReleaseBuffer frees a buffer. The handle must not be used afterwards.
	//
	// Parameters:
	//   - buf: the buffer to free
	ReleaseBuffer(buf BufferHandle)
}
