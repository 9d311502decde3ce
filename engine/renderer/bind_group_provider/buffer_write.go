package bind_group_provider

// BufferWrite describes a single queued GPU buffer write targeting a specific binding
// on a BindGroupProvider at a given byte offset. The camera uniform is updated this way.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
