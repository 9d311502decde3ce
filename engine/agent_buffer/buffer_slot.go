package agent_buffer

import "fmt"

// BufferSlot is one GPU interop buffer backing one attribute of one agent state.
// It owns its buffer handle: growth replaces the handle as a single allocate, copy, rebind,
// free step, so callers never see a slot with a half-applied resize.
type BufferSlot struct {
	role   AttributeRole
	custom CustomAttribute
	width  int

	device   Device
	handle   BufferHandle
	unit     int
	capacity int

	// scratch holds packed strided custom data between copies.
	scratch HostSource
}

func newCoreSlot(device Device, role AttributeRole) *BufferSlot {
	return &BufferSlot{role: role, width: ElementWidth(role), device: device}
}

func newCustomSlot(device Device, attr CustomAttribute) *BufferSlot {
	return &BufferSlot{role: RoleCustom, custom: attr, width: attr.Width, device: device}
}

// Role returns the slot's semantic role.
func (s *BufferSlot) Role() AttributeRole {
	return s.role
}

// Name returns the shader-visible name of the attribute.
func (s *BufferSlot) Name() string {
	if s.role == RoleCustom {
		return s.custom.Name
	}
	return ShaderName(s.role)
}

// Custom returns the custom attribute description. It is the zero value for core slots.
func (s *BufferSlot) Custom() CustomAttribute {
	return s.custom
}

// Width returns the number of float32 elements per agent.
func (s *BufferSlot) Width() int {
	return s.width
}

// Handle returns the current GPU buffer, or nil before the first growth.
func (s *BufferSlot) Handle() BufferHandle {
	return s.handle
}

// Unit returns the texture unit the buffer is bound to, or 0 before the first growth.
func (s *BufferSlot) Unit() int {
	return s.unit
}

// Capacity returns the number of agents the current buffer holds.
func (s *BufferSlot) Capacity() int {
	return s.capacity
}

// grow replaces the slot's buffer with one holding newCapacity agents, preserving the first
// preserve agents. The old buffer is only freed after the new one is bound, so on error the
// slot still owns a valid, bound buffer.
//
// Parameters:
//   - label: a debug label for the new buffer
//   - unit: the texture unit to bind the new buffer to
//   - newCapacity: the agent capacity of the new buffer
//   - preserve: the number of leading agents to carry over from the old buffer
//
// Returns:
//   - error: an error wrapping ErrBufferAllocation, ErrBufferCopy or ErrBufferBind
func (s *BufferSlot) grow(label string, unit, newCapacity, preserve int) error {
	next, err := s.device.CreateBuffer(label, newCapacity*s.width)
	if err != nil {
		return fmt.Errorf("%w: %s (%d agents x %d): %v", ErrBufferAllocation, label, newCapacity, s.width, err)
	}

	if s.handle != nil && preserve > 0 {
		if err := s.device.CopyBuffer(next, s.handle, preserve*s.width); err != nil {
			s.device.ReleaseBuffer(next)
			return fmt.Errorf("%w: preserving %d agents of %s: %v", ErrBufferCopy, preserve, label, err)
		}
	}

	if err := s.device.Bind(unit, next); err != nil {
		s.device.ReleaseBuffer(next)
		return fmt.Errorf("%w: %s to unit %d: %v", ErrBufferBind, label, unit, err)
	}

	old := s.handle
	s.handle = next
	s.unit = unit
	s.capacity = newCapacity
	if old != nil {
		s.device.ReleaseBuffer(old)
	}
	return nil
}

// stride returns the number of source elements per agent.
func (s *BufferSlot) stride() int {
	if s.role == RoleCustom && s.custom.ArrayLength > s.width {
		return s.custom.ArrayLength
	}
	return s.width
}

// copyFrom copies count agents from src into the slot's buffer. Custom attributes whose
// ArrayLength exceeds their width are read with stride ArrayLength and packed first; only
// host sources can be packed.
func (s *BufferSlot) copyFrom(src Source, count int) error {
	elements := count * s.width
	stride := s.stride()
	need := elements
	if count > 0 && stride != s.width {
		need = (count-1)*stride + s.width
	}
	if src == nil || src.Len() < need {
		have := 0
		if src != nil {
			have = src.Len()
		}
		return fmt.Errorf("%w: %s needs %d elements, source has %d", ErrBufferCopy, s.Name(), need, have)
	}

	if stride != s.width {
		host, ok := src.(HostSource)
		if !ok {
			return fmt.Errorf("%w: %s has stride %d but %T cannot be packed", ErrBufferCopy, s.Name(), stride, src)
		}
		s.scratch = packStrided(s.scratch[:0], host, count, stride, s.width)
		src = s.scratch
	}
	if err := s.device.CopyFromSource(s.handle, src, elements); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBufferCopy, s.Name(), err)
	}
	return nil
}

// packStrided appends the first width elements of each of count records of src to dst.
func packStrided(dst, src HostSource, count, stride, width int) HostSource {
	for i := 0; i < count; i++ {
		dst = append(dst, src[i*stride:i*stride+width]...)
	}
	return dst
}

// release frees the slot's buffer. Capacity and unit are retained as bookkeeping.
func (s *BufferSlot) release() {
	if s.handle != nil {
		s.device.ReleaseBuffer(s.handle)
		s.handle = nil
	}
}
