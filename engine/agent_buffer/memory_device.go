package agent_buffer

import (
	"errors"
	"fmt"
	"sync"
)

// MemoryBuffer is the BufferHandle produced by MemoryDevice. It doubles as a Source so one
// memory buffer can feed another, the way a simulation's device column feeds a render buffer.
type MemoryBuffer struct {
	label    string
	data     []float32
	released bool
}

var (
	_ BufferHandle = &MemoryBuffer{}
	_ Source       = &MemoryBuffer{}
)

// NewMemorySource wraps values as a device-resident source column.
//
// Parameters:
//   - values: the column contents
//
// Returns:
//   - *MemoryBuffer: a buffer usable as a Source
func NewMemorySource(values []float32) *MemoryBuffer {
	return &MemoryBuffer{label: "source", data: values}
}

func (b *MemoryBuffer) Elements() int {
	return len(b.data)
}

func (b *MemoryBuffer) Len() int {
	return len(b.data)
}

// Label returns the debug label the buffer was created with.
func (b *MemoryBuffer) Label() string {
	return b.label
}

// Data returns the buffer contents. The returned slice aliases device memory.
func (b *MemoryBuffer) Data() []float32 {
	return b.data
}

// Released reports whether the buffer has been freed.
func (b *MemoryBuffer) Released() bool {
	return b.released
}

// MemoryDevice is a host-memory Device. It backs headless runs and tests, and can inject
// allocation, copy and bind failures.
type MemoryDevice struct {
	mu *sync.Mutex

	bindings map[int]*MemoryBuffer
	live     int

	allocations int
	copies      int

	// FailAllocation, FailCopy and FailBind make the next matching call return an error.
	FailAllocation bool
	FailCopy       bool
	FailBind       bool
}

var _ Device = &MemoryDevice{}

// NewMemoryDevice creates an empty MemoryDevice.
//
// Returns:
//   - *MemoryDevice: the new device
func NewMemoryDevice() *MemoryDevice {
	return &MemoryDevice{
		mu:       &sync.Mutex{},
		bindings: make(map[int]*MemoryBuffer),
	}
}

func (d *MemoryDevice) CreateBuffer(label string, elements int) (BufferHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailAllocation {
		d.FailAllocation = false
		return nil, errors.New("out of device memory")
	}
	if elements < 0 {
		return nil, fmt.Errorf("negative buffer size %d", elements)
	}
	d.allocations++
	d.live++
	return &MemoryBuffer{label: label, data: make([]float32, elements)}, nil
}

func (d *MemoryDevice) CopyBuffer(dst, src BufferHandle, elements int) error {
	s, ok := src.(*MemoryBuffer)
	if !ok {
		return fmt.Errorf("unsupported source buffer %T", src)
	}
	return d.copyInto(dst, s.data, elements)
}

func (d *MemoryDevice) CopyFromSource(dst BufferHandle, src Source, elements int) error {
	switch s := src.(type) {
	case HostSource:
		return d.copyInto(dst, s, elements)
	case *MemoryBuffer:
		return d.copyInto(dst, s.data, elements)
	default:
		return fmt.Errorf("unsupported source %T", src)
	}
}

func (d *MemoryDevice) copyInto(dst BufferHandle, src []float32, elements int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailCopy {
		d.FailCopy = false
		return errors.New("device copy faulted")
	}
	m, ok := dst.(*MemoryBuffer)
	if !ok {
		return fmt.Errorf("unsupported destination buffer %T", dst)
	}
	if m.released {
		return fmt.Errorf("copy into released buffer %q", m.label)
	}
	if elements > len(m.data) || elements > len(src) {
		return fmt.Errorf("copy of %d elements exceeds buffer (%d) or source (%d)", elements, len(m.data), len(src))
	}
	copy(m.data[:elements], src[:elements])
	d.copies++
	return nil
}

func (d *MemoryDevice) Bind(unit int, buf BufferHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailBind {
		d.FailBind = false
		return fmt.Errorf("unit %d unavailable", unit)
	}
	m, ok := buf.(*MemoryBuffer)
	if !ok {
		return fmt.Errorf("unsupported buffer %T", buf)
	}
	d.bindings[unit] = m
	return nil
}

func (d *MemoryDevice) ReleaseBuffer(buf BufferHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if m, ok := buf.(*MemoryBuffer); ok && !m.released {
		m.released = true
		m.data = nil
		d.live--
	}
}

// Bound returns the buffer currently bound at unit, or nil.
func (d *MemoryDevice) Bound(unit int) *MemoryBuffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bindings[unit]
}

// LiveBuffers returns the number of allocated buffers not yet released.
func (d *MemoryDevice) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

// Allocations returns the total number of successful allocations.
func (d *MemoryDevice) Allocations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocations
}

// Copies returns the total number of successful copies.
func (d *MemoryDevice) Copies() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.copies
}
