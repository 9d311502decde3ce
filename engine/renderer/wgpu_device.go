package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/agent_buffer"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

const bytesPerElement = 4

// storageBuffer is the BufferHandle created by WGPUDevice.
type storageBuffer struct {
	label    string
	buf      *wgpu.Buffer
	elements int
}

func (b *storageBuffer) Elements() int {
	return b.elements
}

// BufferSource is a simulation column that already lives in a GPU buffer, e.g. the output of a
// compute pass. The buffer must have been created with wgpu.BufferUsageCopySrc.
type BufferSource struct {
	Buffer *wgpu.Buffer
	// Count is the number of float32 elements in the buffer.
	Count int
}

// Len returns the number of float32 elements in the source.
func (s BufferSource) Len() int {
	return s.Count
}

// WGPUDevice allocates agent attribute buffers as WebGPU storage buffers. Copies are encoded on
// their own command encoder and submitted immediately, so queue order keeps them ahead of the next
// frame's draw. Texture units map to storage bindings through the renderer's UnitTable.
type WGPUDevice struct {
	mu *sync.Mutex

	device *wgpu.Device
	queue  *wgpu.Queue
	units  bind_group_provider.UnitTable
}

var _ agent_buffer.Device = &WGPUDevice{}

func newWGPUDevice(device *wgpu.Device, queue *wgpu.Queue, units bind_group_provider.UnitTable) *WGPUDevice {
	return &WGPUDevice{
		mu:     &sync.Mutex{},
		device: device,
		queue:  queue,
		units:  units,
	}
}

func (d *WGPUDevice) CreateBuffer(label string, elements int) (agent_buffer.BufferHandle, error) {
	if elements <= 0 {
		return nil, fmt.Errorf("buffer %q: invalid element count %d", label, elements)
	}
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             uint64(elements * bytesPerElement),
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	return &storageBuffer{label: label, buf: buf, elements: elements}, nil
}

func (d *WGPUDevice) CopyBuffer(dst, src agent_buffer.BufferHandle, elements int) error {
	to, err := asStorage(dst)
	if err != nil {
		return err
	}
	from, err := asStorage(src)
	if err != nil {
		return err
	}
	return d.copyGPU(from.buf, to, elements)
}

func (d *WGPUDevice) CopyFromSource(dst agent_buffer.BufferHandle, src agent_buffer.Source, elements int) error {
	to, err := asStorage(dst)
	if err != nil {
		return err
	}
	if elements > to.elements {
		return fmt.Errorf("copy of %d elements overflows %q (%d)", elements, to.label, to.elements)
	}

	switch s := src.(type) {
	case agent_buffer.HostSource:
		if elements > len(s) {
			return fmt.Errorf("host source has %d elements, need %d", len(s), elements)
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		d.queue.WriteBuffer(to.buf, 0, common.SliceToBytes(s[:elements]))
		return nil
	case BufferSource:
		if elements > s.Count {
			return fmt.Errorf("buffer source has %d elements, need %d", s.Count, elements)
		}
		return d.copyGPU(s.Buffer, to, elements)
	case *BufferSource:
		return d.CopyFromSource(dst, *s, elements)
	default:
		return fmt.Errorf("unsupported source type %T", src)
	}
}

func (d *WGPUDevice) Bind(unit int, buf agent_buffer.BufferHandle) error {
	b, err := asStorage(buf)
	if err != nil {
		return err
	}
	d.units.Bind(unit, b.buf)
	return nil
}

func (d *WGPUDevice) ReleaseBuffer(buf agent_buffer.BufferHandle) {
	b, err := asStorage(buf)
	if err != nil || b.buf == nil {
		return
	}
	d.units.Unbind(b.buf)
	b.buf.Release()
	b.buf = nil
}

func (d *WGPUDevice) copyGPU(src *wgpu.Buffer, dst *storageBuffer, elements int) error {
	if elements > dst.elements {
		return fmt.Errorf("copy of %d elements overflows %q (%d)", elements, dst.label, dst.elements)
	}
	if elements == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: dst.label + " Copy"})
	if err != nil {
		return err
	}
	defer encoder.Release()

	encoder.CopyBufferToBuffer(src, 0, dst.buf, 0, uint64(elements*bytesPerElement))
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()

	d.queue.Submit(commandBuffer)
	return nil
}

func asStorage(h agent_buffer.BufferHandle) (*storageBuffer, error) {
	b, ok := h.(*storageBuffer)
	if !ok {
		return nil, fmt.Errorf("buffer handle %T was not created by this device", h)
	}
	return b, nil
}
