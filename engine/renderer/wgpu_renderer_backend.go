package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

// surfaceTargets are the attachments sized to the surface. They are rebuilt on every resize.
type surfaceTargets struct {
	format    wgpu.TextureFormat
	multi     *wgpu.Texture // nil when MSAA is off
	multiView *wgpu.TextureView
	depth     *wgpu.Texture
	depthView *wgpu.TextureView
	pass      *wgpu.RenderPassDescriptor
}

func (t *surfaceTargets) release() {
	for _, v := range []*wgpu.TextureView{t.multiView, t.depthView} {
		if v != nil {
			v.Release()
		}
	}
	for _, tex := range []*wgpu.Texture{t.multi, t.depth} {
		if tex != nil {
			tex.Release()
		}
	}
	*t = surfaceTargets{format: t.format}
}

// openFrame is the swapchain image and pass of the frame being recorded.
type openFrame struct {
	image   *wgpu.Texture
	view    *wgpu.TextureView
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
}

// wgpuBackend records every agent draw of a frame into a single render pass on the window surface.
type wgpuBackend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	targets surfaceTargets
	frame   *openFrame

	presentMode wgpu.PresentMode
	samples     uint32
	clear       wgpu.Color
}

type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue

	// ConfigureSurface (re)configures the surface and rebuilds the depth and multisample targets
	// for the given size. A zero size, as reported for a minimised window, is ignored.
	ConfigureSurface(width, height int)

	// SetPresentMode picks how frames reach the display. Applied by the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// RegisterRenderPipeline compiles the pipeline's generated shaders and builds its layouts and
	// render pipeline.
	//
	// Parameters:
	//   - p: a pipeline holding a vertex and a fragment shader
	//
	// Returns:
	//   - error: a shader, layout or pipeline creation failure
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// InitMeshBuffers uploads the mesh staged on the provider with WithMeshData into new vertex and
	// index buffers stored on the provider.
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider) error

	// InitUniformGroup creates a uniform buffer of the provider's UniformSize at binding 0 and a
	// bind group over it.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the buffer and bind group on
	//   - layout: the bind group layout the group must match
	//
	// Returns:
	//   - error: an error if the size is unset or the buffer or bind group could not be created
	InitUniformGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout) error

	// CreateStorageBindGroup binds each buffer whole, buffer i at binding i.
	CreateStorageBindGroup(label string, layout *wgpu.BindGroupLayout, buffers []*wgpu.Buffer) (*wgpu.BindGroup, error)

	// WriteBuffers queues each write against the provider buffer it names. Writes to unbound
	// bindings are skipped.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame takes the next swapchain image and opens the frame's render pass.
	//
	// Returns:
	//   - error: the surface is unconfigured, the last frame was not presented, or no image was available
	BeginFrame() error

	// DrawCall records one instanced draw of the provider's mesh into the open pass. Without an
	// open pass it does nothing.
	//
	// Parameters:
	//   - p: the registered render pipeline
	//   - meshProvider: the provider holding the vertex and index buffers
	//   - instanceCount: agents to draw
	//   - bindGroups: bind groups by group index
	DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []*wgpu.BindGroup)

	// EndFrame closes the pass and submits it. The image stays held until Present.
	EndFrame()

	// Present shows the submitted image and gives it back to the swapchain.
	Present()

	// Release frees the surface attachments, device and instance.
	Release()
}

var _ RendererBackend = &wgpuBackend{}

// newWGPURendererBackend locks the calling goroutine to its thread and opens a device able to
// present to the described surface. Adapter or device failures panic.
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount, clearColor wgpu.Color) wgpuRendererBackend {
	runtime.LockOSThread()

	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(surfaceDescriptor)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    surface,
	})
	if err != nil {
		panic(fmt.Errorf("request adapter: %w", err))
	}

	// Default limits give 8 storage buffers per stage, the MaxSlots bound of a record.
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "Agent Device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: wgpu.DefaultLimits()},
	})
	if err != nil {
		panic(fmt.Errorf("request device: %w", err))
	}

	return &wgpuBackend{
		mu:          &sync.Mutex{},
		instance:    instance,
		adapter:     adapter,
		surface:     surface,
		device:      device,
		queue:       device.GetQueue(),
		presentMode: wgpu.PresentModeImmediate,
		samples:     uint32(sampleCount),
		clear:       clearColor,
	}
}

func (b *wgpuBackend) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuBackend) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuBackend) ConfigureSurface(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	caps := b.surface.GetCapabilities(b.adapter)
	b.targets.release()
	b.targets.format = caps.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.targets.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   caps.AlphaModes[0],
	})

	extent := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	colorStore := wgpu.StoreOpStore
	if b.samples > 1 {
		// drawn multisampled, resolved into the swapchain image in BeginFrame
		b.targets.multi, b.targets.multiView = b.attachment("Multisample Target", extent, b.targets.format)
		colorStore = wgpu.StoreOpDiscard
	}
	b.targets.depth, b.targets.depthView = b.attachment("Depth Target", extent, depthFormat)

	b.targets.pass = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       b.targets.multiView,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    colorStore,
			ClearValue: b.clear,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.targets.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1,
		},
	}
}

// attachment creates a render target with the backend's sample count. Caller holds b.mu.
func (b *wgpuBackend) attachment(label string, extent wgpu.Extent3D, format wgpu.TextureFormat) (*wgpu.Texture, *wgpu.TextureView) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   b.samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(fmt.Errorf("%s: %w", label, err))
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		panic(fmt.Errorf("%s view: %w", label, err))
	}
	return tex, view
}

func (b *wgpuBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.presentMode = wgpu.PresentModeImmediate
	if mode == PresentModeVSync {
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vert, frag := p.Shader(shader.ShaderTypeVertex), p.Shader(shader.ShaderTypeFragment)
	if vert == nil || frag == nil {
		return errors.New("render pipeline needs a vertex and a fragment shader")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vertModule, err := b.device.CreateShaderModule(vert.Module())
	if err != nil {
		return fmt.Errorf("compile %s: %w", vert.Key(), err)
	}
	defer vertModule.Release()
	fragModule, err := b.device.CreateShaderModule(frag.Module())
	if err != nil {
		return fmt.Errorf("compile %s: %w", frag.Key(), err)
	}
	defer fragModule.Release()

	groups, err := b.groupLayouts(shader.MergeBindGroupLayouts(vert.BindGroupLayoutDescriptors(), frag.BindGroupLayoutDescriptors()))
	if err != nil {
		return err
	}
	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: groups,
	})
	if err != nil {
		return fmt.Errorf("pipeline layout %s: %w", p.PipelineKey(), err)
	}
	defer layout.Release()

	fixed := p.FixedFunction()
	color := wgpu.ColorTargetState{Format: b.targets.format, Blend: fixed.Blend, WriteMask: wgpu.ColorWriteMaskAll}
	compare := wgpu.CompareFunctionAlways
	if fixed.DepthTest {
		compare = wgpu.CompareFunctionLess
	}
	always := wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways}

	rp, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey(),
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vertModule,
			EntryPoint: vert.EntryPoint(),
			Buffers:    vert.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fragModule,
			EntryPoint: frag.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{color},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  fixed.Topology,
			FrontFace: fixed.FrontFace,
			CullMode:  fixed.Cull,
		},
		Multisample: wgpu.MultisampleState{Count: b.samples, Mask: ^uint32(0)},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: fixed.DepthWrite,
			DepthCompare:      compare,
			StencilFront:      always,
			StencilBack:       always,
		},
	})
	if err != nil {
		return fmt.Errorf("render pipeline %s: %w", p.PipelineKey(), err)
	}

	p.SetRenderPipeline(rp, groups)
	return nil
}

// groupLayouts creates one layout per merged group, indexed by group number. Caller holds b.mu.
func (b *wgpuBackend) groupLayouts(merged map[int]wgpu.BindGroupLayoutDescriptor) ([]*wgpu.BindGroupLayout, error) {
	count := 0
	for g := range merged {
		count = max(count, g+1)
	}
	layouts := make([]*wgpu.BindGroupLayout, count)
	for g, desc := range merged {
		l, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			for _, made := range layouts {
				if made != nil {
					made.Release()
				}
			}
			return nil, fmt.Errorf("bind group layout %d: %w", g, err)
		}
		layouts[g] = l
	}
	return layouts, nil
}

func (b *wgpuBackend) InitMeshBuffers(provider bind_group_provider.BindGroupProvider) error {
	vertices, indices := provider.TakeMeshData()
	if len(vertices) == 0 || len(indices) == 0 {
		return fmt.Errorf("%s: no mesh data staged", provider.Label())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vb, err := b.upload(provider.Label()+" Vertices", vertices, wgpu.BufferUsageVertex)
	if err != nil {
		return err
	}
	ib, err := b.upload(provider.Label()+" Indices", indices, wgpu.BufferUsageIndex)
	if err != nil {
		vb.Release()
		return err
	}
	provider.SetVertexBuffer(vb)
	provider.SetIndexBuffer(ib)
	return nil
}

// upload creates a buffer holding data. Caller holds b.mu.
func (b *wgpuBackend) upload(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuBackend) InitUniformGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout) error {
	size := provider.UniformSize()
	if size == 0 {
		return fmt.Errorf("%s: uniform size not set", provider.Label())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	uniform := provider.Buffer(0)
	if uniform == nil {
		var err error
		if uniform, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: provider.Label() + " Uniform",
			Size:  size,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		}); err != nil {
			return fmt.Errorf("%s uniform: %w", provider.Label(), err)
		}
		provider.SetBuffer(0, uniform)
	}

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label(),
		Layout:  layout,
		Entries: []wgpu.BindGroupEntry{{Binding: 0, Buffer: uniform, Size: wgpu.WholeSize}},
	})
	if err != nil {
		return fmt.Errorf("%s bind group: %w", provider.Label(), err)
	}
	if prev := provider.BindGroup(); prev != nil {
		prev.Release()
	}
	provider.SetBindGroup(group)
	return nil
}

func (b *wgpuBackend) CreateStorageBindGroup(label string, layout *wgpu.BindGroupLayout, buffers []*wgpu.Buffer) (*wgpu.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(buffers))
	for binding, buf := range buffers {
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(binding), Buffer: buf, Size: wgpu.WholeSize})
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{Label: label, Layout: layout, Entries: entries})
}

func (b *wgpuBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		if dst := w.Provider.Buffer(w.Binding); dst != nil {
			b.queue.WriteBuffer(dst, w.Offset, w.Data)
		}
	}
}

func (b *wgpuBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.targets.pass == nil:
		return errors.New("surface not configured")
	case b.frame != nil:
		return errors.New("previous frame not presented")
	}

	image, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire swapchain image: %w", err)
	}
	f := &openFrame{image: image}
	if f.view, err = image.CreateView(nil); err != nil {
		f.release()
		return err
	}
	if f.encoder, err = b.device.CreateCommandEncoder(nil); err != nil {
		f.release()
		return err
	}

	color := &b.targets.pass.ColorAttachments[0]
	if b.samples > 1 {
		color.ResolveTarget = f.view
	} else {
		color.View = f.view
	}
	f.pass = f.encoder.BeginRenderPass(b.targets.pass)
	b.frame = f
	return nil
}

func (b *wgpuBackend) DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []*wgpu.BindGroup) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame == nil || b.frame.pass == nil {
		return
	}
	pass := b.frame.pass
	pass.SetPipeline(p.RenderPipeline())
	for group, bg := range bindGroups {
		pass.SetBindGroup(uint32(group), bg, nil)
	}
	pass.SetVertexBuffer(0, meshProvider.VertexBuffer(), 0, wgpu.WholeSize)
	pass.SetIndexBuffer(meshProvider.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(meshProvider.IndexCount()), instanceCount, 0, 0, 0)
}

func (b *wgpuBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	f := b.frame
	if f == nil || f.pass == nil {
		return
	}
	f.pass.End()
	f.pass.Release()
	f.pass = nil

	commands, err := f.encoder.Finish(nil)
	f.encoder.Release()
	f.encoder = nil
	if err != nil {
		// nothing to present
		f.release()
		b.frame = nil
		return
	}
	b.queue.Submit(commands)
	commands.Release()
}

func (b *wgpuBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame == nil {
		return
	}
	b.surface.Present()
	b.frame.release()
	b.frame = nil
}

// release frees whatever the frame still holds.
func (f *openFrame) release() {
	if f.pass != nil {
		f.pass.Release()
	}
	if f.encoder != nil {
		f.encoder.Release()
	}
	if f.view != nil {
		f.view.Release()
	}
	if f.image != nil {
		f.image.Release()
	}
	*f = openFrame{}
}

func (b *wgpuBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frame != nil {
		b.frame.release()
		b.frame = nil
	}
	b.targets.release()
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
	b.queue, b.device, b.adapter, b.surface, b.instance = nil, nil, nil, nil, nil
}
