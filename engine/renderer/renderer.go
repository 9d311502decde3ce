package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/agent_buffer"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-vis/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

type renderer struct {
	mu *sync.Mutex

	// pipelineCache holds one pipeline per attribute layout key
	pipelineCache   map[string]pipeline.Pipeline
	pipelineOptions []pipeline.PipelineBuilderOption

	backendType RendererBackendType
	backend     RendererBackend
	device      *WGPUDevice
	units       bind_group_provider.UnitTable

	mesh     Mesh
	meshData bind_group_provider.BindGroupProvider
	camera   bind_group_provider.BindGroupProvider

	cameraUniform [shader.CameraUniformSize / 4]float32
	cameraDirty   bool

	// read once by NewRenderer
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	clearColor           wgpu.Color
}

// Renderer draws agent populations straight out of their attribute buffers.
//
// Every record is drawn as one instanced draw of the renderer's mesh, with one instance per agent.
// Records sharing an attribute layout share a render pipeline generated for that layout; each
// record gets its own bind group over the storage buffers bound at its texture units.
type Renderer interface {
	// Device returns the agent buffer device backed by this renderer's GPU.
	//
	// Returns:
	//   - *WGPUDevice: the device to create the agent buffer registry with
	Device() *WGPUDevice

	// Resize rebuilds the surface targets for a new framebuffer size. Zero sizes are ignored.
	Resize(width, height int)

	// SetPresentMode changes frame pacing from the next Resize on.
	SetPresentMode(mode PresentMode)

	// SetViewProjection sets the column-major view-projection matrix used by the next frame.
	//
	// Parameters:
	//   - m: the 4x4 matrix
	SetViewProjection(m [16]float32)

	// SetLightDirection sets the direction the scene light travels in.
	//
	// Parameters:
	//   - x, y, z: the light direction, need not be normalized
	SetLightDirection(x, y, z float32)

	// BeginFrame uploads a changed camera uniform, then opens the frame's render pass.
	//
	// Returns:
	//   - error: no swapchain image could be taken
	BeginFrame() error

	// DrawAgents encodes the draw of one agent record within the current render pass. The render
	// pipeline for the record's attribute layout is generated on first use.
	//
	// Parameters:
	//   - cmd: the draw command produced by the registry for this frame
	//
	// Returns:
	//   - error: an error if the pipeline or bind group could not be created
	DrawAgents(cmd agent_buffer.DrawCommand) error

	// EndFrame submits the frame's draws.
	EndFrame()

	// Present shows the last submitted frame.
	Present()

	// DrawFrame draws every command of a registry frame: BeginFrame, DrawAgents per command, EndFrame.
	// A frame that is not ready still clears the surface.
	//
	// Parameters:
	//   - frame: the frame passed to the registry's draw callback
	//
	// Returns:
	//   - error: the first error from BeginFrame or DrawAgents
	DrawFrame(frame agent_buffer.Frame) error

	// Release frees pipelines, bind groups, the mesh and the GPU device. Agent buffers must
	// already have been released through the registry.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer opens a GPU device presenting into window and uploads the agent mesh. GPU setup
// failures panic.
//
// Parameters:
//   - backendType: BackendTypeWGPU
//   - window: the window to draw into
//   - options: mesh, MSAA, present mode and pipeline options
//
// Returns:
//   - Renderer: the renderer, with an empty pipeline cache
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		units:         bind_group_provider.NewUnitTable(),
		mesh:          DartMesh(1.0, 0.35),
		clearColor:    wgpu.Color{R: 0.05, G: 0.06, B: 0.08, A: 1.0},
	}
	identity := common.Identity()
	copy(r.cameraUniform[:16], identity[:])
	r.cameraUniform[16], r.cameraUniform[17], r.cameraUniform[18] = -0.3, -1.0, -0.5
	r.cameraDirty = true

	// Options are applied first so config flags are available before the adapter is requested.
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = r.pendingMSAA.normalized()
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, msaa, r.clearColor)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.ConfigureSurface(window.Size())

	r.device = newWGPUDevice(r.backend.Device(), r.backend.Queue(), r.units)

	r.meshData = bind_group_provider.NewBindGroupProvider("Agent Mesh",
		bind_group_provider.WithMeshData(common.SliceToBytes(r.mesh.Vertices), common.SliceToBytes(r.mesh.Indices), len(r.mesh.Indices)),
	)
	if err := r.backend.InitMeshBuffers(r.meshData); err != nil {
		panic(fmt.Sprintf("renderer: failed to upload agent mesh: %v", err))
	}
	r.camera = bind_group_provider.NewBindGroupProvider("Camera", bind_group_provider.WithUniformSize(shader.CameraUniformSize))
	return r
}

func (r *renderer) Device() *WGPUDevice {
	return r.device
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetViewProjection(m [16]float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy(r.cameraUniform[:16], m[:])
	r.cameraDirty = true
}

func (r *renderer) SetLightDirection(x, y, z float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cameraUniform[16], r.cameraUniform[17], r.cameraUniform[18] = x, y, z
	r.cameraDirty = true
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	if r.cameraDirty && r.camera.Buffer(0) != nil {
		r.backend.WriteBuffers([]bind_group_provider.BufferWrite{
			{Provider: r.camera, Binding: 0, Offset: 0, Data: common.SliceToBytes(r.cameraUniform[:])},
		})
		r.cameraDirty = false
	}
	r.mu.Unlock()
	return r.backend.BeginFrame()
}

func (r *renderer) DrawAgents(cmd agent_buffer.DrawCommand) error {
	if cmd.Instances <= 0 || len(cmd.Slots) == 0 {
		return nil
	}

	p, err := r.pipelineFor(cmd.Slots)
	if err != nil {
		return err
	}
	if err := r.ensureCamera(p); err != nil {
		return err
	}

	label := cmd.Key.String()
	agents, err := r.units.BindGroup(label, cmd.TextureUnitBase, len(cmd.Slots), func(buffers []*wgpu.Buffer) (*wgpu.BindGroup, error) {
		return r.backend.CreateStorageBindGroup(label, p.BindGroupLayout(shader.AgentGroup), buffers)
	})
	if err != nil {
		return fmt.Errorf("bind group for %s: %w", label, err)
	}

	bindGroups := make([]*wgpu.BindGroup, 2)
	bindGroups[shader.CameraGroup] = r.camera.BindGroup()
	bindGroups[shader.AgentGroup] = agents
	r.backend.DrawCall(p, r.meshData, uint32(cmd.Instances), bindGroups)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) DrawFrame(frame agent_buffer.Frame) error {
	if err := r.BeginFrame(); err != nil {
		return err
	}
	defer r.EndFrame()
	for _, cmd := range frame.Draws {
		if err := r.DrawAgents(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.units.Release()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	if r.camera != nil {
		r.camera.Release()
	}
	if r.meshData != nil {
		r.meshData.Release()
	}
	r.backend.Release()
}

// pipelineFor returns the cached pipeline for the slots' attribute layout, generating and registering it on a miss.
func (r *renderer) pipelineFor(slots []*agent_buffer.BufferSlot) (pipeline.Pipeline, error) {
	attrs := shader.AttributesFromSlots(slots)
	key := shader.LayoutKey(attrs)

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pipelineCache[key]; ok {
		return p, nil
	}
	vs, fs, err := shader.NewAgentShaders(attrs)
	if err != nil {
		return nil, err
	}
	opts := append([]pipeline.PipelineBuilderOption{pipeline.WithShaders(vs, fs)}, r.pipelineOptions...)
	p := pipeline.NewPipeline(key, opts...)
	if err := r.backend.RegisterRenderPipeline(p); err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", key, err)
	}
	r.pipelineCache[key] = p
	return p, nil
}

// ensureCamera creates the camera uniform group on first use. Every generated pipeline declares
// the same camera layout, so a group created against one pipeline is compatible with all of them.
func (r *renderer) ensureCamera(p pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.camera.BindGroup() != nil {
		return nil
	}
	if err := r.backend.InitUniformGroup(r.camera, p.BindGroupLayout(shader.CameraGroup)); err != nil {
		return fmt.Errorf("camera bind group: %w", err)
	}
	r.backend.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: r.camera, Binding: 0, Offset: 0, Data: common.SliceToBytes(r.cameraUniform[:])},
	})
	r.cameraDirty = false
	return nil
}
