package agent_buffer

// registry is the implementation of the Registry interface.
type registry struct {
	device Device
	gate   *SyncGate
	growth GrowthPolicy
	units  *TextureUnitAllocator

	firstUnit int

	records map[AgentStateKey]*AgentStateRecord
	order   []AgentStateKey

	released bool
}

// Registry maps (agent, state) keys to their render buffers and is the entry point for both the
// simulation and the render goroutine.
//
// Simulation side: Register during configuration, then each step SetRequiredSize and
// CopyAttributeData, either individually (each call takes the render buffer lock) or bracketed
// by AcquireRenderLock for the whole step.
//
// Render side: RenderFrame once per frame from the goroutine that owns the GPU context.
type Registry interface {
	// Register creates a zero-capacity record with one buffer slot per attribute in spec.
	// Panics with ErrDuplicateAgentState if the key already exists and ErrInvalidAttributeSpec
	// if the spec is empty or malformed.
	//
	// Parameters:
	//   - agent: the agent type name
	//   - state: the agent state name
	//   - spec: the attributes rendered for this population
	Register(agent, state string, spec AttributeSpec)

	// SetRequiredSize sets the population count the simulation wants rendered. When force is set
	// and the value changed, the readiness flag is cleared. Acquires the render buffer lock.
	// Panics with ErrUnknownAgentState for an unregistered key.
	//
	// Parameters:
	//   - agent: the agent type name
	//   - state: the agent state name
	//   - size: the required population count
	//   - force: whether a change should invalidate readiness
	SetRequiredSize(agent, state string, size int, force bool)

	// CopyAttributeData copies count agents from the simulation's columns into the record's
	// buffers, one source per slot in slot order. Acquires the render buffer lock.
	// It is a no-op while the record has no capacity or count is 0; counts beyond the current
	// capacity are clamped. Panics with ErrBufferCopy if a device copy fails.
	//
	// Parameters:
	//   - agent: the agent type name
	//   - state: the agent state name
	//   - count: the number of agents with valid data in the sources
	//   - sources: one column per slot, core slots first
	CopyAttributeData(agent, state string, count int, sources []Source)

	// AcquireRenderLock takes the render buffer lock for a whole simulation step and returns a
	// handle whose operations assume the lock is held. Blocks while rendering is paused.
	//
	// Returns:
	//   - *RenderLock: the held lock
	AcquireRenderLock() *RenderLock

	// IsReady reports whether every non-empty population has received data.
	//
	// Returns:
	//   - bool: the readiness flag
	IsReady() bool

	// Gate returns the registry's SyncGate.
	//
	// Returns:
	//   - *SyncGate: the gate shared by the simulation and render goroutines
	Gate() *SyncGate

	// PauseState returns the current pause state without blocking.
	PauseState() PauseState

	// Device returns the device buffers are allocated from.
	//
	// Returns:
	//   - Device: the device
	Device() Device

	// Keys returns the registered keys in registration order.
	//
	// Returns:
	//   - []AgentStateKey: the registered keys
	Keys() []AgentStateKey

	// Record returns a snapshot of a record's bookkeeping. Acquires the render buffer lock, so it
	// blocks while paused unless called from inside RenderFrame's callback (use Frame instead there).
	//
	// Parameters:
	//   - agent: the agent type name
	//   - state: the agent state name
	//
	// Returns:
	//   - RecordInfo: the snapshot
	//   - bool: false if the key is not registered
	Record(agent, state string) (RecordInfo, bool)

	// RenderFrame runs one render frame: takes the lock (unless paused), grows every record whose
	// required size exceeds its capacity, refreshes readiness, then calls draw with the frame's
	// draw commands. Must be called from the goroutine that owns the GPU context.
	//
	// Parameters:
	//   - draw: the frame callback; the Frame is only valid for the duration of the call
	RenderFrame(draw func(Frame))

	// Release frees every GPU buffer. Bookkeeping is retained, and later simulation calls become
	// no-ops. Must be called from the goroutine that owns the GPU context.
	Release()
}

var _ Registry = &registry{}

// NewRegistry creates an empty Registry allocating buffers from device.
//
// Parameters:
//   - device: the GPU device to allocate interop buffers from (must not be nil)
//   - options: functional options for growth policy, texture units and gate
//
// Returns:
//   - Registry: the new registry
func NewRegistry(device Device, options ...RegistryBuilderOption) Registry {
	if device == nil {
		panic("agent_buffer: NewRegistry requires a non-nil Device")
	}
	r := &registry{
		device:    device,
		growth:    DefaultGrowthPolicy(),
		firstUnit: DefaultFirstTextureUnit,
		records:   make(map[AgentStateKey]*AgentStateRecord),
	}
	for _, opt := range options {
		opt(r)
	}
	if r.gate == nil {
		r.gate = NewSyncGate()
	}
	r.units = NewTextureUnitAllocator(r.firstUnit)
	return r
}

func (r *registry) Register(agent, state string, spec AttributeSpec) {
	key := AgentStateKey{Agent: agent, State: state}
	if err := spec.validate(); err != nil {
		fatalf(ErrInvalidAttributeSpec, "%s: %v", key, err)
	}

	r.gate.Lock()
	defer r.gate.Unlock()

	if _, ok := r.records[key]; ok {
		fatalf(ErrDuplicateAgentState, "%s", key)
	}
	r.records[key] = newAgentStateRecord(key, r.device, spec)
	r.order = append(r.order, key)
}

func (r *registry) SetRequiredSize(agent, state string, size int, force bool) {
	r.gate.Lock()
	defer r.gate.Unlock()
	r.setRequiredSize(agent, state, size, force)
}

func (r *registry) CopyAttributeData(agent, state string, count int, sources []Source) {
	r.gate.Lock()
	defer r.gate.Unlock()
	r.copyAttributeData(agent, state, count, sources)
}

func (r *registry) AcquireRenderLock() *RenderLock {
	r.gate.Lock()
	return &RenderLock{r: r}
}

func (r *registry) IsReady() bool {
	return r.gate.IsReady()
}

func (r *registry) Gate() *SyncGate {
	return r.gate
}

func (r *registry) PauseState() PauseState {
	return r.gate.State()
}

func (r *registry) Device() Device {
	return r.device
}

func (r *registry) Keys() []AgentStateKey {
	r.gate.Lock()
	defer r.gate.Unlock()
	return append([]AgentStateKey(nil), r.order...)
}

func (r *registry) Record(agent, state string) (RecordInfo, bool) {
	r.gate.Lock()
	defer r.gate.Unlock()
	rec, ok := r.records[AgentStateKey{Agent: agent, State: state}]
	if !ok {
		return RecordInfo{}, false
	}
	return rec.snapshot(), true
}

func (r *registry) RenderFrame(draw func(Frame)) {
	r.gate.beginFrame()
	defer r.gate.endFrame()

	if !r.released {
		r.resizeBuffers()
		r.refreshReadiness()
	}
	draw(r.buildFrame())
}

func (r *registry) Release() {
	r.gate.Lock()
	defer r.gate.Unlock()
	r.release()
}

// lookup returns the record for key, panicking with ErrUnknownAgentState if it is missing.
func (r *registry) lookup(agent, state string) *AgentStateRecord {
	key := AgentStateKey{Agent: agent, State: state}
	rec, ok := r.records[key]
	if !ok {
		fatalf(ErrUnknownAgentState, "%s", key)
	}
	return rec
}

func (r *registry) setRequiredSize(agent, state string, size int, force bool) {
	rec := r.lookup(agent, state)
	if size < 0 {
		fatalf(ErrInvalidSize, "%s: required size %d", rec.key, size)
	}
	if size == rec.requiredSize {
		return
	}
	rec.requiredSize = size
	if force {
		r.gate.setReady(false)
	}
}

func (r *registry) copyAttributeData(agent, state string, count int, sources []Source) {
	rec := r.lookup(agent, state)
	if r.released || rec.allocatedCapacity == 0 || count <= 0 {
		return
	}
	if len(sources) != rec.SlotCount() {
		fatalf(ErrSourceMismatch, "%s: %d sources for %d slots", rec.key, len(sources), rec.SlotCount())
	}

	effective := min(count, rec.allocatedCapacity)
	rec.dataSize = effective
	for i, slot := range rec.Slots() {
		fatal(slot.copyFrom(sources[i], effective))
	}
}

// resizeBuffers is the growth pass. Render goroutine only, lock held.
func (r *registry) resizeBuffers() {
	for _, key := range r.order {
		rec := r.records[key]
		if rec.needsGrowth() {
			fatal(r.growth.growRecord(rec, r.units))
		}
	}
}

// refreshReadiness sets the readiness flag once every record with a required size has data.
// At least one record must be non-empty, so a "begin paused" request never engages on an empty scene.
func (r *registry) refreshReadiness() {
	if r.gate.IsReady() {
		return
	}
	nonEmpty := false
	for _, key := range r.order {
		rec := r.records[key]
		if rec.requiredSize == 0 {
			continue
		}
		if rec.dataSize == 0 {
			return
		}
		nonEmpty = true
	}
	if nonEmpty {
		r.gate.setReady(true)
	}
}

func (r *registry) buildFrame() Frame {
	frame := Frame{
		Ready: r.gate.IsReady() && !r.released,
		Pause: r.gate.State(),
	}
	frame.Records = make([]RecordInfo, 0, len(r.order))
	for _, key := range r.order {
		frame.Records = append(frame.Records, r.records[key].snapshot())
	}
	if !frame.Ready {
		return frame
	}
	for _, key := range r.order {
		rec := r.records[key]
		instances := rec.InstanceCount()
		if instances <= 0 {
			continue
		}
		frame.Draws = append(frame.Draws, DrawCommand{
			Key:             rec.key,
			Instances:       instances,
			TextureUnitBase: rec.textureUnitBase,
			Slots:           rec.Slots(),
		})
	}
	return frame
}

func (r *registry) release() {
	if r.released {
		return
	}
	for _, key := range r.order {
		for _, slot := range r.records[key].Slots() {
			slot.release()
		}
	}
	r.released = true
	r.gate.setReady(false)
}

// RenderLock is the render buffer lock held by the simulation for a whole step.
// Its operations assume the lock is held and must not be mixed with the Registry's
// self-locking variants until Release is called.
type RenderLock struct {
	r        *registry
	released bool
}

// SetRequiredSize is Registry.SetRequiredSize for a caller already holding the lock.
func (l *RenderLock) SetRequiredSize(agent, state string, size int, force bool) {
	l.mustHold()
	l.r.setRequiredSize(agent, state, size, force)
}

// CopyAttributeData is Registry.CopyAttributeData for a caller already holding the lock.
func (l *RenderLock) CopyAttributeData(agent, state string, count int, sources []Source) {
	l.mustHold()
	l.r.copyAttributeData(agent, state, count, sources)
}

// Release releases the render buffer lock. Further calls are no-ops.
func (l *RenderLock) Release() {
	if l.released {
		return
	}
	l.released = true
	l.r.gate.Unlock()
}

func (l *RenderLock) mustHold() {
	if l.released {
		panic("agent_buffer: RenderLock used after Release")
	}
}

// Frame is what the render goroutine sees for one frame, built with the lock held.
type Frame struct {
	// Ready is the readiness flag. When false, Draws is empty and only static geometry should be drawn.
	Ready bool
	// Pause is the gate's pause state at the start of the frame.
	Pause PauseState
	// Records holds a snapshot of every record in registration order.
	Records []RecordInfo
	// Draws holds one command per record with instances to draw, in registration order.
	Draws []DrawCommand
}

// DrawCommand describes the instanced draw for one record.
type DrawCommand struct {
	Key AgentStateKey
	// Instances is min(dataSize, requiredSize).
	Instances int
	// TextureUnitBase is the first unit of the record's range; slot i is bound at base+i.
	TextureUnitBase int
	// Slots are the record's buffer slots, core first. Only valid during the frame callback.
	Slots []*BufferSlot
}
