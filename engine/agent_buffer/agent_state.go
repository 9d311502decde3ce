package agent_buffer

// AgentStateKey identifies one agent population: an agent type in one behavioural state.
type AgentStateKey struct {
	Agent string
	State string
}

func (k AgentStateKey) String() string {
	return k.Agent + "::" + k.State
}

// AgentStateRecord holds the buffer slots and size bookkeeping for one agent state.
//
// requiredSize is written by the simulation, allocatedCapacity and the slot handles by the render
// goroutine's growth pass, dataSize by CopyAttributeData. All of them are only touched with the
// registry's render buffer lock held.
type AgentStateRecord struct {
	key    AgentStateKey
	core   []*BufferSlot
	custom []*BufferSlot

	requiredSize      int
	allocatedCapacity int
	dataSize          int
	textureUnitBase   int
}

func newAgentStateRecord(key AgentStateKey, device Device, spec AttributeSpec) *AgentStateRecord {
	rec := &AgentStateRecord{
		key:    key,
		core:   make([]*BufferSlot, 0, len(spec.Core)),
		custom: make([]*BufferSlot, 0, len(spec.Custom)),
	}
	for _, role := range spec.Core {
		rec.core = append(rec.core, newCoreSlot(device, role))
	}
	for _, attr := range spec.Custom {
		rec.custom = append(rec.custom, newCustomSlot(device, attr))
	}
	return rec
}

// Key returns the record's agent state key.
func (r *AgentStateRecord) Key() AgentStateKey {
	return r.key
}

// RequiredSize returns the population count currently requested by the simulation.
func (r *AgentStateRecord) RequiredSize() int {
	return r.requiredSize
}

// AllocatedCapacity returns the number of agents every slot currently has room for.
func (r *AgentStateRecord) AllocatedCapacity() int {
	return r.allocatedCapacity
}

// DataSize returns the number of agents whose attribute values are valid.
func (r *AgentStateRecord) DataSize() int {
	return r.dataSize
}

// TextureUnitBase returns the first texture unit reserved for this record, or 0 if none yet.
func (r *AgentStateRecord) TextureUnitBase() int {
	return r.textureUnitBase
}

// CoreSlots returns the core attribute slots in registration order.
func (r *AgentStateRecord) CoreSlots() []*BufferSlot {
	return r.core
}

// CustomSlots returns the custom attribute slots in registration order.
func (r *AgentStateRecord) CustomSlots() []*BufferSlot {
	return r.custom
}

// Slots returns every slot, core first. This is the copy order and the texture unit order.
func (r *AgentStateRecord) Slots() []*BufferSlot {
	slots := make([]*BufferSlot, 0, len(r.core)+len(r.custom))
	slots = append(slots, r.core...)
	return append(slots, r.custom...)
}

// SlotCount returns the number of slots in the record.
func (r *AgentStateRecord) SlotCount() int {
	return len(r.core) + len(r.custom)
}

// InstanceCount returns the number of instances to draw: min(dataSize, requiredSize).
func (r *AgentStateRecord) InstanceCount() int {
	return min(r.dataSize, r.requiredSize)
}

// needsGrowth reports whether the required size no longer fits.
func (r *AgentStateRecord) needsGrowth() bool {
	return r.allocatedCapacity < r.requiredSize
}

// slotCapacitiesConsistent reports whether every slot's capacity matches the record's committed
// capacity. The copy gate reads the record-level value, which is only sound while this holds.
func (r *AgentStateRecord) slotCapacitiesConsistent() bool {
	for _, s := range r.Slots() {
		if s.capacity != r.allocatedCapacity {
			return false
		}
	}
	return true
}

// snapshot returns a copy of the bookkeeping that is safe to hand out after the lock is released.
func (r *AgentStateRecord) snapshot() RecordInfo {
	return RecordInfo{
		Key:               r.key,
		RequiredSize:      r.requiredSize,
		AllocatedCapacity: r.allocatedCapacity,
		DataSize:          r.dataSize,
		TextureUnitBase:   r.textureUnitBase,
		SlotCount:         r.SlotCount(),
	}
}

// RecordInfo is a point-in-time copy of an AgentStateRecord's bookkeeping.
type RecordInfo struct {
	Key               AgentStateKey
	RequiredSize      int
	AllocatedCapacity int
	DataSize          int
	TextureUnitBase   int
	SlotCount         int
}
