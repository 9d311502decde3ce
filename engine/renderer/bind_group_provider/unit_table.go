package bind_group_provider

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// BindGroupFactory creates a bind group over the given buffers, in binding order.
type BindGroupFactory func(buffers []*wgpu.Buffer) (*wgpu.BindGroup, error)

type cachedGroup struct {
	base      int
	buffers   []*wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

// unitTable is the implementation of the UnitTable interface.
type unitTable struct {
	mu *sync.Mutex

	units  map[int]*wgpu.Buffer
	groups map[string]*cachedGroup
}

// UnitTable maps texture units to the storage buffer currently bound there, and caches one
// bind group per agent record over its contiguous unit range.
//
// Binding a unit is what a buffer slot's rebind does on this backend. A cached bind group is
// rebuilt the next time it is requested after any unit in its range points at a different buffer.
type UnitTable interface {
	// Bind points a unit at a buffer, replacing any previous binding.
	//
	// Parameters:
	//   - unit: the texture unit
	//   - buf: the buffer to bind
	Bind(unit int, buf *wgpu.Buffer)

	// Unbind drops every unit binding that points at buf. Called before buf is released.
	//
	// Parameters:
	//   - buf: the buffer being released
	Unbind(buf *wgpu.Buffer)

	// Buffer returns the buffer bound at a unit, or nil.
	//
	// Parameters:
	//   - unit: the texture unit
	//
	// Returns:
	//   - *wgpu.Buffer: the bound buffer or nil
	Buffer(unit int) *wgpu.Buffer

	// BindGroup returns the cached bind group for key over units [base, base+count), creating it with
	// create if the cache is empty or stale. A stale group is released after its replacement is created.
	//
	// Parameters:
	//   - key: the cache key, usually the agent state key
	//   - base: the first unit of the range
	//   - count: the number of units in the range
	//   - create: creates the bind group over the range's buffers
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group
	//   - error: an error if a unit in the range is unbound or create fails
	BindGroup(key string, base, count int, create BindGroupFactory) (*wgpu.BindGroup, error)

	// Release frees every cached bind group and clears all bindings. Buffers are not released.
	Release()
}

var _ UnitTable = &unitTable{}

// NewUnitTable creates an empty UnitTable.
//
// Returns:
//   - UnitTable: the new table
func NewUnitTable() UnitTable {
	return &unitTable{
		mu:     &sync.Mutex{},
		units:  make(map[int]*wgpu.Buffer),
		groups: make(map[string]*cachedGroup),
	}
}

func (t *unitTable) Bind(unit int, buf *wgpu.Buffer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.units[unit] = buf
}

func (t *unitTable) Unbind(buf *wgpu.Buffer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for unit, b := range t.units {
		if b == buf {
			delete(t.units, unit)
		}
	}
}

func (t *unitTable) Buffer(unit int) *wgpu.Buffer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.units[unit]
}

func (t *unitTable) BindGroup(key string, base, count int, create BindGroupFactory) (*wgpu.BindGroup, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	buffers := make([]*wgpu.Buffer, count)
	for i := range buffers {
		buf := t.units[base+i]
		if buf == nil {
			return nil, fmt.Errorf("unit %d of %s is not bound", base+i, key)
		}
		buffers[i] = buf
	}

	cached := t.groups[key]
	if cached != nil && cached.base == base && sameBuffers(cached.buffers, buffers) {
		return cached.bindGroup, nil
	}

	bg, err := create(buffers)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.bindGroup != nil {
		cached.bindGroup.Release()
	}
	t.groups[key] = &cachedGroup{base: base, buffers: buffers, bindGroup: bg}
	return bg, nil
}

func (t *unitTable) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, g := range t.groups {
		if g.bindGroup != nil {
			g.bindGroup.Release()
		}
		delete(t.groups, key)
	}
	clear(t.units)
}

func sameBuffers(a, b []*wgpu.Buffer) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
