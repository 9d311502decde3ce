package agent_buffer

import "fmt"

// DefaultFirstTextureUnit is the first unit handed out. Unit 0 means "unassigned".
const DefaultFirstTextureUnit = 1

// TextureUnitAllocator hands out contiguous, never-reused ranges of texture units.
// It is owned by a Registry and only used from the render goroutine.
type TextureUnitAllocator struct {
	next int
}

// NewTextureUnitAllocator creates an allocator whose first range starts at first.
// Panics if first is less than 1, since 0 is reserved for "unassigned".
//
// Parameters:
//   - first: the first texture unit to hand out
//
// Returns:
//   - *TextureUnitAllocator: the new allocator
func NewTextureUnitAllocator(first int) *TextureUnitAllocator {
	if first < 1 {
		panic(fmt.Sprintf("agent_buffer: first texture unit must be >= 1, got %d", first))
	}
	return &TextureUnitAllocator{next: first}
}

// Reserve reserves count contiguous units and returns the first of them.
//
// Parameters:
//   - count: the number of units to reserve (must be > 0)
//
// Returns:
//   - int: the base unit of the reserved range
func (a *TextureUnitAllocator) Reserve(count int) int {
	if count <= 0 {
		panic(fmt.Sprintf("agent_buffer: cannot reserve %d texture units", count))
	}
	base := a.next
	a.next += count
	return base
}

// Next returns the unit the next reservation will start at.
func (a *TextureUnitAllocator) Next() int {
	return a.next
}
