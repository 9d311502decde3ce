package agent_buffer

import (
	"fmt"
	"log"
)

const (
	// DefaultMinCapacity is the smallest capacity a record is ever grown to.
	DefaultMinCapacity = 1024
	// DefaultGrowthFactor is the multiplier applied until the required size fits.
	DefaultGrowthFactor = 1.5
)

// GrowthPolicy decides new record capacities. The result depends only on the current capacity
// and the required size, so every slot of a record grows to the same capacity.
type GrowthPolicy struct {
	MinCapacity int
	Factor      float64
}

// DefaultGrowthPolicy returns the 1024 x 1.5 policy.
func DefaultGrowthPolicy() GrowthPolicy {
	return GrowthPolicy{MinCapacity: DefaultMinCapacity, Factor: DefaultGrowthFactor}
}

// NextCapacity returns the capacity a record should grow to so that required fits.
// Starts from max(MinCapacity, current) and multiplies by Factor (flooring) until it fits.
//
// Parameters:
//   - current: the record's allocated capacity
//   - required: the record's required size
//
// Returns:
//   - int: the new capacity, always >= current and >= required
func (p GrowthPolicy) NextCapacity(current, required int) int {
	next := max(p.MinCapacity, current, 1)
	for next < required {
		grown := int(float64(next) * p.Factor)
		if grown <= next {
			// A factor <= 1 would never converge.
			return required
		}
		next = grown
	}
	return next
}

// growRecord reallocates every slot of rec to the policy's next capacity, assigning the record's
// texture unit range on first growth. allocatedCapacity is committed only after every slot has
// been reallocated. dataSize is left untouched: it can only be <= the old capacity, so the
// preserved range already covers it.
//
// Must run on the render goroutine with the render buffer lock held.
func (p GrowthPolicy) growRecord(rec *AgentStateRecord, units *TextureUnitAllocator) error {
	newCapacity := p.NextCapacity(rec.allocatedCapacity, rec.requiredSize)

	if rec.textureUnitBase == 0 {
		rec.textureUnitBase = units.Reserve(rec.SlotCount())
	}

	preserve := min(rec.dataSize, rec.allocatedCapacity)
	for i, slot := range rec.Slots() {
		label := fmt.Sprintf("%s %s", rec.key, slot.Name())
		if err := slot.grow(label, rec.textureUnitBase+i, newCapacity, preserve); err != nil {
			return err
		}
	}

	log.Printf("[AgentBuffer] %s grown %d -> %d agents (required %d, preserved %d)",
		rec.key, rec.allocatedCapacity, newCapacity, rec.requiredSize, preserve)
	rec.allocatedCapacity = newCapacity
	return nil
}
