package simulation

// FlockConfig holds the flock's size and steering parameters.
type FlockConfig struct {
	// Count is the total number of boids across both populations.
	Count int
	// Bounds is the half-extent of the cube the flock is steered to stay inside.
	Bounds float32
	Seed   uint64
	// Workers is the worker pool size. 0 uses one less than the number of CPUs.
	Workers int

	NeighbourRadius  float32
	SeparationRadius float32
	Separation       float32
	Alignment        float32
	Cohesion         float32
	BoundsPush       float32
	MinSpeed         float32
	MaxSpeed         float32

	// DeathRate is the per-step probability that an alive boid starts dying.
	DeathRate  float32
	DyingSteps int
	Gravity    float32
}

// DefaultFlockConfig returns the configuration NewFlock starts from.
func DefaultFlockConfig() FlockConfig {
	return FlockConfig{
		Count:            4096,
		Bounds:           60,
		Seed:             1,
		NeighbourRadius:  6,
		SeparationRadius: 2,
		Separation:       12,
		Alignment:        1.5,
		Cohesion:         0.8,
		BoundsPush:       4,
		MinSpeed:         4,
		MaxSpeed:         18,
		DeathRate:        0.0005,
		DyingSteps:       90,
		Gravity:          20,
	}
}

// FlockBuilderOption is a functional option for configuring a Flock.
type FlockBuilderOption func(*FlockConfig)

// WithCount sets the number of boids.
//
// Parameters:
//   - n: the boid count
//
// Returns:
//   - FlockBuilderOption: option function to apply
func WithCount(n int) FlockBuilderOption {
	return func(c *FlockConfig) {
		c.Count = max(n, 0)
	}
}

// WithBounds sets the half-extent of the flock's box.
//
// Parameters:
//   - halfExtent: distance from the origin to each face of the box
//
// Returns:
//   - FlockBuilderOption: option function to apply
func WithBounds(halfExtent float32) FlockBuilderOption {
	return func(c *FlockConfig) {
		if halfExtent > 0 {
			c.Bounds = halfExtent
		}
	}
}

// WithSeed sets the random seed. Two flocks with the same seed and configuration produce the same
// positions step for step.
func WithSeed(seed uint64) FlockBuilderOption {
	return func(c *FlockConfig) {
		c.Seed = seed
	}
}

// WithWorkers sets the worker pool size.
//
// Parameters:
//   - n: number of workers; <= 0 uses one less than the number of CPUs
//
// Returns:
//   - FlockBuilderOption: option function to apply
func WithWorkers(n int) FlockBuilderOption {
	return func(c *FlockConfig) {
		c.Workers = n
	}
}

// WithSteering sets the separation, alignment and cohesion weights.
func WithSteering(separation, alignment, cohesion float32) FlockBuilderOption {
	return func(c *FlockConfig) {
		c.Separation = separation
		c.Alignment = alignment
		c.Cohesion = cohesion
	}
}

// WithNeighbourRadius sets how far a boid looks for flockmates.
func WithNeighbourRadius(r float32) FlockBuilderOption {
	return func(c *FlockConfig) {
		if r > 0 {
			c.NeighbourRadius = r
		}
	}
}

// WithSpeedLimits clamps every alive boid's speed to [minSpeed, maxSpeed].
func WithSpeedLimits(minSpeed, maxSpeed float32) FlockBuilderOption {
	return func(c *FlockConfig) {
		if maxSpeed > 0 && minSpeed <= maxSpeed {
			c.MinSpeed = minSpeed
			c.MaxSpeed = maxSpeed
		}
	}
}

// WithLifecycle sets the death probability per step and how many steps a dying boid lasts.
//
// Parameters:
//   - deathRate: per-step probability in [0, 1]; 0 disables the dying population
//   - dyingSteps: steps before a dying boid respawns
//
// Returns:
//   - FlockBuilderOption: option function to apply
func WithLifecycle(deathRate float32, dyingSteps int) FlockBuilderOption {
	return func(c *FlockConfig) {
		c.DeathRate = min(max(deathRate, 0), 1)
		c.DyingSteps = max(dyingSteps, 1)
	}
}
