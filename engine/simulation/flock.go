package simulation

import (
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-vis/engine/agent_buffer"
	"github.com/Carmen-Shannon/oxy-vis/engine/visualiser"
)

const (
	// AgentBoid is the agent name every flock population is registered under.
	AgentBoid = "boid"
	// StateAlive holds flying boids.
	StateAlive = "alive"
	// StateDying holds boids that are falling and shrinking before they respawn.
	StateDying = "dying"
)

type agentState uint8

const (
	alive agentState = iota
	dying
)

// Flock is a boids simulation split into two populations, alive and dying.
//
// Velocities are updated in parallel chunks on a worker pool using a uniform grid for neighbour
// lookup. Each step also kills a random fraction of the alive boids; dying boids fall and shrink
// for a fixed number of steps, then respawn at a random position.
//
// Flock implements visualiser.Simulation. Its columns are host slices rebuilt after every step.
type Flock struct {
	cfg FlockConfig
	rng *rand.Rand

	pos    [][3]float32
	vel    [][3]float32
	next   [][3]float32
	state  []agentState
	timer  []int
	steps  int64
	dt     float32
	cells  grid
	chunks int

	pool worker.DynamicWorkerPool

	aliveCols columns
	dyingCols columns
}

// columns is one population's host attribute data.
type columns struct {
	count int
	pos   agent_buffer.HostSource
	fwd   agent_buffer.HostSource
	color agent_buffer.HostSource
	scale agent_buffer.HostSource
}

var _ visualiser.Simulation = &Flock{}

// NewFlock creates a flock with every boid alive at a random position inside the bounds.
//
// Parameters:
//   - options: functional options overriding DefaultFlockConfig
//
// Returns:
//   - *Flock: the new flock; call Close to stop its worker pool
func NewFlock(options ...FlockBuilderOption) *Flock {
	cfg := DefaultFlockConfig()
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = max(runtime.NumCPU()-1, 1)
	}

	f := &Flock{
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		pos:    make([][3]float32, cfg.Count),
		vel:    make([][3]float32, cfg.Count),
		next:   make([][3]float32, cfg.Count),
		state:  make([]agentState, cfg.Count),
		timer:  make([]int, cfg.Count),
		dt:     1.0 / 60.0,
		cells:  newGrid(cfg.Bounds, cfg.NeighbourRadius),
		chunks: cfg.Workers * 4,
		pool:   worker.NewDynamicWorkerPool(cfg.Workers, 256, 1*time.Second),
	}
	for i := range f.pos {
		f.spawn(i)
	}
	f.publish()
	return f
}

// Register registers the flock's populations with a registry.
//
// Parameters:
//   - r: the registry to register with
func (f *Flock) Register(r agent_buffer.Registry) {
	r.Register(AgentBoid, StateAlive, agent_buffer.AttributeSpec{
		Core: []agent_buffer.AttributeRole{agent_buffer.RolePositionXYZ, agent_buffer.RoleForwardXYZ, agent_buffer.RoleColor},
	})
	r.Register(AgentBoid, StateDying, agent_buffer.AttributeSpec{
		Core: []agent_buffer.AttributeRole{agent_buffer.RolePositionXYZ, agent_buffer.RoleForwardXYZ, agent_buffer.RoleColor, agent_buffer.RoleUniformScale},
	})
}

// Count returns the total number of boids.
func (f *Flock) Count() int {
	return f.cfg.Count
}

// Steps returns the number of completed steps.
func (f *Flock) Steps() int64 {
	return f.steps
}

func (f *Flock) Step() error {
	f.cells.build(f.pos)

	// Parallel velocity update into f.next. Workers only read pos/vel and write their own chunk.
	var wg sync.WaitGroup
	n := len(f.pos)
	chunk := (n + f.chunks - 1) / f.chunks
	for id, lo := 0, 0; lo < n; id, lo = id+1, lo+chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		start, end := lo, hi
		f.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := start; i < end; i++ {
					f.next[i] = f.steer(i)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	f.vel, f.next = f.next, f.vel

	for i := range f.pos {
		for k := 0; k < 3; k++ {
			f.pos[i][k] += f.vel[i][k] * f.dt
		}
		f.advanceState(i)
	}
	f.steps++
	f.publish()
	return nil
}

func (f *Flock) Populations() []visualiser.Population {
	return []visualiser.Population{
		{
			Agent:   AgentBoid,
			State:   StateAlive,
			Count:   f.aliveCols.count,
			Sources: []agent_buffer.Source{f.aliveCols.pos, f.aliveCols.fwd, f.aliveCols.color},
		},
		{
			Agent:   AgentBoid,
			State:   StateDying,
			Count:   f.dyingCols.count,
			Sources: []agent_buffer.Source{f.dyingCols.pos, f.dyingCols.fwd, f.dyingCols.color, f.dyingCols.scale},
		},
	}
}

// Close stops the worker pool.
func (f *Flock) Close() {
	f.pool.Stop()
}

// spawn places boid i alive at a random position with a random heading.
func (f *Flock) spawn(i int) {
	b := f.cfg.Bounds
	for k := 0; k < 3; k++ {
		f.pos[i][k] = (f.rng.Float32()*2 - 1) * b * 0.8
		f.vel[i][k] = f.rng.Float32()*2 - 1
	}
	f.vel[i] = scaleTo(f.vel[i], f.cfg.MaxSpeed*0.5)
	f.state[i] = alive
	f.timer[i] = 0
}

// steer returns boid i's next velocity. Runs on pool workers.
func (f *Flock) steer(i int) [3]float32 {
	v := f.vel[i]
	if f.state[i] == dying {
		v[1] -= f.cfg.Gravity * f.dt
		return v
	}

	p := f.pos[i]
	r2 := f.cfg.NeighbourRadius * f.cfg.NeighbourRadius
	sep2 := f.cfg.SeparationRadius * f.cfg.SeparationRadius

	var sep, align, center [3]float32
	neighbours := 0
	f.cells.neighbours(p, func(j int) {
		if j == i || f.state[j] != alive {
			return
		}
		d := sub(f.pos[j], p)
		dist2 := dot(d, d)
		if dist2 > r2 {
			return
		}
		neighbours++
		for k := 0; k < 3; k++ {
			align[k] += f.vel[j][k]
			center[k] += f.pos[j][k]
		}
		if dist2 < sep2 && dist2 > 0 {
			for k := 0; k < 3; k++ {
				sep[k] -= d[k] / dist2
			}
		}
	})

	var accel [3]float32
	if neighbours > 0 {
		inv := 1 / float32(neighbours)
		for k := 0; k < 3; k++ {
			accel[k] += f.cfg.Alignment * (align[k]*inv - v[k])
			accel[k] += f.cfg.Cohesion * (center[k]*inv - p[k])
			accel[k] += f.cfg.Separation * sep[k]
		}
	}

	// Steer back inside the bounds.
	margin := f.cfg.Bounds * 0.85
	for k := 0; k < 3; k++ {
		if p[k] > margin {
			accel[k] -= f.cfg.BoundsPush * (p[k] - margin)
		} else if p[k] < -margin {
			accel[k] -= f.cfg.BoundsPush * (p[k] + margin)
		}
	}

	for k := 0; k < 3; k++ {
		v[k] += accel[k] * f.dt
	}
	speed := length(v)
	switch {
	case speed > f.cfg.MaxSpeed:
		v = scaleTo(v, f.cfg.MaxSpeed)
	case speed < f.cfg.MinSpeed:
		v = scaleTo(v, f.cfg.MinSpeed)
	}
	return v
}

// advanceState applies deaths and respawns. Serial, so the random sequence depends only on the seed.
func (f *Flock) advanceState(i int) {
	switch f.state[i] {
	case alive:
		if f.rng.Float32() < f.cfg.DeathRate {
			f.state[i] = dying
			f.timer[i] = f.cfg.DyingSteps
		}
	case dying:
		f.timer[i]--
		if f.timer[i] <= 0 {
			f.spawn(i)
		}
	}
}

// publish rebuilds both populations' columns from the agent arrays.
func (f *Flock) publish() {
	f.aliveCols.reset(f.cfg.Count, false)
	f.dyingCols.reset(f.cfg.Count, true)
	for i := range f.pos {
		fwd := scaleTo(f.vel[i], 1)
		if f.state[i] == alive {
			f.aliveCols.add(f.pos[i], fwd, length(f.vel[i])/f.cfg.MaxSpeed, 0)
			continue
		}
		life := float32(f.timer[i]) / float32(max(f.cfg.DyingSteps, 1))
		f.dyingCols.add(f.pos[i], fwd, 0.9+0.1*life, life)
	}
}

func (c *columns) reset(capacity int, withScale bool) {
	if cap(c.pos) < capacity*3 {
		c.pos = make(agent_buffer.HostSource, 0, capacity*3)
		c.fwd = make(agent_buffer.HostSource, 0, capacity*3)
		c.color = make(agent_buffer.HostSource, 0, capacity)
		if withScale {
			c.scale = make(agent_buffer.HostSource, 0, capacity)
		}
	}
	c.count = 0
	c.pos, c.fwd, c.color = c.pos[:0], c.fwd[:0], c.color[:0]
	if withScale {
		c.scale = c.scale[:0]
	}
}

func (c *columns) add(pos, fwd [3]float32, color, scale float32) {
	c.count++
	c.pos = append(c.pos, pos[0], pos[1], pos[2])
	c.fwd = append(c.fwd, fwd[0], fwd[1], fwd[2])
	c.color = append(c.color, color)
	if c.scale != nil {
		c.scale = append(c.scale, scale)
	}
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func length(v [3]float32) float32 {
	return float32(math.Sqrt(float64(dot(v, v))))
}

// scaleTo returns v rescaled to length l, or +Z scaled to l when v is zero.
func scaleTo(v [3]float32, l float32) [3]float32 {
	n := length(v)
	if n == 0 {
		return [3]float32{0, 0, l}
	}
	s := l / n
	return [3]float32{v[0] * s, v[1] * s, v[2] * s}
}
