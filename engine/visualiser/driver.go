package visualiser

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-vis/engine/agent_buffer"
	"github.com/Carmen-Shannon/oxy-vis/engine/profiler"
)

// Population is one agent state's data after a simulation step.
type Population struct {
	Agent string
	State string
	// Count is the number of agents with valid data in Sources.
	Count int
	// Sources holds one column per registered attribute, core attributes first.
	Sources []agent_buffer.Source
	// ForceResize clears readiness when Count changes, hiding every population until all of them
	// have been copied again.
	ForceResize bool
}

// Simulation is stepped by a Driver.
type Simulation interface {
	// Step advances the simulation by one step.
	Step() error

	// Populations returns the current data of every population. The returned sources must stay
	// valid until the next call to Step.
	Populations() []Population
}

// Driver runs a Simulation on its own goroutine and publishes each step to a registry.
//
// The simulation computes each step without the render buffer lock and takes it only to publish
// sizes and copies, so frames keep drawing while a step runs. A pause blocks the driver at the
// publish of its next step.
type Driver struct {
	registry agent_buffer.Registry
	sim      Simulation
	limiter  *StepLimiter
	profiler *profiler.Profiler
	maxSteps int64
	stopOn   <-chan struct{}

	steps    atomic.Int64
	stopping atomic.Bool
	running  atomic.Bool
	started  bool
	wg       sync.WaitGroup

	errMu *sync.Mutex
	err   error
}

// NewDriver creates a Driver stepping sim and copying its populations into registry.
//
// Parameters:
//   - registry: the registry the populations are registered in
//   - sim: the simulation to step
//   - options: functional options for rate, step limit, profiler and stop signal
//
// Returns:
//   - *Driver: the new, not yet started driver
func NewDriver(registry agent_buffer.Registry, sim Simulation, options ...DriverBuilderOption) *Driver {
	d := &Driver{
		registry: registry,
		sim:      sim,
		limiter:  NewStepLimiter(0),
		errMu:    &sync.Mutex{},
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Start launches the simulation goroutine.
func (d *Driver) Start() {
	if d.started {
		panic("visualiser: Driver started twice")
	}
	d.started = true
	d.running.Store(true)
	d.wg.Add(1)
	go d.run()
}

// Stop asks the simulation goroutine to exit after its current step.
func (d *Driver) Stop() {
	d.stopping.Store(true)
}

// Join blocks until the simulation goroutine has exited.
//
// Returns:
//   - error: the error that stopped the simulation, or nil
func (d *Driver) Join() error {
	d.wg.Wait()
	d.errMu.Lock()
	defer d.errMu.Unlock()
	return d.err
}

// IsRunning reports whether the simulation goroutine is active.
func (d *Driver) IsRunning() bool {
	return d.running.Load()
}

// Steps returns the number of steps published to the registry.
func (d *Driver) Steps() int64 {
	return d.steps.Load()
}

func (d *Driver) run() {
	defer d.wg.Done()
	defer d.running.Store(false)
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			log.Printf("[Driver] simulation goroutine recovered from panic: %v", err)
			d.setErr(err)
		}
	}()

	for !d.shouldStop() {
		if err := d.step(); err != nil {
			log.Printf("[Driver] step %d: %v", d.steps.Load(), err)
			d.setErr(err)
			return
		}
		if d.profiler != nil {
			d.profiler.StepTick()
		}
		d.limiter.Wait()
	}
}

// step runs one simulation step, then publishes it under the render buffer lock. The step is
// counted before the lock is released, so a pause never observes a step it did not block.
func (d *Driver) step() error {
	if err := d.sim.Step(); err != nil {
		return err
	}
	pops := d.sim.Populations()

	lock := d.registry.AcquireRenderLock()
	defer lock.Release()
	for _, p := range pops {
		lock.SetRequiredSize(p.Agent, p.State, p.Count, p.ForceResize)
		lock.CopyAttributeData(p.Agent, p.State, p.Count, p.Sources)
	}
	d.steps.Add(1)
	return nil
}

func (d *Driver) shouldStop() bool {
	if d.stopping.Load() {
		return true
	}
	if d.maxSteps > 0 && d.steps.Load() >= d.maxSteps {
		return true
	}
	if d.stopOn != nil {
		select {
		case <-d.stopOn:
			return true
		default:
		}
	}
	return false
}

func (d *Driver) setErr(err error) {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	if d.err == nil {
		d.err = err
	}
}
