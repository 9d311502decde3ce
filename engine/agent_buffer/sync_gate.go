package agent_buffer

import (
	"sync"
	"sync/atomic"
)

// PauseState describes whether the render side is holding the render buffer lock to pause the simulation.
type PauseState int32

const (
	// Running means the lock is only held for the duration of single steps and frames.
	Running PauseState = iota
	// PausedByUser means a user toggle is holding the lock.
	PausedByUser
	// PausedForReadiness means a deferred "begin paused" request engaged once every population had data.
	PausedForReadiness
)

func (s PauseState) String() string {
	switch s {
	case Running:
		return "running"
	case PausedByUser:
		return "paused"
	case PausedForReadiness:
		return "paused (begin paused)"
	default:
		return "unknown"
	}
}

// SyncGate coordinates the simulation and render goroutines around the shared GPU buffers.
//
// The render buffer lock is the only lock guarding record state. The simulation holds it while it
// publishes a step's sizes and copies, the render goroutine for one growth-then-draw frame.
// Pausing is the render side keeping the lock across frames: the simulation blocks at its next
// acquire while frames keep drawing.
//
// The pause state, pause requests and readiness flag are atomic status flags, not part of the
// lock protocol. They never guard record data; they only let input callbacks and observers read
// or request state without taking the lock. The render goroutine acts on them at frame boundaries
// while it holds the lock.
type SyncGate struct {
	renderLock *sync.Mutex

	// state is only written by the render goroutine, in endFrame and ReleasePause.
	state atomic.Int32

	toggleRequested      atomic.Bool
	beginPausedRequested atomic.Bool
	ready                atomic.Bool
}

// NewSyncGate creates a running, not-ready gate.
//
// Returns:
//   - *SyncGate: the new gate
func NewSyncGate() *SyncGate {
	return &SyncGate{renderLock: &sync.Mutex{}}
}

// Lock acquires the render buffer lock for one simulation step. Blocks while paused.
func (g *SyncGate) Lock() {
	g.renderLock.Lock()
}

// Unlock releases the render buffer lock taken by Lock.
func (g *SyncGate) Unlock() {
	g.renderLock.Unlock()
}

// State returns the current pause state.
func (g *SyncGate) State() PauseState {
	return PauseState(g.state.Load())
}

// Paused reports whether the render side is currently holding the lock to pause the simulation.
func (g *SyncGate) Paused() bool {
	return g.State() != Running
}

// TogglePause requests a pause toggle. It is applied at the end of the next frame.
func (g *SyncGate) TogglePause() {
	for {
		cur := g.toggleRequested.Load()
		if g.toggleRequested.CompareAndSwap(cur, !cur) {
			return
		}
	}
}

// RequestBeginPaused asks the render side to pause once every population has received data.
func (g *SyncGate) RequestBeginPaused() {
	g.beginPausedRequested.Store(true)
}

// IsReady reports whether every non-empty population has received at least one data copy.
func (g *SyncGate) IsReady() bool {
	return g.ready.Load()
}

func (g *SyncGate) setReady(ready bool) {
	g.ready.Store(ready)
}

// beginFrame acquires the lock for one render frame, unless a pause is already holding it.
func (g *SyncGate) beginFrame() {
	if g.State() == Running {
		g.renderLock.Lock()
	}
}

// endFrame applies pending pause transitions and releases the lock unless the gate is now paused.
func (g *SyncGate) endFrame() {
	state := g.State()
	if g.toggleRequested.Swap(false) {
		if state == Running {
			state = PausedByUser
		} else {
			state = Running
		}
	}
	if state == Running && g.ready.Load() && g.beginPausedRequested.CompareAndSwap(true, false) {
		state = PausedForReadiness
	}
	g.state.Store(int32(state))

	if state == Running {
		g.renderLock.Unlock()
	}
}

// ReleasePause drops a pause-held lock so a blocked simulation can make progress once rendering
// has stopped. Must be called from the render goroutine after its last frame.
func (g *SyncGate) ReleasePause() {
	if g.State() != Running {
		g.state.Store(int32(Running))
		g.renderLock.Unlock()
	}
}
