package profiler

import (
	"log"
	"runtime"
	"sync/atomic"
	"time"
)

// Stats is one interval's worth of measurements.
type Stats struct {
	// FPS is rendered frames per second.
	FPS float64
	// SPS is simulation steps per second.
	SPS float64
	// HeapMB is live heap memory.
	HeapMB float64
	// AllocRateMB is heap allocation churn in MB per second.
	AllocRateMB float64
	// NumGC is the cumulative GC count.
	NumGC uint32
}

// Profiler tracks frame rate, simulation step rate and memory statistics.
// Outputs stats to the log once per update interval.
//
// Tick is called by the render goroutine; StepTick may be called from any goroutine.
type Profiler struct {
	frameCount     int
	stepCount      atomic.Int64
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastTotalAlloc uint64
	last           Stats

	now    func() time.Time
	silent bool
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		now:            time.Now,
	}
}

// StepTick records one completed simulation step.
func (p *Profiler) StepTick() {
	p.stepCount.Add(1)
}

// Last returns the stats of the most recently completed interval.
//
// Returns:
//   - Stats: the last logged stats, zero before the first interval completes
func (p *Profiler) Last() Stats {
	return p.last
}

// Tick should be called once per rendered frame.
// Logs performance statistics when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	steps := p.stepCount.Swap(0)

	p.last = Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		SPS:         float64(steps) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(allocDelta) / 1024 / 1024 / elapsed.Seconds(),
		NumGC:       p.memStats.NumGC,
	}
	if !p.silent {
		log.Printf("[Profiler] FPS: %.2f | SPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d",
			p.last.FPS, p.last.SPS, p.last.HeapMB, p.last.AllocRateMB, p.last.NumGC)
	}

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
