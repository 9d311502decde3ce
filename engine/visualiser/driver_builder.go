package visualiser

import "github.com/Carmen-Shannon/oxy-vis/engine/profiler"

// DriverBuilderOption is a functional option for configuring a Driver.
type DriverBuilderOption func(*Driver)

// WithStepsPerSecond caps the simulation rate. Values <= 0 run the simulation as fast as
// the render lock allows (default).
//
// Parameters:
//   - sps: maximum simulation steps per second
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithStepsPerSecond(sps float64) DriverBuilderOption {
	return func(d *Driver) {
		d.limiter = NewStepLimiter(sps)
	}
}

// WithMaxSteps stops the driver after n steps. 0 runs until stopped (default).
//
// Parameters:
//   - n: the number of steps to run
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithMaxSteps(n int64) DriverBuilderOption {
	return func(d *Driver) {
		d.maxSteps = n
	}
}

// WithStepProfiler records every completed step on p.
//
// Parameters:
//   - p: the profiler, usually Visualiser.Profiler(); nil disables recording
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithStepProfiler(p *profiler.Profiler) DriverBuilderOption {
	return func(d *Driver) {
		d.profiler = p
	}
}

// WithStopOn stops the driver once done is closed, e.g. Visualiser.Done().
//
// Parameters:
//   - done: the stop signal
//
// Returns:
//   - DriverBuilderOption: option function to apply
func WithStopOn(done <-chan struct{}) DriverBuilderOption {
	return func(d *Driver) {
		d.stopOn = done
	}
}
