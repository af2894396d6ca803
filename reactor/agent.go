// File: reactor/agent.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Agent: single-threaded readiness reactor over a set of api.IOInterface sources.

package reactor

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-reactor/api"
)

// noCopy trips `go vet` copylocks when an Agent is copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Agent owns the registered interfaces, the canonical readiness set and the
// timeout configuration, and runs the event loop. All methods must be called
// from the goroutine that runs (or will run) Run; callbacks may register and
// remove interfaces freely.
type Agent struct {
	_ noCopy

	interfaces map[int]api.IOInterface
	fds        ReadySet // canonical: exactly the registered descriptors
	readFDs    ReadySet // working copy handed to the poller
	fdMax      int
	dirty      bool

	timeout TimeoutConfig
	current time.Duration

	poller  Poller
	rng     *rand.Rand
	hooks   Hooks
	logger  *logiface.Logger[logiface.Event]
	metrics Metrics
	running bool
}

// New constructs an Agent with its own, unshared registration state.
func New(opts ...Option) (*Agent, error) {
	a := &Agent{
		interfaces: make(map[int]api.IOInterface),
		fdMax:      -1,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.poller == nil {
		p, err := NewPoller()
		if err != nil {
			return nil, err
		}
		a.poller = p
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	if err := a.timeout.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// AddInterface registers iface under its descriptor.
func (a *Agent) AddInterface(iface api.IOInterface) error {
	fd := iface.FD()
	if fd < 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "interface has no open descriptor").WithContext("fd", fd)
	}
	if _, ok := a.interfaces[fd]; ok {
		return api.NewError(api.ErrCodeDuplicateRegistration, "device is already added to this agent").WithContext("fd", fd)
	}
	a.interfaces[fd] = iface
	iface.RegisterInto(&a.fds)
	if fd > a.fdMax {
		a.fdMax = fd
	}
	a.logger.Debug().Int("fd", fd).Int("registered", len(a.interfaces)).Log("interface added")
	a.publishRegistered()
	return nil
}

// RemoveInterface drops the registration for fd. Closing the descriptor
// stays with the caller. The readiness bit is cleared before the next wait.
func (a *Agent) RemoveInterface(fd int) (api.IOInterface, bool) {
	iface, ok := a.interfaces[fd]
	if !ok {
		return nil, false
	}
	delete(a.interfaces, fd)
	a.dirty = true
	a.logger.Debug().Int("fd", fd).Int("registered", len(a.interfaces)).Log("interface removed")
	a.publishRegistered()
	return iface, true
}

// Interface returns the source registered under fd.
func (a *Agent) Interface(fd int) (api.IOInterface, bool) {
	iface, ok := a.interfaces[fd]
	return iface, ok
}

// Len returns the number of registered interfaces.
func (a *Agent) Len() int {
	return len(a.interfaces)
}

// MaxFD returns the highest descriptor tracked for the readiness set, -1 if none.
func (a *Agent) MaxFD() int {
	return a.fdMax
}

// FDs returns the canonical readiness set in ascending order.
func (a *Agent) FDs() []int {
	return a.fds.Slice()
}

// CleanFDs clears every readiness bit whose descriptor is no longer registered.
func (a *Agent) CleanFDs() {
	var stale []int
	a.fds.Each(func(fd int) bool {
		if _, ok := a.interfaces[fd]; !ok {
			stale = append(stale, fd)
		}
		return true
	})
	for _, fd := range stale {
		a.fds.Remove(fd)
	}
	a.fdMax = a.fds.Max()
	a.dirty = false
}

// SetTimeoutMode selects the timeout strategy for subsequent iterations.
// Parameters are checked when the next timeout is computed.
func (a *Agent) SetTimeoutMode(mode TimeoutMode) error {
	if mode < TimeoutNone || mode > TimeoutExponential {
		return api.NewError(api.ErrCodeConfiguration, "unknown timeout mode").WithContext("mode", int(mode))
	}
	a.timeout.Mode = mode
	return nil
}

// TimeoutMode returns the configured strategy.
func (a *Agent) TimeoutMode() TimeoutMode { return a.timeout.Mode }

// SetManualTimeout sets the fixed duration used by TimeoutManual.
func (a *Agent) SetManualTimeout(d time.Duration) error {
	if err := checkManual(d); err != nil {
		return err
	}
	a.timeout.Manual = d
	return nil
}

// ManualTimeout returns the TimeoutManual duration.
func (a *Agent) ManualTimeout() time.Duration { return a.timeout.Manual }

// SetUniformBounds sets the sampling interval used by TimeoutUniform.
func (a *Agent) SetUniformBounds(lower, upper time.Duration) error {
	if err := checkUniform(lower, upper); err != nil {
		return err
	}
	a.timeout.UniformLower, a.timeout.UniformUpper = lower, upper
	return nil
}

// UniformLower returns the lower TimeoutUniform bound.
func (a *Agent) UniformLower() time.Duration { return a.timeout.UniformLower }

// UniformUpper returns the upper TimeoutUniform bound.
func (a *Agent) UniformUpper() time.Duration { return a.timeout.UniformUpper }

// SetExponentialLambda sets the rate (per second) used by TimeoutExponential.
func (a *Agent) SetExponentialLambda(lambda float64) error {
	if err := checkLambda(lambda); err != nil {
		return err
	}
	a.timeout.Lambda = lambda
	return nil
}

// ExponentialLambda returns the TimeoutExponential rate.
func (a *Agent) ExponentialLambda() float64 { return a.timeout.Lambda }

// Timeout returns a copy of the full timeout configuration.
func (a *Agent) Timeout() TimeoutConfig { return a.timeout }

// CurrentTimeout returns the duration scheduled for the most recent wait.
func (a *Agent) CurrentTimeout() time.Duration { return a.current }

// NextTimeout computes a fresh timeout from the current configuration.
func (a *Agent) NextTimeout() (time.Duration, error) {
	return a.timeout.Next(a.rng)
}

// Run drives the loop until the wait call fails, which is returned wrapped
// in api.ErrFatalIO, or until ctx is done, which is checked between
// iterations and returns nil. Configuration errors found while preparing a
// wait are returned before waiting.
func (a *Agent) Run(ctx context.Context) error {
	if a.running {
		return api.NewError(api.ErrCodeLogic, "agent is already running")
	}
	a.running = true
	defer func() { a.running = false }()

	a.CleanFDs()
	ts := time.Now()
	a.logger.Debug().Int("registered", len(a.interfaces)).Stringer("timeout_mode", a.timeout.Mode).Log("agent started")
	if a.hooks.OnStart != nil {
		a.hooks.OnStart(ts)
	}

	for {
		if ctx.Err() != nil {
			a.logger.Debug().Log("agent stopped")
			return nil
		}

		// PREPARE
		if a.dirty {
			a.CleanFDs()
		}
		a.readFDs.CopyFrom(&a.fds)
		wait := time.Duration(-1)
		if a.timeout.Mode != TimeoutNone {
			d, err := a.timeout.Next(a.rng)
			if err != nil {
				return err
			}
			a.current, wait = d, d
		}

		// WAIT
		n, err := a.poller.Wait(&a.readFDs, wait)
		ts = time.Now()
		a.count("agent.iterations", 1)

		// DISPATCH
		switch {
		case err != nil:
			a.logger.Err().Err(err).Int("registered", len(a.interfaces)).Log("readiness wait failed")
			return api.WrapError(api.ErrCodeFatalIO, "readiness wait", err)
		case n == 0:
			a.count("agent.timeouts", 1)
			if a.hooks.OnTimeout != nil {
				a.hooks.OnTimeout(ts, a.current)
			}
		default:
			a.checkReadInterfaces(ts)
		}
	}
}

// checkReadInterfaces dispatches every ready, still-registered descriptor in
// ascending order. Interfaces removed by an earlier callback in the same
// iteration are skipped.
func (a *Agent) checkReadInterfaces(ts time.Time) {
	a.readFDs.Each(func(fd int) bool {
		iface, ok := a.interfaces[fd]
		if !ok {
			return true
		}
		a.deviceReady(ts, iface)
		return true
	})
}

func (a *Agent) deviceReady(ts time.Time, iface api.IOInterface) {
	a.count("agent.dispatched", 1)
	var err error
	if a.hooks.OnReady != nil {
		err = a.hooks.OnReady(ts, iface)
	} else {
		err = iface.HandleRead(ts)
	}
	if err != nil {
		a.count("agent.handler_errors", 1)
		a.logger.Warning().Err(err).Int("fd", iface.FD()).Log("interface read handler failed")
	}
}

func (a *Agent) count(key string, delta int64) {
	if a.metrics != nil {
		a.metrics.Add(key, delta)
	}
}

func (a *Agent) publishRegistered() {
	if a.metrics != nil {
		a.metrics.Set("agent.registered", len(a.interfaces))
	}
}
