// File: reactor/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Functional options and dispatch hooks for the Agent.

package reactor

import (
	"math/rand/v2"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-reactor/api"
)

// Hooks are invoked synchronously on the reactor goroutine. Nil fields keep
// the default behavior.
type Hooks struct {
	// OnStart fires once, before the first wait.
	OnStart func(ts time.Time)

	// OnReady fires once per ready descriptor, in ascending descriptor
	// order. The default calls iface.HandleRead(ts).
	OnReady func(ts time.Time, iface api.IOInterface) error

	// OnTimeout fires when a wait expires with nothing ready. scheduled is
	// the duration computed for that wait.
	OnTimeout func(ts time.Time, scheduled time.Duration)
}

// Metrics receives Agent counters. control.MetricsRegistry implements it.
type Metrics interface {
	Add(key string, delta int64)
	Set(key string, value any)
}

// Option customizes Agent construction.
type Option func(*Agent)

// WithLogger attaches a structured logger. A nil logger disables logging.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(a *Agent) {
		a.logger = l
	}
}

// WithPoller replaces the platform wait call, e.g. with NewEpollPoller.
func WithPoller(p Poller) Option {
	return func(a *Agent) {
		a.poller = p
	}
}

// WithRand sets the random source used by the uniform and exponential modes.
func WithRand(r *rand.Rand) Option {
	return func(a *Agent) {
		a.rng = r
	}
}

// WithMetrics publishes loop counters into m.
func WithMetrics(m Metrics) Option {
	return func(a *Agent) {
		a.metrics = m
	}
}

// WithHooks installs dispatch hooks.
func WithHooks(h Hooks) Option {
	return func(a *Agent) {
		a.hooks = h
	}
}

// WithTimeout sets the initial timeout configuration. It is validated by New.
func WithTimeout(c TimeoutConfig) Option {
	return func(a *Agent) {
		a.timeout = c
	}
}
