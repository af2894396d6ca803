// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Runtime debug probes for reactor inspection.

package control

import (
	"sync"

	"github.com/momentics/hioload-reactor/reactor"
)

// DebugProbes holds registered probe functions.
type DebugProbes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewDebugProbes creates a probe registry.
func NewDebugProbes() *DebugProbes {
	return &DebugProbes{
		probes: make(map[string]func() any),
	}
}

// RegisterProbe inserts a named debug hook.
func (dp *DebugProbes) RegisterProbe(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.probes[name] = fn
}

// DumpState returns output of all probes.
func (dp *DebugProbes) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any)
	for k, fn := range dp.probes {
		out[k] = fn()
	}
	return out
}

// RegisterAgentProbes exposes the registration state of a. Probes read the
// Agent directly, so DumpState must run on the reactor goroutine, e.g. from
// a timeout hook.
func RegisterAgentProbes(dp *DebugProbes, a *reactor.Agent) {
	dp.RegisterProbe("agent.registered", func() any { return a.Len() })
	dp.RegisterProbe("agent.max_fd", func() any { return a.MaxFD() })
	dp.RegisterProbe("agent.fds", func() any { return a.FDs() })
	dp.RegisterProbe("agent.timeout_mode", func() any { return a.TimeoutMode().String() })
	dp.RegisterProbe("agent.current_timeout", func() any { return a.CurrentTimeout().String() })
}
