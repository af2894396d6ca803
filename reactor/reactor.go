// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral wait boundary for the Agent.

package reactor

import (
	"math"
	"time"
)

// Poller is the blocking readiness-wait call. Wait blocks until a descriptor
// in set is readable or timeout elapses (timeout < 0 blocks indefinitely),
// then rewrites set to the ready subset and returns its size. A zero return
// with a nil error means the timeout expired.
type Poller interface {
	Wait(set *ReadySet, timeout time.Duration) (int, error)
}

// PollerFunc adapts a function to Poller.
type PollerFunc func(set *ReadySet, timeout time.Duration) (int, error)

// Wait implements Poller.
func (f PollerFunc) Wait(set *ReadySet, timeout time.Duration) (int, error) {
	return f(set, timeout)
}

// timeoutMillis converts timeout for millisecond-resolution wait calls.
// Positive sub-millisecond values round up so a short timeout never spins.
func timeoutMillis(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}
	ms := timeout / time.Millisecond
	if timeout%time.Millisecond != 0 {
		ms++
	}
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}
