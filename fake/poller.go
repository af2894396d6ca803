// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"errors"
	"time"

	"github.com/momentics/hioload-reactor/reactor"
)

// ErrScriptExhausted is returned by Poller once every scripted result is used.
var ErrScriptExhausted = errors.New("fake poller: script exhausted")

// PollResult is one scripted outcome of Poller.Wait.
type PollResult struct {
	Ready []int // descriptors to report ready; ones not in the wait set are dropped
	Err   error
}

// Poller is a scripted reactor.Poller that never blocks.
type Poller struct {
	Results  []PollResult
	Timeouts []time.Duration // timeout passed to each Wait
	Sets     [][]int         // wait set seen by each Wait
}

// NewPoller returns a Poller that replays results in order.
func NewPoller(results ...PollResult) *Poller {
	return &Poller{Results: results}
}

// Wait implements reactor.Poller.
func (p *Poller) Wait(set *reactor.ReadySet, timeout time.Duration) (int, error) {
	p.Timeouts = append(p.Timeouts, timeout)
	p.Sets = append(p.Sets, set.Slice())
	if len(p.Results) == 0 {
		return 0, ErrScriptExhausted
	}
	r := p.Results[0]
	p.Results = p.Results[1:]
	if r.Err != nil {
		return 0, r.Err
	}
	var ready reactor.ReadySet
	for _, fd := range r.Ready {
		if set.Contains(fd) {
			ready.Add(fd)
		}
	}
	set.CopyFrom(&ready)
	return set.Len(), nil
}
