// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the reactor capability.

package fake

import (
	"time"

	"github.com/momentics/hioload-reactor/api"
)

// Source is a fake api.IOInterface with a caller-chosen descriptor.
type Source struct {
	Descriptor int
	HandleFunc func(s *Source, ts time.Time) error
	Reads      []time.Time
	Closed     bool
}

// NewSource creates a Source for fd.
func NewSource(fd int) *Source {
	return &Source{Descriptor: fd}
}

// FD implements api.IOInterface.
func (s *Source) FD() int { return s.Descriptor }

// RegisterInto implements api.IOInterface.
func (s *Source) RegisterInto(set api.FDSet) { set.Add(s.Descriptor) }

// HandleRead implements api.IOInterface.
func (s *Source) HandleRead(ts time.Time) error {
	s.Reads = append(s.Reads, ts)
	if s.HandleFunc != nil {
		return s.HandleFunc(s, ts)
	}
	return nil
}

// Close marks the source closed.
func (s *Source) Close() error {
	s.Closed = true
	return nil
}
