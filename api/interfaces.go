// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package api

import "time"

// FDSet is an externally owned readiness set that descriptors add themselves to.
type FDSet interface {
	Add(fd int)
}

// IOInterface is the capability every event source registered with the
// reactor implements: listeners, connections, datagram sockets and bus
// endpoints alike.
type IOInterface interface {
	// FD returns the OS-level descriptor. It is stable while the source is
	// open and negative once closed.
	FD() int

	// RegisterInto adds this descriptor to set.
	RegisterInto(set FDSet)

	// HandleRead is called by the reactor once the descriptor is readable.
	// A returned error is local to the source and does not stop the reactor.
	HandleRead(ts time.Time) error
}

// Closer is implemented by sources that own their descriptor.
type Closer interface {
	Close() error
}
