// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw socket layer for hioload-reactor. Thin wrappers over socket, bind,
// listen, accept, connect, sendto and recvfrom that keep the descriptor
// visible to the reactor, strictly separated by build tags (linux / other).

package transport
