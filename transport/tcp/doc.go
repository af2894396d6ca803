// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements the stream variants of api.IOInterface: a listening
// socket whose readiness means a pending connection, and a connected socket
// whose readiness means bytes (or end of stream) from the peer.
//
// Both are driven by a reactor.Agent. Accept and Read block, so they are only
// called from the readiness callback.
package tcp
