// Package transport
// Author: momentics <momentics@gmail.com>
//
// Platform-independent part of the raw socket layer.

package transport

import (
	"fmt"

	"github.com/momentics/hioload-reactor/api"
)

// SocketType selects stream or datagram semantics for Open.
type SocketType int

const (
	Stream SocketType = iota + 1
	Datagram
)

// protoFor maps a socket type to the address protocol it serves.
func protoFor(st SocketType) api.Proto {
	if st == Datagram {
		return api.ProtoUDP
	}
	return api.ProtoTCP
}

// checkAddr rejects addresses that cannot be bound for st.
func checkAddr(addr api.Addr, st SocketType) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	if addr.Proto != protoFor(st) {
		return api.NewError(api.ErrCodeInvalidArgument, fmt.Sprintf("address protocol %s does not match socket", addr.Proto)).
			WithContext("addr", addr.String())
	}
	return nil
}
