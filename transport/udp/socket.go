// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package udp implements the datagram variant of api.IOInterface.
package udp

import (
	"time"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/internal/transport"
)

// MaxDatagram is large enough for any UDP payload.
const MaxDatagram = 64 << 10

// Handler runs when the socket is readable. It normally calls Receive.
type Handler func(s *Socket) error

// Socket is a bound datagram socket.
type Socket struct {
	fd      int
	local   api.Addr
	device  string
	handler Handler
}

// Open binds a datagram socket to addr, optionally restricted to the network
// interface iface. A malformed address or a non-udp protocol is an
// api.ErrInvalidArgument; socket, bind and device errors are returned
// wrapped.
func Open(addr api.Addr, iface string, handler Handler) (*Socket, error) {
	fd, err := transport.Open(addr, transport.Datagram)
	if err != nil {
		return nil, err
	}
	if iface != "" {
		if err := transport.BindToDevice(fd, iface); err != nil {
			_ = transport.Close(fd)
			return nil, err
		}
	}
	local, err := transport.LocalAddr(fd, api.ProtoUDP)
	if err != nil {
		_ = transport.Close(fd)
		return nil, err
	}
	return &Socket{fd: fd, local: local, device: iface, handler: handler}, nil
}

// FD returns the descriptor, -1 once closed.
func (s *Socket) FD() int {
	return s.fd
}

// RegisterInto adds the descriptor to set.
func (s *Socket) RegisterInto(set api.FDSet) {
	if s.fd >= 0 {
		set.Add(s.fd)
	}
}

// HandleRead invokes the handler. Without one the pending datagram is discarded.
func (s *Socket) HandleRead(time.Time) error {
	if s.fd < 0 {
		return api.ErrClosed
	}
	if s.handler == nil {
		var scratch [1]byte
		_, _, err := transport.RecvFrom(s.fd, scratch[:])
		return err
	}
	return s.handler(s)
}

// Send transmits buf as one datagram to to.
func (s *Socket) Send(to api.Addr, buf []byte) (int, error) {
	if s.fd < 0 {
		return 0, api.ErrClosed
	}
	if to.Proto != api.ProtoUDP {
		return 0, api.NewError(api.ErrCodeInvalidArgument, "destination is not a udp address").WithContext("to", to.String())
	}
	return transport.SendTo(s.fd, to, buf)
}

// Receive reads one datagram into buf. Bytes beyond len(buf) are dropped.
func (s *Socket) Receive(buf []byte) (int, api.Addr, error) {
	if s.fd < 0 {
		return 0, api.Addr{}, api.ErrClosed
	}
	return transport.RecvFrom(s.fd, buf)
}

// LocalAddr returns the bound address with an ephemeral port resolved.
func (s *Socket) LocalAddr() api.Addr {
	return s.local
}

// Device returns the interface the socket is bound to, if any.
func (s *Socket) Device() string {
	return s.device
}

// Close closes the socket. Deregister it from the Agent first.
func (s *Socket) Close() error {
	if s.fd < 0 {
		return nil
	}
	fd := s.fd
	s.fd = -1
	return transport.Close(fd)
}
