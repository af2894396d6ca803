// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"time"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/internal/transport"
)

// AcceptHandler runs when the listener is readable. It normally calls
// Accept, wraps the descriptor in a Connection and registers it.
type AcceptHandler func(l *Listener) error

// ListenOption customizes Listen.
type ListenOption func(*listenConfig)

type listenConfig struct {
	backlog int
	device  string
}

// WithBacklog sets the pending-connection queue length. Zero or less means SOMAXCONN.
func WithBacklog(n int) ListenOption {
	return func(c *listenConfig) {
		c.backlog = n
	}
}

// WithDevice binds the socket to a network interface (SO_BINDTODEVICE).
func WithDevice(iface string) ListenOption {
	return func(c *listenConfig) {
		c.device = iface
	}
}

// Listener is a bound, listening stream socket.
type Listener struct {
	fd      int
	addr    api.Addr
	handler AcceptHandler
}

// Listen binds addr and starts listening on it.
func Listen(addr api.Addr, handler AcceptHandler, opts ...ListenOption) (*Listener, error) {
	if handler == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "nil accept handler")
	}
	var cfg listenConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	fd, err := transport.Open(addr, transport.Stream)
	if err != nil {
		return nil, err
	}
	if cfg.device != "" {
		if err := transport.BindToDevice(fd, cfg.device); err != nil {
			_ = transport.Close(fd)
			return nil, err
		}
	}
	if err := transport.Listen(fd, cfg.backlog); err != nil {
		_ = transport.Close(fd)
		return nil, err
	}
	bound, err := transport.LocalAddr(fd, api.ProtoTCP)
	if err != nil {
		_ = transport.Close(fd)
		return nil, err
	}
	return &Listener{fd: fd, addr: bound, handler: handler}, nil
}

// FD returns the listening descriptor, -1 once closed.
func (l *Listener) FD() int {
	return l.fd
}

// RegisterInto adds the listening descriptor to set.
func (l *Listener) RegisterInto(set api.FDSet) {
	if l.fd >= 0 {
		set.Add(l.fd)
	}
}

// HandleRead hands the pending connection to the accept handler.
func (l *Listener) HandleRead(time.Time) error {
	if l.fd < 0 {
		return api.ErrClosed
	}
	return l.handler(l)
}

// Accept takes one pending connection. It blocks when none is pending.
func (l *Listener) Accept() (int, api.Addr, error) {
	if l.fd < 0 {
		return -1, api.Addr{}, api.ErrClosed
	}
	return transport.Accept(l.fd)
}

// Addr returns the bound address with an ephemeral port resolved.
func (l *Listener) Addr() api.Addr {
	return l.addr
}

// Close closes the listening socket. Deregister it from the Agent first.
func (l *Listener) Close() error {
	if l.fd < 0 {
		return nil
	}
	fd := l.fd
	l.fd = -1
	return transport.Close(fd)
}
