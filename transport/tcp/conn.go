// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"fmt"
	"time"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/internal/transport"
	"github.com/momentics/hioload-reactor/pool"
)

// DefaultBufferSize is the read size used by HandleRead.
const DefaultBufferSize = 64 << 10

// DataHandler receives the bytes of one read. data aliases the connection's
// buffer and is only valid until the handler returns.
type DataHandler func(c *Connection, data []byte) error

// CloseHandler runs once when the peer closes or a read fails. The owner
// deregisters and closes the connection from here.
type CloseHandler func(c *Connection)

// ConnOption customizes a Connection.
type ConnOption func(*Connection)

// WithBufferSize sets the per-read buffer size.
func WithBufferSize(n int) ConnOption {
	return func(c *Connection) {
		if n > 0 {
			c.buf = make([]byte, n)
		}
	}
}

// WithBufferPool borrows the read buffer from p and returns it on Close.
// It overrides WithBufferSize.
func WithBufferPool(p *pool.BytePool) ConnOption {
	return func(c *Connection) {
		c.pool = p
	}
}

// WithCloseHandler installs the end-of-stream callback.
func WithCloseHandler(fn CloseHandler) ConnOption {
	return func(c *Connection) {
		c.onClose = fn
	}
}

// Connection is a connected stream socket, accepted or dialed.
type Connection struct {
	fd      int
	remote  api.Addr
	onData  DataHandler
	onClose CloseHandler
	buf     []byte
	pool    *pool.BytePool
	eof     bool
}

// NewConnection wraps a connected descriptor. The Connection owns fd from now on.
func NewConnection(fd int, remote api.Addr, handler DataHandler, opts ...ConnOption) (*Connection, error) {
	if fd < 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "connection has no open descriptor").WithContext("fd", fd)
	}
	c := &Connection{fd: fd, remote: remote, onData: handler}
	for _, opt := range opts {
		opt(c)
	}
	switch {
	case c.pool != nil:
		c.buf = c.pool.GetBuffer()
	case c.buf == nil:
		c.buf = make([]byte, DefaultBufferSize)
	}
	return c, nil
}

// Dial connects to addr and wraps the result.
func Dial(addr api.Addr, handler DataHandler, opts ...ConnOption) (*Connection, error) {
	fd, err := transport.OpenUnbound(addr, transport.Stream)
	if err != nil {
		return nil, err
	}
	if err := transport.Connect(fd, addr); err != nil {
		_ = transport.Close(fd)
		return nil, err
	}
	c, err := NewConnection(fd, addr, handler, opts...)
	if err != nil {
		_ = transport.Close(fd)
		return nil, err
	}
	return c, nil
}

// FD returns the connected descriptor, -1 once closed.
func (c *Connection) FD() int {
	return c.fd
}

// RegisterInto adds the descriptor to set.
func (c *Connection) RegisterInto(set api.FDSet) {
	if c.fd >= 0 {
		set.Add(c.fd)
	}
}

// HandleRead reads once and passes the bytes to the data handler. End of
// stream or a read error runs the close handler.
func (c *Connection) HandleRead(time.Time) error {
	if c.fd < 0 {
		return api.ErrClosed
	}
	if c.eof {
		return nil
	}
	n, err := transport.Read(c.fd, c.buf)
	if err != nil {
		c.peerGone()
		return fmt.Errorf("connection %s: %w", c.remote, err)
	}
	if n == 0 {
		c.peerGone()
		return nil
	}
	if c.onData == nil {
		return nil
	}
	return c.onData(c, c.buf[:n])
}

func (c *Connection) peerGone() {
	c.eof = true
	if c.onClose != nil {
		c.onClose(c)
	}
}

// Read reads once into buf.
func (c *Connection) Read(buf []byte) (int, error) {
	if c.fd < 0 {
		return 0, api.ErrClosed
	}
	return transport.Read(c.fd, buf)
}

// Write writes all of buf.
func (c *Connection) Write(buf []byte) (int, error) {
	if c.fd < 0 {
		return 0, api.ErrClosed
	}
	return transport.Write(c.fd, buf)
}

// RemoteAddr returns the peer address.
func (c *Connection) RemoteAddr() api.Addr {
	return c.remote
}

// LocalAddr returns the local end of the connection.
func (c *Connection) LocalAddr() (api.Addr, error) {
	if c.fd < 0 {
		return api.Addr{}, api.ErrClosed
	}
	return transport.LocalAddr(c.fd, api.ProtoTCP)
}

// Closed reports whether the peer has closed or Close was called.
func (c *Connection) Closed() bool {
	return c.fd < 0 || c.eof
}

// Close closes the descriptor. Deregister it from the Agent first.
func (c *Connection) Close() error {
	if c.fd < 0 {
		return nil
	}
	fd := c.fd
	c.fd = -1
	if c.pool != nil {
		c.pool.PutBuffer(c.buf)
		c.buf = nil
	}
	return transport.Close(fd)
}
