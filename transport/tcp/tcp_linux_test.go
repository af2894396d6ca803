//go:build linux

package tcp_test

import (
	"context"
	"testing"
	"time"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/pool"
	"github.com/momentics/hioload-reactor/reactor"
	"github.com/momentics/hioload-reactor/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loopback = api.NewAddr("127.0.0.1", api.ProtoTCP, 0)

// newAgent returns an agent that gives up after budget of idle waits.
func newAgent(t *testing.T, cancel context.CancelFunc, budget int) *reactor.Agent {
	t.Helper()
	idle := 0
	a, err := reactor.New(
		reactor.WithTimeout(reactor.TimeoutConfig{Mode: reactor.TimeoutManual, Manual: 20 * time.Millisecond}),
		reactor.WithHooks(reactor.Hooks{
			OnTimeout: func(time.Time, time.Duration) {
				idle++
				if idle >= budget {
					t.Errorf("no progress after %d idle waits", idle)
					cancel()
				}
			},
		}),
	)
	require.NoError(t, err)
	return a
}

func TestEchoThroughAgent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a := newAgent(t, cancel, 100)

	var serverClosed bool
	ln, err := tcp.Listen(loopback, func(l *tcp.Listener) error {
		fd, remote, err := l.Accept()
		if err != nil {
			return err
		}
		conn, err := tcp.NewConnection(fd, remote,
			func(c *tcp.Connection, data []byte) error {
				_, err := c.Write(data)
				return err
			},
			tcp.WithCloseHandler(func(c *tcp.Connection) {
				serverClosed = true
				a.RemoveInterface(c.FD())
				_ = c.Close()
				cancel()
			}),
		)
		if err != nil {
			return err
		}
		return a.AddInterface(conn)
	})
	require.NoError(t, err)
	defer ln.Close()
	require.NoError(t, a.AddInterface(ln))
	require.NotZero(t, ln.Addr().Port)

	msg := []byte("hello reactor")
	var echoed []byte
	client, err := tcp.Dial(ln.Addr(), func(c *tcp.Connection, data []byte) error {
		echoed = append(echoed, data...)
		if len(echoed) >= len(msg) {
			a.RemoveInterface(c.FD())
			return c.Close()
		}
		return nil
	})
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, a.AddInterface(client))

	n, err := client.Write(msg)
	require.NoError(t, err)
	require.Equal(t, len(msg), n)

	require.NoError(t, a.Run(ctx))
	assert.Equal(t, msg, echoed)
	assert.True(t, serverClosed)
	assert.True(t, client.Closed())
	assert.Equal(t, 1, a.Len(), "only the listener remains registered")
	_, ok := a.Interface(ln.FD())
	assert.True(t, ok)
}

func TestListen_RejectsBadAddresses(t *testing.T) {
	noop := func(*tcp.Listener) error { return nil }

	_, err := tcp.Listen(api.NewAddr("127.0.0.1", api.ProtoUDP, 0), noop)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = tcp.Listen(api.NewAddr("localhost", api.ProtoTCP, 0), noop)
	assert.ErrorIs(t, err, api.ErrConfiguration)

	_, err = tcp.Listen(loopback, nil)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestListener_CloseIsIdempotent(t *testing.T) {
	ln, err := tcp.Listen(loopback, func(*tcp.Listener) error { return nil }, tcp.WithBacklog(4))
	require.NoError(t, err)
	require.GreaterOrEqual(t, ln.FD(), 0)

	require.NoError(t, ln.Close())
	require.NoError(t, ln.Close())
	assert.Equal(t, -1, ln.FD())

	_, _, err = ln.Accept()
	assert.ErrorIs(t, err, api.ErrClosed)
	assert.ErrorIs(t, ln.HandleRead(time.Now()), api.ErrClosed)
}

func TestConnection_ReadWriteDirect(t *testing.T) {
	accepted := make(chan *tcp.Connection, 1)
	ln, err := tcp.Listen(loopback, func(l *tcp.Listener) error {
		fd, remote, err := l.Accept()
		if err != nil {
			return err
		}
		c, err := tcp.NewConnection(fd, remote, nil, tcp.WithBufferSize(16))
		if err != nil {
			return err
		}
		accepted <- c
		return nil
	})
	require.NoError(t, err)
	defer ln.Close()

	client, err := tcp.Dial(ln.Addr(), nil)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, ln.HandleRead(time.Now()))
	server := <-accepted
	defer server.Close()

	local, err := client.LocalAddr()
	require.NoError(t, err)
	assert.Equal(t, local, server.RemoteAddr())
	assert.Equal(t, ln.Addr(), client.RemoteAddr())

	_, err = server.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 8)
	n, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))

	require.NoError(t, client.Close())
	assert.True(t, client.Closed())
	_, err = client.Write([]byte("x"))
	assert.ErrorIs(t, err, api.ErrClosed)

	// end of stream with no close handler only marks the connection
	require.NoError(t, server.HandleRead(time.Now()))
	assert.True(t, server.Closed())
	assert.GreaterOrEqual(t, server.FD(), 0)
}

func TestNewConnection_RejectsClosedDescriptor(t *testing.T) {
	_, err := tcp.NewConnection(-1, api.Addr{}, nil)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestConnection_BufferPool(t *testing.T) {
	ln, err := tcp.Listen(loopback, func(*tcp.Listener) error { return nil })
	require.NoError(t, err)
	defer ln.Close()

	buffers := pool.NewBytePool(8)
	var chunks []string
	client, err := tcp.Dial(ln.Addr(), func(_ *tcp.Connection, data []byte) error {
		chunks = append(chunks, string(data))
		return nil
	}, tcp.WithBufferPool(buffers), tcp.WithBufferSize(1<<20))
	require.NoError(t, err)

	fd, _, err := ln.Accept()
	require.NoError(t, err)
	server, err := tcp.NewConnection(fd, api.Addr{}, nil)
	require.NoError(t, err)
	defer server.Close()

	_, err = server.Write([]byte("0123456789"))
	require.NoError(t, err)
	require.NoError(t, client.HandleRead(time.Now()))
	require.Len(t, chunks, 1)
	assert.LessOrEqual(t, len(chunks[0]), 8, "reads are bounded by the pooled buffer")

	require.NoError(t, client.Close())
	assert.ErrorIs(t, client.HandleRead(time.Now()), api.ErrClosed)
}
