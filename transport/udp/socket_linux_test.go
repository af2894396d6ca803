//go:build linux

package udp_test

import (
	"context"
	"testing"
	"time"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/reactor"
	"github.com/momentics/hioload-reactor/transport/udp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loopback = api.NewAddr("127.0.0.1", api.ProtoUDP, 0)

func TestSocket_RoundTrip(t *testing.T) {
	a, err := udp.Open(loopback, "", nil)
	require.NoError(t, err)
	defer a.Close()
	b, err := udp.Open(loopback, "", nil)
	require.NoError(t, err)
	defer b.Close()
	require.NotZero(t, b.LocalAddr().Port)

	n, err := a.Send(b.LocalAddr(), []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	buf := make([]byte, udp.MaxDatagram)
	n, from, err := b.Receive(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
	assert.Equal(t, a.LocalAddr(), from)
}

func TestOpen_Rejects(t *testing.T) {
	_, err := udp.Open(api.NewAddr("300.1.1.1", api.ProtoUDP, 0), "", nil)
	assert.ErrorIs(t, err, api.ErrConfiguration)

	_, err = udp.Open(api.NewAddr("127.0.0.1", api.ProtoTCP, 0), "", nil)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = udp.Open(loopback, "no-such-if0", nil)
	assert.Error(t, err)
}

func TestSocket_ReceiveThroughAgent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []string
	var senders []api.Addr
	buf := make([]byte, udp.MaxDatagram)
	sink, err := udp.Open(loopback, "", func(s *udp.Socket) error {
		n, from, err := s.Receive(buf)
		if err != nil {
			return err
		}
		got = append(got, string(buf[:n]))
		senders = append(senders, from)
		if len(got) == 2 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)
	defer sink.Close()

	src, err := udp.Open(loopback, "", nil)
	require.NoError(t, err)
	defer src.Close()

	idle := 0
	agent, err := reactor.New(
		reactor.WithTimeout(reactor.TimeoutConfig{Mode: reactor.TimeoutManual, Manual: 20 * time.Millisecond}),
		reactor.WithHooks(reactor.Hooks{OnTimeout: func(time.Time, time.Duration) {
			if idle++; idle > 100 {
				t.Error("datagrams never arrived")
				cancel()
			}
		}}),
	)
	require.NoError(t, err)
	require.NoError(t, agent.AddInterface(sink))

	for _, msg := range []string{"one", "two"} {
		_, err := src.Send(sink.LocalAddr(), []byte(msg))
		require.NoError(t, err)
	}

	require.NoError(t, agent.Run(ctx))
	assert.Equal(t, []string{"one", "two"}, got)
	assert.Equal(t, []api.Addr{src.LocalAddr(), src.LocalAddr()}, senders)
}

func TestSocket_Closed(t *testing.T) {
	s, err := udp.Open(loopback, "", nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Send(loopback, []byte("x"))
	assert.ErrorIs(t, err, api.ErrClosed)
	_, _, err = s.Receive(make([]byte, 1))
	assert.ErrorIs(t, err, api.ErrClosed)
	assert.ErrorIs(t, s.HandleRead(time.Now()), api.ErrClosed)
}
