//go:build linux

package transport_test

import (
	"testing"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_RejectsMalformedAddress(t *testing.T) {
	_, err := transport.Open(api.NewAddr("not-an-ip", api.ProtoUDP, 0), transport.Datagram)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	assert.ErrorIs(t, err, api.ErrConfiguration)
}

func TestOpen_RejectsProtocolMismatch(t *testing.T) {
	_, err := transport.Open(api.NewAddr("127.0.0.1", api.ProtoTCP, 0), transport.Datagram)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestOpen_EphemeralPortResolved(t *testing.T) {
	fd, err := transport.Open(api.NewAddr("127.0.0.1", api.ProtoTCP, 0), transport.Stream)
	require.NoError(t, err)
	defer transport.Close(fd)

	local, err := transport.LocalAddr(fd, api.ProtoTCP)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", local.Host)
	assert.NotZero(t, local.Port)
}

func TestSendToRecvFrom_Loopback(t *testing.T) {
	rx, err := transport.Open(api.NewAddr("127.0.0.1", api.ProtoUDP, 0), transport.Datagram)
	require.NoError(t, err)
	defer transport.Close(rx)
	tx, err := transport.Open(api.NewAddr("127.0.0.1", api.ProtoUDP, 0), transport.Datagram)
	require.NoError(t, err)
	defer transport.Close(tx)

	rxAddr, err := transport.LocalAddr(rx, api.ProtoUDP)
	require.NoError(t, err)
	txAddr, err := transport.LocalAddr(tx, api.ProtoUDP)
	require.NoError(t, err)

	n, err := transport.SendTo(tx, rxAddr, []byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	buf := make([]byte, 16)
	n, from, err := transport.RecvFrom(rx, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
	assert.Equal(t, txAddr, from)
}
