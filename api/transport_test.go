package api_test

import (
	"testing"

	"github.com/momentics/hioload-reactor/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddr(t *testing.T) {
	a, err := api.ParseAddr("tcp://127.0.0.1:8080")
	require.NoError(t, err)
	assert.Equal(t, api.NewAddr("127.0.0.1", api.ProtoTCP, 8080), a)
	assert.Equal(t, "tcp://127.0.0.1:8080", a.String())

	a, err = api.ParseAddr("UDP://[::1]:53")
	require.NoError(t, err)
	assert.Equal(t, api.ProtoUDP, a.Proto)
	assert.Equal(t, "udp://[::1]:53", a.String())

	a, err = api.ParseAddr("tcp://[::ffff:10.0.0.1]:1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", a.Host, "mapped addresses are unmapped")
}

func TestParseAddr_Malformed(t *testing.T) {
	for _, s := range []string{
		"127.0.0.1:80",
		"sctp://127.0.0.1:80",
		"tcp://localhost:80",
		"tcp://127.0.0.1",
		"tcp://127.0.0.1:70000",
		"tcp://256.0.0.1:80",
	} {
		_, err := api.ParseAddr(s)
		assert.ErrorIs(t, err, api.ErrInvalidArgument, s)
		assert.ErrorIs(t, err, api.ErrConfiguration, s)
	}
}

func TestAddr_IPAndValidate(t *testing.T) {
	ip, err := api.Addr{Proto: api.ProtoTCP}.IP()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", ip.String(), "empty host is the wildcard")

	assert.NoError(t, api.NewAddr("::", api.ProtoUDP, 0).Validate())
	assert.ErrorIs(t, api.NewAddr("127.0.0.1", 0, 1).Validate(), api.ErrInvalidArgument)
	assert.ErrorIs(t, api.NewAddr("host.example", api.ProtoTCP, 1).Validate(), api.ErrInvalidArgument)
}

func TestParseProto(t *testing.T) {
	p, err := api.ParseProto("Tcp")
	require.NoError(t, err)
	assert.Equal(t, api.ProtoTCP, p)
	assert.Equal(t, "udp", api.ProtoUDP.String())
	assert.Equal(t, "unknown", api.Proto(9).String())
	_, err = api.ParseProto("quic")
	assert.Error(t, err)
}
