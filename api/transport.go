// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Transport address value shared by listeners, connections and datagram sockets.

package api

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// Proto is the transport protocol of an Addr.
type Proto int

const (
	ProtoTCP Proto = iota + 1
	ProtoUDP
)

func (p Proto) String() string {
	switch p {
	case ProtoTCP:
		return "tcp"
	case ProtoUDP:
		return "udp"
	default:
		return "unknown"
	}
}

// ParseProto maps "tcp" / "udp" to a Proto.
func ParseProto(s string) (Proto, error) {
	switch strings.ToLower(s) {
	case "tcp":
		return ProtoTCP, nil
	case "udp":
		return ProtoUDP, nil
	}
	return 0, NewError(ErrCodeInvalidArgument, "unknown protocol").WithContext("proto", s)
}

// Addr is a transport address: host, protocol and port.
type Addr struct {
	Host  string
	Proto Proto
	Port  uint16
}

// NewAddr is a convenience constructor.
func NewAddr(host string, proto Proto, port uint16) Addr {
	return Addr{Host: host, Proto: proto, Port: port}
}

// ParseAddr parses "tcp://host:port" or "udp://host:port".
func ParseAddr(s string) (Addr, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		return Addr{}, NewError(ErrCodeInvalidArgument, "address missing scheme").WithContext("addr", s)
	}
	proto, err := ParseProto(scheme)
	if err != nil {
		return Addr{}, err
	}
	ap, err := netip.ParseAddrPort(rest)
	if err != nil {
		return Addr{}, WrapError(ErrCodeInvalidArgument, "malformed address", err).WithContext("addr", s)
	}
	return Addr{Host: ap.Addr().Unmap().String(), Proto: proto, Port: ap.Port()}, nil
}

// IP parses Host. An empty host is the IPv4 wildcard.
func (a Addr) IP() (netip.Addr, error) {
	if a.Host == "" {
		return netip.IPv4Unspecified(), nil
	}
	ip, err := netip.ParseAddr(a.Host)
	if err != nil {
		return netip.Addr{}, WrapError(ErrCodeInvalidArgument, "malformed host", err).WithContext("host", a.Host)
	}
	return ip.Unmap(), nil
}

// Validate checks the host and protocol.
func (a Addr) Validate() error {
	if a.Proto != ProtoTCP && a.Proto != ProtoUDP {
		return NewError(ErrCodeInvalidArgument, "unknown protocol").WithContext("proto", int(a.Proto))
	}
	_, err := a.IP()
	return err
}

func (a Addr) String() string {
	host := a.Host
	if ip, err := netip.ParseAddr(a.Host); err == nil && ip.Is6() && !ip.Is4In6() {
		host = "[" + host + "]"
	}
	return fmt.Sprintf("%s://%s", a.Proto, host+":"+strconv.Itoa(int(a.Port)))
}
