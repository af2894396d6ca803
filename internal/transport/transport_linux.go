// internal/transport/transport_linux.go
//go:build linux
// +build linux

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux sockets over golang.org/x/sys/unix. Descriptors are blocking and
// close-on-exec; callers only read or accept after the reactor reports
// readiness.

package transport

import (
	"fmt"
	"net/netip"

	"github.com/momentics/hioload-reactor/api"
	"golang.org/x/sys/unix"
)

// Open creates a socket for addr and binds it. SO_REUSEADDR is set on
// stream sockets so listeners can be restarted immediately.
func Open(addr api.Addr, st SocketType) (int, error) {
	if err := checkAddr(addr, st); err != nil {
		return -1, err
	}
	sa, domain, err := toSockaddr(addr)
	if err != nil {
		return -1, err
	}
	fd, err := newSocket(domain, st)
	if err != nil {
		return -1, err
	}
	if st == Stream {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			_ = unix.Close(fd)
			return -1, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
		}
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("bind %s: %w", addr, err)
	}
	return fd, nil
}

// OpenUnbound creates a socket of the address family of addr without binding it.
func OpenUnbound(addr api.Addr, st SocketType) (int, error) {
	if err := checkAddr(addr, st); err != nil {
		return -1, err
	}
	_, domain, err := toSockaddr(addr)
	if err != nil {
		return -1, err
	}
	return newSocket(domain, st)
}

func newSocket(domain int, st SocketType) (int, error) {
	sotype, proto := unix.SOCK_STREAM, unix.IPPROTO_TCP
	if st == Datagram {
		sotype, proto = unix.SOCK_DGRAM, unix.IPPROTO_UDP
	}
	fd, err := unix.Socket(domain, sotype|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		return -1, fmt.Errorf("socket create: %w", err)
	}
	return fd, nil
}

// BindToDevice restricts fd to the named network interface.
func BindToDevice(fd int, iface string) error {
	if err := unix.BindToDevice(fd, iface); err != nil {
		return fmt.Errorf("bind to device %q: %w", iface, err)
	}
	return nil
}

// Listen marks fd as passive.
func Listen(fd, backlog int) error {
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Accept takes one pending connection off a listening descriptor.
func Accept(fd int) (int, api.Addr, error) {
	nfd, sa, err := unix.Accept4(fd, unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, api.Addr{}, fmt.Errorf("accept: %w", err)
	}
	return nfd, fromSockaddr(sa, api.ProtoTCP), nil
}

// Connect connects fd to addr.
func Connect(fd int, addr api.Addr) error {
	sa, _, err := toSockaddr(addr)
	if err != nil {
		return err
	}
	if err := unix.Connect(fd, sa); err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	return nil
}

// Read reads once from fd.
func Read(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.Read(fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("read: %w", err)
		}
		return n, nil
	}
}

// Write writes all of buf to fd.
func Write(fd int, buf []byte) (int, error) {
	written := 0
	for written < len(buf) {
		n, err := unix.Write(fd, buf[written:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return written, fmt.Errorf("write: %w", err)
		}
		written += n
	}
	return written, nil
}

// SendTo sends one datagram to addr.
func SendTo(fd int, addr api.Addr, buf []byte) (int, error) {
	sa, _, err := toSockaddr(addr)
	if err != nil {
		return 0, err
	}
	if err := unix.Sendto(fd, buf, 0, sa); err != nil {
		return 0, fmt.Errorf("sendto %s: %w", addr, err)
	}
	return len(buf), nil
}

// RecvFrom receives one datagram and reports its sender.
func RecvFrom(fd int, buf []byte) (int, api.Addr, error) {
	for {
		n, sa, err := unix.Recvfrom(fd, buf, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, api.Addr{}, fmt.Errorf("recvfrom: %w", err)
		}
		return n, fromSockaddr(sa, api.ProtoUDP), nil
	}
}

// LocalAddr reports the bound address of fd.
func LocalAddr(fd int, proto api.Proto) (api.Addr, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return api.Addr{}, fmt.Errorf("getsockname: %w", err)
	}
	return fromSockaddr(sa, proto), nil
}

// Close closes fd.
func Close(fd int) error {
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func toSockaddr(addr api.Addr) (unix.Sockaddr, int, error) {
	ip, err := addr.IP()
	if err != nil {
		return nil, 0, err
	}
	if ip.Is4() {
		return &unix.SockaddrInet4{Port: int(addr.Port), Addr: ip.As4()}, unix.AF_INET, nil
	}
	return &unix.SockaddrInet6{Port: int(addr.Port), Addr: ip.As16()}, unix.AF_INET6, nil
}

func fromSockaddr(sa unix.Sockaddr, proto api.Proto) api.Addr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return api.Addr{Host: netip.AddrFrom4(sa.Addr).String(), Proto: proto, Port: uint16(sa.Port)}
	case *unix.SockaddrInet6:
		return api.Addr{Host: netip.AddrFrom16(sa.Addr).Unmap().String(), Proto: proto, Port: uint16(sa.Port)}
	}
	return api.Addr{Proto: proto}
}
