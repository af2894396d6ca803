//go:build unix

// File: bus/conn.go
// Author: momentics <momentics@gmail.com>

package bus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Well-known bus addresses accepted by Connect.
const (
	SessionBus = "session"
	SystemBus  = "system"
)

// busConn is the subset of *dbus.Conn the Adapter uses.
type busConn interface {
	Names() []string
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
	AddMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
	Close() error
}

type dialFunc func(address string) (busConn, error)

// dial opens an authenticated connection that has completed Hello.
func dial(address string) (busConn, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	switch address {
	case SessionBus:
		conn, err = dbus.ConnectSessionBus()
	case SystemBus:
		conn, err = dbus.ConnectSystemBus()
	default:
		conn, err = dbus.Connect(address)
	}
	if err != nil {
		return nil, fmt.Errorf("bus connect %s: %w", address, err)
	}
	return conn, nil
}
