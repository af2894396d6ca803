//go:build !linux
// +build !linux

// File: internal/transport/transport_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package transport

import "github.com/momentics/hioload-reactor/api"

func Open(api.Addr, SocketType) (int, error)        { return -1, api.ErrNotSupported }
func OpenUnbound(api.Addr, SocketType) (int, error) { return -1, api.ErrNotSupported }
func BindToDevice(int, string) error                { return api.ErrNotSupported }
func Listen(int, int) error                         { return api.ErrNotSupported }
func Accept(int) (int, api.Addr, error)             { return -1, api.Addr{}, api.ErrNotSupported }
func Connect(int, api.Addr) error                   { return api.ErrNotSupported }
func Read(int, []byte) (int, error)                 { return 0, api.ErrNotSupported }
func Write(int, []byte) (int, error)                { return 0, api.ErrNotSupported }
func SendTo(int, api.Addr, []byte) (int, error)     { return 0, api.ErrNotSupported }
func RecvFrom(int, []byte) (int, api.Addr, error)   { return 0, api.Addr{}, api.ErrNotSupported }
func LocalAddr(int, api.Proto) (api.Addr, error)    { return api.Addr{}, api.ErrNotSupported }
func Close(int) error                               { return api.ErrNotSupported }
