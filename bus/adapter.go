//go:build unix

// File: bus/adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package bus

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/godbus/dbus/v5"
	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-reactor/api"
	"golang.org/x/sys/unix"
)

// Signal is one bus signal, inbound or outbound.
type Signal struct {
	Sender    string
	Path      string
	Interface string
	Name      string
	Body      []any
}

// Member returns the fully qualified signal name, "Interface.Name".
func (s Signal) Member() string {
	return s.Interface + "." + s.Name
}

// Handler receives inbound signals on the reactor goroutine.
type Handler func(a *Adapter, sig Signal) error

// Option customizes NewAdapter.
type Option func(*Adapter)

// WithLogger attaches a structured logger.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// WithSignalBuffer sets the capacity of the channel the bus client delivers into.
func WithSignalBuffer(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.bufSize = n
		}
	}
}

func withDialer(d dialFunc) Option {
	return func(a *Adapter) {
		a.dial = d
	}
}

// ErrNameTaken is the cause returned by Connect when the requested name is
// held by another connection.
var (
	ErrNameTaken = api.NewError(api.ErrCodeDuplicateRegistration, "bus name is owned by another connection")
	errConnected = api.NewError(api.ErrCodeLogic, "adapter is already connected")
)

// Adapter is the bus variant of api.IOInterface.
type Adapter struct {
	rfd, wfd int
	handler  Handler
	logger   *logiface.Logger[logiface.Event]
	dial     dialFunc
	bufSize  int

	conn    busConn
	signals chan *dbus.Signal
	done    chan struct{}
	bridge  sync.WaitGroup

	mu      sync.Mutex
	pending *queue.Queue
	woken   bool
}

// NewAdapter creates a disconnected adapter and its wake pipe.
func NewAdapter(handler Handler, opts ...Option) (*Adapter, error) {
	rfd, wfd, err := newWakePipe()
	if err != nil {
		return nil, api.WrapError(api.ErrCodeInternal, "wake pipe", err)
	}
	a := &Adapter{
		rfd:     rfd,
		wfd:     wfd,
		handler: handler,
		dial:    dial,
		bufSize: 64,
		pending: queue.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// FD returns the read end of the wake pipe, -1 once closed.
func (a *Adapter) FD() int {
	return a.rfd
}

// RegisterInto adds the wake descriptor to set.
func (a *Adapter) RegisterInto(set api.FDSet) {
	if a.rfd >= 0 {
		set.Add(a.rfd)
	}
}

// Connect dials busAddr ("session", "system" or a D-Bus address) and, when
// requestedName is not empty, claims that well-known name.
func (a *Adapter) Connect(busAddr, requestedName string) error {
	if a.rfd < 0 {
		return api.ErrClosed
	}
	if a.conn != nil {
		return errConnected
	}
	conn, err := a.dial(busAddr)
	if err != nil {
		return err
	}
	if requestedName != "" {
		reply, err := conn.RequestName(requestedName, dbus.NameFlagDoNotQueue)
		if err != nil {
			_ = conn.Close()
			return api.WrapError(api.ErrCodeFatalIO, "request bus name", err).WithContext("name", requestedName)
		}
		if reply != dbus.RequestNameReplyPrimaryOwner && reply != dbus.RequestNameReplyAlreadyOwner {
			_ = conn.Close()
			return api.WrapError(api.ErrCodeDuplicateRegistration, "request bus name", ErrNameTaken).
				WithContext("name", requestedName).WithContext("reply", uint32(reply))
		}
	}

	a.conn = conn
	a.signals = make(chan *dbus.Signal, a.bufSize)
	a.done = make(chan struct{})
	conn.Signal(a.signals)
	a.bridge.Add(1)
	go a.forward(a.signals, a.done)

	a.logger.Info().Str("bus", busAddr).Str("unique_name", a.UniqueName()).Str("name", requestedName).Log("bus connected")
	return nil
}

// forward moves signals from the bus client into the pending queue.
// It never calls user code.
func (a *Adapter) forward(ch <-chan *dbus.Signal, done <-chan struct{}) {
	defer a.bridge.Done()
	for {
		select {
		case sig, ok := <-ch:
			if !ok {
				return
			}
			a.enqueue(sig)
		case <-done:
			return
		}
	}
}

func (a *Adapter) enqueue(sig *dbus.Signal) {
	a.mu.Lock()
	a.pending.Add(sig)
	wake := !a.woken
	a.woken = true
	a.mu.Unlock()
	if wake {
		// EAGAIN means a wake byte is already buffered.
		_, _ = unix.Write(a.wfd, []byte{1})
	}
}

// HandleRead drains the wake pipe and dispatches every queued signal in
// arrival order. Handler errors are joined; dispatch does not stop early.
func (a *Adapter) HandleRead(time.Time) error {
	if a.rfd < 0 {
		return api.ErrClosed
	}
	var scratch [64]byte
	for {
		n, err := unix.Read(a.rfd, scratch[:])
		if n <= 0 || err != nil {
			break
		}
	}

	a.mu.Lock()
	batch := make([]*dbus.Signal, 0, a.pending.Length())
	for a.pending.Length() > 0 {
		batch = append(batch, a.pending.Remove().(*dbus.Signal))
	}
	a.woken = false
	a.mu.Unlock()

	var errs []error
	for _, raw := range batch {
		sig := fromDBus(raw)
		a.logger.Debug().Str("sender", sig.Sender).Str("signal", sig.Member()).Log("bus signal")
		if a.handler == nil {
			continue
		}
		if err := a.handler(a, sig); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func fromDBus(raw *dbus.Signal) Signal {
	sig := Signal{Sender: raw.Sender, Path: string(raw.Path), Name: raw.Name, Body: raw.Body}
	if i := strings.LastIndexByte(raw.Name, '.'); i >= 0 {
		sig.Interface, sig.Name = raw.Name[:i], raw.Name[i+1:]
	}
	return sig
}

// Pending returns the number of signals waiting for HandleRead.
func (a *Adapter) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending.Length()
}

// SendSignal emits sig from this connection.
func (a *Adapter) SendSignal(sig Signal) error {
	if a.conn == nil {
		return api.ErrNotConnected
	}
	path := dbus.ObjectPath(sig.Path)
	if !path.IsValid() {
		return api.NewError(api.ErrCodeInvalidArgument, "invalid object path").WithContext("path", sig.Path)
	}
	if sig.Interface == "" || sig.Name == "" {
		return api.NewError(api.ErrCodeInvalidArgument, "signal needs an interface and a name").
			WithContext("interface", sig.Interface).WithContext("name", sig.Name)
	}
	if err := a.conn.Emit(path, sig.Member(), sig.Body...); err != nil {
		return api.WrapError(api.ErrCodeFatalIO, "emit signal", err).WithContext("signal", sig.Member())
	}
	return nil
}

// Subscribe asks the bus to route signals of iface to this connection.
func (a *Adapter) Subscribe(iface string) error {
	if a.conn == nil {
		return api.ErrNotConnected
	}
	if err := a.conn.AddMatchSignal(dbus.WithMatchInterface(iface)); err != nil {
		return api.WrapError(api.ErrCodeFatalIO, "add match rule", err).WithContext("interface", iface)
	}
	return nil
}

// UniqueName returns the bus-assigned name, empty while disconnected.
func (a *Adapter) UniqueName() string {
	if a.conn == nil {
		return ""
	}
	names := a.conn.Names()
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// Connected reports whether Connect succeeded and Disconnect has not run.
func (a *Adapter) Connected() bool {
	return a.conn != nil
}

// Disconnect stops signal delivery and closes the bus connection. Signals
// already queued are still dispatched by the next HandleRead.
func (a *Adapter) Disconnect() error {
	if a.conn == nil {
		return api.ErrNotConnected
	}
	conn := a.conn
	a.conn = nil
	conn.RemoveSignal(a.signals)
	close(a.done)
	a.bridge.Wait()
	a.signals, a.done = nil, nil
	a.logger.Info().Log("bus disconnected")
	return conn.Close()
}

// Close disconnects if needed and releases the wake pipe. Deregister the
// adapter from the Agent first.
func (a *Adapter) Close() error {
	if a.rfd < 0 {
		return nil
	}
	var errs []error
	if a.conn != nil {
		errs = append(errs, a.Disconnect())
	}
	errs = append(errs, unix.Close(a.rfd), unix.Close(a.wfd))
	a.rfd, a.wfd = -1, -1
	return errors.Join(errs...)
}
