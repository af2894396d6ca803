// File: cmd/hioload-agent/server.go
// Author: momentics <momentics@gmail.com>
//
// Echo endpoints wired into one Agent.

package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/bus"
	"github.com/momentics/hioload-reactor/control"
	"github.com/momentics/hioload-reactor/pool"
	"github.com/momentics/hioload-reactor/reactor"
	"github.com/momentics/hioload-reactor/transport/tcp"
	"github.com/momentics/hioload-reactor/transport/udp"
)

const (
	defaultBusName = "org.hioload.Agent"
	echoSignal     = "Echo"
	echoedSignal   = "Echoed"
)

type server struct {
	agent   *reactor.Agent
	logger  *logiface.Logger[logiface.Event]
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes
	stats   bool

	listener *tcp.Listener
	conns    map[int]*tcp.Connection
	buffers  *pool.BytePool
	dgram    *udp.Socket
	dgramBuf []byte
	bus      *bus.Adapter
	busIface string
	busPath  string

	stopR, stopW *os.File
	closers      []api.Closer
}

func newServer(cfg *control.Config, logger *logiface.Logger[logiface.Event], useEpoll, stats bool) (_ *server, err error) {
	s := &server{
		logger:  logger,
		metrics: control.NewMetricsRegistry(),
		probes:  control.NewDebugProbes(),
		stats:   stats,
		conns:   make(map[int]*tcp.Connection),
		buffers: pool.NewBytePool(tcp.DefaultBufferSize),
	}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	opts := []reactor.Option{
		reactor.WithLogger(logger),
		reactor.WithMetrics(s.metrics),
		reactor.WithHooks(reactor.Hooks{
			OnStart:   s.onStart,
			OnTimeout: s.onTimeout,
		}),
	}
	if useEpoll {
		p, err := reactor.NewEpollPoller()
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, p)
		opts = append(opts, reactor.WithPoller(p))
	}
	if s.agent, err = reactor.New(opts...); err != nil {
		return nil, err
	}
	if err = cfg.Apply(s.agent); err != nil {
		return nil, err
	}
	control.RegisterAgentProbes(s.probes, s.agent)
	control.RegisterPlatformProbes(s.probes)

	if err = s.openTCP(cfg); err != nil {
		return nil, err
	}
	if err = s.openUDP(cfg); err != nil {
		return nil, err
	}
	if err = s.openBus(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *server) openTCP(cfg *control.Config) error {
	addr, err := cfg.TCPAddr()
	if err != nil || cfg.Listen.TCP == "" {
		return err
	}
	ln, err := tcp.Listen(addr, s.accept,
		tcp.WithBacklog(cfg.Listen.Backlog), tcp.WithDevice(cfg.Listen.Interface))
	if err != nil {
		return err
	}
	s.listener = ln
	s.closers = append(s.closers, ln)
	s.logger.Info().Stringer("addr", ln.Addr()).Log("tcp listening")
	return s.agent.AddInterface(ln)
}

func (s *server) accept(l *tcp.Listener) error {
	fd, remote, err := l.Accept()
	if err != nil {
		return err
	}
	conn, err := tcp.NewConnection(fd, remote, s.echoStream,
		tcp.WithBufferPool(s.buffers), tcp.WithCloseHandler(s.dropStream))
	if err != nil {
		return err
	}
	if err := s.agent.AddInterface(conn); err != nil {
		_ = conn.Close()
		return err
	}
	s.conns[fd] = conn
	s.logger.Info().Int("fd", fd).Stringer("remote", remote).Log("connection accepted")
	return nil
}

func (s *server) echoStream(c *tcp.Connection, data []byte) error {
	_, err := c.Write(data)
	return err
}

func (s *server) dropStream(c *tcp.Connection) {
	fd := c.FD()
	s.agent.RemoveInterface(fd)
	delete(s.conns, fd)
	if err := c.Close(); err != nil {
		s.logger.Warning().Err(err).Int("fd", fd).Log("connection close failed")
	}
	s.logger.Info().Int("fd", fd).Stringer("remote", c.RemoteAddr()).Log("connection closed")
}

func (s *server) openUDP(cfg *control.Config) error {
	addr, err := cfg.UDPAddr()
	if err != nil || cfg.Listen.UDP == "" {
		return err
	}
	sock, err := udp.Open(addr, cfg.Listen.Interface, s.echoDatagram)
	if err != nil {
		return err
	}
	s.dgram = sock
	s.dgramBuf = make([]byte, udp.MaxDatagram)
	s.closers = append(s.closers, sock)
	s.logger.Info().Stringer("addr", sock.LocalAddr()).Log("udp bound")
	return s.agent.AddInterface(sock)
}

func (s *server) echoDatagram(sock *udp.Socket) error {
	n, from, err := sock.Receive(s.dgramBuf)
	if err != nil {
		return err
	}
	_, err = sock.Send(from, s.dgramBuf[:n])
	return err
}

func (s *server) openBus(cfg *control.Config) error {
	if cfg.Bus.Address == "" {
		return nil
	}
	s.busIface = cfg.Bus.Name
	if s.busIface == "" {
		s.busIface = defaultBusName
	}
	s.busPath = "/" + strings.ReplaceAll(s.busIface, ".", "/")

	adapter, err := bus.NewAdapter(s.echoSignal, bus.WithLogger(s.logger))
	if err != nil {
		return err
	}
	s.bus = adapter
	s.closers = append(s.closers, adapter)
	if err := adapter.Connect(cfg.Bus.Address, cfg.Bus.Name); err != nil {
		return err
	}
	if err := adapter.Subscribe(s.busIface); err != nil {
		return err
	}
	return s.agent.AddInterface(adapter)
}

// echoSignal answers every Echo signal with an Echoed signal carrying the same body.
func (s *server) echoSignal(a *bus.Adapter, sig bus.Signal) error {
	if sig.Interface != s.busIface || sig.Name != echoSignal {
		return nil
	}
	s.logger.Info().Str("sender", sig.Sender).Str("path", sig.Path).Log("bus echo")
	return a.SendSignal(bus.Signal{Path: s.busPath, Interface: s.busIface, Name: echoedSignal, Body: sig.Body})
}

// watch registers a pipe that becomes readable once ctx is done, so an
// indefinite wait still observes the stop.
func (s *server) watch(ctx context.Context) error {
	r, w, err := os.Pipe()
	if err != nil {
		return err
	}
	s.stopR, s.stopW = r, w
	if err := s.agent.AddInterface(&stopSource{fd: int(r.Fd())}); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_, _ = w.Write([]byte{0})
	}()
	return nil
}

func (s *server) run(ctx context.Context) error {
	err := s.agent.Run(ctx)
	s.logger.Info().Int64("iterations", s.metrics.Counter("agent.iterations")).
		Int64("dispatched", s.metrics.Counter("agent.dispatched")).Log("agent stopped")
	return err
}

func (s *server) onStart(ts time.Time) {
	s.logger.Info().Int("interfaces", s.agent.Len()).Stringer("timeout_mode", s.agent.TimeoutMode()).Log("agent running")
}

func (s *server) onTimeout(_ time.Time, scheduled time.Duration) {
	if !s.stats {
		return
	}
	s.logger.Info().Dur("scheduled", scheduled).
		Any("metrics", s.metrics.GetSnapshot()).
		Any("probes", s.probes.DumpState()).
		Log("idle")
}

func (s *server) close() {
	for fd, c := range s.conns {
		if s.agent != nil {
			s.agent.RemoveInterface(fd)
		}
		_ = c.Close()
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	if s.stopR != nil {
		errs = append(errs, s.stopR.Close(), s.stopW.Close())
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Warning().Err(err).Log("shutdown")
	}
}

// stopSource is the read end of the shutdown pipe. Readiness alone ends
// the loop because ctx is already done when the byte arrives.
type stopSource struct {
	fd int
}

func (p *stopSource) FD() int                    { return p.fd }
func (p *stopSource) RegisterInto(set api.FDSet) { set.Add(p.fd) }
func (p *stopSource) HandleRead(time.Time) error { return nil }
