// File: cmd/hioload-agent/serve.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/momentics/hioload-reactor/affinity"
	"github.com/momentics/hioload-reactor/control"
	"github.com/momentics/hioload-reactor/internal/logging"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	tcp, udp, iface  string
	mode             string
	manual           time.Duration
	lower, upper     time.Duration
	lambda           float64
	busAddr, busName string
	lockFile         string
	cpu              int
	epoll, stats     bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the echo agent until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.tcp, "tcp", "", "TCP listen address, e.g. tcp://0.0.0.0:7000")
	f.StringVar(&serveFlags.udp, "udp", "", "UDP bind address, e.g. udp://0.0.0.0:7001")
	f.StringVar(&serveFlags.iface, "iface", "", "bind sockets to this network interface")
	f.StringVar(&serveFlags.mode, "timeout-mode", "", "none, manual, uniform or exponential")
	f.DurationVar(&serveFlags.manual, "manual", 0, "manual timeout")
	f.DurationVar(&serveFlags.lower, "lower", 0, "uniform timeout lower bound")
	f.DurationVar(&serveFlags.upper, "upper", 0, "uniform timeout upper bound")
	f.Float64Var(&serveFlags.lambda, "lambda", 0, "exponential timeout rate per second")
	f.StringVar(&serveFlags.busAddr, "bus", "", "D-Bus to join: session, system or an address")
	f.StringVar(&serveFlags.busName, "bus-name", "", "well-known bus name to request")
	f.StringVar(&serveFlags.lockFile, "lock-file", "", "refuse to start while another agent holds this file")
	f.IntVar(&serveFlags.cpu, "cpu", -1, "pin the reactor thread to this CPU")
	f.BoolVar(&serveFlags.epoll, "epoll", false, "wait with epoll instead of poll")
	f.BoolVar(&serveFlags.stats, "stats", false, "log metrics and probes on every timeout")
}

// applyServeFlags overrides file values with explicitly set flags.
func applyServeFlags(cmd *cobra.Command, cfg *control.Config) error {
	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}
	set("tcp", func() { cfg.Listen.TCP = serveFlags.tcp })
	set("udp", func() { cfg.Listen.UDP = serveFlags.udp })
	set("iface", func() { cfg.Listen.Interface = serveFlags.iface })
	set("timeout-mode", func() { cfg.Timeout.Mode = serveFlags.mode })
	set("manual", func() { cfg.Timeout.Manual.Duration = serveFlags.manual })
	set("lower", func() { cfg.Timeout.Lower.Duration = serveFlags.lower })
	set("upper", func() { cfg.Timeout.Upper.Duration = serveFlags.upper })
	set("lambda", func() { cfg.Timeout.Lambda = serveFlags.lambda })
	set("bus", func() { cfg.Bus.Address = serveFlags.busAddr })
	set("bus-name", func() { cfg.Bus.Name = serveFlags.busName })
	return cfg.Validate()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, level)

	if serveFlags.lockFile != "" {
		release, err := acquireLock(serveFlags.lockFile)
		if err != nil {
			return err
		}
		defer func() { _ = release() }()
	}

	if serveFlags.cpu >= 0 {
		unpin, err := affinity.Pin(serveFlags.cpu)
		if err != nil {
			return err
		}
		defer func() { _ = unpin() }()
		logger.Info().Int("cpu", serveFlags.cpu).Log("reactor thread pinned")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(cfg, logger, serveFlags.epoll, serveFlags.stats)
	if err != nil {
		return err
	}
	defer srv.close()
	if err := srv.watch(ctx); err != nil {
		return err
	}
	return srv.run(ctx)
}
