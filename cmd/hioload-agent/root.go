// File: cmd/hioload-agent/root.go
// Author: momentics <momentics@gmail.com>

package main

import (
	"fmt"
	"os"

	"github.com/momentics/hioload-reactor/control"
	"github.com/momentics/hioload-reactor/internal/logging"
	"github.com/spf13/cobra"
)

// Version is overridden at link time.
var Version = "dev"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:     "hioload-agent",
	Short:   "Readiness-driven echo agent",
	Version: Version,
	Long: `hioload-agent multiplexes TCP, UDP and D-Bus endpoints on one reactor
goroutine. Every endpoint echoes what it receives.`,
	SilenceUsage: true,
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the configuration and print the effective values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		tc, err := cfg.ReactorTimeout()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "listen.tcp      %s\n", orDisabled(cfg.Listen.TCP))
		fmt.Fprintf(out, "listen.udp      %s\n", orDisabled(cfg.Listen.UDP))
		fmt.Fprintf(out, "timeout.mode    %s\n", tc.Mode)
		fmt.Fprintf(out, "log.level       %s\n", cfg.Log.Level)
		fmt.Fprintf(out, "bus.address     %s\n", orDisabled(cfg.Bus.Address))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warning, err)")
	rootCmd.AddCommand(serveCmd, checkConfigCmd)
}

// execute runs the root command and returns an exit code.
func execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// loadConfig reads --config (or the defaults) and applies persistent flags.
func loadConfig(cmd *cobra.Command) (*control.Config, error) {
	cfg := control.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = control.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("log-level") {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return nil, err
		}
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func orDisabled(s string) string {
	if s == "" {
		return "(disabled)"
	}
	return s
}
