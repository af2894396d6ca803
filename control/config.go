// control/config.go
// Author: momentics <momentics@gmail.com>
//
// TOML configuration for the agent command: listen addresses, timeout
// strategy, logging and the optional bus endpoint.

package control

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/internal/logging"
	"github.com/momentics/hioload-reactor/reactor"
)

// Config is the decoded configuration file.
type Config struct {
	Listen  ListenConfig  `toml:"listen"`
	Timeout TimeoutConfig `toml:"timeout"`
	Log     LogConfig     `toml:"log"`
	Bus     BusConfig     `toml:"bus"`
}

// ListenConfig holds the addresses the agent binds. Empty disables an endpoint.
type ListenConfig struct {
	TCP       string `toml:"tcp"`
	UDP       string `toml:"udp"`
	Interface string `toml:"interface"`
	Backlog   int    `toml:"backlog"`
}

// TimeoutConfig is the file form of reactor.TimeoutConfig.
type TimeoutConfig struct {
	Mode   string   `toml:"mode"`
	Manual Duration `toml:"manual"`
	Lower  Duration `toml:"lower"`
	Upper  Duration `toml:"upper"`
	Lambda float64  `toml:"lambda"`
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// BusConfig names the bus to join. An empty Address disables the adapter.
type BusConfig struct {
	Address string `toml:"address"`
	Name    string `toml:"name"`
}

// Duration decodes "250ms" style strings.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen: ListenConfig{
			TCP: "tcp://0.0.0.0:7000",
		},
		Timeout: TimeoutConfig{
			Mode: reactor.TimeoutNone.String(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads path over the defaults and validates the result.
// Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(string(data))
}

// ParseConfig decodes TOML text over the defaults and validates the result.
func ParseConfig(text string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeConfiguration, "parsing config", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, api.NewError(api.ErrCodeConfiguration, "unknown config keys").
			WithContext("keys", fmt.Sprint(undecoded))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.TCPAddr(); err != nil {
		return err
	}
	if _, err := c.UDPAddr(); err != nil {
		return err
	}
	if c.Listen.Backlog < 0 {
		return api.NewError(api.ErrCodeConfiguration, "negative listen backlog").WithContext("backlog", c.Listen.Backlog)
	}
	if _, err := c.ReactorTimeout(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return api.WrapError(api.ErrCodeConfiguration, "log level", err)
	}
	if c.Bus.Name != "" && c.Bus.Address == "" {
		return api.NewError(api.ErrCodeConfiguration, "bus name set without bus address").WithContext("name", c.Bus.Name)
	}
	return nil
}

// TCPAddr parses [listen].tcp. The zero Addr and no error mean disabled.
func (c *Config) TCPAddr() (api.Addr, error) {
	return parseListen(c.Listen.TCP, api.ProtoTCP)
}

// UDPAddr parses [listen].udp. The zero Addr and no error mean disabled.
func (c *Config) UDPAddr() (api.Addr, error) {
	return parseListen(c.Listen.UDP, api.ProtoUDP)
}

func parseListen(s string, want api.Proto) (api.Addr, error) {
	if s == "" {
		return api.Addr{}, nil
	}
	addr, err := api.ParseAddr(s)
	if err != nil {
		return api.Addr{}, err
	}
	if addr.Proto != want {
		return api.Addr{}, api.NewError(api.ErrCodeConfiguration, "listen address has the wrong protocol").
			WithContext("addr", s).WithContext("want", want.String())
	}
	return addr, nil
}

// ReactorTimeout converts [timeout] into a validated reactor.TimeoutConfig.
func (c *Config) ReactorTimeout() (reactor.TimeoutConfig, error) {
	mode, err := reactor.ParseTimeoutMode(c.Timeout.Mode)
	if err != nil {
		return reactor.TimeoutConfig{}, err
	}
	tc := reactor.TimeoutConfig{
		Mode:         mode,
		Manual:       c.Timeout.Manual.Duration,
		UniformLower: c.Timeout.Lower.Duration,
		UniformUpper: c.Timeout.Upper.Duration,
		Lambda:       c.Timeout.Lambda,
	}
	if err := tc.Validate(); err != nil {
		return reactor.TimeoutConfig{}, err
	}
	return tc, nil
}

// Apply pushes the timeout section into a through its setters. Only the
// parameters of the selected mode are applied.
func (c *Config) Apply(a *reactor.Agent) error {
	tc, err := c.ReactorTimeout()
	if err != nil {
		return err
	}
	switch tc.Mode {
	case reactor.TimeoutManual:
		err = a.SetManualTimeout(tc.Manual)
	case reactor.TimeoutUniform:
		err = a.SetUniformBounds(tc.UniformLower, tc.UniformUpper)
	case reactor.TimeoutExponential:
		err = a.SetExponentialLambda(tc.Lambda)
	}
	if err != nil {
		return err
	}
	return a.SetTimeoutMode(tc.Mode)
}

// LogLevel parses [log].level.
func (c *Config) LogLevel() (logiface.Level, error) {
	return logging.ParseLevel(c.Log.Level)
}
