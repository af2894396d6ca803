// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics and debug introspection for hioload-reactor.
//
// Provides:
//   - TOML configuration with defaults, validation and application to an Agent
//   - Metrics counters published by the Agent
//   - Debug probes over Agent registration state
package control
