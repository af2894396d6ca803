// Package logging
// Author: momentics <momentics@gmail.com>
//
// Structured logger construction shared by the command and the tests.
// Output is one JSON object per line, written by the stumpy backend.
package logging

import (
	"io"
	"strconv"
	"strings"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the generic facade every package accepts.
type Logger = *logiface.Logger[logiface.Event]

// New returns a JSON logger writing to w at the given level.
// A nil writer yields a nil (disabled) logger.
func New(w io.Writer, level logiface.Level) Logger {
	if w == nil {
		return nil
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

// ParseLevel maps a level name to a logiface.Level.
// Both syslog short names ("err", "info") and common aliases are accepted.
func ParseLevel(s string) (logiface.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off", "none":
		return logiface.LevelDisabled, nil
	case "emerg", "emergency":
		return logiface.LevelEmergency, nil
	case "alert":
		return logiface.LevelAlert, nil
	case "crit", "critical":
		return logiface.LevelCritical, nil
	case "err", "error":
		return logiface.LevelError, nil
	case "warning", "warn":
		return logiface.LevelWarning, nil
	case "notice":
		return logiface.LevelNotice, nil
	case "", "info", "informational":
		return logiface.LevelInformational, nil
	case "debug":
		return logiface.LevelDebug, nil
	case "trace":
		return logiface.LevelTrace, nil
	}
	return logiface.LevelDisabled, &UnknownLevelError{Name: s}
}

// UnknownLevelError reports a level name ParseLevel does not recognize.
type UnknownLevelError struct {
	Name string
}

func (e *UnknownLevelError) Error() string {
	return "unknown log level " + strconv.Quote(e.Name)
}
