// File: reactor/timeout.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Timeout strategies bounding each readiness wait.

package reactor

import (
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/momentics/hioload-reactor/api"
)

// TimeoutMode selects how the wait timeout is computed each iteration.
type TimeoutMode int

const (
	// TimeoutNone waits indefinitely.
	TimeoutNone TimeoutMode = iota
	// TimeoutManual uses a fixed duration.
	TimeoutManual
	// TimeoutUniform samples uniformly from [lower, upper].
	TimeoutUniform
	// TimeoutExponential samples an exponential distribution with rate lambda.
	TimeoutExponential
)

// zeroTolerance is the magnitude at or below which a parameter counts as unset.
const (
	zeroTolerance     = 100 * time.Microsecond
	zeroRateTolerance = 0.0001
)

func (m TimeoutMode) String() string {
	switch m {
	case TimeoutNone:
		return "none"
	case TimeoutManual:
		return "manual"
	case TimeoutUniform:
		return "uniform"
	case TimeoutExponential:
		return "exponential"
	default:
		return "unknown"
	}
}

// ParseTimeoutMode maps a mode name to a TimeoutMode.
func ParseTimeoutMode(s string) (TimeoutMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TimeoutNone, nil
	case "manual":
		return TimeoutManual, nil
	case "uniform":
		return TimeoutUniform, nil
	case "exponential", "exp":
		return TimeoutExponential, nil
	}
	return TimeoutNone, api.NewError(api.ErrCodeConfiguration, "unknown timeout mode").WithContext("mode", s)
}

// TimeoutConfig holds the mode and every mode-specific parameter.
// Lambda is the rate of the exponential distribution in events per second.
type TimeoutConfig struct {
	Mode         TimeoutMode
	Manual       time.Duration
	UniformLower time.Duration
	UniformUpper time.Duration
	Lambda       float64
}

// Next computes a fresh timeout for one wait.
func (c TimeoutConfig) Next(r *rand.Rand) (time.Duration, error) {
	switch c.Mode {
	case TimeoutManual:
		if err := checkManual(c.Manual); err != nil {
			return 0, err
		}
		return c.Manual, nil

	case TimeoutUniform:
		if err := checkUniform(c.UniformLower, c.UniformUpper); err != nil {
			return 0, err
		}
		span := float64(c.UniformUpper - c.UniformLower)
		return c.UniformLower + time.Duration(r.Float64()*span), nil

	case TimeoutExponential:
		if err := checkLambda(c.Lambda); err != nil {
			return 0, err
		}
		secs := r.ExpFloat64() / c.Lambda
		return secondsToDuration(secs), nil

	case TimeoutNone:
		return 0, api.NewError(api.ErrCodeLogic, "next timeout requested with timeout mode none")
	}
	return 0, api.NewError(api.ErrCodeConfiguration, "unknown timeout mode").WithContext("mode", int(c.Mode))
}

// Validate checks the parameters the current mode depends on.
func (c TimeoutConfig) Validate() error {
	switch c.Mode {
	case TimeoutNone:
		return nil
	case TimeoutManual:
		return checkManual(c.Manual)
	case TimeoutUniform:
		return checkUniform(c.UniformLower, c.UniformUpper)
	case TimeoutExponential:
		return checkLambda(c.Lambda)
	}
	return api.NewError(api.ErrCodeConfiguration, "unknown timeout mode").WithContext("mode", int(c.Mode))
}

func checkManual(d time.Duration) error {
	if absDuration(d) <= zeroTolerance {
		return api.NewError(api.ErrCodeConfiguration, "manual timeout is zero").WithContext("manual", d)
	}
	if d < 0 {
		return api.NewError(api.ErrCodeConfiguration, "manual timeout is negative").WithContext("manual", d)
	}
	return nil
}

func checkUniform(lower, upper time.Duration) error {
	if absDuration(lower) <= zeroTolerance && absDuration(upper) <= zeroTolerance {
		return api.NewError(api.ErrCodeConfiguration, "uniform bounds are zero").
			WithContext("lower", lower).WithContext("upper", upper)
	}
	if lower < 0 || upper < 0 || lower > upper {
		return api.NewError(api.ErrCodeConfiguration, "uniform bounds out of order").
			WithContext("lower", lower).WithContext("upper", upper)
	}
	return nil
}

func checkLambda(lambda float64) error {
	if math.IsNaN(lambda) || math.Abs(lambda) <= zeroRateTolerance {
		return api.NewError(api.ErrCodeConfiguration, "exponential lambda is zero").WithContext("lambda", lambda)
	}
	if lambda < 0 || math.IsInf(lambda, 0) {
		return api.NewError(api.ErrCodeConfiguration, "exponential lambda out of range").WithContext("lambda", lambda)
	}
	return nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func secondsToDuration(secs float64) time.Duration {
	if secs >= float64(math.MaxInt64)/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs * float64(time.Second))
}
