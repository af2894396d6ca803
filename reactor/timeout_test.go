package reactor_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/reactor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestTimeout_UniformDegenerateInterval(t *testing.T) {
	c := reactor.TimeoutConfig{Mode: reactor.TimeoutUniform, UniformLower: 2 * time.Second, UniformUpper: 2 * time.Second}
	r := testRand()
	for i := 0; i < 100; i++ {
		d, err := c.Next(r)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, d)
	}
}

func TestTimeout_UniformWithinBounds(t *testing.T) {
	c := reactor.TimeoutConfig{Mode: reactor.TimeoutUniform, UniformLower: 10 * time.Millisecond, UniformUpper: 20 * time.Millisecond}
	r := testRand()
	for i := 0; i < 1000; i++ {
		d, err := c.Next(r)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 20*time.Millisecond)
	}
}

func TestTimeout_ExponentialMean(t *testing.T) {
	c := reactor.TimeoutConfig{Mode: reactor.TimeoutExponential, Lambda: 1.0}
	r := testRand()
	const n = 20000
	var sum float64
	for i := 0; i < n; i++ {
		d, err := c.Next(r)
		require.NoError(t, err)
		require.GreaterOrEqual(t, d, time.Duration(0))
		sum += d.Seconds()
	}
	assert.InDelta(t, 1.0, sum/n, 0.05)
}

func TestTimeout_ManualFixed(t *testing.T) {
	c := reactor.TimeoutConfig{Mode: reactor.TimeoutManual, Manual: 250 * time.Millisecond}
	d, err := c.Next(testRand())
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)
}

func TestTimeout_ZeroParametersRejected(t *testing.T) {
	cases := map[string]reactor.TimeoutConfig{
		"manual near zero":   {Mode: reactor.TimeoutManual, Manual: 50 * time.Microsecond},
		"manual unset":       {Mode: reactor.TimeoutManual},
		"manual negative":    {Mode: reactor.TimeoutManual, Manual: -time.Second},
		"uniform both zero":  {Mode: reactor.TimeoutUniform},
		"uniform reversed":   {Mode: reactor.TimeoutUniform, UniformLower: 2 * time.Second, UniformUpper: time.Second},
		"exponential zero":   {Mode: reactor.TimeoutExponential, Lambda: 0.00005},
		"exponential negate": {Mode: reactor.TimeoutExponential, Lambda: -2},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Next(testRand())
			assert.ErrorIs(t, err, api.ErrConfiguration)
			assert.ErrorIs(t, c.Validate(), api.ErrConfiguration)
		})
	}
}

func TestTimeout_UniformOneZeroBoundAllowed(t *testing.T) {
	c := reactor.TimeoutConfig{Mode: reactor.TimeoutUniform, UniformUpper: time.Second}
	d, err := c.Next(testRand())
	require.NoError(t, err)
	assert.LessOrEqual(t, d, time.Second)
}

func TestTimeout_NoneIsLogicError(t *testing.T) {
	_, err := reactor.TimeoutConfig{}.Next(testRand())
	assert.ErrorIs(t, err, api.ErrLogic)
	assert.NoError(t, reactor.TimeoutConfig{}.Validate())
}

func TestParseTimeoutMode(t *testing.T) {
	for in, want := range map[string]reactor.TimeoutMode{
		"":            reactor.TimeoutNone,
		"none":        reactor.TimeoutNone,
		"Manual":      reactor.TimeoutManual,
		"uniform":     reactor.TimeoutUniform,
		"exponential": reactor.TimeoutExponential,
		"exp":         reactor.TimeoutExponential,
	} {
		got, err := reactor.ParseTimeoutMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		if in != "" && in != "exp" {
			assert.Equal(t, want.String(), got.String())
		}
	}
	_, err := reactor.ParseTimeoutMode("gaussian")
	assert.ErrorIs(t, err, api.ErrConfiguration)
}
