package reactor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutMillis(t *testing.T) {
	assert.Equal(t, -1, timeoutMillis(-1))
	assert.Equal(t, 0, timeoutMillis(0))
	assert.Equal(t, 1, timeoutMillis(150*time.Microsecond))
	assert.Equal(t, 2, timeoutMillis(2*time.Millisecond))
	assert.Equal(t, 3, timeoutMillis(2*time.Millisecond+1))
	assert.Equal(t, math.MaxInt32, timeoutMillis(time.Duration(math.MaxInt64)))
}
