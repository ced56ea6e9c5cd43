package httpx

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiterFixedWindow(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	rl := newMemoryRateLimiter(func() time.Time { return now })
	defer rl.Close()

	for i := 1; i <= 2; i++ {
		d := rl.Allow("user:JDOE", 2, time.Minute)
		require.True(t, d.allowed)
		assert.Equal(t, i, d.count)
	}
	denied := rl.Allow("user:JDOE", 2, time.Minute)
	assert.False(t, denied.allowed)
	assert.Equal(t, 0, denied.remaining(2))
	assert.Equal(t, now.Add(time.Minute), denied.resetAt)

	assert.True(t, rl.Allow("user:OTHER", 2, time.Minute).allowed)

	now = now.Add(time.Minute)
	fresh := rl.Allow("user:JDOE", 2, time.Minute)
	assert.True(t, fresh.allowed)
	assert.Equal(t, 1, fresh.remaining(2))
}

func TestMemoryRateLimiterExpiresWindows(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	rl := newMemoryRateLimiter(func() time.Time { return now })
	defer rl.Close()

	rl.Allow("ip:10.0.0.1", 5, time.Second)
	now = now.Add(2 * time.Second)
	rl.expire()
	assert.Empty(t, rl.windows)
}

func TestUnlimitedAlwaysAllows(t *testing.T) {
	rl := newMemoryRateLimiter(time.Now)
	defer rl.Close()
	assert.True(t, rl.Allow("ip:x", 0, time.Minute).allowed)
}

func TestKeyKind(t *testing.T) {
	assert.Equal(t, "user", keyKind("user:JDOE"))
	assert.Equal(t, "ip", keyKind("ip:127.0.0.1"))
	assert.Equal(t, "other", keyKind("garbage"))
}

func TestRouterMetricsShareRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := newRouterMetrics(reg)
	second := newRouterMetrics(reg)

	first.spaceWrite("POST", "owner")
	second.spaceWrite("POST", "owner")
	assert.Equal(t, 2.0, testutil.ToFloat64(first.spaceWrites.WithLabelValues("POST", "owner")))

	done := first.streamOpened("sse")
	assert.Equal(t, 1.0, testutil.ToFloat64(first.streams.WithLabelValues("sse")))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(first.streams.WithLabelValues("sse")))

	var none *routerMetrics
	none.observeRequest("GET", "/healthz", 200, time.Millisecond)
	none.streamOpened("websocket")()
}
