package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestPer(t *testing.T) {
	assert.Equal(t, rate.Every(100*time.Millisecond), Per(10, time.Second))
	assert.Equal(t, rate.Every(time.Second), Per(60, time.Minute))
}

func TestMulti_ReportsTightestLimit(t *testing.T) {
	slow := rate.NewLimiter(Per(1, time.Minute), 1)
	fast := rate.NewLimiter(Per(100, time.Second), 1)

	m := Multi(fast, slow)

	assert.Equal(t, slow.Limit(), m.Limit())
}

func TestMulti_WaitHonorsEveryLimiter(t *testing.T) {
	m := Multi(
		rate.NewLimiter(rate.Inf, 1),
		rate.NewLimiter(Per(1000, time.Second), 1),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Wait(ctx))
	}
}

func TestMulti_WaitFailsOnCanceledContext(t *testing.T) {
	m := Multi(rate.NewLimiter(Per(1, time.Hour), 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Burst already spent by no one, but a canceled context must fail
	// without blocking for the next token.
	require.NoError(t, m.Wait(context.Background()))
	assert.Error(t, m.Wait(ctx))
}
