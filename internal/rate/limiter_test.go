package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFirstWaitIsImmediate(t *testing.T) {
	tb := NewTokenBucket(1)
	defer tb.Stop()

	start := time.Now()
	require.NoError(t, tb.Wait(context.Background()))
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestWaitRefills(t *testing.T) {
	tb := NewTokenBucket(50)
	defer tb.Stop()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, tb.Wait(ctx))
	}
}

func TestWaitHonoursCancel(t *testing.T) {
	tb := NewTokenBucket(1)
	defer tb.Stop()
	require.NoError(t, tb.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tb.Wait(ctx), context.Canceled)
}

func TestStopTwice(t *testing.T) {
	tb := NewTokenBucket(0)
	tb.Stop()
	tb.Stop()
}
