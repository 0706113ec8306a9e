package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestUntilAlwaysTrueReturnsImmediately(t *testing.T) {
	var calls atomic.Int32
	start := time.Now()

	res, err := Until(context.Background(), func(context.Context) (bool, error) {
		calls.Add(1)
		return true, nil
	}, time.Second, 5*time.Second)

	require.NoError(t, err)
	assert.Equal(t, Satisfied, res)
	assert.Equal(t, int32(1), calls.Load())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestUntilAlwaysFalseTimesOutWithinBound(t *testing.T) {
	interval := 20 * time.Millisecond
	timeout := 100 * time.Millisecond
	start := time.Now()

	res, err := Until(context.Background(), func(context.Context) (bool, error) {
		return false, nil
	}, interval, timeout)

	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.Equal(t, TimedOut, res)
	assert.GreaterOrEqual(t, elapsed, timeout)
	// generous slack for scheduler jitter on loaded CI hosts
	assert.Less(t, elapsed, timeout+interval+150*time.Millisecond)
}

func TestUntilBecomesTrue(t *testing.T) {
	var calls atomic.Int32
	res, err := Until(context.Background(), func(context.Context) (bool, error) {
		return calls.Add(1) >= 3, nil
	}, 5*time.Millisecond, time.Second)

	require.NoError(t, err)
	assert.Equal(t, Satisfied, res)
	assert.Equal(t, int32(3), calls.Load())
}

func TestUntilConditionError(t *testing.T) {
	boom := errors.New("snapshot failed")
	_, err := Until(context.Background(), func(context.Context) (bool, error) {
		return false, boom
	}, 5*time.Millisecond, time.Second)

	assert.ErrorIs(t, err, boom)
}

func TestUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	res, err := Until(ctx, func(context.Context) (bool, error) {
		return false, nil
	}, 5*time.Millisecond, time.Minute)

	assert.Equal(t, TimedOut, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), 0))
	require.NoError(t, Sleep(context.Background(), 5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Minute), context.Canceled)
}
