package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPollConfig() PollConfig {
	return PollConfig{MaxExtraAttempts: 5, Interval: time.Millisecond}
}

func TestPollDoneImmediately(t *testing.T) {
	calls := 0
	val, err := Poll(context.Background(), fastPollConfig(), func(context.Context) (string, bool, error) {
		calls++
		return "ok", true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 1, calls)
}

func TestPollCompletesWithinBudget(t *testing.T) {
	calls := 0
	val, err := Poll(context.Background(), fastPollConfig(), func(context.Context) (int, bool, error) {
		calls++
		return calls, calls == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, val)
	assert.Equal(t, 3, calls)
}

func TestPollBudgetExhaustedReturnsLastValue(t *testing.T) {
	calls := 0
	val, err := Poll(context.Background(), fastPollConfig(), func(context.Context) (int, bool, error) {
		calls++
		return calls, false, nil
	})
	require.NoError(t, err)
	// The first call plus five extra attempts, never done.
	assert.Equal(t, 6, calls)
	assert.Equal(t, 6, val)
}

func TestPollErrorStops(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := Poll(context.Background(), fastPollConfig(), func(context.Context) (int, bool, error) {
		calls++
		if calls == 2 {
			return 0, false, boom
		}
		return 0, false, nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestPollContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Poll(ctx, fastPollConfig(), func(context.Context) (int, bool, error) {
		calls++
		cancel()
		return 0, false, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
