package ratelimit

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestCheck_PerSecondBudget(t *testing.T) {
	clock := newFakeClock()
	limiter := New(3, 100, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Check(), "call %d should be admitted", i+1)
	}

	err := limiter.Check()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimitExceeded))

	var exceeded *ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, BudgetSecond, exceeded.Budget)
	assert.Equal(t, 3, exceeded.Limit)
}

func TestCheck_WindowResetKeepsMonthlyCount(t *testing.T) {
	clock := newFakeClock()
	limiter := New(1, 100, WithClock(clock.Now))

	require.NoError(t, limiter.Check())
	require.ErrorIs(t, limiter.Check(), ErrRateLimitExceeded)

	// Exactly one second is still inside the window
	clock.Advance(time.Second)
	require.ErrorIs(t, limiter.Check(), ErrRateLimitExceeded)

	clock.Advance(time.Millisecond)
	require.NoError(t, limiter.Check())

	state := limiter.State()
	assert.Equal(t, 1, state.SecondCount)
	assert.Equal(t, 2, state.MonthCount, "monthly counter is never reset")
	assert.Equal(t, clock.Now(), state.WindowStart)
}

func TestCheck_MonthlyCeiling(t *testing.T) {
	clock := newFakeClock()
	limiter := New(10, 2, WithClock(clock.Now))

	require.NoError(t, limiter.Check())
	require.NoError(t, limiter.Check())

	clock.Advance(45 * 24 * time.Hour)

	err := limiter.Check()
	var exceeded *ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, BudgetMonth, exceeded.Budget)
}

func TestCheck_RejectedCallsAreNotCounted(t *testing.T) {
	clock := newFakeClock()
	limiter := New(1, 5, WithClock(clock.Now))

	require.NoError(t, limiter.Check())
	for i := 0; i < 4; i++ {
		require.Error(t, limiter.Check())
	}

	assert.Equal(t, 1, limiter.State().MonthCount)
}

func TestNew_Defaults(t *testing.T) {
	limiter := New(0, -1)
	perSecond, perMonth := limiter.Limits()
	assert.Equal(t, DefaultPerSecond, perSecond)
	assert.Equal(t, DefaultPerMonth, perMonth)
}

func TestCheck_ConcurrentCallers(t *testing.T) {
	clock := newFakeClock()
	limiter := New(5, 1000, WithClock(clock.Now))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Check() == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, admitted)
}

func TestCheck_RejectHook(t *testing.T) {
	clock := newFakeClock()
	var rejected []*ExceededError
	limiter := New(1, 100, WithClock(clock.Now), WithRejectHook(func(err *ExceededError) {
		rejected = append(rejected, err)
	}))

	require.NoError(t, limiter.Check())
	assert.Empty(t, rejected)

	require.Error(t, limiter.Check())
	require.Len(t, rejected, 1)
	assert.Equal(t, BudgetSecond, rejected[0].Budget)
}
