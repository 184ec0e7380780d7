package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultPerSecond = 1
	DefaultPerMonth  = 2000

	window = time.Second
)

// ErrRateLimitExceeded is matched by every rejection returned from Check
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// Budget names the counter that rejected a call
type Budget string

const (
	BudgetSecond Budget = "second"
	BudgetMonth  Budget = "month"
)

// ExceededError reports which budget was exhausted
type ExceededError struct {
	Budget Budget
	Limit  int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %s", e.Limit, e.Budget)
}

// Is makes errors.Is(err, ErrRateLimitExceeded) hold
func (e *ExceededError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// State is a snapshot of the limiter counters
type State struct {
	SecondCount int
	MonthCount  int
	WindowStart time.Time
}

// Limiter gates provider calls with a one-second fixed window and a monthly
// budget. The monthly counter never resets: it is a ceiling for the lifetime
// of the process, not a calendar month.
type Limiter struct {
	mu          sync.Mutex
	perSecond   int
	perMonth    int
	secondCount int
	monthCount  int
	windowStart time.Time
	now         func() time.Time
	onReject    func(*ExceededError)
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithRejectHook registers fn to be called after every rejection. fn runs
// outside the limiter lock.
func WithRejectHook(fn func(*ExceededError)) Option {
	return func(l *Limiter) {
		l.onReject = fn
	}
}

// New creates a limiter; non-positive budgets fall back to the defaults
func New(perSecond, perMonth int, opts ...Option) *Limiter {
	if perSecond <= 0 {
		perSecond = DefaultPerSecond
	}
	if perMonth <= 0 {
		perMonth = DefaultPerMonth
	}

	l := &Limiter{
		perSecond: perSecond,
		perMonth:  perMonth,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.windowStart = l.now()
	return l
}

// Check admits one call or returns an *ExceededError. Admitted calls are
// counted against both budgets.
func (l *Limiter) Check() error {
	err := l.check()
	if err == nil {
		// a nil *ExceededError must not become a non-nil error
		return nil
	}
	if l.onReject != nil {
		l.onReject(err)
	}
	return err
}

func (l *Limiter) check() *ExceededError {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.windowStart) > window {
		l.secondCount = 0
		l.windowStart = now
	}

	if l.secondCount >= l.perSecond {
		return &ExceededError{Budget: BudgetSecond, Limit: l.perSecond}
	}
	if l.monthCount >= l.perMonth {
		return &ExceededError{Budget: BudgetMonth, Limit: l.perMonth}
	}

	l.secondCount++
	l.monthCount++
	return nil
}

// State returns the current counters
func (l *Limiter) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{
		SecondCount: l.secondCount,
		MonthCount:  l.monthCount,
		WindowStart: l.windowStart,
	}
}

// Limits returns the configured per-second and per-month budgets
func (l *Limiter) Limits() (perSecond, perMonth int) {
	return l.perSecond, l.perMonth
}
