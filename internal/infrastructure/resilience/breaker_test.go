package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTime struct {
	now time.Time
}

func (f *fakeTime) Now() time.Time { return f.now }

func (f *fakeTime) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestBreaker(clock *fakeTime, trips uint32, maxRequests uint32) *Breaker {
	return New("test", Settings{
		MaxRequests: maxRequests,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= trips
		},
		Now: clock.Now,
	})
}

var errFailed = errors.New("failed")

func fail() error { return errFailed }

func succeed() error { return nil }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{"stays closed on successes", []bool{true, true, true}, StateClosed},
		{"opens after consecutive failures", []bool{false, false, false}, StateOpen},
		{"success resets the failure streak", []bool{false, false, true, false, false}, StateClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := newTestBreaker(&fakeTime{now: time.Unix(0, 0)}, 3, 1)

			for _, success := range tt.requests {
				if success {
					_ = breaker.Execute(succeed)
				} else {
					_ = breaker.Execute(fail)
				}
			}

			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	breaker := newTestBreaker(&fakeTime{now: time.Unix(0, 0)}, 5, 1)

	require.NoError(t, breaker.Execute(succeed))
	counts := breaker.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.ConsecutiveSuccesses)

	assert.ErrorIs(t, breaker.Execute(fail), errFailed)
	counts = breaker.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerIntervalClearsCounts(t *testing.T) {
	clock := &fakeTime{now: time.Unix(0, 0)}
	breaker := newTestBreaker(clock, 3, 1)

	_ = breaker.Execute(fail)
	_ = breaker.Execute(fail)
	clock.Advance(2 * time.Minute)
	_ = breaker.Execute(fail)

	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, uint32(1), breaker.Counts().ConsecutiveFailures)
}

func TestBreakerOpenFailsFast(t *testing.T) {
	breaker := newTestBreaker(&fakeTime{now: time.Unix(0, 0)}, 2, 1)
	_ = breaker.Execute(fail)
	_ = breaker.Execute(fail)

	called := false
	err := breaker.Execute(func() error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	clock := &fakeTime{now: time.Unix(0, 0)}
	breaker := newTestBreaker(clock, 2, 2)
	_ = breaker.Execute(fail)
	_ = breaker.Execute(fail)
	require.Equal(t, StateOpen, breaker.State())

	clock.Advance(11 * time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())

	for i := 0; i < 2; i++ {
		require.NoError(t, breaker.Execute(succeed))
	}
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerHalfOpenLimitsTrials(t *testing.T) {
	clock := &fakeTime{now: time.Unix(0, 0)}
	breaker := newTestBreaker(clock, 1, 1)
	_ = breaker.Execute(fail)
	clock.Advance(11 * time.Second)

	done, err := breaker.Allow()
	require.NoError(t, err)

	_, err = breaker.Allow()
	assert.ErrorIs(t, err, ErrTooManyRequests)

	done(errFailed)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerDiscardsStaleOutcome(t *testing.T) {
	clock := &fakeTime{now: time.Unix(0, 0)}
	breaker := newTestBreaker(clock, 1, 1)

	done, err := breaker.Allow()
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	require.Equal(t, StateClosed, breaker.State())

	done(errFailed)
	done(errFailed)

	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, uint32(0), breaker.Counts().TotalFailures)
}

func TestBreakerIsFailure(t *testing.T) {
	ignored := errors.New("not found")
	breaker := New("test", Settings{
		ReadyToTrip: func(counts Counts) bool { return counts.ConsecutiveFailures >= 1 },
		IsFailure:   func(err error) bool { return err != nil && !errors.Is(err, ignored) },
	})

	assert.ErrorIs(t, breaker.Execute(func() error { return ignored }), ignored)

	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, uint32(1), breaker.Counts().TotalSuccesses)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	breaker := newTestBreaker(&fakeTime{now: time.Unix(0, 0)}, 1, 1)

	assert.Panics(t, func() {
		_ = breaker.Execute(func() error { panic("boom") })
	})
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerCallbacks(t *testing.T) {
	clock := &fakeTime{now: time.Unix(0, 0)}
	var transitions []string
	breaker := New("test", Settings{
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 2
		},
		OnStateChange: func(name string, from State, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
		Now: clock.Now,
	})

	_ = breaker.Execute(fail)
	_ = breaker.Execute(fail)
	clock.Advance(time.Minute)
	require.Equal(t, StateHalfOpen, breaker.State())
	require.NoError(t, breaker.Execute(succeed))

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}
