// internal/platform/resilience/circuit_breaker_test.go
package resilience

import (
	"errors"
	"testing"
	"time"

	"phineas/internal/testutil"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute, 1)

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
		testutil.AssertEqual(t, cb.State(), StateClosed, "still closed below threshold")
	}
	cb.RecordFailure()

	testutil.AssertEqual(t, cb.State(), StateOpen, "open at threshold")
	testutil.AssertErrorIs(t, cb.Allow(), ErrCircuitOpen, "open breaker rejects")
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute, 1)

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	testutil.AssertEqual(t, cb.State(), StateClosed, "failures must be consecutive")
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(1, 10*time.Second, 1)
	cb.now = func() time.Time { return now }

	cb.Record(errors.New("down"))
	testutil.AssertEqual(t, cb.State(), StateOpen, "opened")

	now = now.Add(11 * time.Second)
	testutil.AssertNoError(t, cb.Allow(), "half-open probe allowed")
	testutil.AssertEqual(t, cb.State(), StateHalfOpen, "half-open")
	testutil.AssertErrorIs(t, cb.Allow(), ErrTooManyRequests, "only one probe in flight")

	cb.Record(nil)
	testutil.AssertEqual(t, cb.State(), StateClosed, "closed after successful probe")
	testutil.AssertNoError(t, cb.Allow(), "closed breaker allows")
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(1, time.Second, 2)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	now = now.Add(2 * time.Second)
	testutil.AssertNoError(t, cb.Allow(), "probe allowed")

	cb.RecordFailure()
	testutil.AssertEqual(t, cb.State(), StateOpen, "re-opened")
	testutil.AssertErrorIs(t, cb.Allow(), ErrCircuitOpen, "rejects right after re-open")
}

func TestCircuitBreaker_ForgetReleasesProbe(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(1, time.Second, 1)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	now = now.Add(2 * time.Second)
	testutil.AssertNoError(t, cb.Allow(), "probe allowed")
	cb.Forget()

	testutil.AssertEqual(t, cb.State(), StateHalfOpen, "still half-open")
	testutil.AssertNoError(t, cb.Allow(), "slot released for a new probe")
}

func TestCircuitBreaker_Stats(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(2, time.Minute, 1)
	cb.now = func() time.Time { return now }

	cb.Record(nil)
	cb.RecordFailure()
	stats := cb.Stats()
	testutil.AssertEqual(t, stats.State, StateClosed, "below threshold")
	testutil.AssertEqual(t, stats.FailureCount, 1, "failure counted")
	testutil.AssertTrue(t, stats.OpenedAt.IsZero(), "never opened")

	cb.RecordFailure()
	stats = cb.Stats()
	testutil.AssertEqual(t, stats.State, StateOpen, "open")
	testutil.AssertTrue(t, stats.OpenedAt.Equal(now), "opened at recorded")
	testutil.AssertTrue(t, stats.LastSuccessTime.Equal(now), "last success recorded")
	testutil.AssertEqual(t, StateHalfOpen.String(), "half-open", "state string")
}
