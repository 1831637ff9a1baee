package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(clock *time.Time) *SignInLimiter {
	l := NewSignInLimiter(LimitConfig{MaxAttempts: 3, Window: time.Minute, Lockout: 5 * time.Minute, SweepEvery: -1})
	l.now = func() time.Time { return *clock }
	return l
}

func TestSignInLimiter_LocksAfterMaxFailures(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&clock)
	defer l.Stop()

	for i := 0; i < 2; i++ {
		locked, _ := l.RecordFailure("1.2.3.4", "kid@example.com")
		assert.False(t, locked)
	}
	allowed, _ := l.Allow("1.2.3.4", "kid@example.com")
	assert.True(t, allowed)

	locked, retry := l.RecordFailure("1.2.3.4", "KID@example.com ")
	assert.True(t, locked)
	assert.Equal(t, 5*time.Minute, retry)

	allowed, retry = l.Allow("1.2.3.4", "kid@example.com")
	assert.False(t, allowed)
	assert.Equal(t, 5*time.Minute, retry)

	allowed, _ = l.Allow("5.6.7.8", "kid@example.com")
	assert.True(t, allowed, "other IPs are unaffected")

	clock = clock.Add(5*time.Minute + time.Second)
	allowed, _ = l.Allow("1.2.3.4", "kid@example.com")
	assert.True(t, allowed)
}

func TestSignInLimiter_WindowResets(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&clock)
	defer l.Stop()

	l.RecordFailure("ip", "a@b.c")
	l.RecordFailure("ip", "a@b.c")
	clock = clock.Add(2 * time.Minute)

	locked, _ := l.RecordFailure("ip", "a@b.c")
	assert.False(t, locked)
}

func TestSignInLimiter_SuccessClears(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&clock)
	defer l.Stop()

	l.RecordFailure("ip", "a@b.c")
	l.RecordFailure("ip", "a@b.c")
	l.RecordSuccess("ip", "a@b.c")

	locked, _ := l.RecordFailure("ip", "a@b.c")
	assert.False(t, locked)
}

func TestSignInLimiter_Sweep(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&clock)
	defer l.Stop()

	l.RecordFailure("ip", "a@b.c")
	clock = clock.Add(2 * time.Minute)
	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.attempts)
}
