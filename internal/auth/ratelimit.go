package auth

import (
	"strings"
	"sync"
	"time"
)

// SignInLimiter throttles password sign-ins per client IP and email.
// A key is locked once it collects MaxAttempts failures inside Window.
type SignInLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptRecord
	cfg      LimitConfig
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type attemptRecord struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
}

// LimitConfig configures a SignInLimiter. Zero fields take defaults.
type LimitConfig struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
	// SweepEvery controls the background sweep; negative disables it.
	SweepEvery time.Duration
}

func (cfg LimitConfig) withDefaults() LimitConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = 30 * time.Minute
	}
	if cfg.SweepEvery == 0 {
		cfg.SweepEvery = 5 * time.Minute
	}
	return cfg
}

// NewSignInLimiter creates a limiter and starts its sweeper.
func NewSignInLimiter(cfg LimitConfig) *SignInLimiter {
	l := &SignInLimiter{
		attempts: make(map[string]*attemptRecord),
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if l.cfg.SweepEvery > 0 {
		go l.sweepLoop()
	}
	return l
}

// Stop ends the background sweep. Safe to call more than once.
func (l *SignInLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func limiterKey(ip, email string) string {
	return ip + "|" + strings.ToLower(strings.TrimSpace(email))
}

// Allow reports whether a sign-in attempt may proceed and, when it may not,
// how long the caller should wait.
func (l *SignInLimiter) Allow(ip, email string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.attempts[limiterKey(ip, email)]
	if !ok {
		return true, 0
	}
	if now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	return true, 0
}

// RecordFailure counts a failed attempt and reports whether the key is
// now locked.
func (l *SignInLimiter) RecordFailure(ip, email string) (bool, time.Duration) {
	key := limiterKey(ip, email)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.attempts[key]
	if !ok || now.Sub(record.windowStart) > l.cfg.Window {
		record = &attemptRecord{windowStart: now}
		l.attempts[key] = record
	}

	record.failures++
	if record.failures >= l.cfg.MaxAttempts {
		record.lockedUntil = now.Add(l.cfg.Lockout)
		return true, l.cfg.Lockout
	}
	return false, 0
}

// RecordSuccess forgets the failures for a key.
func (l *SignInLimiter) RecordSuccess(ip, email string) {
	l.mu.Lock()
	delete(l.attempts, limiterKey(ip, email))
	l.mu.Unlock()
}

func (l *SignInLimiter) sweepLoop() {
	ticker := time.NewTicker(l.cfg.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *SignInLimiter) sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, record := range l.attempts {
		if now.Sub(record.windowStart) > l.cfg.Window && !now.Before(record.lockedUntil) {
			delete(l.attempts, key)
		}
	}
}
