// Package lockout implements per-account brute-force bookkeeping.
//
// An account is either Unlocked(count) with count in [0, MaxAttempts-1] or
// Locked(until). The locked state lapses on its own: there is no persisted
// "expired" state, a lock only counts while LockedUntil is after now.
package lockout

import "time"

const (
	DefaultMaxAttempts = 5
	DefaultDuration    = 15 * time.Minute
)

type Policy struct {
	MaxAttempts int
	Duration    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, Duration: DefaultDuration}
}

// State mirrors the lockout columns of an account record.
type State struct {
	FailedCount int
	LockedUntil *time.Time
}

type Tracker struct {
	policy Policy
}

func NewTracker(p Policy) *Tracker {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Duration <= 0 {
		p.Duration = DefaultDuration
	}
	return &Tracker{policy: p}
}

func (t *Tracker) Policy() Policy {
	return t.policy
}

// Locked reports whether attempts must be rejected without checking the password.
func (t *Tracker) Locked(s State, now time.Time) bool {
	return s.LockedUntil != nil && s.LockedUntil.After(now)
}

// Fail advances the state after a wrong password. Reaching MaxAttempts sets
// the lock and resets the counter.
func (t *Tracker) Fail(s State, now time.Time) State {
	count := s.FailedCount
	if s.LockedUntil != nil && !s.LockedUntil.After(now) {
		// lapsed lock behaves like Unlocked(0)
		count = 0
	}
	if count < 0 {
		count = 0
	}

	count++
	if count >= t.policy.MaxAttempts {
		until := now.Add(t.policy.Duration)
		return State{FailedCount: 0, LockedUntil: &until}
	}

	return State{FailedCount: count}
}

func (t *Tracker) Succeed() State {
	return State{}
}

// Dirty reports whether next differs from prev and has to be written back.
func Dirty(prev, next State) bool {
	if prev.FailedCount != next.FailedCount {
		return true
	}
	switch {
	case prev.LockedUntil == nil && next.LockedUntil == nil:
		return false
	case prev.LockedUntil == nil || next.LockedUntil == nil:
		return true
	default:
		return !prev.LockedUntil.Equal(*next.LockedUntil)
	}
}
