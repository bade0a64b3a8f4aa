package app

import "sync"

type Mode string

const (
	ModeRemote        Mode = "REMOTE"
	ModeLocalFallback Mode = "LOCAL_FALLBACK"
)

const DefaultFailureThreshold = 2

// BreakerState is a point-in-time copy of the breaker.
type BreakerState struct {
	Mode                Mode `json:"mode"`
	ConsecutiveFailures int  `json:"consecutiveFailures"`
	Threshold           int  `json:"threshold"`
}

// Breaker counts consecutive remote failures. Once the count reaches the
// threshold it opens for good: there is no half-open probe, the process has
// to restart to try the remote source again.
type Breaker struct {
	mu        sync.Mutex
	mode      Mode
	failures  int
	threshold int
}

func NewBreaker(threshold int, initial Mode) *Breaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if initial != ModeLocalFallback {
		initial = ModeRemote
	}
	return &Breaker{mode: initial, threshold: threshold}
}

// Allow reports whether a remote call may be attempted.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode == ModeRemote
}

func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mode == ModeRemote {
		b.failures = 0
	}
}

// Failure records a failed remote call and reports whether this call opened
// the breaker.
func (b *Breaker) Failure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mode != ModeRemote {
		return false
	}
	b.failures++
	if b.failures >= b.threshold {
		b.mode = ModeLocalFallback
		return true
	}
	return false
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerState{Mode: b.mode, ConsecutiveFailures: b.failures, Threshold: b.threshold}
}
