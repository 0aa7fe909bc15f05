package harrislist

import (
	"log/slog"
	"runtime"
)

// Backoff spaces out retries after a lost CAS. Before retry n the caller
// yields the processor about min(Base<<n, Max) times, with up to half of that
// replaced by random jitter. A nil or zero Backoff retries immediately.
type Backoff struct {
	Base int
	Max  int
}

func (b *Backoff) wait(tries int, rng *RNG) {
	if b == nil || b.Max <= 0 || b.Base <= 0 {
		return
	}
	yields := b.Max
	if tries < 31 {
		if n := b.Base << tries; n > 0 && n < b.Max {
			yields = n
		}
	}
	if half := yields / 2; half > 0 {
		yields = half + rng.Intn(half+1)
	}
	for range yields {
		runtime.Gosched()
	}
}

// retrier carries what a retry loop needs between attempts.
type retrier struct {
	backoff   *Backoff
	warnAfter int
	logger    *slog.Logger
}

// attempt calls op until it reports done and returns op's result. There is
// no retry limit; a single caller can spin for as long as it keeps losing.
func attempt[T any](r *retrier, name string, op func() (T, bool)) T {
	// Jitter state is private to this call.
	var rng RNG
	for tries := 0; ; tries++ {
		if v, done := op(); done {
			return v
		}
		if r.warnAfter > 0 && tries+1 == r.warnAfter {
			r.logger.Warn("operation heavily contended",
				"op", name,
				"retries", tries+1,
			)
		}
		r.backoff.wait(tries, &rng)
	}
}
