package cache

import (
	"log/slog"
	"sync"
	"time"
)

// RunSweepLoop runs sweepFn every interval until the stop channel is closed.
func RunSweepLoop(stop <-chan struct{}, interval time.Duration, sweepFn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweepFn()
		case <-stop:
			return
		}
	}
}

// Sweeper is a running periodic sweep. Stop it during shutdown.
type Sweeper struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartSweeper removes stale entries from s every interval (the TTL when
// interval is not positive) on its own goroutine.
func StartSweeper(s *LocalStore, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = s.TTL()
	}

	sw := &Sweeper{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(sw.done)
		RunSweepLoop(sw.stop, interval, func() {
			if removed := s.Sweep(); removed > 0 {
				slog.Debug("cache sweep", "removed", removed, "remaining", s.Len())
			}
		})
	}()

	return sw
}

// Stop halts the sweep loop and waits for it to exit. Safe to call more than once.
func (sw *Sweeper) Stop() {
	sw.stopOnce.Do(func() {
		close(sw.stop)
	})
	<-sw.done
}
