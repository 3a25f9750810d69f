package presence

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper drives the tracker's inactivity sweep on a fixed period. It is a
// process-lifecycle component: started once at boot, stopped at shutdown,
// independent of any request. Single-flight: if a sweep is still running
// when the next tick fires, that tick is skipped rather than stacked, and a
// late or missed tick is simply absorbed (no drift correction).
type Sweeper struct {
	tracker  *Tracker
	interval time.Duration

	running sync.Mutex // held while one sweep executes
	cancel  context.CancelFunc
	done    chan struct{}

	now func() time.Time // injectable for tests
}

// NewSweeper builds a sweeper over tracker with the given tick period.
func NewSweeper(tracker *Tracker, interval time.Duration) *Sweeper {
	return &Sweeper{
		tracker:  tracker,
		interval: interval,
		now:      time.Now,
	}
}

// Start launches the background loop. Calling Start twice without Stop is a
// programming error.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
	log.Info().Dur("interval", s.interval).Msg("presence sweeper started")
}

// tick runs one sweep unless a previous one is still in flight.
func (s *Sweeper) tick(ctx context.Context) {
	if !s.running.TryLock() {
		log.Warn().Msg("presence sweep still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	start := s.now()
	swept, err := s.tracker.Sweep(ctx, start)
	if err != nil {
		log.Error().Err(err).Msg("presence sweep failed")
		return
	}
	if swept > 0 {
		log.Info().Int("swept", swept).Dur("took", s.now().Sub(start)).Msg("presence sweep demoted inactive users")
	}
}

// Stop cancels the loop and waits for the current sweep, if any, to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}
