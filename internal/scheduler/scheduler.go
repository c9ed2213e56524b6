// Package scheduler runs the jittered periodic event loop that dispatches
// one probe task per service record on every tick.
package scheduler

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"scylla/internal/pipeline"
	"scylla/internal/probeset"

	"github.com/jonboulle/clockwork"
)

// Scheduler dispatches independent, bounded-time probe tasks against every
// record in Set on a jittered interval, feeding their outcome to Results.
type Scheduler struct {
	Set      *probeset.Set
	Results  chan<- pipeline.Result
	Interval time.Duration
	Jitter   time.Duration
	Timeout  time.Duration
	Clock    clockwork.Clock

	rng *rand.Rand
	wg  sync.WaitGroup
}

// New builds a Scheduler with a real clock; tests override Clock with a
// clockwork.FakeClock.
func New(set *probeset.Set, results chan<- pipeline.Result, interval, jitter, timeout time.Duration) *Scheduler {
	return &Scheduler{
		Set:      set,
		Results:  results,
		Interval: interval,
		Jitter:   jitter,
		Timeout:  timeout,
		Clock:    clockwork.NewRealClock(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run loops until ctx is cancelled. Each iteration dispatches a full tick
// of probe tasks without waiting for them, then sleeps a freshly jittered
// delay; a slow probe from one tick may still be running when the next
// begins. On cancellation, Run waits for every dispatched task to finish
// before returning so probes can drain cleanly.
func (s *Scheduler) Run(ctx context.Context) {
	defer s.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		delay := s.nextDelay()
		s.dispatchTick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-s.Clock.After(delay):
		}
	}
}

func (s *Scheduler) nextDelay() time.Duration {
	delay := s.Interval
	if s.Jitter > 0 {
		span := int64(2*s.Jitter) + 1
		delay += time.Duration(s.rng.Int63n(span)) - s.Jitter
	}
	if delay < time.Second {
		delay = time.Second
	}
	return delay
}

func (s *Scheduler) dispatchTick(ctx context.Context) {
	s.Set.SnapshotRef(func(records []probeset.ServiceRecord) {
		for _, rec := range records {
			s.wg.Add(1)
			go func(rec probeset.ServiceRecord) {
				defer s.wg.Done()
				s.runProbe(ctx, rec)
			}(rec)
		}
	})
}

func (s *Scheduler) runProbe(parent context.Context, rec probeset.ServiceRecord) {
	ctx, cancel := context.WithTimeout(parent, s.Timeout)
	defer cancel()

	kind := pipeline.Uptime
	if err := rec.Probe.Check(ctx); err != nil {
		kind = pipeline.Error
		log.Printf("probe failed team=%s machine=%s service=%s: %v",
			rec.Meta.TeamID, rec.Meta.MachineID, rec.Meta.ServiceID, err)
	}

	s.Results <- pipeline.Result{Kind: kind, Meta: rec.Meta}
}
