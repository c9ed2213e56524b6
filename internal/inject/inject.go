// Package inject waits for each configured inject's absolute activation
// time, then appends the new services it introduces to the live probe
// set.
package inject

import (
	"context"
	"log"
	"sync"

	"scylla/internal/config"
	"scylla/internal/probeset"

	"github.com/jonboulle/clockwork"
)

// Scheduler spawns one waiter goroutine per inject.
type Scheduler struct {
	Round *config.Round
	Set   *probeset.Set
	Clock clockwork.Clock
}

func New(round *config.Round, set *probeset.Set) *Scheduler {
	return &Scheduler{
		Round: round,
		Set:   set,
		Clock: clockwork.NewRealClock(),
	}
}

// Run starts one waiter per inject and returns immediately; waiters exit
// on their own once activated, or when ctx is cancelled. wg, if non-nil,
// is incremented per waiter so callers can drain on shutdown.
func (s *Scheduler) Run(ctx context.Context, wg *sync.WaitGroup) {
	for _, inj := range s.Round.Injects {
		inj := inj
		if wg != nil {
			wg.Add(1)
		}
		go func() {
			if wg != nil {
				defer wg.Done()
			}
			s.waitAndActivate(ctx, inj)
		}()
	}
}

func (s *Scheduler) waitAndActivate(ctx context.Context, inj config.Inject) {
	activation := inj.ActivationTime(s.Round.Start)
	remaining := activation.Sub(s.Clock.Now())
	if remaining < 0 {
		remaining = 0
	}

	select {
	case <-ctx.Done():
		return
	case <-s.Clock.After(remaining):
	}

	s.activate(inj)
}

func (s *Scheduler) activate(inj config.Inject) {
	var added []probeset.ServiceRecord

	for machineID, specs := range inj.NewServices {
		machine, ok := s.Round.Machines[machineID]
		if !ok {
			log.Printf("inject %q: unknown machine %q, skipping", inj.Meta.Title, machineID)
			continue
		}
		machine.Services = specs

		for _, team := range s.Round.Teams {
			for _, spec := range specs {
				rec, err := probeset.NewServiceRecord(spec, team, machine, s.Round.NetworkPrefix)
				if err != nil {
					log.Printf("inject %q: team=%s machine=%s service=%s: %v",
						inj.Meta.Title, team.ID, machineID, spec.ID, err)
					continue
				}
				added = append(added, rec)
				log.Printf("inject %q activated: team=%s machine=%s service=%s",
					inj.Meta.Title, team.ID, machineID, spec.ID)
			}
		}
	}

	if len(added) > 0 {
		s.Set.Append(added...)
	}
}
