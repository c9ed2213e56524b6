package inject

import (
	"context"
	"sync"
	"testing"
	"time"

	"scylla/internal/config"
	"scylla/internal/probeset"

	"github.com/jonboulle/clockwork"
)

func testRound(start time.Time) *config.Round {
	return &config.Round{
		Start:         start,
		NetworkPrefix: "172.30",
		Teams: map[string]config.Team{
			"red":  {ID: "red", Subnet: 1},
			"blue": {ID: "blue", Subnet: 2},
		},
		Machines: map[string]config.Machine{
			"box1": {ID: "box1", HostOctet: 10},
		},
		Injects: []config.Inject{
			{
				OffsetMin:   1,
				DurationMin: 1,
				NewServices: map[string][]config.ServiceSpec{
					"box1": {{ID: "web", Type: config.ServiceHTTP, Port: 80}},
				},
				Meta: config.InjectMeta{Title: "web inject"},
			},
		},
	}
}

func TestScheduler_ActivatesAtDeadlineForEveryTeam(t *testing.T) {
	clock := clockwork.NewFakeClock()
	start := clock.Now()
	round := testRound(start)
	set := probeset.New(nil)

	s := New(round, set)
	s.Clock = clock

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Run(ctx, &wg)

	clock.BlockUntil(1)
	clock.Advance(2 * time.Minute)

	wg.Wait()

	if got := set.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2 (one per team)", got)
	}

	var sawRed, sawBlue bool
	set.SnapshotRef(func(records []probeset.ServiceRecord) {
		for _, r := range records {
			if r.Meta.ServiceID != "web" || r.Meta.MachineID != "box1" {
				t.Errorf("unexpected record %+v", r.Meta)
			}
			switch r.Meta.TeamID {
			case "red":
				sawRed = true
			case "blue":
				sawBlue = true
			}
		}
	})
	if !sawRed || !sawBlue {
		t.Errorf("sawRed=%v sawBlue=%v", sawRed, sawBlue)
	}
}

func TestScheduler_AlreadyPastActivationFiresImmediately(t *testing.T) {
	clock := clockwork.NewFakeClock()
	start := clock.Now().Add(-10 * time.Minute)
	round := testRound(start)

	set := probeset.New(nil)
	s := New(round, set)
	s.Clock = clock

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Run(ctx, &wg)

	// The remaining wait is clamped to zero, so the fake clock's After
	// fires at once without registering a waiter or needing an Advance.
	wg.Wait()

	if got := set.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}
