package scheduler

import (
	"context"
	"testing"
	"time"

	"scylla/internal/pipeline"
	"scylla/internal/probeset"

	"github.com/jonboulle/clockwork"
)

type fakeProbe struct {
	fail bool
}

func (p fakeProbe) Check(ctx context.Context) error {
	if p.fail {
		return errProbe
	}
	return nil
}

type probeErr string

func (e probeErr) Error() string { return string(e) }

const errProbe = probeErr("forced failure")

func TestScheduler_DispatchesOneResultPerRecordPerTick(t *testing.T) {
	set := probeset.New([]probeset.ServiceRecord{
		{Meta: probeset.Meta{ServiceID: "a"}, Probe: fakeProbe{}},
		{Meta: probeset.Meta{ServiceID: "b"}, Probe: fakeProbe{fail: true}},
	})

	results := make(chan pipeline.Result, 8)
	clock := clockwork.NewFakeClock()

	s := New(set, results, time.Minute, 0, time.Second)
	s.Clock = clock

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	clock.BlockUntil(1)

	seen := map[string]pipeline.Kind{}
	for i := 0; i < 2; i++ {
		r := <-results
		seen[r.Meta.ServiceID] = r.Kind
	}

	if seen["a"] != pipeline.Uptime {
		t.Errorf("service a kind = %v, want Uptime", seen["a"])
	}
	if seen["b"] != pipeline.Error {
		t.Errorf("service b kind = %v, want Error", seen["b"])
	}

	cancel()
	<-done
}

func TestScheduler_NextDelayRespectsJitterAndFloor(t *testing.T) {
	s := New(probeset.New(nil), make(chan pipeline.Result), 2*time.Second, 5*time.Second, time.Second)

	for i := 0; i < 20; i++ {
		d := s.nextDelay()
		if d < time.Second {
			t.Fatalf("nextDelay() = %v, below 1s floor", d)
		}
		if d > s.Interval+s.Jitter {
			t.Fatalf("nextDelay() = %v, above interval+jitter %v", d, s.Interval+s.Jitter)
		}
	}
}

func TestScheduler_RunReturnsAfterCancel(t *testing.T) {
	set := probeset.New([]probeset.ServiceRecord{
		{Meta: probeset.Meta{ServiceID: "a"}, Probe: fakeProbe{}},
	})
	results := make(chan pipeline.Result, 1)
	clock := clockwork.NewFakeClock()

	s := New(set, results, time.Minute, 0, time.Second)
	s.Clock = clock

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	clock.BlockUntil(1)
	<-results
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
