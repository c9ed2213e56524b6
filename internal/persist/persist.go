// Package persist runs the single consumer that turns scheduler results
// into committed counter updates, applying the SLA rule.
package persist

import (
	"context"
	"log"

	"scylla/internal/pipeline"
	"scylla/internal/probeset"
)

// slaThreshold is the consecutive-failure count at which an SLA violation
// starts recording, and records again on every failure past it.
const slaThreshold = 5

// Backend is the subset of the store the persister needs. Defined here so
// tests can substitute a fake without importing the store package.
type Backend interface {
	PersistUptime(ctx context.Context, meta probeset.Meta) error
	PersistDowntime(ctx context.Context, meta probeset.Meta) (int, error)
	PersistSLA(ctx context.Context, meta probeset.Meta) error
}

// Persister drains Results and commits each one to Store in arrival order.
type Persister struct {
	Store   Backend
	Results <-chan pipeline.Result
}

func New(store Backend, results <-chan pipeline.Result) *Persister {
	return &Persister{Store: store, Results: results}
}

// Run consumes until Results closes or ctx is cancelled. A single commit
// loop, never spawns a goroutine per message, so messages for the same
// meta are always applied in the order their probes finished.
func (p *Persister) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-p.Results:
			if !ok {
				return
			}
			p.commit(ctx, res)
		}
	}
}

func (p *Persister) commit(ctx context.Context, res pipeline.Result) {
	switch res.Kind {
	case pipeline.Uptime:
		if err := p.Store.PersistUptime(ctx, res.Meta); err != nil {
			log.Printf("persist uptime team=%s machine=%s service=%s: %v",
				res.Meta.TeamID, res.Meta.MachineID, res.Meta.ServiceID, err)
		}
	case pipeline.Error:
		recurringDown, err := p.Store.PersistDowntime(ctx, res.Meta)
		if err != nil {
			log.Printf("persist downtime team=%s machine=%s service=%s: %v",
				res.Meta.TeamID, res.Meta.MachineID, res.Meta.ServiceID, err)
			return
		}
		if recurringDown >= slaThreshold {
			if err := p.Store.PersistSLA(ctx, res.Meta); err != nil {
				log.Printf("persist sla team=%s machine=%s service=%s: %v",
					res.Meta.TeamID, res.Meta.MachineID, res.Meta.ServiceID, err)
			}
		}
	}
}
