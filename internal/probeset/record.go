// Package probeset holds the live collection of service records the
// scheduler checks every tick, and the Probe capability each record wraps.
package probeset

import "context"

// Probe is a bounded-time liveness check. Check returns nil on success and
// a non-nil error (including context.DeadlineExceeded) on any failure.
type Probe interface {
	Check(ctx context.Context) error
}

// Meta identifies a service record uniquely within a round. The triple is
// unique across the whole probe set.
type Meta struct {
	TeamID    string
	MachineID string
	ServiceID string
}

// ServiceRecord binds a Probe to the (team, machine, service) identity the
// persister and dashboard key their state on.
type ServiceRecord struct {
	Meta  Meta
	Probe Probe
}
