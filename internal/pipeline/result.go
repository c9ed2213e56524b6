// Package pipeline defines the message that flows from the scheduler's
// dispatched probe tasks to the persister's single commit loop.
package pipeline

import "scylla/internal/probeset"

// Kind distinguishes an uptime report from a downtime/failure report.
type Kind int

const (
	Uptime Kind = iota
	Error
)

func (k Kind) String() string {
	if k == Uptime {
		return "uptime"
	}
	return "error"
}

// Result is the one message a probe task sends after it finishes, exactly
// one per task, win or lose.
type Result struct {
	Kind Kind
	Meta probeset.Meta
}
