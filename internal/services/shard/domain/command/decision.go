// Package command holds the outcome type shared by colony deciders.
package command

import "github.com/wasmColonies/core/internal/services/shard/domain/event"

// RejectionUnitTypeUnconfigured is returned for units with no construction time.
const RejectionUnitTypeUnconfigured = "UNIT_TYPE_UNCONFIGURED"

// Decision represents the pure outcome of handling a command.
type Decision struct {
	Events     []event.ColonyEvent
	Rejections []Rejection
}

// Rejection captures a domain-level reason a command was declined.
type Rejection struct {
	Code    string
	Message string
}

func (r Rejection) String() string {
	return r.Code + ": " + r.Message
}

// Accept returns a decision that emits the provided events.
func Accept(events ...event.ColonyEvent) Decision {
	return Decision{Events: append([]event.ColonyEvent(nil), events...)}
}

// Reject returns a decision that carries the provided rejections.
func Reject(rejections ...Rejection) Decision {
	return Decision{Rejections: append([]Rejection(nil), rejections...)}
}

// Rejected reports whether the decision declined the command.
func (d Decision) Rejected() bool {
	return len(d.Rejections) > 0
}
