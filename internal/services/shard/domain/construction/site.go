// Package construction is the construction site aggregate: a pure decider
// that turns colony commands into events and a pure fold that applies them.
package construction

import (
	"fmt"

	"github.com/wasmColonies/core/internal/services/shard/domain/command"
	"github.com/wasmColonies/core/internal/services/shard/domain/event"
	"github.com/wasmColonies/core/internal/services/shard/protocol"
)

// State is one construction site. The zero value with an ID is the initial
// state of every site.
type State struct {
	ID         string
	Generation uint64
	Began      uint64
	Remaining  uint64
	Yields     protocol.UnitType
}

// New returns the initial state for id.
func New(id string) State {
	return State{ID: id}
}

// UnderConstruction reports whether the site still has ticks to go.
func (s State) UnderConstruction() bool {
	return s.Remaining > 0
}

// View returns the read model sent to decision units.
func (s State) View() protocol.SiteView {
	return protocol.SiteView{
		ID:         s.ID,
		Began:      s.Began,
		Remaining:  s.Remaining,
		Yields:     s.Yields,
		Generation: s.Generation,
	}
}

// Fold applies evt to state. Every apply advances the generation; unknown
// event types change nothing else.
func Fold(state State, evt event.ColonyEvent) State {
	switch evt.Type {
	case event.TypeTickFinished:
		if state.Remaining > 0 {
			state.Remaining--
		}
	case event.TypeUnitConstructionBegan:
		state.Began = evt.Tick
		state.Yields = evt.UnitType
		state.Remaining = evt.YieldIn
	}
	state.Generation++
	return state
}

// Schedule looks up how many ticks a unit takes to build.
type Schedule interface {
	ConstructionTime(unit protocol.UnitType) (uint64, bool)
}

// Decider turns commands into events using a construction schedule.
type Decider struct {
	Schedule Schedule
}

// Decide returns the events for cmd. The result does not depend on state:
// ConstructUnit always begins construction with the scheduled duration, and
// Pass or unrecognized commands record a None event.
func (d Decider) Decide(_ State, cmd protocol.ColonyCommand) command.Decision {
	switch cmd.Kind {
	case protocol.CommandConstructUnit:
		if d.Schedule == nil {
			return command.Reject(command.Rejection{
				Code:    command.RejectionUnitTypeUnconfigured,
				Message: "no construction schedule",
			})
		}
		yieldIn, ok := d.Schedule.ConstructionTime(cmd.UnitType)
		if !ok {
			return command.Reject(command.Rejection{
				Code:    command.RejectionUnitTypeUnconfigured,
				Message: fmt.Sprintf("no construction time for unit type %q", cmd.UnitType),
			})
		}
		return command.Accept(event.UnitConstructionBegan(cmd.Tick, cmd.UnitType, yieldIn))
	case protocol.CommandPass, protocol.CommandUnknown:
		return command.Accept(event.None())
	default:
		return command.Accept(event.None())
	}
}
