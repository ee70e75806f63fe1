// Package event defines the colony events folded into construction sites and
// the journal record that carries them.
package event

import (
	"fmt"

	"github.com/wasmColonies/core/internal/services/shard/protocol"
)

// Type names a ColonyEvent variant.
type Type string

const (
	TypeNone                  Type = "None"
	TypeTickFinished          Type = "TickFinished"
	TypeUnitConstructionBegan Type = "UnitConstructionBegan"
)

// ColonyEvent is the tagged event variant. Only the fields of its Type are set.
type ColonyEvent struct {
	Type     Type              `cbor:"type"`
	Tick     uint64            `cbor:"tick,omitempty"`
	UnitType protocol.UnitType `cbor:"unit_type,omitempty"`
	YieldIn  uint64            `cbor:"yield_in,omitempty"`
}

// None is the event recorded for commands with no effect.
func None() ColonyEvent {
	return ColonyEvent{Type: TypeNone}
}

// TickFinished marks the end of tick.
func TickFinished(tick uint64) ColonyEvent {
	return ColonyEvent{Type: TypeTickFinished, Tick: tick}
}

// UnitConstructionBegan starts building unit at tick, finishing after yieldIn ticks.
func UnitConstructionBegan(tick uint64, unit protocol.UnitType, yieldIn uint64) ColonyEvent {
	return ColonyEvent{Type: TypeUnitConstructionBegan, Tick: tick, UnitType: unit, YieldIn: yieldIn}
}

func (e ColonyEvent) String() string {
	switch e.Type {
	case TypeTickFinished:
		return fmt.Sprintf("TickFinished(%d)", e.Tick)
	case TypeUnitConstructionBegan:
		return fmt.Sprintf("UnitConstructionBegan{tick: %d, unit_type: %s, yield_in: %d}", e.Tick, e.UnitType, e.YieldIn)
	default:
		return string(e.Type)
	}
}
