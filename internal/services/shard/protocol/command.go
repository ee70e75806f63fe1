package protocol

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// UnitType names a buildable unit.
type UnitType string

const (
	UnitNone UnitType = "None"
	UnitMine UnitType = "Mine"
)

// CommandKind discriminates ColonyCommand variants.
type CommandKind string

const (
	CommandPass          CommandKind = "Pass"
	CommandConstructUnit CommandKind = "ConstructUnit"
	// CommandUnknown marks a variant this build does not recognize. Tag keeps
	// the wire name for diagnostics.
	CommandUnknown CommandKind = "Unknown"
)

// ColonyCommand is an action proposed by a decision unit for one tick.
//
// On the wire it is a single-entry map keyed by variant name:
// {"Pass": 12} or {"ConstructUnit": [12, "Mine"]}.
type ColonyCommand struct {
	Kind     CommandKind
	Tick     uint64
	UnitType UnitType
	Tag      string
}

// Pass returns a command that does nothing for tick.
func Pass(tick uint64) ColonyCommand {
	return ColonyCommand{Kind: CommandPass, Tick: tick}
}

// ConstructUnit returns a command that starts building unit at tick.
func ConstructUnit(tick uint64, unit UnitType) ColonyCommand {
	return ColonyCommand{Kind: CommandConstructUnit, Tick: tick, UnitType: unit}
}

func (c ColonyCommand) String() string {
	switch c.Kind {
	case CommandPass:
		return fmt.Sprintf("Pass(%d)", c.Tick)
	case CommandConstructUnit:
		return fmt.Sprintf("ConstructUnit(%d, %s)", c.Tick, c.UnitType)
	default:
		return fmt.Sprintf("Unknown(%s)", c.Tag)
	}
}

var (
	_ msgpack.CustomEncoder = ColonyCommand{}
	_ msgpack.CustomDecoder = (*ColonyCommand)(nil)
)

// EncodeMsgpack writes the externally tagged form.
func (c ColonyCommand) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch c.Kind {
	case CommandPass:
		if err := enc.EncodeMapLen(1); err != nil {
			return err
		}
		if err := enc.EncodeString(string(CommandPass)); err != nil {
			return err
		}
		return enc.EncodeUint(c.Tick)
	case CommandConstructUnit:
		if err := enc.EncodeMapLen(1); err != nil {
			return err
		}
		if err := enc.EncodeString(string(CommandConstructUnit)); err != nil {
			return err
		}
		if err := enc.EncodeArrayLen(2); err != nil {
			return err
		}
		if err := enc.EncodeUint(c.Tick); err != nil {
			return err
		}
		return enc.EncodeString(string(c.UnitType))
	default:
		return fmt.Errorf("command kind %q has no wire form", c.Kind)
	}
}

// DecodeMsgpack reads the externally tagged form. Unrecognized tags decode to
// CommandUnknown with their payload skipped.
func (c *ColonyCommand) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("command map has %d entries, want 1", n)
	}
	tag, err := dec.DecodeString()
	if err != nil {
		return err
	}
	switch CommandKind(tag) {
	case CommandPass:
		tick, err := dec.DecodeUint64()
		if err != nil {
			return fmt.Errorf("pass tick: %w", err)
		}
		*c = Pass(tick)
	case CommandConstructUnit:
		size, err := dec.DecodeArrayLen()
		if err != nil {
			return err
		}
		if size != 2 {
			return fmt.Errorf("construct unit has %d fields, want 2", size)
		}
		tick, err := dec.DecodeUint64()
		if err != nil {
			return fmt.Errorf("construct unit tick: %w", err)
		}
		unit, err := decodeUnitType(dec)
		if err != nil {
			return fmt.Errorf("construct unit type: %w", err)
		}
		*c = ConstructUnit(tick, unit)
	default:
		if err := dec.Skip(); err != nil {
			return err
		}
		*c = ColonyCommand{Kind: CommandUnknown, Tag: tag}
	}
	return nil
}

// decodeUnitType accepts the bare name ("Mine") and the tagged form that
// carries an ore ({"Mine": "Wasmium"}). The ore is not modelled and is
// discarded.
func decodeUnitType(dec *msgpack.Decoder) (UnitType, error) {
	v, err := dec.DecodeInterface()
	if err != nil {
		return "", err
	}
	switch unit := v.(type) {
	case string:
		return UnitType(unit), nil
	case map[string]any:
		if len(unit) != 1 {
			return "", fmt.Errorf("unit map has %d entries, want 1", len(unit))
		}
		for name := range unit {
			return UnitType(name), nil
		}
	}
	return "", fmt.Errorf("unexpected unit type %T", v)
}
