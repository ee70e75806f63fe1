// Package lattice builds and checks the signed invocation envelopes the
// shard exchanges with decision units over the bus.
package lattice

import (
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// URLScheme prefixes every entity address.
const URLScheme = "wasmbus"

// SystemActor is the origin key the shard uses for its own invocations.
const SystemActor = "system"

// EntityKind discriminates Entity variants.
type EntityKind uint8

const (
	EntityActor EntityKind = iota + 1
	EntityCapability
)

// Entity is an addressable party in an invocation: either an actor identified
// by its key, or a capability provider bound under a link name.
type Entity struct {
	Kind EntityKind

	// Key is set for actors.
	Key string

	// ID, ContractID and LinkName are set for capabilities.
	ID         string
	ContractID string
	LinkName   string
}

// Actor returns an actor entity.
func Actor(key string) Entity {
	return Entity{Kind: EntityActor, Key: key}
}

// Capability returns a capability entity.
func Capability(id, contractID, linkName string) Entity {
	return Entity{Kind: EntityCapability, ID: id, ContractID: contractID, LinkName: linkName}
}

// Address returns the entity's URL. It depends only on the entity's fields.
func (e Entity) Address() string {
	switch e.Kind {
	case EntityCapability:
		contract := strings.ToLower(strings.NewReplacer(":", "/", " ", "_").Replace(e.ContractID))
		link := strings.ToLower(strings.ReplaceAll(e.LinkName, " ", "_"))
		return fmt.Sprintf("%s://%s/%s/%s", URLScheme, contract, link, e.ID)
	default:
		return fmt.Sprintf("%s://%s", URLScheme, e.Key)
	}
}

func (e Entity) String() string {
	return e.Address()
}

var (
	_ msgpack.CustomEncoder = Entity{}
	_ msgpack.CustomDecoder = (*Entity)(nil)
)

type capabilityFields struct {
	ID         string `msgpack:"id"`
	ContractID string `msgpack:"contract_id"`
	LinkName   string `msgpack:"link_name"`
}

// EncodeMsgpack writes {"Actor": key} or {"Capability": {...}}.
func (e Entity) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(1); err != nil {
		return err
	}
	switch e.Kind {
	case EntityActor:
		if err := enc.EncodeString("Actor"); err != nil {
			return err
		}
		return enc.EncodeString(e.Key)
	case EntityCapability:
		if err := enc.EncodeString("Capability"); err != nil {
			return err
		}
		return enc.Encode(capabilityFields{ID: e.ID, ContractID: e.ContractID, LinkName: e.LinkName})
	default:
		return fmt.Errorf("entity kind %d has no wire form", e.Kind)
	}
}

// DecodeMsgpack reads the tagged entity form.
func (e *Entity) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("entity map has %d entries, want 1", n)
	}
	tag, err := dec.DecodeString()
	if err != nil {
		return err
	}
	switch tag {
	case "Actor":
		key, err := dec.DecodeString()
		if err != nil {
			return fmt.Errorf("actor key: %w", err)
		}
		*e = Actor(key)
	case "Capability":
		var fields capabilityFields
		if err := dec.Decode(&fields); err != nil {
			return fmt.Errorf("capability: %w", err)
		}
		*e = Capability(fields.ID, fields.ContractID, fields.LinkName)
	default:
		return fmt.Errorf("unknown entity variant %q", tag)
	}
	return nil
}
