// Package protocol defines the messages exchanged between the shard and
// player decision units, and the single codec they travel in.
//
// Every message is MessagePack with structs encoded as string-keyed maps, so
// readers skip fields they do not know about.
package protocol

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// DecodeError reports malformed or truncated input.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode: " + e.Reason
}

// EncodeError reports a value the codec cannot represent.
type EncodeError struct {
	Reason string
}

func (e *EncodeError) Error() string {
	return "encode: " + e.Reason
}

// Encode serializes v with struct fields keyed by name.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, &EncodeError{Reason: err.Error()}
	}
	return buf.Bytes(), nil
}

// Decode deserializes data into v. Trailing bytes after the first value are
// rejected.
func Decode(data []byte, v any) error {
	if len(data) == 0 {
		return &DecodeError{Reason: "empty input"}
	}
	reader := bytes.NewReader(data)
	dec := msgpack.NewDecoder(reader)
	if err := dec.Decode(v); err != nil {
		return &DecodeError{Reason: err.Error()}
	}
	if reader.Len() != 0 {
		return &DecodeError{Reason: fmt.Sprintf("%d trailing bytes", reader.Len())}
	}
	return nil
}
