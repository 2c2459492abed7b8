package protocol

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// field is one decoded key/value of a protobuf message.
type field struct {
	num     protowire.Number
	typ     protowire.Type
	varint  uint64
	fixed32 uint32
	bytes   []byte
}

// parseFields splits b into its top level fields. Groups and fixed64 values
// are skipped.
func parseFields(b []byte) ([]field, error) {
	var out []field
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, protowire.ParseError(n))
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			f.fixed32, n = protowire.ConsumeFixed32(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: field %d: %w", ErrInvalidEnvelope, num, protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.VarintType, protowire.Fixed32Type, protowire.BytesType:
			out = append(out, f)
		}
	}
	return out, nil
}

func (f field) asFloat() (float32, error) {
	if f.typ != protowire.Fixed32Type {
		return 0, f.wrongType("float")
	}
	v := math.Float32frombits(f.fixed32)
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0, fmt.Errorf("%w: field %d is not a finite float", ErrInvalidEnvelope, f.num)
	}
	return v, nil
}

func (f field) asString() (string, error) {
	if f.typ != protowire.BytesType {
		return "", f.wrongType("string")
	}
	return string(f.bytes), nil
}

func (f field) asMessage() ([]field, error) {
	if f.typ != protowire.BytesType {
		return nil, f.wrongType("message")
	}
	return parseFields(f.bytes)
}

func (f field) asBool() (bool, error) {
	if f.typ != protowire.VarintType {
		return false, f.wrongType("bool")
	}
	return f.varint != 0, nil
}

func (f field) wrongType(want string) error {
	return fmt.Errorf("%w: field %d has wire type %d, want %s", ErrInvalidEnvelope, f.num, f.typ, want)
}

// Append helpers omit proto3 default values, like generated code does.

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	bits := math.Float32bits(v)
	if bits == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, bits)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}
