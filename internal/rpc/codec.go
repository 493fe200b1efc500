// Package rpc exposes the booking operations over gRPC. Messages are encoded
// by hand with protowire so no generated code is needed; both ends must use
// Codec (grpc.ForceServerCodec / grpc.ForceCodec).
package rpc

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

var errParse = errors.New("rpc: malformed message")

type message interface {
	marshal() []byte
	unmarshal(b []byte) error
}

// Codec implements encoding.Codec for the messages in this package.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(message)
	if !ok {
		return nil, fmt.Errorf("rpc codec: cannot marshal %T", v)
	}
	return m.marshal(), nil
}

func (Codec) Unmarshal(b []byte, v any) error {
	m, ok := v.(message)
	if !ok {
		return fmt.Errorf("rpc codec: cannot unmarshal into %T", v)
	}
	return m.unmarshal(b)
}

func (Codec) Name() string { return "proto" }

// field is one decoded wire field. Only bytes and varint fields are used.
type field struct {
	num   protowire.Number
	bytes []byte
	u64   uint64
}

// walk decodes b field by field. Unknown wire types are skipped.
func walk(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errParse
		}
		b = b[n:]

		f := field{num: num}
		switch typ {
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		case protowire.VarintType:
			f.u64, n = protowire.ConsumeVarint(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return errParse
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return errParse
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendMessage(b []byte, num protowire.Number, m []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}
