package dimension

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUnrecognizedPayload is returned for byte payloads of an unknown shape.
	ErrUnrecognizedPayload = errors.New("unrecognized payload shape")
	// ErrMissingIndex is returned when an index-keyed payload has a gap.
	ErrMissingIndex = errors.New("index-keyed payload is not contiguous")
)

// PayloadKind tells which variant a Payload holds.
type PayloadKind int

const (
	PayloadUnknown PayloadKind = iota
	PayloadBuffer              // contiguous bytes
	PayloadIndexed             // object keyed "0".."n-1"
)

// String returns the variant name.
func (k PayloadKind) String() string {
	switch k {
	case PayloadBuffer:
		return "buffer"
	case PayloadIndexed:
		return "indexed"
	default:
		return "unknown"
	}
}

// Payload is resource content as reported by a host: either a byte buffer
// or an object whose keys are the stringified byte indices.
type Payload struct {
	kind    PayloadKind
	buffer  []byte
	indexed map[string]int
}

// BufferPayload wraps contiguous bytes.
func BufferPayload(b []byte) Payload {
	return Payload{kind: PayloadBuffer, buffer: b}
}

// IndexedPayload wraps an index-keyed byte map.
func IndexedPayload(m map[string]int) Payload {
	return Payload{kind: PayloadIndexed, indexed: m}
}

// Kind returns the payload variant.
func (p Payload) Kind() PayloadKind {
	return p.kind
}

// Bytes returns the payload as contiguous bytes. Index-keyed payloads must
// hold every key from "0" to "n-1" and only byte values.
func (p Payload) Bytes() ([]byte, error) {
	switch p.kind {
	case PayloadBuffer:
		return p.buffer, nil

	case PayloadIndexed:
		out := make([]byte, len(p.indexed))
		for i := range out {
			v, ok := p.indexed[strconv.Itoa(i)]
			if !ok {
				return nil, fmt.Errorf("%w: index %d missing of %d", ErrMissingIndex, i, len(out))
			}
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("%w: value %d at index %d is not a byte", ErrUnrecognizedPayload, v, i)
			}
			out[i] = byte(v)
		}
		return out, nil

	default:
		return nil, ErrUnrecognizedPayload
	}
}

// DecodePayload parses a host-reported JSON payload: a base64 string, an
// array of byte values, or an object keyed by byte index.
func DecodePayload(raw json.RawMessage) (Payload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Payload{}, fmt.Errorf("%w: empty", ErrUnrecognizedPayload)
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrUnrecognizedPayload, err)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: invalid base64: %v", ErrUnrecognizedPayload, err)
		}
		return BufferPayload(b), nil

	case '[':
		var values []int
		if err := json.Unmarshal(raw, &values); err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrUnrecognizedPayload, err)
		}
		b := make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return Payload{}, fmt.Errorf("%w: value %d at index %d is not a byte", ErrUnrecognizedPayload, v, i)
			}
			b[i] = byte(v)
		}
		return BufferPayload(b), nil

	case '{':
		var m map[string]int
		if err := json.Unmarshal(raw, &m); err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrUnrecognizedPayload, err)
		}
		return IndexedPayload(m), nil

	default:
		return Payload{}, fmt.Errorf("%w: unexpected JSON token %q", ErrUnrecognizedPayload, raw[0])
	}
}
