package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Frame is one step's execution snapshot. It is opaque to the relay: the raw
// JSON object produced by the trace generator is kept verbatim and handed to
// the viewer and the explainer unchanged. A Frame is immutable once built.
type Frame struct {
	kind FrameKind
	raw  json.RawMessage
}

// NewFrame validates that raw is a JSON object and wraps a private copy of it.
func NewFrame(raw []byte) (Frame, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Frame{}, fmt.Errorf("frame must be a JSON object")
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return Frame{}, fmt.Errorf("invalid frame: %w", err)
	}

	kind := FrameKindGeneric
	if v, ok := probe["array"]; ok && len(v) > 0 && v[0] == '[' {
		kind = FrameKindArray
	}

	return Frame{
		kind: kind,
		raw:  append(json.RawMessage(nil), trimmed...),
	}, nil
}

// MustFrame is NewFrame for literals known to be valid.
func MustFrame(raw string) Frame {
	f, err := NewFrame([]byte(raw))
	if err != nil {
		panic(err)
	}
	return f
}

// Kind returns the visualization kind of the frame.
func (f Frame) Kind() FrameKind {
	return f.kind
}

// Bytes returns a copy of the raw frame.
func (f Frame) Bytes() []byte {
	return append([]byte(nil), f.raw...)
}

// MarshalJSON emits the frame verbatim.
func (f Frame) MarshalJSON() ([]byte, error) {
	if len(f.raw) == 0 {
		return []byte("null"), nil
	}
	return f.raw, nil
}

// UnmarshalJSON decodes a frame through NewFrame.
func (f *Frame) UnmarshalJSON(data []byte) error {
	parsed, err := NewFrame(data)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
