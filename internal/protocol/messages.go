// Package protocol defines the WebSocket message protocol between viewers and the relay.
package protocol

import "encoding/json"

// Message types from relay to viewer
const (
	TypeTrace       = "TRACE"
	TypeExplanation = "EXPLANATION"
	TypeEnd         = "END"
	TypeError       = "ERROR"
)

// Message types from viewer to relay
const (
	TypeSignal = "SIGNAL"
	TypeSeek   = "SEEK"
)

// EndMessageText is the text carried by every END message.
const EndMessageText = "Visualization complete"

// Envelope is the discriminated wrapper of every message.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// InboundEnvelope is used for parsing viewer messages before type dispatch.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MessageData is the payload of END and ERROR messages.
type MessageData struct {
	Message string `json:"message"`
}

// SeekData is the payload of SEEK messages.
type SeekData struct {
	StepIndex int `json:"stepIndex"`
}

// NewTrace wraps a frame.
func NewTrace(frame interface{}) Envelope {
	return Envelope{Type: TypeTrace, Data: frame}
}

// NewExplanation wraps an explanation.
func NewExplanation(explanation interface{}) Envelope {
	return Envelope{Type: TypeExplanation, Data: explanation}
}

// NewEnd builds the END message.
func NewEnd() Envelope {
	return Envelope{Type: TypeEnd, Data: MessageData{Message: EndMessageText}}
}

// NewError builds an ERROR message.
func NewError(message string) Envelope {
	return Envelope{Type: TypeError, Data: MessageData{Message: message}}
}
