package domain

import "encoding/json"

// EventType discriminates stream frames.
type EventType string

const (
	// EventMeta opens a stream and echoes the question.
	EventMeta EventType = "meta"
	// EventChunk carries an incremental text delta.
	EventChunk EventType = "chunk"
	// EventDone terminates a stream with the final source list.
	EventDone EventType = "done"
	// EventError terminates a stream with a failure message.
	EventError EventType = "error"
)

// Event is one frame of the incremental answer protocol.
// Exactly one terminal event (done or error) ends a stream.
type Event struct {
	Type    EventType
	Q       string
	Delta   string
	Sources []Source
	Message string
}

// Terminal reports whether the event ends its stream.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// MarshalJSON emits only the fields relevant to the event type.
// A done frame always carries a sources array, never null.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventMeta:
		return json.Marshal(struct {
			Type EventType `json:"type"`
			Q    string    `json:"q"`
		}{e.Type, e.Q})
	case EventChunk:
		return json.Marshal(struct {
			Type  EventType `json:"type"`
			Delta string    `json:"delta"`
		}{e.Type, e.Delta})
	case EventDone:
		sources := e.Sources
		if sources == nil {
			sources = []Source{}
		}
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Sources []Source  `json:"sources"`
		}{e.Type, sources})
	default:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Message string    `json:"message"`
		}{EventError, e.Message})
	}
}

// MetaEvent builds the stream-opening frame.
func MetaEvent(question string) Event { return Event{Type: EventMeta, Q: question} }

// ChunkEvent builds an incremental text frame.
func ChunkEvent(delta string) Event { return Event{Type: EventChunk, Delta: delta} }

// DoneEvent builds the successful terminal frame.
func DoneEvent(sources []Source) Event { return Event{Type: EventDone, Sources: sources} }

// ErrorEvent builds the failure terminal frame.
func ErrorEvent(message string) Event { return Event{Type: EventError, Message: message} }
