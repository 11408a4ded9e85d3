package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event flowing through the system.
type EventType string

const (
	SpeechPartial     EventType = "speech.partial"
	SpeechFinal       EventType = "speech.final"
	ElementAsyncStart EventType = "element.async-start"
	ElementAsyncDone  EventType = "element.async-done"
	StreamStarted     EventType = "stream.started"
	StreamEnded       EventType = "stream.ended"
	ModelsReloaded    EventType = "models.reloaded"
	SystemError       EventType = "error"
)

// Envelope is the standard event wrapper published to the event bus.
type Envelope struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Source    string            `json:"source"`
	StreamID  string            `json:"stream_id"`
	Timestamp time.Time         `json:"timestamp"`
	Data      json.RawMessage   `json:"data"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SpeechResultData is the payload for speech.partial and speech.final
// events. Result carries the recognizer's structured output verbatim.
type SpeechResultData struct {
	Result string `json:"result"`
}

// StreamStartedData is the payload for stream.started events.
type StreamStartedData struct {
	SampleRate int    `json:"sample_rate"`
	Origin     string `json:"origin"` // "wav", "rtp"
}

// StreamEndedData is the payload for stream.ended events.
type StreamEndedData struct {
	DurationMs int64 `json:"duration_ms"`
}

// ModelsReloadedData is the payload for models.reloaded events.
type ModelsReloadedData struct {
	Manifest string `json:"manifest"`
	Models   int    `json:"models"`
}

// ErrorData is the payload for error events.
type ErrorData struct {
	Error string `json:"error"`
}
