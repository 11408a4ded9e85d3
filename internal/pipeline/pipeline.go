package pipeline

import (
	"context"
	"time"
)

// Buffer is a chunk of raw S16LE mono audio with its presentation timestamp.
type Buffer struct {
	Data []byte
	PTS  time.Duration
}

// Format holds the stream parameters negotiated between adjacent stages.
type Format struct {
	SampleRate int
}

// State is the lifecycle state of an element.
type State int

const (
	StateNull State = iota
	StateReady
	StatePaused
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateNull:
		return "null"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	}
	return "unknown"
}

// StateChangeResult reports how a state transition request was handled.
type StateChangeResult int

const (
	StateChangeFailure StateChangeResult = iota
	StateChangeSuccess
	// StateChangeAsync means the transition was accepted but completes in the
	// background; the element posts MessageAsyncDone or MessageError when it
	// resolves.
	StateChangeAsync
)

func (r StateChangeResult) String() string {
	switch r {
	case StateChangeFailure:
		return "failure"
	case StateChangeSuccess:
		return "success"
	case StateChangeAsync:
		return "async"
	}
	return "unknown"
}

// Sink receives buffers pushed downstream by an element.
type Sink interface {
	Push(ctx context.Context, buf Buffer) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, buf Buffer) error

func (f SinkFunc) Push(ctx context.Context, buf Buffer) error { return f(ctx, buf) }

// Discard drops every buffer. Used when no downstream consumer exists.
var Discard Sink = SinkFunc(func(context.Context, Buffer) error { return nil })

// Clock returns the pipeline's current running time. Elements compare it
// against buffer timestamps to detect when they are falling behind.
type Clock func() time.Duration
