package engine

import (
	"context"
	"errors"
)

// ErrModelNotFound is returned by LoadModel when no model could be
// constructed from the given path.
var ErrModelNotFound = errors.New("speech model not found")

// AcceptStatus is the outcome of feeding a chunk of audio to a recognizer.
type AcceptStatus int

const (
	// AcceptError signals an internal engine failure for this chunk.
	AcceptError AcceptStatus = -1
	// AcceptMore means the chunk was consumed and a partial result may be
	// available.
	AcceptMore AcceptStatus = 0
	// AcceptFinal means an utterance boundary was reached and a result is
	// available.
	AcceptFinal AcceptStatus = 1
)

// Model is a loaded acoustic/language model artifact. A Model is exclusively
// owned by whoever loaded it and must be freed exactly once.
type Model interface {
	Free()
}

// Recognizer is a stateful decoding session bound to one Model and one
// sample rate. Result strings are engine-native structured text (JSON for
// Vosk) and are passed through verbatim by callers.
type Recognizer interface {
	SetMaxAlternatives(n int)
	AcceptWaveform(data []byte) AcceptStatus
	// Result returns the utterance result after AcceptFinal.
	Result() string
	// PartialResult returns in-progress, revisable output.
	PartialResult() string
	// FinalResult flushes and returns whatever has accumulated.
	FinalResult() string
	// Reset discards accumulated audio without destroying the session.
	Reset()
	Free()
}

// Engine constructs models and recognizers. LoadModel blocks for as long as
// the model takes to initialize, which for large models is seconds;
// implementations should honor ctx cancellation where the underlying library
// allows it, but callers must not rely on it.
type Engine interface {
	LoadModel(ctx context.Context, path string) (Model, error)
	NewRecognizer(model Model, sampleRate float64) (Recognizer, error)
}
