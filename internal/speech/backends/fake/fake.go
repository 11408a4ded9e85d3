// Package fake provides a deterministic in-process recognition engine for
// development and tests: no model files, no cgo. It detects an "utterance"
// every fixed number of bytes and reports word counts as transcripts.
package fake

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/voskstream/voskstream/internal/speech/engine"
	"github.com/voskstream/voskstream/internal/speech/registry"
)

func init() {
	registry.Engines.Register("fake", func(config map[string]string) (engine.Engine, error) {
		e := New()
		if s := config["load_delay_ms"]; s != "" {
			ms, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("fake engine: bad load_delay_ms %q: %w", s, err)
			}
			e.LoadDelay = time.Duration(ms) * time.Millisecond
		}
		if s := config["utterance_bytes"]; s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("fake engine: bad utterance_bytes %q: %w", s, err)
			}
			e.UtteranceBytes = n
		}
		return e, nil
	})
}

// Engine implements engine.Engine without any real recognition.
type Engine struct {
	// LoadDelay simulates slow model construction.
	LoadDelay time.Duration
	// UtteranceBytes is how many accepted bytes make one utterance.
	UtteranceBytes int
	// RequirePath makes LoadModel fail unless the path exists on disk.
	RequirePath bool
}

// New creates a fake engine with one utterance per second of 16kHz S16 audio.
func New() *Engine {
	return &Engine{UtteranceBytes: 32000}
}

func (e *Engine) LoadModel(ctx context.Context, path string) (engine.Model, error) {
	if e.LoadDelay > 0 {
		select {
		case <-time.After(e.LoadDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.RequirePath {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %q", engine.ErrModelNotFound, path)
		}
	}
	return &model{path: path}, nil
}

func (e *Engine) NewRecognizer(m engine.Model, sampleRate float64) (engine.Recognizer, error) {
	fm, ok := m.(*model)
	if !ok {
		return nil, fmt.Errorf("model %T was not created by the fake engine", m)
	}
	fm.mu.Lock()
	freed := fm.freed
	fm.mu.Unlock()
	if freed {
		return nil, fmt.Errorf("model %q already freed", fm.path)
	}
	return &recognizer{
		rate:           sampleRate,
		utteranceBytes: e.UtteranceBytes,
	}, nil
}

type model struct {
	path string

	mu    sync.Mutex
	freed bool
}

func (m *model) Free() {
	m.mu.Lock()
	m.freed = true
	m.mu.Unlock()
}

type recognizer struct {
	rate           float64
	utteranceBytes int

	mu         sync.Mutex
	accepted   int // bytes in the current utterance
	utterances int
}

func (r *recognizer) SetMaxAlternatives(int) {}

func (r *recognizer) AcceptWaveform(data []byte) engine.AcceptStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accepted += len(data)
	if r.accepted >= r.utteranceBytes {
		return engine.AcceptFinal
	}
	return engine.AcceptMore
}

func (r *recognizer) Result() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	text := r.textLocked()
	r.accepted = 0
	r.utterances++
	return fmt.Sprintf(`{"text" : "%s"}`, text)
}

func (r *recognizer) PartialResult() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf(`{"partial" : "%s"}`, r.textLocked())
}

func (r *recognizer) FinalResult() string {
	return r.Result()
}

func (r *recognizer) Reset() {
	r.mu.Lock()
	r.accepted = 0
	r.mu.Unlock()
}

func (r *recognizer) Free() {}

// textLocked fabricates a transcript sized to the audio consumed, one word
// per tenth of an utterance.
func (r *recognizer) textLocked() string {
	words := r.accepted * 10 / r.utteranceBytes
	if words <= 0 {
		return ""
	}
	text := "word"
	for i := 1; i < words; i++ {
		text += " word"
	}
	return text
}
