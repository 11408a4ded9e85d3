//go:build vosk

// Package vosk adapts the libvosk bindings to the engine contract.
// Building it needs libvosk and the vosk-api headers; without the "vosk"
// build tag a stub that reports the missing support is compiled instead.
package vosk

import (
	"context"
	"fmt"

	voskapi "github.com/alphacep/vosk-api/go"

	"github.com/voskstream/voskstream/internal/speech/engine"
	"github.com/voskstream/voskstream/internal/speech/registry"
)

func init() {
	registry.Engines.Register("vosk", func(config map[string]string) (engine.Engine, error) {
		if config["log_level"] == "" {
			// Keep libvosk quiet unless explicitly asked for.
			voskapi.SetLogLevel(-1)
		}
		return New(), nil
	})
}

// Engine implements engine.Engine on top of libvosk.
type Engine struct{}

// New creates a Vosk engine.
func New() *Engine { return &Engine{} }

// LoadModel constructs a model from a filesystem path. Blocks for the full
// model initialization; libvosk offers no way to interrupt it, so ctx is
// only consulted before starting.
func (e *Engine) LoadModel(ctx context.Context, path string) (engine.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := voskapi.NewModel(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", engine.ErrModelNotFound, path, err)
	}
	return &model{m: m}, nil
}

// NewRecognizer creates a decoding session bound to the model and rate.
func (e *Engine) NewRecognizer(m engine.Model, sampleRate float64) (engine.Recognizer, error) {
	vm, ok := m.(*model)
	if !ok {
		return nil, fmt.Errorf("model %T was not created by the vosk engine", m)
	}
	r, err := voskapi.NewRecognizer(vm.m, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("creating vosk recognizer (rate %g): %w", sampleRate, err)
	}
	return &recognizer{r: r}, nil
}

type model struct {
	m *voskapi.VoskModel
}

func (m *model) Free() { m.m.Free() }

type recognizer struct {
	r *voskapi.VoskRecognizer
}

func (r *recognizer) SetMaxAlternatives(n int) { r.r.SetMaxAlternatives(n) }

func (r *recognizer) AcceptWaveform(data []byte) engine.AcceptStatus {
	return engine.AcceptStatus(r.r.AcceptWaveform(data))
}

// Result strings pass through SanitizeNumerics: libvosk formats floats with
// the process locale, which can yield comma decimal separators.
func (r *recognizer) Result() string {
	return engine.SanitizeNumerics(r.r.Result())
}

func (r *recognizer) PartialResult() string {
	return engine.SanitizeNumerics(r.r.PartialResult())
}

func (r *recognizer) FinalResult() string {
	return engine.SanitizeNumerics(r.r.FinalResult())
}

func (r *recognizer) Reset() { r.r.Reset() }

func (r *recognizer) Free() { r.r.Free() }
