package filter

import (
	"fmt"

	"github.com/voskstream/voskstream/internal/pipeline"
	"github.com/voskstream/voskstream/internal/speech/engine"
)

// SetFormat negotiates the stream format. A sample-rate change while a
// recognizer exists flushes the old session first so its last utterance is
// not lost, then recreates the recognizer at the new rate.
func (e *Element) SetFormat(f pipeline.Format) error {
	if !supportedRates[f.SampleRate] {
		return fmt.Errorf("unsupported sample rate %d", f.SampleRate)
	}

	e.streamMu.Lock()
	defer e.streamMu.Unlock()
	e.mu.Lock()
	if f.SampleRate == e.negotiated {
		e.mu.Unlock()
		return nil
	}
	var result string
	if e.rec != nil && e.rate != f.SampleRate {
		result = e.finalResultLocked()
	}
	e.negotiated = f.SampleRate
	err := e.ensureRecognizerLocked(e.model, f.SampleRate)
	e.mu.Unlock()

	e.postResult(result)
	return err
}

// Format returns the negotiated stream format; a zero SampleRate means no
// format has been negotiated yet.
func (e *Element) Format() pipeline.Format {
	e.mu.Lock()
	defer e.mu.Unlock()
	return pipeline.Format{SampleRate: e.negotiated}
}

// ensureRecognizerLocked rebuilds the decoding session for the given model
// and rate. The old recognizer is always freed; no new one is created until
// both a model and a positive rate are known.
func (e *Element) ensureRecognizerLocked(model engine.Model, rate int) error {
	if e.rec != nil {
		e.rec.Free()
		e.rec = nil
	}
	if model == nil || rate <= 0 {
		return nil
	}
	rec, err := e.eng.NewRecognizer(model, float64(rate))
	if err != nil {
		return fmt.Errorf("creating recognizer at %d Hz: %w", rate, err)
	}
	rec.SetMaxAlternatives(e.alternatives)
	e.rec = rec
	e.rate = rate
	e.processed = 0
	e.sinceCheck = 0
	e.prevPartial = ""
	return nil
}
