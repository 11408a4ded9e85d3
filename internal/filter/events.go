package filter

// Flush discards queued audio and resets the decoding session without
// emitting results. Used on seeks and stream discontinuities.
func (e *Element) Flush() {
	e.streamMu.Lock()
	defer e.streamMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue = nil
	e.prevPartial = ""
	e.processed = 0
	e.sinceCheck = 0
	if e.rec != nil {
		e.rec.Reset()
	}
}

// EndOfStream flushes the recognizer and posts the final result for the
// audio received since the last utterance boundary. Posts nothing when no
// audio accumulated.
func (e *Element) EndOfStream() {
	e.streamMu.Lock()
	defer e.streamMu.Unlock()
	e.mu.Lock()
	result := e.finalResultLocked()
	e.mu.Unlock()

	e.postResult(result)
}

// FinalResults forces a final result out of the recognizer and returns it
// directly instead of posting it to the bus. Returns "" when no audio
// accumulated since the last utterance.
func (e *Element) FinalResults() string {
	e.streamMu.Lock()
	defer e.streamMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finalResultLocked()
}
