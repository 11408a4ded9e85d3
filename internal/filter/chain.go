package filter

import (
	"context"
	"log/slog"

	"github.com/voskstream/voskstream/internal/pipeline"
	"github.com/voskstream/voskstream/internal/speech/engine"
)

// Chain processes one buffer of audio and then forwards it downstream
// unchanged. While a model load is pending the audio is queued instead of
// decoded; once the recognizer exists the queue is drained before the new
// buffer, preserving arrival order. Without a recognizer and without a
// pending load the audio passes through untouched.
func (e *Element) Chain(ctx context.Context, buf pipeline.Buffer) error {
	e.streamMu.Lock()
	e.mu.Lock()
	switch {
	case e.buffering:
		e.queue = append(e.queue, buf)
	case e.rec != nil:
		if len(e.queue) > 0 {
			e.queue = append(e.queue, buf)
			e.drainLocked()
		} else {
			e.handleBufferLocked(buf)
		}
	default:
		e.log.Warn("no recognizer, passing audio through", slog.String("element", e.name))
	}
	e.mu.Unlock()
	e.streamMu.Unlock()

	return e.sink.Push(ctx, buf)
}

// drainLocked decodes the buffering queue FIFO, releasing the state lock
// every drainBatch buffers so property changes are not starved for the whole
// backlog. streamMu stays held, so no new audio interleaves.
func (e *Element) drainLocked() {
	for len(e.queue) > 0 {
		n := len(e.queue)
		if n > drainBatch {
			n = drainBatch
		}
		for _, b := range e.queue[:n] {
			e.handleBufferLocked(b)
		}
		e.queue = e.queue[n:]
		if len(e.queue) == 0 {
			e.queue = nil
			return
		}

		e.mu.Unlock()
		e.mu.Lock()
		if e.rec == nil || e.buffering {
			// Session torn down or a new load started mid-drain.
			if e.rec == nil {
				e.queue = nil
			}
			return
		}
	}
}

// handleBufferLocked feeds one buffer to the recognizer and decides whether
// to ask for a result. Two pacing guards apply before any result call: when
// the buffer lags the clock by more than lateThreshold, results are checked
// only once per second of audio so decoding can catch up; and an utterance
// under a tenth of a second of audio is too short for a meaningful result.
func (e *Element) handleBufferLocked(buf pipeline.Buffer) {
	if len(buf.Data) == 0 {
		return
	}

	status := e.rec.AcceptWaveform(buf.Data)
	if status == engine.AcceptError {
		e.log.Error("recognizer rejected audio",
			slog.String("element", e.name),
			slog.Int("bytes", len(buf.Data)))
		return
	}

	size := uint64(len(buf.Data))
	e.processed += size
	e.sinceCheck += size

	byteRate := uint64(e.rate) * bytesPerSample
	if drift := e.clock() - buf.PTS; drift > lateThreshold {
		if e.sinceCheck < byteRate {
			return
		}
		e.sinceCheck = 0
	} else if e.processed <= uint64(e.rate)/10 {
		return
	}

	switch status {
	case engine.AcceptFinal:
		result := e.rec.Result()
		e.prevPartial = ""
		e.processed = 0
		e.sinceCheck = 0
		e.lastResultPTS = buf.PTS
		if !emptyField(result, "text") {
			e.postResult(result)
		}
	case engine.AcceptMore:
		if e.partialInterval < 0 {
			return
		}
		if e.partialInterval > 0 && buf.PTS-e.lastResultPTS < e.partialInterval {
			return
		}
		e.emitPartialLocked(buf.PTS)
	}
}
