package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/voskstream/voskstream/internal/pipeline"
)

// requestLoad starts an asynchronous model load. While the load is pending
// the element buffers incoming audio instead of decoding it. A request made
// while two loads are already pending coalesces: the queued load reads the
// path when it starts, so it serves this request too.
func (e *Element) requestLoad() pipeline.StateChangeResult {
	e.mu.Lock()
	if e.numLoading >= maxPendingLoads {
		e.mu.Unlock()
		return pipeline.StateChangeSuccess
	}
	e.numLoading++
	e.buffering = true
	if e.cancelLoad != nil {
		// Supersede the load already in flight.
		e.cancelLoad()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancelLoad = cancel
	e.mu.Unlock()

	e.bus.Post(pipeline.Message{Type: pipeline.MessageAsyncStart, Source: e.name})
	e.submit(func() { e.loadWorker(ctx) })
	return pipeline.StateChangeAsync
}

func (e *Element) submit(fn func()) {
	if e.pool != nil {
		if err := e.pool.Submit(context.Background(), fn); err == nil {
			return
		}
		e.log.Warn("worker pool rejected model load, running on a goroutine", slog.String("element", e.name))
	}
	go fn()
}

// loadWorker performs one model load. Loads are serialized on loadMu; a
// worker that was superseded while waiting its turn exits without touching
// the session.
func (e *Element) loadWorker(ctx context.Context) {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	e.mu.Lock()
	if ctx.Err() != nil {
		e.finishLoadLocked()
		e.mu.Unlock()
		return
	}
	e.cleanSessionLocked()
	path := e.modelPath
	e.mu.Unlock()

	e.log.Info("loading speech model", slog.String("element", e.name), slog.String("path", path))
	start := time.Now()
	model, err := e.eng.LoadModel(ctx, path)

	e.mu.Lock()
	if err != nil {
		pending := e.finishLoadLocked()
		e.mu.Unlock()
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		e.log.Error("loading speech model failed",
			slog.String("element", e.name),
			slog.String("path", path),
			slog.String("error", err.Error()))
		if !pending {
			e.postError(fmt.Errorf("loading model %q: %w", path, err))
			e.ChangeState(pipeline.StateReady)
		}
		return
	}
	if ctx.Err() != nil {
		// Superseded while the engine was constructing the model; the model
		// was never installed, so it is ours to free.
		e.finishLoadLocked()
		e.mu.Unlock()
		model.Free()
		return
	}

	e.model = model
	recErr := e.ensureRecognizerLocked(model, e.negotiated)
	pending := e.finishLoadLocked()
	e.mu.Unlock()

	if recErr != nil {
		e.log.Error("creating recognizer failed",
			slog.String("element", e.name),
			slog.String("error", recErr.Error()))
		if !pending {
			e.postError(recErr)
			e.ChangeState(pipeline.StateReady)
		}
		return
	}

	e.log.Info("speech model ready",
		slog.String("element", e.name),
		slog.String("path", path),
		slog.Duration("elapsed", time.Since(start)))
	e.bus.Post(pipeline.Message{Type: pipeline.MessageAsyncDone, Source: e.name})
}

// finishLoadLocked retires one pending load. When it was the last one,
// buffering stops and waiters are woken. Reports whether another load is
// still pending.
func (e *Element) finishLoadLocked() (pending bool) {
	e.numLoading--
	if e.numLoading <= 0 {
		e.numLoading = 0
		e.buffering = false
		e.loaded.Broadcast()
		return false
	}
	return true
}

// cleanSessionLocked frees the current recognizer and model ahead of
// installing a replacement.
func (e *Element) cleanSessionLocked() {
	if e.rec != nil {
		e.rec.Free()
		e.rec = nil
	}
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	e.prevPartial = ""
	e.processed = 0
	e.sinceCheck = 0
}
