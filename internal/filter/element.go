// Package filter implements the streaming speech-recognition element: it
// consumes raw S16LE mono audio buffers, feeds them to a recognition engine,
// posts transcription results to the host bus, and forwards every buffer
// downstream unchanged. Model loading is asynchronous so the data path never
// blocks on multi-second model initialization.
package filter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pitabwire/frame/workerpool"

	"github.com/voskstream/voskstream/internal/pipeline"
	"github.com/voskstream/voskstream/internal/speech/engine"
)

var (
	// ErrNoModelPath is returned when the element is asked to start decoding
	// without a model path configured.
	ErrNoModelPath = errors.New("no speech model path set")
	// ErrNotReady is returned by WaitReady when no model is installed and no
	// load is in progress.
	ErrNotReady = errors.New("no model loaded and no load in progress")
)

const (
	// lateThreshold is how far a buffer may lag the running clock before the
	// element switches to catch-up pacing and stops polling for results on
	// every buffer.
	lateThreshold = 500 * time.Millisecond

	// drainBatch is how many queued buffers are decoded per lock hold while
	// draining the buffering queue.
	drainBatch = 10

	// maxPendingLoads bounds concurrent load requests to one running plus one
	// queued; further requests coalesce into the queued one.
	maxPendingLoads = 2

	maxAlternatives = 100

	bytesPerSample = 2
)

var supportedRates = map[int]bool{
	8000:  true,
	11250: true,
	22500: true,
	32000: true,
	44100: true,
	48000: true,
	96000: true,
}

// Config carries the collaborators and initial properties of an Element.
// Engine is required; everything else has a usable zero value.
type Config struct {
	Name   string
	Engine engine.Engine
	Bus    pipeline.Bus
	Sink   pipeline.Sink
	Clock  pipeline.Clock
	Pool   workerpool.WorkerPool
	Log    *slog.Logger

	ModelPath    string
	Alternatives int
	// PartialInterval is the minimum stream time between posted results.
	// Zero posts at every opportunity, negative disables partial results.
	PartialInterval time.Duration
}

// Element is a recognition filter. All exported methods are safe for
// concurrent use; the data path (Chain, Flush, EndOfStream, SetFormat) is
// additionally serialized so buffers are decoded in arrival order.
type Element struct {
	name  string
	eng   engine.Engine
	bus   pipeline.Bus
	sink  pipeline.Sink
	clock pipeline.Clock
	pool  workerpool.WorkerPool
	log   *slog.Logger

	// streamMu serializes the data path. Lock order: streamMu before mu.
	streamMu sync.Mutex

	mu     sync.Mutex
	loaded *sync.Cond // signalled when model installs or loading stops

	state pipeline.State

	modelPath       string
	alternatives    int
	partialInterval time.Duration

	model      engine.Model
	rec        engine.Recognizer
	rate       int // rate the recognizer was created at
	negotiated int // rate from the last SetFormat

	processed     uint64 // bytes accepted since the last utterance boundary
	sinceCheck    uint64 // bytes accepted since the last catch-up result check
	prevPartial   string
	lastResultPTS time.Duration

	queue     []pipeline.Buffer
	buffering bool

	// loadMu serializes actual model loads so at most one engine load runs
	// at a time even when a second request is already queued.
	loadMu     sync.Mutex
	cancelLoad context.CancelFunc
	numLoading int
}

// New creates an element in the Null state.
func New(cfg Config) *Element {
	e := &Element{
		name:            cfg.Name,
		eng:             cfg.Engine,
		bus:             cfg.Bus,
		sink:            cfg.Sink,
		clock:           cfg.Clock,
		pool:            cfg.Pool,
		log:             cfg.Log,
		modelPath:       cfg.ModelPath,
		alternatives:    clampAlternatives(cfg.Alternatives),
		partialInterval: cfg.PartialInterval,
	}
	if e.name == "" {
		e.name = "voskstream"
	}
	if e.bus == nil {
		e.bus = pipeline.BusFunc(func(pipeline.Message) {})
	}
	if e.sink == nil {
		e.sink = pipeline.Discard
	}
	if e.clock == nil {
		e.clock = func() time.Duration { return 0 }
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	e.loaded = sync.NewCond(&e.mu)
	return e
}

func clampAlternatives(n int) int {
	if n < 0 {
		return 0
	}
	if n > maxAlternatives {
		return maxAlternatives
	}
	return n
}

// State returns the element's current lifecycle state.
func (e *Element) State() pipeline.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ChangeState moves the element to the requested state. Entering Paused from
// below triggers the model load: the transition returns StateChangeAsync and
// resolves later with an async-done or error message. Leaving Paused
// downward tears the decoding session down.
func (e *Element) ChangeState(next pipeline.State) pipeline.StateChangeResult {
	e.mu.Lock()
	prev := e.state
	e.mu.Unlock()

	if next == prev {
		return pipeline.StateChangeSuccess
	}

	if next > prev {
		res := pipeline.StateChangeSuccess
		if prev < pipeline.StatePaused && next >= pipeline.StatePaused {
			res = e.prepare()
			if res == pipeline.StateChangeFailure {
				return res
			}
		}
		e.mu.Lock()
		e.state = next
		e.mu.Unlock()
		return res
	}

	if prev >= pipeline.StatePaused && next < pipeline.StatePaused {
		e.reset()
	}
	e.mu.Lock()
	e.state = next
	e.mu.Unlock()
	return pipeline.StateChangeSuccess
}

// prepare readies the decoding session for Paused: immediate success when a
// model is already installed, failure when no path is configured, otherwise
// an asynchronous load.
func (e *Element) prepare() pipeline.StateChangeResult {
	e.mu.Lock()
	hasModel := e.model != nil
	path := e.modelPath
	e.mu.Unlock()

	if hasModel {
		return pipeline.StateChangeSuccess
	}
	if path == "" {
		e.log.Warn("cannot start decoding", slog.String("element", e.name), slog.String("error", ErrNoModelPath.Error()))
		e.postError(ErrNoModelPath)
		return pipeline.StateChangeFailure
	}
	return e.requestLoad()
}

// reset tears down the decoding session: cancels any pending load, drops
// queued audio, and frees the recognizer and model.
func (e *Element) reset() {
	e.streamMu.Lock()
	defer e.streamMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancelLoad != nil {
		e.cancelLoad()
		e.cancelLoad = nil
	}
	e.queue = nil
	e.buffering = false
	e.prevPartial = ""
	e.processed = 0
	e.sinceCheck = 0
	e.lastResultPTS = 0
	if e.rec != nil {
		e.rec.Free()
		e.rec = nil
	}
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	e.rate = 0
	e.negotiated = 0
	e.loaded.Broadcast()
}

// WaitReady blocks until a model is installed, the outstanding load resolves
// without one, or ctx is done. It returns ErrNotReady when no load is in
// progress and no model exists.
func (e *Element) WaitReady(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		e.mu.Lock()
		e.loaded.Broadcast()
		e.mu.Unlock()
	})
	defer stop()

	for e.model == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.numLoading == 0 {
			return ErrNotReady
		}
		e.loaded.Wait()
	}
	return nil
}

// ModelPath returns the configured model path.
func (e *Element) ModelPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modelPath
}

// SetModelPath changes the model path. Setting the same path is a no-op.
// Setting an empty path cancels any pending load, frees the current model,
// and demotes a running element to Ready. Otherwise a load starts
// immediately when a model is already installed or the element is at least
// Paused; below Paused the load is deferred to the upward transition.
func (e *Element) SetModelPath(path string) {
	e.mu.Lock()
	if path == e.modelPath {
		e.mu.Unlock()
		return
	}
	e.modelPath = path
	state := e.state
	hasModel := e.model != nil
	e.mu.Unlock()

	if path == "" {
		if state >= pipeline.StatePaused {
			e.ChangeState(pipeline.StateReady)
		} else {
			e.reset()
		}
		return
	}

	if hasModel || state >= pipeline.StatePaused {
		e.requestLoad()
	}
}

// Alternatives returns the configured number of result alternatives.
func (e *Element) Alternatives() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alternatives
}

// SetAlternatives reconfigures how many alternatives the recognizer reports,
// clamped to [0, 100]. A live recognizer is updated in place; otherwise the
// value applies when the next recognizer is created.
func (e *Element) SetAlternatives(n int) {
	n = clampAlternatives(n)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alternatives = n
	if e.rec != nil {
		e.rec.SetMaxAlternatives(n)
	}
}

// PartialInterval returns the minimum stream time between posted results.
func (e *Element) PartialInterval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.partialInterval
}

// SetPartialInterval changes the pacing of partial results. Zero posts at
// every opportunity; a negative value disables partial results entirely.
func (e *Element) SetPartialInterval(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.partialInterval = d
}
