package filter

import (
	"context"
	"testing"
	"time"

	"github.com/voskstream/voskstream/internal/pipeline"
)

func TestBufferingQueueDrainsInOrder(t *testing.T) {
	gate := make(chan struct{})
	te := &testEngine{gate: gate, finalEvery: 16000, partialStep: 4000}
	bus := newRecordingBus()
	sink := &recordingSink{}
	e := New(Config{Engine: te, Bus: bus, Sink: sink, ModelPath: "/models/en"})

	if err := e.SetFormat(pipeline.Format{SampleRate: 8000}); err != nil {
		t.Fatalf("SetFormat: %v", err)
	}
	if res := e.ChangeState(pipeline.StatePaused); res != pipeline.StateChangeAsync {
		t.Fatalf("ChangeState(paused) = %v, want async", res)
	}

	// Audio arriving before the model is ready queues for later but is still
	// forwarded downstream immediately.
	for i := 0; i < 3; i++ {
		if err := e.Chain(context.Background(), buf(4000, time.Duration(i)*500*time.Millisecond)); err != nil {
			t.Fatalf("Chain #%d: %v", i, err)
		}
	}
	if got := sink.count(); got != 3 {
		t.Fatalf("forwarded %d buffers while buffering, want 3", got)
	}
	if got := bus.results(); len(got) != 0 {
		t.Fatalf("results while buffering = %v, want none", got)
	}

	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := e.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}

	// The next buffer drains the backlog first: three partials for the
	// queued audio, then the utterance boundary on the fourth buffer.
	if err := e.Chain(context.Background(), buf(4000, 1500*time.Millisecond)); err != nil {
		t.Fatalf("Chain #4: %v", err)
	}
	want := []string{
		`{"partial" : "heard 1"}`,
		`{"partial" : "heard 2"}`,
		`{"partial" : "heard 3"}`,
		`{"text" : "utterance 1"}`,
	}
	got := bus.results()
	if len(got) != len(want) {
		t.Fatalf("results = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("result[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := sink.count(); got != 4 {
		t.Fatalf("forwarded %d buffers, want 4", got)
	}
}

func TestForwardsWithoutRecognizer(t *testing.T) {
	bus := newRecordingBus()
	sink := &recordingSink{}
	e := New(Config{Engine: &testEngine{}, Bus: bus, Sink: sink})

	if err := e.Chain(context.Background(), buf(4000, 0)); err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if got := sink.count(); got != 1 {
		t.Fatalf("forwarded %d buffers, want 1", got)
	}
	if got := bus.results(); len(got) != 0 {
		t.Fatalf("results = %v, want none", got)
	}
}

func TestPartialDeduplication(t *testing.T) {
	te := &testEngine{partialStep: 8000}
	e, bus, _ := startedElement(t, te, Config{})

	// Four chunks whose partial text is identical; only the first posts.
	for i := 0; i < 4; i++ {
		if err := e.Chain(context.Background(), buf(1000, time.Duration(i)*125*time.Millisecond)); err != nil {
			t.Fatalf("Chain #%d: %v", i, err)
		}
	}
	got := bus.results()
	if len(got) != 1 || got[0] != `{"partial" : "heard 0"}` {
		t.Fatalf("results = %v, want one deduplicated partial", got)
	}
}

func TestPartialIntervalPacing(t *testing.T) {
	te := &testEngine{}
	e, bus, _ := startedElement(t, te, Config{PartialInterval: 200 * time.Millisecond})

	for _, pts := range []time.Duration{
		0,                      // too soon after stream start
		250 * time.Millisecond, // posts
		300 * time.Millisecond, // within the interval of the last post
		500 * time.Millisecond, // posts
	} {
		if err := e.Chain(context.Background(), buf(2000, pts)); err != nil {
			t.Fatalf("Chain at %v: %v", pts, err)
		}
	}
	if got := bus.results(); len(got) != 2 {
		t.Fatalf("results = %v, want 2 paced partials", got)
	}
}

func TestPartialsDisabled(t *testing.T) {
	te := &testEngine{finalEvery: 16000}
	e, bus, _ := startedElement(t, te, Config{PartialInterval: -1})

	for i := 0; i < 4; i++ {
		if err := e.Chain(context.Background(), buf(4000, time.Duration(i)*500*time.Millisecond)); err != nil {
			t.Fatalf("Chain #%d: %v", i, err)
		}
	}
	got := bus.results()
	if len(got) != 1 || got[0] != `{"text" : "utterance 1"}` {
		t.Fatalf("results = %v, want only the utterance boundary", got)
	}
}

func TestCatchUpSkipsResultChecks(t *testing.T) {
	te := &testEngine{}
	// A clock far ahead of the buffer timestamps puts every buffer in
	// catch-up mode.
	clock := func() time.Duration { return 10 * time.Second }
	e, bus, _ := startedElement(t, te, Config{Clock: clock})

	// One second of 8kHz audio is 16000 bytes; the first three buffers stay
	// under that, so no result call happens for them.
	for i := 0; i < 3; i++ {
		if err := e.Chain(context.Background(), buf(4000, time.Duration(i)*500*time.Millisecond)); err != nil {
			t.Fatalf("Chain #%d: %v", i, err)
		}
	}
	if got := bus.results(); len(got) != 0 {
		t.Fatalf("results while catching up = %v, want none", got)
	}

	if err := e.Chain(context.Background(), buf(4000, 1500*time.Millisecond)); err != nil {
		t.Fatalf("Chain #4: %v", err)
	}
	if got := bus.results(); len(got) != 1 {
		t.Fatalf("results = %v, want one check per second of audio", got)
	}
}

func TestShortUtteranceSuppressed(t *testing.T) {
	te := &testEngine{finalEvery: 400}
	e, bus, _ := startedElement(t, te, Config{})

	// 500 bytes is under a tenth of a second at 8kHz, so even an utterance
	// boundary yields no result yet.
	if err := e.Chain(context.Background(), buf(500, 0)); err != nil {
		t.Fatalf("Chain #1: %v", err)
	}
	if got := bus.results(); len(got) != 0 {
		t.Fatalf("results for short utterance = %v, want none", got)
	}

	if err := e.Chain(context.Background(), buf(500, 62*time.Millisecond)); err != nil {
		t.Fatalf("Chain #2: %v", err)
	}
	if got := bus.results(); len(got) != 1 {
		t.Fatalf("results = %v, want 1 once enough audio accumulated", got)
	}
}

func TestRecognizerErrorStillForwards(t *testing.T) {
	te := &testEngine{}
	e, bus, sink := startedElement(t, te, Config{})

	rec := te.lastRecognizer()
	rec.mu.Lock()
	rec.failNext = true
	rec.mu.Unlock()

	if err := e.Chain(context.Background(), buf(4000, 0)); err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if got := sink.count(); got != 1 {
		t.Fatalf("forwarded %d buffers, want 1", got)
	}
	if got := bus.results(); len(got) != 0 {
		t.Fatalf("results = %v, want none after engine error", got)
	}
}

func TestEmptyBufferIgnored(t *testing.T) {
	te := &testEngine{}
	e, bus, sink := startedElement(t, te, Config{})

	if err := e.Chain(context.Background(), pipeline.Buffer{}); err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if got := sink.count(); got != 1 {
		t.Fatalf("forwarded %d buffers, want 1", got)
	}
	if got := bus.results(); len(got) != 0 {
		t.Fatalf("results = %v, want none", got)
	}
}
