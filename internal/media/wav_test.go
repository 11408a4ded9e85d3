package media

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/voskstream/voskstream/internal/pipeline"
)

type recordElement struct {
	mu     sync.Mutex
	format pipeline.Format
	bufs   []pipeline.Buffer
	eos    bool
}

func (r *recordElement) SetFormat(f pipeline.Format) error {
	r.mu.Lock()
	r.format = f
	r.mu.Unlock()
	return nil
}

func (r *recordElement) Chain(_ context.Context, buf pipeline.Buffer) error {
	r.mu.Lock()
	r.bufs = append(r.bufs, buf)
	r.mu.Unlock()
	return nil
}

func (r *recordElement) EndOfStream() {
	r.mu.Lock()
	r.eos = true
	r.mu.Unlock()
}

func (r *recordElement) totalBytes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, b := range r.bufs {
		total += len(b.Data)
	}
	return total
}

func writeWAV(t *testing.T, path string, sampleRate, numChans, numSamples int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, numChans, 1)
	data := make([]int, numSamples*numChans)
	for i := range data {
		data[i] = i % 1000
	}
	buf := &audio.IntBuffer{
		Data:   data,
		Format: &audio.Format{NumChannels: numChans, SampleRate: sampleRate},
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
}

func TestStreamWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speech.wav")
	writeWAV(t, path, 8000, 1, 1000)

	el := &recordElement{}
	if err := StreamWAV(context.Background(), path, el, 50*time.Millisecond); err != nil {
		t.Fatalf("StreamWAV: %v", err)
	}

	if el.format.SampleRate != 8000 {
		t.Errorf("sample rate = %d, want 8000", el.format.SampleRate)
	}
	if !el.eos {
		t.Error("no end of stream")
	}
	if got := el.totalBytes(); got != 2000 {
		t.Errorf("streamed %d bytes, want 2000", got)
	}
	// 50ms chunks at 8kHz are 400 samples each.
	if len(el.bufs) != 3 {
		t.Fatalf("got %d chunks, want 3", len(el.bufs))
	}
	if el.bufs[1].PTS != 50*time.Millisecond {
		t.Errorf("second chunk PTS = %v, want 50ms", el.bufs[1].PTS)
	}
	// Samples land little-endian: sample 1 has value 1.
	if b := el.bufs[0].Data; b[2] != 1 || b[3] != 0 {
		t.Errorf("sample 1 bytes = [%d %d], want [1 0]", b[2], b[3])
	}
}

func TestStreamWAVRejectsStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeWAV(t, path, 8000, 2, 100)

	if err := StreamWAV(context.Background(), path, &recordElement{}, 0); err == nil {
		t.Fatal("stereo input accepted, want error")
	}
}

func TestStreamWAVMissingFile(t *testing.T) {
	err := StreamWAV(context.Background(), filepath.Join(t.TempDir(), "absent.wav"), &recordElement{}, 0)
	if err == nil {
		t.Fatal("missing file accepted, want error")
	}
}
