package media

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/voskstream/voskstream/internal/pipeline"
)

const defaultChunk = 100 * time.Millisecond

// StreamWAV decodes a 16-bit mono WAV file and pushes it through the
// element in chunks with accumulating timestamps, ending with an
// end-of-stream. chunk controls how much audio each buffer carries; zero
// uses 100ms.
func StreamWAV(ctx context.Context, path string, el Element, chunk time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	if d.NumChans != 1 {
		return fmt.Errorf("%q has %d channels, want mono", path, d.NumChans)
	}
	if d.BitDepth != 16 {
		return fmt.Errorf("%q has %d-bit samples, want 16", path, d.BitDepth)
	}

	rate := int(d.SampleRate)
	if err := el.SetFormat(pipeline.Format{SampleRate: rate}); err != nil {
		return err
	}

	if chunk <= 0 {
		chunk = defaultChunk
	}
	samples := int(int64(rate) * int64(chunk) / int64(time.Second))
	if samples <= 0 {
		samples = 1
	}
	intBuf := &audio.IntBuffer{
		Data:   make([]int, samples),
		Format: &audio.Format{NumChannels: 1, SampleRate: rate},
	}

	var pts time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := d.PCMBuffer(intBuf)
		if n == 0 {
			if err != nil {
				return fmt.Errorf("decode %q: %w", path, err)
			}
			break
		}

		data := make([]byte, n*2)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint16(data[2*i:], uint16(int16(intBuf.Data[i])))
		}
		if err := el.Chain(ctx, pipeline.Buffer{Data: data, PTS: pts}); err != nil {
			return err
		}
		pts += time.Duration(n) * time.Second / time.Duration(rate)

		if err != nil {
			break
		}
	}

	el.EndOfStream()
	return nil
}
