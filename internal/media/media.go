// Package media feeds audio from outside sources into a recognition
// element: WAV files for batch transcription and RTP/L16 for network
// streams.
package media

import (
	"context"

	"github.com/voskstream/voskstream/internal/pipeline"
)

// Element is the slice of the recognition element a source drives.
type Element interface {
	SetFormat(f pipeline.Format) error
	Chain(ctx context.Context, buf pipeline.Buffer) error
	EndOfStream()
}
