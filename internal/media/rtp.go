package media

import (
	"context"
	"encoding/binary"
	"log/slog"
	"net"
	"time"

	"github.com/pion/rtp"

	"github.com/voskstream/voskstream/internal/pipeline"
)

// ServeRTP reads uncompressed L16 audio from RTP packets on conn and feeds
// it to the element. RTP carries samples big-endian; they are byte-swapped
// to the element's little-endian layout. Timestamps are derived from the
// RTP timestamp relative to the first packet. Returns when ctx is done,
// after signalling end of stream.
func ServeRTP(ctx context.Context, conn net.PacketConn, sampleRate int, el Element, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	if err := el.SetFormat(pipeline.Format{SampleRate: sampleRate}); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	raw := make([]byte, 1500)
	var baseTS uint32
	first := true
	for {
		n, _, err := conn.ReadFrom(raw)
		if err != nil {
			if ctx.Err() != nil {
				el.EndOfStream()
				return nil
			}
			return err
		}

		var pkt rtp.Packet
		if err := pkt.Unmarshal(raw[:n]); err != nil {
			log.Warn("dropping malformed rtp packet", slog.String("error", err.Error()))
			continue
		}
		if len(pkt.Payload) < 2 {
			continue
		}
		if first {
			baseTS = pkt.Timestamp
			first = false
		}

		samples := len(pkt.Payload) / 2
		data := make([]byte, samples*2)
		for i := 0; i < samples; i++ {
			binary.LittleEndian.PutUint16(data[2*i:], binary.BigEndian.Uint16(pkt.Payload[2*i:]))
		}

		pts := time.Duration(pkt.Timestamp-baseTS) * time.Second / time.Duration(sampleRate)
		if err := el.Chain(ctx, pipeline.Buffer{Data: data, PTS: pts}); err != nil {
			return err
		}
	}
}
