package media

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pion/rtp"
)

func TestServeRTP(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	el := &recordElement{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeRTP(ctx, conn, 8000, el, nil) }()

	client, err := net.Dial("udp", conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	send := func(seq uint16, ts uint32, payload []byte) {
		t.Helper()
		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    96,
				SequenceNumber: seq,
				Timestamp:      ts,
				SSRC:           42,
			},
			Payload: payload,
		}
		raw, err := pkt.Marshal()
		if err != nil {
			t.Fatalf("marshal packet: %v", err)
		}
		if _, err := client.Write(raw); err != nil {
			t.Fatalf("send packet: %v", err)
		}
	}

	// Two samples, big-endian on the wire: 256 and 512.
	send(1, 8000, []byte{0x01, 0x00, 0x02, 0x00})
	send(2, 8160, []byte{0x03, 0x00, 0x04, 0x00})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		el.mu.Lock()
		n := len(el.bufs)
		el.mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("ServeRTP: %v", err)
	}

	el.mu.Lock()
	defer el.mu.Unlock()
	if el.format.SampleRate != 8000 {
		t.Errorf("sample rate = %d, want 8000", el.format.SampleRate)
	}
	if len(el.bufs) < 2 {
		t.Fatalf("received %d buffers, want 2", len(el.bufs))
	}
	// Byte-swapped to little endian.
	if b := el.bufs[0].Data; len(b) != 4 || b[0] != 0x00 || b[1] != 0x01 {
		t.Errorf("first payload = %v, want little-endian samples", b)
	}
	// 160 ticks at 8kHz is 20ms.
	if el.bufs[1].PTS != 20*time.Millisecond {
		t.Errorf("second packet PTS = %v, want 20ms", el.bufs[1].PTS)
	}
	if !el.eos {
		t.Error("no end of stream after shutdown")
	}
}
