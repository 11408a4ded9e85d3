package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pitabwire/frame/workerpool"

	"github.com/voskstream/voskstream/internal/pipeline"
)

// BusAdapter bridges element bus messages onto the event publisher. Post
// never blocks the data path: emission runs on the worker pool, or on a
// goroutine without one.
type BusAdapter struct {
	pub      *Publisher
	streamID string
	pool     workerpool.WorkerPool
	log      *slog.Logger
}

// NewBusAdapter creates an adapter publishing under the given stream id.
func NewBusAdapter(pub *Publisher, streamID string, pool workerpool.WorkerPool, log *slog.Logger) *BusAdapter {
	if log == nil {
		log = slog.Default()
	}
	return &BusAdapter{pub: pub, streamID: streamID, pool: pool, log: log}
}

// Post converts an element message into a typed event. Result messages are
// classified by their payload: revisable output carries a "partial" field,
// everything else is final.
func (a *BusAdapter) Post(msg pipeline.Message) {
	emit := func() {
		ctx := context.Background()
		var err error
		switch msg.Type {
		case pipeline.MessageResult:
			result := msg.Fields[pipeline.FieldCurrentResult]
			eventType := SpeechFinal
			if isPartial(result) {
				eventType = SpeechPartial
			}
			err = a.pub.Emit(ctx, eventType, a.streamID, &SpeechResultData{Result: result})
		case pipeline.MessageAsyncStart:
			err = a.pub.Emit(ctx, ElementAsyncStart, a.streamID, nil)
		case pipeline.MessageAsyncDone:
			err = a.pub.Emit(ctx, ElementAsyncDone, a.streamID, nil)
		case pipeline.MessageError:
			err = a.pub.Emit(ctx, SystemError, a.streamID, &ErrorData{Error: msg.Fields[pipeline.FieldError]})
		default:
			return
		}
		if err != nil {
			a.log.Warn("publishing element event failed",
				slog.String("type", string(msg.Type)),
				slog.String("error", err.Error()))
		}
	}

	if a.pool != nil {
		if err := a.pool.Submit(context.Background(), emit); err == nil {
			return
		}
	}
	go emit()
}

func isPartial(result string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(result), &fields); err != nil {
		return false
	}
	_, ok := fields["partial"]
	return ok
}
