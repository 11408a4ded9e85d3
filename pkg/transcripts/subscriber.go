package transcripts

import (
	"context"
	"encoding/json"

	"github.com/pitabwire/util"

	"github.com/voskstream/voskstream/pkg/events"
)

// Subscriber implements queue.SubscribeWorker to persist final speech
// results. Partial results are revisable and are never stored.
type Subscriber struct {
	Repo     *Repository
	Language string
}

// Handle is called by frame's pub/sub for each event message.
func (s *Subscriber) Handle(ctx context.Context, _ map[string]string, message []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		util.Log(ctx).WithError(err).Error("transcript subscriber: unmarshal envelope")
		return err
	}

	if env.Type != events.SpeechFinal {
		return nil
	}

	var data events.SpeechResultData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		util.Log(ctx).WithError(err).Error("transcript subscriber: unmarshal result")
		return err
	}

	text := ExtractText(data.Result)
	if text == "" {
		return nil
	}

	tr := &Transcript{
		StreamID: env.StreamID,
		Text:     text,
		Raw:      data.Result,
		Language: s.Language,
	}
	if err := s.Repo.Create(ctx, tr); err != nil {
		util.Log(ctx).WithError(err).Error("transcript subscriber: store transcript")
		return err
	}
	return nil
}

// ExtractText pulls the plain transcript out of an engine result. Both the
// single-best shape {"text": ...} and the alternatives shape
// {"alternatives": [{"text": ...}, ...]} are understood; anything else
// yields "".
func ExtractText(result string) string {
	var single struct {
		Text         string `json:"text"`
		Alternatives []struct {
			Text string `json:"text"`
		} `json:"alternatives"`
	}
	if err := json.Unmarshal([]byte(result), &single); err != nil {
		return ""
	}
	if single.Text != "" {
		return single.Text
	}
	if len(single.Alternatives) > 0 {
		return single.Alternatives[0].Text
	}
	return ""
}
