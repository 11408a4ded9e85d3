package filter

import (
	"encoding/json"
	"time"

	"github.com/voskstream/voskstream/internal/pipeline"
)

// finalResultLocked flushes the recognizer and returns the result of
// whatever audio accumulated since the last utterance boundary, or "" when
// nothing meaningful did. The utterance counters are cleared either way.
func (e *Element) finalResultLocked() string {
	if e.rec == nil || e.processed == 0 {
		return ""
	}
	result := e.rec.FinalResult()
	e.prevPartial = ""
	e.processed = 0
	e.sinceCheck = 0
	if emptyField(result, "text") {
		return ""
	}
	return result
}

// emitPartialLocked posts the recognizer's current partial result, skipping
// empty output and exact repeats of the last posted partial.
func (e *Element) emitPartialLocked(pts time.Duration) {
	partial := e.rec.PartialResult()
	if emptyField(partial, "partial") {
		return
	}
	if partial == e.prevPartial {
		return
	}
	e.prevPartial = partial
	e.lastResultPTS = pts
	e.postResult(partial)
}

// postResult posts result text to the bus verbatim. Empty text posts
// nothing.
func (e *Element) postResult(result string) {
	if result == "" {
		return
	}
	e.bus.Post(pipeline.Message{
		Type:   pipeline.MessageResult,
		Source: e.name,
		Fields: map[string]string{pipeline.FieldCurrentResult: result},
	})
}

func (e *Element) postError(err error) {
	e.bus.Post(pipeline.Message{
		Type:   pipeline.MessageError,
		Source: e.name,
		Fields: map[string]string{pipeline.FieldError: err.Error()},
	})
}

// emptyField reports whether text carries no recognition output: it is
// empty, or a JSON object whose only content is the named field holding an
// empty string. Anything else, including alternatives output, counts as
// content.
func emptyField(text, field string) bool {
	if text == "" {
		return true
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return false
	}
	return len(m) == 1 && m[field] == ""
}
