// Package transcripts persists final recognition results so sessions can be
// reviewed after the audio is gone.
package transcripts

import (
	"github.com/pitabwire/frame/data"
)

// Transcript is one final recognition result tied to a stream.
type Transcript struct {
	data.BaseModel

	StreamID string `gorm:"type:varchar(50);not null;index:idx_tr_stream" json:"stream_id"`
	Text     string `gorm:"type:text;not null"                             json:"text"`
	Raw      string `gorm:"type:text"                                      json:"-"`
	Language string `gorm:"type:varchar(20)"                               json:"language,omitempty"`
}

func (Transcript) TableName() string { return "transcripts" }
