package config

import (
	"time"

	"github.com/pitabwire/frame/config"
)

// ServiceConfig holds configuration for the recognition service.
type ServiceConfig struct {
	config.ConfigurationDefault

	SpeechBackend    string `envDefault:"vosk"                  env:"SPEECH_BACKEND"`
	SpeechModel      string `envDefault:"/usr/share/vosk/model" env:"SPEECH_MODEL"`
	Alternatives     int    `envDefault:"0"                     env:"SPEECH_ALTERNATIVES"`
	PartialResultsMs int64  `envDefault:"0"                     env:"SPEECH_PARTIAL_RESULTS_MS"`
	BackendLogLevel  string `envDefault:""                      env:"SPEECH_BACKEND_LOG_LEVEL"`

	ModelManifestDir string `envDefault:"" env:"MODEL_MANIFEST_DIR"`

	RTPListenAddr string `envDefault:""     env:"RTP_LISTEN_ADDR"`
	RTPSampleRate int    `envDefault:"8000" env:"RTP_SAMPLE_RATE"`

	TranscriptsEnabled bool   `envDefault:"false" env:"TRANSCRIPTS_ENABLED"`
	TranscriptLanguage string `envDefault:""      env:"TRANSCRIPT_LANGUAGE"`
}

// PartialInterval converts the configured pacing to a duration. Negative
// values disable partial results.
func (c *ServiceConfig) PartialInterval() time.Duration {
	return time.Duration(c.PartialResultsMs) * time.Millisecond
}
