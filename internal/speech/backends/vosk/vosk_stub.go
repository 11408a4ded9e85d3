//go:build !vosk

package vosk

import (
	"errors"

	"github.com/voskstream/voskstream/internal/speech/engine"
	"github.com/voskstream/voskstream/internal/speech/registry"
)

func init() {
	registry.Engines.Register("vosk", func(map[string]string) (engine.Engine, error) {
		return nil, errors.New("built without vosk support; rebuild with -tags vosk and libvosk installed")
	})
}
