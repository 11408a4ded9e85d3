package registry

import "github.com/voskstream/voskstream/internal/speech/engine"

// Engines is the global registry of recognition-engine backends.
var Engines = New[engine.Engine]()
