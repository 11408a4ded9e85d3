// Command transcribe runs WAV files through a recognition model and prints
// the results as JSON lines on stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/voskstream/voskstream/internal/filter"
	"github.com/voskstream/voskstream/internal/media"
	"github.com/voskstream/voskstream/internal/pipeline"
	"github.com/voskstream/voskstream/internal/speech/registry"

	// Register recognition backends via init().
	_ "github.com/voskstream/voskstream/internal/speech/backends/fake"
	_ "github.com/voskstream/voskstream/internal/speech/backends/vosk"
)

func main() {
	var (
		backend      = flag.String("backend", "vosk", "recognition backend")
		model        = flag.String("model", "/usr/share/vosk/model", "path to the speech model")
		alternatives = flag.Int("alternatives", 0, "number of result alternatives")
		partials     = flag.Bool("partials", false, "print partial results too")
		chunkMs      = flag.Int("chunk", 100, "audio chunk size in milliseconds")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: transcribe [flags] file.wav ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx := context.Background()

	eng, err := registry.Engines.Create(*backend, nil)
	if err != nil {
		slog.Error("creating engine", slog.String("backend", *backend), slog.String("error", err.Error()))
		os.Exit(1)
	}

	partialInterval := time.Duration(-1)
	if *partials {
		partialInterval = 0
	}

	bus := pipeline.BusFunc(func(msg pipeline.Message) {
		switch msg.Type {
		case pipeline.MessageResult:
			fmt.Println(msg.Fields[pipeline.FieldCurrentResult])
		case pipeline.MessageError:
			slog.Error("element error", slog.String("error", msg.Fields[pipeline.FieldError]))
		}
	})

	element := filter.New(filter.Config{
		Name:            "transcribe",
		Engine:          eng,
		Bus:             bus,
		ModelPath:       *model,
		Alternatives:    *alternatives,
		PartialInterval: partialInterval,
	})

	if res := element.ChangeState(pipeline.StatePlaying); res == pipeline.StateChangeFailure {
		os.Exit(1)
	}
	if err := element.WaitReady(ctx); err != nil {
		slog.Error("loading model", slog.String("path", *model), slog.String("error", err.Error()))
		os.Exit(1)
	}

	chunk := time.Duration(*chunkMs) * time.Millisecond
	for _, path := range flag.Args() {
		if err := media.StreamWAV(ctx, path, element, chunk); err != nil {
			slog.Error("transcribing", slog.String("file", path), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	element.ChangeState(pipeline.StateNull)
}
