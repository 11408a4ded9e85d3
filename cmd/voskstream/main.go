package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"

	vsconfig "github.com/voskstream/voskstream/config"
	"github.com/voskstream/voskstream/internal/control"
	"github.com/voskstream/voskstream/internal/filter"
	"github.com/voskstream/voskstream/internal/media"
	"github.com/voskstream/voskstream/internal/pipeline"
	"github.com/voskstream/voskstream/internal/speech/registry"
	"github.com/voskstream/voskstream/pkg/events"
	"github.com/voskstream/voskstream/pkg/modelstore"
	"github.com/voskstream/voskstream/pkg/transcripts"

	// Register recognition backends via init().
	_ "github.com/voskstream/voskstream/internal/speech/backends/fake"
	_ "github.com/voskstream/voskstream/internal/speech/backends/vosk"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWithOIDC[vsconfig.ServiceConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	eventRef := cfg.GetEventsQueueName()
	eventURL := cfg.GetEventsQueueURL()

	opts := []frame.Option{
		frame.WithConfig(&cfg),
		frame.WithName("voskstream"),
		frame.WithRegisterPublisher(eventRef, eventURL),
	}
	if cfg.TranscriptsEnabled {
		opts = append(opts, frame.WithDatastore())
	}
	ctx, srv := frame.NewService(opts...)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	pub := events.NewPublisher(srv.QueueManager(), "voskstream", eventRef)

	eng, err := registry.Engines.Create(cfg.SpeechBackend, map[string]string{
		"log_level": cfg.BackendLogLevel,
	})
	if err != nil {
		log.Fatalf("creating %q engine: %v", cfg.SpeechBackend, err)
	}

	modelPath := cfg.SpeechModel
	var store *modelstore.Store
	if cfg.ModelManifestDir != "" {
		store = modelstore.NewStore(cfg.ModelManifestDir)
		store.OnReload(func(loaded []modelstore.Entry) {
			pub.Emit(ctx, events.ModelsReloaded, "", &events.ModelsReloadedData{
				Manifest: cfg.ModelManifestDir,
				Models:   len(loaded),
			})
		})
		if _, err := store.LoadAll(); err != nil {
			log.Fatalf("loading model manifests: %v", err)
		}
		if d, ok := store.Default(); ok {
			modelPath = d.Path
		}
		go store.WatchAndReload(ctx.Done())
	}

	// Stream time for catch-up detection, rebased when the RTP feed starts.
	var epoch atomic.Int64
	epoch.Store(time.Now().UnixNano())
	clock := pipeline.Clock(func() time.Duration {
		return time.Duration(time.Now().UnixNano() - epoch.Load())
	})

	element := filter.New(filter.Config{
		Name:            "voskstream0",
		Engine:          eng,
		Bus:             events.NewBusAdapter(pub, "default", pool, nil),
		Clock:           clock,
		Pool:            pool,
		ModelPath:       modelPath,
		Alternatives:    cfg.Alternatives,
		PartialInterval: cfg.PartialInterval(),
	})

	mux := http.NewServeMux()
	control.NewHandler(element, pub, store).RegisterRoutes(mux)

	if res := element.ChangeState(pipeline.StatePlaying); res == pipeline.StateChangeFailure {
		log.Fatalf("starting element failed")
	}

	if cfg.RTPListenAddr != "" {
		conn, err := net.ListenPacket("udp", cfg.RTPListenAddr)
		if err != nil {
			log.Fatalf("listening for rtp on %q: %v", cfg.RTPListenAddr, err)
		}
		if err := pool.Submit(ctx, func() {
			start := time.Now()
			epoch.Store(start.UnixNano())
			pub.Emit(ctx, events.StreamStarted, "default", &events.StreamStartedData{
				SampleRate: cfg.RTPSampleRate,
				Origin:     "rtp",
			})
			if err := media.ServeRTP(ctx, conn, cfg.RTPSampleRate, element, nil); err != nil {
				log.Printf("rtp source stopped: %v", err)
			}
			pub.Emit(ctx, events.StreamEnded, "default", &events.StreamEndedData{
				DurationMs: time.Since(start).Milliseconds(),
			})
		}); err != nil {
			log.Fatalf("starting rtp source: %v", err)
		}
	}

	initOpts := []frame.Option{
		frame.WithHTTPHandler(control.H2CHandler(mux)),
	}
	if cfg.TranscriptsEnabled {
		repo := transcripts.NewRepository(
			srv.DatastoreManager().GetPool(ctx, "__default__pool_name__"),
		)
		sub := &transcripts.Subscriber{Repo: repo, Language: cfg.TranscriptLanguage}
		initOpts = append(initOpts,
			frame.WithRegisterSubscriber(eventRef+".transcripts", eventURL, sub),
		)
	}
	srv.Init(ctx, initOpts...)

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}
