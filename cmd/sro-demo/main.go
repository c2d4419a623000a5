// Command sro-demo wires up the Speech Recognition Orchestrator against real
// Google Cloud and Redis backends and transcribes a single local audio file,
// for manual smoke-testing outside of any chat adapter.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/storage"
	"github.com/redis/go-redis/v9"

	"github.com/nopparoot15/saltybot/internal/histogram"
	"github.com/nopparoot15/saltybot/internal/langresolver"
	"github.com/nopparoot15/saltybot/internal/objectstore"
	"github.com/nopparoot15/saltybot/internal/observe"
	"github.com/nopparoot15/saltybot/internal/quota"
	"github.com/nopparoot15/saltybot/internal/recognizer/long"
	recsync "github.com/nopparoot15/saltybot/internal/recognizer/sync"
	"github.com/nopparoot15/saltybot/internal/sroconfig"
	"github.com/nopparoot15/saltybot/internal/transcode"
	"github.com/nopparoot15/saltybot/pkg/sro"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	inputPath := flag.String("input", "", "path to an audio file to transcribe")
	userID := flag.String("user", "demo-user", "quota key user id")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "sro-demo: -input is required")
		return 1
	}

	cfg, err := sroconfig.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "sro-demo: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "sro-demo: %v\n", err)
		}
		return 1
	}
	var level slog.Level
	if cfg.Server.LogLevel != "" {
		_ = level.UnmarshalText([]byte(cfg.Server.LogLevel))
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "sro-demo"})
	if err != nil {
		slog.Error("failed to init telemetry", "err", err)
		return 1
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Warn("sro-demo: telemetry shutdown error", "err", err)
		}
	}()

	svc, cleanup, err := buildServiceContext(ctx, cfg)
	if err != nil {
		slog.Error("failed to wire service context", "err", err)
		return 1
	}
	defer cleanup()

	orch, err := sro.New(&svc)
	if err != nil {
		slog.Error("failed to construct orchestrator", "err", err)
		return 1
	}

	attachment := sro.Attachment{
		Filename: *inputPath,
		Open: func() (io.ReadCloser, error) {
			return os.Open(*inputPath)
		},
	}
	if fi, statErr := os.Stat(*inputPath); statErr == nil {
		attachment.DeclaredSize = fi.Size()
	}

	result := orch.Transcribe(ctx, sro.TranscribeRequest{
		Attachment: attachment,
		UserID:     *userID,
		Progress:   consoleProgress{},
	})

	switch result.Kind {
	case sro.ResultSuccess:
		fmt.Printf("[%s] %s\n", result.Mode, result.Transcript)
		return 0
	case sro.ResultNoSpeech:
		fmt.Println("no intelligible speech detected")
		return 0
	case sro.ResultQuotaExceeded:
		fmt.Printf("quota exceeded: used=%d remaining=%d\n", result.Used, result.Remaining)
		return 1
	default:
		slog.Error("transcription failed", "err", result.Err)
		return 1
	}
}

// buildServiceContext constructs every [sro.ServiceContext] dependency from
// cfg, returning a cleanup func that closes the underlying clients.
func buildServiceContext(ctx context.Context, cfg *sroconfig.Config) (sro.ServiceContext, func(), error) {
	var closers []func() error

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Quota.RedisAddr, DB: cfg.Quota.RedisDB})
	closers = append(closers, rdb.Close)

	speechClient, err := gspeech.NewClient(ctx)
	if err != nil {
		return sro.ServiceContext{}, nil, fmt.Errorf("sro-demo: speech client: %w", err)
	}
	closers = append(closers, speechClient.Close)

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return sro.ServiceContext{}, nil, fmt.Errorf("sro-demo: storage client: %w", err)
	}
	closers = append(closers, storageClient.Close)

	objStore := objectstore.New(storageClient, cfg.Object.Bucket)
	hist := histogram.New(rdb)
	orchCfg := sroconfig.ToOrchestratorConfig(cfg)
	lang := langresolver.New(
		hist,
		cfg.Lang.DefaultPrimaryLanguage,
		cfg.Lang.StrictConfidenceThreshold,
	)
	lang.Options = langresolver.Options{
		DampJPWhenUncertain: cfg.Lang.DampJPWhenUncertain,
		JPMinWeight:         cfg.Lang.JPMinWeight,
	}

	svc := sro.ServiceContext{
		Quota:  quota.New(rdb),
		Object: objStore,
		Sync:   recsync.New(speechClient),
		Long: long.New(speechClient, objStore, long.Config{
			PollInterval:    time.Duration(orchCfg.LongPollIntervalSeconds) * time.Second,
			PollMax:         time.Duration(orchCfg.LongPollMaxSeconds) * time.Second,
			DeleteImmediate: orchCfg.ObjectDeleteImmediate,
			DeleteDelay:     time.Duration(orchCfg.ObjectDeleteDelaySeconds) * time.Second,
		}),
		Trans:  transcode.New(),
		Lang:   lang,
		Config: orchCfg,
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Warn("sro-demo: cleanup error", "err", err)
			}
		}
	}
	return svc, cleanup, nil
}

type consoleProgress struct{}

func (consoleProgress) Update(state, detail string) {
	slog.Info("progress", "state", state, "detail", detail)
}
