package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vidplan-labs/vidplan-core/internal/activity"
	"github.com/vidplan-labs/vidplan-core/internal/bus"
	"github.com/vidplan-labs/vidplan-core/internal/chat"
	"github.com/vidplan-labs/vidplan-core/internal/config"
	"github.com/vidplan-labs/vidplan-core/internal/httpapi"
	"github.com/vidplan-labs/vidplan-core/internal/image"
	"github.com/vidplan-labs/vidplan-core/internal/llm"
	"github.com/vidplan-labs/vidplan-core/internal/music"
	"github.com/vidplan-labs/vidplan-core/internal/natsserver"
	"github.com/vidplan-labs/vidplan-core/internal/plan"
	"github.com/vidplan-labs/vidplan-core/internal/preview"
	"github.com/vidplan-labs/vidplan-core/internal/providers"
	"github.com/vidplan-labs/vidplan-core/internal/tts"
)

// Runtime owns the lifecycle of every studio subsystem: telemetry, the
// message bus, the activity log, the generation backends, and the HTTP API.
type Runtime struct {
	cfg    config.Config
	logger *slog.Logger

	tracerClose func(context.Context) error
	embedded    *natsserver.EmbeddedServer
	busClient   *bus.Client
	activityLog *activity.Log
	registry    *providers.Registry
	speechSvc   *tts.Service
	apiServer   *httpapi.Server
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	busCfg := r.cfg.Bus
	if r.cfg.Bus.Embedded {
		embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
		if err != nil {
			return fmt.Errorf("failed to start embedded bus: %w", err)
		}
		r.embedded = embedded
		if url := embedded.ClientURL(); url != "" {
			busCfg.Servers = []string{url}
		}
	}

	busClient, err := bus.Connect(ctx, busCfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to bus: %w", err)
	}
	r.busClient = busClient

	activityLog, err := activity.Open(ctx, r.cfg.ActivityLog, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open activity log: %w", err)
	}
	r.activityLog = activityLog

	registry, err := providers.NewRegistry(ctx, busClient, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start provider registry: %w", err)
	}
	r.registry = registry

	router, err := r.buildSpeechRouter()
	if err != nil {
		return err
	}
	router.SetReporter(registry)
	r.speechSvc = tts.NewService(ctx, busClient, router, r.logger)
	if err := r.speechSvc.Start(); err != nil {
		return fmt.Errorf("failed to start speech service: %w", err)
	}

	generator, err := r.buildGenerator()
	if err != nil {
		return err
	}
	assembler := plan.NewAssembler(generator, r.logger)
	assembler.SetDefaults(plan.Defaults{
		Style: r.cfg.Planner.DefaultStyle,
		Ratio: r.cfg.Planner.DefaultRatio,
		Voice: r.cfg.Planner.DefaultVoice,
	})
	planner := newAnnouncingPlanner(assembler, busClient.Conn().Publish, registry, r.logger)

	var chatSvc *chat.Service
	if r.cfg.Chat.Enabled {
		chatSvc = chat.NewService(generator, r.logger)
		chatSvc.SetThinkingBudget(r.cfg.Chat.ThinkingBudget)
	}

	r.apiServer = httpapi.NewServer(r.cfg.HTTP, httpapi.Deps{
		Planner:   planner,
		Speaker:   router,
		Images:    r.buildImageGenerator(),
		Music:     music.NewService(music.NewSpeechComposer(router), r.logger),
		Chat:      chatSvc,
		Preview:   preview.NewTracker(),
		Providers: registry,
		Activity:  activityLog,
		Bus:       busClient,
	}, r.logger)
	if err := r.apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start http api: %w", err)
	}

	r.logger.Info("runtime started",
		slog.String("llm_mode", r.cfg.LLM.Mode),
		slog.String("speech_mode", r.cfg.Speech.Mode),
		slog.Bool("premium_speech", r.cfg.Speech.Premium.Enabled))

	<-ctx.Done()
	r.logger.Info("runtime stopping")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := r.apiServer.Close(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.speechSvc.Close()
	r.registry.Close()
	if err := r.activityLog.Close(); err != nil {
		r.logger.Error("activity log close error", slog.String("error", err.Error()))
	}
	r.busClient.Close()
	if r.embedded != nil {
		r.embedded.Shutdown()
	}
	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}
	return nil
}

func (r *Runtime) buildSpeechRouter() (*tts.Router, error) {
	speech := r.cfg.Speech

	catalog := tts.DefaultCatalog()
	if speech.CatalogPath != "" {
		loaded, err := tts.LoadCatalog(speech.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load voice catalog: %w", err)
		}
		catalog = loaded
	}

	var synth tts.Synthesizer
	var err error
	switch speech.Mode {
	case "http":
		synth = tts.NewHTTPSynth(speech.Endpoint, speech.APIKey, speech.Model, speech.SampleRate, speech.Channels)
	case "exec":
		synth, err = tts.NewExecSynth(speech.Command, speech.SampleRate, speech.Channels)
		if err != nil {
			return nil, fmt.Errorf("failed to start exec synthesizer: %w", err)
		}
	default:
		synth = tts.NewMockSynth(speech.SampleRate, speech.Channels)
	}

	var premium tts.PremiumSynthesizer
	if speech.Premium.Enabled {
		premium = tts.NewPremiumClient(
			speech.Premium.Endpoint,
			speech.Premium.APIKey,
			speech.Premium.ModelID,
			speech.Premium.Stability,
			speech.Premium.SimilarityBoost,
		)
	}

	pipeline := tts.NewPipeline(synth, speech.ChunkSize, speech.SampleRate, speech.Channels, speech.MaxConcurrent, r.logger)
	return tts.NewRouter(catalog, premium, pipeline, r.logger), nil
}

func (r *Runtime) buildGenerator() (llm.Generator, error) {
	switch r.cfg.LLM.Mode {
	case "openai":
		gen, err := llm.NewOpenAIGenerator(r.cfg.LLM.APIKey, r.cfg.LLM.Endpoint, r.cfg.LLM.Model,
			r.cfg.LLM.MaxTokens, r.cfg.LLM.Temperature)
		if err != nil {
			return nil, fmt.Errorf("failed to build openai generator: %w", err)
		}
		return gen, nil
	case "http":
		return llm.NewHTTPGenerator(r.cfg.LLM.Endpoint, r.cfg.LLM.APIKey, r.cfg.LLM.Model,
			r.cfg.LLM.MaxTokens, r.cfg.LLM.Temperature), nil
	default:
		return llm.NewMockGenerator(), nil
	}
}

func (r *Runtime) buildImageGenerator() image.Generator {
	if r.cfg.Image.Mode == "http" {
		return image.NewHTTPGenerator(r.cfg.Image.Endpoint, r.cfg.Image.APIKey, r.cfg.Image.Model)
	}
	return image.NewMockGenerator()
}
