package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidplan-labs/vidplan-core/internal/activity"
	"github.com/vidplan-labs/vidplan-core/internal/chat"
	"github.com/vidplan-labs/vidplan-core/internal/config"
	"github.com/vidplan-labs/vidplan-core/internal/image"
	"github.com/vidplan-labs/vidplan-core/internal/music"
	"github.com/vidplan-labs/vidplan-core/internal/plan"
	"github.com/vidplan-labs/vidplan-core/internal/preview"
	"github.com/vidplan-labs/vidplan-core/internal/providers"
	"github.com/vidplan-labs/vidplan-core/internal/tts"
)

// Planner assembles project plans from briefs.
type Planner interface {
	Assemble(ctx context.Context, sessionID string, brief plan.Brief) (*plan.ProjectPlan, error)
}

// Speaker renders voice-overs and exposes the voice catalog.
type Speaker interface {
	Speak(ctx context.Context, sessionID, text, voice string) (tts.Artifact, error)
	Catalog() *tts.Catalog
}

// MusicStudio renders paired background-music candidates.
type MusicStudio interface {
	GenerateVariations(ctx context.Context, sessionID, prompt string) ([]music.Track, error)
}

// BusHealth reports message-bus connectivity for readiness checks.
type BusHealth interface {
	Healthy() bool
}

// Deps carries everything the API surface needs. Chat, Activity, Bus, and
// Providers may be nil when the corresponding subsystem is disabled.
type Deps struct {
	Planner   Planner
	Speaker   Speaker
	Images    image.Generator
	Music     MusicStudio
	Chat      *chat.Service
	Preview   *preview.Tracker
	Providers *providers.Registry
	Activity  *activity.Log
	Bus       BusHealth
}

// Server is the gin-backed HTTP front door for the studio runtime.
type Server struct {
	cfg    config.HTTPConfig
	deps   Deps
	logger *slog.Logger
	srv    *http.Server
}

func NewServer(cfg config.HTTPConfig, deps Deps, logger *slog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With(slog.String("component", "httpapi")),
	}
}

// Handler builds the full route tree. Split out from Start so tests can
// drive the mux directly.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/healthz", s.handleHealthz)
	r.GET("/readyz", s.handleReadyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/plans", s.handleCreatePlan)
		v1.POST("/plans/export", s.handleExportPlan)
		v1.GET("/voices", s.handleListVoices)
		v1.POST("/voiceovers", s.handleVoiceOver)
		v1.POST("/voiceovers/preview", s.handleVoicePreview)
		v1.POST("/scenes/image", s.handleSceneImage)
		v1.POST("/music", s.handleMusic)
		v1.POST("/chat/sessions", s.handleNewChatSession)
		v1.GET("/chat/sessions/:id/messages", s.handleChatHistory)
		v1.POST("/chat/sessions/:id/messages", s.handleChatMessage)
		v1.GET("/providers", s.handleListProviders)
		v1.GET("/sessions/:id/activity", s.handleSessionActivity)
	}
	return r
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Bind, s.cfg.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http api listening", slog.String("addr", addr))
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http api server failed", slog.String("error", err.Error()))
		}
	}()
	return nil
}

func (s *Server) Close(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
