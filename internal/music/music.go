package music

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vidplan-labs/vidplan-core/internal/tts"
)

// Track is one rendered background-music candidate.
type Track struct {
	Name     string `json:"name"`
	DataURI  string `json:"dataUri"`
	Provider string `json:"provider"`
}

// Composer renders one music prompt to playable audio.
type Composer interface {
	Compose(ctx context.Context, sessionID, prompt string) (tts.Artifact, error)
}

// speechComposer drives the speech pipeline as the music backend. Until a
// dedicated music model is wired in, the prompt itself is rendered so the
// studio flow stays exercisable end to end.
type speechComposer struct {
	router *tts.Router
	voice  string
}

func NewSpeechComposer(router *tts.Router) Composer {
	return &speechComposer{router: router, voice: "Kore"}
}

func (c *speechComposer) Compose(ctx context.Context, sessionID, prompt string) (tts.Artifact, error) {
	return c.router.Speak(ctx, sessionID, prompt, c.voice)
}

// Service produces paired background-music candidates from one prompt.
type Service struct {
	composer Composer
	logger   *slog.Logger
}

func NewService(composer Composer, logger *slog.Logger) *Service {
	return &Service{
		composer: composer,
		logger:   logger.With(slog.String("component", "music")),
	}
}

// GenerateVariations renders two variations of the prompt concurrently and
// returns them as "Track A" and "Track B". Either variation failing fails
// the whole request.
func (s *Service) GenerateVariations(ctx context.Context, sessionID, prompt string) ([]Track, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("empty music prompt")
	}

	variants := []struct {
		suffix string
		name   string
	}{
		{" (Variation A)", "Track A"},
		{" (Variation B)", "Track B"},
	}

	tracks := make([]Track, len(variants))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		g.Go(func() error {
			artifact, err := s.composer.Compose(gctx, sessionID, prompt+v.suffix)
			if err != nil {
				return fmt.Errorf("%s: %w", v.name, err)
			}
			tracks[i] = Track{Name: v.name, DataURI: artifact.DataURI, Provider: artifact.Provider}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("music variations rendered",
		slog.String("session_id", sessionID),
		slog.Int("tracks", len(tracks)))
	return tracks, nil
}
