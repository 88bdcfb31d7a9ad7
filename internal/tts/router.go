package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/vidplan-labs/vidplan-core/internal/protocol"
)

// Router decides per voice selector which provider renders a script. Premium-
// shaped selectors get one premium attempt and one fallback hop to the
// built-in pipeline; everything else goes to the pipeline directly.
type Router struct {
	catalog  *Catalog
	premium  PremiumSynthesizer
	pipeline *Pipeline
	reporter StatusReporter
	logger   *slog.Logger
}

func NewRouter(catalog *Catalog, premium PremiumSynthesizer, pipeline *Pipeline, logger *slog.Logger) *Router {
	return &Router{
		catalog:  catalog,
		premium:  premium,
		pipeline: pipeline,
		logger:   logger.With(slog.String("component", "speech-router")),
	}
}

// Catalog exposes the voice catalog backing this router.
func (r *Router) Catalog() *Catalog { return r.catalog }

// SetReporter installs the health sink that receives a status update after
// every provider call.
func (r *Router) SetReporter(rep StatusReporter) { r.reporter = rep }

func (r *Router) report(name string, healthy bool, detail string) {
	if r.reporter == nil {
		return
	}
	r.reporter.Report(protocol.ProviderStatus{
		Name:    name,
		Kind:    "speech",
		Healthy: healthy,
		Detail:  detail,
	})
}

// Speak renders text with the selected voice and returns a playable
// artifact. The premium provider handles the full text in a single call and
// is never chunked; the built-in path chunks and wraps PCM in a WAV
// container.
func (r *Router) Speak(ctx context.Context, sessionID, text, voice string) (Artifact, error) {
	fellBack := false
	if r.premium != nil && r.catalog.PremiumShaped(voice) {
		data, mime, err := r.premium.Synthesize(ctx, text, voice)
		if err == nil {
			r.report("premium-speech", true, "")
			return Artifact{
				DataURI:  dataURI(mime, data),
				MIME:     mime,
				Provider: "premium",
			}, nil
		}
		// One fallback hop, no further retries.
		r.report("premium-speech", false, err.Error())
		fellBack = true
		r.logger.Warn("premium synthesis failed, falling back to built-in",
			slog.String("voice", voice),
			slog.String("error", err.Error()))
	}

	builtin := r.catalog.Resolve(voice)
	wav, err := r.pipeline.Render(ctx, sessionID, text, builtin)
	if err != nil {
		r.report("builtin-speech", false, err.Error())
		return Artifact{}, &ProviderError{Provider: "builtin", Err: err}
	}
	r.report("builtin-speech", true, "")
	return Artifact{
		DataURI:  dataURI("audio/wav", wav),
		MIME:     "audio/wav",
		Provider: "builtin",
		Fallback: fellBack,
	}, nil
}

func dataURI(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
