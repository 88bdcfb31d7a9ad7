package tts

import (
	"context"
	"fmt"

	"github.com/vidplan-labs/vidplan-core/internal/protocol"
)

// StatusReporter receives a provider health update after each synthesis
// call. The provider registry implements it.
type StatusReporter interface {
	Report(status protocol.ProviderStatus)
}

// SynthRequest contains parameters for one built-in synthesis call. Text must
// fit the backend's request-size ceiling; long scripts go through the
// Pipeline, which chunks first.
type SynthRequest struct {
	SessionID string
	Text      string
	Voice     string
}

// SynthResult holds raw signed 16-bit little-endian mono PCM with no
// container.
type SynthResult struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Synthesizer is the contract for the built-in speech backend.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthRequest) (SynthResult, error)
}

// PremiumSynthesizer is the contract for the premium backend. It handles the
// full text in a single call and returns already-containerized audio bytes
// plus their MIME type.
type PremiumSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, string, error)
}

// Artifact is a playable audio resource reference. Fallback is set when the
// premium provider was attempted and the built-in pipeline served instead.
type Artifact struct {
	DataURI  string
	MIME     string
	Provider string
	Fallback bool
}

// ProviderError reports which provider failed and why.
type ProviderError struct {
	Provider string // "premium" or "builtin"
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s speech provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
