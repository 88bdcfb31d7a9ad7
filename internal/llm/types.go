package llm

import (
	"context"
	"time"

	"github.com/invopop/jsonschema"
)

// Request describes one generation call. When Schema is set the backend must
// constrain its output to that JSON schema.
type Request struct {
	SessionID   string
	Prompt      string
	System      string
	Schema      any
	SchemaName  string
	MaxTokens   int
	Temperature float64
	WebSearch   bool
	DeepSearch  bool
	// ThinkingBudget caps reasoning tokens for deep-search requests.
	// Zero lets the backend pick its default.
	ThinkingBudget int
	TraceID        string
}

// Source is a grounding citation attached to a web-searched response.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Response is the model output plus any grounding citations.
type Response struct {
	Text             string
	Sources          []Source
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
}

// Generator defines a pluggable generation backend.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// SchemaFor derives a strict JSON schema from a Go struct type, suitable for
// structured-output constraints.
func SchemaFor[T any]() any {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// DedupeSources removes duplicate citations by URI, keeping first
// occurrence order.
func DedupeSources(sources []Source) []Source {
	if len(sources) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(sources))
	out := sources[:0:0]
	for _, s := range sources {
		if s.URI == "" || seen[s.URI] {
			continue
		}
		seen[s.URI] = true
		out = append(out, s)
	}
	return out
}
