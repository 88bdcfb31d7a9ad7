package image

import "context"

// Request describes one scene image to render.
type Request struct {
	Prompt      string
	AspectRatio string
	Style       string
}

// Generator defines a pluggable scene image backend. The returned string is
// a data URI ready for embedding.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
