package image

import (
	"context"
	"encoding/base64"
	"time"
)

type mockGenerator struct{}

// NewMockGenerator renders a tiny fixed placeholder so the rest of the
// pipeline can run without an image backend.
func NewMockGenerator() Generator { return &mockGenerator{} }

func (m *mockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(10 * time.Millisecond):
	}
	placeholder := base64.StdEncoding.EncodeToString([]byte("mock image: " + req.Prompt))
	return "data:image/jpeg;base64," + placeholder, nil
}
