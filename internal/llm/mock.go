package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type mockGenerator struct{}

func NewMockGenerator() Generator { return &mockGenerator{} }

func (m *mockGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-time.After(20 * time.Millisecond):
	}
	content := "[mock completion for " + strings.TrimSpace(req.Prompt) + "]"
	if req.Schema != nil {
		data, err := instanceFor(req.Schema)
		if err != nil {
			return Response{}, err
		}
		content = string(data)
	}
	return Response{
		Text:    content,
		Latency: 20 * time.Millisecond,
	}, nil
}

// instanceFor synthesizes a minimal document conforming to the schema so
// structured callers can run end to end against the mock backend.
func instanceFor(schema any) ([]byte, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var node map[string]any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return json.Marshal(buildInstance(node))
}

func buildInstance(node map[string]any) any {
	if enum, ok := node["enum"].([]any); ok && len(enum) > 0 {
		return enum[0]
	}
	switch node["type"] {
	case "object":
		out := map[string]any{}
		props, _ := node["properties"].(map[string]any)
		for name, raw := range props {
			child, _ := raw.(map[string]any)
			out[name] = buildInstance(child)
		}
		return out
	case "array":
		items, _ := node["items"].(map[string]any)
		return []any{buildInstance(items)}
	case "string":
		return "mock value"
	case "integer", "number":
		return 1
	case "boolean":
		return false
	default:
		return nil
	}
}
