package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPGeneratorStructuredRequest(t *testing.T) {
	var captured generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{{"text": `{"ok":true}`}}},
			}},
			"usageMetadata": map[string]any{"promptTokenCount": 12, "candidatesTokenCount": 5},
		})
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, "test-key", "test-model", 0, 0)
	type payload struct {
		OK bool `json:"ok"`
	}
	resp, err := gen.Generate(context.Background(), Request{
		Prompt:     "make a thing",
		System:     "be precise",
		Schema:     SchemaFor[payload](),
		SchemaName: "payload",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Text != `{"ok":true}` {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if resp.PromptTokens != 12 || resp.CompletionTokens != 5 {
		t.Fatalf("unexpected usage %d/%d", resp.PromptTokens, resp.CompletionTokens)
	}
	if captured.GenerationConfig == nil || captured.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json response mime type, got %+v", captured.GenerationConfig)
	}
	if captured.GenerationConfig.ResponseSchema == nil {
		t.Fatal("expected response schema to be attached")
	}
	if captured.SystemInstruction == nil || len(captured.SystemInstruction.Parts) == 0 {
		t.Fatal("expected system instruction")
	}
	if len(captured.Tools) != 0 {
		t.Fatalf("expected no tools without search, got %v", captured.Tools)
	}
}

func TestHTTPGeneratorSearchGrounding(t *testing.T) {
	var captured generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{{"text": "grounded answer"}}},
				"groundingMetadata": map[string]any{
					"groundingChunks": []map[string]any{
						{"web": map[string]any{"title": "Site A", "uri": "https://a.example"}},
						{"web": map[string]any{"title": "Site A again", "uri": "https://a.example"}},
						{"web": map[string]any{"title": "Site B", "uri": "https://b.example"}},
						{},
					},
				},
			}},
		})
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, "test-key", "", 0, 0)
	resp, err := gen.Generate(context.Background(), Request{Prompt: "what happened today", WebSearch: true})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(captured.Tools) != 1 || captured.Tools[0].GoogleSearch == nil {
		t.Fatalf("expected search tool, got %v", captured.Tools)
	}
	if captured.GenerationConfig.ThinkingConfig != nil {
		t.Fatal("web search must not set a thinking budget")
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("expected 2 deduped sources, got %v", resp.Sources)
	}
	if resp.Sources[0].URI != "https://a.example" || resp.Sources[1].URI != "https://b.example" {
		t.Fatalf("unexpected sources %v", resp.Sources)
	}
}

func TestHTTPGeneratorDeepSearchBudget(t *testing.T) {
	var captured generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{{"text": "deep answer"}}},
			}},
		})
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, "", "", 0, 0)
	if _, err := gen.Generate(context.Background(), Request{Prompt: "dig in", DeepSearch: true}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if captured.GenerationConfig == nil || captured.GenerationConfig.ThinkingConfig == nil {
		t.Fatal("expected thinking config for deep search")
	}
	if got := captured.GenerationConfig.ThinkingConfig.ThinkingBudget; got != deepSearchThinkingBudget {
		t.Fatalf("unexpected thinking budget %d", got)
	}
	if len(captured.Tools) != 1 {
		t.Fatal("deep search should still enable the search tool")
	}
}

func TestHTTPGeneratorErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "quota exhausted"}})
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, "k", "m", 0, 0)
	_, err := gen.Generate(context.Background(), Request{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if want := "quota exhausted"; !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q missing %q", err.Error(), want)
	}
}

func TestHTTPGeneratorConfiguredDefaults(t *testing.T) {
	var captured generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{{"text": "ok"}}},
			}},
		})
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, "k", "m", 512, 0.3)
	if _, err := gen.Generate(context.Background(), Request{Prompt: "hi"}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if captured.GenerationConfig == nil {
		t.Fatal("expected generation config")
	}
	if captured.GenerationConfig.MaxOutputTokens != 512 {
		t.Fatalf("max output tokens %d, want configured default 512", captured.GenerationConfig.MaxOutputTokens)
	}
	if captured.GenerationConfig.Temperature != 0.3 {
		t.Fatalf("temperature %v, want configured default 0.3", captured.GenerationConfig.Temperature)
	}

	// A request that sets its own values wins over the configured defaults.
	if _, err := gen.Generate(context.Background(), Request{Prompt: "hi", MaxTokens: 64, Temperature: 0.9}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if captured.GenerationConfig.MaxOutputTokens != 64 || captured.GenerationConfig.Temperature != 0.9 {
		t.Fatalf("request overrides lost: %+v", captured.GenerationConfig)
	}
}
