package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// httpGenerator talks to a Gemini-shaped generateContent endpoint. Structured
// requests attach a response schema; the search options enable the provider's
// grounding tools and surface the cited sources on the response.
type httpGenerator struct {
	endpoint    string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// NewHTTPGenerator builds the backend. maxTokens and temperature are the
// configured defaults applied to requests that do not set their own.
func NewHTTPGenerator(endpoint, apiKey, model string, maxTokens int, temperature float64) Generator {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &httpGenerator{
		endpoint:    endpoint,
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		client:      &http.Client{Timeout: 120 * time.Second},
	}
}

type generateRequest struct {
	Contents          []content       `json:"contents"`
	SystemInstruction *content        `json:"systemInstruction,omitempty"`
	Tools             []tool          `json:"tools,omitempty"`
	GenerationConfig  *generateConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type generateConfig struct {
	Temperature      float64         `json:"temperature,omitempty"`
	MaxOutputTokens  int             `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   any             `json:"responseSchema,omitempty"`
	ThinkingConfig   *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web *struct {
					Title string `json:"title"`
					URI   string `json:"uri"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const deepSearchThinkingBudget = 2048

func (g *httpGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
	}
	if req.System != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = g.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.maxTokens
	}
	cfg := &generateConfig{
		Temperature:     temperature,
		MaxOutputTokens: maxTokens,
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema
	}
	if req.WebSearch || req.DeepSearch {
		payload.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}
	if req.DeepSearch {
		budget := req.ThinkingBudget
		if budget <= 0 {
			budget = deepSearchThinkingBudget
		}
		cfg.ThinkingConfig = &thinkingConfig{ThinkingBudget: budget}
	}
	payload.GenerationConfig = cfg

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.endpoint, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("x-goog-api-key", g.apiKey)
	}

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Response{}, fmt.Errorf("decode generate response: %w", err)
	}
	if resp.StatusCode >= 300 {
		if decoded.Error != nil && decoded.Error.Message != "" {
			return Response{}, fmt.Errorf("language model returned status %s: %s", resp.Status, decoded.Error.Message)
		}
		return Response{}, fmt.Errorf("language model returned status %s", resp.Status)
	}
	if len(decoded.Candidates) == 0 {
		return Response{}, fmt.Errorf("language model returned no candidates")
	}

	cand := decoded.Candidates[0]
	var text string
	for _, p := range cand.Content.Parts {
		text += p.Text
	}

	var sources []Source
	if cand.GroundingMetadata != nil {
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			sources = append(sources, Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
		}
	}

	return Response{
		Text:             text,
		Sources:          DedupeSources(sources),
		PromptTokens:     decoded.UsageMetadata.PromptTokenCount,
		CompletionTokens: decoded.UsageMetadata.CandidatesTokenCount,
		Latency:          time.Since(start),
	}, nil
}
