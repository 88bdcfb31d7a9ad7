package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// httpGenerator talks to an Imagen-shaped generateImages endpoint and wraps
// the returned JPEG bytes in a data URI.
type httpGenerator struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

func NewHTTPGenerator(endpoint, apiKey, model string) Generator {
	if model == "" {
		model = "imagen-4.0-generate-001"
	}
	return &httpGenerator{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

type imageRequest struct {
	Prompt string      `json:"prompt"`
	Config imageConfig `json:"config"`
}

type imageConfig struct {
	NumberOfImages int    `json:"numberOfImages"`
	AspectRatio    string `json:"aspectRatio"`
	OutputMIMEType string `json:"outputMimeType"`
}

type imageResponse struct {
	GeneratedImages []struct {
		Image struct {
			ImageBytes string `json:"imageBytes"`
		} `json:"image"`
	} `json:"generatedImages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// normalizeRatio maps any non-portrait ratio to widescreen.
func normalizeRatio(ratio string) string {
	if ratio == "9:16" {
		return "9:16"
	}
	return "16:9"
}

func enhancePrompt(prompt, style string) string {
	return fmt.Sprintf("%s. Style: %s. High quality, detailed, cinematic lighting.", prompt, style)
}

func (g *httpGenerator) Generate(ctx context.Context, req Request) (string, error) {
	payload := imageRequest{
		Prompt: enhancePrompt(req.Prompt, req.Style),
		Config: imageConfig{
			NumberOfImages: 1,
			AspectRatio:    normalizeRatio(req.AspectRatio),
			OutputMIMEType: "image/jpeg",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateImages", g.endpoint, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("x-goog-api-key", g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var decoded imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if resp.StatusCode >= 300 {
		if decoded.Error != nil && decoded.Error.Message != "" {
			return "", fmt.Errorf("image backend returned status %s: %s", resp.Status, decoded.Error.Message)
		}
		return "", fmt.Errorf("image backend returned status %s", resp.Status)
	}
	if len(decoded.GeneratedImages) == 0 || decoded.GeneratedImages[0].Image.ImageBytes == "" {
		return "", fmt.Errorf("no image generated")
	}
	return "data:image/jpeg;base64," + decoded.GeneratedImages[0].Image.ImageBytes, nil
}
