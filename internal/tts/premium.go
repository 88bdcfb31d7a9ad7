package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// synthTimeout bounds one outbound synthesis call so a hung provider cannot
// stall a handler that runs on the bare request context.
const synthTimeout = 120 * time.Second

// PremiumClient calls a hosted high-quality voice API. The endpoint is
// parameterized by an opaque voice id and returns containerized audio.
type PremiumClient struct {
	endpoint        string
	apiKey          string
	modelID         string
	stability       float64
	similarityBoost float64
	client          *http.Client
}

func NewPremiumClient(endpoint, apiKey, modelID string, stability, similarityBoost float64) *PremiumClient {
	return &PremiumClient{
		endpoint:        endpoint,
		apiKey:          apiKey,
		modelID:         modelID,
		stability:       stability,
		similarityBoost: similarityBoost,
		client:          &http.Client{Timeout: synthTimeout},
	}
}

type premiumRequest struct {
	Text          string               `json:"text"`
	ModelID       string               `json:"model_id"`
	VoiceSettings premiumVoiceSettings `json:"voice_settings"`
}

type premiumVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type premiumErrorBody struct {
	Detail struct {
		Message string `json:"message"`
	} `json:"detail"`
}

// Synthesize renders the full text in one call and returns the audio bytes
// with their MIME type.
func (c *PremiumClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, string, error) {
	payload := premiumRequest{
		Text:    text,
		ModelID: c.modelID,
		VoiceSettings: premiumVoiceSettings{
			Stability:       c.stability,
			SimilarityBoost: c.similarityBoost,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.endpoint, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		// The provider embeds a readable message in a JSON error body.
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		var parsed premiumErrorBody
		if jsonErr := json.Unmarshal(data, &parsed); jsonErr == nil && parsed.Detail.Message != "" {
			return nil, "", fmt.Errorf("premium provider: %s", parsed.Detail.Message)
		}
		return nil, "", fmt.Errorf("premium provider returned status %s", resp.Status)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if len(audio) == 0 {
		return nil, "", fmt.Errorf("premium provider returned an empty payload")
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "audio/mpeg"
	}
	return audio, mime, nil
}
