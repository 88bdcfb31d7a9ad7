package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// httpSynth talks to a hosted speech API that returns base64-encoded raw PCM
// for a bounded slice of text.
type httpSynth struct {
	endpoint   string
	apiKey     string
	model      string
	sampleRate int
	channels   int
	client     *http.Client
}

// NewHTTPSynth builds the built-in HTTP synthesizer.
func NewHTTPSynth(endpoint, apiKey, model string, sampleRate, channels int) Synthesizer {
	return &httpSynth{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		sampleRate: sampleRate,
		channels:   channels,
		client:     &http.Client{Timeout: synthTimeout},
	}
}

type speechRequest struct {
	Model      string `json:"model"`
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type speechResponse struct {
	PCMBase64    string `json:"pcm_base64"`
	FinishReason string `json:"finish_reason,omitempty"`
}

func (s *httpSynth) Synthesize(ctx context.Context, req SynthRequest) (SynthResult, error) {
	payload := speechRequest{
		Model:      s.model,
		Text:       req.Text,
		Voice:      req.Voice,
		SampleRate: s.sampleRate,
		Channels:   s.channels,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return SynthResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/v1/speech", bytes.NewReader(body))
	if err != nil {
		return SynthResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return SynthResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return SynthResult{}, fmt.Errorf("speech backend returned status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return SynthResult{}, err
	}
	var decoded speechResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return SynthResult{}, fmt.Errorf("decode speech response: %w", err)
	}
	if decoded.PCMBase64 == "" {
		if decoded.FinishReason != "" {
			return SynthResult{}, fmt.Errorf("speech backend returned no audio, finish reason %q", decoded.FinishReason)
		}
		return SynthResult{}, fmt.Errorf("speech backend returned no audio")
	}
	pcm, err := base64.StdEncoding.DecodeString(decoded.PCMBase64)
	if err != nil {
		return SynthResult{}, fmt.Errorf("decode pcm payload: %w", err)
	}
	return SynthResult{PCM: pcm, SampleRate: s.sampleRate, Channels: s.channels}, nil
}
