package tts

import (
	"context"
	"time"
)

type mockSynth struct {
	sampleRate int
	channels   int
}

// NewMockSynth returns a synthesizer that produces silence sized to the
// input text, two bytes per character.
func NewMockSynth(sampleRate, channels int) Synthesizer {
	return &mockSynth{sampleRate: sampleRate, channels: channels}
}

func (m *mockSynth) Synthesize(ctx context.Context, req SynthRequest) (SynthResult, error) {
	select {
	case <-ctx.Done():
		return SynthResult{}, ctx.Err()
	case <-time.After(10 * time.Millisecond):
	}
	return SynthResult{
		PCM:        make([]byte, len(req.Text)*2),
		SampleRate: m.sampleRate,
		Channels:   m.channels,
	}, nil
}
