package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/vidplan-labs/vidplan-core/internal/audio"
)

// ErrNoAudio is returned when no chunk produced any PCM.
var ErrNoAudio = errors.New("no audio produced")

// ChunkError reports which chunks of a long script failed to synthesize. A
// partial result is never concatenated around a gap.
type ChunkError struct {
	Failed []int
	Total  int
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("synthesis failed for %d of %d chunks (first failure: %v)", len(e.Failed), e.Total, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Pipeline renders long scripts through the built-in backend: chunk, per-
// chunk synthesis in order, one WAV container around the concatenated PCM.
// A weighted semaphore caps how many renders run at once across the whole
// process.
type Pipeline struct {
	synth      Synthesizer
	chunkSize  int
	sampleRate int
	channels   int
	sem        *semaphore.Weighted
	logger     *slog.Logger
}

func NewPipeline(synth Synthesizer, chunkSize, sampleRate, channels, maxConcurrent int, logger *slog.Logger) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Pipeline{
		synth:      synth,
		chunkSize:  chunkSize,
		sampleRate: sampleRate,
		channels:   channels,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		logger:     logger.With(slog.String("component", "speech-pipeline")),
	}
}

// Render synthesizes text on the built-in backend and returns a complete WAV
// file. Chunks are synthesized sequentially in original order; their PCM is
// concatenated as-is, with a single header sized for the total.
func (p *Pipeline) Render(ctx context.Context, sessionID, text, voice string) ([]byte, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	chunks := SplitChunks(text, p.chunkSize)
	var (
		pcm      []byte
		failed   []int
		firstErr error
		produced int
	)
	for i, chunk := range chunks {
		result, err := p.synth.Synthesize(ctx, SynthRequest{SessionID: sessionID, Text: chunk, Voice: voice})
		if err != nil {
			p.logger.Warn("chunk synthesis failed",
				slog.Int("chunk", i),
				slog.String("error", err.Error()))
			failed = append(failed, i)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(result.PCM) == 0 {
			continue
		}
		pcm = append(pcm, result.PCM...)
		produced++
	}

	if produced == 0 {
		if firstErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoAudio, firstErr)
		}
		return nil, ErrNoAudio
	}
	if len(failed) > 0 {
		return nil, &ChunkError{Failed: failed, Total: len(chunks), Err: firstErr}
	}

	return audio.EncodeWAV(pcm, p.sampleRate, p.channels), nil
}
