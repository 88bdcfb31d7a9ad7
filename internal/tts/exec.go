package tts

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

// execSynth runs a local synthesis command. The command reads one JSON
// request on stdin and writes newline-delimited JSON responses carrying
// base64 PCM on stdout. Only one invocation runs at a time.
type execSynth struct {
	cmd        []string
	sampleRate int
	channels   int
	mu         sync.Mutex
}

type execRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type execResponse struct {
	PCMBase64 string `json:"pcm_base64"`
	Final     bool   `json:"final"`
}

func NewExecSynth(command string, sampleRate, channels int) (Synthesizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse speech command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("speech command empty")
	}
	return &execSynth{cmd: args, sampleRate: sampleRate, channels: channels}, nil
}

func (e *execSynth) Synthesize(ctx context.Context, req SynthRequest) (SynthResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload := execRequest{
		Text:       req.Text,
		Voice:      req.Voice,
		SampleRate: e.sampleRate,
		Channels:   e.channels,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return SynthResult{}, err
	}

	base := e.cmd[0]
	args := append([]string{}, e.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return SynthResult{}, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return SynthResult{}, err
	}
	if err := cmd.Start(); err != nil {
		return SynthResult{}, err
	}

	if _, err := stdin.Write(data); err != nil {
		cmd.Wait()
		return SynthResult{}, err
	}
	stdin.Close()

	var pcm []byte
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp execResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			cmd.Wait()
			return SynthResult{}, fmt.Errorf("decode speech command output: %w", err)
		}
		part, err := base64.StdEncoding.DecodeString(resp.PCMBase64)
		if err != nil {
			cmd.Wait()
			return SynthResult{}, fmt.Errorf("decode pcm payload: %w", err)
		}
		pcm = append(pcm, part...)
		if resp.Final {
			break
		}
	}
	if err := cmd.Wait(); err != nil {
		return SynthResult{}, err
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return SynthResult{}, scanErr
	}
	return SynthResult{PCM: pcm, SampleRate: e.sampleRate, Channels: e.channels}, nil
}
