package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vidplan-labs/vidplan-core/internal/llm"
)

const systemInstruction = "You are an expert YouTube automation strategist and creative director."

// Brief is the user's creative input to plan assembly.
type Brief struct {
	TopicOrScript  string `json:"topicOrScript"`
	ScriptProvided bool   `json:"scriptProvided"`
	VisualStyle    string `json:"visualStyle"`
	AspectRatio    string `json:"aspectRatio"`
	VoicePersona   string `json:"voicePersona"`
}

// Defaults fills brief preferences the caller left blank.
type Defaults struct {
	Style string
	Ratio string
	Voice string
}

// Assembler turns a brief into a validated ProjectPlan through a
// schema-constrained generation call. A malformed model response is retried
// once before the error is surfaced.
type Assembler struct {
	gen      llm.Generator
	defaults Defaults
	logger   *slog.Logger
}

func NewAssembler(gen llm.Generator, logger *slog.Logger) *Assembler {
	return &Assembler{
		gen:    gen,
		logger: logger.With(slog.String("component", "plan-assembler")),
	}
}

// SetDefaults installs the configured fallback preferences.
func (a *Assembler) SetDefaults(d Defaults) { a.defaults = d }

func (a *Assembler) applyDefaults(brief Brief) Brief {
	if strings.TrimSpace(brief.VisualStyle) == "" {
		brief.VisualStyle = a.defaults.Style
	}
	if strings.TrimSpace(brief.AspectRatio) == "" {
		brief.AspectRatio = a.defaults.Ratio
	}
	if strings.TrimSpace(brief.VoicePersona) == "" {
		brief.VoicePersona = a.defaults.Voice
	}
	return brief
}

func buildPrompt(brief Brief) string {
	var b strings.Builder
	if brief.ScriptProvided {
		b.WriteString("Analyze the following script and create a video production plan.\n\n")
		fmt.Fprintf(&b, "Script: %q\n\n", brief.TopicOrScript)
	} else {
		fmt.Fprintf(&b, "Create a video script and production plan about this topic: %q\n\n", brief.TopicOrScript)
	}
	b.WriteString("Preferences:\n")
	fmt.Fprintf(&b, "- Visual Style: %s\n", brief.VisualStyle)
	fmt.Fprintf(&b, "- Aspect Ratio: %s\n", brief.AspectRatio)
	fmt.Fprintf(&b, "- Voice Persona: %s\n\n", brief.VoicePersona)
	if brief.ScriptProvided {
		b.WriteString("Break this script into logical scenes. Generate image prompts for each scene that match the visual style.")
	} else {
		b.WriteString("Write an engaging script, break it into scenes, and provide image prompts.")
	}
	return b.String()
}

// Assemble generates and validates a plan for the brief.
func (a *Assembler) Assemble(ctx context.Context, sessionID string, brief Brief) (*ProjectPlan, error) {
	if strings.TrimSpace(brief.TopicOrScript) == "" {
		return nil, fmt.Errorf("brief requires a topic or script")
	}
	brief = a.applyDefaults(brief)

	req := llm.Request{
		SessionID:  sessionID,
		Prompt:     buildPrompt(brief),
		System:     systemInstruction,
		Schema:     llm.SchemaFor[ProjectPlan](),
		SchemaName: "project_plan",
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := a.gen.Generate(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("plan generation: %w", err)
		}
		p, err := ParsePlan([]byte(resp.Text))
		if err == nil {
			a.logger.Info("plan assembled",
				slog.String("session_id", sessionID),
				slog.String("title", p.ProjectTitle),
				slog.Int("scenes", len(p.Scenes)))
			return p, nil
		}
		lastErr = err
		a.logger.Warn("discarding malformed plan output",
			slog.String("session_id", sessionID),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}
	return nil, fmt.Errorf("plan output invalid after retry: %w", lastErr)
}

// ParsePlan decodes and validates a structured plan document. Unknown fields
// are rejected so drift in the model output is caught instead of dropped.
func ParsePlan(data []byte) (*ProjectPlan, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var p ProjectPlan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate enforces the structural invariants of a plan document.
func (p *ProjectPlan) Validate() error {
	if strings.TrimSpace(p.ProjectTitle) == "" {
		return fmt.Errorf("plan missing project title")
	}
	if len(p.Scenes) == 0 {
		return fmt.Errorf("plan has no scenes")
	}
	for i, scene := range p.Scenes {
		if scene.SceneNumber != i+1 {
			return fmt.Errorf("scene %d out of sequence (number %d)", i, scene.SceneNumber)
		}
		if strings.TrimSpace(scene.VoiceOverScript) == "" {
			return fmt.Errorf("scene %d missing voice-over script", scene.SceneNumber)
		}
		if strings.TrimSpace(scene.ImagePrompt) == "" {
			return fmt.Errorf("scene %d missing image prompt", scene.SceneNumber)
		}
		if scene.EstimatedDuration <= 0 {
			return fmt.Errorf("scene %d has non-positive duration", scene.SceneNumber)
		}
	}
	if strings.TrimSpace(p.Metadata.Title) == "" {
		return fmt.Errorf("plan missing metadata title")
	}
	if strings.TrimSpace(p.Audio.BGMOption1.Prompt) == "" || strings.TrimSpace(p.Audio.BGMOption2.Prompt) == "" {
		return fmt.Errorf("plan missing background music prompts")
	}
	return nil
}
