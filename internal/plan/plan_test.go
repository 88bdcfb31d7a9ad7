package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vidplan-labs/vidplan-core/internal/llm"
)

func validPlan() ProjectPlan {
	return ProjectPlan{
		ProjectTitle: "My Awesome Video!",
		Settings:     PlanSettings{Style: "Cinematic Documentary", Ratio: RatioWide, Voice: "Professional Narrator"},
		Scenes: []Scene{
			{SceneNumber: 1, VoiceOverScript: "Welcome to the deep sea.", ImagePrompt: "A submarine descending", EstimatedDuration: 8},
			{SceneNumber: 2, VoiceOverScript: "Life thrives in darkness.", ImagePrompt: "Bioluminescent creatures", EstimatedDuration: 12},
		},
		Metadata: Metadata{Title: "Deep Sea Secrets", Tags: []string{"ocean", "documentary"}, Description: "A dive into the abyss."},
		Audio: AudioPlan{
			BGMOption1: MusicPrompt{Mood: "Mysterious", Description: "Slow ambient pads", Prompt: "dark ambient underwater drones"},
			BGMOption2: MusicPrompt{Mood: "Hopeful", Description: "Light piano", Prompt: "gentle piano with strings"},
			SFX:        []string{"sonar ping", "bubbles"},
		},
	}
}

func TestParsePlanRoundTrip(t *testing.T) {
	want := validPlan()
	raw, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := ParsePlan(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.ProjectTitle != want.ProjectTitle || len(got.Scenes) != 2 {
		t.Fatalf("unexpected plan %+v", got)
	}
}

func TestParsePlanRejectsUnknownFields(t *testing.T) {
	raw, _ := json.Marshal(validPlan())
	mangled := strings.Replace(string(raw), `"projectTitle"`, `"surprise":1,"projectTitle"`, 1)
	if _, err := ParsePlan([]byte(mangled)); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestValidateSceneSequence(t *testing.T) {
	p := validPlan()
	p.Scenes[1].SceneNumber = 3
	if err := p.Validate(); err == nil {
		t.Fatal("expected out-of-sequence scene to fail validation")
	}
	p = validPlan()
	p.Scenes[0].VoiceOverScript = "   "
	if err := p.Validate(); err == nil {
		t.Fatal("expected blank voice-over to fail validation")
	}
	p = validPlan()
	p.Scenes[1].EstimatedDuration = 0
	if err := p.Validate(); err == nil {
		t.Fatal("expected zero duration to fail validation")
	}
}

type scriptedGenerator struct {
	responses []string
	prompts   []string
	calls     int
}

func (s *scriptedGenerator) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	s.prompts = append(s.prompts, req.Prompt)
	if s.calls >= len(s.responses) {
		return llm.Response{}, fmt.Errorf("no scripted response left")
	}
	text := s.responses[s.calls]
	s.calls++
	return llm.Response{Text: text}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAssembleRetriesOnceOnMalformedOutput(t *testing.T) {
	good, _ := json.Marshal(validPlan())
	gen := &scriptedGenerator{responses: []string{"not json at all", string(good)}}
	a := NewAssembler(gen, testLogger())

	p, err := a.Assemble(context.Background(), "sess-1", Brief{TopicOrScript: "deep sea", VisualStyle: "Cinematic", AspectRatio: RatioWide, VoicePersona: "Leo (Documentary)"})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if gen.calls != 2 {
		t.Fatalf("expected exactly 2 generation calls, got %d", gen.calls)
	}
	if p.ProjectTitle != "My Awesome Video!" {
		t.Fatalf("unexpected title %q", p.ProjectTitle)
	}
}

func TestAssembleFailsAfterTwoMalformedOutputs(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"garbage", "{\"still\":\"garbage\"}"}}
	a := NewAssembler(gen, testLogger())
	if _, err := a.Assemble(context.Background(), "sess-2", Brief{TopicOrScript: "topic"}); err == nil {
		t.Fatal("expected failure after retry")
	}
	if gen.calls != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", gen.calls)
	}
}

func TestAssembleAppliesConfiguredDefaults(t *testing.T) {
	good, _ := json.Marshal(validPlan())
	gen := &scriptedGenerator{responses: []string{string(good)}}
	a := NewAssembler(gen, testLogger())
	a.SetDefaults(Defaults{Style: "Cinematic Documentary", Ratio: RatioShorts, Voice: "Professional Narrator"})

	if _, err := a.Assemble(context.Background(), "sess-d", Brief{TopicOrScript: "glaciers"}); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("expected 1 prompt, got %d", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "Visual Style: Cinematic Documentary") {
		t.Fatalf("prompt missing default style: %s", prompt)
	}
	if !strings.Contains(prompt, "Aspect Ratio: 9:16") {
		t.Fatalf("prompt missing default ratio: %s", prompt)
	}
	if !strings.Contains(prompt, "Voice Persona: Professional Narrator") {
		t.Fatalf("prompt missing default voice: %s", prompt)
	}

	// An explicit brief preference still wins.
	gen = &scriptedGenerator{responses: []string{string(good)}}
	a = NewAssembler(gen, testLogger())
	a.SetDefaults(Defaults{Style: "Cinematic Documentary", Ratio: RatioShorts, Voice: "Professional Narrator"})
	if _, err := a.Assemble(context.Background(), "sess-d2", Brief{TopicOrScript: "glaciers", AspectRatio: RatioWide}); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !strings.Contains(gen.prompts[0], "Aspect Ratio: 16:9") {
		t.Fatalf("explicit ratio lost: %s", gen.prompts[0])
	}
}

func TestAssembleWithMockGenerator(t *testing.T) {
	a := NewAssembler(llm.NewMockGenerator(), testLogger())
	p, err := a.Assemble(context.Background(), "sess-m", Brief{TopicOrScript: "volcanoes"})
	if err != nil {
		t.Fatalf("assemble with mock backend: %v", err)
	}
	if len(p.Scenes) == 0 {
		t.Fatal("expected at least one scene")
	}
}

func TestAssembleRejectsEmptyBrief(t *testing.T) {
	a := NewAssembler(&scriptedGenerator{}, testLogger())
	if _, err := a.Assemble(context.Background(), "sess-3", Brief{TopicOrScript: "  "}); err == nil {
		t.Fatal("expected empty brief to be rejected")
	}
}

func TestBuildPromptModes(t *testing.T) {
	script := buildPrompt(Brief{TopicOrScript: "a pasted script", ScriptProvided: true, VisualStyle: "Anime / Manga", AspectRatio: RatioShorts, VoicePersona: "Kore"})
	if !strings.Contains(script, "Analyze the following script") || !strings.Contains(script, "Break this script into logical scenes") {
		t.Fatalf("script prompt missing expected framing: %s", script)
	}
	topic := buildPrompt(Brief{TopicOrScript: "volcanoes", VisualStyle: "Hyper-Realistic 4K", AspectRatio: RatioWide, VoicePersona: "Zephyr"})
	if !strings.Contains(topic, "Create a video script and production plan about this topic") || !strings.Contains(topic, "Write an engaging script") {
		t.Fatalf("topic prompt missing expected framing: %s", topic)
	}
	if !strings.Contains(topic, "Aspect Ratio: 16:9") {
		t.Fatalf("prompt missing preferences: %s", topic)
	}
}

func TestExportFilename(t *testing.T) {
	cases := map[string]string{
		"My Awesome Video!":  "my_awesome_video!_plan.json",
		"Deep   Sea\tSecret": "deep_sea_secret_plan.json",
		"single":             "single_plan.json",
	}
	for title, want := range cases {
		if got := ExportFilename(title); got != want {
			t.Fatalf("ExportFilename(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestExportJSONIndented(t *testing.T) {
	p := validPlan()
	out, err := ExportJSON(&p)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(string(out), "\n  \"projectTitle\"") {
		t.Fatalf("expected indented output, got %s", out[:60])
	}
	var back ProjectPlan
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-decode: %v", err)
	}
}
