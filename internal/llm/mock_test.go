package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestMockGeneratorPlainText(t *testing.T) {
	gen := NewMockGenerator()
	resp, err := gen.Generate(context.Background(), Request{Prompt: "write a tagline"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(resp.Text, "write a tagline") {
		t.Fatalf("unexpected text %q", resp.Text)
	}
}

func TestMockGeneratorHonorsSchema(t *testing.T) {
	type item struct {
		Number int     `json:"number"`
		Label  string  `json:"label"`
		Weight float64 `json:"weight"`
	}
	type doc struct {
		Title string   `json:"title"`
		Items []item   `json:"items"`
		Tags  []string `json:"tags"`
	}

	gen := NewMockGenerator()
	resp, err := gen.Generate(context.Background(), Request{
		Prompt: "structured",
		Schema: SchemaFor[doc](),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(resp.Text)))
	dec.DisallowUnknownFields()
	var got doc
	if err := dec.Decode(&got); err != nil {
		t.Fatalf("mock output does not fit its schema: %v\n%s", err, resp.Text)
	}
	if got.Title == "" {
		t.Fatal("expected a non-empty string for title")
	}
	if len(got.Items) != 1 || got.Items[0].Number <= 0 || got.Items[0].Weight <= 0 {
		t.Fatalf("unexpected items %+v", got.Items)
	}
	if len(got.Tags) != 1 || got.Tags[0] == "" {
		t.Fatalf("unexpected tags %v", got.Tags)
	}
}
