package llm

import (
	"encoding/json"
	"testing"
)

func TestDedupeSources(t *testing.T) {
	in := []Source{
		{Title: "First", URI: "https://a.example/one"},
		{Title: "Dup", URI: "https://a.example/one"},
		{Title: "Second", URI: "https://b.example/two"},
		{Title: "Empty", URI: ""},
		{Title: "Third", URI: "https://c.example/three"},
	}
	out := DedupeSources(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 sources, got %d: %v", len(out), out)
	}
	if out[0].URI != "https://a.example/one" || out[1].URI != "https://b.example/two" || out[2].URI != "https://c.example/three" {
		t.Fatalf("unexpected order: %v", out)
	}
	if out[0].Title != "First" {
		t.Fatalf("expected first occurrence kept, got %q", out[0].Title)
	}
}

func TestDedupeSourcesEmpty(t *testing.T) {
	if got := DedupeSources(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestSchemaForProducesClosedObject(t *testing.T) {
	type sample struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	schema := SchemaFor[sample]()
	raw, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}
	if decoded["type"] != "object" {
		t.Fatalf("expected object schema, got %v", decoded["type"])
	}
	if add, ok := decoded["additionalProperties"].(bool); !ok || add {
		t.Fatalf("expected additionalProperties false, got %v", decoded["additionalProperties"])
	}
	props, ok := decoded["properties"].(map[string]any)
	if !ok {
		t.Fatalf("missing properties in schema: %s", raw)
	}
	if _, ok := props["name"]; !ok {
		t.Fatalf("schema missing name property: %s", raw)
	}
}
