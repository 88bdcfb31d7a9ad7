package tts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveExactBuiltinMatch(t *testing.T) {
	c := DefaultCatalog()
	for _, v := range builtinVoices {
		if got := c.Resolve(v); got != v {
			t.Fatalf("Resolve(%q) = %q, want identity", v, got)
		}
	}
}

func TestResolveKeywordTable(t *testing.T) {
	c := DefaultCatalog()
	cases := map[string]string{
		"Deep Male (Documentary)": "Fenrir",
		"Hype Beast (Shorts)":     "Charon",
		"Soft Storyteller (ASMR)": "Kore",
		"Professional Narrator":   "Zephyr",
		"Chloe (Friendly Guide)":  "Puck",
		"Luna (Bedtime Stories)":  "Aoede",
	}
	for persona, want := range cases {
		got := c.Resolve(persona)
		if got != want {
			t.Fatalf("Resolve(%q) = %q, want %q", persona, got, want)
		}
	}
}

func TestResolveHashFallbackIsStable(t *testing.T) {
	c := DefaultCatalog()
	names := []string{"Xylophone Wizard", "Quiznak", "zzz-unknown-9000"}
	for _, name := range names {
		first := c.Resolve(name)
		if !isBuiltinVoice(first) {
			t.Fatalf("Resolve(%q) = %q, not a built-in voice", name, first)
		}
		for i := 0; i < 10; i++ {
			if got := c.Resolve(name); got != first {
				t.Fatalf("Resolve(%q) unstable: %q then %q", name, first, got)
			}
		}
	}
}

func TestPremiumShaped(t *testing.T) {
	c := DefaultCatalog()

	// A 20-char alphanumeric token not in the catalog still routes premium.
	if !c.PremiumShaped("abcDEF1234567890wxyz") {
		t.Fatal("expected opaque token to be premium-shaped")
	}
	// Known premium catalog id.
	if !c.PremiumShaped("pNInz6obpgDQGcFmaJgB") {
		t.Fatal("expected catalog premium id to be premium-shaped")
	}
	// Human-readable persona goes direct to built-in.
	if c.PremiumShaped("Deep Male (Documentary)") {
		t.Fatal("persona label must not be premium-shaped")
	}
	// 19 and 21 character tokens are not premium-shaped.
	if c.PremiumShaped("abcDEF1234567890wxy") || c.PremiumShaped("abcDEF1234567890wxyzA") {
		t.Fatal("token length check failed")
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	const catalogYAML = `options:
  - label: Narrator
    id: Narrator
    category: Standard
    gender: male
  - label: Premium Ana
    id: aaaabbbbccccdddd1111
    category: Premium
    gender: female
keywords:
  - contains: ["narr"]
    voice: Fenrir
`
	tmp := t.TempDir()
	path := filepath.Join(tmp, "voices.yaml")
	if err := os.WriteFile(path, []byte(catalogYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(c.Options))
	}
	if !c.IsPremiumID("aaaabbbbccccdddd1111") {
		t.Fatal("expected premium id from file")
	}
	if got := c.Resolve("Narrator Voice"); got != "Fenrir" {
		t.Fatalf("keyword rule from file not applied, got %q", got)
	}
}

func TestLoadCatalogRejectsBadEntries(t *testing.T) {
	const badYAML = `options:
  - label: NoID
    category: Standard
`
	tmp := t.TempDir()
	path := filepath.Join(tmp, "voices.yaml")
	if err := os.WriteFile(path, []byte(badYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadCatalogDefaultPath(t *testing.T) {
	c, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestResolveFallbackStaysInCatalog(t *testing.T) {
	c := DefaultCatalog()
	selectors := []string{
		"",
		"???",
		"a completely novel persona",
		strings.Repeat("z", 64),
		"Ünïcøde näme",
	}
	for _, sel := range selectors {
		got := c.Resolve(sel)
		if !isBuiltinVoice(got) {
			t.Fatalf("Resolve(%q) = %q, not a built-in voice", sel, got)
		}
		if again := c.Resolve(sel); again != got {
			t.Fatalf("Resolve(%q) not stable: %q then %q", sel, got, again)
		}
	}
}
