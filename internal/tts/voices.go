package tts

import (
	"fmt"
	"hash/fnv"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// The built-in backend only accepts a small fixed set of synthetic voices.
// Everything else (persona labels shown to users, premium voice tokens) has
// to be resolved onto one of these, deterministically.
var builtinVoices = []string{"Aoede", "Charon", "Fenrir", "Kore", "Puck", "Zephyr"}

// premiumTokenPattern matches the shape of an opaque premium voice id.
var premiumTokenPattern = regexp.MustCompile(`^[a-zA-Z0-9]{20}$`)

const (
	CategoryStandard = "Standard"
	CategoryPremium  = "Premium"
)

// VoiceOption is one catalog entry.
type VoiceOption struct {
	Label    string `yaml:"label" json:"label"`
	ID       string `yaml:"id" json:"id"`
	Category string `yaml:"category" json:"category"`
	Avatar   string `yaml:"avatar,omitempty" json:"avatar,omitempty"`
	Gender   string `yaml:"gender,omitempty" json:"gender,omitempty"`
}

// KeywordRule maps persona-label substrings onto a built-in voice. Rules are
// evaluated in order; the first hit wins.
type KeywordRule struct {
	Contains []string `yaml:"contains" json:"contains"`
	Voice    string   `yaml:"voice" json:"voice"`
}

// Catalog holds the voice options and the persona resolution rules. The
// keyword table is configuration data, not code.
type Catalog struct {
	Options  []VoiceOption `yaml:"options" json:"options"`
	Keywords []KeywordRule `yaml:"keywords" json:"keywords"`
}

// DefaultCatalog returns the built-in catalog shipped with the daemon.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Options: []VoiceOption{
			{Label: "Deep Male (Documentary)", ID: "Deep Male (Documentary)", Category: CategoryStandard, Gender: "male"},
			{Label: "Energetic Female (Vlog)", ID: "Energetic Female (Vlog)", Category: CategoryStandard, Gender: "female"},
			{Label: "Soft Storyteller (ASMR)", ID: "Soft Storyteller (ASMR)", Category: CategoryStandard, Gender: "female"},
			{Label: "Professional Narrator", ID: "Professional Narrator", Category: CategoryStandard, Gender: "male"},
			{Label: "Hype Beast (Shorts)", ID: "Hype Beast (Shorts)", Category: CategoryStandard, Gender: "male"},
			{Label: "Chloe (Friendly Guide)", ID: "Chloe (Friendly Guide)", Category: CategoryStandard, Gender: "female"},
			{Label: "Luna (Bedtime Stories)", ID: "Luna (Bedtime Stories)", Category: CategoryStandard, Gender: "female"},
			{Label: "Marcus (Deep Narrative)", ID: "pNInz6obpgDQGcFmaJgB", Category: CategoryPremium, Gender: "male"},
			{Label: "Sarah (Energetic Vlog)", ID: "EXAVITQu4vr4xnSDxMaL", Category: CategoryPremium, Gender: "female"},
			{Label: "Viktor (Tech Reviewer)", ID: "ErXwobaYiN019PkySvjV", Category: CategoryPremium, Gender: "male"},
			{Label: "Nova (News Anchor)", ID: "21m00Tcm4TlvDq8ikWAM", Category: CategoryPremium, Gender: "female"},
		},
		Keywords: []KeywordRule{
			{Contains: []string{"male", "deep", "narrative", "news"}, Voice: "Fenrir"},
			{Contains: []string{"energetic", "hype", "vlog"}, Voice: "Charon"},
			{Contains: []string{"soft", "asmr", "meditation"}, Voice: "Kore"},
			{Contains: []string{"pro", "documentary", "tech", "academic"}, Voice: "Zephyr"},
			{Contains: []string{"guide", "tutorial", "children"}, Voice: "Puck"},
			{Contains: []string{"story", "stories", "book"}, Voice: "Aoede"},
		},
	}
}

// LoadCatalog reads a catalog from disk, falling back to the default when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read voice catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse voice catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate ensures catalog entries are usable.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Options))
	for i, opt := range c.Options {
		if opt.ID == "" {
			return fmt.Errorf("catalog option %d: id is required", i)
		}
		if opt.Label == "" {
			return fmt.Errorf("catalog option %q: label is required", opt.ID)
		}
		switch opt.Category {
		case CategoryStandard, CategoryPremium:
		default:
			return fmt.Errorf("catalog option %q: category must be Standard or Premium", opt.ID)
		}
		if seen[opt.ID] {
			return fmt.Errorf("catalog option %q: duplicate id", opt.ID)
		}
		seen[opt.ID] = true
	}
	for i, rule := range c.Keywords {
		if len(rule.Contains) == 0 {
			return fmt.Errorf("keyword rule %d: contains must not be empty", i)
		}
		if !isBuiltinVoice(rule.Voice) {
			return fmt.Errorf("keyword rule %d: %q is not a built-in voice", i, rule.Voice)
		}
	}
	return nil
}

// IsPremiumID reports whether the selector is a premium catalog entry's id.
func (c *Catalog) IsPremiumID(selector string) bool {
	for _, opt := range c.Options {
		if opt.ID == selector && opt.Category == CategoryPremium {
			return true
		}
	}
	return false
}

// PremiumShaped reports whether the selector should be routed to the premium
// provider first: either a known premium id or anything shaped like an
// opaque provider token.
func (c *Catalog) PremiumShaped(selector string) bool {
	return c.IsPremiumID(selector) || premiumTokenPattern.MatchString(selector)
}

// Resolve maps an arbitrary voice selector onto a built-in voice id.
// Resolution order: exact built-in match, keyword rules, then a hash of the
// full selector. The same unmapped selector always resolves to the same
// voice.
func (c *Catalog) Resolve(selector string) string {
	if isBuiltinVoice(selector) {
		return selector
	}
	lower := strings.ToLower(selector)
	for _, rule := range c.Keywords {
		for _, kw := range rule.Contains {
			if strings.Contains(lower, kw) {
				return rule.Voice
			}
		}
	}
	h := fnv.New32a()
	h.Write([]byte(selector))
	return builtinVoices[h.Sum32()%uint32(len(builtinVoices))]
}

// List returns a copy of the catalog entries in declaration order.
func (c *Catalog) List() []VoiceOption {
	return append([]VoiceOption(nil), c.Options...)
}

func isBuiltinVoice(name string) bool {
	for _, v := range builtinVoices {
		if v == name {
			return true
		}
	}
	return false
}
