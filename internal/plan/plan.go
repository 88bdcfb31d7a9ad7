package plan

// ProjectPlan is the full structured production plan for one video: the
// applied settings, the scene breakdown, distribution metadata, and the
// audio direction.
type ProjectPlan struct {
	ProjectTitle string       `json:"projectTitle"`
	Settings     PlanSettings `json:"settings"`
	Scenes       []Scene      `json:"scenes"`
	Metadata     Metadata     `json:"metadata"`
	Audio        AudioPlan    `json:"audio"`
}

// PlanSettings echoes the creative preferences the plan was generated under.
type PlanSettings struct {
	Style string `json:"style"`
	Ratio string `json:"ratio"`
	Voice string `json:"voice"`
}

// Scene is one timed segment of the video.
type Scene struct {
	SceneNumber       int     `json:"sceneNumber"`
	VoiceOverScript   string  `json:"voiceOverScript"`
	ImagePrompt       string  `json:"imagePrompt"`
	EstimatedDuration float64 `json:"estimatedDuration" jsonschema_description:"Estimated scene duration in seconds"`
}

// Metadata holds the publish-ready title, tags, and description.
type Metadata struct {
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// MusicPrompt describes one background-music direction.
type MusicPrompt struct {
	Mood        string `json:"mood"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

// AudioPlan carries two alternative music directions plus sound effect cues.
type AudioPlan struct {
	BGMOption1 MusicPrompt `json:"bgmOption1"`
	BGMOption2 MusicPrompt `json:"bgmOption2"`
	SFX        []string    `json:"sfx"`
}

// Aspect ratios the planner accepts.
const (
	RatioWide   = "16:9"
	RatioShorts = "9:16"
)
