package protocol

import "time"

// Bus subjects used by the studio services.
const (
	SubjectSpeechRequest  = "speech.request"
	SubjectSpeechResult   = "speech.result"
	SubjectPlanCreated    = "plan.created"
	SubjectProviderStatus = "provider.status"
)

// SpeechRequest asks the speech worker to render a voice-over for one scene
// or a standalone script.
type SpeechRequest struct {
	SessionID   string    `json:"session_id"`
	SceneNumber int       `json:"scene_number,omitempty"`
	Text        string    `json:"text"`
	Voice       string    `json:"voice"`
	TraceID     string    `json:"trace_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// SpeechResult carries the rendered artifact (a data URI) or the failure.
type SpeechResult struct {
	SessionID   string    `json:"session_id"`
	SceneNumber int       `json:"scene_number,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	DataURI     string    `json:"data_uri,omitempty"`
	Error       string    `json:"error,omitempty"`
	TraceID     string    `json:"trace_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// PlanCreated announces a freshly assembled project plan.
type PlanCreated struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	Scenes    int       `json:"scenes"`
	TraceID   string    `json:"trace_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ProviderStatus is a heartbeat for one upstream generation provider.
type ProviderStatus struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"` // llm, speech, image
	Healthy   bool      `json:"healthy"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
