package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vidplan-labs/vidplan-core/internal/llm"
)

const scriptwriterInstruction = `You are an expert professional scriptwriter and document assistant.

YOUR OUTPUT FORMAT:
- Format your scripts exactly like a professional Text Document.
- Use bold Headers for sections (e.g., **Introduction**, **Body**, **Conclusion**).
- Use clean bullet points for lists.
- Use clear paragraph breaks.
- Do NOT use markdown code blocks for the script content unless specifically asked for code.
- Ensure the tone is engaging, well-researched, and ready for production.

YOUR ROLE:
- Help users brainstorm viral ideas.
- Write full, detailed scripts.
- Structure content for high audience retention.`

// Message is one turn of a chat session.
type Message struct {
	Role    string       `json:"role"`
	Text    string       `json:"text"`
	Sources []llm.Source `json:"sources,omitempty"`
	At      time.Time    `json:"at"`
}

// Options selects the research depth for a single message.
type Options struct {
	WebSearch  bool `json:"webSearch"`
	DeepSearch bool `json:"deepSearch"`
}

type session struct {
	id      string
	history []Message
}

// Service holds chat sessions in memory and routes each message through the
// generation backend with the full transcript as context.
type Service struct {
	gen            llm.Generator
	thinkingBudget int
	logger         *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewService(gen llm.Generator, logger *slog.Logger) *Service {
	return &Service{
		gen:      gen,
		logger:   logger.With(slog.String("component", "chat")),
		sessions: make(map[string]*session),
	}
}

// SetThinkingBudget overrides the reasoning-token cap applied to
// deep-search messages.
func (s *Service) SetThinkingBudget(budget int) {
	s.thinkingBudget = budget
}

// NewSession creates an empty session and returns its id.
func (s *Service) NewSession() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &session{id: id}
	s.mu.Unlock()
	return id
}

// History returns a copy of the session transcript.
func (s *Service) History(sessionID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("unknown session %s", sessionID)
	}
	out := make([]Message, len(sess.history))
	copy(out, sess.history)
	return out, nil
}

// Send appends the user message to the session, generates a reply with the
// requested research options, and returns the model turn.
func (s *Service) Send(ctx context.Context, sessionID, text string, opts Options) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, fmt.Errorf("empty message")
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return Message{}, fmt.Errorf("unknown session %s", sessionID)
	}
	prompt := renderTranscript(sess.history, text)
	s.mu.Unlock()

	resp, err := s.gen.Generate(ctx, llm.Request{
		SessionID:      sessionID,
		Prompt:         prompt,
		System:         scriptwriterInstruction,
		WebSearch:      opts.WebSearch,
		DeepSearch:     opts.DeepSearch,
		ThinkingBudget: s.thinkingBudget,
	})
	if err != nil {
		return Message{}, fmt.Errorf("chat generation: %w", err)
	}

	reply := Message{
		Role:    "model",
		Text:    resp.Text,
		Sources: llm.DedupeSources(resp.Sources),
		At:      time.Now().UTC(),
	}
	if reply.Text == "" {
		reply.Text = "I couldn't generate a response."
	}

	s.mu.Lock()
	sess.history = append(sess.history,
		Message{Role: "user", Text: text, At: time.Now().UTC()},
		reply)
	s.mu.Unlock()

	s.logger.Info("chat turn",
		slog.String("session_id", sessionID),
		slog.Bool("web_search", opts.WebSearch),
		slog.Bool("deep_search", opts.DeepSearch),
		slog.Int("sources", len(reply.Sources)))
	return reply, nil
}

// renderTranscript flattens prior turns plus the new message into a single
// prompt so stateless backends see the conversation context.
func renderTranscript(history []Message, next string) string {
	if len(history) == 0 {
		return next
	}
	var b strings.Builder
	for _, msg := range history {
		switch msg.Role {
		case "user":
			fmt.Fprintf(&b, "User: %s\n\n", msg.Text)
		case "model":
			fmt.Fprintf(&b, "Assistant: %s\n\n", msg.Text)
		}
	}
	fmt.Fprintf(&b, "User: %s", next)
	return b.String()
}
