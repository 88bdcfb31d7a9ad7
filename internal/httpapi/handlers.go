package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vidplan-labs/vidplan-core/internal/activity"
	"github.com/vidplan-labs/vidplan-core/internal/chat"
	"github.com/vidplan-labs/vidplan-core/internal/image"
	"github.com/vidplan-labs/vidplan-core/internal/plan"
	"github.com/vidplan-labs/vidplan-core/internal/tts"
)

type createPlanRequest struct {
	TopicOrScript  string `json:"topicOrScript" binding:"required"`
	ScriptProvided bool   `json:"scriptProvided"`
	VisualStyle    string `json:"visualStyle"`
	AspectRatio    string `json:"aspectRatio"`
	VoicePersona   string `json:"voicePersona"`
	SessionID      string `json:"sessionId"`
}

func (s *Server) handleCreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	start := time.Now()
	p, err := s.deps.Planner.Assemble(c.Request.Context(), sessionID, plan.Brief{
		TopicOrScript:  req.TopicOrScript,
		ScriptProvided: req.ScriptProvided,
		VisualStyle:    req.VisualStyle,
		AspectRatio:    req.AspectRatio,
		VoicePersona:   req.VoicePersona,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	s.record(c, activity.Entry{
		SessionID: sessionID,
		Kind:      activity.KindPlanAssembled,
		Duration:  time.Since(start),
	})
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "plan": p})
}

func (s *Server) handleExportPlan(c *gin.Context) {
	var p plan.ProjectPlan
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := p.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := plan.ExportJSON(&p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+plan.ExportFilename(p.ProjectTitle)+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) handleListVoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"voices": s.deps.Speaker.Catalog().List()})
}

type voiceOverRequest struct {
	Text      string `json:"text" binding:"required"`
	Voice     string `json:"voice"`
	SessionID string `json:"sessionId"`
}

func (s *Server) handleVoiceOver(c *gin.Context) {
	var req voiceOverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	start := time.Now()
	artifact, err := s.deps.Speaker.Speak(c.Request.Context(), sessionID, req.Text, req.Voice)
	if err != nil {
		var chunkErr *tts.ChunkError
		if errors.As(err, &chunkErr) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":        chunkErr.Error(),
				"failedChunks": chunkErr.Failed,
				"totalChunks":  chunkErr.Total,
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if artifact.Fallback {
		s.record(c, activity.Entry{
			SessionID: sessionID,
			Kind:      activity.KindProviderFallback,
			Provider:  "premium",
		})
	}
	s.record(c, activity.Entry{
		SessionID: sessionID,
		Kind:      activity.KindVoiceOverRender,
		Provider:  artifact.Provider,
		Duration:  time.Since(start),
	})
	c.JSON(http.StatusOK, gin.H{
		"sessionId": sessionID,
		"dataUri":   artifact.DataURI,
		"mime":      artifact.MIME,
		"provider":  artifact.Provider,
	})
}

type voicePreviewRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice" binding:"required"`
}

const defaultPreviewText = "This is a preview of the selected voice."

// handleVoicePreview renders a short sample with last-request-wins
// semantics: a result that finishes after a newer preview started is
// discarded instead of returned.
func (s *Server) handleVoicePreview(c *gin.Context) {
	var req voicePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text := req.Text
	if text == "" {
		text = defaultPreviewText
	}

	token := s.deps.Preview.Begin()
	artifact, err := s.deps.Speaker.Speak(c.Request.Context(), "preview", text, req.Voice)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if !s.deps.Preview.Current(token) {
		c.JSON(http.StatusConflict, gin.H{"error": "preview superseded by a newer request"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dataUri":  artifact.DataURI,
		"mime":     artifact.MIME,
		"provider": artifact.Provider,
	})
}

type sceneImageRequest struct {
	Prompt      string `json:"prompt" binding:"required"`
	AspectRatio string `json:"aspectRatio"`
	Style       string `json:"style"`
	SessionID   string `json:"sessionId"`
}

func (s *Server) handleSceneImage(c *gin.Context) {
	var req sceneImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	uri, err := s.deps.Images.Generate(c.Request.Context(), image.Request{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Style:       req.Style,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if req.SessionID != "" {
		s.record(c, activity.Entry{
			SessionID: req.SessionID,
			Kind:      activity.KindImageRender,
			Duration:  time.Since(start),
		})
	}
	c.JSON(http.StatusOK, gin.H{"dataUri": uri})
}

type musicRequest struct {
	Prompt    string `json:"prompt" binding:"required"`
	SessionID string `json:"sessionId"`
}

func (s *Server) handleMusic(c *gin.Context) {
	var req musicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	start := time.Now()
	tracks, err := s.deps.Music.GenerateVariations(c.Request.Context(), sessionID, req.Prompt)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	s.record(c, activity.Entry{
		SessionID: sessionID,
		Kind:      activity.KindMusicRender,
		Duration:  time.Since(start),
	})
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "tracks": tracks})
}

func (s *Server) handleNewChatSession(c *gin.Context) {
	if s.deps.Chat == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "chat is disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": s.deps.Chat.NewSession()})
}

func (s *Server) handleChatHistory(c *gin.Context) {
	if s.deps.Chat == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "chat is disabled"})
		return
	}
	history, err := s.deps.Chat.History(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": history})
}

type chatMessageRequest struct {
	Message    string `json:"message" binding:"required"`
	WebSearch  bool   `json:"webSearch"`
	DeepSearch bool   `json:"deepSearch"`
}

func (s *Server) handleChatMessage(c *gin.Context) {
	if s.deps.Chat == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "chat is disabled"})
		return
	}
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sessionID := c.Param("id")

	start := time.Now()
	reply, err := s.deps.Chat.Send(c.Request.Context(), sessionID, req.Message, chat.Options{
		WebSearch:  req.WebSearch,
		DeepSearch: req.DeepSearch,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	s.record(c, activity.Entry{
		SessionID: sessionID,
		Kind:      activity.KindChatTurn,
		Duration:  time.Since(start),
	})
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (s *Server) handleListProviders(c *gin.Context) {
	if s.deps.Providers == nil {
		c.JSON(http.StatusOK, gin.H{"providers": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": s.deps.Providers.Snapshot()})
}

func (s *Server) handleSessionActivity(c *gin.Context) {
	if s.deps.Activity == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []any{}})
		return
	}
	entries, err := s.deps.Activity.ListSession(c.Request.Context(), c.Param("id"), 200)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReadyz(c *gin.Context) {
	if s.deps.Planner == nil || s.deps.Speaker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	if s.deps.Bus != nil && !s.deps.Bus.Healthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "bus disconnected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) record(c *gin.Context, entry activity.Entry) {
	if s.deps.Activity == nil {
		return
	}
	if err := s.deps.Activity.TouchSession(c.Request.Context(), entry.SessionID, ""); err != nil {
		s.logger.Warn("activity session touch failed", slog.String("error", err.Error()))
		return
	}
	if err := s.deps.Activity.Record(c.Request.Context(), entry); err != nil {
		s.logger.Warn("activity record failed", slog.String("error", err.Error()))
	}
}
