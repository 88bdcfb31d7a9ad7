package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/vidplan-labs/vidplan-core/internal/plan"
	"github.com/vidplan-labs/vidplan-core/internal/protocol"
)

type planAssembler interface {
	Assemble(ctx context.Context, sessionID string, brief plan.Brief) (*plan.ProjectPlan, error)
}

type statusSink interface {
	Report(status protocol.ProviderStatus)
}

// announcingPlanner wraps the assembler: every successfully assembled plan
// is announced on the bus, and the language-model health is reported to the
// provider registry after each generation attempt.
type announcingPlanner struct {
	inner    planAssembler
	publish  func(subject string, data []byte) error
	reporter statusSink
	log      *slog.Logger
}

func newAnnouncingPlanner(inner planAssembler, publish func(string, []byte) error, reporter statusSink, log *slog.Logger) *announcingPlanner {
	return &announcingPlanner{
		inner:    inner,
		publish:  publish,
		reporter: reporter,
		log:      log.With(slog.String("component", "plan-announcer")),
	}
}

func (a *announcingPlanner) Assemble(ctx context.Context, sessionID string, brief plan.Brief) (*plan.ProjectPlan, error) {
	p, err := a.inner.Assemble(ctx, sessionID, brief)

	// An empty brief fails before the model is called, so it says nothing
	// about provider health.
	if a.reporter != nil && strings.TrimSpace(brief.TopicOrScript) != "" {
		status := protocol.ProviderStatus{Name: "llm", Kind: "llm", Healthy: err == nil}
		if err != nil {
			status.Detail = err.Error()
		}
		a.reporter.Report(status)
	}
	if err != nil {
		return nil, err
	}

	a.announce(sessionID, p)
	return p, nil
}

func (a *announcingPlanner) announce(sessionID string, p *plan.ProjectPlan) {
	if a.publish == nil {
		return
	}
	evt := protocol.PlanCreated{
		SessionID: sessionID,
		Title:     p.ProjectTitle,
		Scenes:    len(p.Scenes),
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := a.publish(protocol.SubjectPlanCreated, data); err != nil {
		a.log.Warn("failed to publish plan announcement", slog.String("error", err.Error()))
	}
}
