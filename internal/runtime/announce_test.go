package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/vidplan-labs/vidplan-core/internal/plan"
	"github.com/vidplan-labs/vidplan-core/internal/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubAssembler struct {
	plan *plan.ProjectPlan
	err  error
}

func (s *stubAssembler) Assemble(ctx context.Context, sessionID string, brief plan.Brief) (*plan.ProjectPlan, error) {
	return s.plan, s.err
}

type capturedStatus struct {
	statuses []protocol.ProviderStatus
}

func (c *capturedStatus) Report(status protocol.ProviderStatus) {
	c.statuses = append(c.statuses, status)
}

func TestAnnouncingPlannerPublishesPlanCreated(t *testing.T) {
	inner := &stubAssembler{plan: &plan.ProjectPlan{
		ProjectTitle: "Glacier Journey",
		Scenes:       []plan.Scene{{SceneNumber: 1}, {SceneNumber: 2}},
	}}
	var subject string
	var payload []byte
	sink := &capturedStatus{}
	p := newAnnouncingPlanner(inner, func(subj string, data []byte) error {
		subject = subj
		payload = data
		return nil
	}, sink, testLogger())

	if _, err := p.Assemble(context.Background(), "sess-1", plan.Brief{TopicOrScript: "glaciers"}); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if subject != protocol.SubjectPlanCreated {
		t.Fatalf("published on %q, want %q", subject, protocol.SubjectPlanCreated)
	}
	var evt protocol.PlanCreated
	if err := json.Unmarshal(payload, &evt); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if evt.SessionID != "sess-1" || evt.Title != "Glacier Journey" || evt.Scenes != 2 {
		t.Fatalf("unexpected event %+v", evt)
	}
	if len(sink.statuses) != 1 || !sink.statuses[0].Healthy || sink.statuses[0].Name != "llm" {
		t.Fatalf("unexpected status reports %+v", sink.statuses)
	}
}

func TestAnnouncingPlannerSkipsFailedAssembly(t *testing.T) {
	inner := &stubAssembler{err: errors.New("model unavailable")}
	published := false
	sink := &capturedStatus{}
	p := newAnnouncingPlanner(inner, func(string, []byte) error {
		published = true
		return nil
	}, sink, testLogger())

	if _, err := p.Assemble(context.Background(), "sess-2", plan.Brief{TopicOrScript: "glaciers"}); err == nil {
		t.Fatal("expected error")
	}
	if published {
		t.Fatal("failed assembly must not be announced")
	}
	if len(sink.statuses) != 1 || sink.statuses[0].Healthy {
		t.Fatalf("expected one unhealthy report, got %+v", sink.statuses)
	}
}

func TestAnnouncingPlannerIgnoresEmptyBrief(t *testing.T) {
	inner := &stubAssembler{err: errors.New("brief requires a topic or script")}
	sink := &capturedStatus{}
	p := newAnnouncingPlanner(inner, nil, sink, testLogger())

	if _, err := p.Assemble(context.Background(), "sess-3", plan.Brief{TopicOrScript: "   "}); err == nil {
		t.Fatal("expected error")
	}
	if len(sink.statuses) != 0 {
		t.Fatalf("empty brief must not produce a provider report, got %+v", sink.statuses)
	}
}
