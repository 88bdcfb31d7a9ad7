package tts

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vidplan-labs/vidplan-core/internal/bus"
	"github.com/vidplan-labs/vidplan-core/internal/protocol"
)

// renderTimeout bounds one full voice-over render, premium attempt and
// fallback included. A hung provider call must not hang the worker forever.
const renderTimeout = 90 * time.Second

// Service is the bus-facing speech worker: it consumes synthesis requests
// and publishes rendered artifacts or failures.
type Service struct {
	bus    *bus.Client
	router *Router
	sub    *nats.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewService(parent context.Context, busClient *bus.Client, router *Router, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		bus:    busClient,
		router: router,
		ctx:    ctx,
		cancel: cancel,
		logger: log.With(slog.String("component", "speech-service")),
	}
}

func (s *Service) Start() error {
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectSpeechRequest, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return s.sub != nil }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.SpeechRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode speech request", slogError(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, renderTimeout)
		defer cancel()

		result := protocol.SpeechResult{
			SessionID:   req.SessionID,
			SceneNumber: req.SceneNumber,
			TraceID:     req.TraceID,
			Timestamp:   time.Now().UTC(),
		}
		artifact, err := s.router.Speak(ctx, req.SessionID, req.Text, req.Voice)
		if err != nil {
			s.logger.Warn("speech render failed", slogError(err))
			result.Error = err.Error()
		} else {
			result.Provider = artifact.Provider
			result.DataURI = artifact.DataURI
		}
		s.publishResult(result)
	}()
}

func (s *Service) publishResult(result protocol.SpeechResult) {
	if err := s.bus.PublishJSON(protocol.SubjectSpeechResult, result); err != nil {
		s.logger.Warn("failed to publish speech result", slogError(err))
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
