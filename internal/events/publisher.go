// Package events announces finished engagements on NATS so downstream
// consumers (reporting pipelines, blocklist builders) can pick them up.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/lurelab/lure/internal/engine"
	"github.com/lurelab/lure/internal/extractor"
)

// Subjects emitted by the publisher.
const (
	SubjectSessionEnded = "lure.session.ended"
	SubjectIntel        = "lure.intel.extracted"
)

// SessionEndedEvent is the wire form of a finished engagement.
type SessionEndedEvent struct {
	SessionID     string            `json:"session_id"`
	ScamType      string            `json:"scam_type"`
	Confidence    float64           `json:"confidence"`
	FinalPhase    string            `json:"final_phase"`
	StartedAt     time.Time         `json:"started_at"`
	EndedAt       time.Time         `json:"ended_at"`
	MessageCount  int               `json:"message_count"`
	ArtifactCount int               `json:"artifact_count"`
	Intelligence  extractor.Grouped `json:"intelligence"`
}

type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewPublisher(url, token string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Publisher{conn: nc, logger: logger}, nil
}

// SessionEnded emits the end-of-engagement event, plus a separate intel
// event when the session yielded artifacts.
func (p *Publisher) SessionEnded(_ context.Context, snap engine.Snapshot) error {
	grouped := extractor.Group(snap.Intelligence)
	event := SessionEndedEvent{
		SessionID:     snap.SessionID,
		ScamType:      snap.ScamType,
		Confidence:    snap.Confidence,
		FinalPhase:    snap.Phase,
		StartedAt:     snap.StartedAt,
		EndedAt:       snap.EndedAt,
		MessageCount:  len(snap.Messages),
		ArtifactCount: len(snap.Intelligence),
		Intelligence:  grouped,
	}
	if err := p.publish(SubjectSessionEnded, event); err != nil {
		return err
	}

	if len(snap.Intelligence) > 0 {
		if err := p.publish(SubjectIntel, map[string]any{
			"session_id":   snap.SessionID,
			"scam_type":    snap.ScamType,
			"intelligence": grouped,
		}); err != nil {
			p.logger.Warn("failed to publish intel event", "session_id", snap.SessionID, "error", err)
		}
	}
	return nil
}

func (p *Publisher) publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return p.conn.Publish(subject, payload)
}

func (p *Publisher) Close() {
	p.conn.Close()
}
