// Package session holds live conversation state and the repository that
// keys it by session identifier.
package session

import (
	"time"

	"github.com/lurelab/lure/internal/extractor"
	"github.com/lurelab/lure/internal/indicator"
	"github.com/lurelab/lure/internal/phase"
)

// Sender roles on a message.
const (
	SenderScammer = "scammer"
	SenderAgent   = "agent"
)

// Message is one line of the conversation. Immutable once appended.
type Message struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Persona is the fictitious identity the agent performs.
type Persona struct {
	Name       string `json:"name,omitempty"`
	Age        int    `json:"age,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Occupation string `json:"occupation,omitempty"`
	Location   string `json:"location,omitempty"`
	Bank       string `json:"bank,omitempty"`
	Language   string `json:"language,omitempty"`
}

// Session accumulates one engagement. Scalar fields follow last-write-wins
// under concurrent turns for the same id; the design goal is monotonic
// accumulation, not transactional consistency.
type Session struct {
	ID           string
	Persona      Persona
	History      []Message
	Intelligence []extractor.Item
	ScamType     string
	Machine      *phase.Machine
	TurnCount    int
	StartedAt    time.Time

	confidence float64
}

func newSession(id string) *Session {
	return &Session{
		ID:        id,
		ScamType:  "unknown",
		Machine:   phase.NewMachine(),
		StartedAt: time.Now().UTC(),
	}
}

// Confidence returns the running scam confidence.
func (s *Session) Confidence() float64 { return s.confidence }

// RaiseConfidence lifts the running confidence; it never decreases.
func (s *Session) RaiseConfidence(c float64) {
	if c > s.confidence {
		s.confidence = c
	}
}

// Append records a conversation line.
func (s *Session) Append(sender, text string) {
	s.History = append(s.History, Message{Sender: sender, Text: text, Timestamp: time.Now().UTC()})
}

// AddIntelligence appends already-deduplicated artifacts.
func (s *Session) AddIntelligence(items []extractor.Item) {
	s.Intelligence = append(s.Intelligence, items...)
}

// SetScamType keeps the most specific known type: a non-generic verdict
// always wins, generic only replaces unknown. Tags outside the reportable
// set are dropped so junk never reaches the envelope.
func (s *Session) SetScamType(t string) {
	if !indicator.KnownScamType(t) {
		return
	}
	if t != "generic" {
		s.ScamType = t
	} else if s.ScamType == "unknown" {
		s.ScamType = t
	}
}

// CounterpartyTexts returns the counterparty's lines in order.
func (s *Session) CounterpartyTexts() []string {
	var out []string
	for _, m := range s.History {
		if m.Sender == SenderScammer {
			out = append(out, m.Text)
		}
	}
	return out
}

// AgentTexts returns the agent's lines in order.
func (s *Session) AgentTexts() []string {
	var out []string
	for _, m := range s.History {
		if m.Sender == SenderAgent {
			out = append(out, m.Text)
		}
	}
	return out
}
