// Package engine coordinates one conversation turn: classify the incoming
// message, mine artifacts, advance the phase machine, produce the persona's
// reply, and assemble the outward-facing envelope. A turn never fails
// outright; the worst case is a degraded but well-formed response.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/lurelab/lure/internal/classifier"
	"github.com/lurelab/lure/internal/extractor"
	"github.com/lurelab/lure/internal/indicator"
	"github.com/lurelab/lure/internal/phase"
	"github.com/lurelab/lure/internal/responder"
	"github.com/lurelab/lure/internal/session"
)

// Replier produces the persona's next line. Satisfied by responder.Responder.
type Replier interface {
	Respond(ctx context.Context, in responder.Input) (string, bool)
}

// Snapshot is the flushable view of a finished (or finishing) session.
type Snapshot struct {
	SessionID    string
	ScamType     string
	Confidence   float64
	Phase        string
	StartedAt    time.Time
	EndedAt      time.Time
	Messages     []session.Message
	Intelligence []extractor.Item
}

// Archiver persists a session snapshot. Satisfied by store.Store.
type Archiver interface {
	FlushSession(ctx context.Context, snap Snapshot) error
}

// Notifier announces a finished session downstream. Satisfied by
// events.Publisher.
type Notifier interface {
	SessionEnded(ctx context.Context, snap Snapshot) error
}

// Message is one conversation line as received on the wire.
type Message struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Input is one inbound turn.
type Input struct {
	SessionID           string            `json:"sessionId"`
	Message             Message           `json:"message"`
	ConversationHistory []Message         `json:"conversationHistory,omitempty"`
	Persona             *session.Persona  `json:"persona,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

// Metrics is the engagement progress block of the envelope.
type Metrics struct {
	ConversationPhase  string  `json:"conversationPhase"`
	TurnCount          int     `json:"turnCount"`
	ExtractionProgress float64 `json:"extractionProgress"`
	ArtifactsCollected int     `json:"artifactsCollected"`
	DegradedReply      bool    `json:"degradedReply"`
}

// Analysis is the detection detail block of the envelope.
type Analysis struct {
	UrgencyLevel        string   `json:"urgencyLevel"`
	MatchedCategories   []string `json:"matchedCategories"`
	RedFlags            []string `json:"redFlags"`
	HasFinancialContext bool     `json:"hasFinancialContext"`
	HasDirectRequest    bool     `json:"hasDirectRequest"`
}

// Output is the full response envelope for one turn.
type Output struct {
	Status                    string            `json:"status"`
	SessionID                 string            `json:"sessionId"`
	Reply                     string            `json:"reply"`
	ScamDetected              bool              `json:"scamDetected"`
	ScamType                  string            `json:"scamType"`
	ConfidenceLevel           float64           `json:"confidenceLevel"`
	TotalMessagesExchanged    int               `json:"totalMessagesExchanged"`
	EngagementDurationSeconds int               `json:"engagementDurationSeconds"`
	ExtractedIntelligence     extractor.Grouped `json:"extractedIntelligence"`
	EngagementMetrics         Metrics           `json:"engagementMetrics"`
	AgentNotes                string            `json:"agentNotes"`
	Analysis                  Analysis          `json:"analysis"`
}

// ErrEmptyMessage rejects turns with no usable text.
var ErrEmptyMessage = fmt.Errorf("message text is empty")

const (
	// Engagement verdict thresholds for the envelope. A conversation is
	// reported as a scam on moderate confidence, any extracted artifact,
	// or sustained length.
	reportConfidenceThreshold = 0.25
	reportMinMessages         = 6
	reportedConfidenceFloor   = 0.65

	// Observed turn cadence proxy: transcripts carry no reliable
	// timestamps, so duration is floored at 15s per exchanged message.
	secondsPerMessage = 15
)

var (
	endPattern       = regexp.MustCompile(`(?i)\b(bye|goodbye|stop calling|don'?t call|wrong number|not interested|leave me alone)\b`)
	suspicionPattern = regexp.MustCompile(`(?i)are you (a )?(bot|real|human)|is this a scam|you('re| are) (fake|a fraud)|waste.{0,10}time|report(ing)? you`)
)

type Engine struct {
	classifier *classifier.Classifier
	extractor  *extractor.Extractor
	replier    Replier
	repo       session.Repository
	archive    Archiver // optional
	notify     Notifier // optional
	persona    session.Persona
	logger     *slog.Logger
	now        func() time.Time
}

func New(cl *classifier.Classifier, ex *extractor.Extractor, rep Replier, repo session.Repository, archive Archiver, notify Notifier, persona session.Persona, logger *slog.Logger) *Engine {
	return &Engine{
		classifier: cl,
		extractor:  ex,
		replier:    rep,
		repo:       repo,
		archive:    archive,
		notify:     notify,
		persona:    persona,
		logger:     logger,
		now:        time.Now,
	}
}

// EngageTurn runs one full turn. Only an empty message is an error; any
// internal failure degrades to a best-effort envelope instead.
func (e *Engine) EngageTurn(ctx context.Context, in Input) (out Output, err error) {
	text := strings.TrimSpace(in.Message.Text)
	if text == "" {
		return Output{}, ErrEmptyMessage
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("turn panicked, serving degraded envelope", "session_id", in.SessionID, "panic", r)
			out, err = e.degradedTurn(in, text), nil
		}
	}()

	sess := e.repo.GetOrCreate(in.SessionID)
	if sess.Persona == (session.Persona{}) {
		sess.Persona = e.persona
		if in.Persona != nil {
			sess.Persona = *in.Persona
		}
	}
	if len(sess.History) == 0 && len(in.ConversationHistory) > 0 {
		e.replayHistory(sess, in.ConversationHistory)
	}

	priorTexts := sess.CounterpartyTexts()
	verdict := e.classifier.Classify(text, priorTexts)
	sess.RaiseConfidence(verdict.Confidence)
	if verdict.IsScam {
		sess.SetScamType(verdict.ScamType)
	}

	newItems := e.extractor.ExtractAll(sess.ID, priorTexts, text)
	sess.AddIntelligence(newItems)

	sess.Append(session.SenderScammer, text)
	sess.TurnCount++

	if suspicionPattern.MatchString(text) {
		sess.Machine.MarkSuspicious()
	}
	step := sess.Machine.Step(phase.Signals{
		ScamConfidence:      sess.Confidence(),
		HasFinancialContext: verdict.HasFinancialContext,
		HasDirectRequest:    verdict.HasDirectRequest,
		ExtractionProgress:  extractor.Score(sess.Intelligence),
		CounterpartyEnded:   endPattern.MatchString(text),
	})

	reply, degraded := e.replier.Respond(ctx, responder.Input{
		SessionID: sess.ID,
		Persona:   sess.Persona,
		Phase:     step.Phase,
		ScamType:  sess.ScamType,
		History:   sess.History,
		Message:   text,
	})
	sess.Append(session.SenderAgent, reply)

	out = e.buildEnvelope(sess, in, verdict, reply, degraded, step)

	if step.ShouldEnd {
		e.finishSession(ctx, sess, step.Reason)
	}
	return out, nil
}

// replayHistory reconstructs session state from a transcript handed in by a
// stateless caller. Counterparty lines are re-classified so the machine and
// the running confidence land where a live session would have.
func (e *Engine) replayHistory(sess *session.Session, history []Message) {
	var priorTexts []string
	for _, m := range history {
		sess.History = append(sess.History, session.Message{Sender: m.Sender, Text: m.Text, Timestamp: m.Timestamp})
		if m.Sender != session.SenderScammer {
			continue
		}
		verdict := e.classifier.Classify(m.Text, priorTexts)
		sess.RaiseConfidence(verdict.Confidence)
		if verdict.IsScam {
			sess.SetScamType(verdict.ScamType)
		}
		sess.TurnCount++
		sess.Machine.Step(phase.Signals{
			ScamConfidence:      sess.Confidence(),
			HasFinancialContext: verdict.HasFinancialContext,
			HasDirectRequest:    verdict.HasDirectRequest,
			ExtractionProgress:  extractor.Score(sess.Intelligence),
		})
		priorTexts = append(priorTexts, m.Text)
	}
}

func (e *Engine) buildEnvelope(sess *session.Session, in Input, verdict classifier.Result, reply string, degraded bool, step phase.Result) Output {
	grouped := extractor.Group(sess.Intelligence)

	totalMessages := len(sess.History)
	if fromRequest := len(in.ConversationHistory) + 2; fromRequest > totalMessages {
		totalMessages = fromRequest
	}

	elapsed := int(e.now().UTC().Sub(sess.StartedAt).Seconds())
	if floor := totalMessages * secondsPerMessage; floor > elapsed {
		elapsed = floor
	}

	confidence := sess.Confidence()
	scamDetected := confidence > reportConfidenceThreshold ||
		grouped.Total() > 0 ||
		totalMessages >= reportMinMessages
	if scamDetected && confidence < reportedConfidenceFloor {
		confidence = reportedConfidenceFloor
	}

	var categories []string
	for _, m := range verdict.Matched {
		categories = append(categories, m.Category)
	}
	redFlags := indicator.MatchRedFlags(strings.Join(sess.CounterpartyTexts(), "\n"))

	return Output{
		Status:                    "success",
		SessionID:                 sess.ID,
		Reply:                     reply,
		ScamDetected:              scamDetected,
		ScamType:                  sess.ScamType,
		ConfidenceLevel:           confidence,
		TotalMessagesExchanged:    totalMessages,
		EngagementDurationSeconds: elapsed,
		ExtractedIntelligence:     grouped,
		EngagementMetrics: Metrics{
			ConversationPhase:  string(step.Phase),
			TurnCount:          sess.TurnCount,
			ExtractionProgress: extractor.Score(sess.Intelligence),
			ArtifactsCollected: grouped.Total(),
			DegradedReply:      degraded,
		},
		AgentNotes: agentNotes(sess, grouped, step, degraded),
		Analysis: Analysis{
			UrgencyLevel:        verdict.UrgencyLevel,
			MatchedCategories:   categories,
			RedFlags:            redFlags,
			HasFinancialContext: verdict.HasFinancialContext,
			HasDirectRequest:    verdict.HasDirectRequest,
		},
	}
}

func agentNotes(sess *session.Session, grouped extractor.Grouped, step phase.Result, degraded bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Engaging suspected %s in phase %s (turn %d).", sess.ScamType, step.Phase, sess.TurnCount)
	if n := grouped.Total(); n > 0 {
		fmt.Fprintf(&b, " Collected %d artifact(s) so far", n)
		var kinds []string
		if len(grouped.UPIIDs) > 0 {
			kinds = append(kinds, "payment handles")
		}
		if len(grouped.BankAccounts) > 0 {
			kinds = append(kinds, "bank accounts")
		}
		if len(grouped.PhoneNumbers) > 0 {
			kinds = append(kinds, "phone numbers")
		}
		if len(grouped.PhishingLinks) > 0 {
			kinds = append(kinds, "links")
		}
		if len(kinds) > 0 {
			fmt.Fprintf(&b, " including %s", strings.Join(kinds, ", "))
		}
		b.WriteString(".")
	} else {
		b.WriteString(" No identifying artifacts yet; continuing to probe.")
	}
	if degraded {
		b.WriteString(" Reply served from canned pool.")
	}
	if step.ShouldEnd {
		fmt.Fprintf(&b, " Conversation ended: %s.", step.Reason)
	}
	return b.String()
}

// degradedTurn builds a minimal valid envelope using only the keyword
// classifier and stateless extraction. Serves as the panic backstop.
func (e *Engine) degradedTurn(in Input, text string) Output {
	scamType, confidence := indicator.ClassifyKeywords(text)

	var texts []string
	for _, m := range in.ConversationHistory {
		if m.Sender == session.SenderScammer {
			texts = append(texts, m.Text)
		}
	}
	items := e.extractor.ExtractAll(in.SessionID, texts, text)
	grouped := extractor.Group(items)

	totalMessages := len(in.ConversationHistory) + 2
	return Output{
		Status:                    "success",
		SessionID:                 in.SessionID,
		Reply:                     "Hello? Sorry, the line is very bad. Can you repeat that once more?",
		ScamDetected:              confidence > reportConfidenceThreshold || grouped.Total() > 0,
		ScamType:                  scamType,
		ConfidenceLevel:           confidence,
		TotalMessagesExchanged:    totalMessages,
		EngagementDurationSeconds: totalMessages * secondsPerMessage,
		ExtractedIntelligence:     grouped,
		EngagementMetrics: Metrics{
			ConversationPhase:  string(phase.Greeting),
			TurnCount:          len(texts) + 1,
			ExtractionProgress: extractor.Score(items),
			ArtifactsCollected: grouped.Total(),
			DegradedReply:      true,
		},
		AgentNotes: "Degraded turn: full pipeline unavailable, keyword classification only.",
		Analysis: Analysis{
			UrgencyLevel: "low",
			RedFlags:     indicator.MatchRedFlags(text),
		},
	}
}

// EndSession flushes and tears down a session on explicit request. Unknown
// session ids are a no-op success.
func (e *Engine) EndSession(ctx context.Context, sessionID string) (Snapshot, bool) {
	sess, ok := e.repo.Get(sessionID)
	if !ok {
		return Snapshot{}, false
	}
	snap := e.finishSession(ctx, sess, "ended on request")
	return snap, true
}

// finishSession persists, announces, and forgets a session. Persistence and
// notification failures are logged, never surfaced into the turn.
func (e *Engine) finishSession(ctx context.Context, sess *session.Session, reason string) Snapshot {
	snap := Snapshot{
		SessionID:    sess.ID,
		ScamType:     sess.ScamType,
		Confidence:   sess.Confidence(),
		Phase:        string(sess.Machine.Phase()),
		StartedAt:    sess.StartedAt,
		EndedAt:      e.now().UTC(),
		Messages:     sess.History,
		Intelligence: sess.Intelligence,
	}

	if e.archive != nil {
		if err := e.archive.FlushSession(ctx, snap); err != nil {
			e.logger.Error("failed to flush session", "session_id", sess.ID, "error", err)
		}
	}
	if e.notify != nil {
		if err := e.notify.SessionEnded(ctx, snap); err != nil {
			e.logger.Warn("failed to publish session end", "session_id", sess.ID, "error", err)
		}
	}

	e.repo.Delete(sess.ID)
	e.extractor.Forget(sess.ID)
	e.logger.Info("session finished", "session_id", sess.ID, "reason", reason,
		"scam_type", sess.ScamType, "artifacts", len(sess.Intelligence), "turns", sess.TurnCount)
	return snap
}
