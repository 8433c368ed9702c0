package responder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/lurelab/lure/internal/groq"
	"github.com/lurelab/lure/internal/phase"
	"github.com/lurelab/lure/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubProvider struct {
	calls int
	fn    func(call int, model string, messages []groq.Message) (string, error)
}

func (s *stubProvider) Complete(_ context.Context, model string, messages []groq.Message, _ groq.Options) (string, error) {
	s.calls++
	return s.fn(s.calls, model, messages)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *fakeClock) sleep(d time.Duration)   { c.advance(d) }

func testSettings() Settings {
	return Settings{
		Model:          "llama-3.1-8b-instant",
		FallbackModel:  "llama-3.3-70b-versatile",
		AttemptTimeout: 12 * time.Second,
		GlobalBudget:   24 * time.Second,
	}
}

func testInput() Input {
	return Input{
		SessionID: "s1",
		Persona:   session.Persona{Name: "Priya Sharma", Age: 28, Gender: "Female", Occupation: "Software Engineer", Location: "Mumbai", Bank: "SBI", Language: "English"},
		Phase:     phase.Request,
		ScamType:  "upi_fraud",
		Message:   "send 5000 rupees to this UPI id now",
	}
}

func TestChainShape(t *testing.T) {
	p1 := &stubProvider{}
	p2 := &stubProvider{}
	r := New([]Provider{p1, p2}, testSettings(), discardLogger())

	if len(r.attempts) != 6 {
		t.Fatalf("chain length = %d, want 6", len(r.attempts))
	}
	for i, att := range r.attempts[:4] {
		if att.Model != "llama-3.1-8b-instant" {
			t.Errorf("attempt %d model = %q", i, att.Model)
		}
		if att.Timeout != 12*time.Second {
			t.Errorf("attempt %d timeout = %v", i, att.Timeout)
		}
	}
	for i, att := range r.attempts[4:] {
		if att.Model != "llama-3.3-70b-versatile" {
			t.Errorf("fallback attempt %d model = %q", i, att.Model)
		}
		if att.Timeout != 8*time.Second {
			t.Errorf("fallback attempt %d timeout = %v, want 8s", i, att.Timeout)
		}
	}
}

func TestRespond_FirstAttemptWins(t *testing.T) {
	p := &stubProvider{fn: func(int, string, []groq.Message) (string, error) {
		return `"Accha, which UPI id should I send to?"`, nil
	}}
	r := New([]Provider{p}, testSettings(), discardLogger())

	reply, degraded := r.Respond(context.Background(), testInput())
	if degraded {
		t.Fatal("degraded on a successful attempt")
	}
	if reply != "Accha, which UPI id should I send to?" {
		t.Errorf("reply = %q", reply)
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want 1", p.calls)
	}
}

func TestRespond_SafetyFilterSkipsLeakyReply(t *testing.T) {
	p := &stubProvider{fn: func(call int, _ string, _ []groq.Message) (string, error) {
		if call == 1 {
			return "As an AI language model I cannot help with that", nil
		}
		return "Haan ji, one minute, who is calling?", nil
	}}
	r := New([]Provider{p}, testSettings(), discardLogger())

	reply, degraded := r.Respond(context.Background(), testInput())
	if degraded {
		t.Fatal("should have recovered on second attempt")
	}
	if strings.Contains(strings.ToLower(reply), "language model") {
		t.Errorf("leaky reply passed the filter: %q", reply)
	}
	if p.calls != 2 {
		t.Errorf("calls = %d, want 2", p.calls)
	}
}

func TestRespond_AllRateLimited_FallsBackToCanned(t *testing.T) {
	p := &stubProvider{fn: func(int, string, []groq.Message) (string, error) {
		return "", fmt.Errorf("api error 429: %w", groq.ErrRateLimited)
	}}
	r := New([]Provider{p}, testSettings(), discardLogger())
	clock := &fakeClock{t: time.Now()}
	r.now = clock.now
	r.sleep = clock.sleep

	in := testInput()
	reply, degraded := r.Respond(context.Background(), in)
	if !degraded {
		t.Fatal("expected degraded reply")
	}
	if !strings.HasSuffix(reply, "?") {
		t.Errorf("canned reply %q does not end in a question", reply)
	}

	// A second degraded turn must not repeat the first line.
	in.History = append(in.History, session.Message{Sender: session.SenderAgent, Text: reply})
	second, _ := r.Respond(context.Background(), in)
	if second == reply {
		t.Errorf("consecutive canned replies repeated: %q", reply)
	}
}

func TestRespond_BudgetStopsSlowChain(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	p := &stubProvider{fn: func(int, string, []groq.Message) (string, error) {
		clock.advance(12 * time.Second)
		return "", fmt.Errorf("attempt timed out")
	}}
	r := New([]Provider{p, p}, testSettings(), discardLogger())
	r.now = clock.now
	r.sleep = clock.sleep

	start := clock.now()
	reply, degraded := r.Respond(context.Background(), testInput())
	elapsed := clock.now().Sub(start)

	if !degraded {
		t.Fatal("expected degraded reply after slow chain")
	}
	if reply == "" {
		t.Fatal("empty reply")
	}
	if elapsed > 24*time.Second {
		t.Errorf("chain ran %v, past the 24s budget", elapsed)
	}
	// 12s attempts against a 24s budget leave room for two tries, not six.
	if p.calls != 2 {
		t.Errorf("attempts = %d, want 2", p.calls)
	}
}

func TestRespond_RateLimitCooldownIsBounded(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	var sleeps []time.Duration
	p := &stubProvider{fn: func(int, string, []groq.Message) (string, error) {
		return "", fmt.Errorf("api error 429: %w", groq.ErrRateLimited)
	}}
	r := New([]Provider{p}, testSettings(), discardLogger())
	r.now = clock.now
	r.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
		clock.advance(d)
	}

	r.Respond(context.Background(), testInput())

	if len(sleeps) == 0 {
		t.Fatal("expected cooldown sleeps after 429s")
	}
	for _, d := range sleeps {
		if d > 1500*time.Millisecond {
			t.Errorf("cooldown %v exceeds 1.5s cap", d)
		}
	}
}

func TestBuildMessages_RepetitionOverride(t *testing.T) {
	in := testInput()
	in.History = []session.Message{
		{Sender: session.SenderScammer, Text: "share your otp"},
		{Sender: session.SenderAgent, Text: "ok which number did you send the otp to?"},
		{Sender: session.SenderScammer, Text: "just read it out"},
		{Sender: session.SenderAgent, Text: "ok ok which number did you send the otp to?"},
	}

	messages := buildMessages(in)
	found := false
	for _, m := range messages {
		if m.Role == "system" && strings.Contains(m.Content, "TOO SIMILAR") {
			found = true
		}
	}
	if !found {
		t.Error("repeated agent replies did not trigger the override prompt")
	}
}

func TestBuildMessages_NoOverrideOnVariedReplies(t *testing.T) {
	in := testInput()
	in.History = []session.Message{
		{Sender: session.SenderAgent, Text: "oh no, what happened to my account?"},
		{Sender: session.SenderAgent, Text: "accha, can you give me your employee id first?"},
	}

	for _, m := range buildMessages(in) {
		if m.Role == "system" && strings.Contains(m.Content, "TOO SIMILAR") {
			t.Error("override triggered on varied replies")
		}
	}
}

func TestBuildMessages_HistoryWindow(t *testing.T) {
	in := testInput()
	for i := 0; i < 30; i++ {
		sender := session.SenderScammer
		if i%2 == 1 {
			sender = session.SenderAgent
		}
		in.History = append(in.History, session.Message{Sender: sender, Text: fmt.Sprintf("line %d", i)})
	}

	messages := buildMessages(in)
	var convo []groq.Message
	for _, m := range messages {
		if m.Role != "system" {
			convo = append(convo, m)
		}
	}
	// 10 history lines plus the current message.
	if len(convo) != 11 {
		t.Fatalf("conversation lines = %d, want 11", len(convo))
	}
	if convo[0].Content != "line 20" {
		t.Errorf("window starts at %q, want line 20", convo[0].Content)
	}
	if convo[10].Content != in.Message {
		t.Errorf("last line = %q, want current message", convo[10].Content)
	}
}

func TestFallbackPools_AllEndInQuestions(t *testing.T) {
	for _, pool := range [][]string{earlyFallbacks, midFallbacks, lateFallbacks} {
		for _, line := range pool {
			if !strings.HasSuffix(line, "?") {
				t.Errorf("canned line %q does not end in a question mark", line)
			}
		}
	}
}

func TestPickFallback_WidensWhenPoolExhausted(t *testing.T) {
	var history []session.Message
	for _, line := range midFallbacks {
		history = append(history, session.Message{Sender: session.SenderAgent, Text: line})
	}

	r := New(nil, testSettings(), discardLogger())
	r.Seed(1)
	line := pickFallback(r.rng, phase.Request, history)
	for _, used := range midFallbacks {
		if line == used {
			t.Fatalf("exhausted pool line %q repeated while other pools were fresh", line)
		}
	}
}
