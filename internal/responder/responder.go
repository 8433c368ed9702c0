// Package responder turns a classified conversation turn into the persona's
// next reply. It walks a fixed chain of completion attempts under a global
// wall-clock budget and degrades to canned replies when the chain is spent.
package responder

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/lurelab/lure/internal/groq"
	"github.com/lurelab/lure/internal/phase"
	"github.com/lurelab/lure/internal/session"
)

// Provider is a single-attempt completion backend.
type Provider interface {
	Complete(ctx context.Context, model string, messages []groq.Message, opts groq.Options) (string, error)
}

// Attempt is one slot in the completion chain.
type Attempt struct {
	Provider Provider
	Model    string
	Timeout  time.Duration
	Label    string
}

const (
	// stopMargin ends the chain early: an attempt that cannot finish
	// before the budget runs out is not worth starting.
	stopMargin = 2 * time.Second
	// reserve keeps headroom between an attempt's timeout and the
	// remaining budget so the fallback path still fits.
	reserve = 500 * time.Millisecond
	// minAttemptTimeout floors the per-attempt timeout; anything shorter
	// cannot produce a completion anyway.
	minAttemptTimeout = 2 * time.Second
	// rateLimitCooldown is the maximum pause after a 429 before the next
	// attempt.
	rateLimitCooldown = 1500 * time.Millisecond
	// fallbackModelTimeout tightens attempts on the heavier fallback model.
	fallbackModelTimeout = 8 * time.Second
)

// Settings configures the chain shape.
type Settings struct {
	Model          string
	FallbackModel  string
	AttemptTimeout time.Duration
	GlobalBudget   time.Duration
}

// Input carries everything a reply needs.
type Input struct {
	SessionID string
	Persona   session.Persona
	Phase     phase.Phase
	ScamType  string
	History   []session.Message
	Message   string
}

type Responder struct {
	attempts []Attempt
	budget   time.Duration
	logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand

	now   func() time.Time
	sleep func(time.Duration)
}

// New builds the responder. The chain tries the primary model on every
// provider, retries the same pairs once, then falls back to the heavier
// model with a tighter timeout.
func New(providers []Provider, s Settings, logger *slog.Logger) *Responder {
	var attempts []Attempt
	for pass := 0; pass < 2; pass++ {
		for i, p := range providers {
			attempts = append(attempts, Attempt{
				Provider: p,
				Model:    s.Model,
				Timeout:  s.AttemptTimeout,
				Label:    label(s.Model, i, pass),
			})
		}
	}
	fbTimeout := s.AttemptTimeout
	if fbTimeout > fallbackModelTimeout {
		fbTimeout = fallbackModelTimeout
	}
	for i, p := range providers {
		attempts = append(attempts, Attempt{
			Provider: p,
			Model:    s.FallbackModel,
			Timeout:  fbTimeout,
			Label:    label(s.FallbackModel, i, 0),
		})
	}

	return &Responder{
		attempts: attempts,
		budget:   s.GlobalBudget,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

func label(model string, key, pass int) string {
	if pass > 0 {
		return model + "/retry"
	}
	if key > 0 {
		return model + "/recovery"
	}
	return model
}

// Seed makes fallback selection deterministic. Test hook.
func (r *Responder) Seed(seed int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng = rand.New(rand.NewSource(seed))
}

// Respond produces the persona's next line. It never fails: when every
// attempt in the chain is rejected or the budget runs out, a canned reply is
// returned and degraded is true.
func (r *Responder) Respond(ctx context.Context, in Input) (reply string, degraded bool) {
	deadline := r.now().Add(r.budget)
	messages := buildMessages(in)

	var lastRateLimit time.Time
	for _, att := range r.attempts {
		if r.coolDown(deadline, lastRateLimit) {
			break
		}
		remaining := deadline.Sub(r.now())
		if remaining < stopMargin {
			r.logger.Warn("reply budget exhausted", "session_id", in.SessionID, "next", att.Label)
			break
		}

		timeout := att.Timeout
		if limit := remaining - reserve; timeout > limit {
			timeout = limit
		}
		if timeout < minAttemptTimeout {
			timeout = minAttemptTimeout
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		text, err := att.Provider.Complete(attemptCtx, att.Model, messages, groq.Options{
			Temperature: 0.85,
			MaxTokens:   200,
		})
		cancel()

		if err != nil {
			if errors.Is(err, groq.ErrRateLimited) {
				lastRateLimit = r.now()
			}
			r.logger.Warn("completion attempt failed", "session_id", in.SessionID, "attempt", att.Label, "error", err)
			continue
		}

		text = sanitizeReply(text)
		if text == "" {
			r.logger.Warn("empty completion", "session_id", in.SessionID, "attempt", att.Label)
			continue
		}
		if revealsIdentity(text) {
			r.logger.Warn("completion rejected by safety filter", "session_id", in.SessionID, "attempt", att.Label)
			continue
		}
		return text, false
	}

	r.mu.Lock()
	line := pickFallback(r.rng, in.Phase, in.History)
	r.mu.Unlock()
	r.logger.Info("using canned reply", "session_id", in.SessionID, "phase", in.Phase)
	return line, true
}

// coolDown pauses after a 429, never past the point where another attempt
// would be pointless. Reports whether the budget is spent.
func (r *Responder) coolDown(deadline, lastRateLimit time.Time) bool {
	if lastRateLimit.IsZero() {
		return false
	}
	wait := rateLimitCooldown - r.now().Sub(lastRateLimit)
	if wait <= 0 {
		return false
	}
	if limit := deadline.Sub(r.now()) - stopMargin; wait > limit {
		wait = limit
	}
	if wait > 0 {
		r.sleep(wait)
	}
	return deadline.Sub(r.now()) < stopMargin
}

func sanitizeReply(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"`)
	return strings.TrimSpace(text)
}
