package responder

import (
	"math/rand"
	"strings"

	"github.com/lurelab/lure/internal/phase"
	"github.com/lurelab/lure/internal/session"
)

// Canned replies used when every completion attempt fails. Every line ends
// in an open question so the conversation keeps moving even while degraded.
var (
	earlyFallbacks = []string{
		"Hello? Haan, who is this speaking?",
		"Accha, sorry the line was breaking up. Can you tell me your name again?",
		"Haan ji, I am here. Which company are you calling from?",
		"One minute, let me sit down. Who did you say you were?",
	}

	midFallbacks = []string{
		"Oh no, that sounds serious. What should I do now?",
		"Accha accha, I understand. But which branch are you calling from?",
		"Hmm, my husband usually handles these things. Can you give me a number to call you back on?",
		"Wait, I am a little confused. Can you explain that once more slowly?",
		"Ok ok, but first tell me your employee ID, just to be safe?",
	}

	lateFallbacks = []string{
		"Haan I am ready, but which UPI ID should I send it to exactly?",
		"My phone battery is low, can you quickly give me your number in case we get cut?",
		"Accha, and what was that reference number again? I want to write it down properly?",
		"Ek minute, my son is asking who is calling. What is your full name and office address?",
		"Sorry, the app is not opening. Can you share the link one more time?",
	}
)

// fallbackPool buckets the canned lines by how far the conversation has
// progressed.
func fallbackPool(p phase.Phase) []string {
	switch p {
	case phase.Initial, phase.Greeting, phase.BuildingRapport:
		return earlyFallbacks
	case phase.FinancialContext, phase.Request, phase.Suspicious:
		return midFallbacks
	default:
		return lateFallbacks
	}
}

// pickFallback chooses a canned line not yet spoken in this conversation.
// If the phase pool is exhausted it widens to every pool, and only repeats
// once everything has been used.
func pickFallback(rng *rand.Rand, p phase.Phase, history []session.Message) string {
	used := map[string]bool{}
	for _, m := range history {
		if m.Sender == session.SenderAgent {
			used[strings.ToLower(strings.TrimSpace(m.Text))] = true
		}
	}

	pool := fallbackPool(p)
	if line, ok := pickUnused(rng, pool, used); ok {
		return line
	}

	var all []string
	all = append(all, earlyFallbacks...)
	all = append(all, midFallbacks...)
	all = append(all, lateFallbacks...)
	if line, ok := pickUnused(rng, all, used); ok {
		return line
	}

	return pool[rng.Intn(len(pool))]
}

func pickUnused(rng *rand.Rand, pool []string, used map[string]bool) (string, bool) {
	var fresh []string
	for _, line := range pool {
		if !used[strings.ToLower(line)] {
			fresh = append(fresh, line)
		}
	}
	if len(fresh) == 0 {
		return "", false
	}
	return fresh[rng.Intn(len(fresh))], true
}
