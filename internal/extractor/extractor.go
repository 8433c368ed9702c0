// Package extractor mines identifying artifacts from conversation text:
// phone numbers, payment handles, bank accounts, links, emails, reference
// codes. Matching order and the exclusion predicates matter more than the
// raw patterns — emails must not surface as payment handles, phone numbers
// must not surface as bank accounts, and monetary amounts must not surface
// as anything.
package extractor

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Item is a single extracted artifact. Immutable once created.
type Item struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
	Context    string    `json:"context,omitempty"`
}

type patternSpec struct {
	Type       string
	Pattern    *regexp.Regexp
	Confidence float64
	FromGroup  bool // take value from the first non-empty capture group
	NeedsDigit bool // drop matches with no digit (prevents bare-word ids)
}

var (
	emailPattern = regexp.MustCompile(`(?i)[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// All common Indian formats: +91 with separators, 0/91 prefixes, bare
	// 10-digit starting 6-9. Word boundaries keep this from firing inside
	// longer digit runs such as account numbers.
	phonePattern = regexp.MustCompile(
		`\+91[\s\-.]?\d{5}[\s\-.]?\d{5}` +
			`|\+91[\s\-.]?\d{10}` +
			`|\b0?91[\s\-.]?[6-9]\d{9}\b` +
			`|\b[6-9]\d{4}[\s\-]\d{5}\b` +
			`|\b[6-9]\d{9}\b`)

	amountPrefixPattern = regexp.MustCompile(`(?i)(rs\.?|inr|₹|rupee|amount|fee|charge|price|cost)\s*$`)
	digitPattern        = regexp.MustCompile(`\d`)
	nonDigitPattern     = regexp.MustCompile(`\D`)
)

// extractionCatalog lists every artifact class in precedence order. Phone
// and email come first so later classes can be excluded against them.
var extractionCatalog = []patternSpec{
	{Type: "phone", Pattern: phonePattern, Confidence: 0.85},
	{Type: "email", Pattern: emailPattern, Confidence: 0.85},
	{Type: "upi", Pattern: regexp.MustCompile(`(?i)[a-zA-Z0-9._-]+@[a-zA-Z0-9_-]+`), Confidence: 0.95},
	{Type: "bank_account", Pattern: regexp.MustCompile(`\b\d{11,18}\b`), Confidence: 0.80},
	{Type: "url", Pattern: regexp.MustCompile(`(?i)https?://[^\s<>"']+|\b(?:bit\.ly|tinyurl\.com|goo\.gl|t\.co|is\.gd|rb\.gy)/[^\s<>"']+`), Confidence: 0.85},
	{Type: "ifsc", Pattern: regexp.MustCompile(`\b[A-Z]{4}0[A-Z0-9]{6}\b`), Confidence: 0.90},
	// PAN cards are reported as case ids.
	{Type: "case_id", Pattern: regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`), Confidence: 0.80},
	{Type: "case_id", Pattern: regexp.MustCompile(`(?i)\b(?:REF|CASE|FIR|TICKET|TKT|CBI|COMPLAINT|CR|ID|UTR|IMPS|NEFT|RTGS)[:\-#/\s]\s*[A-Z0-9][\w\-/]{2,}\b`), Confidence: 0.75, NeedsDigit: true},
	{Type: "policy_number", Pattern: regexp.MustCompile(`(?i)\b(?:POL|POLICY|INS|PLAN|LIC|CLAIM)[:\-#/\s]\s*[A-Z0-9][\w\-]{2,}\b`), Confidence: 0.75, NeedsDigit: true},
	{Type: "order_number", Pattern: regexp.MustCompile(`(?i)\b(?:ORD|ORDER|AWB|TXN|AMZ|TRACK|INV|SHIP|CONSIGNMENT)[:\-#/\s]\s*[A-Z0-9][\w\-]{2,}\b`), Confidence: 0.75, NeedsDigit: true},
	{Type: "reference_id", Pattern: regexp.MustCompile(`(?i)\b(?:EMP|EMPLOYEE|BADGE|AGENT|OFFICER)[:\-#/\s]\s*[A-Z0-9][\w\-]{2,}\b`), Confidence: 0.70, NeedsDigit: true},
	{Type: "name", Pattern: regexp.MustCompile(`(?:[Mm]y name is|[Ii] am|[Tt]his is|[Ii]'?m|[Cc]all me)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`), Confidence: 0.70, FromGroup: true},
	{Type: "organization", Pattern: regexp.MustCompile(`(?:from|with|at|of)\s+((?:[A-Z][a-z]+\s*){1,3}(?:[Bb]ank|[Ll]td|[Pp]vt|[Ll]imited|[Ff]inance|[Ii]nsurance|[Ss]ecurities|[Tt]elecom|[Ss]ervices))`), Confidence: 0.65, FromGroup: true},
}

// progressWeights rank artifact classes by investigative value; the state
// machine uses the resulting score to decide when extraction is done.
var progressWeights = map[string]float64{
	"upi": 3, "phone": 2, "bank_account": 3, "url": 2, "ifsc": 2,
	"case_id": 2, "policy_number": 2, "order_number": 2,
	"name": 1, "organization": 1, "email": 1, "reference_id": 1,
}

// Extractor mines artifacts and suppresses duplicates per session.
// Safe for concurrent use.
type Extractor struct {
	registry *registry
}

func New(maxSessions int) *Extractor {
	return &Extractor{registry: newRegistry(maxSessions)}
}

// Extract returns the new artifacts in message, suppressing anything already
// recorded for the session.
func (e *Extractor) Extract(sessionID, message string) []Item {
	var items []Item

	// Pre-pass exclusion sets. Email and phone win overlaps against the
	// payment-handle and bank-account classes.
	emails := map[string]bool{}
	for _, m := range emailPattern.FindAllString(message, -1) {
		emails[strings.ToLower(strings.TrimSpace(m))] = true
	}
	phoneTails := map[string]bool{}
	for _, m := range phonePattern.FindAllString(message, -1) {
		digits := nonDigitPattern.ReplaceAllString(m, "")
		if len(digits) >= 10 {
			phoneTails[digits[len(digits)-10:]] = true
		}
	}

	for _, spec := range extractionCatalog {
		for _, loc := range spec.Pattern.FindAllSubmatchIndex([]byte(message), -1) {
			value := strings.TrimSpace(message[loc[0]:loc[1]])
			if spec.FromGroup {
				value = firstGroup(message, loc)
				if value == "" {
					continue
				}
			}
			if spec.NeedsDigit && !digitPattern.MatchString(value) {
				continue
			}
			if spec.Type == "upi" && excludeHandle(value, emails) {
				continue
			}
			if spec.Type == "bank_account" && excludeAccount(message, value, loc[0], phoneTails) {
				continue
			}
			if !e.registry.admit(sessionID, spec.Type, value) {
				continue
			}
			items = append(items, Item{
				ID:         uuid.New(),
				Type:       spec.Type,
				Value:      value,
				Confidence: spec.Confidence,
				Context:    snippet(message, loc[0], loc[1]),
			})
		}
	}
	return items
}

// ExtractAll re-extracts over an entire transcript, oldest first, then the
// current message. The serving layer cannot assume in-memory continuity
// between turns, so every call replays whatever history it was handed;
// the per-session dedup keys make the replay idempotent.
func (e *Extractor) ExtractAll(sessionID string, history []string, message string) []Item {
	var items []Item
	for _, text := range history {
		items = append(items, e.Extract(sessionID, text)...)
	}
	items = append(items, e.Extract(sessionID, message)...)
	return items
}

// Forget drops the dedup keys for a finished session.
func (e *Extractor) Forget(sessionID string) {
	e.registry.forget(sessionID)
}

// Score converts a set of artifacts into an extraction-progress value in
// [0,1], weighting high-value classes more heavily.
func Score(items []Item) float64 {
	if len(items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range items {
		w, ok := progressWeights[item.Type]
		if !ok {
			w = 1
		}
		total += w * item.Confidence
	}
	score := total / 10
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// A payment handle that is really an email: dotted domain, or a prefix of a
// full email match elsewhere in the message.
func excludeHandle(value string, emails map[string]bool) bool {
	at := strings.LastIndex(value, "@")
	if at < 0 {
		return true
	}
	if strings.Contains(value[at+1:], ".") {
		return true
	}
	lower := strings.ToLower(value)
	for email := range emails {
		if strings.HasPrefix(email, lower) {
			return true
		}
	}
	return false
}

// A digit run that is really a phone number (same trailing ten digits) or a
// monetary amount (currency vocabulary in the short lookback window).
func excludeAccount(message, value string, start int, phoneTails map[string]bool) bool {
	digits := nonDigitPattern.ReplaceAllString(value, "")
	if len(digits) >= 10 && phoneTails[digits[len(digits)-10:]] {
		return true
	}
	lookback := start - 15
	if lookback < 0 {
		lookback = 0
	}
	return amountPrefixPattern.MatchString(message[lookback:start])
}

func firstGroup(message string, loc []int) string {
	for i := 2; i+1 < len(loc); i += 2 {
		if loc[i] >= 0 {
			return strings.TrimSpace(message[loc[i]:loc[i+1]])
		}
	}
	return ""
}

func snippet(message string, start, end int) string {
	from := start - 30
	if from < 0 {
		from = 0
	}
	to := end + 30
	if to > len(message) {
		to = len(message)
	}
	return strings.TrimSpace(message[from:to])
}
