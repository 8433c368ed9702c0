// Package classifier scores a counterparty message against the indicator
// catalog and produces a typed detection verdict. Classification is pure:
// the same message and history always yield the same result.
package classifier

import (
	"regexp"
	"strings"

	"github.com/lurelab/lure/internal/indicator"
)

// Scoring is a named, versioned set of combination weights. Observed
// deployments disagreed on pattern/history weighting (0.45/0.15 vs
// 0.50/0.10) and on the threshold (0.30 vs 0.35); ScoringV1 pins one set.
type Scoring struct {
	Version    string
	Pattern    float64
	Keyword    float64
	Behavioral float64
	History    float64
	Threshold  float64
}

// ScoringV1 is the canonical configuration.
var ScoringV1 = Scoring{
	Version:    "v1",
	Pattern:    0.50,
	Keyword:    0.25,
	Behavioral: 0.15,
	History:    0.10,
	Threshold:  0.30,
}

const (
	historyWindow      = 5   // prior counterparty messages considered
	historyDiscount    = 0.3 // cumulative evidence counts less than a fresh hit
	urgencyMultiplier  = 1.3
	urgencyFloor       = 0.15
	multiCategoryFloor = 0.50 // three or more categories fired
	twoCategoryBoost   = 1.15
)

// MatchedCategory records the aggregate weight one category contributed.
type MatchedCategory struct {
	Category string
	Weight   float64
}

// Result is the detection verdict for a single message.
type Result struct {
	IsScam              bool
	Confidence          float64
	ScamType            string
	Matched             []MatchedCategory
	UrgencyLevel        string
	HasFinancialContext bool
	HasDirectRequest    bool
}

var (
	currencyPattern      = regexp.MustCompile(`(?i)₹|rs\.?\s*\d|inr\s*\d|\d+\s*(lakh|crore)`)
	directRequestPattern = regexp.MustCompile(`(?i)send|share|tell|provide|give|transfer`)
)

type Classifier struct {
	scoring Scoring
}

func New(scoring Scoring) *Classifier {
	return &Classifier{scoring: scoring}
}

// Classify scores message against the indicator catalog, with history as the
// most recent prior counterparty messages (oldest first).
func (c *Classifier) Classify(message string, history []string) Result {
	result := Result{ScamType: "generic", UrgencyLevel: "low"}

	patternScore := 0.0
	urgencyMatches := 0
	hasUrgency := false
	categories := map[string]float64{}
	for _, ind := range indicator.Patterns {
		if !ind.Pattern.MatchString(message) {
			continue
		}
		patternScore += ind.Weight
		categories[ind.Category] += ind.Weight
		if ind.Urgency {
			hasUrgency = true
		}
		if ind.Category == "urgency" {
			urgencyMatches++
		}
	}

	keywordScore := 0.0
	lower := strings.ToLower(message)
	for _, kw := range indicator.HighRiskKeywords {
		if strings.Contains(lower, kw) {
			keywordScore += 0.12
		}
	}
	for _, kw := range indicator.MediumRiskKeywords {
		if strings.Contains(lower, kw) {
			keywordScore += 0.06
		}
	}
	keywordScore = capAt(keywordScore, 1.0)

	behavioralScore := 0.0
	if len(message) > 200 {
		behavioralScore += 0.1
	}
	if isShouting(message) {
		behavioralScore += 0.1
	}
	if currencyPattern.MatchString(message) {
		behavioralScore += 0.1
		result.HasFinancialContext = true
	}
	if directRequestPattern.MatchString(message) {
		behavioralScore += 0.05
		result.HasDirectRequest = true
	}

	historyScore := 0.0
	start := len(history) - historyWindow
	if start < 0 {
		start = 0
	}
	for _, prev := range history[start:] {
		for _, ind := range indicator.Patterns {
			if ind.Pattern.MatchString(prev) {
				historyScore += ind.Weight * historyDiscount
			}
		}
	}
	historyScore = capAt(historyScore, 1.0)

	confidence := patternScore*c.scoring.Pattern +
		keywordScore*c.scoring.Keyword +
		behavioralScore*c.scoring.Behavioral +
		historyScore*c.scoring.History

	if hasUrgency && confidence > urgencyFloor {
		confidence *= urgencyMultiplier
	}

	switch {
	case len(categories) >= 3:
		if confidence < multiCategoryFloor {
			confidence = multiCategoryFloor
		}
	case len(categories) == 2:
		confidence *= twoCategoryBoost
	}
	confidence = capAt(confidence, 1.0)

	result.Confidence = confidence
	result.IsScam = confidence >= c.scoring.Threshold

	dominant := ""
	dominantWeight := 0.0
	for cat, weight := range categories {
		result.Matched = append(result.Matched, MatchedCategory{Category: cat, Weight: weight})
		if weight > dominantWeight || (weight == dominantWeight && dominant != "" && cat < dominant) {
			dominant = cat
			dominantWeight = weight
		}
	}
	if dominant != "" {
		if t, ok := indicator.CategoryType[dominant]; ok {
			result.ScamType = t
		}
	}

	switch {
	case urgencyMatches >= 3:
		result.UrgencyLevel = "critical"
	case urgencyMatches == 2:
		result.UrgencyLevel = "high"
	case urgencyMatches == 1:
		result.UrgencyLevel = "medium"
	}

	return result
}

func isShouting(message string) bool {
	upper := strings.ToUpper(message)
	hasLetter := strings.IndexFunc(message, func(r rune) bool {
		return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
	}) >= 0
	if hasLetter && message == upper {
		return true
	}
	return strings.Count(message, "!") > 2
}

func capAt(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}
