package indicator

import (
	"testing"
)

func TestPatterns_CatalogSanity(t *testing.T) {
	if len(Patterns) == 0 {
		t.Fatal("empty indicator catalog")
	}
	for i, ind := range Patterns {
		if ind.Weight <= 0 || ind.Weight > 1 {
			t.Errorf("pattern %d: weight %f out of range", i, ind.Weight)
		}
		if _, ok := CategoryType[ind.Category]; !ok {
			t.Errorf("pattern %d: category %q has no reported scam type", i, ind.Category)
		}
	}
	for _, reported := range CategoryType {
		if !KnownScamType(reported) {
			t.Errorf("category maps to unknown scam type %q", reported)
		}
	}
}

func TestKnownScamType(t *testing.T) {
	if !KnownScamType("otp_fraud") {
		t.Error("otp_fraud should be known")
	}
	if !KnownScamType("generic") {
		t.Error("generic should be known")
	}
	if KnownScamType("alien_abduction") {
		t.Error("made-up type should be unknown")
	}
}

func TestMatchRedFlags(t *testing.T) {
	flags := MatchRedFlags("Share your OTP immediately or your account will be blocked")

	want := []string{
		"Urgency/time pressure tactics",
		"OTP/credential request",
		"Account block/freeze threat",
		"Request for sensitive data",
	}
	for _, label := range want {
		if !contains(flags, label) {
			t.Errorf("missing red flag %q in %v", label, flags)
		}
	}
}

func TestMatchRedFlags_Benign(t *testing.T) {
	if flags := MatchRedFlags("ok thanks, talk later"); len(flags) != 0 {
		t.Errorf("benign text raised flags: %v", flags)
	}
}

func TestClassifyKeywords(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantType string
		wantConf float64
	}{
		{
			"otp theft",
			"share the otp and cvv now",
			"otp_fraud", 0.7,
		},
		{
			"customs hold",
			"your parcel was seized at customs, pay the clearance fee",
			"customs_fraud", 0.85,
		},
		{
			"electricity disconnection",
			"your electricity meter number needs updating before disconnection",
			"electricity_scam", 0.8,
		},
		{
			"nothing matches",
			"hello how are you",
			"generic", 0.5,
		},
		{
			// One hit each for two types resolves to the lexicographically
			// first, independent of map iteration order.
			"deterministic tie",
			"bitcoin lottery",
			"crypto_investment", 0.6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotConf := ClassifyKeywords(tt.text)
			if gotType != tt.wantType {
				t.Errorf("type = %q, want %q", gotType, tt.wantType)
			}
			if gotConf != tt.wantConf {
				t.Errorf("confidence = %f, want %f", gotConf, tt.wantConf)
			}
		})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
