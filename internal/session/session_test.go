package session

import (
	"fmt"
	"testing"

	"github.com/lurelab/lure/internal/extractor"
)

func TestRaiseConfidence_Monotonic(t *testing.T) {
	s := newSession("s1")

	steps := []struct {
		raise float64
		want  float64
	}{
		{0.3, 0.3},
		{0.7, 0.7},
		{0.5, 0.7}, // lower verdicts never pull confidence down
		{0.9, 0.9},
		{0.0, 0.9},
	}
	for _, st := range steps {
		s.RaiseConfidence(st.raise)
		if s.Confidence() != st.want {
			t.Errorf("after RaiseConfidence(%f) confidence = %f, want %f", st.raise, s.Confidence(), st.want)
		}
	}
}

func TestSetScamType(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		set     string
		want    string
	}{
		{"specific replaces unknown", "unknown", "bank_fraud", "bank_fraud"},
		{"generic replaces unknown", "unknown", "generic", "generic"},
		{"generic keeps specific", "otp_fraud", "generic", "otp_fraud"},
		{"specific replaces specific", "otp_fraud", "kyc_scam", "kyc_scam"},
		{"empty ignored", "otp_fraud", "", "otp_fraud"},
		{"unreportable tag ignored", "otp_fraud", "pig_butchering", "otp_fraud"},
		{"unreportable tag ignored on fresh session", "unknown", "romance", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession("s1")
			s.ScamType = tt.initial
			s.SetScamType(tt.set)
			if s.ScamType != tt.want {
				t.Errorf("scam type = %q, want %q", s.ScamType, tt.want)
			}
		})
	}
}

func TestSenderFilters(t *testing.T) {
	s := newSession("s1")
	s.Append(SenderScammer, "your account is blocked")
	s.Append(SenderAgent, "oh no, what should I do?")
	s.Append(SenderScammer, "share the OTP")

	if got := s.CounterpartyTexts(); len(got) != 2 || got[1] != "share the OTP" {
		t.Errorf("CounterpartyTexts = %v", got)
	}
	if got := s.AgentTexts(); len(got) != 1 || got[0] != "oh no, what should I do?" {
		t.Errorf("AgentTexts = %v", got)
	}
}

func TestMemoryRepository_GetOrCreate(t *testing.T) {
	r := NewMemoryRepository(10)

	a := r.GetOrCreate("s1")
	b := r.GetOrCreate("s1")
	if a != b {
		t.Error("same id returned different sessions")
	}
	if a.ScamType != "unknown" {
		t.Errorf("new session scam type = %q, want unknown", a.ScamType)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestMemoryRepository_EvictsOldest(t *testing.T) {
	r := NewMemoryRepository(3)
	for i := 0; i < 5; i++ {
		r.GetOrCreate(fmt.Sprintf("s%d", i))
	}

	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
	if _, ok := r.Get("s0"); ok {
		t.Error("oldest session s0 not evicted")
	}
	if _, ok := r.Get("s4"); !ok {
		t.Error("newest session s4 missing")
	}
}

func TestMemoryRepository_Delete(t *testing.T) {
	r := NewMemoryRepository(10)
	s := r.GetOrCreate("s1")
	s.AddIntelligence([]extractor.Item{{Type: "phone", Value: "9876543210"}})

	r.Delete("s1")
	if _, ok := r.Get("s1"); ok {
		t.Error("session still present after delete")
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}
