package extractor

import (
	"fmt"
	"strings"
	"testing"
)

func valuesOfType(items []Item, itemType string) []string {
	var out []string
	for _, i := range items {
		if i.Type == itemType {
			out = append(out, i.Value)
		}
	}
	return out
}

func TestExtract_BankAccountNotPhone(t *testing.T) {
	e := New(10)
	items := e.Extract("s1", "send the OTP to unblock account 1234567890123456")

	accounts := valuesOfType(items, "bank_account")
	if len(accounts) != 1 || accounts[0] != "1234567890123456" {
		t.Fatalf("expected one bank account 1234567890123456, got %v", accounts)
	}
	if phones := valuesOfType(items, "phone"); len(phones) != 0 {
		t.Errorf("trailing digits claimed as phone numbers: %v", phones)
	}
}

func TestExtract_EmailNotPaymentHandle(t *testing.T) {
	e := New(10)
	items := e.Extract("s1", "contact me at a@b.com or just a@b on the app")

	emails := valuesOfType(items, "email")
	if len(emails) != 1 || emails[0] != "a@b.com" {
		t.Fatalf("expected exactly one email a@b.com, got %v", emails)
	}
	if handles := valuesOfType(items, "upi"); len(handles) != 0 {
		t.Errorf("email surfaced as payment handle: %v", handles)
	}
}

func TestExtract_RealPaymentHandle(t *testing.T) {
	e := New(10)
	items := e.Extract("s1", "send the amount to refunds@paytm right away")

	handles := valuesOfType(items, "upi")
	if len(handles) != 1 || handles[0] != "refunds@paytm" {
		t.Fatalf("expected payment handle refunds@paytm, got %v", handles)
	}
}

func TestExtract_PhoneFormats(t *testing.T) {
	e := New(10)

	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"plus91 split", "call me on +91 98765 43210 ok", "+91 98765 43210"},
		{"plus91 joined", "number is +919876543210", "+919876543210"},
		{"bare ten digit", "my number 9876543210 save it", "9876543210"},
		{"split five five", "note 98765-43210 down", "98765-43210"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := e.Extract("s-"+tt.name, tt.msg)
			phones := valuesOfType(items, "phone")
			if len(phones) != 1 || phones[0] != tt.want {
				t.Errorf("phones = %v, want [%s]", phones, tt.want)
			}
		})
	}
}

func TestExtract_PhoneExcludedFromBankAccount(t *testing.T) {
	e := New(10)
	// 12-digit form of the same number must stay a phone, not an account.
	items := e.Extract("s1", "reach me on 919876543210 anytime")

	if accounts := valuesOfType(items, "bank_account"); len(accounts) != 0 {
		t.Errorf("phone digits claimed as bank account: %v", accounts)
	}
	if phones := valuesOfType(items, "phone"); len(phones) != 1 {
		t.Errorf("expected one phone, got %v", phones)
	}
}

func TestExtract_AmountNotBankAccount(t *testing.T) {
	e := New(10)
	items := e.Extract("s1", "pay the fee Rs 12345678901 before midnight")

	if accounts := valuesOfType(items, "bank_account"); len(accounts) != 0 {
		t.Errorf("monetary amount claimed as bank account: %v", accounts)
	}
}

func TestExtract_ReferenceCodes(t *testing.T) {
	e := New(10)

	tests := []struct {
		name     string
		msg      string
		itemType string
	}{
		{"pan as case id", "your PAN ABCDE1234F is flagged", "case_id"},
		{"case prefix", "quote CASE: CR-2291 when you call", "case_id"},
		{"policy", "your policy POL-99812 has lapsed", "policy_number"},
		{"order", "parcel ORD#77213 is held at customs", "order_number"},
		{"employee id", "my badge EMP-4471 if you want to verify", "reference_id"},
		{"ifsc", "branch code SBIN0001234 note it", "ifsc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := e.Extract("s-"+tt.name, tt.msg)
			got := valuesOfType(items, tt.itemType)
			if len(got) == 0 {
				t.Errorf("no %s extracted from %q, items: %v", tt.itemType, tt.msg, items)
			}
		})
	}
}

func TestExtract_ReferenceCodeNeedsDigit(t *testing.T) {
	e := New(10)
	items := e.Extract("s1", "the case against you is serious")

	if got := valuesOfType(items, "case_id"); len(got) != 0 {
		t.Errorf("bare words extracted as case ids: %v", got)
	}
}

func TestExtract_NameAndOrganization(t *testing.T) {
	e := New(10)
	items := e.Extract("s1", "My name is Rajesh Kumar, I am calling from Apex Finance")

	if names := valuesOfType(items, "name"); len(names) != 1 || names[0] != "Rajesh Kumar" {
		t.Errorf("names = %v, want [Rajesh Kumar]", names)
	}
	if orgs := valuesOfType(items, "organization"); len(orgs) != 1 || orgs[0] != "Apex Finance" {
		t.Errorf("organizations = %v, want [Apex Finance]", orgs)
	}
}

func TestExtract_DedupWithinSession(t *testing.T) {
	e := New(10)
	msg := "UPI is winner@okaxis, call 9876543210"

	first := e.Extract("s1", msg)
	if len(first) != 2 {
		t.Fatalf("expected 2 items first pass, got %d: %v", len(first), first)
	}
	second := e.Extract("s1", msg)
	if len(second) != 0 {
		t.Errorf("duplicates re-extracted: %v", second)
	}

	// Same values in a different session are new.
	other := e.Extract("s2", msg)
	if len(other) != 2 {
		t.Errorf("expected 2 items in fresh session, got %d", len(other))
	}
}

func TestExtract_DedupIsCaseInsensitive(t *testing.T) {
	e := New(10)
	e.Extract("s1", "send to Winner@okaxis")
	items := e.Extract("s1", "send to winner@okaxis")

	if len(items) != 0 {
		t.Errorf("case variant re-extracted: %v", items)
	}
}

func TestExtractAll_ReplayIdempotent(t *testing.T) {
	e := New(10)
	history := []string{
		"this is officer Verma, case CASE: CR-100",
		"pay to collections@okicici or call 9812345678",
		"account 123456789012 will be frozen",
	}
	msg := "send it now to collections@okicici"

	first := e.ExtractAll("s1", history, msg)
	if len(first) == 0 {
		t.Fatal("expected items from transcript replay")
	}
	second := e.ExtractAll("s1", history, msg)
	if len(second) != 0 {
		t.Errorf("replaying the same transcript grew the set: %v", second)
	}

	// No two items may ever share a (type, lowercased value) key.
	seen := map[string]bool{}
	for _, item := range first {
		key := fmt.Sprintf("%s:%s", item.Type, strings.ToLower(item.Value))
		if seen[key] {
			t.Errorf("duplicate key %s", key)
		}
		seen[key] = true
	}
}

func TestExtractAll_MatchesIncrementalAccumulation(t *testing.T) {
	transcript := []string{
		"I am from the bank, my number is 9876501234",
		"transfer to rewards@ybl today",
		"your reference CASE: UTR-9921",
	}

	incremental := New(10)
	var accumulated []Item
	for _, msg := range transcript {
		accumulated = append(accumulated, incremental.Extract("s1", msg)...)
	}

	stateless := New(10)
	replayed := stateless.ExtractAll("s2", transcript[:len(transcript)-1], transcript[len(transcript)-1])

	if len(accumulated) != len(replayed) {
		t.Fatalf("incremental %d items vs stateless replay %d items", len(accumulated), len(replayed))
	}
	for i := range accumulated {
		if accumulated[i].Type != replayed[i].Type || accumulated[i].Value != replayed[i].Value {
			t.Errorf("item %d mismatch: %v vs %v", i, accumulated[i], replayed[i])
		}
	}
}

func TestRegistry_BoundedSessions(t *testing.T) {
	e := New(3)
	for i := 0; i < 5; i++ {
		e.Extract(fmt.Sprintf("s%d", i), "call 9876543210")
	}

	// Oldest sessions were evicted, so their keys are forgotten and the
	// same value extracts as new again.
	items := e.Extract("s0", "call 9876543210")
	if len(items) != 1 {
		t.Errorf("expected evicted session to re-admit value, got %v", items)
	}

	// The newest session is still tracked.
	items = e.Extract("s4", "call 9876543210")
	if len(items) != 0 {
		t.Errorf("expected newest session to suppress duplicate, got %v", items)
	}
}

func TestForget(t *testing.T) {
	e := New(10)
	e.Extract("s1", "pay to winner@okaxis")
	e.Forget("s1")

	items := e.Extract("s1", "pay to winner@okaxis")
	if len(items) != 1 {
		t.Errorf("expected forgotten session to re-admit value, got %v", items)
	}
}

func TestScore(t *testing.T) {
	items := []Item{
		{Type: "upi", Confidence: 0.95},
		{Type: "bank_account", Confidence: 0.80},
		{Type: "phone", Confidence: 0.85},
	}
	got := Score(items)
	want := (3*0.95 + 3*0.80 + 2*0.85) / 10
	if diff := got - want; diff > 0.0001 || diff < -0.0001 {
		t.Errorf("Score = %f, want %f", got, want)
	}

	if Score(nil) != 0 {
		t.Error("empty set should score 0")
	}

	many := make([]Item, 20)
	for i := range many {
		many[i] = Item{Type: "bank_account", Confidence: 0.9}
	}
	if Score(many) != 1.0 {
		t.Errorf("score not capped at 1.0, got %f", Score(many))
	}
}

func TestGroup(t *testing.T) {
	items := []Item{
		{Type: "phone", Value: "9876543210"},
		{Type: "bank_account", Value: "123456789012"},
		{Type: "ifsc", Value: "SBIN0001234"},
		{Type: "upi", Value: "x@ybl"},
		{Type: "url", Value: "http://bit.ly/x"},
		{Type: "email", Value: "a@b.com"},
		{Type: "case_id", Value: "CASE: CR-1"},
		{Type: "reference_id", Value: "EMP-4471"},
		{Type: "policy_number", Value: "POL-99812"},
		{Type: "order_number", Value: "ORD#77213"},
	}
	g := Group(items)

	if len(g.BankAccounts) != 2 {
		t.Errorf("routing codes should fold into bank accounts, got %v", g.BankAccounts)
	}
	if len(g.CaseIDs) != 2 {
		t.Errorf("reference ids should fold into case ids, got %v", g.CaseIDs)
	}
	if g.Total() != 10 {
		t.Errorf("Total = %d, want 10", g.Total())
	}
}
