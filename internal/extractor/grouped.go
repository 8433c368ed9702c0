package extractor

// Grouped buckets artifacts into the outward-facing intelligence envelope.
// Bank accounts fold in routing codes; case ids fold in generic reference
// identifiers, matching how downstream consumers expect them.
type Grouped struct {
	PhoneNumbers   []string `json:"phoneNumbers"`
	BankAccounts   []string `json:"bankAccounts"`
	UPIIDs         []string `json:"upiIds"`
	PhishingLinks  []string `json:"phishingLinks"`
	EmailAddresses []string `json:"emailAddresses"`
	CaseIDs        []string `json:"caseIds"`
	PolicyNumbers  []string `json:"policyNumbers"`
	OrderNumbers   []string `json:"orderNumbers"`
}

// Group categorizes items, preserving first-seen order within each bucket.
func Group(items []Item) Grouped {
	g := Grouped{
		PhoneNumbers:   []string{},
		BankAccounts:   []string{},
		UPIIDs:         []string{},
		PhishingLinks:  []string{},
		EmailAddresses: []string{},
		CaseIDs:        []string{},
		PolicyNumbers:  []string{},
		OrderNumbers:   []string{},
	}
	for _, item := range items {
		switch item.Type {
		case "phone":
			g.PhoneNumbers = append(g.PhoneNumbers, item.Value)
		case "bank_account", "ifsc":
			g.BankAccounts = append(g.BankAccounts, item.Value)
		case "upi":
			g.UPIIDs = append(g.UPIIDs, item.Value)
		case "url":
			g.PhishingLinks = append(g.PhishingLinks, item.Value)
		case "email":
			g.EmailAddresses = append(g.EmailAddresses, item.Value)
		case "case_id", "reference_id":
			g.CaseIDs = append(g.CaseIDs, item.Value)
		case "policy_number":
			g.PolicyNumbers = append(g.PolicyNumbers, item.Value)
		case "order_number":
			g.OrderNumbers = append(g.OrderNumbers, item.Value)
		}
	}
	return g
}

// Total counts the grouped artifacts.
func (g Grouped) Total() int {
	return len(g.PhoneNumbers) + len(g.BankAccounts) + len(g.UPIIDs) +
		len(g.PhishingLinks) + len(g.EmailAddresses) + len(g.CaseIDs) +
		len(g.PolicyNumbers) + len(g.OrderNumbers)
}
