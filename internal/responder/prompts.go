package responder

import (
	"fmt"
	"strings"

	"github.com/lurelab/lure/internal/groq"
	"github.com/lurelab/lure/internal/session"
)

// buildPersonaPrompt renders the system prompt for the persona. The persona
// never suspects anything; its one job is to keep the counterparty talking
// while asking for their identifying details.
func buildPersonaPrompt(p session.Persona) string {
	partner := "husband"
	if strings.EqualFold(p.Gender, "male") {
		partner = "wife"
	}
	return fmt.Sprintf(`You are %s, a %d-year-old %s %s from %s. You bank with %s. You have a %s, a son in college and elderly parents.

LANGUAGE: Respond ENTIRELY in %s. Mix in Hindi phrases naturally: "accha", "haan", "bilkul", "arey", "ek minute", "theek hai".

YOUR GOAL: Keep the caller talking as long as possible while learning ALL their identifiable details. You play a gullible, trusting victim who WANTS to help. You never suspect anything.

PERSONALITY:
- Extremely trusting, naive, eager to help, slightly emotional
- Slightly confused by technology, needs things repeated slowly
- Talks casually like WhatsApp or a phone call: "hmm", "ok ok", "accha", "oh really?"
- Responds in 1-3 SHORT sentences
- Gets emotional: worried when threatened, excited about prizes, grateful for help

NEVER DO THESE:
- NEVER mention police, fraud, investigation, or suspicion of any kind
- NEVER use formal or corporate language, never long paragraphs
- NEVER repeat a previous reply verbatim
- NEVER ask more than ONE question per reply
- NEVER reveal you are an AI, bot, or assistant
- NEVER provide real sensitive data yourself, only ask the caller for THEIR details`,
		p.Name, p.Age, strings.ToLower(p.Gender), p.Occupation, p.Location, p.Bank, partner, p.Language)
}

// scamTypeInstructions steers the persona per detected scam type.
var scamTypeInstructions = map[string]string{
	"bank_fraud":      "The caller pretends to be a bank official. Ask for their employee ID, branch name, and official helpline number to 'verify'.",
	"upi_fraud":       "The caller wants a UPI payment. Show willingness but ask for their UPI ID first: 'what UPI ID should I send to?'",
	"kyc_scam":        "The caller claims your KYC needs updating. Act confused and ask which exact bank, what branch, and their employee name.",
	"otp_fraud":       "The caller wants your OTP. Pretend to look for it while asking them questions: 'Which number did you send it to?'",
	"lottery_scam":    "The caller says you won a prize. Act excited but ask for official documentation, company registration number, their full name.",
	"job_scam":        "The caller offers a job or income. Show interest and ask for company name, office address, HR contact, and their designation.",
	"investment_scam": "The caller offers investment returns. Ask for their SEBI registration, company PAN, and office address.",
	"threat_scam":     "The caller threatens legal or police action. Act scared but ask for case number, officer name, and station details.",
	"generic":         "Engage naturally. Ask innocent questions that surface the caller's identity and contact details.",
}

const extractionInstruction = `EXTRACTION PRIORITY, in order:
1. Their full name
2. Their phone number or employee ID
3. UPI ID or bank account they want money sent to
4. Organization they claim to be from
5. Any links they share
6. Any reference numbers, case IDs, or order numbers

Ask for these NATURALLY, as a naive person would:
- "Oh which bank are you from? What's your name?"
- "Okay, what UPI ID should I send it to?"
- "Can you share your employee ID? Just want to be safe"`

const historyWindow = 10

// buildMessages assembles the chat turn list: persona system prompt,
// situation instruction, optional anti-repetition override, then the most
// recent history window and the current message.
func buildMessages(in Input) []groq.Message {
	instruction, ok := scamTypeInstructions[in.ScamType]
	if !ok {
		instruction = scamTypeInstructions["generic"]
	}

	messages := []groq.Message{
		{Role: "system", Content: buildPersonaPrompt(in.Persona)},
		{Role: "system", Content: fmt.Sprintf("CURRENT SITUATION: %s\n\n%s\n\nCONVERSATION STATE: %s", instruction, extractionInstruction, in.Phase)},
	}

	if override := repetitionOverride(in.History); override != "" {
		messages = append(messages, groq.Message{Role: "system", Content: override})
	}

	start := len(in.History) - historyWindow
	if start < 0 {
		start = 0
	}
	for _, m := range in.History[start:] {
		role := "user"
		if m.Sender == session.SenderAgent {
			role = "assistant"
		}
		messages = append(messages, groq.Message{Role: role, Content: m.Text})
	}

	messages = append(messages, groq.Message{Role: "user", Content: in.Message})
	return messages
}

// repetitionOverride checks the last few agent replies for heavy word
// overlap and, when found, returns a corrective system prompt.
func repetitionOverride(history []session.Message) string {
	var replies []string
	for _, m := range history {
		if m.Sender == session.SenderAgent {
			replies = append(replies, strings.ToLower(strings.TrimSpace(m.Text)))
		}
	}
	if len(replies) < 2 {
		return ""
	}
	recent := replies
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}

	for i := 0; i+1 < len(recent); i++ {
		if wordOverlap(recent[i], recent[i+1]) > 0.6 {
			return "WARNING: Your recent replies are TOO SIMILAR. Use a completely different approach now: " +
				"pretend your phone is dying and ask for their callback number, say a family member wants to verify, " +
				"ask for the branch address, ask about their supervisor, or ask them to explain from the beginning. " +
				"DO NOT repeat anything you said before."
		}
	}
	return ""
}

func wordOverlap(a, b string) float64 {
	wordsA := map[string]bool{}
	for _, w := range strings.Fields(a) {
		wordsA[w] = true
	}
	wordsB := map[string]bool{}
	for _, w := range strings.Fields(b) {
		wordsB[w] = true
	}
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	shared := 0
	union := len(wordsB)
	for w := range wordsA {
		if wordsB[w] {
			shared++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// phraseBlocklist rejects any completion that could reveal synthetic origin.
var phraseBlocklist = []string{
	"language model", "as an ai", "i'm an ai", "i am an ai",
	"artificial intelligence", "i'm a bot", "i am a bot",
	"openai", "groq", "llama",
}

func revealsIdentity(reply string) bool {
	lower := strings.ToLower(reply)
	for _, p := range phraseBlocklist {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
