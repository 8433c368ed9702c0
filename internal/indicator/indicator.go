// Package indicator is the static detection catalog: weighted scam patterns,
// risk keyword lists, category-to-type mapping, and the red flag catalog.
// It holds no logic beyond compiled regexps; scoring lives in classifier.
package indicator

import "regexp"

// Indicator is a single weighted matching rule.
type Indicator struct {
	Pattern  *regexp.Regexp
	Weight   float64
	Category string
	Urgency  bool
}

// Patterns is the full scam indicator catalog, loaded once.
var Patterns = []Indicator{
	// urgency
	{regexp.MustCompile(`(?i)urgent|immediately|within \d+ (hours?|minutes?)|right now`), 0.18, "urgency", true},
	{regexp.MustCompile(`(?i)act now|don'?t delay|time (is|was) running|last chance|final warning`), 0.15, "urgency", true},
	{regexp.MustCompile(`(?i)expir(e|ing|ed)|deadline|limited time|hurry|asap`), 0.12, "urgency", true},

	// authority impersonation
	{regexp.MustCompile(`(?i)(bank|rbi|sebi|income tax|police|court|government)\s*(manager|official|officer|department)`), 0.20, "authority", false},
	{regexp.MustCompile(`(?i)(sbi|hdfc|icici|axis|kotak|pnb|bob|canara|union)\s*(bank)?`), 0.12, "authority", false},
	{regexp.MustCompile(`(?i)your (account|number|card|kyc|pan|aadhaar) (is|has been|will be)`), 0.15, "authority", true},
	{regexp.MustCompile(`(?i)dear (customer|user|sir|madam|valued)`), 0.10, "authority", false},

	// financial requests
	{regexp.MustCompile(`(?i)send (money|amount|payment|fund|rs\.?|₹)`), 0.20, "financial", true},
	{regexp.MustCompile(`(?i)transfer (to|into|amount)|wire|remittance`), 0.18, "financial", false},
	{regexp.MustCompile(`(?i)(processing|activation|registration|delivery|customs) fee`), 0.18, "financial", true},
	{regexp.MustCompile(`(?i)pay (rs\.?|₹|inr)?\s*\d+`), 0.20, "financial", true},
	{regexp.MustCompile(`(?i)upi.{0,5}(id|transfer|pay|send)|@(upi|ybl|paytm|okaxis|oksbi|apl|ibl)`), 0.18, "financial", false},

	// verification / KYC
	{regexp.MustCompile(`(?i)verify your (account|identity|details|kyc|pan|aadhaar)`), 0.16, "verification", true},
	{regexp.MustCompile(`(?i)kyc.{0,10}(update|expir|pending|incomplete|mandatory)`), 0.18, "verification", true},
	{regexp.MustCompile(`(?i)(update|confirm|share|send) your (details|otp|pin|password|cvv)`), 0.20, "verification", true},

	// OTP / credential theft
	{regexp.MustCompile(`(?i)(share|send|tell|provide|enter).{0,15}(otp|pin|cvv|password|mpin)`), 0.22, "otp_fraud", true},
	{regexp.MustCompile(`(?i)otp.{0,10}(sent|received|generated|code)`), 0.15, "otp_fraud", false},

	// prize / lottery
	{regexp.MustCompile(`(?i)(won|winner|selected|chosen).{0,20}(prize|lottery|reward|cashback|gift)`), 0.18, "lottery", true},
	{regexp.MustCompile(`(?i)congratulat|lucky (winner|number|draw)|jackpot`), 0.16, "lottery", true},
	{regexp.MustCompile(`(?i)claim (your|now|prize|reward)|redeem`), 0.14, "lottery", true},
	{regexp.MustCompile(`(?i)(rs\.?|₹|inr)\s*\d+\s*(lakh|crore|lakhs|crores)`), 0.12, "lottery", false},

	// job / income
	{regexp.MustCompile(`(?i)work from home|earn.{0,15}(daily|weekly|monthly)|part.?time.{0,10}(job|income|earning)`), 0.14, "job_scam", true},
	{regexp.MustCompile(`(?i)(easy|quick|guaranteed|assured) (money|income|returns|profit)`), 0.16, "job_scam", true},
	{regexp.MustCompile(`(?i)registration fee|joining fee|training fee`), 0.16, "job_scam", true},

	// investment
	{regexp.MustCompile(`(?i)(invest|trading|forex|crypto|bitcoin|mutual fund).{0,15}(guaranteed|assured|fixed|daily) returns`), 0.18, "investment", true},
	{regexp.MustCompile(`(?i)\d+%\s*(daily|weekly|monthly|annual)\s*(return|profit|income|interest)`), 0.18, "investment", true},

	// threat / intimidation
	{regexp.MustCompile(`(?i)(account|number|card|sim).{0,10}(block|suspend|deactivat|freez|cancel)`), 0.16, "threat", true},
	{regexp.MustCompile(`(?i)legal (action|notice|proceedings)|arrest warrant|fir|complaint`), 0.18, "threat", true},
	{regexp.MustCompile(`(?i)if you (don'?t|do not|fail to)`), 0.12, "threat", true},

	// phishing
	{regexp.MustCompile(`(?i)click (here|this|below|the link)|tap (here|this|below)`), 0.14, "phishing", false},
	{regexp.MustCompile(`(?i)(verify|update|confirm|login).{0,10}(link|url|website|page|portal)`), 0.15, "phishing", false},
	{regexp.MustCompile(`(?i)https?://[^\s]*\.(tk|ml|ga|cf|gq|xyz|top|buzz|club|info|win)`), 0.18, "phishing", false},
	{regexp.MustCompile(`(?i)bit\.ly|tinyurl|short\.io|rebrand\.ly|is\.gd`), 0.12, "phishing", false},
}

var HighRiskKeywords = []string{
	"bitcoin", "ethereum", "crypto", "wallet", "private key",
	"gift card", "steam card", "amazon gift", "google play card",
	"western union", "moneygram", "wire transfer", "bank transfer",
	"account suspended", "verify identity", "confirm details",
	"processing fee", "activation fee", "delivery fee",
	"customs duty", "import tax", "clearance fee",
	"inheritance", "lottery winner", "beneficiary", "next of kin",
	"blocked account", "frozen account", "suspicious activity",
}

var MediumRiskKeywords = []string{
	"investment", "returns", "profit", "passive income",
	"opportunity", "business proposal", "partnership",
	"job offer", "work from home", "freelance", "weekly income",
	"prize", "winner", "selected", "lucky",
	"refund", "cashback", "bonus", "reward",
	"insurance claim", "policy", "maturity",
}

// CategoryType maps the dominant matched category to a reported scam type.
var CategoryType = map[string]string{
	"urgency":      "generic",
	"authority":    "bank_fraud",
	"financial":    "upi_fraud",
	"verification": "kyc_scam",
	"otp_fraud":    "otp_fraud",
	"lottery":      "lottery_scam",
	"job_scam":     "job_scam",
	"investment":   "investment_scam",
	"threat":       "threat_scam",
	"phishing":     "phishing",
}

// RedFlag labels a social-engineering tactic for agent notes.
type RedFlag struct {
	Label   string
	Pattern *regexp.Regexp
}

var RedFlags = []RedFlag{
	{"Urgency/time pressure tactics", regexp.MustCompile(`(?i)urgent|immediately|right\s*now|hurry|quick|fast|within\s*\d|last\s*chance|expire|deadline|limited\s*time|act\s*now|don.t\s*delay`)},
	{"OTP/credential request", regexp.MustCompile(`(?i)otp|one\s*time\s*password|verification\s*code|cvv|pin\s*number|password|credential|secret\s*code`)},
	{"Account block/freeze threat", regexp.MustCompile(`(?i)block|freeze|suspend|disconnect|deactivat|cancel|terminat|restrict|disable|locked|hold\s*your\s*account`)},
	{"Legal/arrest threat", regexp.MustCompile(`(?i)legal\s*action|arrest|police|court|warrant|cbi|summon|prosecut|jail|penalty|fine\s*of|imprisonment`)},
	{"Too-good-to-be-true offer", regexp.MustCompile(`(?i)congratulat|won|winner|prize|reward|cashback|guaranteed\s*return|100\s*%|free\s*gift|selected|lucky|jackpot|bonus`)},
	{"Suspicious link/download", regexp.MustCompile(`(?i)click.*(link|here|below)|download|install|visit\s*(this|our)|verify.*(link|url)|amaz0n|http`)},
	{"Request for sensitive data", regexp.MustCompile(`(?i)share.*(account|aadhaar|pan|otp|bank)|send.*(money|amount|payment)|provide.*(detail|number|info)`)},
	{"Unsolicited contact", regexp.MustCompile(`(?i)calling\s*from|this\s*is\s*(from|the)|we\s*(are|have)\s*(from|noticed)|your\s*(account|application|policy|order)\s*(has|is|was)`)},
	{"Upfront fee/payment demand", regexp.MustCompile(`(?i)processing\s*fee|registration\s*fee|advance\s*payment|pay.*(first|now|immediate)|transfer.*(amount|fee)|service\s*charge|tax\s*payment`)},
	{"Impersonation of authority", regexp.MustCompile(`(?i)(from|calling)\s*(sbi|rbi|police|income\s*tax|customs|microsoft|amazon|paytm|government|ministry)|official|authorized|certified|department|division|officer`)},
}

// MatchRedFlags returns the labels of every red flag present in text.
func MatchRedFlags(text string) []string {
	var flags []string
	for _, rf := range RedFlags {
		if rf.Pattern.MatchString(text) {
			flags = append(flags, rf.Label)
		}
	}
	return flags
}
