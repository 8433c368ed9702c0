package indicator

import "regexp"

// ScamTypes is the closed set of reportable scam type tags.
var ScamTypes = []string{
	"bank_fraud", "upi_fraud", "kyc_scam", "otp_fraud", "lottery_scam",
	"job_scam", "investment_scam", "crypto_investment", "tech_support",
	"phishing", "refund_scam", "customs_fraud", "insurance_fraud",
	"electricity_scam", "loan_approval", "income_tax", "govt_scheme",
	"threat_scam", "generic",
}

// KnownScamType reports whether t is one of the reportable tags.
func KnownScamType(t string) bool {
	for _, s := range ScamTypes {
		if s == t {
			return true
		}
	}
	return false
}

// typeKeywords drives the keyword-only classifier used on the degraded path,
// when no LLM verdict is available.
var typeKeywords = map[string]*regexp.Regexp{
	"bank_fraud":       regexp.MustCompile(`(?i)\b(bank|account\s*(block|freez|suspend|compromis|hack|unauthori)\w*|sbi|hdfc|icici|axis\s*bank|pnb|canara|kotak|net\s*banking|debit\s*card|credit\s*card|neft|rtgs|imps|cheque|passbook|branch\s*manager|transaction\s*fail\w*|fund\s*transfer|beneficiary|savings?\s*account|current\s*account)\b`),
	"upi_fraud":        regexp.MustCompile(`(?i)\b(upi|paytm|phonepe|gpay|google\s*pay|collect\s*request|bhim|payment\s*app|qr\s*code|scan\s*(and|&)\s*pay|upi\s*pin|payment\s*link|money\s*request)\b`),
	"kyc_scam":         regexp.MustCompile(`(?i)\b(kyc|know\s*your\s*customer|aadhaar|aadhar|pan\s*(card|number|detail)|verification\s*pending|e-?kyc|re-?kyc|sim\s*(block|deactivat)\w*|mobile\s*verification|identity\s*verify|document\s*(upload|verify|update)|digilocker)\b`),
	"otp_fraud":        regexp.MustCompile(`(?i)\b(otp|one\s*time\s*password|verification\s*code|sms\s*code|secret\s*code|security\s*code|pin\s*number|cvv|transaction\s*password)\b`),
	"lottery_scam":     regexp.MustCompile(`(?i)\b(lottery|prize|won|winner|lucky\s*draw|jackpot|congratulat\w*|sweepstake|bumper|raffle|mega\s*offer|selected\s*(for|as)|reward\s*(of|worth)|claim\s*(your|the|this))\b`),
	"job_scam":         regexp.MustCompile(`(?i)\b(job|work\s*from\s*home|wfh|salary|vacancy|shortlist\w*|resume|offer\s*letter|data\s*entry|recruitment|part\s*time|full\s*time|online\s*(job|work|earning)|hiring|placement|hr\s*department)\b`),
	"investment_scam":  regexp.MustCompile(`(?i)\b(invest\w*|guaranteed\s*return|mutual\s*fund|stock|trading|portfolio|sip|roi|high\s*return|double\s*(your|the)\s*money|forex|share\s*market|demat|sebi|daily\s*(profit|income|earning)|monthly\s*return)\b`),
	"crypto_investment": regexp.MustCompile(`(?i)\b(crypto|bitcoin|btc|ethereum|eth|blockchain|mining|token|nft|binance|coinbase|wallet\s*address|defi|web3|digital\s*(currency|asset)|altcoin|dogecoin)\b`),
	"tech_support":     regexp.MustCompile(`(?i)\b(virus|malware|trojan|microsoft|windows|computer\s*(infected|hack\w*|problem|slow)|remote\s*access|tech\s*support|antivirus|teamviewer|anydesk|quick\s*support|firewall|license\s*expir\w*|software\s*update|security\s*breach)\b`),
	"phishing":         regexp.MustCompile(`(?i)\b(phishing|verify\s*(your|account)|click\s*(here|link|below)|login\s*(page|verify)|suspicious\s*login|update\s*(your|account)|password\s*(reset|change|expire)|free\s*(gift|iphone|samsung)|claim\s*(now|here|offer)|amaz[o0]n)\b`),
	"refund_scam":      regexp.MustCompile(`(?i)\b(refund|returned|cashback|money\s*back|failed\s*transaction|reversed|excess\s*(payment|amount)|double\s*(charged|debited)|wrong\s*(debit|charge)|cancel\s*(and|&)\s*refund)\b`),
	"customs_fraud":    regexp.MustCompile(`(?i)\b(customs|parcel|package|courier|seized|undeclared|import\s*duty|consignment|warehouse|clearance\s*(fee|charge)|dhl|fedex|india\s*post|speed\s*post|blue\s*dart|detained|prohibited\s*item|contraband)\b`),
	"insurance_fraud":  regexp.MustCompile(`(?i)\b(insurance|policy\s*(maturity|bonus|claim|laps\w*)|lic|premium|endowment|life\s*cover|health\s*(insurance|policy)|motor\s*(insurance|claim)|nominee|sum\s*assured|surrender\s*value|unclaimed\s*(amount|policy|insurance))\b`),
	"electricity_scam": regexp.MustCompile(`(?i)\b(electric\w*|power\s*(cut|supply|disconnect)|disconnec\w*|bill\s*(pending|overdue|unpaid|due)|meter\s*(reading|number|tamper)|lineman|eb\s*office|last\s*date|final\s*notice|supply\s*cut)\b`),
	"loan_approval":    regexp.MustCompile(`(?i)\b(loan|pre-?approv\w*|emi|interest\s*rate|disburse\w*|nbfc|personal\s*loan|credit\s*score|cibil|home\s*loan|car\s*loan|education\s*loan|business\s*loan|instant\s*(loan|credit)|processing\s*(fee|charge)|loan\s*(sanction\w*|offer|approved)|zero\s*(interest|down\s*payment))\b`),
	"income_tax":       regexp.MustCompile(`(?i)\b(income\s*tax|itr|tax\s*(demand|refund|notice|department|evasion|penalty)|assessment|pan\s*(flagged|mismatch|invalid)|tax\s*(officer|inspector|commissioner)|e-?filing|tds\s*(mismatch|refund)|gst\s*(notice|penalty|fraud))\b`),
	"govt_scheme":      regexp.MustCompile(`(?i)\b(government|govt|yojana|scheme|subsidy|ministry|pm\s*(awas|kisan|mudra)|digital\s*india|ayushman|ujjwala|sukanya|kisan\s*(samman|credit)|ration\s*card|direct\s*benefit|dbt)\b`),
	"threat_scam":      regexp.MustCompile(`(?i)\b(arrest|warrant|legal\s*action|court|summon|fir\s*(filed|registered)|prosecut\w*|imprison\w*|cbi\s*(involved|officer|case)|narcotics|money\s*laundering|cyber\s*(crime|cell)|enforcement\s*directorate|police\s*(station|complaint)|jail|bail|anticipatory)\b`),
}

// ClassifyKeywords picks the scam type with the most keyword hits across the
// supplied conversation text. Returns ("generic", 0.5) when nothing matches.
func ClassifyKeywords(text string) (string, float64) {
	best := ""
	bestCount := 0
	for scamType, pattern := range typeKeywords {
		n := len(pattern.FindAllStringIndex(text, -1))
		if n > bestCount || (n == bestCount && n > 0 && scamType < best) {
			best = scamType
			bestCount = n
		}
	}
	if bestCount == 0 {
		return "generic", 0.5
	}
	confidence := 0.5 + float64(bestCount)*0.1
	if confidence > 0.85 {
		confidence = 0.85
	}
	return best, confidence
}
