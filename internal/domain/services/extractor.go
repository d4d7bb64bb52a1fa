package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"honeytrap-lab/internal/detection"
	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

// Entity extraction patterns. UPI handles are anchored to known PSP suffixes
// so ordinary email addresses are not swept up.
var (
	upiPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b[a-z0-9._-]{2,}@(?:ybl|okaxis|oksbi|okhdfcbank|okicici|paytm|upi|apl|axl|ibl)\b`),
		regexp.MustCompile(`\b\d{10}@[a-z]+\b`),
	}

	bankAccountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\ba\s*/?\s*c(?:count)?\s*(?:no\.?|number)?\s*[:#]?\s*(\d{9,18})\b`),
		regexp.MustCompile(`\b\d{9,18}\b`),
	}

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+?91[-\s]?\d{10}\b`),
		regexp.MustCompile(`\b\d{10}\b`),
	}

	urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://\S+`),
		regexp.MustCompile(`(?i)\bwww\.\S+`),
		regexp.MustCompile(`(?i)\b(?:bit\.ly|tinyurl\.com|goo\.gl|t\.co|tiny\.cc|cutt\.ly|shorturl\.at)/\S+`),
		regexp.MustCompile(`(?i)\b[a-z0-9-]+-(?:verify|bank|secure|update)[a-z0-9-]*\.(?:com|net|in)\S*`),
	}

	// Uppercase only; real IFSC codes are printed uppercase and a
	// case-insensitive match drags in ordinary words.
	ifscPattern = regexp.MustCompile(`\b[A-Z]{4}0[A-Z0-9]{6}\b`)
)

// suspiciousKeywords groups scam-tactic vocabulary by category. Category names
// drive the agent-notes summary.
var suspiciousKeywords = map[string][]string{
	"urgency": {
		"urgent", "immediately", "right now", "quick", "hurry",
		"expire", "expiring", "limited time", "today only", "last chance",
		"act now", "asap",
	},
	"threats": {
		"block", "blocked", "suspend", "suspended", "deactivate",
		"terminate", "freeze", "legal action", "police", "arrest",
		"fine", "penalty", "permanently",
	},
	"verification": {
		"verify", "verification", "confirm", "confirmation",
		"authenticate", "validate", "re-verify", "reconfirm",
	},
	"payment": {
		"payment", "transfer", "send money", "refund", "transaction",
		"rupees", "processing fee", "registration fee",
	},
	"impersonation": {
		"bank", "official", "customer care", "support team", "security team",
		"government", "tax department", "income tax", "rbi",
		"authorized", "representative", "officer",
	},
	"credential_request": {
		"password", "pin", "otp", "cvv", "card number", "atm pin",
		"account number", "credentials", "debit card", "credit card",
		"expiry", "date of birth",
	},
	"link_indicators": {
		"click here", "tap here", "click the link", "open the link",
		"visit the link", "download", "install",
	},
}

// tacticLabels maps a keyword category to its phrasing in agent notes.
var tacticLabels = []struct {
	category string
	label    string
}{
	{"urgency", "urgency pressure"},
	{"threats", "threat-based coercion"},
	{"payment", "payment redirection"},
	{"impersonation", "authority impersonation"},
	{"credential_request", "credential harvesting"},
}

// intelCompleteCredentialThreshold is the number of distinct credential-request
// keywords that on its own marks collection complete.
const intelCompleteCredentialThreshold = 3

// IntelExtractor pulls structured fraud artifacts out of conversation text.
type IntelExtractor struct {
	// messageThreshold is the conversation length at which any extracted
	// entity makes collection complete.
	messageThreshold int
	logger           *logger.Logger
}

// NewIntelExtractor creates an extractor. messageThreshold <= 0 falls back to 10.
func NewIntelExtractor(messageThreshold int, log *logger.Logger) *IntelExtractor {
	if messageThreshold <= 0 {
		messageThreshold = 10
	}
	return &IntelExtractor{
		messageThreshold: messageThreshold,
		logger:           log.WithComponent("intel-extractor"),
	}
}

// Extract scans a single text for entities and keywords.
func (e *IntelExtractor) Extract(text string) models.Intelligence {
	var intel models.Intelligence

	for _, p := range upiPatterns {
		intel.UPIIDs = appendMatches(intel.UPIIDs, p.FindAllString(text, -1))
	}

	upiSeen := make(map[string]struct{}, len(intel.UPIIDs))
	for _, id := range intel.UPIIDs {
		upiSeen[strings.ToLower(id)] = struct{}{}
	}

	for _, p := range bankAccountPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			v := m[0]
			if len(m) > 1 && m[1] != "" {
				v = m[1]
			}
			intel.BankAccounts = appendMatches(intel.BankAccounts, []string{v})
		}
	}

	for _, p := range phonePatterns {
		intel.PhoneNumbers = appendMatches(intel.PhoneNumbers, p.FindAllString(text, -1))
	}

	for _, p := range urlPatterns {
		for _, m := range p.FindAllString(text, -1) {
			// The phone@bank UPI pattern and bare-domain pattern can both
			// touch the same token; UPI wins.
			if _, ok := upiSeen[strings.ToLower(m)]; ok {
				continue
			}
			intel.PhishingLinks = appendMatches(intel.PhishingLinks, []string{strings.TrimRight(m, ".,;")})
		}
	}

	intel.IFSCCodes = appendMatches(intel.IFSCCodes, ifscPattern.FindAllString(text, -1))
	intel.Keywords = extractKeywords(text)

	return intel
}

// AnalyzeConversation extracts intelligence from the full conversation and
// reports whether collection is complete.
func (e *IntelExtractor) AnalyzeConversation(history []detection.ConversationEntry) (models.Intelligence, bool) {
	var b strings.Builder
	for _, entry := range history {
		b.WriteString(entry.Text)
		b.WriteString(" ")
	}

	intel := e.Extract(b.String())
	complete := e.isComplete(intel, len(history))

	e.logger.Debug().
		Int("messages", len(history)).
		Int("entities", intel.TotalEntities()).
		Bool("complete", complete).
		Msg("conversation intelligence extracted")

	return intel, complete
}

// BehaviorSummary renders agent notes describing observed tactics.
func (e *IntelExtractor) BehaviorSummary(intel models.Intelligence, messageCount int) string {
	found := make(map[string]bool)
	for _, kw := range intel.Keywords {
		for category, list := range suspiciousKeywords {
			for _, candidate := range list {
				if kw == candidate {
					found[category] = true
				}
			}
		}
	}

	var tactics []string
	for _, t := range tacticLabels {
		if found[t.category] {
			tactics = append(tactics, t.label)
		}
	}
	if len(tactics) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Scammer used ")
	b.WriteString(strings.Join(tactics, ", "))
	b.WriteString(" across ")
	b.WriteString(strconv.Itoa(messageCount))
	b.WriteString(" messages")
	return b.String()
}

// isComplete decides whether enough intelligence has been gathered:
// payment routing details, two or more phishing links, a long conversation
// that yielded any entities, or repeated credential harvesting.
func (e *IntelExtractor) isComplete(intel models.Intelligence, messageCount int) bool {
	if intel.HasPaymentDetails() {
		return true
	}
	if len(intel.PhishingLinks) >= 2 {
		return true
	}
	if messageCount >= e.messageThreshold && intel.TotalEntities() > 0 {
		return true
	}

	credentialHits := 0
	for _, kw := range intel.Keywords {
		for _, candidate := range suspiciousKeywords["credential_request"] {
			if kw == candidate {
				credentialHits++
				break
			}
		}
	}
	return credentialHits >= intelCompleteCredentialThreshold
}

func extractKeywords(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	var keywords []string
	for _, list := range suspiciousKeywords {
		for _, kw := range list {
			if _, ok := seen[kw]; ok {
				continue
			}
			if strings.Contains(lower, kw) {
				seen[kw] = struct{}{}
				keywords = append(keywords, kw)
			}
		}
	}
	sort.Strings(keywords)
	return keywords
}

func appendMatches(dst []string, matches []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, m := range matches {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		dst = append(dst, m)
	}
	return dst
}
