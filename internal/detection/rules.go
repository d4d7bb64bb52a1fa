package detection

import (
	"regexp"
	"strings"
)

// Rule binds one SignalType to a set of literal keywords and/or regex
// patterns. Keywords match as case-insensitive substrings; patterns are
// compiled once with (?i) when the rule table is built. Rule tables are
// immutable after startup.
type Rule struct {
	Signal      SignalType
	Keywords    []string
	Patterns    []string
	Description string

	compiled []*regexp.Regexp
}

// compile builds the regex cache for the rule. A broken pattern is a
// programming error and halts initialization.
func (r *Rule) compile() {
	r.compiled = make([]*regexp.Regexp, 0, len(r.Patterns))
	for _, p := range r.Patterns {
		r.compiled = append(r.compiled, regexp.MustCompile("(?i)"+p))
	}
}

// Matches reports whether the rule fires on the given text.
func (r *Rule) Matches(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, re := range r.compiled {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// ruleGroups holds all text-level rules in evaluation order:
// urgency -> account/authority -> payment -> phishing.
var ruleGroups = [][]*Rule{urgencyRules, accountAuthorityRules, paymentRules, phishingRules}

var urgencyRules = []*Rule{
	{
		Signal: SignalUrgency,
		Keywords: []string{
			"urgent", "urgently", "immediate", "immediately", "asap", "right now",
			"hurry", "quick", "quickly", "fast", "tez", "jaldi", "turant",
		},
		Description: "General urgency keywords",
	},
	{
		Signal:   SignalTimePressure,
		Keywords: []string{"expire", "expiring", "expiry", "limited time", "last chance"},
		Patterns: []string{
			`\b(within|in)\s+\d+\s+(hour|hours|minute|minutes|min|mins|hr|hrs)\b`,
			`\btoday\b`, `\btonite\b`, `\btonight\b`,
			`\b(by|before)\s+(today|tonight|tomorrow|end of day)\b`,
		},
		Description: "Time-based pressure",
	},
	{
		Signal: SignalDeadline,
		Keywords: []string{
			"deadline", "time limit", "countdown", "last day", "final notice",
			"before midnight", "by end of", "must complete by",
		},
		Description: "Deadline-based threats",
	},
	{
		Signal: SignalImmediateAction,
		Keywords: []string{
			"act now", "take action", "respond now", "reply immediately",
			"do it now", "submit now", "verify now", "update now", "confirm now",
		},
		Description: "Demands for immediate action",
	},
}

var accountAuthorityRules = []*Rule{
	{
		Signal: SignalAccountThreat,
		Keywords: []string{
			"account blocked", "account suspended", "account locked", "account closed",
			"account deactivated", "account will be", "will block", "will suspend",
			"avoid suspension", "avoid blocking", "avoid closure", "prevent suspension",
			"खाता ब्लॉक", "खाता बंद", "account band", "block ho jayega",
		},
		Description: "Account threat keywords",
	},
	{
		Signal:   SignalAccountSuspension,
		Keywords: []string{"avoid suspension", "prevent blocking", "stop deactivation", "account suspension"},
		Patterns: []string{
			`(account|card|service).{0,20}(suspend|block|lock|close|deactivat|disable)`,
			`(suspend|block|lock|close|deactivat|disable).{0,20}(account|card|service)`,
			`(avoid|prevent|stop).{0,15}(suspension|blocking|closure|deactivation)`,
		},
		Description: "Account suspension patterns",
	},
	{
		Signal: SignalKYCFailure,
		Keywords: []string{
			"kyc", "kyc failed", "kyc pending", "kyc expired", "kyc incomplete",
			"kyc verification", "update kyc", "complete kyc", "kyc update required",
			"know your customer", "customer verification failed",
		},
		Description: "KYC-related threats",
	},
	{
		Signal:   SignalBankImpersonation,
		Keywords: []string{"reserve bank", "rbi", "central bank", "federal bank"},
		Patterns: []string{
			`\b(state bank|sbi|hdfc|icici|axis bank|pnb|bank of|canara bank|union bank)\b`,
			`\byour bank\b`, `\bour bank\b`, `\bbanking (system|service|team)\b`,
		},
		Description: "Bank impersonation",
	},
	{
		Signal: SignalGovernmentImpersonation,
		Keywords: []string{
			"income tax", "tax department", "tax notice", "government", "govt",
			"ministry", "police", "cybercrime", "enforcement directorate",
			"uidai", "aadhaar", "pan card", "passport office",
		},
		Description: "Government authority impersonation",
	},
	{
		Signal: SignalAuthorityImpersonation,
		Keywords: []string{
			"official", "authorized", "verified sender", "department",
			"customer care", "customer support", "technical support", "helpdesk",
		},
		Patterns:    []string{`\b(from|this is).{0,15}(bank|government|police|tax|official)\b`},
		Description: "General authority impersonation",
	},
}

var paymentRules = []*Rule{
	{
		Signal: SignalUPIRequest,
		Keywords: []string{
			"upi", "upi id", "upi pin", "google pay", "gpay", "phonepe", "paytm",
			"bhim", "payment id", "vpa", "virtual payment",
			"send payment", "make payment", "pay via upi",
		},
		Patterns:    []string{`\b[a-z0-9._-]{2,}@(ybl|okaxis|oksbi|okhdfcbank|okicici|paytm|upi|apl|axl|ibl)\b`},
		Description: "UPI and payment ID requests",
	},
	{
		Signal: SignalOTPRequest,
		Keywords: []string{
			"one time password", "one-time password", "verification code",
			"security code", "authentication code", "sms code", "text code",
			"share otp", "send otp", "enter otp",
		},
		Patterns:    []string{`\botp\b`, `\b\d{4}\b.*code`, `\b\d{6}\b.*code`},
		Description: "OTP/verification code requests",
	},
	{
		Signal: SignalAccountNumberRequest,
		Keywords: []string{
			"account number", "bank account", "account no", "acct no", "a/c number",
			"ifsc", "ifsc code", "routing number", "sort code",
			"provide account", "share account",
		},
		Patterns:    []string{`\baccount\s*#`},
		Description: "Bank account number requests",
	},
	{
		Signal: SignalCardDetailsRequest,
		Keywords: []string{
			"card number", "debit card", "credit card", "card details", "cvv", "cvc",
			"card expiry", "expiry date", "card pin", "atm pin",
			"16 digit", "card info",
		},
		Patterns:    []string{`\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}`},
		Description: "Card details requests",
	},
	{
		Signal: SignalPINRequest,
		Keywords: []string{
			"atm pin", "card pin", "security pin", "personal identification",
			"enter pin", "share pin", "provide pin", "send pin", "what is your pin",
		},
		Patterns:    []string{`\bpin\b`},
		Description: "PIN requests",
	},
	{
		Signal: SignalPaymentRequest,
		Keywords: []string{
			"send money", "transfer money", "make payment", "pay now", "payment required",
			"deposit", "remit", "wire transfer", "send funds", "transfer funds",
			"paisa bhejo", "paise send",
		},
		Patterns:    []string{`pay\s+(rs|inr|₹)?\s*\d+`},
		Description: "General payment requests",
	},
}

var phishingRules = []*Rule{
	{
		Signal:   SignalSuspiciousLink,
		Keywords: []string{"click here", "click link", "visit link", "open link", "tap link"},
		Patterns: []string{
			`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`,
			`www\.[a-zA-Z0-9-]+\.[a-z]{2,}`,
		},
		Description: "URLs and link requests",
	},
	{
		Signal: SignalShortenedURL,
		Patterns: []string{
			`\b(bit\.ly|goo\.gl|tinyurl|short\.link|t\.co|ow\.ly|is\.gd|buff\.ly)/\S+`,
			`\bhttps?://[a-z0-9-]{1,10}\.[a-z]{2,3}/[a-zA-Z0-9]+\b`,
		},
		Description: "Shortened URL patterns",
	},
	{
		Signal: SignalLoginRequest,
		Keywords: []string{
			"login", "log in", "sign in", "signin", "log into",
			"enter credentials", "username and password", "login details",
		},
		Description: "Login credential requests",
	},
	{
		Signal: SignalVerifyLink,
		Keywords: []string{
			"verify your", "verify account", "verify identity", "verification link",
			"confirm your", "validate your", "authenticate your",
		},
		Patterns:    []string{`verify.{0,20}(click|link|here)`, `(click|link).{0,20}verify`},
		Description: "Verification link patterns",
	},
	{
		Signal: SignalMisspelledDomain,
		Patterns: []string{
			`\b(gooogle|yaahoo|amazzon|paypai|microosft|bankofindia|statebank)\b`,
			`\b[a-z]+-secure\.(com|net|org)\b`,
			`\bverify-[a-z]+\.(com|net)\b`,
		},
		Description: "Common domain misspellings",
	},
}

func init() {
	for _, group := range ruleGroups {
		for _, r := range group {
			r.compile()
		}
	}
}

// MatchResult is the output of the rule matcher for one message.
type MatchResult struct {
	// Signals in first-match order across rule groups.
	Signals []SignalType
	// Explanations maps each signal to the description of the first rule
	// that produced it.
	Explanations map[string]string
}

// MatchSignals evaluates every text rule against the message, then the
// conversation-level detectors when history is present. Each signal is
// contributed at most once.
func MatchSignals(text string, history []ConversationEntry) MatchResult {
	res := MatchResult{
		Signals:      []SignalType{},
		Explanations: make(map[string]string),
	}
	seen := make(map[SignalType]struct{})

	add := func(sig SignalType, desc string) {
		if _, ok := seen[sig]; ok {
			return
		}
		seen[sig] = struct{}{}
		res.Signals = append(res.Signals, sig)
		res.Explanations[string(sig)] = desc
	}

	for _, group := range ruleGroups {
		for _, r := range group {
			if r.Matches(text) {
				add(r.Signal, r.Description)
			}
		}
	}

	if len(history) > 0 {
		scammerMsgs := scammerMessages(history)
		scammerMsgs = append(scammerMsgs, text)

		if detectRepetition(scammerMsgs) {
			add(SignalRepetition, "Scammer is repeating similar messages")
		}
		if detectEscalation(scammerMsgs) {
			add(SignalEscalation, "Threat level escalating across conversation")
		}
		if detectCopyPaste(scammerMsgs) {
			add(SignalCopyPaste, "Exact message repetition detected")
		}
		if detectIgnoringQuestions(history) {
			add(SignalIgnoringQuestion, "Scammer ignores questions and repeats demands")
		}
	}

	return res
}

// scammerMessages extracts the text of history entries sent by the scammer.
func scammerMessages(history []ConversationEntry) []string {
	msgs := make([]string, 0, len(history))
	for _, entry := range history {
		if entry.Sender == SenderScammer {
			msgs = append(msgs, entry.Text)
		}
	}
	return msgs
}
