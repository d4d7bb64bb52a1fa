package detection

// SignalType is a stable machine-readable identifier for one scam indicator.
type SignalType string

const (
	// Urgency / pressure
	SignalUrgency         SignalType = "urgency"
	SignalTimePressure    SignalType = "time_pressure"
	SignalDeadline        SignalType = "deadline"
	SignalImmediateAction SignalType = "immediate_action"

	// Account / authority threats
	SignalAccountThreat           SignalType = "account_threat"
	SignalAccountSuspension       SignalType = "account_suspension"
	SignalKYCFailure              SignalType = "kyc_failure"
	SignalAuthorityImpersonation  SignalType = "authority_impersonation"
	SignalBankImpersonation       SignalType = "bank_impersonation"
	SignalGovernmentImpersonation SignalType = "government_impersonation"

	// Payment requests
	SignalPaymentRequest       SignalType = "payment_request"
	SignalUPIRequest           SignalType = "upi_request"
	SignalOTPRequest           SignalType = "otp_request"
	SignalAccountNumberRequest SignalType = "account_number_request"
	SignalCardDetailsRequest   SignalType = "card_details_request"
	SignalPINRequest           SignalType = "pin_request"

	// Phishing / redirection
	SignalPhishing          SignalType = "phishing"
	SignalSuspiciousLink    SignalType = "suspicious_link"
	SignalShortenedURL      SignalType = "shortened_url"
	SignalLoginRequest      SignalType = "login_request"
	SignalVerifyLink        SignalType = "verify_link"
	SignalMisspelledDomain  SignalType = "misspelled_domain"

	// Conversation patterns
	SignalRepetition       SignalType = "repetition"
	SignalEscalation       SignalType = "escalation"
	SignalIgnoringQuestion SignalType = "ignoring_questions"
	SignalCopyPaste        SignalType = "copy_paste"
	SignalDeflection       SignalType = "deflection"
)

// Category groups signals into broader attack vectors. Category diversity
// feeds into scoring.
type Category string

const (
	CategoryUrgencyPressure  Category = "urgency_pressure"
	CategoryAccountAuthority Category = "account_authority"
	CategoryPayment          Category = "payment"
	CategoryPhishing         Category = "phishing"
	CategoryConversation     Category = "conversation"
)

// Categories lists every category, in a stable order.
var Categories = []Category{
	CategoryUrgencyPressure,
	CategoryAccountAuthority,
	CategoryPayment,
	CategoryPhishing,
	CategoryConversation,
}

// signalCategories maps every known signal to its category.
var signalCategories = map[SignalType]Category{
	SignalUrgency:         CategoryUrgencyPressure,
	SignalTimePressure:    CategoryUrgencyPressure,
	SignalDeadline:        CategoryUrgencyPressure,
	SignalImmediateAction: CategoryUrgencyPressure,

	SignalAccountThreat:           CategoryAccountAuthority,
	SignalAccountSuspension:       CategoryAccountAuthority,
	SignalKYCFailure:              CategoryAccountAuthority,
	SignalAuthorityImpersonation:  CategoryAccountAuthority,
	SignalBankImpersonation:       CategoryAccountAuthority,
	SignalGovernmentImpersonation: CategoryAccountAuthority,

	SignalPaymentRequest:       CategoryPayment,
	SignalUPIRequest:           CategoryPayment,
	SignalOTPRequest:           CategoryPayment,
	SignalAccountNumberRequest: CategoryPayment,
	SignalCardDetailsRequest:   CategoryPayment,
	SignalPINRequest:           CategoryPayment,

	SignalPhishing:         CategoryPhishing,
	SignalSuspiciousLink:   CategoryPhishing,
	SignalShortenedURL:     CategoryPhishing,
	SignalLoginRequest:     CategoryPhishing,
	SignalVerifyLink:       CategoryPhishing,
	SignalMisspelledDomain: CategoryPhishing,

	SignalRepetition:       CategoryConversation,
	SignalEscalation:       CategoryConversation,
	SignalIgnoringQuestion: CategoryConversation,
	SignalCopyPaste:        CategoryConversation,
	SignalDeflection:       CategoryConversation,
}

// signalWeights holds the base severity weight for each signal. The exact
// values matter: scoring caps and multipliers are calibrated against them and
// against the fixed 0.70 decision threshold.
var signalWeights = map[SignalType]float64{
	// High severity
	SignalOTPRequest:           0.40,
	SignalPINRequest:           0.40,
	SignalCardDetailsRequest:   0.35,
	SignalAccountNumberRequest: 0.30,
	SignalUPIRequest:           0.30,

	// Medium-high severity
	SignalAccountSuspension: 0.25,
	SignalSuspiciousLink:    0.22,
	SignalVerifyLink:        0.20,
	SignalShortenedURL:      0.20,

	// Medium severity
	SignalAuthorityImpersonation:  0.18,
	SignalBankImpersonation:       0.18,
	SignalGovernmentImpersonation: 0.18,
	SignalKYCFailure:              0.18,
	SignalAccountThreat:           0.18,
	SignalPaymentRequest:          0.18,
	SignalMisspelledDomain:        0.18,

	// Lower severity, more context needed
	SignalUrgency:         0.12,
	SignalTimePressure:    0.12,
	SignalDeadline:        0.12,
	SignalImmediateAction: 0.12,
	SignalLoginRequest:    0.12,
	SignalPhishing:        0.12,

	// Conversation patterns
	SignalRepetition:       0.10,
	SignalEscalation:       0.15,
	SignalIgnoringQuestion: 0.12,
	SignalCopyPaste:        0.10,
	SignalDeflection:       0.10,
}

const (
	defaultWeight   = 0.10
	defaultCategory = CategoryConversation
)

// WeightOf returns the base weight for a signal. Unknown signals get a
// conservative default.
func WeightOf(sig SignalType) float64 {
	if w, ok := signalWeights[sig]; ok {
		return w
	}
	return defaultWeight
}

// CategoryOf returns the category for a signal. Unknown signals fall back to
// the conversation category.
func CategoryOf(sig SignalType) Category {
	if c, ok := signalCategories[sig]; ok {
		return c
	}
	return defaultCategory
}

// uniqueCategories returns the set of categories covered by a signal list.
func uniqueCategories(signals []SignalType) map[Category]struct{} {
	cats := make(map[Category]struct{}, len(signals))
	for _, sig := range signals {
		cats[CategoryOf(sig)] = struct{}{}
	}
	return cats
}
