package detection

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Scoring constants. These are calibrated together with the signal weights so
// that the worked behavior straddles the fixed 0.70 decision boundary; do not
// retune one without the others.
const (
	// ScamThreshold is the fixed decision threshold: a message is flagged
	// iff confidence >= ScamThreshold.
	ScamThreshold = 0.70

	categoryDiversityBonus = 0.15
	highSeverityMultiplier = 1.3
	classicComboMultiplier = 1.25
	maxTurnMultiplier      = 1.4
)

// criticalSignals are requests for credentials that authorize payments
// outright. Any one of them triggers the high-severity multiplier and the
// first-message floor.
var criticalSignals = map[SignalType]struct{}{
	SignalOTPRequest:         {},
	SignalPINRequest:         {},
	SignalCardDetailsRequest: {},
}

var comboPaymentSignals = map[SignalType]struct{}{
	SignalUPIRequest:           {},
	SignalAccountNumberRequest: {},
	SignalOTPRequest:           {},
	SignalPINRequest:           {},
	SignalCardDetailsRequest:   {},
}

var comboThreatSignals = map[SignalType]struct{}{
	SignalAccountThreat:     {},
	SignalAccountSuspension: {},
	SignalKYCFailure:        {},
}

var comboAuthoritySignals = map[SignalType]struct{}{
	SignalBankImpersonation:       {},
	SignalAuthorityImpersonation:  {},
	SignalGovernmentImpersonation: {},
}

// firstMessagePaymentSignals drive the payment+pressure first-message cap.
var firstMessagePaymentSignals = map[SignalType]struct{}{
	SignalUPIRequest:           {},
	SignalAccountNumberRequest: {},
}

// Score computes the confidence for one triggered-signal set given the length
// of the conversation so far. It is a pure function: identical inputs always
// produce identical output. The result is clamped to [0,1] and rounded to two
// decimals.
func Score(signals []SignalType, historyLen int) float64 {
	if len(signals) == 0 {
		return 0.0
	}

	score := baseScore(signals)

	// Multiple attack vectors raise suspicion more than repeated hits on one.
	if len(uniqueCategories(signals)) >= 2 {
		score += categoryDiversityBonus
	}

	if anyIn(signals, criticalSignals) {
		score *= highSeverityMultiplier
	}

	if isClassicCombo(signals) {
		score *= classicComboMultiplier
	}

	if historyLen > 0 {
		score *= turnMultiplier(signals, historyLen)
	} else {
		score = applyFirstMessageCap(score, signals)
	}

	return round2(clamp01(score))
}

// IsScam applies the fixed detection threshold.
func IsScam(confidence float64) bool {
	return confidence >= ScamThreshold
}

// baseScore aggregates signal weights with diminishing returns: the strongest
// signal counts in full, each further signal at half the previous rate. Many
// weak signals cannot alone reach high confidence.
func baseScore(signals []SignalType) float64 {
	weights := make([]float64, 0, len(signals))
	for _, sig := range signals {
		weights = append(weights, WeightOf(sig))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(weights)))

	score := weights[0]
	for i := 1; i < len(weights); i++ {
		score += weights[i] * math.Pow(0.5, float64(i))
	}
	return score
}

// isClassicCombo detects the payment-plus-coercion pairing: a payment-type
// request together with either an account threat or an authority claim.
func isClassicCombo(signals []SignalType) bool {
	hasPayment := anyIn(signals, comboPaymentSignals)
	hasThreat := anyIn(signals, comboThreatSignals)
	hasAuthority := anyIn(signals, comboAuthoritySignals)
	return (hasPayment && hasThreat) || (hasPayment && hasAuthority)
}

// turnMultiplier escalates confidence as a conversation progresses.
//
// The turn count approximates "every prior turn carried a scam signal"
// without checking which turns actually matched, so it overestimates on
// conversations where early turns were benign. Kept as-is: the downstream
// threshold behavior is calibrated against it.
func turnMultiplier(signals []SignalType, historyLen int) float64 {
	turnCount := historyLen + 1
	if turnCount == 1 {
		return 1.0
	}

	multiplier := 1.0 + math.Min(0.1*float64(turnCount-1), 0.3)

	for _, sig := range signals {
		if CategoryOf(sig) == CategoryConversation {
			multiplier += 0.1
			break
		}
	}

	return math.Min(multiplier, maxTurnMultiplier)
}

// applyFirstMessageCap suppresses aggressive flagging on first contact while
// guaranteeing that a lone critical credential request still clears the
// detection threshold. Brackets are checked most specific first.
func applyFirstMessageCap(score float64, signals []SignalType) float64 {
	hasCritical := anyIn(signals, criticalSignals)
	hasPayment := anyIn(signals, firstMessagePaymentSignals)

	hasPressure := false
	for _, sig := range signals {
		cat := CategoryOf(sig)
		if cat == CategoryUrgencyPressure || cat == CategoryAccountAuthority {
			hasPressure = true
			break
		}
	}

	categories := uniqueCategories(signals)

	switch {
	case hasCritical && hasPressure:
		return math.Min(score, 0.95)
	case hasCritical:
		return math.Max(math.Min(score, 0.80), 0.70)
	case hasPayment && hasPressure:
		return math.Min(score, 0.85)
	case len(categories) >= 3:
		return math.Min(score, 0.75)
	case len(signals) >= 3:
		return math.Min(score, 0.65)
	default:
		return math.Min(score, 0.55)
	}
}

// ExplainConfidence buckets a confidence value into a qualitative level and
// lists the categories involved. Observability only; it never feeds back into
// the decision.
func ExplainConfidence(confidence float64, signals []SignalType) string {
	var level string
	switch {
	case confidence < 0.4:
		level = "Very low suspicion"
	case confidence < 0.6:
		level = "Low to moderate suspicion"
	case confidence < 0.7:
		level = "Moderate suspicion (below detection threshold)"
	case confidence < 0.85:
		level = "High confidence scam"
	default:
		level = "Very high confidence scam"
	}

	categories := make([]string, 0, len(Categories))
	seen := uniqueCategories(signals)
	for _, cat := range Categories {
		if _, ok := seen[cat]; ok {
			categories = append(categories, string(cat))
		}
	}

	return fmt.Sprintf("%s - %d signals across %d categories: %s",
		level, len(signals), len(categories), strings.Join(categories, ", "))
}

func anyIn(signals []SignalType, set map[SignalType]struct{}) bool {
	for _, sig := range signals {
		if _, ok := set[sig]; ok {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0.0), 1.0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
