package services

import (
	"time"

	"honeytrap-lab/internal/detection"
)

// Strategy is the engagement mode the agent adopts toward the actor.
type Strategy string

const (
	// StrategyPassiveVerify asks slow clarification questions.
	StrategyPassiveVerify Strategy = "PASSIVE_VERIFY"
	// StrategyAnxiousComply plays worried and cooperative to keep the actor talking.
	StrategyAnxiousComply Strategy = "ANXIOUS_COMPLY"
	// StrategyStallAndProbe delays replies and sets verification traps.
	StrategyStallAndProbe Strategy = "STALL_AND_PROBE"
)

// strategyTraits tunes reply pacing and tone per strategy.
var strategyTraits = map[Strategy]struct {
	delayMultiplier float64
	probeSuffix     bool
	concernPrefix   bool
}{
	StrategyPassiveVerify: {delayMultiplier: 1.2},
	StrategyAnxiousComply: {delayMultiplier: 0.8, concernPrefix: true},
	StrategyStallAndProbe: {delayMultiplier: 1.8, probeSuffix: true},
}

// SelectStrategy picks the engagement mode from detection context.
func SelectStrategy(confidence float64, messageCount int, signals []string) Strategy {
	// First exchanges always start with passive clarification.
	if messageCount <= 2 {
		return StrategyPassiveVerify
	}

	urgencyDriven := containsSignal(signals, detection.SignalUrgency) ||
		containsSignal(signals, detection.SignalAccountThreat) ||
		containsSignal(signals, detection.SignalAccountSuspension)
	if urgencyDriven && confidence > 0.7 {
		return StrategyAnxiousComply
	}

	paymentOrLink := containsSignal(signals, detection.SignalUPIRequest) ||
		containsSignal(signals, detection.SignalAccountNumberRequest) ||
		containsSignal(signals, detection.SignalPaymentRequest) ||
		containsSignal(signals, detection.SignalSuspiciousLink) ||
		containsSignal(signals, detection.SignalVerifyLink)
	if paymentOrLink && messageCount > 3 {
		return StrategyStallAndProbe
	}

	if containsSignal(signals, detection.SignalAuthorityImpersonation) ||
		containsSignal(signals, detection.SignalBankImpersonation) ||
		containsSignal(signals, detection.SignalGovernmentImpersonation) {
		return StrategyAnxiousComply
	}

	if containsSignal(signals, detection.SignalRepetition) ||
		containsSignal(signals, detection.SignalCopyPaste) {
		if messageCount%2 == 0 {
			return StrategyStallAndProbe
		}
		return StrategyAnxiousComply
	}

	return StrategyPassiveVerify
}

// ResponseDelay computes how long the agent should wait before replying.
// Longer incoming messages earn more thinking time.
func ResponseDelay(baseDelay time.Duration, strategy Strategy, messageLength int) time.Duration {
	complexity := 1.0 + float64(messageLength)/200.0
	mult := strategyTraits[strategy].delayMultiplier
	if mult == 0 {
		mult = 1.0
	}
	return time.Duration(float64(baseDelay) * mult * complexity)
}

func containsSignal(signals []string, sig detection.SignalType) bool {
	for _, s := range signals {
		if s == string(sig) {
			return true
		}
	}
	return false
}
