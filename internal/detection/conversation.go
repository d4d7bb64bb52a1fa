package detection

import "strings"

// Conversation-level detectors. These only run when the caller supplies
// history; each contributes one specific conversation-pattern signal.

// threatKeywords feed the escalation detector.
var threatKeywords = []string{
	"block", "suspend", "close", "deactivate", "legal", "action",
	"police", "arrest", "fine", "penalty", "last chance", "final",
}

var questionIndicators = []string{"?", "why", "what", "how", "who", "when", "which"}

var demandIndicators = []string{"send", "provide", "share", "give", "submit", "enter"}

const repetitionThreshold = 0.80

// detectRepetition reports whether any adjacent pair among the last three
// scammer messages has word-set similarity at or above the threshold.
func detectRepetition(messages []string) bool {
	if len(messages) < 2 {
		return false
	}
	recent := messages
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	for i := 0; i < len(recent)-1; i++ {
		if jaccardSimilarity(recent[i], recent[i+1]) >= repetitionThreshold {
			return true
		}
	}
	return false
}

// detectEscalation reports whether the threat-keyword count grew between the
// two most recent scammer messages.
func detectEscalation(messages []string) bool {
	if len(messages) < 2 {
		return false
	}
	last := countThreatKeywords(messages[len(messages)-1])
	prev := countThreatKeywords(messages[len(messages)-2])
	return last > prev
}

func countThreatKeywords(msg string) int {
	lower := strings.ToLower(msg)
	count := 0
	for _, kw := range threatKeywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}

// detectCopyPaste reports whether any two scammer messages are identical
// after trimming and case-folding.
func detectCopyPaste(messages []string) bool {
	if len(messages) < 2 {
		return false
	}
	seen := make(map[string]struct{}, len(messages))
	for _, msg := range messages {
		normalized := strings.ToLower(strings.TrimSpace(msg))
		if _, ok := seen[normalized]; ok {
			return true
		}
		seen[normalized] = struct{}{}
	}
	return false
}

// detectIgnoringQuestions looks for a counterpart question immediately
// followed by a scammer message that ignores it (shares none of the
// question's first five words) while making a demand.
func detectIgnoringQuestions(history []ConversationEntry) bool {
	if len(history) < 3 {
		return false
	}
	for i := 0; i < len(history)-1; i++ {
		if history[i].Sender != SenderUser {
			continue
		}
		userText := strings.ToLower(history[i].Text)
		hasQuestion := false
		for _, ind := range questionIndicators {
			if strings.Contains(userText, ind) {
				hasQuestion = true
				break
			}
		}
		if !hasQuestion {
			continue
		}

		next := strings.ToLower(history[i+1].Text)

		ignores := true
		words := strings.Fields(userText)
		if len(words) > 5 {
			words = words[:5]
		}
		for _, w := range words {
			if strings.Contains(next, w) {
				ignores = false
				break
			}
		}

		makesDemand := false
		for _, ind := range demandIndicators {
			if strings.Contains(next, ind) {
				makesDemand = true
				break
			}
		}

		if ignores && makesDemand {
			return true
		}
	}
	return false
}

// jaccardSimilarity computes word-set Jaccard similarity of two texts.
func jaccardSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}
	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}
