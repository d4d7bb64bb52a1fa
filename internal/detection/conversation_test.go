package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectRepetition(t *testing.T) {
	tests := []struct {
		name     string
		messages []string
		want     bool
	}{
		{"single message", []string{"send money"}, false},
		{"identical messages", []string{"send your upi id now", "send your upi id now"}, true},
		{"near identical", []string{"send your upi id now", "now send your upi id"}, true},
		{"distinct messages", []string{"hello there", "your account is blocked"}, false},
		{
			"only last three considered",
			[]string{"same text here", "same text here", "different one", "another different message entirely"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectRepetition(tt.messages))
		})
	}
}

func TestDetectEscalation(t *testing.T) {
	tests := []struct {
		name     string
		messages []string
		want     bool
	}{
		{"single message", []string{"police will arrest you"}, false},
		{"rising threats", []string{"please respond", "police will arrest you, pay the fine"}, true},
		{"flat threats", []string{"account will be blocked", "your account is blocked"}, false},
		{"falling threats", []string{"police case, arrest, penalty", "please respond"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectEscalation(tt.messages))
		})
	}
}

func TestDetectCopyPaste(t *testing.T) {
	assert.False(t, detectCopyPaste([]string{"only one"}))
	assert.False(t, detectCopyPaste([]string{"first message", "second message"}))
	assert.True(t, detectCopyPaste([]string{"Send OTP now", "  send otp NOW  "}))
	assert.True(t, detectCopyPaste([]string{"a", "b", "a"}))
}

func TestDetectIgnoringQuestions(t *testing.T) {
	ignored := []ConversationEntry{
		{Sender: SenderScammer, Text: "Your account is blocked"},
		{Sender: SenderUser, Text: "Why is that required?"},
		{Sender: SenderScammer, Text: "Just send the details now"},
	}
	assert.True(t, detectIgnoringQuestions(ignored))

	answered := []ConversationEntry{
		{Sender: SenderScammer, Text: "Your account is blocked"},
		{Sender: SenderUser, Text: "Why is that required?"},
		{Sender: SenderScammer, Text: "It is required because of a security audit"},
	}
	assert.False(t, detectIgnoringQuestions(answered))

	tooShort := []ConversationEntry{
		{Sender: SenderUser, Text: "Why?"},
		{Sender: SenderScammer, Text: "Send it"},
	}
	assert.False(t, detectIgnoringQuestions(tooShort))
}

func TestJaccardSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, jaccardSimilarity("send otp now", "now send otp"))
	assert.Equal(t, 0.0, jaccardSimilarity("", "hello"))
	assert.Equal(t, 0.0, jaccardSimilarity("alpha beta", "gamma delta"))
	assert.InDelta(t, 1.0/3.0, jaccardSimilarity("a b", "a c"), 1e-9)
}
