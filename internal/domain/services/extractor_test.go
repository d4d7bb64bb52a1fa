package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap-lab/internal/detection"
	"honeytrap-lab/pkg/logger"
)

func newTestExtractor() *IntelExtractor {
	return NewIntelExtractor(10, logger.NewDefault())
}

func TestExtractUPIIDs(t *testing.T) {
	e := newTestExtractor()

	intel := e.Extract("Send the refund to rahul.k@ybl or 9876543210@paytm today")
	assert.Contains(t, intel.UPIIDs, "rahul.k@ybl")
	assert.Contains(t, intel.UPIIDs, "9876543210@paytm")

	// Ordinary email addresses are not UPI handles.
	intel = e.Extract("Contact me at someone@gmail.com")
	assert.Empty(t, intel.UPIIDs)
}

func TestExtractBankDetails(t *testing.T) {
	e := newTestExtractor()

	intel := e.Extract("Transfer to account no: 123456789012, IFSC HDFC0001234")
	assert.Contains(t, intel.BankAccounts, "123456789012")
	assert.Contains(t, intel.IFSCCodes, "HDFC0001234")
	assert.True(t, intel.HasPaymentDetails())
}

func TestExtractPhoneNumbers(t *testing.T) {
	e := newTestExtractor()

	intel := e.Extract("Call +91 9876543210 immediately")
	require.NotEmpty(t, intel.PhoneNumbers)
	assert.Contains(t, intel.PhoneNumbers, "+91 9876543210")
}

func TestExtractPhishingLinks(t *testing.T) {
	e := newTestExtractor()

	intel := e.Extract("Verify here http://bit.ly/kyc123 or at www.sbi-verify.com now")
	assert.Contains(t, intel.PhishingLinks, "http://bit.ly/kyc123")
	assert.NotEmpty(t, intel.PhishingLinks)
}

func TestExtractKeywords(t *testing.T) {
	e := newTestExtractor()

	intel := e.Extract("URGENT: share your OTP and ATM PIN to avoid legal action")
	assert.Contains(t, intel.Keywords, "otp")
	assert.Contains(t, intel.Keywords, "atm pin")
	assert.Contains(t, intel.Keywords, "urgent")
	assert.Contains(t, intel.Keywords, "legal action")
}

func TestExtractBenignText(t *testing.T) {
	e := newTestExtractor()

	intel := e.Extract("See you at lunch tomorrow")
	assert.Equal(t, 0, intel.TotalEntities())
	assert.Empty(t, intel.Keywords)
}

func TestAnalyzeConversationCompleteOnPaymentDetails(t *testing.T) {
	e := newTestExtractor()

	history := []detection.ConversationEntry{
		{Sender: detection.SenderScammer, Text: "Your account is blocked"},
		{Sender: detection.SenderUser, Text: "What should I do?"},
		{Sender: detection.SenderScammer, Text: "Pay the fee to fraudster@okaxis"},
	}

	intel, complete := e.AnalyzeConversation(history)
	assert.True(t, complete)
	assert.Contains(t, intel.UPIIDs, "fraudster@okaxis")
}

func TestAnalyzeConversationCompleteOnPhishingLinks(t *testing.T) {
	e := newTestExtractor()

	history := []detection.ConversationEntry{
		{Sender: detection.SenderScammer, Text: "Verify at http://bit.ly/abc123"},
		{Sender: detection.SenderScammer, Text: "Or use http://tinyurl.com/xyz789"},
	}

	_, complete := e.AnalyzeConversation(history)
	assert.True(t, complete)
}

func TestAnalyzeConversationCompleteOnCredentialPressure(t *testing.T) {
	e := newTestExtractor()

	history := []detection.ConversationEntry{
		{Sender: detection.SenderScammer, Text: "Share your OTP, ATM PIN and CVV to continue"},
	}

	_, complete := e.AnalyzeConversation(history)
	assert.True(t, complete)
}

func TestAnalyzeConversationCompleteOnLongConversation(t *testing.T) {
	e := NewIntelExtractor(4, logger.NewDefault())

	history := []detection.ConversationEntry{
		{Sender: detection.SenderScammer, Text: "Hello"},
		{Sender: detection.SenderUser, Text: "Who is this?"},
		{Sender: detection.SenderScammer, Text: "Call me on +91 9876543210"},
		{Sender: detection.SenderUser, Text: "Ok"},
	}

	_, complete := e.AnalyzeConversation(history)
	assert.True(t, complete)
}

func TestAnalyzeConversationIncomplete(t *testing.T) {
	e := newTestExtractor()

	history := []detection.ConversationEntry{
		{Sender: detection.SenderScammer, Text: "Hello, how are you?"},
	}

	intel, complete := e.AnalyzeConversation(history)
	assert.False(t, complete)
	assert.Equal(t, 0, intel.TotalEntities())
}

func TestBehaviorSummary(t *testing.T) {
	e := newTestExtractor()

	intel := e.Extract("URGENT: I am a bank officer, pay the processing fee and share your OTP or face legal action")
	notes := e.BehaviorSummary(intel, 7)

	assert.Contains(t, notes, "urgency pressure")
	assert.Contains(t, notes, "threat-based coercion")
	assert.Contains(t, notes, "payment redirection")
	assert.Contains(t, notes, "authority impersonation")
	assert.Contains(t, notes, "credential harvesting")
	assert.Contains(t, notes, "across 7 messages")
}

func TestBehaviorSummaryEmptyForBenign(t *testing.T) {
	e := newTestExtractor()

	intel := e.Extract("See you at lunch tomorrow")
	assert.Empty(t, e.BehaviorSummary(intel, 3))
}
