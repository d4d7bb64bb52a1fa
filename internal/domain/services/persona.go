package services

// PhraseCategory selects which pool of canned phrases a reply draws from.
type PhraseCategory string

const (
	PhraseConfusion    PhraseCategory = "confusion"
	PhraseVerification PhraseCategory = "verification"
	PhraseConcern      PhraseCategory = "concern"
	PhraseLinkIssue    PhraseCategory = "link_issue"
)

// Persona is a consistent fictional identity the agent speaks as for the
// lifetime of one session.
type Persona struct {
	Name    string
	Traits  []string
	Phrases map[PhraseCategory][]string
}

const DefaultPersona = "cautious_bank_customer"

var personas = map[string]Persona{
	"cautious_bank_customer": {
		Name:   "cautious_bank_customer",
		Traits: []string{"polite", "confused", "security-conscious"},
		Phrases: map[PhraseCategory][]string{
			PhraseConfusion: {
				"Sorry, which bank is this?",
				"I'm not sure what this is about",
				"Can you clarify which account?",
				"Which service is this regarding?",
				"I don't understand what account you mean",
			},
			PhraseVerification: {
				"Can you give me a reference number?",
				"What's the official website for this?",
				"Which branch should I contact?",
				"Is there a customer service number I can call?",
				"Can you tell me the department name?",
			},
			PhraseConcern: {
				"This seems urgent, what happened exactly?",
				"I'm worried, can you explain more?",
				"Should I be concerned about this?",
				"What exactly is the problem?",
			},
			PhraseLinkIssue: {
				"The link didn't open for me",
				"I tried clicking but nothing happened",
				"Can you send that link again?",
				"I can't seem to open it, is there another way?",
			},
		},
	},
	"busy_employee": {
		Name:   "busy_employee",
		Traits: []string{"hurried", "practical", "limited-time"},
		Phrases: map[PhraseCategory][]string{
			PhraseConfusion: {
				"Quick question - which company is this?",
				"Sorry I'm busy, what's this about?",
				"Can you be more specific?",
				"I'm at work, which account?",
				"Need more details, what service?",
			},
			PhraseVerification: {
				"Send me the reference number please",
				"What's the official contact?",
				"Give me the ticket ID or something",
				"Which department exactly?",
				"Can you provide verification details?",
			},
			PhraseConcern: {
				"Wait, what issue?",
				"Hold on, what happened?",
				"This is important, tell me more",
				"I need to know what went wrong",
			},
			PhraseLinkIssue: {
				"Link's not working",
				"Can't open it, send another?",
				"The link failed to load",
				"Not loading, can you resend?",
			},
		},
	},
	"anxious_student": {
		Name:   "anxious_student",
		Traits: []string{"worried", "inexperienced", "cooperative"},
		Phrases: map[PhraseCategory][]string{
			PhraseConfusion: {
				"I'm confused, what is this about?",
				"Which account do you mean?",
				"Sorry I don't know what this means",
				"Can you explain what happened?",
				"I'm not sure which service this is",
			},
			PhraseVerification: {
				"How can I verify this is real?",
				"Can you give me a reference number or something?",
				"What's the official website?",
				"Should I call someone to confirm?",
				"Is there a way to check this officially?",
			},
			PhraseConcern: {
				"I'm really worried now, what's wrong?",
				"This sounds serious, can you explain?",
				"I'm stressed, what should I do?",
				"Please tell me what the issue is",
			},
			PhraseLinkIssue: {
				"I clicked but it didn't work",
				"The link isn't opening for me",
				"Can you send it again? It failed",
				"I'm having trouble with the link",
			},
		},
	},
}

// PersonaByName returns the named persona, falling back to the default when
// the name is unknown.
func PersonaByName(name string) Persona {
	if p, ok := personas[name]; ok {
		return p
	}
	return personas[DefaultPersona]
}

// PersonaNames lists all registered persona names.
func PersonaNames() []string {
	names := make([]string, 0, len(personas))
	for name := range personas {
		names = append(names, name)
	}
	return names
}
