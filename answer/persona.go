package answer

// Persona fixes who the assistant says it is and its canned messages.
type Persona struct {
	Name   string
	Domain string // What the corpus covers, e.g. "the Republic of the Congo"

	Identity     string // Reply to "who are you"
	Capabilities string // Reply to "what can you do"

	NoInformation string // Reply when retrieval finds nothing relevant
	Refusal       string // Phrase the model must use when the passages lack the answer
}

// DefaultPersona answers about the Republic of the Congo.
func DefaultPersona() Persona {
	return Persona{
		Name:          "Docent",
		Domain:        "the Republic of the Congo (Congo-Brazzaville)",
		Identity:      "I am a chatbot that helps you learn more about Congo-Brazzaville.",
		Capabilities:  "I am designed to answer questions related only to Congo-Brazzaville.",
		NoInformation: "I don't know, sorry.",
		Refusal:       "I don't know, sorry.",
	}
}

// withDefaults fills empty fields from DefaultPersona.
func (p Persona) withDefaults() Persona {
	d := DefaultPersona()
	if p.Name == "" {
		p.Name = d.Name
	}
	if p.Domain == "" {
		p.Domain = d.Domain
	}
	if p.Identity == "" {
		p.Identity = d.Identity
	}
	if p.Capabilities == "" {
		p.Capabilities = d.Capabilities
	}
	if p.NoInformation == "" {
		p.NoInformation = d.NoInformation
	}
	if p.Refusal == "" {
		p.Refusal = d.Refusal
	}
	return p
}
