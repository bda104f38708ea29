package domain

// Tool describes a capability the agent can invoke through the dispatcher.
// Write classifies the tool for the autonomy gate; it is static per tool,
// not derived from the input.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Write       bool   `json:"write"`
}
