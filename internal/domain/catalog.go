package domain

// Persona is a named system-prompt template.
// The custom persona has no fixed prompt; its text is supplied on selection.
type Persona struct {
	Key    string `json:"key" yaml:"key"`
	Prompt string `json:"prompt" yaml:"prompt"`
	Custom bool   `json:"custom,omitempty" yaml:"custom"`
}

// Model describes a model offered by the completion endpoint.
type Model struct {
	Key         string `json:"key" yaml:"key"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	MaxContext  int    `json:"max_context" yaml:"max_context"`
}
