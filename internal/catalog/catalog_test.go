package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/groq-chat/internal/catalog"
	"github.com/PabloGalante/groq-chat/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c := catalog.Default()

	assert.Equal(t, "llama-3.1-8b-instant", c.DefaultModel())
	assert.Equal(t, "Helpful", c.DefaultPersona())
	assert.Equal(t, "Custom", c.CustomPersona())
	assert.Len(t, c.Models(), 4)
	assert.Len(t, c.Personas(), 8)

	p, err := c.Persona("Helpful")
	require.NoError(t, err)
	assert.Equal(t, "You are a helpful, friendly assistant.", p.Prompt)

	m, err := c.Model("mixtral-8x7b-32768")
	require.NoError(t, err)
	assert.Equal(t, "Mixtral 8x7B", m.Name)
	assert.Equal(t, 32768, m.MaxContext)
}

func TestLookupUnknownKeys(t *testing.T) {
	c := catalog.Default()

	_, err := c.Persona("Pirate")
	require.ErrorIs(t, err, domain.ErrUnknownPersona)

	_, err = c.Model("gpt-9")
	require.ErrorIs(t, err, domain.ErrUnknownModel)
}

func TestListingPreservesOrder(t *testing.T) {
	c := catalog.Default()

	var keys []string
	for _, p := range c.Personas() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"Helpful", "Sassy", "Angry", "Thoughtful", "Coder", "Creative", "Professional", "Custom"}, keys)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "no models",
			yaml: "default_persona: A\npersonas:\n  - key: A\n    custom: true\n",
		},
		{
			name: "duplicate model",
			yaml: `
default_model: m
default_persona: C
models:
  - {key: m, name: M, max_context: 10}
  - {key: m, name: M, max_context: 10}
personas:
  - {key: C, custom: true}
`,
		},
		{
			name: "no custom persona",
			yaml: `
default_model: m
default_persona: A
models:
  - {key: m, name: M, max_context: 10}
personas:
  - {key: A, prompt: a}
`,
		},
		{
			name: "two custom personas",
			yaml: `
default_model: m
default_persona: A
models:
  - {key: m, name: M, max_context: 10}
personas:
  - {key: A, custom: true}
  - {key: B, custom: true}
`,
		},
		{
			name: "unknown default model",
			yaml: `
default_model: x
default_persona: A
models:
  - {key: m, name: M, max_context: 10}
personas:
  - {key: A, custom: true}
`,
		},
		{
			name: "non-positive context",
			yaml: `
default_model: m
default_persona: A
models:
  - {key: m, name: M, max_context: 0}
personas:
  - {key: A, custom: true}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Load([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gemini.yaml")
	data := `
default_model: gemini-2.5-flash
default_persona: Plain
models:
  - key: gemini-2.5-flash
    name: Gemini 2.5 Flash
    description: Fast
    max_context: 1048576
personas:
  - key: Plain
    prompt: You are an assistant.
  - key: Mine
    custom: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	c, err := catalog.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", c.DefaultModel())
	assert.Equal(t, "Mine", c.CustomPersona())

	_, err = catalog.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
