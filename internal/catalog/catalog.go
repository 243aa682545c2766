// Package catalog holds the immutable persona and model lookup tables.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/groq-chat/internal/domain"
)

//go:embed catalog.yaml
var defaultYAML []byte

// Catalog is safe for concurrent use; nothing mutates it after Load.
type Catalog struct {
	models         []domain.Model
	personas       []domain.Persona
	modelIdx       map[string]int
	personaIdx     map[string]int
	defaultModel   string
	defaultPersona string
	customPersona  string
}

type file struct {
	DefaultModel   string           `yaml:"default_model"`
	DefaultPersona string           `yaml:"default_persona"`
	Models         []domain.Model   `yaml:"models"`
	Personas       []domain.Persona `yaml:"personas"`
}

// Default returns the built-in catalog: the Groq models and the stock personas.
func Default() *Catalog {
	c, err := Load(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Load parses and validates a YAML catalog.
func Load(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	c := &Catalog{
		models:         f.Models,
		personas:       f.Personas,
		modelIdx:       make(map[string]int, len(f.Models)),
		personaIdx:     make(map[string]int, len(f.Personas)),
		defaultModel:   f.DefaultModel,
		defaultPersona: f.DefaultPersona,
	}

	if len(c.models) == 0 {
		return nil, errors.New("catalog has no models")
	}
	for i, m := range c.models {
		if m.Key == "" {
			return nil, fmt.Errorf("model #%d has no key", i)
		}
		if _, dup := c.modelIdx[m.Key]; dup {
			return nil, fmt.Errorf("duplicate model %q", m.Key)
		}
		if m.MaxContext <= 0 {
			return nil, fmt.Errorf("model %q: max_context must be positive", m.Key)
		}
		c.modelIdx[m.Key] = i
	}

	for i, p := range c.personas {
		if p.Key == "" {
			return nil, fmt.Errorf("persona #%d has no key", i)
		}
		if _, dup := c.personaIdx[p.Key]; dup {
			return nil, fmt.Errorf("duplicate persona %q", p.Key)
		}
		if p.Custom {
			if c.customPersona != "" {
				return nil, fmt.Errorf("personas %q and %q are both custom", c.customPersona, p.Key)
			}
			c.customPersona = p.Key
		}
		c.personaIdx[p.Key] = i
	}
	if c.customPersona == "" {
		return nil, errors.New("catalog has no custom persona")
	}

	if _, ok := c.modelIdx[c.defaultModel]; !ok {
		return nil, fmt.Errorf("default model: %w: %q", domain.ErrUnknownModel, c.defaultModel)
	}
	if _, ok := c.personaIdx[c.defaultPersona]; !ok {
		return nil, fmt.Errorf("default persona: %w: %q", domain.ErrUnknownPersona, c.defaultPersona)
	}

	return c, nil
}

// Model looks a model up by key.
func (c *Catalog) Model(key string) (domain.Model, error) {
	i, ok := c.modelIdx[key]
	if !ok {
		return domain.Model{}, fmt.Errorf("%w: %q", domain.ErrUnknownModel, key)
	}
	return c.models[i], nil
}

// Persona looks a persona up by key.
func (c *Catalog) Persona(key string) (domain.Persona, error) {
	i, ok := c.personaIdx[key]
	if !ok {
		return domain.Persona{}, fmt.Errorf("%w: %q", domain.ErrUnknownPersona, key)
	}
	return c.personas[i], nil
}

// Models lists models in declaration order.
func (c *Catalog) Models() []domain.Model {
	return append([]domain.Model(nil), c.models...)
}

// Personas lists personas in declaration order.
func (c *Catalog) Personas() []domain.Persona {
	return append([]domain.Persona(nil), c.personas...)
}

func (c *Catalog) DefaultModel() string   { return c.defaultModel }
func (c *Catalog) DefaultPersona() string { return c.defaultPersona }
func (c *Catalog) CustomPersona() string  { return c.customPersona }
