package schema

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/talks/pkg/tree"
	"gopkg.in/yaml.v3"
)

// Validator checks a document for conformance.
// A nil error means the document is valid.
type Validator interface {
	Validate(doc *tree.Document) error
}

// ValidatorFunc adapts a function to a Validator.
type ValidatorFunc func(doc *tree.Document) error

func (f ValidatorFunc) Validate(doc *tree.Document) error { return f(doc) }

// Attribute describes one allowed attribute.
type Attribute struct {
	Type     Type
	Required bool
}

// Occurs bounds how many times a child may appear. Max 0 means unbounded.
type Occurs struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Element lists what an element may carry.
// A nil Text type means the element may hold only whitespace.
type Element struct {
	Attributes map[string]Attribute
	Children   map[string]Occurs
	Text       Type
}

// Schema is a closed description of a document: the root tag plus the
// rules of every element that may appear, keyed by tag.
type Schema struct {
	Root     string
	Elements map[string]Element
}

var _ Validator = (*Schema)(nil)

type rawSchema struct {
	Root     string                `yaml:"root"`
	Elements map[string]rawElement `yaml:"elements"`
}

type rawElement struct {
	Attributes map[string]rawAttribute `yaml:"attributes"`
	Children   map[string]Occurs       `yaml:"children"`
	Text       string                  `yaml:"text"`
}

type rawAttribute struct {
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

// Parse reads a YAML schema definition.
func Parse(data []byte) (*Schema, error) {
	var raw rawSchema
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	s := &Schema{Root: raw.Root, Elements: make(map[string]Element, len(raw.Elements))}
	for tag, re := range raw.Elements {
		el := Element{
			Attributes: make(map[string]Attribute, len(re.Attributes)),
			Children:   re.Children,
		}
		for name, ra := range re.Attributes {
			t, err := ParseType(ra.Type)
			if err != nil {
				return nil, fmt.Errorf("element %s, attribute %s: %w", tag, name, err)
			}
			el.Attributes[name] = Attribute{Type: t, Required: ra.Required}
		}
		if re.Text != "" {
			t, err := ParseType(re.Text)
			if err != nil {
				return nil, fmt.Errorf("element %s, text: %w", tag, err)
			}
			el.Text = t
		}
		s.Elements[tag] = el
	}

	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustParse is like Parse but panics on error.
func MustParse(data []byte) *Schema {
	s, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return s
}

// check verifies the schema is self-consistent.
func (s *Schema) check() error {
	if s.Root == "" {
		return fmt.Errorf("schema: root is required")
	}
	if _, ok := s.Elements[s.Root]; !ok {
		return fmt.Errorf("schema: root element %q is not defined", s.Root)
	}
	for _, tag := range slices.Sorted(maps.Keys(s.Elements)) {
		for child, occ := range s.Elements[tag].Children {
			if _, ok := s.Elements[child]; !ok {
				return fmt.Errorf("schema: element %s references undefined child %q", tag, child)
			}
			if occ.Min < 0 || occ.Max < 0 || (occ.Max > 0 && occ.Min > occ.Max) {
				return fmt.Errorf("schema: element %s, child %s: invalid occurrence %d..%d", tag, child, occ.Min, occ.Max)
			}
		}
	}
	return nil
}
