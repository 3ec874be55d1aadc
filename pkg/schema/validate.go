package schema

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/talks/pkg/tree"
	"github.com/beevik/etree"
)

// Validate checks doc against the schema.
// Returns an *AggregateError with every violation found.
func (s *Schema) Validate(doc *tree.Document) error {
	var errs []error

	root := doc.Root()
	switch {
	case root == nil:
		errs = append(errs, &ValidationError{Path: "/", Reason: "document has no root element"})
	case root.FullTag() != s.Root:
		errs = append(errs, &ValidationError{
			Path:   "/" + root.FullTag(),
			Reason: fmt.Sprintf("root element must be %q", s.Root),
		})
	default:
		s.element(root, "/"+root.FullTag(), &errs)
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func (s *Schema) element(el *etree.Element, path string, errs *[]error) {
	rule := s.Elements[el.FullTag()]

	seen := make(map[string]bool, len(el.Attr))
	for _, a := range el.Attr {
		key := a.FullKey()
		def, ok := rule.Attributes[key]
		if !ok {
			*errs = append(*errs, &ValidationError{Path: path + "/@" + key, Reason: "attribute not allowed"})
			continue
		}
		seen[key] = true
		if err := def.Type.Validate(a.Value); err != nil {
			*errs = append(*errs, &ValidationError{Path: path + "/@" + key, Reason: err.Error()})
		}
	}
	for _, name := range slices.Sorted(maps.Keys(rule.Attributes)) {
		if rule.Attributes[name].Required && !seen[name] {
			*errs = append(*errs, &ValidationError{Path: path + "/@" + name, Reason: "required"})
		}
	}

	counts := make(map[string]int)
	var text strings.Builder
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			tag := t.FullTag()
			childPath := path + "/" + tag
			if _, ok := rule.Children[tag]; !ok {
				*errs = append(*errs, &ValidationError{Path: childPath, Reason: "element not allowed here"})
				continue
			}
			counts[tag]++
			s.element(t, childPath, errs)
		case *etree.CharData:
			text.WriteString(t.Data)
		}
	}

	for _, tag := range slices.Sorted(maps.Keys(rule.Children)) {
		occ, n := rule.Children[tag], counts[tag]
		if n < occ.Min {
			*errs = append(*errs, &ValidationError{
				Path:   path + "/" + tag,
				Reason: fmt.Sprintf("expected at least %d, found %d", occ.Min, n),
			})
		}
		if occ.Max > 0 && n > occ.Max {
			*errs = append(*errs, &ValidationError{
				Path:   path + "/" + tag,
				Reason: fmt.Sprintf("expected at most %d, found %d", occ.Max, n),
			})
		}
	}

	content := strings.TrimSpace(text.String())
	if rule.Text == nil {
		if content != "" {
			*errs = append(*errs, &ValidationError{Path: path, Reason: "text not allowed"})
		}
		return
	}
	if err := rule.Text.Validate(content); err != nil {
		*errs = append(*errs, &ValidationError{Path: path, Reason: err.Error()})
	}
}
