package directive

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/aretw0/talks/pkg/tree"
	"github.com/beevik/etree"
)

var (
	errNoElement   = errors.New("cursor is not on an element")
	errAboveRoot   = errors.New("cannot move above the root element")
	errRemoveRoot  = errors.New("cannot remove the root element")
	errSecondRoot  = errors.New("document already has a root element")
	errInvalidName = errors.New("invalid XML name")
	errInvalidChar = errors.New("value holds a character XML cannot carry")
)

var xmlName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)

// checkValue rejects text that would not survive serialization.
func checkValue(v string) error {
	if !utf8.ValidString(v) {
		return fmt.Errorf("%w: invalid UTF-8 in %q", errInvalidChar, v)
	}
	for i, r := range v {
		if !isXMLChar(r) {
			return fmt.Errorf("%w: %U at byte %d", errInvalidChar, r, i)
		}
	}
	return nil
}

// isXMLChar matches the Char production of XML 1.0.
func isXMLChar(r rune) bool {
	switch {
	case r == 0x09 || r == 0x0A || r == 0x0D:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	default:
		return r >= 0x10000 && r <= 0x10FFFF
	}
}

// Directive is one atomic tree edit. The set of directives is closed:
// Add, AddIf, Attr, Set, Up, Remove and XPath.
type Directive interface {
	// String renders the directive in script syntax, e.g. ADD 'talk';
	String() string
	apply(c *cursor) error
}

// cursor tracks the element the next directive operates on.
type cursor struct {
	doc  *tree.Document
	node *etree.Element
}

func newCursor(doc *tree.Document) *cursor {
	if root := doc.Root(); root != nil {
		return &cursor{doc: doc, node: root}
	}
	return &cursor{doc: doc, node: doc.Node()}
}

func (c *cursor) atDocument() bool { return c.node == c.doc.Node() }

func (c *cursor) atRoot() bool { return c.node == c.doc.Root() }

type add struct{ tag string }

func (d add) String() string { return "ADD " + quote(d.tag) + ";" }

func (d add) apply(c *cursor) error {
	if !xmlName.MatchString(d.tag) {
		return fmt.Errorf("%w: %q", errInvalidName, d.tag)
	}
	if c.atDocument() && c.doc.Root() != nil {
		return errSecondRoot
	}
	c.node = c.node.CreateElement(d.tag)
	return nil
}

type addIf struct{ tag string }

func (d addIf) String() string { return "ADDIF " + quote(d.tag) + ";" }

func (d addIf) apply(c *cursor) error {
	if !xmlName.MatchString(d.tag) {
		return fmt.Errorf("%w: %q", errInvalidName, d.tag)
	}
	if c.atDocument() {
		root := c.doc.Root()
		if root == nil {
			c.node = c.node.CreateElement(d.tag)
			return nil
		}
		if root.Tag != d.tag {
			return errSecondRoot
		}
		c.node = root
		return nil
	}
	if child := c.node.SelectElement(d.tag); child != nil {
		c.node = child
		return nil
	}
	c.node = c.node.CreateElement(d.tag)
	return nil
}

type attr struct{ name, value string }

func (d attr) String() string { return "ATTR " + quote(d.name) + ", " + quote(d.value) + ";" }

func (d attr) apply(c *cursor) error {
	if c.atDocument() {
		return errNoElement
	}
	if !xmlName.MatchString(d.name) {
		return fmt.Errorf("%w: %q", errInvalidName, d.name)
	}
	if err := checkValue(d.value); err != nil {
		return err
	}
	c.node.CreateAttr(d.name, d.value)
	return nil
}

type set struct{ text string }

func (d set) String() string { return "SET " + quote(d.text) + ";" }

func (d set) apply(c *cursor) error {
	if c.atDocument() {
		return errNoElement
	}
	if err := checkValue(d.text); err != nil {
		return err
	}
	c.node.SetText(d.text)
	return nil
}

type up struct{}

func (up) String() string { return "UP;" }

func (up) apply(c *cursor) error {
	if c.atDocument() || c.atRoot() {
		return errAboveRoot
	}
	c.node = c.node.Parent()
	return nil
}

type remove struct{}

func (remove) String() string { return "REMOVE;" }

func (remove) apply(c *cursor) error {
	if c.atDocument() {
		return errNoElement
	}
	if c.atRoot() {
		return errRemoveRoot
	}
	parent := c.node.Parent()
	parent.RemoveChild(c.node)
	c.node = parent
	return nil
}

type xpath struct{ path string }

func (d xpath) String() string { return "XPATH " + quote(d.path) + ";" }

func (d xpath) apply(c *cursor) error {
	path, err := etree.CompilePath(d.path)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", d.path, err)
	}
	el := c.node.FindElementPath(path)
	if el == nil {
		return fmt.Errorf("path %q matches nothing", d.path)
	}
	c.node = el
	return nil
}
