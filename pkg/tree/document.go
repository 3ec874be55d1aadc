package tree

import (
	"bytes"
	"fmt"

	"github.com/beevik/etree"
)

// Document is an in-memory XML tree: elements with ordered attributes,
// ordered children and text.
// A Document is not safe for concurrent mutation; share copies instead.
type Document struct {
	doc *etree.Document
}

// Empty returns a document without a root element.
func Empty() *Document {
	return &Document{doc: etree.NewDocument()}
}

// New returns a document holding a single root element named root.
func New(root string) *Document {
	d := etree.NewDocument()
	d.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	d.CreateElement(root)
	return &Document{doc: d}
}

// Parse reads an XML document. It fails if the bytes are not well-formed
// or do not contain a root element.
func Parse(data []byte) (*Document, error) {
	d := etree.NewDocument()
	if err := d.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if d.Root() == nil {
		return nil, fmt.Errorf("failed to parse document: no root element")
	}
	return &Document{doc: d}, nil
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(xml string) *Document {
	d, err := Parse([]byte(xml))
	if err != nil {
		panic(err)
	}
	return d
}

// Root returns the root element, or nil for an empty document.
func (d *Document) Root() *etree.Element {
	return d.doc.Root()
}

// Node returns the document node itself, the parent of the root element.
func (d *Document) Node() *etree.Element {
	return &d.doc.Element
}

// Copy returns a deep copy that shares nothing with d.
func (d *Document) Copy() *Document {
	return &Document{doc: d.doc.Copy()}
}

// Bytes serializes the document as indented XML.
func (d *Document) Bytes() ([]byte, error) {
	c := d.doc.Copy()
	c.Indent(2)
	data, err := c.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return data, nil
}

// String is Bytes without the error, for logs and diagnostics.
func (d *Document) String() string {
	data, err := d.Bytes()
	if err != nil {
		return fmt.Sprintf("<!-- %v -->", err)
	}
	return string(data)
}

// Equal reports whether both documents serialize to the same XML.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	a, errA := d.Bytes()
	b, errB := other.Bytes()
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// Find returns the first element matching an etree path, or nil.
// An invalid path matches nothing.
func (d *Document) Find(path string) *etree.Element {
	p, err := etree.CompilePath(path)
	if err != nil {
		return nil
	}
	return d.doc.FindElementPath(p)
}

// FindAll returns every element matching an etree path.
func (d *Document) FindAll(path string) []*etree.Element {
	p, err := etree.CompilePath(path)
	if err != nil {
		return nil
	}
	return d.doc.FindElementsPath(p)
}

// Exists reports whether path matches at least one element.
func (d *Document) Exists(path string) bool {
	return d.Find(path) != nil
}

// Count returns the number of elements matching path.
func (d *Document) Count(path string) int {
	return len(d.FindAll(path))
}

// Text returns the text of the first element matching path.
func (d *Document) Text(path string) (string, bool) {
	el := d.Find(path)
	if el == nil {
		return "", false
	}
	return el.Text(), true
}

// Attr returns the value of attribute name on the first element matching path.
func (d *Document) Attr(path, name string) (string, bool) {
	el := d.Find(path)
	if el == nil {
		return "", false
	}
	a := el.SelectAttr(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}
