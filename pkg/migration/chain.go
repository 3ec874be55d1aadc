/*
Package migration brings persisted documents to the current shape.

A Chain is an ordered list of transforms applied left to right on every
read. Transforms must be no-ops on documents that already went through
them; Versioned gives that for free by gating on the root "schema"
attribute.
*/
package migration

import (
	"strconv"

	"github.com/aretw0/talks/pkg/tree"
)

// VersionAttr is the root attribute holding the schema version marker.
// A document without it is at version 0.
const VersionAttr = "schema"

// Transform edits a document in place. The chain hands every transform
// a private copy, so transforms never observe the caller's document.
type Transform interface {
	Name() string
	Apply(doc *tree.Document)
}

// Func adapts a plain function to a Transform.
type Func struct {
	Label string
	Fn    func(doc *tree.Document)
}

func (f Func) Name() string { return f.Label }

func (f Func) Apply(doc *tree.Document) { f.Fn(doc) }

// Chain is an ordered list of transforms.
type Chain []Transform

// Upgrade returns a copy of doc with every transform applied in order.
// It never fails and never touches doc.
func (c Chain) Upgrade(doc *tree.Document) *tree.Document {
	out := doc.Copy()
	for _, t := range c {
		t.Apply(out)
	}
	return out
}

// Version returns the highest version stamped by a Versioned transform.
func (c Chain) Version() int {
	v := 0
	for _, t := range c {
		if vt, ok := t.(versioned); ok && vt.version > v {
			v = vt.version
		}
	}
	return v
}

type versioned struct {
	version int
	name    string
	fn      func(doc *tree.Document)
}

// Versioned wraps fn so it runs only on documents below version and
// then stamps version on the root element.
func Versioned(version int, name string, fn func(doc *tree.Document)) Transform {
	return versioned{version: version, name: name, fn: fn}
}

func (v versioned) Name() string { return v.name }

func (v versioned) Apply(doc *tree.Document) {
	root := doc.Root()
	if root == nil || VersionOf(doc) >= v.version {
		return
	}
	v.fn(doc)
	root.CreateAttr(VersionAttr, strconv.Itoa(v.version))
}

// VersionOf reads the version marker. Missing or unparsable markers
// count as version 0.
func VersionOf(doc *tree.Document) int {
	root := doc.Root()
	if root == nil {
		return 0
	}
	a := root.SelectAttr(VersionAttr)
	if a == nil {
		return 0
	}
	v, err := strconv.Atoi(a.Value)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
