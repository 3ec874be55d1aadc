package directive

import (
	"fmt"
	"strings"

	"github.com/aretw0/talks/pkg/tree"
)

// Directives is an ordered, immutable sequence of directives.
// Every builder method returns a new sequence and leaves the receiver
// untouched, so a value can be shared between goroutines.
//
//	dirs := directive.New().XPath("/talk").Add("wire").Add("href").Set(url).Up().Up()
type Directives struct {
	list []Directive
}

// New returns an empty sequence.
func New() Directives {
	return Directives{}
}

// Of builds a sequence from individual directives.
func Of(dirs ...Directive) Directives {
	return Directives{}.with(dirs...)
}

func (d Directives) with(more ...Directive) Directives {
	list := make([]Directive, 0, len(d.list)+len(more))
	list = append(list, d.list...)
	list = append(list, more...)
	return Directives{list: list}
}

// Add appends a new child element and moves the cursor into it.
func (d Directives) Add(tag string) Directives { return d.with(add{tag: tag}) }

// AddIf moves into the first child named tag, creating it when missing.
func (d Directives) AddIf(tag string) Directives { return d.with(addIf{tag: tag}) }

// Attr sets an attribute on the current element.
func (d Directives) Attr(name, value string) Directives {
	return d.with(attr{name: name, value: value})
}

// Set replaces the text of the current element.
func (d Directives) Set(text string) Directives { return d.with(set{text: text}) }

// Up moves the cursor to the parent element.
func (d Directives) Up() Directives { return d.with(up{}) }

// Remove deletes the current element and moves the cursor to its parent.
func (d Directives) Remove() Directives { return d.with(remove{}) }

// XPath moves the cursor to the first element matching an etree path.
// Absolute paths resolve from the document, relative ones from the cursor.
func (d Directives) XPath(path string) Directives { return d.with(xpath{path: path}) }

// Append returns d followed by other.
func (d Directives) Append(other Directives) Directives {
	return d.with(other.list...)
}

// Len returns the number of directives.
func (d Directives) Len() int { return len(d.list) }

// Empty reports whether the sequence has no directives.
func (d Directives) Empty() bool { return len(d.list) == 0 }

// All returns a copy of the directives in order.
func (d Directives) All() []Directive {
	out := make([]Directive, len(d.list))
	copy(out, d.list)
	return out
}

// String renders the sequence as a script accepted by Parse.
func (d Directives) String() string {
	parts := make([]string, len(d.list))
	for i, dir := range d.list {
		parts[i] = dir.String()
	}
	return strings.Join(parts, " ")
}

// MutationError reports the directive that could not be applied.
type MutationError struct {
	Index     int
	Directive string
	Err       error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("directive #%d %s failed: %v", e.Index, e.Directive, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Apply runs dirs against a working copy of doc and returns the copy.
// The cursor starts at the root element (or at the document node when doc
// has no root yet). If any directive is inapplicable, Apply returns the
// original doc, unmodified, together with a *MutationError.
// An empty sequence returns doc itself.
func Apply(doc *tree.Document, dirs Directives) (*tree.Document, error) {
	if dirs.Empty() {
		return doc, nil
	}
	work := doc.Copy()
	c := newCursor(work)
	for i, dir := range dirs.list {
		if err := dir.apply(c); err != nil {
			return doc, &MutationError{Index: i, Directive: dir.String(), Err: err}
		}
	}
	return work, nil
}
