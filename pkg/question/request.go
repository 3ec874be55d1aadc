package question

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/talks/pkg/directive"
	"github.com/mitchellh/mapstructure"
)

// Kind tells the three outcomes of a recognition apart.
type Kind int

const (
	// KindAbsent means no command was recognized.
	KindAbsent Kind = iota
	// KindDeferred means a command was recognized but cannot be acted on yet.
	KindDeferred
	// KindResolved means a command was recognized with its type and arguments.
	KindResolved
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindDeferred:
		return "deferred"
	case KindResolved:
		return "resolved"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Arg is one named argument of a request.
type Arg struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Args is an ordered list of arguments. Names may repeat.
type Args []Arg

// Get returns the value of the first argument called name.
func (a Args) Get(name string) (string, bool) {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return "", false
}

// Map returns the arguments keyed by name, first occurrence winning.
func (a Args) Map() map[string]string {
	m := make(map[string]string, len(a))
	for _, arg := range a {
		if _, ok := m[arg.Name]; !ok {
			m[arg.Name] = arg.Value
		}
	}
	return m
}

// Decode fills the struct pointed to by out. Fields are matched by their
// `arg` tag or, failing that, by name; values are converted weakly, so
// "42" fills an int and "true" a bool.
func (a Args) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "arg",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create args decoder: %w", err)
	}
	if err := decoder.Decode(a.Map()); err != nil {
		return fmt.Errorf("failed to decode args: %w", err)
	}
	return nil
}

// Request is the outcome of a recognition. It is immutable; the zero value is Absent.
type Request struct {
	kind Kind
	typ  string
	args Args
}

var (
	// Absent is the request of text that holds no command.
	Absent = Request{kind: KindAbsent}
	// Later is the request of a command that must be retried later.
	Later = Request{kind: KindDeferred}
)

// Resolved returns a recognized command of type typ.
func Resolved(typ string, args ...Arg) Request {
	return Request{kind: KindResolved, typ: typ, args: slices.Clone(args)}
}

// Kind returns the outcome.
func (r Request) Kind() Kind { return r.kind }

// Type returns the command type. It is empty unless the request is resolved.
func (r Request) Type() string { return r.typ }

// Args returns a copy of the arguments.
func (r Request) Args() Args { return slices.Clone(r.args) }

// With returns a copy of a resolved request with args appended.
// Absent and deferred requests are returned unchanged.
func (r Request) With(args ...Arg) Request {
	if r.kind != KindResolved || len(args) == 0 {
		return r
	}
	return Request{kind: r.kind, typ: r.typ, args: append(slices.Clone(r.args), args...)}
}

// Dirs returns the directives that record the request under the current
// node, usually a <request> element:
//
//	<type>deploy</type>
//	<args><arg name="tag">1.9</arg></args>
//
// Absent and deferred requests yield an empty sequence.
func (r Request) Dirs() directive.Directives {
	if r.kind != KindResolved {
		return directive.New()
	}
	dirs := directive.New().Add("type").Set(r.typ).Up().Add("args")
	for _, arg := range r.args {
		dirs = dirs.Add("arg").Attr("name", arg.Name).Set(arg.Value).Up()
	}
	return dirs.Up()
}

func (r Request) String() string {
	if r.kind != KindResolved {
		return r.kind.String()
	}
	var b strings.Builder
	b.WriteString(r.typ)
	for _, arg := range r.args {
		fmt.Fprintf(&b, " %s=%q", arg.Name, arg.Value)
	}
	return b.String()
}
