package schema

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/talks/pkg/tree"
)

const testSchema = `
root: talk
elements:
  talk:
    attributes:
      name: {type: string, required: true}
      number: {type: int, required: true}
      later: {type: bool}
    children:
      request: {max: 1}
      archive: {}
  request:
    attributes:
      id: {type: string, required: true}
    children:
      type: {min: 1, max: 1}
  type:
    text: enum(deploy|merge|release)
  archive:
    children:
      log: {}
  log:
    attributes:
      id: {type: int, required: true}
`

func mustSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := Parse([]byte(testSchema))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return s
}

func TestValidate_Success(t *testing.T) {
	s := mustSchema(t)
	doc := tree.MustParse(`
<talk name="a" number="1" later="false">
  <request id="x"><type>deploy</type></request>
  <archive><log id="1"/><log id="2"/></archive>
</talk>`)

	if err := s.Validate(doc); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_UnknownAttribute(t *testing.T) {
	s := mustSchema(t)
	doc := tree.MustParse(`<talk name="a" number="1" foo="bar"/>`)

	err := s.Validate(doc)
	if err == nil {
		t.Fatal("Validate() should reject an undeclared attribute")
	}

	errs := ValidationErrors(err)
	if len(errs) != 1 {
		t.Fatalf("Validate() = %d errors, want 1: %v", len(errs), err)
	}
	verr, ok := errs[0].(*ValidationError)
	if !ok {
		t.Fatalf("error should be *ValidationError, got %T", errs[0])
	}
	if verr.Path != "/talk/@foo" {
		t.Errorf("error Path = %q, want /talk/@foo", verr.Path)
	}
	if verr.Reason != "attribute not allowed" {
		t.Errorf("error Reason = %q", verr.Reason)
	}
}

func TestValidate_Collects(t *testing.T) {
	s := mustSchema(t)
	doc := tree.MustParse(`
<talk number="x" later="maybe">
  <request id="1"><type>dance</type></request>
  <request id="2"/>
  <wire/>
  stray text
</talk>`)

	err := s.Validate(doc)
	if err == nil {
		t.Fatal("Validate() should fail")
	}

	msg := err.Error()
	for _, want := range []string{
		"/talk/@number: expected int",
		"/talk/@later: expected bool",
		"/talk/@name: required",
		"/talk/request/type: expected one of deploy, merge, release",
		"/talk/request/type: expected at least 1, found 0",
		"/talk/wire: element not allowed here",
		"/talk/request: expected at most 1, found 2",
		"/talk: text not allowed",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error should mention %q, got:\n%s", want, msg)
		}
	}
}

func TestValidate_WrongRoot(t *testing.T) {
	s := mustSchema(t)
	if err := s.Validate(tree.MustParse(`<chat/>`)); err == nil {
		t.Error("Validate() should reject a foreign root")
	}
	if err := s.Validate(tree.Empty()); err == nil {
		t.Error("Validate() should reject an empty document")
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"no root":         "elements: {a: {}}",
		"undefined root":  "root: a\nelements: {b: {}}",
		"undefined child": "root: a\nelements: {a: {children: {b: {}}}}",
		"bad type":        "root: a\nelements: {a: {attributes: {x: {type: float}}}}",
		"bad occurs":      "root: a\nelements: {a: {children: {a: {min: 3, max: 1}}}}",
		"bad yaml":        "root: [",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(input)); err == nil {
				t.Errorf("Parse(%q) should fail", input)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in    string
		value string
		ok    bool
	}{
		{"string", "anything", true},
		{"int", "42", true},
		{"int", "4.2", false},
		{"bool", "true", true},
		{"bool", "yes", false},
		{"enum(a|b)", "b", true},
		{"enum(a|b)", "c", false},
	}
	for _, tt := range tests {
		typ, err := ParseType(tt.in)
		if err != nil {
			t.Fatalf("ParseType(%q) error = %v", tt.in, err)
		}
		err = typ.Validate(tt.value)
		if (err == nil) != tt.ok {
			t.Errorf("%s.Validate(%q) error = %v, want ok=%v", typ.Name(), tt.value, err, tt.ok)
		}
	}
}

func TestCustom(t *testing.T) {
	semver := Custom("semver", func(v string) error {
		if strings.Count(v, ".") != 2 {
			return errNotSemver
		}
		return nil
	})
	if semver.Validate("1.9.0") != nil {
		t.Error("1.9.0 should pass")
	}
	if semver.Validate("1.9") == nil {
		t.Error("1.9 should fail")
	}
}

type semverError struct{}

func (semverError) Error() string { return "not semver" }

var errNotSemver = semverError{}

func TestAggregateError_ListsPaths(t *testing.T) {
	s := mustSchema(t)
	doc := tree.MustParse(`<talk name="a" number="1" foo="bar" baz="qux"/>`)

	err := s.Validate(doc)
	if err == nil {
		t.Fatal("Validate() should reject undeclared attributes")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "2 elements or attributes violate the schema:") {
		t.Errorf("unexpected summary line in %q", msg)
	}
	for _, path := range []string{"\n  /talk/@foo: ", "\n  /talk/@baz: "} {
		if !strings.Contains(msg, path) {
			t.Errorf("message %q should list %q", msg, path)
		}
	}

	wrapped := fmt.Errorf("talk %q: %w", "a", err)
	if got := len(ValidationErrors(wrapped)); got != 2 {
		t.Errorf("ValidationErrors(wrapped) = %d errors, want 2", got)
	}
}
