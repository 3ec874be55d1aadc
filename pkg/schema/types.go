package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Type defines the contract for attribute and text validation.
// XML values are always strings; a Type decides which strings it accepts.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value string) error
}

// --- Built-in Type Implementations ---

// StringType accepts any value.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value string) error { return nil }

// IntType accepts base-10 64-bit integers.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value string) error {
	if _, err := strconv.ParseInt(value, 10, 64); err != nil {
		return fmt.Errorf("expected int, got %q", value)
	}
	return nil
}

// BoolType accepts "true" and "false".
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value string) error {
	if value != "true" && value != "false" {
		return fmt.Errorf("expected bool, got %q", value)
	}
	return nil
}

// EnumType accepts one of a fixed set of values.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string {
	return "enum(" + strings.Join(t.values, "|") + ")"
}

func (t *EnumType) Validate(value string) error {
	for _, v := range t.values {
		if v == value {
			return nil
		}
	}
	return fmt.Errorf("expected one of %s, got %q", strings.Join(t.values, ", "), value)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(string) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value string) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Enum creates a validator accepting only the given values.
func Enum(values ...string) Type { return &EnumType{values: values} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(string) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a type name to a Type.
// Supports "string", "int", "bool" and "enum(a|b|c)".
func ParseType(typeStr string) (Type, error) {
	if strings.HasPrefix(typeStr, "enum(") && strings.HasSuffix(typeStr, ")") {
		body := typeStr[len("enum(") : len(typeStr)-1]
		if body == "" {
			return nil, fmt.Errorf("enum needs at least one value")
		}
		return Enum(strings.Split(body, "|")...), nil
	}

	switch typeStr {
	case "string", "":
		return String(), nil
	case "int":
		return Int(), nil
	case "bool":
		return Bool(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}
