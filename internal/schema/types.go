// internal/schema/types.go
//
// Field model for the configuration schema.
//
// Context
// -------
// A FieldSpec declares one configuration value: where it lives (section
// and name), which environment variable feeds it, its type, and either a
// typed default or nothing (required).  Specs are compiled into the binary
// and registered once at startup; see registry.go.
//
// Go representations per type:
//
//	String      string
//	Int         int
//	Bool        bool
//	Float       float64
//	Duration    time.Duration (environment values are whole seconds)
//	StringList  []string      (environment values are whitespace separated)
//	Secret      string        (always redacted)
package schema

import (
	"fmt"
	"strings"
	"time"
)

// FieldType enumerates the coercion targets.
type FieldType int

const (
	String FieldType = iota + 1
	Int
	Bool
	Float
	Duration
	StringList
	Secret
)

var typeNames = map[FieldType]string{
	String:     "string",
	Int:        "int",
	Bool:       "bool",
	Float:      "float",
	Duration:   "duration",
	StringList: "string list",
	Secret:     "secret",
}

func (t FieldType) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// Valid reports whether t is a known type.
func (t FieldType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// Accepts reports whether v has the Go type that backs t.
func (t FieldType) Accepts(v any) bool {
	switch t {
	case String, Secret:
		_, ok := v.(string)
		return ok
	case Int:
		_, ok := v.(int)
		return ok
	case Bool:
		_, ok := v.(bool)
		return ok
	case Float:
		_, ok := v.(float64)
		return ok
	case Duration:
		d, ok := v.(time.Duration)
		return ok && d >= 0
	case StringList:
		_, ok := v.([]string)
		return ok
	}
	return false
}

// zero returns the zero value backing t.  Used for rule dry runs.
func (t FieldType) zero() any {
	switch t {
	case Int:
		return 0
	case Bool:
		return false
	case Float:
		return 0.0
	case Duration:
		return time.Duration(0)
	case StringList:
		return []string{}
	default:
		return ""
	}
}

// Ref addresses one field.  Names repeat across sections, so the pair is
// the identity.
type Ref struct {
	Section string
	Name    string
}

func (r Ref) String() string { return r.Section + "." + r.Name }

// FieldSpec describes one configuration field.
type FieldSpec struct {
	Section string // filled in by Register
	Name    string // logical key inside the section, e.g. "PORT"
	Env     string // environment variable; derived from Section and Name when empty
	Type    FieldType

	// Default is the typed fallback.  nil means the field is required.
	Default any

	// Rule is a go-playground/validator tag applied to the coerced value,
	// e.g. "min=1,max=65535" or "oneof=debug info warn error".
	Rule string

	// Check is an optional predicate.  A non-nil error becomes a
	// ValidationFailed detail.
	Check func(v any) error

	Sensitive bool
	Help      string
}

// Ref returns the field's address.
func (f FieldSpec) Ref() Ref { return Ref{Section: f.Section, Name: f.Name} }

// Required reports whether the field has no default.
func (f FieldSpec) Required() bool { return f.Default == nil }

// Redacted reports whether the value must never be shown.
func (f FieldSpec) Redacted() bool { return f.Sensitive || f.Type == Secret }

// EnvName converts a section and name to an environment variable name:
// upper case, with dots turned into underscores.
// e.g. ("cache.tasks", "host") → "CACHE_TASKS_HOST".
func EnvName(section, name string) string {
	s := strings.Trim(section+"_"+name, "_")
	return strings.ToUpper(strings.ReplaceAll(s, ".", "_"))
}
