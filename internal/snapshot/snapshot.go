// internal/snapshot/snapshot.go
//
// Immutable, validated configuration state.
//
/*
Context
--------
A Snapshot is produced exactly once per successful resolution pass and is
then shared, read-only, by every collaborator: database and cache setup,
mail transport, the diagnostics endpoint.  It carries no locks because
nothing mutates it after New returns.  Slice values are copied on the way
in and on the way out.

Alongside the typed values, New precomputes the redacted rendering used for
startup logs and diagnostics.  Sensitive fields show a fixed placeholder.
Every non-empty sensitive value is also scrubbed from every other display
string, whatever its length, so a password pasted into a URL-valued field
or one that happens to equal a role name stays hidden too.  A value that
is itself part of the placeholder cannot be hidden that way; Redactable
reports it and the resolver rejects it before New runs.

Notes
-----
  • Get on an unregistered (section, name) is a programming error and
    returns ErrNotFound.  The Must… accessors panic instead.
  • Oxford commas, two spaces after periods.
*/
package snapshot

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/netpulse/devicemngr/internal/schema"
)

// Placeholder replaces sensitive values in every rendering.
const Placeholder = "********"

// ErrNotFound marks a lookup of a pair that was never registered.
var ErrNotFound = errors.New("config key not found")

// ErrUnredactable marks a sensitive value that the placeholder itself
// would reveal.
var ErrUnredactable = errors.New("value cannot be redacted: it is part of the placeholder")

// Redactable reports whether a sensitive value can be hidden by the
// rendering.  Empty values are fine; values contained in Placeholder are
// not.
func Redactable(v any) error {
	d := display(v)
	if d != "" && strings.Contains(Placeholder, d) {
		return ErrUnredactable
	}
	return nil
}

// NotFoundError names the missing pair.
type NotFoundError struct {
	Section string
	Key     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("snapshot: %s.%s is not registered", e.Section, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Entry is one line of the redacted rendering.
type Entry struct {
	Section   string
	Key       string
	Env       string
	Display   string
	Sensitive bool
}

type field struct {
	spec  schema.FieldSpec
	value any
}

// Snapshot is the resolved configuration.  Build it with New.
type Snapshot struct {
	sections []string
	order    []schema.Ref
	fields   map[schema.Ref]field
	redacted []Entry
}

// New freezes vals, which must hold a value of the right type for every
// field of reg.  It is called by the resolver after validation succeeds.
func New(reg *schema.Registry, vals schema.Values) *Snapshot {
	s := &Snapshot{
		sections: slices.Collect(reg.Sections()),
		fields:   make(map[schema.Ref]field, reg.Len()),
	}

	var secrets []string
	for f := range reg.All() {
		ref := f.Ref()
		v := clone(vals[ref])
		s.order = append(s.order, ref)
		s.fields[ref] = field{spec: f, value: v}
		if d := display(v); f.Redacted() && Redactable(v) == nil && d != "" {
			secrets = append(secrets, d)
		}
	}

	s.redacted = make([]Entry, 0, len(s.order))
	for _, ref := range s.order {
		fd := s.fields[ref]
		e := Entry{
			Section:   ref.Section,
			Key:       ref.Name,
			Env:       fd.spec.Env,
			Sensitive: fd.spec.Redacted(),
		}
		if e.Sensitive {
			e.Display = Placeholder
		} else {
			e.Display = scrub(display(fd.value), secrets)
		}
		s.redacted = append(s.redacted, e)
	}
	return s
}

/*──────────────────────────── accessors ──────────────────────────────────*/

// Get returns the typed value for (section, key).
func (s *Snapshot) Get(section, key string) (any, error) {
	fd, ok := s.fields[schema.Ref{Section: section, Name: key}]
	if !ok {
		return nil, &NotFoundError{Section: section, Key: key}
	}
	return clone(fd.value), nil
}

// Sections yields section names in registration order.
func (s *Snapshot) Sections() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, sec := range s.sections {
			if !yield(sec) {
				return
			}
		}
	}
}

// RenderRedacted yields every field with its display value.  Sensitive
// values never appear.  The sequence is finite and can be ranged over
// repeatedly.
func (s *Snapshot) RenderRedacted() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range s.redacted {
			if !yield(e) {
				return
			}
		}
	}
}

// Redacted returns the redacted rendering as section → key → display.
func (s *Snapshot) Redacted() map[string]map[string]string {
	out := make(map[string]map[string]string, len(s.sections))
	for _, e := range s.redacted {
		sec, ok := out[e.Section]
		if !ok {
			sec = make(map[string]string)
			out[e.Section] = sec
		}
		sec[e.Key] = e.Display
	}
	return out
}

// Len reports the number of fields.
func (s *Snapshot) Len() int { return len(s.order) }

// Equal reports field-for-field equality.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	if !slices.Equal(s.order, o.order) {
		return false
	}
	for _, ref := range s.order {
		if !reflect.DeepEqual(s.fields[ref].value, o.fields[ref].value) {
			return false
		}
	}
	return true
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// scrub replaces every occurrence of every secret with Placeholder.  One
// pass can splice a new occurrence together (placeholder stars followed by
// the rest of a secret), so it repeats until nothing matches.  Each pass
// that changes d removes non-star bytes or, for star-only secrets longer
// than the placeholder, shortens d, so the loop ends.
func scrub(d string, secrets []string) string {
	for {
		hit := false
		for _, sec := range secrets {
			if strings.Contains(d, sec) {
				d = strings.ReplaceAll(d, sec, Placeholder)
				hit = true
			}
		}
		if !hit {
			return d
		}
	}
}

func clone(v any) any {
	if l, ok := v.([]string); ok {
		return slices.Clone(l)
	}
	return v
}

func display(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case time.Duration:
		return t.String()
	case []string:
		return strings.Join(t, " ")
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
