// internal/schema/registry.go
//
// Ordered registry of FieldSpecs and cross-field Rules.
//
/*
Context
--------
The registry is the single place where the whole configuration surface is
declared.  It is built once at startup, before any resolution, and treated
as read-only afterwards.  Nothing here locks: registration is
single-threaded by convention.  Tests build a fresh instance with New().

Order matters only for reporting.  Sections iterate in first-registration
order, fields in registration order within their section, so error lists
and redacted dumps are stable from run to run.
*/
package schema

import (
	"fmt"
	"iter"
	"slices"
)

// Registry holds the compiled-in schema.  The zero value is not usable;
// call New.
type Registry struct {
	sections []string
	fields   map[string][]FieldSpec
	index    map[Ref]struct{}
	rules    []Rule
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		fields: make(map[string][]FieldSpec),
		index:  make(map[Ref]struct{}),
	}
}

/*──────────────────────────── registration ───────────────────────────────*/

// Register appends f to section.  It fails with ErrDuplicateKey when
// (section, f.Name) already exists, and with ErrUnknownType, ErrBadDefault,
// or ErrBadRule for malformed specs.
func (r *Registry) Register(section string, f FieldSpec) error {
	if section == "" || f.Name == "" {
		return fmt.Errorf("%w: section and name must be non-empty", ErrInvalidSpec)
	}
	f.Section = section

	if _, dup := r.index[f.Ref()]; dup {
		return &DuplicateKeyError{Section: section, Name: f.Name}
	}
	if !f.Type.Valid() {
		return fmt.Errorf("%w %d for %s", ErrUnknownType, int(f.Type), f.Ref())
	}
	if f.Default != nil && !f.Type.Accepts(f.Default) {
		return fmt.Errorf("%w: %s is %s, default is %T", ErrBadDefault, f.Ref(), f.Type, f.Default)
	}
	if err := dryRunRule(f.Type, f.Rule); err != nil {
		return fmt.Errorf("%s: %w", f.Ref(), err)
	}

	if f.Env == "" {
		f.Env = EnvName(section, f.Name)
	}
	if l, ok := f.Default.([]string); ok {
		f.Default = slices.Clone(l)
	}

	if _, seen := r.fields[section]; !seen {
		r.sections = append(r.sections, section)
	}
	r.fields[section] = append(r.fields[section], f)
	r.index[f.Ref()] = struct{}{}
	return nil
}

// MustRegister registers every spec under section and panics on the first
// error.  Intended for compiled-in schemas.
func (r *Registry) MustRegister(section string, specs ...FieldSpec) {
	for _, f := range specs {
		if err := r.Register(section, f); err != nil {
			panic(err)
		}
	}
}

// AddRule appends a cross-field rule.  Every referenced field must already
// be registered.
func (r *Registry) AddRule(rule Rule) error {
	if rule.Name == "" || rule.Check == nil || len(rule.Fields) == 0 {
		return fmt.Errorf("%w: rule needs a name, fields, and a check", ErrInvalidSpec)
	}
	for _, ref := range rule.Fields {
		if _, ok := r.index[ref]; !ok {
			return fmt.Errorf("rule %s: %w %s", rule.Name, ErrUnknownField, ref)
		}
	}
	rule.Fields = slices.Clone(rule.Fields)
	r.rules = append(r.rules, rule)
	return nil
}

// MustAddRule is AddRule that panics.
func (r *Registry) MustAddRule(rules ...Rule) {
	for _, rule := range rules {
		if err := r.AddRule(rule); err != nil {
			panic(err)
		}
	}
}

/*──────────────────────────── read access ────────────────────────────────*/

// Sections yields section names in registration order.  The sequence can
// be ranged over any number of times.
func (r *Registry) Sections() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, s := range r.sections {
			if !yield(s) {
				return
			}
		}
	}
}

// Fields yields the specs of one section in registration order.
func (r *Registry) Fields(section string) iter.Seq[FieldSpec] {
	return func(yield func(FieldSpec) bool) {
		for _, f := range r.fields[section] {
			if !yield(f) {
				return
			}
		}
	}
}

// All yields every spec, section by section.
func (r *Registry) All() iter.Seq[FieldSpec] {
	return func(yield func(FieldSpec) bool) {
		for _, s := range r.sections {
			for _, f := range r.fields[s] {
				if !yield(f) {
					return
				}
			}
		}
	}
}

// Rules yields cross-field rules in registration order.
func (r *Registry) Rules() iter.Seq[Rule] {
	return func(yield func(Rule) bool) {
		for _, rule := range r.rules {
			if !yield(rule) {
				return
			}
		}
	}
}

// Lookup returns the spec registered under (section, name).
func (r *Registry) Lookup(section, name string) (FieldSpec, bool) {
	for _, f := range r.fields[section] {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Len reports the number of registered fields.
func (r *Registry) Len() int { return len(r.index) }
