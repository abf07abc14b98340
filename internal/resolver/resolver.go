// internal/resolver/resolver.go
//
// Environment → typed values → validated snapshot.
//
/*
Context
--------
Three entry points, all pure and deterministic:

  • Resolve   – lookup, default, and coercion for every registered field.
                Returns the complete value map or the aggregate of
                MissingRequired and TypeMismatch errors.  A partial map is
                never returned.
  • Validate  – rule tags, Check predicates, and cross-field rules over a
                resolved map.  Returns the immutable snapshot or the
                aggregate of ValidationFailed errors.
  • Load      – both passes in one go.  Validation still runs over the
                fields that did resolve, so a single call reports missing
                variables and broken invariants together.

Notes
-----
  • Defaults are already typed and are never coerced.
  • A sensitive value that the redaction placeholder would reveal (a short
    run of "*") fails validation.
  • Single-field checks skip fields that failed to resolve, and a
    cross-field rule is skipped when any of its inputs failed.  One root
    cause produces one error.
  • Oxford commas, two spaces after periods.
*/
package resolver

import (
	"slices"

	"github.com/netpulse/devicemngr/internal/envsource"
	"github.com/netpulse/devicemngr/internal/schema"
	"github.com/netpulse/devicemngr/internal/snapshot"
)

/*──────────────────────────── public API ─────────────────────────────────*/

// Resolve looks up and coerces every field of reg from env.
func Resolve(reg *schema.Registry, env envsource.Source) (schema.Values, error) {
	vals, errs := resolve(reg, env)
	if err := errs.err(); err != nil {
		return nil, err
	}
	return vals, nil
}

// Validate runs every single-field and cross-field check over vals and, on
// success, freezes them into a Snapshot.  A registered field absent from
// vals is reported as MissingRequired, one of the wrong Go type as
// TypeMismatch.
func Validate(vals schema.Values, reg *schema.Registry) (*snapshot.Snapshot, error) {
	var errs collector
	own := make(schema.Values, reg.Len())
	for f := range reg.All() {
		v, ok := vals[f.Ref()]
		switch {
		case !ok:
			errs.add(&ResolutionError{
				Kind:    MissingRequired,
				Section: f.Section,
				Key:     f.Name,
				Env:     f.Env,
				Detail:  "no resolved value",
			})
		case !f.Type.Accepts(v):
			errs.add(&ResolutionError{
				Kind:    TypeMismatch,
				Section: f.Section,
				Key:     f.Name,
				Env:     f.Env,
				Detail:  "resolved value is not a " + f.Type.String(),
			})
		default:
			own[f.Ref()] = v
		}
	}
	validate(reg, own, &errs)
	if err := errs.err(); err != nil {
		return nil, err
	}
	return snapshot.New(reg, own), nil
}

// Load resolves and validates in one pass and reports every error found by
// either stage, resolution errors first.
func Load(reg *schema.Registry, env envsource.Source) (*snapshot.Snapshot, error) {
	vals, errs := resolve(reg, env)
	validate(reg, vals, errs)
	if err := errs.err(); err != nil {
		return nil, err
	}
	return snapshot.New(reg, vals), nil
}

/*──────────────────────────── passes ─────────────────────────────────────*/

func resolve(reg *schema.Registry, env envsource.Source) (schema.Values, *collector) {
	vals := make(schema.Values, reg.Len())
	errs := &collector{}

	for f := range reg.All() {
		raw, present := env.Lookup(f.Env)
		if !present {
			if f.Required() {
				errs.add(&ResolutionError{
					Kind:    MissingRequired,
					Section: f.Section,
					Key:     f.Name,
					Env:     f.Env,
					Detail:  "environment variable " + f.Env + " is not set",
				})
				continue
			}
			vals[f.Ref()] = cloneValue(f.Default)
			continue
		}

		v, err := coerce(f, raw)
		if err != nil {
			errs.add(&ResolutionError{
				Kind:    TypeMismatch,
				Section: f.Section,
				Key:     f.Name,
				Env:     f.Env,
				Detail:  err.Error(),
			})
			continue
		}
		vals[f.Ref()] = v
	}
	return vals, errs
}

func validate(reg *schema.Registry, vals schema.Values, errs *collector) {
	for f := range reg.All() {
		v, ok := vals[f.Ref()]
		if !ok {
			continue
		}
		if f.Redacted() {
			if err := snapshot.Redactable(v); err != nil {
				errs.add(failed(f, "", err.Error()))
			}
		}
		if err := schema.CheckRule(v, f.Rule); err != nil {
			errs.add(failed(f, "", err.Error()))
		}
		if f.Check != nil {
			if err := f.Check(v); err != nil {
				errs.add(failed(f, "", err.Error()))
			}
		}
	}

	for rule := range reg.Rules() {
		if !vals.HasAll(rule.Fields) || rule.Check(vals) {
			continue
		}
		first, _ := reg.Lookup(rule.Fields[0].Section, rule.Fields[0].Name)
		errs.add(failed(first, rule.Name, rule.Detail))
	}
}

func failed(f schema.FieldSpec, rule, detail string) *ResolutionError {
	return &ResolutionError{
		Kind:    ValidationFailed,
		Section: f.Section,
		Key:     f.Name,
		Env:     f.Env,
		Rule:    rule,
		Detail:  detail,
	}
}

func cloneValue(v any) any {
	if l, ok := v.([]string); ok {
		return slices.Clone(l)
	}
	return v
}
