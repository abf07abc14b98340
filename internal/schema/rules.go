// internal/schema/rules.go
//
// Single-field rule tags and cross-field rules.
//
// Context
// -------
// Single-field rules are go-playground/validator tags evaluated with
// `Var` against the coerced value, so the full built-in vocabulary is
// available: `min`, `max`, `oneof`, `hostname_port`, `email`, `url`,
// `timezone`, `dive,ip`, and so on.  Tags are dry-run at registration so
// a typo fails at startup, not on the first operator mistake.
//
// Cross-field rules are plain predicates over the resolved Values.  They
// only run when every field they reference resolved cleanly, so the type
// assertions in the accessors below cannot fail.
//
// Notes
// -----
//   - Rule detail messages never include the value under test.  Secrets
//     flow through the same code path as ports.

package schema

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

// CheckRule applies a validator tag to value.  The returned error carries a
// redaction-safe description of the failed constraint.
func CheckRule(value any, tag string) error {
	if tag == "" {
		return nil
	}
	err := v.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		c := fe.Tag()
		if p := fe.Param(); p != "" {
			c += "=" + p
		}
		if f := fe.Field(); f != "" {
			parts = append(parts, fmt.Sprintf("element %s must satisfy %q", f, c))
			continue
		}
		parts = append(parts, fmt.Sprintf("must satisfy %q", c))
	}
	return errors.New(strings.Join(parts, "; "))
}

// dryRunRule reports an unusable tag.  validator panics on unknown tags, so
// the panic is turned into ErrBadRule.
func dryRunRule(t FieldType, tag string) (err error) {
	if tag == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w %q: %v", ErrBadRule, tag, r)
		}
	}()
	_ = v.Var(t.zero(), tag)
	return nil
}

//
// cross-field rules
//

// Rule is an invariant over two or more fields.
type Rule struct {
	Name   string
	Fields []Ref
	Detail string // operator-facing message when Check returns false
	Check  func(Values) bool
}

// Values holds coerced values keyed by Ref.
type Values map[Ref]any

// Has reports whether ref resolved.
func (vs Values) Has(ref Ref) bool {
	_, ok := vs[ref]
	return ok
}

// HasAll reports whether every ref resolved.
func (vs Values) HasAll(refs []Ref) bool {
	for _, r := range refs {
		if !vs.Has(r) {
			return false
		}
	}
	return true
}

func (vs Values) String(r Ref) string          { s, _ := vs[r].(string); return s }
func (vs Values) Int(r Ref) int                { i, _ := vs[r].(int); return i }
func (vs Values) Bool(r Ref) bool              { b, _ := vs[r].(bool); return b }
func (vs Values) Float(r Ref) float64          { f, _ := vs[r].(float64); return f }
func (vs Values) Duration(r Ref) time.Duration { d, _ := vs[r].(time.Duration); return d }
func (vs Values) Strings(r Ref) []string       { l, _ := vs[r].([]string); return l }

// Exclusive returns a rule forbidding a and b from both being true.
func Exclusive(name string, a, b Ref) Rule {
	return Rule{
		Name:   name,
		Fields: []Ref{a, b},
		Detail: fmt.Sprintf("%s and %s are mutually exclusive", a, b),
		Check:  func(vs Values) bool { return !(vs.Bool(a) && vs.Bool(b)) },
	}
}

// RequiredWhen returns a rule requiring the string field target to be
// non-empty whenever the Bool field flag is true.
func RequiredWhen(name string, target, flag Ref) Rule {
	return Rule{
		Name:   name,
		Fields: []Ref{target, flag},
		Detail: fmt.Sprintf("%s must be non-empty when %s is true", target, flag),
		Check: func(vs Values) bool {
			return !vs.Bool(flag) || strings.TrimSpace(vs.String(target)) != ""
		},
	}
}
