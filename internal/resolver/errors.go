// internal/resolver/errors.go
//
// Resolution error model.
//
// Context
// -------
// Every problem found while resolving or validating is recorded as one
// *ResolutionError and appended to a go-multierror aggregate.  Nothing
// short-circuits: an operator fixing a broken deployment sees the whole
// list at once.  The aggregate keeps insertion order, which follows
// registration order, so output is stable.
//
// Callers test kinds with errors.Is(err, ErrTypeMismatch) and recover the
// ordered list with Errors(err).
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Kind tags a ResolutionError.
type Kind int

const (
	MissingRequired Kind = iota + 1
	TypeMismatch
	ValidationFailed
)

func (k Kind) String() string {
	switch k {
	case MissingRequired:
		return "missing required"
	case TypeMismatch:
		return "type mismatch"
	case ValidationFailed:
		return "validation failed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels matched by ResolutionError.Is.
var (
	ErrMissingRequired  = errors.New("missing required")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrValidationFailed = errors.New("validation failed")
)

// ResolutionError describes one field-level or rule-level problem.  Detail
// never contains the raw value of a sensitive field.
type ResolutionError struct {
	Kind    Kind
	Section string
	Key     string
	Env     string
	Rule    string // cross-field rule name, empty for single-field errors
	Detail  string
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Section)
	b.WriteByte('.')
	b.WriteString(e.Key)
	if e.Env != "" {
		b.WriteString(" (")
		b.WriteString(e.Env)
		b.WriteByte(')')
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Rule != "" {
		b.WriteString(" [")
		b.WriteString(e.Rule)
		b.WriteByte(']')
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Is lets errors.Is match the kind sentinels.
func (e *ResolutionError) Is(target error) bool {
	switch target {
	case ErrMissingRequired:
		return e.Kind == MissingRequired
	case ErrTypeMismatch:
		return e.Kind == TypeMismatch
	case ErrValidationFailed:
		return e.Kind == ValidationFailed
	}
	return false
}

// Errors flattens an aggregate into its ordered ResolutionErrors.  Other
// error types are skipped.  nil yields nil.
func Errors(err error) []*ResolutionError {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		var re *ResolutionError
		if errors.As(err, &re) {
			return []*ResolutionError{re}
		}
		return nil
	}
	out := make([]*ResolutionError, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		var re *ResolutionError
		if errors.As(e, &re) {
			out = append(out, re)
		}
	}
	return out
}

// listFormat renders one error per line, prefixed by the count.
func listFormat(es []error) string {
	lines := make([]string, 0, len(es)+1)
	lines = append(lines, fmt.Sprintf("%d configuration error(s):", len(es)))
	for _, e := range es {
		lines = append(lines, "  * "+e.Error())
	}
	return strings.Join(lines, "\n")
}

// collector wraps the multierror aggregate.
type collector struct {
	merr *multierror.Error
}

func (c *collector) add(e *ResolutionError) {
	c.merr = multierror.Append(c.merr, e)
}

func (c *collector) err() error {
	if c.merr == nil {
		return nil
	}
	c.merr.ErrorFormat = listFormat
	return c.merr.ErrorOrNil()
}
