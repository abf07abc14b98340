package schema

import (
	"errors"
	"fmt"
)

// Schema-authoring errors.  All of them indicate a bug in compiled-in
// declarations, so callers usually fail fast via MustRegister.
var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrBadDefault   = errors.New("default does not match field type")
	ErrBadRule      = errors.New("invalid rule")
	ErrUnknownType  = errors.New("unknown field type")
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidSpec  = errors.New("invalid field spec")
)

// DuplicateKeyError names the (section, name) pair registered twice.
type DuplicateKeyError struct {
	Section string
	Name    string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("schema: %s.%s registered twice", e.Section, e.Name)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }
