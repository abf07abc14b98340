package snapshot

import (
	"fmt"
	"time"
)

// typed fetches (section, key) and asserts its type.  A type mismatch here
// means the caller asked for the wrong accessor, also a programming error.
func typed[T any](s *Snapshot, section, key string) (T, error) {
	var zero T
	v, err := s.Get(section, key)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("snapshot: %s.%s is %T, not %T", section, key, v, zero)
	}
	return t, nil
}

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}
	return t
}

func (s *Snapshot) String(section, key string) (string, error) {
	return typed[string](s, section, key)
}

func (s *Snapshot) Int(section, key string) (int, error) {
	return typed[int](s, section, key)
}

func (s *Snapshot) Bool(section, key string) (bool, error) {
	return typed[bool](s, section, key)
}

func (s *Snapshot) Float(section, key string) (float64, error) {
	return typed[float64](s, section, key)
}

func (s *Snapshot) Duration(section, key string) (time.Duration, error) {
	return typed[time.Duration](s, section, key)
}

func (s *Snapshot) Strings(section, key string) ([]string, error) {
	return typed[[]string](s, section, key)
}

// Must… variants panic on lookup errors.  Use them in typed views where the
// (section, key) pair is compiled in next to the schema.

func (s *Snapshot) MustString(section, key string) string { return must(s.String(section, key)) }
func (s *Snapshot) MustInt(section, key string) int       { return must(s.Int(section, key)) }
func (s *Snapshot) MustBool(section, key string) bool     { return must(s.Bool(section, key)) }
func (s *Snapshot) MustFloat(section, key string) float64 { return must(s.Float(section, key)) }
func (s *Snapshot) MustDuration(section, key string) time.Duration {
	return must(s.Duration(section, key))
}
func (s *Snapshot) MustStrings(section, key string) []string { return must(s.Strings(section, key)) }
