// internal/envsource/envsource.go
//
// Read-only environment snapshots.
//
/*
Context
--------
The resolver never touches os.Getenv.  It reads a `Source`, which is a
frozen copy of `name → value` pairs taken once at startup.  Four builders
exist, lowest precedence first when layered by `Layer`:

  1. `FromYAML`     – flat `KEY: value` file read through koanf.
  2. `FromDotenv`   – `.env` file parsed by godotenv.
  3. `FromProcess`  – the live process environment, via the koanf env
     provider.
  4. `FromEnviron`  – a `KEY=VALUE` slice, mostly for tests and for
     callers that already hold os.Environ().

Notes
-----
  • A `Map` is copied on construction.  Later changes to the process
    environment or to the caller's map have no effect.
  • File formats are handled entirely by the libraries.  This package only
    flattens whatever they return into strings.
  • Oxford commas, two spaces after periods.
*/
package envsource

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

// keyDelim keeps koanf from splitting variable names.  Environment names
// never contain the ASCII unit separator.
const keyDelim = "\x1f"

// Source is the only input the resolver sees.
type Source interface {
	Lookup(name string) (string, bool)
}

// Map is a frozen environment snapshot.  The zero value is an empty source.
type Map map[string]string

// Lookup implements Source.
func (m Map) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Names returns variable names in sorted order.
func (m Map) Names() []string {
	return slices.Sorted(maps.Keys(m))
}

// Prefixed returns the named variables whose value starts with prefix.
// Names that are unset or do not match are skipped.
func (m Map) Prefixed(prefix string, names ...string) Map {
	out := make(Map)
	for _, n := range names {
		if v, ok := m[n]; ok && strings.HasPrefix(v, prefix) {
			out[n] = v
		}
	}
	return out
}

/*──────────────────────────── builders ───────────────────────────────────*/

// FromEnviron parses a "KEY=VALUE" slice.  Values may contain "=", empty
// values are kept, and entries without "=" are skipped.
func FromEnviron(environ []string) Map {
	m := make(Map, len(environ))
	for _, entry := range environ {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			continue
		}
		m[name] = value
	}
	return m
}

// FromProcess snapshots the process environment.
func FromProcess() (Map, error) {
	k := koanf.New(keyDelim)
	if err := k.Load(env.Provider("", keyDelim, func(s string) string {
		return s
	}), nil); err != nil {
		return nil, fmt.Errorf("read process environment: %w", err)
	}
	return flatten(k), nil
}

// FromDotenv reads a dotenv file without touching the process environment.
func FromDotenv(path string) (Map, error) {
	vals, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return Map(vals), nil
}

// FromYAML reads a flat YAML mapping of variable names to scalar or list
// values.  Lists are joined with single spaces so StringList fields see
// the same shape they would get from a real environment variable.
func FromYAML(path string) (Map, error) {
	k := koanf.New(keyDelim)
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("read values file %s: %w", path, err)
	}
	return flatten(k), nil
}

// Layer merges maps left to right.  Later layers win.
func Layer(layers ...Map) Map {
	out := make(Map)
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func flatten(k *koanf.Koanf) Map {
	all := k.All()
	m := make(Map, len(all))
	for name, v := range all {
		m[name] = stringify(v)
	}
	return m
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, stringify(p))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(t)
	}
}
