package schema

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_DuplicateKey(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("database", FieldSpec{Name: "PORT", Type: Int, Default: 5432}))

	err := r.Register("database", FieldSpec{Name: "PORT", Env: "OTHER_PORT", Type: Int, Default: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "database", dup.Section)
	assert.Equal(t, "PORT", dup.Name)
	assert.Equal(t, 1, r.Len(), "failed registration must not add a field")
}

func TestRegister_SameNameDifferentSections(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("cache.tasks", FieldSpec{Name: "DATABASE", Env: "REDIS_DATABASE", Type: Int, Default: 0}))
	require.NoError(t, r.Register("cache.caching", FieldSpec{Name: "DATABASE", Env: "REDIS_CACHE_DATABASE", Type: Int, Default: 1}))

	tasks, ok := r.Lookup("cache.tasks", "DATABASE")
	require.True(t, ok)
	caching, ok := r.Lookup("cache.caching", "DATABASE")
	require.True(t, ok)
	assert.Equal(t, 0, tasks.Default)
	assert.Equal(t, 1, caching.Default)
}

func TestRegister_AuthoringErrors(t *testing.T) {
	cases := []struct {
		name string
		spec FieldSpec
		want error
	}{
		{"bad default", FieldSpec{Name: "PORT", Type: Int, Default: "5432"}, ErrBadDefault},
		{"negative duration", FieldSpec{Name: "T", Type: Duration, Default: -time.Second}, ErrBadDefault},
		{"secret needs string", FieldSpec{Name: "K", Type: Secret, Default: 1}, ErrBadDefault},
		{"unknown type", FieldSpec{Name: "X", Type: FieldType(99)}, ErrUnknownType},
		{"bad rule", FieldSpec{Name: "X", Type: String, Default: "", Rule: "no_such_tag"}, ErrBadRule},
		{"empty name", FieldSpec{Type: String}, ErrInvalidSpec},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := New().Register("s", tc.spec)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRegister_DerivesEnv(t *testing.T) {
	r := New()
	r.MustRegister("cache.tasks", FieldSpec{Name: "HOST", Type: String, Default: "localhost"})
	r.MustRegister("email", FieldSpec{Name: "PORT", Env: "SMTP_PORT", Type: Int, Default: 25})

	f, _ := r.Lookup("cache.tasks", "HOST")
	assert.Equal(t, "CACHE_TASKS_HOST", f.Env)
	assert.Equal(t, "cache.tasks", f.Section)

	f, _ = r.Lookup("email", "PORT")
	assert.Equal(t, "SMTP_PORT", f.Env, "explicit env names are kept")
}

func TestRegister_DefaultIsCopied(t *testing.T) {
	hosts := []string{"a", "b"}
	r := New()
	r.MustRegister("general", FieldSpec{Name: "ALLOWED_HOSTS", Type: StringList, Default: hosts})
	hosts[0] = "mutated"

	f, _ := r.Lookup("general", "ALLOWED_HOSTS")
	assert.Equal(t, []string{"a", "b"}, f.Default)
}

func TestMustRegister_Panics(t *testing.T) {
	r := New()
	r.MustRegister("a", FieldSpec{Name: "X", Type: Bool, Default: false})
	assert.Panics(t, func() {
		r.MustRegister("a", FieldSpec{Name: "X", Type: Bool, Default: true})
	})
}

func TestSections_OrderAndRestartable(t *testing.T) {
	r := New()
	r.MustRegister("database", FieldSpec{Name: "HOST", Type: String, Default: "localhost"})
	r.MustRegister("email", FieldSpec{Name: "PORT", Type: Int, Default: 25})
	r.MustRegister("database", FieldSpec{Name: "PORT", Type: Int, Default: 5432})
	r.MustRegister("cache.tasks", FieldSpec{Name: "SSL", Type: Bool, Default: false})

	want := []string{"database", "email", "cache.tasks"}
	assert.Equal(t, want, slices.Collect(r.Sections()))
	assert.Equal(t, want, slices.Collect(r.Sections()), "second pass yields the same order")

	var refs []string
	for f := range r.All() {
		refs = append(refs, f.Ref().String())
	}
	assert.Equal(t, []string{"database.HOST", "database.PORT", "email.PORT", "cache.tasks.SSL"}, refs)

	for s := range r.Sections() {
		if s == "database" {
			break
		}
	}
}

func TestAddRule(t *testing.T) {
	r := New()
	ssl := Ref{"email", "USE_SSL"}
	tls := Ref{"email", "USE_TLS"}
	r.MustRegister("email",
		FieldSpec{Name: "USE_SSL", Type: Bool, Default: false},
		FieldSpec{Name: "USE_TLS", Type: Bool, Default: false},
	)

	require.NoError(t, r.AddRule(Exclusive("ssl-tls", ssl, tls)))
	err := r.AddRule(Exclusive("bad", ssl, Ref{"email", "MISSING"}))
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.ErrorIs(t, r.AddRule(Rule{Name: "no-check", Fields: []Ref{ssl}}), ErrInvalidSpec)

	rules := slices.Collect(r.Rules())
	require.Len(t, rules, 1)
	assert.True(t, rules[0].Check(Values{ssl: true, tls: false}))
	assert.False(t, rules[0].Check(Values{ssl: true, tls: true}))
}

func TestRequiredWhen(t *testing.T) {
	cookie := Ref{"session", "COOKIE_NAME"}
	persist := Ref{"login", "PERSISTENCE"}
	rule := RequiredWhen("cookie", cookie, persist)

	assert.True(t, rule.Check(Values{cookie: "", persist: false}))
	assert.True(t, rule.Check(Values{cookie: "sessionid", persist: true}))
	assert.False(t, rule.Check(Values{cookie: "  ", persist: true}))
}

func TestCheckRule(t *testing.T) {
	assert.NoError(t, CheckRule(5432, "min=1,max=65535"))
	assert.NoError(t, CheckRule("anything", ""))

	err := CheckRule(70000, "min=1,max=65535")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max=65535")
	assert.NotContains(t, err.Error(), "70000")

	err = CheckRule([]string{"127.0.0.1", "nope"}, "dive,ip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ip")
	assert.NotContains(t, err.Error(), "nope")
}

func TestEnvName_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("no dots and no lower-case letters", prop.ForAll(
		func(section, name string) bool {
			got := EnvName(section, name)
			if strings.Contains(got, ".") {
				return false
			}
			for _, r := range got {
				if unicode.IsLetter(r) && !unicode.IsUpper(r) {
					return false
				}
			}
			return true
		},
		gen.AlphaString().Map(func(s string) string {
			if len(s) > 2 {
				return s[:len(s)/2] + "." + s[len(s)/2:]
			}
			return s
		}),
		gen.AlphaString(),
	))

	properties.Property("deterministic", prop.ForAll(
		func(section, name string) bool {
			return EnvName(section, name) == EnvName(section, name)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
