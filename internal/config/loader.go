// internal/config/loader.go
//
// Configuration loader and process-wide handle.
//
/*
Context
--------
`Load()` builds one immutable Snapshot from up to three environment layers
(highest precedence last):

  1. Optional flat YAML values file (`--values-file`).
  2. Optional `.env` file (`--env-file`, or the jail-wide file picked by
     cmd/netpulse).
  3. The process environment, or `Options.Environ` when a caller supplies
     one (tests, embedding).

Values of the form `vault:<mount>/<path>#<key>` held by a variable the
registry reads are then replaced with the secret from Vault.  Other
variables are left alone.  The merged environment goes through
`resolver.Load` against `NewRegistry()`, and the outcome is counted in
Prometheus and logged.

`Publish()` installs the result in an `atomic.Pointer` exactly once.  There
is no Reload: the environment is read once per process, and a changed
deployment needs a restart.

Instrumentation
---------------
  • DEBUG spans – layer sizes, vault expansion, and one per configuration
    error with field, env, and kind.  The caller reports the aggregate.
  • INFO  span  – final "config resolved" with field and section counts.
  • Every span carries a `load_id` (uuid) so one pass can be traced.
  • Logs use the global sugared logger (`zap.S()`) so early boot issues
    surface through the bootstrap console logger.
*/
package config

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netpulse/devicemngr/internal/envsource"
	"github.com/netpulse/devicemngr/internal/metrics"
	"github.com/netpulse/devicemngr/internal/resolver"
	"github.com/netpulse/devicemngr/internal/schema"
	"github.com/netpulse/devicemngr/internal/snapshot"
	"github.com/netpulse/devicemngr/internal/vault"
)

// secretTTL bounds how long a Vault value is reused within one process.
const secretTTL = 5 * time.Minute

// ErrAlreadyPublished is returned by a second Publish.
var ErrAlreadyPublished = errors.New("config: snapshot already published")

var current atomic.Pointer[snapshot.Snapshot]

// Options selects the environment layers for Load.  The zero value reads
// the process environment only.
type Options struct {
	ValuesFile string
	EnvFile    string

	// Environ replaces the process environment when non-nil.
	Environ []string

	// Secrets resolves vault: references.  nil creates a Vault client on
	// demand from VAULT_ADDR and VAULT_TOKEN.
	Secrets vault.Getter

	// Registry overrides the compiled-in schema.  Tests only.
	Registry *schema.Registry
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load resolves and validates the configuration.  On failure the returned
// error aggregates every problem; see resolver.Errors.  Load logs failures
// at DEBUG only; reporting the returned error is the caller's job.
func Load(ctx context.Context, opts Options) (*snapshot.Snapshot, error) {
	log := zap.S().With("load_id", uuid.NewString())

	env, err := environment(opts)
	if err != nil {
		log.Debugw("config environment read failed", "err", err)
		metrics.ConfigLoadsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}
	log.Debugw("config environment read", "variables", len(env))

	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	if refs := env.Prefixed(vault.RefPrefix, envNames(reg)...); len(refs) > 0 {
		if env, err = expandSecrets(ctx, opts.Secrets, env, refs, log); err != nil {
			metrics.ConfigLoadsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, err
		}
		log.Debugw("vault references expanded", "count", len(refs))
	}

	snap, err := resolver.Load(reg, env)
	if err != nil {
		for _, e := range resolver.Errors(err) {
			metrics.ConfigErrorsTotal.WithLabelValues(kindLabel(e.Kind)).Inc()
			log.Debugw("config field invalid",
				"field", e.Section+"."+e.Key,
				"env", e.Env,
				"kind", e.Kind.String(),
				"rule", e.Rule,
				"detail", e.Detail,
			)
		}
		metrics.ConfigLoadsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	metrics.ConfigLoadsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.ConfigFields.Set(float64(snap.Len()))
	metrics.ConfigLoadedTimestamp.SetToCurrentTime()

	sections := 0
	for range snap.Sections() {
		sections++
	}
	log.Infow("config resolved", "fields", snap.Len(), "sections", sections)
	return snap, nil
}

// LogRedacted writes the redacted rendering, one DEBUG line per field.
func LogRedacted(log *zap.SugaredLogger, s *snapshot.Snapshot) {
	for e := range s.RenderRedacted() {
		log.Debugw("config value",
			"section", e.Section,
			"key", e.Key,
			"env", e.Env,
			"value", e.Display,
		)
	}
}

/*──────────────────────────── process handle ──────────────────────────────*/

// Publish installs s as the process-wide snapshot.  Only the first call
// succeeds.
func Publish(s *snapshot.Snapshot) error {
	if s == nil {
		return errors.New("config: cannot publish nil snapshot")
	}
	if !current.CompareAndSwap(nil, s) {
		return ErrAlreadyPublished
	}
	return nil
}

// Current returns the published snapshot, or nil before Publish.
func Current() *snapshot.Snapshot { return current.Load() }

/*──────────────────────────── helpers ─────────────────────────────────────*/

func environment(opts Options) (envsource.Map, error) {
	var layers []envsource.Map

	if opts.ValuesFile != "" {
		m, err := envsource.FromYAML(opts.ValuesFile)
		if err != nil {
			return nil, err
		}
		layers = append(layers, m)
	}
	if opts.EnvFile != "" {
		m, err := envsource.FromDotenv(opts.EnvFile)
		if err != nil {
			return nil, err
		}
		layers = append(layers, m)
	}

	if opts.Environ != nil {
		layers = append(layers, envsource.FromEnviron(opts.Environ))
	} else {
		m, err := envsource.FromProcess()
		if err != nil {
			return nil, err
		}
		layers = append(layers, m)
	}
	return envsource.Layer(layers...), nil
}

// newSecrets builds the Vault client used when Options.Secrets is nil.
var newSecrets = func(ctx context.Context, logFn func(string, ...any)) (vault.Getter, error) {
	return vault.New(ctx, logFn)
}

// expandSecrets replaces the refs subset of env.  A client created here
// lives only for the expansion: its token renewal stops before return.
func expandSecrets(ctx context.Context, g vault.Getter, env, refs envsource.Map, log *zap.SugaredLogger) (envsource.Map, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if g == nil {
		cli, err := newSecrets(ctx, log.Infof)
		if err != nil {
			log.Debugw("vault client init failed", "err", err)
			return nil, err
		}
		g = cli
	}
	expanded, err := vault.Expand(ctx, g, refs, secretTTL)
	if err != nil {
		log.Debugw("vault expansion failed", "err", err)
		return nil, err
	}
	return envsource.Layer(env, expanded), nil
}

// envNames lists the variable each field reads.
func envNames(reg *schema.Registry) []string {
	var names []string
	for f := range reg.All() {
		names = append(names, f.Env)
	}
	return names
}

func kindLabel(k resolver.Kind) string {
	switch k {
	case resolver.MissingRequired:
		return "missing_required"
	case resolver.TypeMismatch:
		return "type_mismatch"
	case resolver.ValidationFailed:
		return "validation_failed"
	}
	return "unknown"
}
