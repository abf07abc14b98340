package vault

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/netpulse/devicemngr/internal/envsource"
)

// RefPrefix marks an environment value as a Vault reference of the form
// "vault:<mount>/<path>#<key>".
const RefPrefix = "vault:"

// ParseRef splits a reference into secret path and key.  The prefix is
// optional.
func ParseRef(ref string) (secretPath, key string, err error) {
	body := strings.TrimPrefix(ref, RefPrefix)
	secretPath, key, ok := strings.Cut(body, "#")
	if !ok || key == "" || !strings.Contains(secretPath, "/") {
		return "", "", fmt.Errorf("malformed vault reference %q, want vault:<mount>/<path>#<key>", ref)
	}
	return secretPath, key, nil
}

// Expand returns a copy of env with every vault: value replaced by its
// secret.  Variables are visited in name order and every failure is
// reported, each naming the variable and reference only.  env is not
// modified.
func Expand(ctx context.Context, g Getter, env envsource.Map, ttl time.Duration) (envsource.Map, error) {
	out := make(envsource.Map, len(env))
	var errs *multierror.Error

	for _, name := range env.Names() {
		val := env[name]
		if !strings.HasPrefix(val, RefPrefix) {
			out[name] = val
			continue
		}

		path, key, err := ParseRef(val)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		secret, err := g.GetKV(ctx, path, key, ttl)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		out[name] = secret
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}
