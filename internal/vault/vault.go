// internal/vault/vault.go
//
// Vault client wrapper for NetPulse.
//
// Context
// -------
//   - Provides a concurrency-safe client around the HashiCorp Vault Go SDK.
//   - Adds background token renewal, a KV-v2 helper, and per-key caching.
//   - Concurrent misses on the same key share one round trip through
//     singleflight.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx, log.Infof)          // during boot.
//  2. pw,  err := cli.GetKV(ctx, path, key, ttl)     // from Expand.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"golang.org/x/sync/singleflight"

	"github.com/netpulse/devicemngr/internal/metrics"
)

// Getter fetches one key of a KV-v2 secret.  *Client implements it; tests
// supply their own.
type Getter interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api   *vault.Client
	logFn func(string, ...any)

	// fetch reads a whole secret.  Set by New; replaced in tests.
	fetch func(ctx context.Context, mount, rel string) (map[string]any, error)
	group singleflight.Group

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client and starts a background token-renewal loop
// that stops with ctx.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token.
func New(ctx context.Context, logFn func(string, ...any)) (*Client, error) {
	if logFn == nil {
		logFn = func(string, ...any) {}
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		apiCli.SetToken(tok)
	}

	c := &Client{
		api:   apiCli,
		logFn: logFn,
		cache: make(map[string]cached),
	}
	c.fetch = func(ctx context.Context, mount, rel string) (map[string]any, error) {
		sec, err := apiCli.KVv2(mount).Get(ctx, rel)
		if err != nil {
			return nil, err
		}
		return sec.Data, nil
	}

	go c.renewLoop(ctx)

	return c, nil
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result is
// cached for that duration.  Error messages name the path and key, never
// the value.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			metrics.VaultFetchTotal.WithLabelValues(metrics.VaultHit).Inc()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	v, err, _ := c.group.Do(canonical, func() (any, error) {
		mount, rel := splitMount(secretPath)
		data, err := c.fetch(ctx, mount, rel)
		if err != nil {
			return "", fmt.Errorf("vault get %s: %w", secretPath, err)
		}

		raw, ok := data[key]
		if !ok {
			return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
		}

		sval, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
		}

		if ttl > 0 {
			c.cacheMu.Lock()
			c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
			c.cacheMu.Unlock()
		}
		return sval, nil
	})
	if err != nil {
		metrics.VaultFetchTotal.WithLabelValues(metrics.VaultError).Inc()
		return "", err
	}
	metrics.VaultFetchTotal.WithLabelValues(metrics.VaultMiss).Inc()
	return v.(string), nil
}

//
// SECTION 2.  Background token renewal
//

func (c *Client) renewLoop(ctx context.Context) {
	for ctx.Err() == nil {
		sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
		if err != nil {
			c.logFn("vault: token renew self failed: %v", err)
			backoff(ctx, 30*time.Second)
			continue
		}

		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			c.logFn("vault: token is not renewable, sleeping 1h")
			backoff(ctx, time.Hour)
			continue
		}

		watcher, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
			Secret: sec,
		})
		if err != nil {
			c.logFn("vault: watcher init error: %v", err)
			backoff(ctx, 30*time.Second)
			continue
		}

		go watcher.Start()
		c.watch(ctx, watcher)
		backoff(ctx, 15*time.Second)
	}
}

// watch blocks until the watcher finishes or ctx ends.
func (c *Client) watch(ctx context.Context, w *vault.LifetimeWatcher) {
	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.DoneCh():
			if err != nil {
				c.logFn("vault: token renewal stopped: %v", err)
			}
			return
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.logFn("vault: token renewed, ttl=%ds", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

//
// SECTION 3.  Helpers
//

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(p, "/")
	return
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
