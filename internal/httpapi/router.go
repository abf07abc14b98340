// internal/httpapi/router.go
//
// Operator diagnostics API.
//
// Context
// -------
// A small chi router served by `netpulse --serve` on DIAG_LISTEN_ADDR:
//
//	GET /health       – liveness, always {"status":"healthy"}.
//	GET /api/config   – redacted configuration, DIAG_ADMIN_ROLES only.
//	GET /metrics      – Prometheus, when METRICS_ENABLED is set.
//
// Role headers come from the gateway in front of the listener.  Nothing
// here ever sees a secret in clear: the config endpoint serialises the
// snapshot's redacted view.
//
// Notes
// -----
// • Middleware order: request id, recovery, access log, security headers,
//   host check, CORS.
// • Oxford commas, two spaces after periods.
package httpapi

import (
	"encoding/json"
	"net/http"
	"regexp"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/netpulse/devicemngr/internal/config"
	"github.com/netpulse/devicemngr/internal/middleware"
	"github.com/netpulse/devicemngr/internal/snapshot"
)

// Service is reported by every JSON envelope.
const Service = "netpulse"

// ConfigResponse is the body of GET /api/config.
type ConfigResponse struct {
	Service   string             `json:"service"`
	Timestamp string             `json:"timestamp"`
	User      string             `json:"user"`
	Roles     []string           `json:"roles"`
	Config    *snapshot.Snapshot `json:"config"`
}

// NewRouter wires the diagnostics API over snap.
func NewRouter(snap *snapshot.Snapshot, log *zap.SugaredLogger) http.Handler {
	diag := config.DiagnosticsFrom(snap)
	corsCfg := config.CORSFrom(snap)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.Security)
	r.Use(middleware.AllowedHosts(snap.MustStrings(config.SecGeneral, "ALLOWED_HOSTS")))
	if corsCfg.AllowAll || len(corsCfg.Origins) > 0 || len(corsCfg.OriginPatterns) > 0 {
		r.Use(cors.Handler(corsOptions(corsCfg)))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "healthy"})
	})

	if snap.MustBool(config.SecGeneral, "METRICS_ENABLED") {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.With(middleware.RequireRole(diag.AdminRoles...)).
		Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, ConfigResponse{
				Service:   Service,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				User:      user(r),
				Roles:     middleware.Roles(r),
				Config:    snap,
			})
		})

	return r
}

func corsOptions(c config.CORS) cors.Options {
	opts := cors.Options{
		AllowedOrigins: c.Origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", middleware.HeaderUserRoles, middleware.HeaderRealmRoles},
		MaxAge:         300,
	}
	if c.AllowAll {
		opts.AllowedOrigins = []string{"*"}
		return opts
	}
	if len(c.OriginPatterns) > 0 {
		opts.AllowOriginFunc = originMatcher(c.Origins, c.OriginPatterns)
	}
	return opts
}

// originMatcher accepts an exact whitelist entry or any pattern match.
// AllowOriginFunc replaces AllowedOrigins, so both lists are checked here.
// Patterns were compiled once during validation.
func originMatcher(origins, patterns []string) func(*http.Request, string) bool {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		res = append(res, regexp.MustCompile(p))
	}
	return func(_ *http.Request, origin string) bool {
		if slices.Contains(origins, origin) {
			return true
		}
		for _, re := range res {
			if re.MatchString(origin) {
				return true
			}
		}
		return false
	}
}

// user returns the identity the gateway asserted, or "anonymous".
func user(r *http.Request) string {
	for _, h := range []string{"X-Userinfo", "X-Consumer-Username", "X-Authenticated-Userid"} {
		if v := r.Header.Get(h); v != "" {
			return v
		}
	}
	return "anonymous"
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Warnw("json encode failed", "err", err)
	}
}
