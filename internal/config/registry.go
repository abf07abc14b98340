// internal/config/registry.go
//
// The NetPulse device-manager configuration surface.
//
// Context
// -------
// Every variable the platform reads is declared here, once, with its type,
// default, and rule.  Section names follow the framework's settings
// layout (`database.default`, `cache.tasks`, `cache.caching`, `email`, ...)
// so the typed views in views.go map one-to-one onto what the bootstrap
// collaborators need.
//
// Required variables: SECRET_KEY only.  Everything else has the fallback
// the deployment image has always shipped with.
//
// Notes
// -----
//   - Redis tasks and caching share every variable except the database
//     number, exactly like the compose file.  Names repeat across sections;
//     environment variables may repeat too.
//   - Oxford commas, two spaces after periods.
package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/netpulse/devicemngr/internal/schema"
)

// Section names.
const (
	SecGeneral     = "general"
	SecDatabase    = "database.default"
	SecTasks       = "cache.tasks"
	SecCaching     = "cache.caching"
	SecEmail       = "email"
	SecLogin       = "login"
	SecSession     = "session"
	SecCORS        = "cors"
	SecRemoteAuth  = "remote_auth"
	SecPlugins     = "plugins"
	SecLogging     = "logging"
	SecDiagnostics = "diagnostics"
)

// NewRegistry builds the full schema.  It panics on authoring errors, which
// the registry tests catch before anything ships.
func NewRegistry() *schema.Registry {
	r := schema.New()

	registerGeneral(r)
	registerDatabase(r)
	registerRedis(r, SecTasks, "REDIS_DATABASE", 0)
	registerRedis(r, SecCaching, "REDIS_CACHE_DATABASE", 1)
	registerEmail(r)
	registerLogin(r)
	registerCORS(r)
	registerRemoteAuth(r)
	registerOperational(r)

	registerRules(r)
	return r
}

func registerGeneral(r *schema.Registry) {
	r.MustRegister(SecGeneral,
		schema.FieldSpec{
			Name: "ALLOWED_HOSTS", Env: "ALLOWED_HOSTS", Type: schema.StringList,
			Default: []string{"*"},
			Help:    "Host names the web server answers for; the first is preferred",
		},
		schema.FieldSpec{
			Name: "SECRET_KEY", Env: "SECRET_KEY", Type: schema.Secret,
			Rule: "min=50",
			Help: "Signing key; at least 50 characters",
		},
		schema.FieldSpec{Name: "BASE_PATH", Env: "BASE_PATH", Type: schema.String, Default: ""},
		schema.FieldSpec{Name: "DEBUG", Env: "DEBUG", Type: schema.Bool, Default: false},
		schema.FieldSpec{Name: "METRICS_ENABLED", Env: "METRICS_ENABLED", Type: schema.Bool, Default: false},
		schema.FieldSpec{
			Name: "TIME_ZONE", Env: "TIME_ZONE", Type: schema.String,
			Default: "UTC", Rule: "timezone",
		},
		schema.FieldSpec{Name: "ALLOW_TOKEN_RETRIEVAL", Env: "ALLOW_TOKEN_RETRIEVAL", Type: schema.Bool, Default: false},
		schema.FieldSpec{
			Name: "INTERNAL_IPS", Env: "INTERNAL_IPS", Type: schema.StringList,
			Default: []string{"127.0.0.1", "::1"}, Rule: "dive,ip",
		},
		schema.FieldSpec{Name: "MEDIA_ROOT", Env: "MEDIA_ROOT", Type: schema.String, Default: "/opt/netbox/netbox/media"},
		schema.FieldSpec{Name: "REPORTS_ROOT", Env: "REPORTS_ROOT", Type: schema.String, Default: "/opt/netbox/netbox/reports"},
		schema.FieldSpec{Name: "SCRIPTS_ROOT", Env: "SCRIPTS_ROOT", Type: schema.String, Default: "/opt/netbox/netbox/scripts"},
		schema.FieldSpec{
			Name: "RQ_DEFAULT_TIMEOUT", Env: "RQ_DEFAULT_TIMEOUT", Type: schema.Duration,
			Default: 300 * time.Second,
			Help:    "Maximum run time of background tasks, in seconds",
		},
		schema.FieldSpec{
			Name: "RELEASE_CHECK_URL", Env: "RELEASE_CHECK_URL", Type: schema.String,
			Default: "", Rule: "omitempty,url",
		},
	)
}

func registerDatabase(r *schema.Registry) {
	r.MustRegister(SecDatabase,
		schema.FieldSpec{
			Name: "ENGINE", Env: "DB_ENGINE", Type: schema.String,
			Default: EnginePostgres, Rule: "oneof=postgresql mysql",
		},
		schema.FieldSpec{Name: "NAME", Env: "DB_NAME", Type: schema.String, Default: "netbox", Rule: "required"},
		schema.FieldSpec{Name: "USER", Env: "DB_USER", Type: schema.String, Default: "netbox"},
		schema.FieldSpec{Name: "PASSWORD", Env: "DB_PASSWORD", Type: schema.Secret, Default: "netbox"},
		schema.FieldSpec{Name: "HOST", Env: "DB_HOST", Type: schema.String, Default: "localhost", Rule: "required"},
		schema.FieldSpec{
			Name: "PORT", Env: "DB_PORT", Type: schema.Int,
			Default: 5432, Rule: "min=1,max=65535",
		},
		schema.FieldSpec{
			Name: "CONN_MAX_AGE", Env: "DB_CONN_MAX_AGE", Type: schema.Duration,
			Default: 300 * time.Second,
			Help:    "Lifetime of pooled connections, in seconds",
		},
		schema.FieldSpec{
			Name: "SSL_MODE", Env: "DB_SSLMODE", Type: schema.String,
			Default: "prefer", Rule: "oneof=disable allow prefer require verify-ca verify-full",
		},
	)
}

// registerRedis declares one Redis client block.  Both blocks read the same
// host and credentials; only the database number differs.
func registerRedis(r *schema.Registry, section, dbEnv string, db int) {
	r.MustRegister(section,
		schema.FieldSpec{Name: "HOST", Env: "REDIS_HOST", Type: schema.String, Default: "localhost", Rule: "required"},
		schema.FieldSpec{Name: "PORT", Env: "REDIS_PORT", Type: schema.Int, Default: 6379, Rule: "min=1,max=65535"},
		schema.FieldSpec{Name: "USERNAME", Env: "REDIS_USERNAME", Type: schema.String, Default: ""},
		schema.FieldSpec{Name: "PASSWORD", Env: "REDIS_PASSWORD", Type: schema.Secret, Default: ""},
		schema.FieldSpec{Name: "DATABASE", Env: dbEnv, Type: schema.Int, Default: db, Rule: "min=0,max=15"},
		schema.FieldSpec{Name: "SSL", Env: "REDIS_SSL", Type: schema.Bool, Default: false},
	)
}

func registerEmail(r *schema.Registry) {
	r.MustRegister(SecEmail,
		schema.FieldSpec{Name: "SERVER", Env: "EMAIL_SERVER", Type: schema.String, Default: "localhost"},
		schema.FieldSpec{Name: "PORT", Env: "EMAIL_PORT", Type: schema.Int, Default: 25, Rule: "min=1,max=65535"},
		schema.FieldSpec{Name: "USERNAME", Env: "EMAIL_USERNAME", Type: schema.String, Default: ""},
		schema.FieldSpec{Name: "PASSWORD", Env: "EMAIL_PASSWORD", Type: schema.Secret, Default: ""},
		schema.FieldSpec{Name: "USE_SSL", Env: "EMAIL_USE_SSL", Type: schema.Bool, Default: false},
		schema.FieldSpec{Name: "USE_TLS", Env: "EMAIL_USE_TLS", Type: schema.Bool, Default: false},
		schema.FieldSpec{Name: "TIMEOUT", Env: "EMAIL_TIMEOUT", Type: schema.Duration, Default: 10 * time.Second},
		schema.FieldSpec{Name: "FROM_EMAIL", Env: "EMAIL_FROM", Type: schema.String, Default: "", Rule: "omitempty,email"},
	)
}

func registerLogin(r *schema.Registry) {
	r.MustRegister(SecLogin,
		schema.FieldSpec{Name: "PERSISTENCE", Env: "LOGIN_PERSISTENCE", Type: schema.Bool, Default: false},
		schema.FieldSpec{Name: "REQUIRED", Env: "LOGIN_REQUIRED", Type: schema.Bool, Default: true},
		schema.FieldSpec{
			Name: "TIMEOUT", Env: "LOGIN_TIMEOUT", Type: schema.Duration,
			Default: time.Duration(0),
			Help:    "Session lifetime in seconds; 0 keeps the framework default",
		},
	)
	r.MustRegister(SecSession,
		schema.FieldSpec{Name: "COOKIE_NAME", Env: "SESSION_COOKIE_NAME", Type: schema.String, Default: "sessionid"},
		schema.FieldSpec{Name: "FILE_PATH", Env: "SESSION_FILE_PATH", Type: schema.String, Default: ""},
	)
}

func registerCORS(r *schema.Registry) {
	r.MustRegister(SecCORS,
		schema.FieldSpec{Name: "ORIGIN_ALLOW_ALL", Env: "CORS_ORIGIN_ALLOW_ALL", Type: schema.Bool, Default: false},
		schema.FieldSpec{
			Name: "ORIGIN_WHITELIST", Env: "CORS_ORIGIN_WHITELIST", Type: schema.StringList,
			Default: []string{}, Rule: "dive,url",
		},
		schema.FieldSpec{
			Name: "ORIGIN_REGEX_WHITELIST", Env: "CORS_ORIGIN_REGEX_WHITELIST", Type: schema.StringList,
			Default: []string{}, Check: compilePatterns,
		},
	)
}

// compilePatterns rejects the first origin pattern that is not a valid
// regular expression.
func compilePatterns(v any) error {
	for i, p := range v.([]string) {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("pattern %d: %w", i, err)
		}
	}
	return nil
}

func registerRemoteAuth(r *schema.Registry) {
	r.MustRegister(SecRemoteAuth,
		schema.FieldSpec{Name: "ENABLED", Env: "REMOTE_AUTH_ENABLED", Type: schema.Bool, Default: false},
		schema.FieldSpec{
			Name: "BACKEND", Env: "REMOTE_AUTH_BACKEND", Type: schema.String,
			Default: "netbox.authentication.RemoteUserBackend",
		},
		schema.FieldSpec{Name: "HEADER", Env: "REMOTE_AUTH_HEADER", Type: schema.String, Default: "HTTP_REMOTE_USER"},
		schema.FieldSpec{Name: "AUTO_CREATE_USER", Env: "REMOTE_AUTH_AUTO_CREATE_USER", Type: schema.Bool, Default: true},
		schema.FieldSpec{Name: "DEFAULT_GROUPS", Env: "REMOTE_AUTH_DEFAULT_GROUPS", Type: schema.StringList, Default: []string{}},
	)
}

// registerOperational covers what this binary itself needs: plugin names
// for the framework, log sink, and the diagnostics listener.
func registerOperational(r *schema.Registry) {
	r.MustRegister(SecPlugins,
		schema.FieldSpec{Name: "PLUGINS", Env: "PLUGINS", Type: schema.StringList, Default: []string{}},
	)
	r.MustRegister(SecLogging,
		schema.FieldSpec{
			Name: "LEVEL", Env: "LOG_LEVEL", Type: schema.String,
			Default: "info", Rule: "oneof=debug info warn error",
		},
		schema.FieldSpec{Name: "DIR", Env: "LOG_DIR", Type: schema.String, Default: "logs", Rule: "required"},
		schema.FieldSpec{Name: "CONSOLE", Env: "LOG_CONSOLE", Type: schema.Bool, Default: true},
	)
	r.MustRegister(SecDiagnostics,
		schema.FieldSpec{
			Name: "LISTEN_ADDR", Env: "DIAG_LISTEN_ADDR", Type: schema.String,
			Default: "127.0.0.1:9102", Rule: "hostname_port",
		},
		schema.FieldSpec{Name: "READ_TIMEOUT", Env: "DIAG_READ_TIMEOUT", Type: schema.Duration, Default: 10 * time.Second},
		schema.FieldSpec{Name: "WRITE_TIMEOUT", Env: "DIAG_WRITE_TIMEOUT", Type: schema.Duration, Default: 15 * time.Second},
		schema.FieldSpec{Name: "IDLE_TIMEOUT", Env: "DIAG_IDLE_TIMEOUT", Type: schema.Duration, Default: 60 * time.Second},
		schema.FieldSpec{
			Name: "ADMIN_ROLES", Env: "DIAG_ADMIN_ROLES", Type: schema.StringList,
			Default: []string{"admin", "nms-admin"}, Rule: "min=1",
		},
	)
}
