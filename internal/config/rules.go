package config

import (
	"github.com/netpulse/devicemngr/internal/schema"
)

// Field references shared by rules and views.
var (
	refEmailSSL      = schema.Ref{Section: SecEmail, Name: "USE_SSL"}
	refEmailTLS      = schema.Ref{Section: SecEmail, Name: "USE_TLS"}
	refCookieName    = schema.Ref{Section: SecSession, Name: "COOKIE_NAME"}
	refPersistence   = schema.Ref{Section: SecLogin, Name: "PERSISTENCE"}
	refTasksHost     = schema.Ref{Section: SecTasks, Name: "HOST"}
	refTasksPort     = schema.Ref{Section: SecTasks, Name: "PORT"}
	refTasksDB       = schema.Ref{Section: SecTasks, Name: "DATABASE"}
	refCachingHost   = schema.Ref{Section: SecCaching, Name: "HOST"}
	refCachingPort   = schema.Ref{Section: SecCaching, Name: "PORT"}
	refCachingDB     = schema.Ref{Section: SecCaching, Name: "DATABASE"}
	refRemoteEnabled = schema.Ref{Section: SecRemoteAuth, Name: "ENABLED"}
	refRemoteHeader  = schema.Ref{Section: SecRemoteAuth, Name: "HEADER"}
	refCORSAllowAll  = schema.Ref{Section: SecCORS, Name: "ORIGIN_ALLOW_ALL"}
	refCORSWhitelist = schema.Ref{Section: SecCORS, Name: "ORIGIN_WHITELIST"}
	refCORSPatterns  = schema.Ref{Section: SecCORS, Name: "ORIGIN_REGEX_WHITELIST"}
)

func registerRules(r *schema.Registry) {
	r.MustAddRule(
		schema.Exclusive("email-ssl-tls-exclusive", refEmailSSL, refEmailTLS),
		schema.RequiredWhen("session-cookie-for-persistence", refCookieName, refPersistence),
		schema.RequiredWhen("remote-auth-header", refRemoteHeader, refRemoteEnabled),
		schema.Rule{
			Name:   "redis-databases-distinct",
			Fields: []schema.Ref{refTasksDB, refCachingDB, refTasksHost, refTasksPort, refCachingHost, refCachingPort},
			Detail: "tasks and caching must use different Redis databases on the same server",
			Check: func(vs schema.Values) bool {
				sameServer := vs.String(refTasksHost) == vs.String(refCachingHost) &&
					vs.Int(refTasksPort) == vs.Int(refCachingPort)
				return !sameServer || vs.Int(refTasksDB) != vs.Int(refCachingDB)
			},
		},
		schema.Rule{
			Name:   "cors-allow-all-or-whitelist",
			Fields: []schema.Ref{refCORSAllowAll, refCORSWhitelist, refCORSPatterns},
			Detail: "CORS_ORIGIN_ALLOW_ALL cannot be combined with CORS_ORIGIN_WHITELIST or CORS_ORIGIN_REGEX_WHITELIST",
			Check: func(vs schema.Values) bool {
				if !vs.Bool(refCORSAllowAll) {
					return true
				}
				return len(vs.Strings(refCORSWhitelist)) == 0 && len(vs.Strings(refCORSPatterns)) == 0
			},
		},
	)
}
