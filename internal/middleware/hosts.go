package middleware

import (
	"net"
	"net/http"
	"slices"
	"strings"
)

// AllowedHosts rejects requests whose Host is not in hosts with 400.  A "*"
// entry allows every host, and a leading "." matches the domain and all
// subdomains, as ALLOWED_HOSTS always has.
func AllowedHosts(hosts []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if slices.Contains(hosts, "*") {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hostAllowed(stripPort(r.Host), hosts) {
				writeError(w, http.StatusBadRequest, "bad_request", "host not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hostAllowed(host string, hosts []string) bool {
	host = strings.ToLower(host)
	for _, h := range hosts {
		h = strings.ToLower(h)
		if h == host {
			return true
		}
		if strings.HasPrefix(h, ".") && (host == h[1:] || strings.HasSuffix(host, h)) {
			return true
		}
	}
	return false
}

// stripPort removes the :port suffix from Host when present.  IPv6
// literals lose their brackets.
func stripPort(h string) string {
	if host, _, err := net.SplitHostPort(h); err == nil {
		return host
	}
	return strings.Trim(h, "[]")
}
