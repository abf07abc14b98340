package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Role headers set by the gateway, checked in this order.
const (
	HeaderUserRoles  = "X-User-Roles"
	HeaderRealmRoles = "X-Realm-Roles"
)

// Roles returns the comma-separated roles from the first non-empty role
// header, trimmed, with empty items dropped.
func Roles(r *http.Request) []string {
	raw := r.Header.Get(HeaderUserRoles)
	if raw == "" {
		raw = r.Header.Get(HeaderRealmRoles)
	}

	var roles []string
	for _, role := range strings.Split(raw, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

// RequireRole admits a request only when it carries at least one of
// allowed.  Requests without role headers are refused.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	msg := "access denied: requires one of " + strings.Join(allowed, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, role := range Roles(r) {
				if _, ok := set[role]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "forbidden", msg)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": msg,
	})
}
