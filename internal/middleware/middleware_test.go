package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
})

func TestSecurity_Headers(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestRoles(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, Roles(r))

	r.Header.Set(HeaderRealmRoles, "viewer")
	assert.Equal(t, []string{"viewer"}, Roles(r))

	r.Header.Set(HeaderUserRoles, " operator, ,nms-admin ")
	assert.Equal(t, []string{"operator", "nms-admin"}, Roles(r), "user roles take precedence")
}

func TestRequireRole(t *testing.T) {
	h := RequireRole("admin", "nms-admin")(ok)

	cases := map[string]struct {
		header string
		value  string
		want   int
	}{
		"no headers":       {want: http.StatusForbidden},
		"wrong role":       {header: HeaderUserRoles, value: "viewer,operator", want: http.StatusForbidden},
		"user role match":  {header: HeaderUserRoles, value: "viewer, nms-admin", want: http.StatusOK},
		"realm role match": {header: HeaderRealmRoles, value: "admin", want: http.StatusOK},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/config", nil)
			if tc.header != "" {
				r.Header.Set(tc.header, tc.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			require.Equal(t, tc.want, rec.Code)

			if tc.want == http.StatusForbidden {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "forbidden", body["error"])
				assert.Contains(t, body["message"], "nms-admin")
			}
		})
	}
}

func TestAllowedHosts(t *testing.T) {
	h := AllowedHosts([]string{"nms.example", ".netpulse.local", "::1"})(ok)

	cases := map[string]int{
		"nms.example:9102":    http.StatusOK,
		"NMS.example":         http.StatusOK,
		"netpulse.local":      http.StatusOK,
		"diag.netpulse.local": http.StatusOK,
		"[::1]:9102":          http.StatusOK,
		"evil.example":        http.StatusBadRequest,
		"notnetpulse.local":   http.StatusBadRequest,
	}
	for host, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Host = host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, want, rec.Code, host)
	}

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Host = "anything.example"
	rec := httptest.NewRecorder()
	AllowedHosts([]string{"*"})(ok).ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := AccessLog(zap.New(core).Sugar())(ok)

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("User-Agent", "curl/8.5.0")
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/health", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.NotEmpty(t, fields["ua"])
}
