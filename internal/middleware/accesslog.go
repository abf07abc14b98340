package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/netpulse/devicemngr/internal/ua"
)

// AccessLog writes one INFO line per request with status, latency, and a
// User-Agent label.  Bots are logged at DEBUG.
func AccessLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			info := ua.Parse(r.UserAgent())
			logf := log.Infow
			if info.IsBot {
				logf = log.Debugw
			}
			logf("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"dur", time.Since(start),
				"ua", info.Label(),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}
