// internal/server/timeouts.go
//
// HTTP server helper with timeouts from the `diagnostics` section.
//
//   • ReadTimeout   – abort slow-loris headers (DIAG_READ_TIMEOUT)
//   • WriteTimeout  – cap total response time (DIAG_WRITE_TIMEOUT)
//   • IdleTimeout   – close keep-alives on idle clients (DIAG_IDLE_TIMEOUT)
//
// This helper centralises the wiring so cmd/netpulse doesn't repeat
// boilerplate.

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/netpulse/devicemngr/internal/config"
)

// shutdownGrace bounds how long in-flight requests may run after ctx ends.
const shutdownGrace = 10 * time.Second

// New constructs an *http.Server listening on cfg.ListenAddr.
func New(cfg config.Diagnostics, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.  A clean
// shutdown returns nil.
func Run(ctx context.Context, srv *http.Server, log *zap.SugaredLogger) error {
	errc := make(chan error, 1)
	go func() {
		log.Infow("diagnostics listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	log.Infow("diagnostics shutting down")
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
