package observability

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DiagnosticsServer exposes /healthz, /readyz and /metrics on its own
// listener, separate from any application traffic port.
type DiagnosticsServer struct {
	listener net.Listener
	server   *http.Server
}

// NewDiagnosticsServer binds addr and starts serving in the background.
// The /metrics handler is backed by an independent Prometheus registry
// (see [PrometheusHandler]); the meter for that registry is not returned,
// so no [ProcessingMetrics] are registered on it.
func NewDiagnosticsServer(addr string, checks ...ReadyCheck) (*DiagnosticsServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	metricsHandler, _, err := PrometheusHandler()
	if err != nil {
		listener.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", HealthHandler())
	mux.Handle("/readyz", ReadyHandler(checks...))
	mux.Handle("/metrics", metricsHandler)

	server := &http.Server{Handler: mux}

	diag := &DiagnosticsServer{listener: listener, server: server}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("diagnostics server stopped", "error", err)
		}
	}()

	return diag, nil
}

// Addr returns the bound listener address, useful when addr used port 0.
func (d *DiagnosticsServer) Addr() string {
	return d.listener.Addr().String()
}

// Close shuts the server down gracefully.
func (d *DiagnosticsServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.server.Shutdown(ctx)
}
