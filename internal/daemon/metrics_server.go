package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/metrics"
)

// MetricsServer exposes /metrics and /healthz.
type MetricsServer struct {
	addr     string
	server   *http.Server
	listener net.Listener
}

// NewMetricsServer binds addr immediately so port conflicts surface before the daemon starts.
func NewMetricsServer(addr string, reg *prom.Registry) (*MetricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ferrors.DaemonError("failed to bind metrics listener").WithCause(err).WithContext("addr", addr).Build()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return &MetricsServer{
		addr:     ln.Addr().String(),
		listener: ln,
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
	}, nil
}

// Addr returns the bound address.
func (m *MetricsServer) Addr() string { return m.addr }

// Run serves until ctx is done.
func (m *MetricsServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Serving metrics", slog.String("addr", m.addr))
		errCh <- m.server.Serve(m.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return ferrors.DaemonError("metrics server failed").WithCause(err).Build()
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return m.server.Shutdown(shutdownCtx)
	}
}
