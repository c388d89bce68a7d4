package commands

import (
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/reportbuilder/internal/config"
	"git.home.luguber.info/inful/reportbuilder/internal/history"
	"git.home.luguber.info/inful/reportbuilder/internal/logfields"
	"git.home.luguber.info/inful/reportbuilder/internal/metrics"
	"git.home.luguber.info/inful/reportbuilder/internal/report"
)

// wiring bundles a report service with the optional stores it was built with.
type wiring struct {
	svc      *report.DefaultService
	registry *prom.Registry
	textfile string
	store    history.Store
}

// newWiring builds the service for cfg. A Prometheus registry is created when
// metrics are configured or forced (daemon modes serving /metrics).
func newWiring(cfg *config.Config, forceMetrics bool) (*wiring, error) {
	w := &wiring{svc: report.NewService()}

	if cfg.Metrics.Textfile != "" || cfg.Metrics.Listen != "" || forceMetrics {
		w.registry = prom.NewRegistry()
		w.svc.WithRecorder(metrics.NewPrometheusRecorder(w.registry))
		w.textfile = cfg.ResolvePath(cfg.Metrics.Textfile)
	}

	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.ResolvePath(cfg.History.Path))
		if err != nil {
			return nil, err
		}
		w.store = store
		w.svc.WithHistory(store)
	}
	return w, nil
}

// flushMetrics writes the textfile if one is configured. Failures are logged only.
func (w *wiring) flushMetrics() {
	if w.textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(w.textfile, w.registry); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(w.textfile), logfields.Error(err))
	}
}

func (w *wiring) close() {
	if w.store == nil {
		return
	}
	if err := w.store.Close(); err != nil {
		slog.Warn("Failed to close history store", logfields.Error(err))
	}
}
