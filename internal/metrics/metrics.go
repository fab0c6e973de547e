package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchTotal counts page fetches by outcome (ok, error).
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doculens_fetch_total",
		Help: "Documentation page fetches by outcome.",
	}, []string{"outcome"})

	// SectionsTotal counts processed sections by outcome (stored, skipped, failed).
	SectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doculens_sections_total",
		Help: "Documentation sections processed by outcome.",
	}, []string{"outcome"})

	// SummariesTotal counts summarization attempts by provider and outcome.
	SummariesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doculens_summaries_total",
		Help: "Summarization attempts by provider and outcome.",
	}, []string{"provider", "outcome"})

	// ResourcesAdded counts external resources attached during enrichment.
	ResourcesAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "doculens_resources_added_total",
		Help: "External resources attached to sections by kind.",
	}, []string{"kind"})
)

// Serve exposes the default registry on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics listener starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
