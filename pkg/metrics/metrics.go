// Package metrics exposes the Prometheus metrics of an export run.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, pagination, workbook) and registered via promauto.
//
// This package provides documentation and the /metrics listener.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the default Prometheus registry.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Path is where metrics are served.
const Path = "/metrics"

// Handler returns the metrics handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes Handler on addr until ctx is done. It returns nil after a
// clean shutdown and an error when the listener cannot be opened.
func Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return serve(ctx, ln)
}

func serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(Path, Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("Metrics listener started")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - launch_export_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - launch_export_request_duration_seconds{endpoint} (Histogram): Attempt duration by endpoint
//   - launch_export_errors_total{class} (Counter): Failed attempts by class (client, server, rate_limit, network, decode)
//
// Retry Metrics (pkg/client):
//   - launch_export_retries_total{error_class} (Counter): Retry attempts by error class
//   - launch_export_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - launch_export_retry_exhausted_total{error_class} (Counter): Pages that used every attempt
//
// Page Metrics (pkg/pagination):
//   - launch_export_pages_total{endpoint, outcome} (Counter): Pages fetched or failed
//   - launch_export_rows_total{endpoint} (Counter): Rows appended
//
// Cache Metrics (pkg/cache):
//   - launch_export_cache_hits_total (Counter): Pages served from Redis
//   - launch_export_cache_misses_total (Counter): Cache misses
//   - launch_export_cache_errors_total{operation} (Counter): Cache operation errors
//
// Rate Limit Metrics (pkg/ratelimit):
//   - launch_export_rate_limit_hits_total (Counter): 429 responses received
//   - launch_export_rate_limit_waits_total (Counter): Requests delayed by an active limit
//
// Workbook Metrics (pkg/workbook):
//   - launch_export_sheets_written_total (Counter): Sheets written to workbooks
//
// Example Prometheus Queries:
//
//   # Failed page ratio per endpoint
//   sum by (endpoint) (launch_export_pages_total{outcome="failed"}) /
//   sum by (endpoint) (launch_export_pages_total)
//
//   # Cache Hit Rate
//   sum(rate(launch_export_cache_hits_total[5m])) /
//   (sum(rate(launch_export_cache_hits_total[5m])) + sum(rate(launch_export_cache_misses_total[5m])))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(launch_export_request_duration_seconds_bucket[5m]))
