package pagination

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/launch-export/pkg/client"
	"github.com/Sternrassler/launch-export/pkg/flatten"
	"github.com/Sternrassler/launch-export/pkg/logging"
	"github.com/Sternrassler/launch-export/pkg/records"
	"github.com/Sternrassler/launch-export/pkg/tabular"
)

var (
	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launch_export_pages_total",
		Help: "Pages processed by endpoint and outcome (fetched, failed)",
	}, []string{"endpoint", "outcome"})

	rowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launch_export_rows_total",
		Help: "Rows appended by endpoint",
	}, []string{"endpoint"})
)

// LastPageField is the page body field holding the page count.
const LastPageField = "last_page"

// ErrFirstPage is returned when page 1 of an endpoint cannot be fetched or
// decoded. Nothing is known about the endpoint in that case.
var ErrFirstPage = errors.New("first page failed")

// Config holds fetcher configuration.
type Config struct {
	// Workers is the number of concurrent page fetches.
	Workers int
	// BufferSize of the page queue.
	BufferSize int
}

// DefaultConfig returns the pool size used against the public API.
func DefaultConfig() Config {
	return Config{
		Workers:    5,
		BufferSize: 64,
	}
}

// PageFetcher fetches one page of an endpoint.
type PageFetcher interface {
	FetchPage(ctx context.Context, path string, params url.Values, page int) client.Result
}

// FetchStats summarizes one endpoint.
type FetchStats struct {
	PagesTotal   int
	PagesFetched int
	PagesFailed  int
	Rows         int
}

// Fetcher fetches all pages of an endpoint with a worker pool.
type Fetcher struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewFetcher creates a new fetcher.
func NewFetcher(fetcher PageFetcher, config Config) *Fetcher {
	if config.Workers <= 0 {
		config.Workers = 5
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 64
	}

	return &Fetcher{
		fetcher: fetcher,
		config:  config,
		logger:  logging.NewLogger("pagination"),
	}
}

// FetchEndpoint fetches every page of path into a new table called name.
// Pages that fail after retries are skipped and counted in the stats. The
// error is non-nil when page 1 fails (ErrFirstPage), when a page violates
// record ordering (records.ErrRecordOrder) or when ctx is cancelled.
func (f *Fetcher) FetchEndpoint(ctx context.Context, name, path string, params url.Values) (*tabular.Table, FetchStats, error) {
	start := time.Now()
	logger := logging.WithEndpoint(f.logger, name)

	first := f.fetcher.FetchPage(ctx, path, params, 1)
	if !first.OK() {
		pagesTotal.WithLabelValues(name, "failed").Inc()
		return nil, FetchStats{}, fmt.Errorf("%w: %s: %w", ErrFirstPage, name, first.Err)
	}

	page1, err := decodePage(first.Body)
	if err != nil {
		pagesTotal.WithLabelValues(name, "failed").Inc()
		return nil, FetchStats{}, fmt.Errorf("%w: %s: %w", ErrFirstPage, name, err)
	}

	schema := records.InferSchema(page1.records)
	table := tabular.NewTable(name, schema)
	table.Append(records.BuildRows(page1.records, schema)...)
	pagesTotal.WithLabelValues(name, "fetched").Inc()
	rowsTotal.WithLabelValues(name).Add(float64(len(page1.records)))

	stats := FetchStats{PagesTotal: page1.lastPage, PagesFetched: 1}

	logger.Info().
		Int("total_pages", page1.lastPage).
		Int("columns", len(schema)).
		Msg("Pages detected")

	if page1.lastPage > 1 {
		if err := f.fetchRemaining(ctx, logger, name, path, params, page1.lastPage, table, &stats); err != nil {
			return nil, stats, err
		}
	}

	stats.Rows = table.Len()

	logger.Info().
		Int("pages", stats.PagesFetched).
		Int("failed", stats.PagesFailed).
		Int("rows", stats.Rows).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return table, stats, nil
}

// fetchRemaining runs the worker pool over pages 2..lastPage.
func (f *Fetcher) fetchRemaining(ctx context.Context, logger zerolog.Logger, name, path string, params url.Values, lastPage int, table *tabular.Table, stats *FetchStats) error {
	g, gctx := errgroup.WithContext(ctx)
	pageQueue := make(chan int, min(f.config.BufferSize, lastPage-1))

	g.Go(func() error {
		defer close(pageQueue)
		for page := 2; page <= lastPage; page++ {
			select {
			case pageQueue <- page:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var mu sync.Mutex
	workers := min(f.config.Workers, lastPage-1)

	for workerID := 0; workerID < workers; workerID++ {
		workerID := workerID
		g.Go(func() error {
			processed := 0
			for page := range pageQueue {
				if err := gctx.Err(); err != nil {
					logger.Debug().
						Int("worker_id", workerID).
						Int("pages_processed", processed).
						Msg("Worker stopping (context cancelled)")
					return err
				}

				n, err := f.fetchOne(gctx, path, params, page, table)
				if errors.Is(err, records.ErrRecordOrder) {
					return fmt.Errorf("%s page %d: %w", name, page, err)
				}

				mu.Lock()
				if err != nil {
					stats.PagesFailed++
				} else {
					stats.PagesFetched++
				}
				done := stats.PagesFetched + stats.PagesFailed
				mu.Unlock()

				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					pagesTotal.WithLabelValues(name, "failed").Inc()
					logger.Warn().
						Err(err).
						Int("worker_id", workerID).
						Int("page", page).
						Msg("Page fetch failed - rows skipped")
					continue
				}

				pagesTotal.WithLabelValues(name, "fetched").Inc()
				rowsTotal.WithLabelValues(name).Add(float64(n))
				processed++

				if done%50 == 0 {
					logger.Info().
						Int("fetched", done).
						Int("total", lastPage).
						Float64("progress_pct", float64(done)/float64(lastPage)*100).
						Msg("Fetch progress")
				}
			}

			logger.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", processed).
				Msg("Worker completed")
			return nil
		})
	}

	return g.Wait()
}

// fetchOne fetches, decodes and appends one page. It returns the number of
// rows appended.
func (f *Fetcher) fetchOne(ctx context.Context, path string, params url.Values, page int, table *tabular.Table) (int, error) {
	res := f.fetcher.FetchPage(ctx, path, params, page)
	if !res.OK() {
		return 0, res.Err
	}

	decoded, err := decodePage(res.Body)
	if err != nil {
		return 0, err
	}

	table.Append(records.BuildRows(decoded.records, table.Schema())...)
	return len(decoded.records), nil
}

type decodedPage struct {
	lastPage int
	records  []records.Record
}

// decodePage flattens a page body and groups its result records.
func decodePage(body []byte) (decodedPage, error) {
	pairs, err := flatten.Flatten(body)
	if err != nil {
		return decodedPage{}, err
	}

	recs, err := records.Parse(pairs)
	if err != nil {
		return decodedPage{}, err
	}

	return decodedPage{lastPage: lastPage(pairs), records: recs}, nil
}

// lastPage reads the page count. A missing, non-integer or non-positive
// value means a single page.
func lastPage(pairs flatten.Pairs) int {
	value, ok := pairs.Get(LastPageField)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
