// Package export runs the endpoint exports and merges their CSV files into
// the daily workbook.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/launch-export/pkg/logging"
	"github.com/Sternrassler/launch-export/pkg/pagination"
	"github.com/Sternrassler/launch-export/pkg/tabular"
	"github.com/Sternrassler/launch-export/pkg/workbook"
)

// Config holds exporter configuration.
type Config struct {
	// OutputDir receives the CSV files and the workbook.
	OutputDir string
	// Endpoints to export; DefaultEndpoints when empty.
	Endpoints []Endpoint
	// Pagination configures the per-endpoint worker pool.
	Pagination pagination.Config
}

// Job is the state of one endpoint export. A job is created per endpoint and
// dropped after its CSV is written.
type Job struct {
	Endpoint Endpoint
	Table    *tabular.Table
	Stats    pagination.FetchStats
	CSVPath  string
}

// EndpointSummary reports the outcome of one endpoint.
type EndpointSummary struct {
	Endpoint string
	Stats    pagination.FetchStats
	CSVPath  string
	// Err is set when the endpoint was skipped.
	Err error
}

// Summary reports a run.
type Summary struct {
	Endpoints []EndpointSummary
	Duration  time.Duration
}

// Written returns the number of endpoints whose CSV was written.
func (s Summary) Written() int {
	n := 0
	for _, e := range s.Endpoints {
		if e.Err == nil {
			n++
		}
	}
	return n
}

// Skipped returns the number of endpoints skipped because they failed.
func (s Summary) Skipped() int {
	return len(s.Endpoints) - s.Written()
}

// Exporter exports every configured endpoint to CSV.
type Exporter struct {
	fetcher *pagination.Fetcher
	merger  *workbook.Merger
	config  Config
	logger  zerolog.Logger
}

// New creates an exporter fetching pages through pages.
func New(pages pagination.PageFetcher, cfg Config) (*Exporter, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if len(cfg.Endpoints) == 0 {
		cfg.Endpoints = DefaultEndpoints()
	}

	logger := logging.NewLogger("exporter")

	return &Exporter{
		fetcher: pagination.NewFetcher(pages, cfg.Pagination),
		merger:  workbook.NewMerger(logger),
		config:  cfg,
		logger:  logger,
	}, nil
}

// Run exports the endpoints sequentially. An endpoint whose fetch fails is
// logged and skipped, leaving any older CSV in place. Failing to write a CSV
// or a cancelled ctx ends the run with an error.
func (e *Exporter) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var summary Summary

	if err := os.MkdirAll(e.config.OutputDir, 0o755); err != nil {
		return summary, fmt.Errorf("create output directory: %w", err)
	}

	for _, ep := range e.config.Endpoints {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		job := &Job{Endpoint: ep}
		err := e.runJob(ctx, job)

		switch {
		case err == nil:
		case ctx.Err() != nil:
			return summary, ctx.Err()
		case errors.Is(err, errWrite):
			return summary, err
		default:
			e.logger.Warn().
				Err(err).
				Str("endpoint", ep.Name).
				Msg("Endpoint skipped")
		}

		summary.Endpoints = append(summary.Endpoints, EndpointSummary{
			Endpoint: ep.Name,
			Stats:    job.Stats,
			CSVPath:  job.CSVPath,
			Err:      err,
		})
	}

	summary.Duration = time.Since(start)

	e.logger.Info().
		Int("written", summary.Written()).
		Int("skipped", summary.Skipped()).
		Dur("duration", summary.Duration).
		Msg("Export complete")

	return summary, nil
}

var errWrite = errors.New("write csv")

// runJob fetches one endpoint and writes its CSV.
func (e *Exporter) runJob(ctx context.Context, job *Job) error {
	table, stats, err := e.fetcher.FetchEndpoint(ctx, job.Endpoint.Name, job.Endpoint.Path, job.Endpoint.Params)
	job.Stats = stats
	if err != nil {
		return err
	}
	job.Table = table

	path, err := tabular.WriteCSV(e.config.OutputDir, job.Table)
	if err != nil {
		return fmt.Errorf("%w: %w", errWrite, err)
	}
	job.CSVPath = path

	e.logger.Info().
		Str("endpoint", job.Endpoint.Name).
		Int("rows", job.Table.Len()).
		Str("path", path).
		Msg("CSV written")

	return nil
}

// Merge combines every CSV in the output directory into the daily workbook.
func (e *Exporter) Merge() (*workbook.Result, error) {
	return e.merger.Merge(e.config.OutputDir)
}
