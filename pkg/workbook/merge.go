// Package workbook merges the CSV resources of a directory into one XLSX
// workbook with a sheet per file.
package workbook

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/Sternrassler/launch-export/pkg/tabular"
)

// ErrNoResources is returned when the directory holds no CSV files.
var ErrNoResources = errors.New("no csv resources to merge")

var sheetsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "launch_export_sheets_written_total",
	Help: "Total number of workbook sheets written",
})

// FileName returns the workbook file name for the given day.
func FileName(day time.Time) string {
	return "output_" + day.Format("2006_01_02") + ".xlsx"
}

// Sheet describes one written sheet.
type Sheet struct {
	Name   string
	Source string
	Rows   int
}

// Result describes a saved workbook.
type Result struct {
	Path   string
	Sheets []Sheet
}

// Merger builds the workbook.
type Merger struct {
	logger zerolog.Logger
	now    func() time.Time
}

// NewMerger creates a merger that logs to logger.
func NewMerger(logger zerolog.Logger) *Merger {
	return &Merger{
		logger: logger,
		now:    time.Now,
	}
}

// Merge reads every CSV in dir and saves dir/output_<date>.xlsx, replacing a
// workbook of the same day. Sheets follow the discovery order of the files.
func (m *Merger) Merge(dir string) (*Result, error) {
	resources, err := tabular.Discover(dir)
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoResources, dir)
	}

	names := make([]string, 0, len(resources))
	for _, r := range resources {
		names = append(names, r.Name)
	}
	m.logger.Info().Strs("files", names).Msg("Merging csv files")

	f := excelize.NewFile()
	defer f.Close()

	namer := NewSheetNamer()
	result := &Result{Path: filepath.Join(dir, FileName(m.now()))}

	for i, res := range resources {
		rows, err := tabular.ReadCSV(res.Path)
		if err != nil {
			return nil, err
		}

		name := namer.Name(res.Name)
		if i == 0 {
			// reuse the default sheet a new file starts with
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, fmt.Errorf("rename sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}

		if err := writeRows(f, name, rows); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}

		if name != res.Name {
			m.logger.Warn().
				Str("file", res.Path).
				Str("sheet", name).
				Msg("Sheet name differs from file name")
		}

		sheetsWrittenTotal.Inc()
		result.Sheets = append(result.Sheets, Sheet{Name: name, Source: res.Path, Rows: len(rows)})
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(result.Path); err != nil {
		return nil, fmt.Errorf("save %s: %w", result.Path, err)
	}

	m.logger.Info().
		Str("path", result.Path).
		Int("sheets", len(result.Sheets)).
		Msg("All files merged")

	return result, nil
}

// writeRows streams rows into the sheet as string cells.
func writeRows(f *excelize.File, sheet string, rows [][]string) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}

	return sw.Flush()
}
