package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Sternrassler/launch-export/internal/testutil"
	"github.com/Sternrassler/launch-export/pkg/config"
	"github.com/Sternrassler/launch-export/pkg/export"
	"github.com/Sternrassler/launch-export/pkg/logging"
)

func testConfig(baseURL, dir string) config.Config {
	return config.Config{
		APIKey:         "test-key",
		OutputDir:      dir,
		BaseURL:        baseURL,
		Workers:        5,
		MaxAttempts:    2,
		RequestTimeout: 2 * time.Second,
		LogLevel:       logging.LevelError,
		CacheTTL:       time.Minute,
	}
}

func TestRun_EndToEnd(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	for _, ep := range export.DefaultEndpoints() {
		mock.SetPages(ep.Path, testutil.PageBody(1, `{"id":1,"name":"`+ep.Name+`"}`))
	}

	dir := t.TempDir()
	if err := run(context.Background(), testConfig(mock.URL(), dir)); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "output_*.xlsx"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("workbooks = %v, %v", matches, err)
	}

	f, err := excelize.OpenFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	// sheets follow the lexical order of the csv files
	want := "companies,launches,locations,missions,pads,tags,vehicles"
	if got := strings.Join(f.GetSheetList(), ","); got != want {
		t.Errorf("sheets = %s, want %s", got, want)
	}
}

func TestRun_NothingExported(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	dir := t.TempDir()
	if err := run(context.Background(), testConfig(mock.URL(), dir)); err == nil {
		t.Error("expected merge error when no endpoint could be exported")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("output dir has %d entries, want 0", len(entries))
	}
}

func TestRun_RedisUnavailableFallsBack(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetPages("/pads", testutil.PageBody(1, `{"id":1}`))

	cfg := testConfig(mock.URL(), t.TempDir())
	cfg.RedisURL = "127.0.0.1:1"

	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

func TestConnectRedis_BadURL(t *testing.T) {
	if _, err := connectRedis(context.Background(), "redis://:bad port"); err == nil {
		t.Error("expected parse error")
	}
}
