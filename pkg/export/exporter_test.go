package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Sternrassler/launch-export/internal/testutil"
	"github.com/Sternrassler/launch-export/pkg/client"
	"github.com/Sternrassler/launch-export/pkg/pagination"
	"github.com/Sternrassler/launch-export/pkg/tabular"
	"github.com/Sternrassler/launch-export/pkg/workbook"
)

func newTestClient(t *testing.T, baseURL string) *client.Client {
	t.Helper()
	cfg := client.DefaultConfig("test-key")
	cfg.BaseURL = baseURL
	cfg.Timeout = 2 * time.Second
	cfg.Retry.InitialBackoff = time.Millisecond
	cfg.Retry.MaxBackoff = 2 * time.Millisecond

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	return c
}

func newTestExporter(t *testing.T, baseURL, dir string, endpoints ...Endpoint) *Exporter {
	t.Helper()
	e, err := New(newTestClient(t, baseURL), Config{
		OutputDir:  dir,
		Endpoints:  endpoints,
		Pagination: pagination.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestDefaultEndpoints(t *testing.T) {
	endpoints := DefaultEndpoints()

	var names []string
	for _, ep := range endpoints {
		names = append(names, ep.Name)
		if ep.Path != "/"+ep.Name {
			t.Errorf("%s path = %q", ep.Name, ep.Path)
		}
	}

	want := []string{"launches", "companies", "locations", "missions", "pads", "tags", "vehicles"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("endpoints = %v, want %v", names, want)
	}

	launches := endpoints[0].Params
	if launches.Get("modified_since") != "1930-01-01T19:02:00Z" || launches.Get("after_date") != "1930-01-01" {
		t.Errorf("launches params = %v", launches)
	}
	for _, ep := range endpoints[1:] {
		if len(ep.Params) != 0 {
			t.Errorf("%s has params %v", ep.Name, ep.Params)
		}
	}
}

func TestNew_RequiresOutputDir(t *testing.T) {
	if _, err := New(nil, Config{}); err == nil {
		t.Error("expected error for empty output directory")
	}
}

func TestNew_DefaultsEndpoints(t *testing.T) {
	e, err := New(nil, Config{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if len(e.config.Endpoints) != 7 {
		t.Errorf("endpoints = %d, want 7", len(e.config.Endpoints))
	}
}

func TestRun_WritesOneCSVPerEndpoint(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	for _, ep := range DefaultEndpoints() {
		mock.SetPages(ep.Path,
			testutil.PageBody(2, fmt.Sprintf(`{"id":1,"name":"%s one"}`, ep.Name)),
			testutil.PageBody(2, fmt.Sprintf(`{"id":2,"name":"%s two"}`, ep.Name)),
		)
	}

	dir := filepath.Join(t.TempDir(), "export")
	e := newTestExporter(t, mock.URL(), dir)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Written() != 7 || summary.Skipped() != 0 {
		t.Errorf("written=%d skipped=%d", summary.Written(), summary.Skipped())
	}

	for _, ep := range DefaultEndpoints() {
		rows, err := tabular.ReadCSV(tabular.Path(dir, ep.Name))
		if err != nil {
			t.Fatalf("ReadCSV(%s) error = %v", ep.Name, err)
		}
		if len(rows) != 3 {
			t.Errorf("%s: %d lines, want header + 2 rows", ep.Name, len(rows))
		}
	}

	q := mock.LastQuery("/launches")
	if !strings.Contains(q, "modified_since=1930-01-01T19%3A02%3A00Z") || !strings.Contains(q, "after_date=1930-01-01") {
		t.Errorf("launches query = %q", q)
	}
}

func TestRun_SkipsFailedEndpoint(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetPages("/pads", testutil.PageBody(1, `{"id":1}`))
	mock.SetResponse("/tags", testutil.MockResponse{StatusCode: http.StatusForbidden, Body: `{"error":"nope"}`})

	dir := t.TempDir()
	// an older export of the failing endpoint stays in place
	stale := tabular.Path(dir, "tags")
	if err := os.WriteFile(stale, []byte("id\n7\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := newTestExporter(t, mock.URL(), dir,
		Endpoint{Name: "pads", Path: "/pads"},
		Endpoint{Name: "tags", Path: "/tags"},
	)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Written() != 1 || summary.Skipped() != 1 {
		t.Fatalf("written=%d skipped=%d", summary.Written(), summary.Skipped())
	}
	if !errors.Is(summary.Endpoints[1].Err, pagination.ErrFirstPage) {
		t.Errorf("tags error = %v, want ErrFirstPage", summary.Endpoints[1].Err)
	}

	data, err := os.ReadFile(stale)
	if err != nil || string(data) != "id\n7\n" {
		t.Errorf("stale CSV changed: %q, %v", data, err)
	}
}

func TestRun_RetryExhaustedPageStillWritesOthers(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetPageResponses("/missions", func(page int) testutil.MockResponse {
		if page == 2 {
			return testutil.NewServerErrorResponse()
		}
		return testutil.NewJSONResponse(testutil.PageBody(3, fmt.Sprintf(`{"id":%d}`, page)))
	})

	dir := t.TempDir()
	e := newTestExporter(t, mock.URL(), dir, Endpoint{Name: "missions", Path: "/missions"})

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stats := summary.Endpoints[0].Stats
	if stats.PagesFailed != 1 || stats.Rows != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if got := mock.PageRequests("/missions", 2); got != 10 {
		t.Errorf("page 2 requested %d times, want 10", got)
	}

	rows, err := tabular.ReadCSV(tabular.Path(dir, "missions"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("csv lines = %d, want 3", len(rows))
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestExporter(t, "http://127.0.0.1:1", t.TempDir(), Endpoint{Name: "pads", Path: "/pads"})

	if _, err := e.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRun_UnwritableOutputDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	e := newTestExporter(t, "http://127.0.0.1:1", file, Endpoint{Name: "pads", Path: "/pads"})
	if _, err := e.Run(context.Background()); err == nil {
		t.Error("expected error for an output path that is a file")
	}
}

func TestRunThenMerge(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetPages("/launches", testutil.PageBody(1, `{"id":1,"name":"Starlink"}`))
	mock.SetPages("/pads", testutil.PageBody(1, `{"id":61,"name":"LC-39A"}`))

	dir := t.TempDir()
	e := newTestExporter(t, mock.URL(), dir,
		Endpoint{Name: "launches", Path: "/launches"},
		Endpoint{Name: "pads", Path: "/pads"},
	)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	result, err := e.Merge()
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if !strings.HasPrefix(filepath.Base(result.Path), "output_") {
		t.Errorf("workbook path = %q", result.Path)
	}

	f, err := excelize.OpenFile(result.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{"launches", "pads"}) {
		t.Errorf("sheets = %v", got)
	}

	rows, err := f.GetRows("pads")
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"id", "name"}, {"61", "LC-39A"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("pads rows = %v, want %v", rows, want)
	}
}

func TestMerge_EmptyDirectory(t *testing.T) {
	e := newTestExporter(t, "http://127.0.0.1:1", t.TempDir(), Endpoint{Name: "pads", Path: "/pads"})
	if _, err := e.Merge(); !errors.Is(err, workbook.ErrNoResources) {
		t.Errorf("Merge() error = %v, want ErrNoResources", err)
	}
}
