package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Ext is the file extension of tabular resources.
const Ext = ".csv"

// bom is the UTF-8 byte order mark written ahead of every CSV so spreadsheet
// tools detect the encoding.
var bom = []byte{0xEF, 0xBB, 0xBF}

// Resource is a CSV file discovered on disk.
type Resource struct {
	Name string
	Path string
}

// Path returns the file path of the resource name in dir.
func Path(dir, name string) string {
	return filepath.Join(dir, name+Ext)
}

// WriteCSV writes the table header and rows to <dir>/<name>.csv, replacing any
// existing file, and returns the path.
func WriteCSV(dir string, t *Table) (string, error) {
	path := Path(dir, t.Name())

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if err := encode(f, t); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func encode(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(bom); err != nil {
		return err
	}

	cw := csv.NewWriter(bw)
	if err := cw.Write(t.Schema()); err != nil {
		return fmt.Errorf("header: %w", err)
	}
	for _, row := range t.Rows() {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	return bw.Flush()
}

// ReadCSV returns every record of the CSV at path, header included, with a
// leading byte order mark removed. Rows may differ in length.
func ReadCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, bom)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rows, nil
}

// Discover lists the CSV files directly inside dir, sorted by file name.
func Discover(dir string) ([]Resource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var out []Resource
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Ext) {
			continue
		}
		out = append(out, Resource{
			Name: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Path: filepath.Join(dir, e.Name()),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
