package croplabel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// TableParseOptions lets callers choose which columns map to entry fields.
// Columns are given by header name or as a 1-based "#N" index.
type TableParseOptions struct {
	LabelColumn     string
	NameColumn      string
	CategoryColumn  string
	SupportedColumn string
}

type tableDocument struct {
	Crops []Entry `yaml:"crops"`
}

// yamlRow mirrors Entry but tells an omitted supported flag from false.
type yamlRow struct {
	Label     string `yaml:"label"`
	Name      string `yaml:"name"`
	Category  string `yaml:"category"`
	Supported *bool  `yaml:"supported"`
}

// LoadTableFile parses a CSV, TSV or YAML table file and validates it. A
// table without any supported crop is rejected with ErrNoSupportedCrops.
func LoadTableFile(path string, opts TableParseOptions) (*Table, error) {
	entries, err := ParseTableFile(path, opts)
	if err != nil {
		return nil, err
	}
	table, err := NewTable(entries)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if len(table.supported) == 0 {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoSupportedCrops)
	}
	return table, nil
}

// ParseTableFile reads table rows without validating them.
func ParseTableFile(path string, opts TableParseOptions) ([]Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseDelimitedTable(path, ',', opts)
	case ".tsv":
		return parseDelimitedTable(path, '\t', opts)
	case ".yaml", ".yml":
		return parseYAMLTable(path)
	default:
		return nil, fmt.Errorf("unsupported table format %q", filepath.Ext(path))
	}
}

func parseYAMLTable(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var doc struct {
		Crops []yamlRow `yaml:"crops"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if len(doc.Crops) == 0 {
		return nil, fmt.Errorf("no crops found in %s", path)
	}
	entries := make([]Entry, len(doc.Crops))
	for i, row := range doc.Crops {
		// Rows are supported unless they say otherwise, as in CSV files.
		entries[i] = Entry{
			Label:     row.Label,
			Name:      row.Name,
			Category:  row.Category,
			Supported: row.Supported == nil || *row.Supported,
		}
	}
	return entries, nil
}

func parseDelimitedTable(path string, comma rune, opts TableParseOptions) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, errors.New("empty table file")
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = trimCell(cell)
	}
	cols, skipHeader, err := resolveTableColumns(header, opts)
	if err != nil {
		return nil, err
	}
	start := 0
	if skipHeader {
		start = 1
	}
	entries := make([]Entry, 0, len(rows)-start)
	for _, row := range rows[start:] {
		label := cellAt(row, cols.Label)
		if label == "" {
			continue
		}
		e := Entry{
			Label:     label,
			Name:      cellAt(row, cols.Name),
			Category:  cellAt(row, cols.Category),
			Supported: true,
		}
		if cols.Supported >= 0 {
			e.Supported = parseFlag(cellAt(row, cols.Supported))
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no crops found in %s", path)
	}
	return entries, nil
}

type tableColumns struct {
	Label     int
	Name      int
	Category  int
	Supported int
}

func resolveTableColumns(header []string, opts TableParseOptions) (tableColumns, bool, error) {
	cols := tableColumns{Label: -1, Name: -1, Category: -1, Supported: -1}
	names := getColumnCandidates()
	fields := []struct {
		dst        *int
		explicit   string
		candidates []string
		position   int
	}{
		{&cols.Label, opts.LabelColumn, names.Label, 0},
		{&cols.Name, opts.NameColumn, names.Name, 1},
		{&cols.Category, opts.CategoryColumn, names.Category, 2},
		{&cols.Supported, opts.SupportedColumn, names.Supported, -1},
	}
	hasHeader := false
	for _, f := range fields {
		idx, named, err := locateColumn(header, f.explicit, f.candidates)
		if err != nil {
			return cols, false, err
		}
		*f.dst = idx
		hasHeader = hasHeader || named
	}
	if !hasHeader {
		// Headerless file: label, name[, category].
		for _, f := range fields {
			if *f.dst < 0 && f.position >= 0 && f.position < len(header) {
				*f.dst = f.position
			}
		}
	}
	if cols.Label < 0 {
		return cols, false, errors.New("no usable label column found")
	}
	return cols, hasHeader, nil
}

// locateColumn resolves an explicit header name or 1-based "#N" index. With no
// explicit column it takes the first candidate name present in the header.
// named reports whether the match came from a header name.
func locateColumn(header []string, explicit string, candidates []string) (idx int, named bool, err error) {
	want := strings.TrimSpace(explicit)
	if want == "" {
		for _, name := range candidates {
			if i := headerIndex(header, name); i >= 0 {
				return i, true, nil
			}
		}
		return -1, false, nil
	}
	if i := headerIndex(header, want); i >= 0 {
		return i, true, nil
	}
	digits, ok := strings.CutPrefix(want, "#")
	if !ok {
		return -1, false, fmt.Errorf("column %q not found", want)
	}
	n, err := strconv.Atoi(strings.TrimSpace(digits))
	switch {
	case err != nil:
		return -1, false, fmt.Errorf("invalid column index %q", want)
	case n < 1:
		return -1, false, fmt.Errorf("column index %q must be 1 or more", want)
	case n > len(header):
		return -1, false, fmt.Errorf("column index %q exceeds %d columns", want, len(header))
	}
	return n - 1, false, nil
}

func headerIndex(header []string, name string) int {
	return slices.IndexFunc(header, func(h string) bool { return strings.EqualFold(h, name) })
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return trimCell(row[idx])
}

// trimCell drops surrounding space and a UTF-8 byte order mark.
func trimCell(v string) string {
	return strings.TrimSpace(strings.TrimPrefix(v, "\ufeff"))
}

func parseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "x", "si", "sí":
		return true
	default:
		return false
	}
}

// WriteTableFile writes entries as CSV, TSV or YAML depending on the extension.
// The file is written to a temporary path and renamed into place; the
// temporary file is removed when any step fails.
func WriteTableFile(path string, entries []Entry) (err error) {
	var encode func(io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		encode = func(w io.Writer) error { return writeDelimitedTable(w, ',', entries) }
	case ".tsv":
		encode = func(w io.Writer) error { return writeDelimitedTable(w, '\t', entries) }
	case ".yaml", ".yml":
		encode = func(w io.Writer) error {
			enc := yaml.NewEncoder(w)
			if err := enc.Encode(tableDocument{Crops: entries}); err != nil {
				return err
			}
			return enc.Close()
		}
	default:
		return fmt.Errorf("unsupported table format %q", filepath.Ext(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create table dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("write table: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close table: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename table: %w", err)
	}
	return nil
}

func writeDelimitedTable(out io.Writer, comma rune, entries []Entry) error {
	w := csv.NewWriter(out)
	w.Comma = comma
	if err := w.Write([]string{"label", "name", "category", "supported"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Write([]string{e.Label, e.Name, e.Category, strconv.FormatBool(e.Supported)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// EnsureTableFile writes the variant's built-in rows to path when the file does
// not exist yet, giving users a starting point to edit. It reports whether a
// file was created.
func EnsureTableFile(path string, v Variant) (bool, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return false, nil
	}
	clean = filepath.Clean(clean)
	if _, err := os.Stat(clean); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat table file: %w", err)
	}
	entries, err := DefaultEntries(v)
	if err != nil {
		return false, err
	}
	if err := WriteTableFile(clean, entries); err != nil {
		return false, err
	}
	return true, nil
}
