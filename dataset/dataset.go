// Package dataset holds the ordered example table the optimizer consumes and
// the token-budgeted splitter that partitions it into batches.
package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/promptlearn/promptlearn/llm"
)

// Row maps column name to value for one example.
type Row = map[string]any

// Dataset is an ordered table of rows. Order is preserved through batching;
// the engine never reorders or samples.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// New builds a dataset from rows. Column order is first-seen across rows,
// with each row's keys visited in sorted order so the result is deterministic.
func New(rows []Row) *Dataset {
	d := &Dataset{Rows: rows}
	seen := make(map[string]bool)
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				d.Columns = append(d.Columns, k)
			}
		}
	}
	return d
}

func (d *Dataset) Len() int {
	return len(d.Rows)
}

// HasColumn reports whether the dataset defines the named column.
func (d *Dataset) HasColumn(name string) bool {
	for _, col := range d.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the subset of required that the dataset lacks.
func (d *Dataset) MissingColumns(required []string) []string {
	var missing []string
	for _, col := range required {
		if !d.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// AddColumn appends a column populated with one value per row. Evaluators use
// this to attach generated feedback.
func (d *Dataset) AddColumn(name string, values []any) error {
	if len(values) != len(d.Rows) {
		return llm.NewError(llm.ErrorTypeDataset,
			fmt.Sprintf("column %q has %d values for %d rows", name, len(values), len(d.Rows)), nil)
	}
	for i, row := range d.Rows {
		row[name] = values[i]
	}
	if !d.HasColumn(name) {
		d.Columns = append(d.Columns, name)
	}
	return nil
}

// Load reads a dataset from a file, dispatching on extension: .json (array of
// objects), .jsonl (one object per line), or .csv (header row required).
func Load(path string) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(path)
	case ".jsonl":
		return LoadJSONL(path)
	case ".csv":
		return LoadCSV(path)
	default:
		return nil, llm.NewError(llm.ErrorTypeDataset,
			fmt.Sprintf("unsupported dataset format: %s", path), nil)
	}
}

// LoadJSON reads an array-of-objects JSON file.
func LoadJSON(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, llm.NewError(llm.ErrorTypeDataset, "failed to read dataset", err)
	}
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, llm.NewError(llm.ErrorTypeDataset,
			fmt.Sprintf("failed to parse %s", path), err)
	}
	return New(rows), nil
}

// LoadJSONL reads a line-delimited JSON file, skipping blank lines.
func LoadJSONL(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, llm.NewError(llm.ErrorTypeDataset, "failed to read dataset", err)
	}
	defer f.Close()

	var rows []Row
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var row Row
		if err := json.Unmarshal([]byte(text), &row); err != nil {
			return nil, llm.NewError(llm.ErrorTypeDataset,
				fmt.Sprintf("failed to parse %s line %d", path, line), err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, llm.NewError(llm.ErrorTypeDataset, "failed to read dataset", err)
	}
	return New(rows), nil
}

// LoadCSV reads a CSV file whose first record is the header.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, llm.NewError(llm.ErrorTypeDataset, "failed to read dataset", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, llm.NewError(llm.ErrorTypeDataset,
			fmt.Sprintf("failed to parse %s", path), err)
	}
	if len(records) == 0 {
		return &Dataset{}, nil
	}

	header := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	d := &Dataset{Columns: header, Rows: rows}
	return d, nil
}
