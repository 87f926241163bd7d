package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Record is one row: a flat mapping of field name to string value.
// Fields absent from a record are written as empty strings.
type Record map[string]string

// Store persists tables as CSV files under a base directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the file backing the named table.
func (s *Store) Path(table string) string {
	return filepath.Join(s.dir, table+".csv")
}

// Exists reports whether the table file is present on disk.
func (s *Store) Exists(table string) bool {
	_, err := os.Stat(s.Path(table))
	return err == nil
}

// Load reads all records from a table. The first row is the header;
// remaining rows map header fields to values. A missing table yields an
// empty sequence. Rows whose cells are all empty are skipped.
func (s *Store) Load(table string) ([]Record, error) {
	f, err := os.Open(s.Path(table))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open table %s: %w", table, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows may be shorter than the header

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if allEmpty(row) {
			continue
		}
		rec := make(Record, len(header))
		for i, field := range header {
			if i < len(row) {
				rec[field] = row[i]
			} else {
				rec[field] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save replaces the table's full contents: the header row followed by
// every record's values in header order. The replacement is atomic at
// the filesystem level.
func (s *Store) Save(table string, header []string, records []Record) error {
	tmp, err := os.CreateTemp(s.dir, table+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for table %s: %w", table, err)
	}
	tmpPath := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write table %s header: %w", table, err)
	}
	row := make([]string, len(header))
	for _, rec := range records {
		for i, field := range header {
			row[i] = rec[field]
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("write table %s row: %w", table, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush table %s: %w", table, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp for table %s: %w", table, err)
	}

	if err := os.Rename(tmpPath, s.Path(table)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace table %s: %w", table, err)
	}
	return nil
}

func allEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
