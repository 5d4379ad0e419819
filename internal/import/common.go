package import_pkg

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/crimeprep/internal/debug"
	"github.com/crimeprep/internal/records"
)

// ErrDuplicateHeader is returned when two headers map to the same column.
var ErrDuplicateHeader = errors.New("two headers map to the same column")

// ImportStats counts the outcome of one import.
type ImportStats struct {
	Imported int
	Skipped  int
}

// CSVImporter reads incident exports into a frame
type CSVImporter struct {
	enc     encoding.Encoding
	verbose bool
}

// NewCSVImporter creates an importer for files in the named encoding.
func NewCSVImporter(encodingName string, verbose bool) (*CSVImporter, error) {
	enc, err := sourceEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return &CSVImporter{enc: enc, verbose: verbose}, nil
}

// ImportFile imports the CSV file at filename.
func (ci *CSVImporter) ImportFile(filename string) (*records.Frame, *ImportStats, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	debug.DebugOutput(ci.verbose, "Importing incidents from %s...", filename)
	return ci.Import(file)
}

// Import reads a header row and then one incident per record. Empty cells are
// null. Records with the wrong number of fields are skipped and counted.
func (ci *CSVImporter) Import(r io.Reader) (*records.Frame, *ImportStats, error) {
	reader := csv.NewReader(transform.NewReader(r, ci.enc.NewDecoder()))

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	seen := make(map[string]string, len(header))
	for i, h := range header {
		name := ColumnName(h)
		if prev, ok := seen[name]; ok {
			return nil, nil, fmt.Errorf("%w: %q and %q", ErrDuplicateHeader, prev, h)
		}
		seen[name] = h
		columns[i] = name
	}

	stats := &ImportStats{}
	var rows [][]any
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && errors.Is(perr.Err, csv.ErrFieldCount) {
				debug.DebugOutput(ci.verbose, "Skipping CSV record: %v", err)
				stats.Skipped++
				continue
			}
			return nil, nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		vals := make([]any, len(columns))
		for i, cell := range record {
			if cell != "" {
				vals[i] = cell
			}
		}
		rows = append(rows, vals)

		stats.Imported++
		if stats.Imported%100000 == 0 {
			debug.DebugOutput(ci.verbose, "Imported %d records...", stats.Imported)
		}
	}

	f, err := records.FromRows(columns, rows)
	if err != nil {
		return nil, nil, err
	}

	debug.DebugOutput(ci.verbose, "Import complete: %d records imported, %d skipped", stats.Imported, stats.Skipped)
	return f, stats, nil
}
