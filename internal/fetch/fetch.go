// Package fetch pulls raw incidents from the warehouse and attaches the
// community names of the district lookup.
package fetch

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/crimeprep/internal/debug"
	"github.com/crimeprep/internal/records"
)

// Rows is the subset of *sql.Rows the fetcher reads.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Querier runs a query and returns its rows.
type Querier interface {
	Query(ctx context.Context, query string) (Rows, error)
}

// SQLQuerier runs queries on a database/sql handle.
type SQLQuerier struct {
	DB *sql.DB
}

// Query implements Querier.
func (q SQLQuerier) Query(ctx context.Context, query string) (Rows, error) {
	return q.DB.QueryContext(ctx, query)
}

// Fetcher queries incidents and joins them to the district lookup.
type Fetcher struct {
	q       Querier
	verbose bool
}

// NewFetcher creates a fetcher over q.
func NewFetcher(q Querier, verbose bool) *Fetcher {
	return &Fetcher{q: q, verbose: verbose}
}

// Query runs query and scans every row into a frame, keeping the column order
// of the result set.
func (f *Fetcher) Query(ctx context.Context, query string) (*records.Frame, error) {
	rows, err := f.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouse: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var values [][]any
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(values), err)
		}
		values = append(values, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return records.FromRows(columns, values)
}

// Fetch queries the incidents, reads the district workbook at districtsPath,
// outer-joins the two on community_area and drops that key.
func (f *Fetcher) Fetch(ctx context.Context, query, districtsPath string) (*records.Frame, error) {
	defer debug.DebugTiming(f.verbose, "fetch")()
	debug.DebugOutput(f.verbose, "Fetching Chicago Data Started...")

	crimes, err := f.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	debug.DebugOutput(f.verbose, "Successfully queried the warehouse (%d rows).", crimes.Len())

	if _, err := AttachDistricts(crimes, districtsPath, f.verbose); err != nil {
		return nil, err
	}

	debug.DebugOutput(f.verbose, "Successfully fetched Chicago Data")

	return crimes, nil
}

// AttachDistricts reads the district workbook at path and outer-joins it to
// incidents on community_area, dropping the key. incidents is modified in place.
func AttachDistricts(incidents *records.Frame, path string, verbose bool) (JoinStats, error) {
	districts, err := LoadDistricts(path)
	if err != nil {
		return JoinStats{}, err
	}
	debug.DebugOutput(verbose, "Successfully read in excel file (%d districts).", districts.Len())

	stats, err := Join(incidents, districts)
	if err != nil {
		return JoinStats{}, err
	}
	debug.DebugOutput(verbose, "Successfully joined Chicago districts to main data (%d matched, %d incidents and %d districts unmatched).",
		stats.Matched, stats.UnmatchedIncidents, stats.UnmatchedDistricts)
	debug.DebugOutput(verbose, "Successfully dropped duplicate column")

	return stats, nil
}
