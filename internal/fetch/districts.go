package fetch

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/crimeprep/internal/records"
)

// Workbook errors.
var (
	ErrNoSheets  = errors.New("workbook has no sheets")
	ErrNoHeader  = errors.New("sheet has no header row")
	ErrBadHeader = errors.New("invalid header cell")
)

// LoadDistricts reads the district lookup from the first sheet of the .xlsx
// workbook at path. The first row is the header and must name community_area
// and community_name; any other columns are carried along.
func LoadDistricts(path string) (*records.Frame, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer wb.Close()

	return readDistricts(wb)
}

// ReadDistricts is LoadDistricts for a workbook already in memory.
func ReadDistricts(r io.Reader) (*records.Frame, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	return readDistricts(wb)
}

func readDistricts(wb *excelize.File) (*records.Frame, error) {
	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoHeader, sheets[0])
	}

	header := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(rows[0]))
	for i, cell := range rows[0] {
		name := strings.TrimSpace(cell)
		if name == "" || seen[name] {
			return nil, fmt.Errorf("%w: column %d %q", ErrBadHeader, i+1, cell)
		}
		seen[name] = true
		header[i] = name
	}

	var values [][]any
	for _, row := range rows[1:] {
		vals := make([]any, len(header))
		empty := true
		for i := range header {
			if i < len(row) {
				if cell := strings.TrimSpace(row[i]); cell != "" {
					vals[i] = cell
					empty = false
				}
			}
		}
		if !empty {
			values = append(values, vals)
		}
	}

	f, err := records.FromRows(header, values)
	if err != nil {
		return nil, err
	}
	if err := f.Require(records.ColCommunityArea, records.ColCommunityName); err != nil {
		return nil, err
	}
	return f, nil
}
