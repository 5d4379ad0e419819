// Package report renders mapping tables, value counts and run summaries as
// aligned pipe tables for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table is a header plus rows of cells.
type Table struct {
	Header []string
	Rows   [][]string

	// MaxWidth truncates cells wider than this many columns. Zero keeps them whole.
	MaxWidth int
}

// Lines lays the table out with every column padded to its widest cell by
// display width.
func (t *Table) Lines() []string {
	colCount := len(t.Header)
	for _, row := range t.Rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	cell := func(row []string, j int) string {
		if j >= len(row) {
			return ""
		}
		if t.MaxWidth > 0 {
			return runewidth.Truncate(row[j], t.MaxWidth, "...")
		}
		return row[j]
	}

	colWidths := make([]int, colCount)
	for _, row := range append([][]string{t.Header}, t.Rows...) {
		for j := 0; j < colCount; j++ {
			if w := runewidth.StringWidth(cell(row, j)); w > colWidths[j] {
				colWidths[j] = w
			}
		}
	}
	for j := range colWidths {
		if colWidths[j] < 3 {
			colWidths[j] = 3
		}
	}

	line := func(row []string, sep bool) string {
		var sb strings.Builder
		sb.WriteString("|")
		for j := 0; j < colCount; j++ {
			sb.WriteString(" ")
			if sep {
				sb.WriteString(strings.Repeat("-", colWidths[j]))
			} else {
				sb.WriteString(runewidth.FillRight(cell(row, j), colWidths[j]))
			}
			sb.WriteString(" |")
		}
		return sb.String()
	}

	lines := []string{line(t.Header, false), line(nil, true)}
	for _, row := range t.Rows {
		lines = append(lines, line(row, false))
	}
	return lines
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) error {
	for _, l := range t.Lines() {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
