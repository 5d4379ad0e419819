package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/crimeprep/internal/etl"
	"github.com/crimeprep/internal/normalize"
	"github.com/crimeprep/internal/records"
)

// nullLabel stands for a null value in counts.
const nullLabel = "<null>"

// Mappings lists each canonical label with its source values.
func Mappings(t *normalize.Table) *Table {
	out := &Table{Header: []string{"Canonical", "Sources", "Count"}}
	for _, m := range t.Mappings {
		out.Rows = append(out.Rows, []string{
			m.Canonical,
			strings.Join(quoteEmpty(m.Sources), ", "),
			strconv.Itoa(len(m.Sources)),
		})
	}
	return out
}

// ImputeRules lists the location each rule fills in.
func ImputeRules(rs normalize.ImputeRules) *Table {
	out := &Table{Header: []string{"Order", "Categories", "Location"}}
	for i, r := range rs {
		out.Rows = append(out.Rows, []string{
			strconv.Itoa(i + 1),
			strings.Join(r.Categories, ", "),
			r.Location,
		})
	}
	return out
}

// Count is how often one value occurs in a column.
type Count struct {
	Value string `json:"value"`
	Null  bool   `json:"null,omitempty"`
	N     int    `json:"n"`
}

// ValueCounts counts the values of column, most frequent first, ties by value.
func ValueCounts(f *records.Frame, column string) ([]Count, error) {
	if err := f.Require(column); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	nulls := 0
	for _, r := range f.Rows {
		v, ok := f.Value(r, column)
		if !ok {
			nulls++
			continue
		}
		counts[v]++
	}

	out := make([]Count, 0, len(counts)+1)
	for v, n := range counts {
		out = append(out, Count{Value: v, N: n})
	}
	if nulls > 0 {
		out = append(out, Count{Value: nullLabel, Null: true, N: nulls})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		if out[i].Null != out[j].Null {
			return !out[i].Null
		}
		return out[i].Value < out[j].Value
	})
	return out, nil
}

// Counts renders value counts with their share of the total.
func Counts(column string, counts []Count) *Table {
	total := 0
	for _, c := range counts {
		total += c.N
	}
	out := &Table{Header: []string{column, "Rows", "Share"}}
	for _, c := range counts {
		share := 0.0
		if total > 0 {
			share = 100 * float64(c.N) / float64(total)
		}
		out.Rows = append(out.Rows, []string{
			quoteEmpty([]string{c.Value})[0],
			strconv.Itoa(c.N),
			fmt.Sprintf("%.1f%%", share),
		})
	}
	return out
}

// Run summarises a pipeline run, one line per stage.
func Run(stats *etl.RunStats) *Table {
	out := &Table{Header: []string{"Stage", "Changed", "Took"}}
	for _, s := range stats.Stages {
		changed := "-"
		switch s {
		case etl.StageNormalizeCategory:
			changed = strconv.Itoa(stats.CategoriesRewritten)
		case etl.StageImputeLocation:
			changed = strconv.Itoa(stats.LocationsImputed)
		case etl.StageNormalizeLocation:
			changed = strconv.Itoa(stats.LocationsRewritten)
		case etl.StageFilterCommunity:
			changed = strconv.Itoa(stats.RowsDropped)
		}
		out.Rows = append(out.Rows, []string{
			string(s),
			changed,
			stats.Durations[s].Round(time.Microsecond).String(),
		})
	}
	out.Rows = append(out.Rows, []string{"rows", fmt.Sprintf("%d -> %d", stats.RowsIn, stats.RowsOut), ""})
	return out
}

func quoteEmpty(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		if v == "" {
			v = `""`
		}
		out[i] = v
	}
	return out
}
