package fetch

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/crimeprep/internal/records"
)

// ErrDuplicateDistrict is returned when two district rows share a community_area.
var ErrDuplicateDistrict = errors.New("community_area listed more than once in districts")

// districtSuffix renames a district column that the incidents already carry.
const districtSuffix = "_district"

// JoinStats counts how the two sides of a join matched up.
type JoinStats struct {
	Matched            int `json:"matched"`
	UnmatchedIncidents int `json:"unmatched_incidents"`
	UnmatchedDistricts int `json:"unmatched_districts"`
}

// Join outer-joins districts onto incidents by community_area, compared as
// text, then drops community_area. Incidents without a district keep null
// district columns; districts without incidents are appended as rows holding
// only district columns. incidents is modified in place.
func Join(incidents, districts *records.Frame) (JoinStats, error) {
	var stats JoinStats
	if err := incidents.Require(records.ColCommunityArea); err != nil {
		return stats, fmt.Errorf("incidents: %w", err)
	}
	if err := districts.Require(records.ColCommunityArea, records.ColCommunityName); err != nil {
		return stats, fmt.Errorf("districts: %w", err)
	}

	index := make(map[string]*records.Incident, districts.Len())
	for _, d := range districts.Rows {
		key, ok := joinKey(districts, d)
		if !ok {
			continue
		}
		if _, dup := index[key]; dup {
			return stats, fmt.Errorf("%w: %s", ErrDuplicateDistrict, key)
		}
		index[key] = d
	}

	carried := make(map[string]string)
	var order []string
	for _, c := range districts.Columns() {
		if c == records.ColCommunityArea {
			continue
		}
		out := c
		if incidents.HasColumn(c) {
			out = c + districtSuffix
		}
		carried[c] = out
		order = append(order, c)
	}
	for _, c := range order {
		incidents.AddColumn(carried[c], districts.Kind(c))
	}

	used := make(map[*records.Incident]bool, len(index))
	for _, r := range incidents.Rows {
		key, ok := joinKey(incidents, r)
		d := index[key]
		if !ok || d == nil {
			stats.UnmatchedIncidents++
			continue
		}
		if err := copyDistrict(incidents, r, districts, d, order, carried); err != nil {
			return stats, err
		}
		used[d] = true
		stats.Matched++
	}

	for _, d := range districts.Rows {
		if used[d] {
			continue
		}
		r := &records.Incident{}
		if err := copyDistrict(incidents, r, districts, d, order, carried); err != nil {
			return stats, err
		}
		incidents.Append(r)
		stats.UnmatchedDistricts++
	}

	incidents.DropColumn(records.ColCommunityArea)
	return stats, nil
}

func copyDistrict(dst *records.Frame, r *records.Incident, src *records.Frame, d *records.Incident, order []string, carried map[string]string) error {
	for _, c := range order {
		var v any
		if s, ok := src.Value(d, c); ok {
			v = s
		}
		if err := dst.Set(r, carried[c], v); err != nil {
			return fmt.Errorf("district %s: %w", c, err)
		}
	}
	return nil
}

// joinKey renders community_area as text. Integral numbers lose any decimal
// part so that 32 and 32.0 meet.
func joinKey(f *records.Frame, r *records.Incident) (string, bool) {
	v, ok := f.Value(r, records.ColCommunityArea)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.ParseFloat(v, 64); err == nil && n == math.Trunc(n) && !math.IsInf(n, 0) {
		return strconv.FormatInt(int64(n), 10), true
	}
	return v, true
}
