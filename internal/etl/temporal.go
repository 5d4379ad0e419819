package etl

import (
	"github.com/crimeprep/internal/records"
)

// Category domains of the derived columns. Hour shares the month domain, so
// hours 0 and 13-23 have no category and become null.
// TODO: confirm with the modeling side whether Hour should cover 0-23.
const (
	monthMin, monthMax = 1, 12
	hourMin, hourMax   = 1, 12
)

// AddMonth derives the Month column from date.
func AddMonth(f *records.Frame) error {
	if err := f.RequireTime(records.ColDate); err != nil {
		return err
	}
	f.AddColumn(records.ColMonth, records.KindInt)
	for _, r := range f.Rows {
		r.Month = nil
		if r.Date != nil {
			r.Month = categorical(int(r.Date.Month()), monthMin, monthMax)
		}
	}
	return nil
}

// AddHour derives the Hour column from date.
func AddHour(f *records.Frame) error {
	if err := f.RequireTime(records.ColDate); err != nil {
		return err
	}
	f.AddColumn(records.ColHour, records.KindInt)
	for _, r := range f.Rows {
		r.Hour = nil
		if r.Date != nil {
			r.Hour = categorical(r.Date.Hour(), hourMin, hourMax)
		}
	}
	return nil
}

// categorical returns v when it lies in [lo, hi], nil otherwise.
func categorical(v, lo, hi int) *int {
	if v < lo || v > hi {
		return nil
	}
	return &v
}
