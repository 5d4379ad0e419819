// Package records holds the in-memory incident frame that every cleaning stage
// receives and mutates in place.
package records

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Column names consumed or produced by the pipeline.
const (
	ColPrimaryType   = "primary_type"
	ColLocation      = "location_description"
	ColDate          = "date"
	ColCommunityName = "community_name"
	ColCommunityArea = "community_area"
	ColArrest        = "arrest"
	ColMonth         = "Month"
	ColHour          = "Hour"
)

// Frame faults.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrNotTimestamp  = errors.New("column is not a timestamp")
)

// Kind is the storage type of a column.
type Kind int

const (
	KindString Kind = iota
	KindTime
	KindBool
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindTime:
		return "timestamp"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	default:
		return "string"
	}
}

// defaultKinds gives the typed fields of Incident their storage kind. Every
// other column is a nullable string attribute.
var defaultKinds = map[string]Kind{
	ColPrimaryType:   KindString,
	ColLocation:      KindString,
	ColDate:          KindTime,
	ColCommunityName: KindString,
	ColArrest:        KindBool,
	ColMonth:         KindInt,
	ColHour:          KindInt,
}

// Incident is one record. A nil pointer is a null value.
type Incident struct {
	Index               int
	PrimaryType         *string
	LocationDescription *string
	Date                *time.Time
	CommunityName       *string
	Arrest              *bool
	Month               *int
	Hour                *int

	// Attrs holds every other column by name.
	Attrs map[string]*string
}

// Attr returns the named attribute, nil when null or absent.
func (r *Incident) Attr(name string) *string {
	if r.Attrs == nil {
		return nil
	}
	return r.Attrs[name]
}

// SetAttr sets the named attribute.
func (r *Incident) SetAttr(name string, v *string) {
	if r.Attrs == nil {
		r.Attrs = make(map[string]*string)
	}
	r.Attrs[name] = v
}

// Frame is an ordered, owned collection of incidents plus the columns present.
// Stages receive the frame by pointer and mutate rows in place; nothing copies it.
type Frame struct {
	columns []string
	kinds   map[string]Kind
	Rows    []*Incident
}

// NewFrame creates an empty frame with the given columns. Typed fields of
// Incident get their natural kind, everything else is a string attribute.
func NewFrame(columns ...string) *Frame {
	f := &Frame{kinds: make(map[string]Kind)}
	for _, c := range columns {
		f.AddColumn(c, KindFor(c))
	}
	return f
}

// KindFor returns the default storage kind of a column name.
func KindFor(name string) Kind {
	if k, ok := defaultKinds[name]; ok {
		return k
	}
	return KindString
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// HasColumn reports whether the column is present.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.kinds[name]
	return ok
}

// Kind returns the storage kind of a present column.
func (f *Frame) Kind(name string) Kind {
	return f.kinds[name]
}

// AddColumn appends a column or updates the kind of an existing one.
func (f *Frame) AddColumn(name string, kind Kind) {
	if f.kinds == nil {
		f.kinds = make(map[string]Kind)
	}
	if _, ok := f.kinds[name]; !ok {
		f.columns = append(f.columns, name)
	}
	f.kinds[name] = kind
}

// DropColumn removes a column and its values from every row.
func (f *Frame) DropColumn(name string) {
	if !f.HasColumn(name) {
		return
	}
	delete(f.kinds, name)
	for i, c := range f.columns {
		if c == name {
			f.columns = append(f.columns[:i], f.columns[i+1:]...)
			break
		}
	}
	for _, r := range f.Rows {
		f.clear(r, name)
	}
}

// Require returns ErrMissingColumn for the first absent column.
func (f *Frame) Require(names ...string) error {
	for _, n := range names {
		if !f.HasColumn(n) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, n)
		}
	}
	return nil
}

// RequireTime checks that the column is present and holds timestamps.
func (f *Frame) RequireTime(name string) error {
	if err := f.Require(name); err != nil {
		return err
	}
	if f.kinds[name] != KindTime {
		return fmt.Errorf("%w: %s is %s", ErrNotTimestamp, name, f.kinds[name])
	}
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Append adds rows at the end, assigning each the next index.
func (f *Frame) Append(rows ...*Incident) {
	for _, r := range rows {
		r.Index = len(f.Rows)
		f.Rows = append(f.Rows, r)
	}
}

// Filter keeps the rows for which keep returns true, preserving their order,
// and returns how many rows were removed. Indexes are left untouched until
// Reindex is called.
func (f *Frame) Filter(keep func(*Incident) bool) int {
	kept := f.Rows[:0]
	for _, r := range f.Rows {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	removed := len(f.Rows) - len(kept)
	for i := len(kept); i < len(f.Rows); i++ {
		f.Rows[i] = nil
	}
	f.Rows = kept
	return removed
}

// Reindex rewrites every row index to its zero-based position.
func (f *Frame) Reindex() {
	for i, r := range f.Rows {
		r.Index = i
	}
}

// Value renders the named column of a row as text. ok is false for null.
func (f *Frame) Value(r *Incident, name string) (string, bool) {
	if f.kinds[name] == KindString {
		if p := f.stringField(r, name); p != nil {
			return *p, true
		}
		return "", false
	}
	switch name {
	case ColDate:
		if r.Date == nil {
			return "", false
		}
		return r.Date.Format(time.RFC3339), true
	case ColArrest:
		if r.Arrest == nil {
			return "", false
		}
		return strconv.FormatBool(*r.Arrest), true
	case ColMonth:
		return intValue(r.Month)
	case ColHour:
		return intValue(r.Hour)
	}
	return "", false
}

// Text returns a string-kind column of r, nil when null.
func (f *Frame) Text(r *Incident, name string) *string {
	return f.stringField(r, name)
}

// SetText stores a string-kind column of r.
func (f *Frame) SetText(r *Incident, name string, v *string) {
	switch name {
	case ColPrimaryType:
		r.PrimaryType = v
	case ColLocation:
		r.LocationDescription = v
	case ColCommunityName:
		r.CommunityName = v
	default:
		r.SetAttr(name, v)
	}
}

// stringField resolves a string-kind column to its storage slot. A date column
// demoted to text lives in Attrs under its own name.
func (f *Frame) stringField(r *Incident, name string) *string {
	switch name {
	case ColPrimaryType:
		return r.PrimaryType
	case ColLocation:
		return r.LocationDescription
	case ColCommunityName:
		return r.CommunityName
	}
	return r.Attr(name)
}

func (f *Frame) clear(r *Incident, name string) {
	switch name {
	case ColPrimaryType:
		r.PrimaryType = nil
	case ColLocation:
		r.LocationDescription = nil
	case ColDate:
		r.Date = nil
	case ColCommunityName:
		r.CommunityName = nil
	case ColArrest:
		r.Arrest = nil
	case ColMonth:
		r.Month = nil
	case ColHour:
		r.Hour = nil
	}
	if r.Attrs != nil {
		delete(r.Attrs, name)
	}
}

func intValue(p *int) (string, bool) {
	if p == nil {
		return "", false
	}
	return strconv.Itoa(*p), true
}

// Str returns a pointer to s.
func Str(s string) *string {
	return &s
}

// Int returns a pointer to n.
func Int(n int) *int {
	return &n
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// Time returns a pointer to t.
func Time(t time.Time) *time.Time {
	return &t
}
