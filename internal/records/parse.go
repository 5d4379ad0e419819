package records

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order by ParseTime. The first is the Chicago data
// portal export format.
var timeLayouts = []string{
	"01/02/2006 03:04:05 PM",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	"2006-01-02",
}

// ParseTime parses a timestamp in any of the supported layouts.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse %q", ErrNotTimestamp, s)
}

// ParseBool accepts the spellings found in exports and warehouse tables.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y":
		return true, nil
	case "false", "f", "0", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// Set stores v into the named column of r according to the column kind.
// v may be nil, a string, []byte, time.Time, bool, an integer or a float64, which
// covers database/sql scans and decoded JSON.
func (f *Frame) Set(r *Incident, name string, v any) error {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		f.clear(r, name)
		return nil
	}

	switch f.Kind(name) {
	case KindTime:
		t, err := toTime(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r.Date = &t
	case KindBool:
		b, err := toBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r.Arrest = &b
	case KindInt:
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if name == ColHour {
			r.Hour = &n
		} else {
			r.Month = &n
		}
	default:
		s := toText(v)
		switch name {
		case ColPrimaryType:
			r.PrimaryType = &s
		case ColLocation:
			r.LocationDescription = &s
		case ColCommunityName:
			r.CommunityName = &s
		default:
			r.SetAttr(name, &s)
		}
	}
	return nil
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		return ParseTime(x)
	}
	return time.Time{}, fmt.Errorf("%w: got %T", ErrNotTimestamp, v)
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return ParseBool(x)
	case int64:
		return x != 0, nil
	case float64:
		return x != 0, nil
	}
	return false, fmt.Errorf("invalid boolean %v", v)
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("invalid integer %v", x)
		}
		return int(x), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	}
	return 0, fmt.Errorf("invalid integer %v", v)
}

// toText renders scalar values the way they read in a spreadsheet: integral
// floats lose their fractional part so 32 and 32.0 compare equal.
func toText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
