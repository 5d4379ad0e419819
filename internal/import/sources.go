package import_pkg

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"

	"github.com/crimeprep/internal/records"
)

// ErrUnknownEncoding is returned for a source encoding with no decoder.
var ErrUnknownEncoding = errors.New("unknown source encoding")

// ColLocationPoint holds the "(lat, long)" point of a portal export. It is
// kept apart from location_description.
const ColLocationPoint = "location_point"

// headerAliases maps normalized export headers that do not already match a
// pipeline column name.
// Chicago data portal: ID,Case Number,Date,Block,IUCR,Primary Type,Description,
// Location Description,Arrest,Domestic,Beat,District,Ward,Community Area,FBI Code,
// X Coordinate,Y Coordinate,Year,Updated On,Latitude,Longitude,Location
var headerAliases = map[string]string{
	"community":           records.ColCommunityName,
	"community_area_name": records.ColCommunityName,
	"month":               records.ColMonth,
	"hour":                records.ColHour,
	"primary_description": records.ColPrimaryType,
	"location":            ColLocationPoint,
	"occurred_at":         records.ColDate,
	"date_of_occurrence":  records.ColDate,
}

// ColumnName turns an export header into a pipeline column name: lower case,
// runs of anything but letters and digits replaced by one underscore, then
// the alias table.
func ColumnName(header string) string {
	header = strings.TrimPrefix(header, "\ufeff")
	header = strings.ToLower(strings.TrimSpace(header))

	var b strings.Builder
	pending := false
	for _, r := range header {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteRune('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}

	name := b.String()
	if alias, ok := headerAliases[name]; ok {
		return alias
	}
	return name
}

// sourceEncoding resolves an encoding name. The empty name means UTF-8 with
// an optional byte order mark.
func sourceEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return xunicode.UTF8BOM, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "utf-16", "utf-16le":
		return xunicode.UTF16(xunicode.LittleEndian, xunicode.UseBOM), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}
