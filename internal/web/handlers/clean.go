package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/crimeprep/internal/etl"
	import_pkg "github.com/crimeprep/internal/import"
	"github.com/crimeprep/internal/records"
)

var errBadBody = errors.New("invalid request body")

// CleanHandler runs the cleaning pipeline over posted incidents
type CleanHandler struct {
	Config *Config
}

// CleanRequest carries incidents as JSON objects keyed by column name
type CleanRequest struct {
	Records []map[string]any `json:"records"`
}

// CleanResponse returns the cleaned incidents and what the run changed
type CleanResponse struct {
	Columns []string         `json:"columns"`
	Records []map[string]any `json:"records"`
	Stats   *etl.RunStats    `json:"stats"`
}

// Clean handles POST /api/clean. Stages are chosen with ?stages=a,b or with
// per-stage toggles such as ?add_hour=false; the body is JSON or text/csv.
func (h *CleanHandler) Clean(w http.ResponseWriter, r *http.Request) {
	flags, err := FlagsFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	f, err := readFrame(w, r, h.Config.MaxBodyBytes)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	stats, err := etl.Clean(f, flags)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, CleanResponse{
		Columns: f.Columns(),
		Records: f.Maps(),
		Stats:   stats,
	})
}

// stageToggles names the query parameter of each stage flag.
var stageToggles = map[string]func(*etl.Flags) *bool{
	"normalize_category": func(fl *etl.Flags) *bool { return &fl.NormalizeCategory },
	"impute_location":    func(fl *etl.Flags) *bool { return &fl.ImputeLocation },
	"normalize_location": func(fl *etl.Flags) *bool { return &fl.NormalizeLocation },
	"add_month":          func(fl *etl.Flags) *bool { return &fl.AddMonth },
	"add_hour":           func(fl *etl.Flags) *bool { return &fl.AddHour },
	"filter_community":   func(fl *etl.Flags) *bool { return &fl.FilterCommunity },
	"verbose":            func(fl *etl.Flags) *bool { return &fl.Verbose },
}

// FlagsFromQuery reads stage selection from query parameters. Without any
// every stage runs.
func FlagsFromQuery(q url.Values) (etl.Flags, error) {
	fl := etl.DefaultFlags()
	if list := q.Get("stages"); list != "" {
		stages, err := etl.ParseStages(strings.Split(list, ","))
		if err != nil {
			return fl, err
		}
		fl = etl.FlagsFor(stages, false)
	}

	for name, field := range stageToggles {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fl, fmt.Errorf("%w: %s=%q", errBadBody, name, v)
		}
		*field(&fl) = b
	}
	return fl, nil
}

// readFrame decodes the request body into a frame.
func readFrame(w http.ResponseWriter, r *http.Request, limit int64) (*records.Frame, error) {
	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/csv" {
		ci, err := import_pkg.NewCSVImporter(r.URL.Query().Get("encoding"), false)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errBadBody, err)
		}
		f, _, err := ci.Import(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errBadBody, err)
		}
		return f, nil
	}

	var req CleanRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadBody, err)
	}
	f, err := records.FromMaps(req.Records)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadBody, err)
	}
	return f, nil
}
