package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/crimeprep/internal/encode"
	"github.com/crimeprep/internal/etl"
)

// PrepareHandler turns posted incidents into a one-hot matrix and labels
type PrepareHandler struct {
	Config *Config
}

// PrepareResponse is the encoded feature matrix
type PrepareResponse struct {
	Features []string       `json:"features"`
	X        *encode.Matrix `json:"x"`
	Y        []int          `json:"y"`
	Stats    *etl.RunStats  `json:"stats,omitempty"`
}

// Prepare handles POST /api/prepare. ?columns=a,b overrides the configured
// columns; the incidents are cleaned first unless ?clean=false.
func (h *PrepareHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	if !h.Config.Features.PrepareEnabled {
		http.Error(w, "Prepare feature disabled", http.StatusForbidden)
		return
	}

	q := r.URL.Query()
	columns := h.Config.Features.EncodeColumns
	if list := q.Get("columns"); list != "" {
		columns = strings.Split(list, ",")
	}
	clean := true
	if v := q.Get("clean"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "clean must be true or false", http.StatusBadRequest)
			return
		}
		clean = b
	}

	flags, err := FlagsFromQuery(q)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	f, err := readFrame(w, r, h.Config.MaxBodyBytes)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	var resp PrepareResponse
	if clean {
		if resp.Stats, err = etl.Clean(f, flags); err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
	}

	p, err := encode.Prepare(f, columns)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	resp.Features, resp.X, resp.Y = p.Features, p.X, p.Y
	writeJSON(w, http.StatusOK, resp)
}
