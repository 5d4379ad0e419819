package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/crimeprep/internal/encode"
	"github.com/crimeprep/internal/etl"
	"github.com/crimeprep/internal/records"
)

// Config represents the handler configuration (kept apart from web.Config to
// avoid an import cycle)
type Config struct {
	Features struct {
		PrepareEnabled bool     `json:"prepare_enabled"`
		EncodeColumns  []string `json:"encode_columns"`
	} `json:"features"`
	MaxBodyBytes int64 `json:"max_body_bytes"`
}

// APIHandler handles general API endpoints
type APIHandler struct {
	Config  *Config
	Started time.Time
}

// HealthResponse reports that the service is up
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// StageInfo describes one cleaning stage
type StageInfo struct {
	Name    etl.Stage `json:"name"`
	Order   int       `json:"order"`
	Default bool      `json:"default"`
}

// Health returns the service status
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(h.Started).Round(time.Second).String(),
	})
}

// Stages lists the cleaning stages in run order
func (h *APIHandler) Stages(w http.ResponseWriter, r *http.Request) {
	defaults := make(map[etl.Stage]bool)
	for _, s := range etl.DefaultFlags().Stages() {
		defaults[s] = true
	}

	var out []StageInfo
	for i, s := range etl.AllStages() {
		out = append(out, StageInfo{Name: s, Order: i + 1, Default: defaults[s]})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadBody),
		errors.Is(err, etl.ErrUnknownStage),
		errors.Is(err, etl.ErrDuplicateStage),
		errors.Is(err, etl.ErrStageOrder):
		return http.StatusBadRequest
	case errors.Is(err, records.ErrMissingColumn),
		errors.Is(err, records.ErrNotTimestamp),
		errors.Is(err, encode.ErrNoColumns),
		errors.Is(err, encode.ErrUnknownCategory),
		errors.Is(err, encode.ErrNullClash):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
