package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimeprep/internal/config"
	"github.com/crimeprep/internal/web/handlers"
)

const incidentsJSON = `{"records": [
	{"primary_type": "CRIM SEXUAL ASSAULT", "location_description": null, "date": "2020-05-14T03:00:00Z", "community_name": "Loop", "arrest": true},
	{"primary_type": "THEFT", "location_description": "CTA BUS STOP", "date": "2019-12-01T18:30:00Z", "community_name": null, "arrest": false},
	{"primary_type": "NARCOTICS", "location_description": "BOWLING ALLEY", "date": "2021-01-09T10:15:00Z", "community_name": "Uptown", "arrest": false}
]}`

func newTestServer(t *testing.T, mutate func(*Config)) http.Handler {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return NewServer(cfg).Handler()
}

func do(t *testing.T, h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndStages(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, "GET", "/api/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = do(t, h, "GET", "/api/stages", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stages []handlers.StageInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stages))
	require.Len(t, stages, 6)
	assert.Equal(t, "normalize-category", string(stages[0].Name))
	assert.Equal(t, "filter-community", string(stages[5].Name))
}

func TestTables(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, "GET", "/api/tables/location", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var table handlers.TableResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	assert.Len(t, table.Mappings, 24)
	require.Len(t, table.Canonicals, 24)
	assert.Equal(t, "CTA", table.Canonicals[0])
	assert.Equal(t, "OTHER", table.Canonicals[23])

	rec = do(t, h, "GET", "/api/tables/impute", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	assert.Len(t, table.Rules, 3)

	rec = do(t, h, "GET", "/api/tables/category?format=text", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "| CRIMINAL SEXUAL ASSAULT")

	rec = do(t, h, "GET", "/api/tables/weather", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCleanRoundTrip(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, "POST", "/api/clean", "application/json", incidentsJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.CleanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Records, 2)
	first := resp.Records[0]
	assert.Equal(t, "CRIMINAL SEXUAL ASSAULT", first["primary_type"])
	assert.Equal(t, "RESIDENCE", first["location_description"])
	assert.Equal(t, float64(5), first["Month"])
	assert.Equal(t, float64(3), first["Hour"])
	assert.Equal(t, "STORE", resp.Records[1]["location_description"])
	assert.Equal(t, float64(10), resp.Records[1]["Hour"])

	assert.Equal(t, 3, resp.Stats.RowsIn)
	assert.Equal(t, 1, resp.Stats.RowsDropped)
	assert.Contains(t, resp.Columns, "Hour")
}

func TestCleanStageSelection(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, "POST", "/api/clean?filter_community=false&add_hour=false", "application/json", incidentsJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.CleanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Records, 3)
	assert.NotContains(t, resp.Columns, "Hour")
	assert.Equal(t, "CTA", resp.Records[1]["location_description"])

	rec = do(t, h, "POST", "/api/clean?stages=normalize-location,impute-location", "application/json", incidentsJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "out of order")

	rec = do(t, h, "POST", "/api/clean?add_hour=sometimes", "application/json", incidentsJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCleanCSV(t *testing.T) {
	h := newTestServer(t, nil)
	csv := "Date,Primary Type,Location Description,Community\n05/14/2020 03:00:00 AM,RITUALISM,,Loop\n"

	rec := do(t, h, "POST", "/api/clean", "text/csv; charset=utf-8", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.CleanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "OTHER OFFENSE", resp.Records[0]["primary_type"])
	assert.Equal(t, "RESIDENCE", resp.Records[0]["location_description"])
}

func TestCleanErrors(t *testing.T) {
	h := newTestServer(t, func(c *Config) { c.Server.MaxBodyBytes = 64 })

	rec := do(t, h, "POST", "/api/clean", "application/json", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "POST", "/api/clean", "application/json", `{"records":[{"primary_type":"THEFT"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "location column missing")

	rec = do(t, h, "POST", "/api/clean", "application/json", incidentsJSON)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCleanRejectsUnparsedDates(t *testing.T) {
	h := newTestServer(t, nil)
	body := `{"records":[{"primary_type":"THEFT","location_description":"STREET","date":"yesterday","community_name":"Loop"}]}`

	rec := do(t, h, "POST", "/api/clean", "application/json", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "not a timestamp")
}

func TestPrepare(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, "POST", "/api/prepare?columns=primary_type,Hour", "application/json", incidentsJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.PrepareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"primary_type_CRIMINAL SEXUAL ASSAULT", "primary_type_NARCOTICS", "Hour_3", "Hour_10"}, resp.Features)
	assert.Equal(t, []int{1, 0}, resp.Y)
	assert.Equal(t, 2, resp.X.Rows)
	assert.Equal(t, []int{0, 2, 1, 3}, resp.X.Indices)

	rec = do(t, h, "POST", "/api/prepare?columns=beat", "application/json", incidentsJSON)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPrepareDisabled(t *testing.T) {
	h := newTestServer(t, func(c *Config) { c.Features.PrepareEnabled = false })

	rec := do(t, h, "POST", "/api/prepare", "application/json", incidentsJSON)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthentication(t *testing.T) {
	cfg := config.Default()
	cfg.Server.APIKey = "s3cret"
	h := NewServer(FromConfig(cfg)).Handler()

	rec := do(t, h, "GET", "/api/stages", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest("GET", "/api/stages", nil)
	req.Header.Set("X-API-Key", "s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, "GET", "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health is public")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, nil)

	req := httptest.NewRequest("OPTIONS", "/api/clean", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestFromConfigAddr(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 9090

	wc := FromConfig(cfg)
	assert.Equal(t, "127.0.0.1:9090", wc.Server.Addr())
	assert.Equal(t, "127.0.0.1:9090", NewServer(wc).httpServer.Addr)

	wc.Server.Host = "::1"
	assert.Equal(t, "[::1]:9090", wc.Server.Addr())
}
