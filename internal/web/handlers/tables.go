package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crimeprep/internal/normalize"
	"github.com/crimeprep/internal/report"
)

// TablesHandler serves the rewrite and imputation tables
type TablesHandler struct{}

// TableResponse is one mapping table
type TableResponse struct {
	Name       string                 `json:"name"`
	Sources    int                    `json:"sources"`
	Canonicals []string               `json:"canonicals,omitempty"`
	Mappings   []normalize.Mapping    `json:"mappings,omitempty"`
	Rules      []normalize.ImputeRule `json:"rules,omitempty"`
}

// GetTable returns the table named in the path. ?format=text renders it as an
// aligned text table.
func (h *TablesHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var resp TableResponse
	var text *report.Table
	switch name {
	case "category":
		resp = tableResponse(name, normalize.CategoryTable)
		text = report.Mappings(normalize.CategoryTable)
	case "location":
		resp = tableResponse(name, normalize.LocationTable)
		text = report.Mappings(normalize.LocationTable)
	case "impute":
		resp = TableResponse{Name: name, Rules: normalize.LocationImputeRules}
		for _, rule := range normalize.LocationImputeRules {
			resp.Sources += len(rule.Categories)
		}
		text = report.ImputeRules(normalize.LocationImputeRules)
	default:
		http.Error(w, "Unknown table. Use 'category', 'location' or 'impute'", http.StatusNotFound)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		text.Render(w)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func tableResponse(name string, t *normalize.Table) TableResponse {
	return TableResponse{
		Name:       name,
		Sources:    t.Size(),
		Canonicals: t.Canonicals(),
		Mappings:   t.Mappings,
	}
}
