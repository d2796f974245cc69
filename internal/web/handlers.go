package web

import (
	"net/http"

	"github.com/JonMunkholm/szamlaconv/internal/core"
)

// templateResponse is the JSON form of the parsed output template.
type templateResponse struct {
	Header []string   `json:"header"`
	Groups [][]string `json:"groups"`
	Tokens []string   `json:"tokens"`
}

// handleHealth reports liveness plus the loaded document sizes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":         "ok",
		"fields":         len(s.service.Fields()),
		"encoding":       s.service.OutputEncodingName(),
		"active_uploads": s.limiter.Active(),
	})
}

// handleListFields returns the catalog in declaration order.
func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Fields())
}

// handleTemplate returns the header lines and column groups.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	t := s.service.Template()

	resp := templateResponse{
		Header: t.Header,
		Groups: make([][]string, len(t.Groups)),
		Tokens: t.Tokens(),
	}
	if resp.Header == nil {
		resp.Header = []string{}
	}
	for i, g := range t.Groups {
		resp.Groups[i] = []string(g)
	}
	writeJSON(w, resp)
}

// handleReload re-reads the field definitions and the template from disk.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Reload(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, s.service.Fields())
}

// handleHistory lists recent exports, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", core.DefaultHistoryLimit)
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if records == nil {
		records = []core.ConversionRecord{}
	}
	writeJSON(w, records)
}
