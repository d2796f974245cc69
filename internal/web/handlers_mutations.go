package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/szamlaconv/internal/core"
	"github.com/go-chi/chi/v5"
)

// handleUpdateField sets the value of an editable text or date field.
// Rows keep their values until POST /api/resolve.
func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	value, err := decodeValue(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.UpdateField(r.Context(), name, value); err != nil {
		s.respondError(w, r, err)
		return
	}

	for _, f := range s.service.Fields() {
		if f.Name == name {
			writeJSON(w, f)
			return
		}
	}
	writeJSON(w, core.FieldView{Name: name, Value: value})
}

// handleUpdateCell edits one resolved cell. Rows are zero-based.
func (s *Server) handleUpdateCell(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid row index")
		return
	}
	field := chi.URLParam(r, "field")

	value, err := decodeValue(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.UpdateCell(r.Context(), row, field, value); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]any{
		"row":   row,
		"field": field,
		"value": value,
	})
}
