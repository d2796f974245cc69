package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Download names.
const (
	exportFilename = "szamla_import.csv"
	workFilename   = "work.csv"
)

// handleGetData returns the resolved table, including cell edits.
func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Table()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}

// handleResolve re-resolves the loaded source with the current field values.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Resolve(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}

// handleExport renders the invoicing import file as a download.
// Nothing is written before assembly succeeds, so encoding failures still
// get a JSON error naming the row and field.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.Export(withRequestMetadata(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	charset := strings.ToLower(s.service.OutputEncodingName())
	writeDownload(w, "text/csv; charset="+charset, exportFilename, data)
}

// handleExportWork downloads the resolved table as a UTF-8 work file.
func (s *Server) handleExportWork(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.service.ExportWork(r.Context(), &buf); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeDownload(w, "text/csv; charset=utf-8", workFilename, buf.Bytes())
}

func writeDownload(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
