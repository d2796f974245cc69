package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/szamlaconv/internal/core"
)

// uploadFunc consumes an uploaded file and returns the resulting table.
type uploadFunc func(ctx context.Context, name string, r io.Reader) (core.TableView, error)

// handleUploadSource loads a booking export and resolves it.
func (s *Server) handleUploadSource(w http.ResponseWriter, r *http.Request) {
	s.receiveUpload(w, r, s.service.LoadSource)
}

// handleImportWork replaces the table with a previously exported work file.
func (s *Server) handleImportWork(w http.ResponseWriter, r *http.Request) {
	s.receiveUpload(w, r, s.service.ImportWork)
}

// receiveUpload takes an upload slot, reads the multipart "file" field
// within the size limit, and hands it to fn.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request, fn uploadFunc) {
	ctx := withRequestMetadata(r)

	if err := s.limiter.Acquire(ctx); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, r, fmt.Errorf("file too large: %w", err))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	view, err := fn(ctx, header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, view)
}
