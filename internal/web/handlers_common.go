package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// maxHistoryLimit caps ?limit= on /api/history.
const maxHistoryLimit = 500

// valueRequest is the body of PUT /api/fields/{name} and PUT /api/data/{row}/{field}.
type valueRequest struct {
	Value *string `json:"value"`
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// decodeValue reads a {"value": "..."} body. The value may be empty but
// must be present.
func decodeValue(w http.ResponseWriter, r *http.Request) (string, error) {
	var req valueRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return "", fmt.Errorf("invalid JSON body: %w", err)
	}
	if req.Value == nil {
		return "", errors.New(`missing "value"`)
	}
	return *req.Value, nil
}
