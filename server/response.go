package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/teranos/kgmap/errors"
)

// maxRequestBody bounds POST bodies; a selection is two version ids
const maxRequestBody = 64 << 10

// errorBody is the JSON shape of every non-2xx response
type errorBody struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode response")
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	_ = writeJSON(w, status, errorBody{Error: message})
}

// writeErrorFor picks the status from the error's sentinel and passes hints through
func writeErrorFor(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsNotFoundError(err):
		status = http.StatusNotFound
	case errors.IsInvalidRequestError(err), errors.Is(err, errors.ErrUnsupportedFormat):
		status = http.StatusBadRequest
	}
	_ = writeJSON(w, status, errorBody{Error: err.Error(), Hint: errors.FlattenHints(err)})
}

// readJSON decodes a bounded request body, answering 400 itself on failure
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return errors.Wrap(errors.ErrInvalidRequest, err.Error())
	}
	return nil
}

// requireMethods answers 405 with an Allow header unless r uses one of methods
func requireMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}
