// Package apierror decodes the backend's error envelope. All 4xx/5xx responses
// carry a JSON body of the form {"detail": "..."}; validation failures may add
// a per-field map. Decoding never fails: a body that is not the expected
// envelope degrades to its raw text so the user always sees something.
package apierror

import (
	"encoding/json"
	"strings"
)

// APIError is the canonical error envelope of every 4xx/5xx response.
type APIError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Decode extracts the envelope from a response body. Non-JSON bodies and
// envelopes without a detail fall back to the (trimmed) raw text.
func Decode(body []byte) *APIError {
	var e APIError
	if err := json.Unmarshal(body, &e); err == nil && e.Detail != "" {
		return &e
	}
	return &APIError{Detail: strings.TrimSpace(string(body))}
}

// Message renders the envelope for display, appending field errors when present.
func (e *APIError) Message() string {
	if len(e.Fields) == 0 {
		return e.Detail
	}
	parts := make([]string, 0, len(e.Fields))
	for field, tag := range e.Fields {
		parts = append(parts, field+": "+tag)
	}
	return e.Detail + " (" + strings.Join(parts, ", ") + ")"
}
