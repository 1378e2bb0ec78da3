package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// FieldError is one entry of a 422 response.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// ValidationError is returned by handlers for input that cannot be coerced.
type ValidationError struct {
	Detail []FieldError `json:"detail"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Detail))
	for _, d := range e.Detail {
		parts = append(parts, fmt.Sprintf("%v: %s", d.Loc, d.Msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(msg, typ string, loc ...any) {
	e.Detail = append(e.Detail, FieldError{Loc: loc, Msg: msg, Type: typ})
}

func (e *ValidationError) empty() bool { return len(e.Detail) == 0 }

// decodeError turns a json decoding failure into a ValidationError.
func decodeError(err error) *ValidationError {
	ve := &ValidationError{}
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		ve.add(fmt.Sprintf("value is not a valid %s", typeErr.Type.String()), "type_error", "body", typeErr.Field)
	case errors.As(err, &syntaxErr):
		ve.add("JSON decode error", "value_error.jsondecode", "body", syntaxErr.Offset)
	case errors.Is(err, io.EOF):
		ve.add("field required", "value_error.missing", "body")
	default:
		ve.add(err.Error(), "value_error", "body")
	}
	return ve
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int) {
	_ = writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
}
