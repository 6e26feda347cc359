// Package httpx is a convenience wrapper around net/http handlers that
// allows us to return errors from our handlers.
// see https://blog.questionable.services/article/http-handler-error-handling-revisited/ for more details.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-json-experiment/json"
)

// Error is a convenience function for returning an error with an associated HTTP status code.
func Error(code int, err error) error {
	return &StatusError{Code: code, Err: err}
}

// ValidationError returns a 400 error carrying an itemized list of violations.
func ValidationError(details []string) error {
	return &StatusError{
		Code:    http.StatusBadRequest,
		Err:     errors.New("ValidationError"),
		Details: details,
	}
}

// StatusError represents an error with an associated HTTP status code.
type StatusError struct {
	Code    int
	Err     error
	Details []string
}

// Allows StatusError to satisfy the error interface.
func (se *StatusError) Error() string {
	return se.Err.Error()
}

// Status returns our HTTP status code.
func (se *StatusError) Status() int {
	return se.Code
}

// Logger is implemented by environments that carry a *slog.Logger.
type Logger interface {
	Log() *slog.Logger
}

// HandlerFunc adapts a function that returns an error to an http.HandlerFunc.
// Errors of type *StatusError are rendered with their status code and, where
// present, their itemized details. Any other error is a 500 with a generic
// body; the underlying cause is logged server side only.
func HandlerFunc[E Logger](envFn func(r *http.Request) E, fn func(E, http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env := envFn(r)
		err := fn(env, w, r)
		if err == nil {
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if se := new(StatusError); errors.As(err, &se) {
			env.Log().Info("request failed", "method", r.Method, "path", r.URL.Path, "status", se.Status(), "error", err.Error())
			w.WriteHeader(se.Status())
			body := map[string]any{
				"error": se.Error(),
			}
			if len(se.Details) > 0 {
				body["details"] = se.Details
			}
			json.MarshalFull(w, body)
			return
		}
		env.Log().Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		json.MarshalFull(w, map[string]any{
			"error": "internal server error",
		})
	}
}
