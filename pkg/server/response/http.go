package response

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/render"
)

type Object struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type HealthCheck struct {
	Commit      string            `json:"commit"`
	Version     string            `json:"version"`
	Components  map[string]string `json:"components"`
}

// HealthChecker reports the liveness of a single dependency of the
// reliability core (lock manager, event bus, ...) by name.
type HealthChecker func() (name string, status string)

// Health writes a HealthCheck payload, running every checker passed in.
// A checker that panics or is slow is the caller's problem; this
// handler does not add its own timeout.
func Health(checkers ...HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := make(map[string]string, len(checkers))
		for _, check := range checkers {
			name, status := check()
			components[name] = status
		}

		health := HealthCheck{
			Commit:     os.Getenv("COMMIT_VERSION"),
			Version:    "1.0.0",
			Components: components,
		}

		OK(w, r, health)
	}
}

// ErrorObject is the JSON envelope returned for every non-2xx response.
type ErrorObject struct {
	Success bool           `json:"success"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error writes status with an ErrorObject body carrying code, message
// and any structured details a domain error attached.
func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	render.Status(r, status)
	render.JSON(w, r, ErrorObject{
		Success: false,
		Code:    code,
		Message: message,
		Details: details,
	})
}

func OK(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, data)
}

func Created(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, data)
}

func NoContent(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNoContent)
}

func BadRequest(w http.ResponseWriter, r *http.Request, err error, data any) {
	msg := "bad request"
	if err != nil {
		msg = err.Error()
	}

	render.Status(r, http.StatusBadRequest)
	v := Object{
		Success: false,
		Data:    data,
		Message: msg,
	}
	render.JSON(w, r, v)
}

func NotFound(w http.ResponseWriter, r *http.Request, err error) {
	msg := "resource not found"
	if err != nil {
		msg = err.Error()
	}

	render.Status(r, http.StatusNotFound)
	v := Object{
		Success: false,
		Message: msg,
	}
	render.JSON(w, r, v)
}

func Unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	msg := "unauthorized"
	if err != nil {
		msg = err.Error()
	}

	render.Status(r, http.StatusUnauthorized)
	v := Object{
		Success: false,
		Message: msg,
	}
	render.JSON(w, r, v)
}

func Conflict(w http.ResponseWriter, r *http.Request, err error) {
	msg := "resource conflict"
	if err != nil {
		msg = err.Error()
	}

	render.Status(r, http.StatusConflict)
	v := Object{
		Success: false,
		Message: msg,
	}
	render.JSON(w, r, v)
}

func InternalServerError(w http.ResponseWriter, r *http.Request, err error, data any) {
	msg := "internal server error"
	if err != nil {
		msg = err.Error()
	}

	if err != nil && (errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "context deadline exceeded")) {
		switch r.Header.Get("Language") {
		case "RUS":
			msg = "Превышено время ожидания запроса"
		case "KAZ":
			msg = "Сұраудың күту уақыты асып кетті"
		default:
			msg = "Request timeout exceeded"
		}
	}

	render.Status(r, http.StatusInternalServerError)
	v := Object{
		Success: false,
		Data:    data,
		Message: msg,
	}
	render.JSON(w, r, v)
}
