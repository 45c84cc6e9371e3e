package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bugielektrik/orchestra-pay/pkg/errors"
)

// DecodeJSON decodes a JSON request body into dest.
func DecodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.ErrInvalidInput.WithDetails("reason", "empty body")
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		return errors.ErrInvalidInput.Wrap(err)
	}

	return nil
}

// GetURLParam returns a chi URL parameter, failing if it is absent or empty.
func GetURLParam(r *http.Request, name string) (string, error) {
	value := chi.URLParam(r, name)
	if value == "" {
		return "", errors.ErrInvalidInput.WithDetails("param", name).WithDetails("reason", "missing")
	}
	return value, nil
}

// MustGetURLParam returns a chi URL parameter, panicking if it is absent.
// Only safe to call where the router guarantees the parameter is present.
func MustGetURLParam(r *http.Request, name string) string {
	value, err := GetURLParam(r, name)
	if err != nil {
		panic(err)
	}
	return value
}

// IsSuccess reports whether code is a 2xx status.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

// IsRedirect reports whether code is a 3xx status.
func IsRedirect(code int) bool {
	return code >= 300 && code < 400
}

// IsClientError reports whether code is a 4xx status.
func IsClientError(code int) bool {
	return code >= 400 && code < 500
}

// IsServerError reports whether code is a 5xx status.
func IsServerError(code int) bool {
	return code >= 500 && code < 600
}

// IsError reports whether code is a 4xx or 5xx status.
func IsError(code int) bool {
	return IsClientError(code) || IsServerError(code)
}
