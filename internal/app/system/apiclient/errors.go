package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrUnauthorized matches 401 and 403 responses. Both mean the bearer
	// token is missing, expired or not allowed.
	ErrUnauthorized = errors.New("apiclient: unauthorized")
	// ErrNotFound matches 404 responses.
	ErrNotFound = errors.New("apiclient: not found")
	// ErrConflict matches 409 responses (e.g. user already a member).
	ErrConflict = errors.New("apiclient: conflict")
)

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx backend response.
type APIError struct {
	Op      string
	Status  int
	Message string // backend-supplied message, if any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("apiclient: %s: %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("apiclient: %s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

// Is lets errors.Is match the sentinel errors by status.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

func decodeError(op string, resp *http.Response) error {
	apiErr := &APIError{Op: op, Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var msg messageResponse
	if json.Unmarshal(body, &msg) == nil {
		apiErr.Message = msg.Message
	}
	return apiErr
}

// MessageOr returns the backend's message carried by err, or fallback when
// there is none (transport failures, empty bodies).
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsUnauthorized reports whether err is a 401/403 from the backend.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
