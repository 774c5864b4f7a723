package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRemoteUnavailable marks connection and transport failures.
	ErrRemoteUnavailable = errors.New("tracker unavailable")
	// ErrRemoteAuth marks a reachable tracker refusing the account (HTTP 403).
	ErrRemoteAuth = errors.New("insufficient tracker permissions")
)

// APIError is a non-2xx answer from the tracker.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error status: %d", e.Status)
	}
	return fmt.Sprintf("API error status %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrRemoteAuth && e.Status == http.StatusForbidden
}
