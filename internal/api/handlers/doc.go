// Package handlers implements HTTP handlers for the chatwatch API.
package handlers

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status"          example:"ok"`
	Error  string `json:"error,omitempty" example:"archive store: connection refused"`
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// clampLimit bounds a caller-supplied page size.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
