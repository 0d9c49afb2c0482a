package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// quietPaths are polled constantly. A successful request on one is logged
// only when the previous request on that path was not a success.
var quietPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
	"/metrics": {},
}

// RequestID returns the request ID assigned by RequestLog.
func RequestID(c echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}

// RequestLog returns Echo middleware that logs requests with structured fields.
// It generates a request ID if none is provided and propagates it through
// the response header and echo context. 4xx responses log at WARN, 5xx at
// ERROR.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var (
		mu     sync.Mutex
		lastOK = make(map[string]bool)
	)

	// suppress reports whether a quiet path success can be skipped and
	// records the outcome for the next call.
	suppress := func(path string, ok bool) bool {
		if _, quiet := quietPaths[path]; !quiet {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		skip := ok && lastOK[path]
		lastOK[path] = ok
		return skip
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set(requestIDKey, reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := c.Response().Status
			if suppress(path, status < http.StatusBadRequest) {
				return err
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			log.Log(c.Request().Context(), level, "request",
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			)

			return err
		}
	}
}
