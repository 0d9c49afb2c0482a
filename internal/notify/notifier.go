// Package notify defines the notification sink interface and its
// implementations for alert delivery.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/donaldgifford/chatwatch/internal/metrics"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// Sink delivers alert notifications to one destination. Send must treat
// the notification as read-only; the same value is shared across sinks.
type Sink interface {
	Name() string
	Send(ctx context.Context, n *domain.AlertNotification) error
}

// PermanentError marks a delivery failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the dispatcher does not retry it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err, or anything it wraps, is permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

const maxErrorBody = 512

// postJSON sends body to url and classifies the response: 2xx is success,
// 429, 5xx or a transport error is transient, and any other status is permanent.
func postJSON(
	ctx context.Context,
	client *http.Client,
	sink, url string,
	body []byte,
	headers map[string]string,
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Permanent(fmt.Errorf("creating %s request: %w", sink, err))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending %s request: %w", sink, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var statusErr error
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		statusErr = fmt.Errorf("%s rate limited (429)", sink)
	case readErr != nil:
		statusErr = fmt.Errorf("%s returned %d (body unreadable)", sink, resp.StatusCode)
	default:
		statusErr = fmt.Errorf("%s returned %d: %s", sink, resp.StatusCode, bytes.TrimSpace(respBody))
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return statusErr
	}
	return Permanent(statusErr)
}

// observe records the duration of one Send for sink.
func observe(sink string, start time.Time) {
	metrics.NotificationDuration.WithLabelValues(sink).Observe(time.Since(start).Seconds())
}
