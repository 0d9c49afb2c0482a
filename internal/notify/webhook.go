package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Chatwatch-Signature"

// WebhookSink POSTs the notification as JSON to an arbitrary endpoint.
type WebhookSink struct {
	name    string
	url     string
	secret  string
	headers map[string]string
	client  *http.Client
}

// NewWebhookSink creates a WebhookSink. When secret is non-empty each request
// is signed in SignatureHeader.
func NewWebhookSink(url, secret string, headers map[string]string, opts ...HTTPOption) *WebhookSink {
	cfg := applyHTTPOptions("webhook", opts)
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return &WebhookSink{
		name:    cfg.name,
		url:     url,
		secret:  secret,
		headers: h,
		client:  cfg.client,
	}
}

// webhookPayload is the body delivered to generic webhooks.
type webhookPayload struct {
	Event        string                   `json:"event"`
	Notification domain.AlertNotification `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

// Name implements Sink.
func (w *WebhookSink) Name() string { return w.name }

// Send posts the notification.
func (w *WebhookSink) Send(ctx context.Context, n *domain.AlertNotification) error {
	defer observe(w.name, time.Now())

	body, err := json.Marshal(webhookPayload{
		Event:        "alert." + string(n.Transition),
		Notification: *n,
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		return Permanent(fmt.Errorf("marshaling webhook payload: %w", err))
	}

	headers := w.headers
	if w.secret != "" {
		headers = make(map[string]string, len(w.headers)+1)
		for k, v := range w.headers {
			headers[k] = v
		}
		headers[SignatureHeader] = Sign(w.secret, body)
	}
	return postJSON(ctx, w.client, "webhook", w.url, body, headers)
}

// Sign returns the hex HMAC-SHA256 of body keyed by secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether sig is the valid signature of body.
func VerifySignature(secret string, body []byte, sig string) bool {
	want, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}
