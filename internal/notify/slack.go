package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// SlackSink posts notifications to a Slack incoming webhook.
type SlackSink struct {
	name       string
	webhookURL string
	channel    string
	client     *http.Client
}

// NewSlackSink creates a SlackSink. channel overrides the webhook's default
// channel when non-empty.
func NewSlackSink(webhookURL, channel string, opts ...HTTPOption) *SlackSink {
	cfg := applyHTTPOptions("slack", opts)
	return &SlackSink{
		name:       cfg.name,
		webhookURL: webhookURL,
		channel:    channel,
		client:     cfg.client,
	}
}

type slackPayload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

// Name implements Sink.
func (s *SlackSink) Name() string { return s.name }

// Send posts a single text message.
func (s *SlackSink) Send(ctx context.Context, n *domain.AlertNotification) error {
	defer observe(s.name, time.Now())

	body, err := json.Marshal(slackPayload{
		Channel: s.channel,
		Text:    slackText(n),
	})
	if err != nil {
		return Permanent(fmt.Errorf("marshaling slack payload: %w", err))
	}
	return postJSON(ctx, s.client, "slack", s.webhookURL, body, nil)
}

func slackText(n *domain.AlertNotification) string {
	return fmt.Sprintf("%s *%s* (%s)\n%s", transitionEmoji(n.Transition), n.RuleID, n.Severity, n.Message)
}

func transitionEmoji(t domain.Transition) string {
	switch t {
	case domain.TransitionResolved:
		return ":white_check_mark:"
	case domain.TransitionStillBreaching:
		return ":warning:"
	default:
		return ":rotating_light:"
	}
}
