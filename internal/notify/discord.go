package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

const (
	colorRed    = 0xE74C3C // raised
	colorOrange = 0xE67E22 // still breaching
	colorGreen  = 0x2ECC71 // resolved
)

// DiscordSink implements Sink via Discord webhook.
type DiscordSink struct {
	name       string
	webhookURL string
	client     *http.Client
}

// NewDiscordSink creates a new DiscordSink.
func NewDiscordSink(webhookURL string, opts ...HTTPOption) *DiscordSink {
	cfg := applyHTTPOptions("discord", opts)
	return &DiscordSink{
		name:       cfg.name,
		webhookURL: webhookURL,
		client:     cfg.client,
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Name implements Sink.
func (d *DiscordSink) Name() string { return d.name }

// Send posts the notification as a single Discord embed.
func (d *DiscordSink) Send(ctx context.Context, n *domain.AlertNotification) error {
	defer observe(d.name, time.Now())

	body, err := json.Marshal(discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(n)},
	})
	if err != nil {
		return Permanent(fmt.Errorf("marshaling discord payload: %w", err))
	}
	return postJSON(ctx, d.client, "discord", d.webhookURL, body, nil)
}

func buildEmbed(n *domain.AlertNotification) discordEmbed {
	embed := discordEmbed{
		Title:       fmt.Sprintf("%s: %s", transitionTitle(n.Transition), n.RuleID),
		Color:       transitionColor(n.Transition),
		Description: n.Message,
		Timestamp:   n.Timestamp.UTC().Format(time.RFC3339),
		Fields: []discordEmbedField{
			{Name: "Value", Value: fmt.Sprintf("%s = %.4f", n.Statistic, n.Value), Inline: true},
			{Name: "Threshold", Value: fmt.Sprintf("%s %.4f", n.Comparator, n.Threshold), Inline: true},
			{Name: "Window", Value: n.Window.String(), Inline: true},
			{Name: "Severity", Value: string(n.Severity), Inline: true},
		},
	}

	if n.ActionLabel != "" {
		embed.Fields = append(embed.Fields, discordEmbedField{Name: "Action", Value: n.ActionLabel})
	}

	return embed
}

func transitionTitle(t domain.Transition) string {
	switch t {
	case domain.TransitionRaised:
		return "Alert raised"
	case domain.TransitionStillBreaching:
		return "Still breaching"
	case domain.TransitionResolved:
		return "Resolved"
	default:
		return strings.ToUpper(string(t))
	}
}

func transitionColor(t domain.Transition) int {
	switch t {
	case domain.TransitionResolved:
		return colorGreen
	case domain.TransitionStillBreaching:
		return colorOrange
	default:
		return colorRed
	}
}
