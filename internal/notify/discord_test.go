package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/chatwatch/internal/metrics"
	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

func TestDiscordSink_Send(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		transition    domain.Transition
		statusCode    int
		wantErr       bool
		wantPermanent bool
		errMsg        string
		wantColor     int
	}{
		{
			name:       "raised uses red",
			transition: domain.TransitionRaised,
			statusCode: http.StatusNoContent,
			wantColor:  colorRed,
		},
		{
			name:       "still breaching uses orange",
			transition: domain.TransitionStillBreaching,
			statusCode: http.StatusNoContent,
			wantColor:  colorOrange,
		},
		{
			name:       "resolved uses green",
			transition: domain.TransitionResolved,
			statusCode: http.StatusNoContent,
			wantColor:  colorGreen,
		},
		{
			name:       "discord returns 429 rate limited",
			transition: domain.TransitionRaised,
			statusCode: http.StatusTooManyRequests,
			wantErr:    true,
			errMsg:     "rate limited",
		},
		{
			name:       "discord returns 502",
			transition: domain.TransitionRaised,
			statusCode: http.StatusBadGateway,
			wantErr:    true,
			errMsg:     "discord returned 502",
		},
		{
			name:          "discord returns 400 error",
			transition:    domain.TransitionRaised,
			statusCode:    http.StatusBadRequest,
			wantErr:       true,
			wantPermanent: true,
			errMsg:        "discord returned 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var received discordWebhookPayload

			srv := httptest.NewServer(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
					assert.Equal(t, http.MethodPost, r.Method)

					err := json.NewDecoder(r.Body).Decode(&received)
					assert.NoError(t, err)

					w.WriteHeader(tt.statusCode)
				}),
			)
			defer srv.Close()

			n := testNotification(tt.transition)
			err := NewDiscordSink(srv.URL).Send(context.Background(), &n)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Equal(t, tt.wantPermanent, IsPermanent(err))
				return
			}

			require.NoError(t, err)
			require.Len(t, received.Embeds, 1)

			embed := received.Embeds[0]
			assert.Equal(t, tt.wantColor, embed.Color)
			assert.Contains(t, embed.Title, n.RuleID)
			assert.Equal(t, n.Message, embed.Description)

			fieldMap := make(map[string]string)
			for _, f := range embed.Fields {
				fieldMap[f.Name] = f.Value
			}
			assert.Equal(t, "error_ratio = 0.0800", fieldMap["Value"])
			assert.Equal(t, "> 0.0500", fieldMap["Threshold"])
			assert.Equal(t, "5m0s", fieldMap["Window"])
			assert.Equal(t, "page on-call", fieldMap["Action"])
		})
	}
}

func TestDiscordSink_NetworkErrorIsTransient(t *testing.T) {
	t.Parallel()

	n := testNotification(domain.TransitionRaised)
	err := NewDiscordSink("http://127.0.0.1:1").Send(context.Background(), &n) // nothing listening
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending discord request")
	assert.False(t, IsPermanent(err))
}

func TestDiscordSink_InvalidWebhookURL(t *testing.T) {
	t.Parallel()

	n := testNotification(domain.TransitionRaised)
	err := NewDiscordSink("://not-a-valid-url").Send(context.Background(), &n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating discord request")
	assert.True(t, IsPermanent(err))
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	d := NewDiscordSink("https://example.com", WithHTTPClient(custom), WithName("ops-discord"))
	assert.Same(t, custom, d.client)
	assert.Equal(t, "ops-discord", d.Name())
}

func getNotificationHistogramSampleCount(t *testing.T, sink string) uint64 {
	t.Helper()

	obs, err := metrics.NotificationDuration.GetMetricWithLabelValues(sink)
	require.NoError(t, err)

	pb := &dto.Metric{}
	require.NoError(t, obs.(prometheus.Metric).Write(pb))
	return pb.GetHistogram().GetSampleCount()
}

func TestDiscordSink_ObservesNotificationDuration(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	before := getNotificationHistogramSampleCount(t, "discord-duration")

	n := testNotification(domain.TransitionRaised)
	require.NoError(t, NewDiscordSink(srv.URL, WithName("discord-duration")).Send(context.Background(), &n))

	after := getNotificationHistogramSampleCount(t, "discord-duration")
	assert.Greater(t, after, before, "NotificationDuration histogram sample count should increase")
}
