package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

func TestEmailSink_Send(t *testing.T) {
	t.Parallel()

	sink := NewEmailSink(EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		From:     "chatwatch@example.com",
		To:       []string{"oncall@example.com", "lead@example.com"},
		Username: "chatwatch",
		Password: "pw",
	})

	var (
		gotAddr string
		gotAuth smtp.Auth
		gotTo   []string
		gotMsg  string
	)
	sink.send = func(addr string, a smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo, gotMsg = addr, a, to, string(msg)
		return nil
	}

	n := testNotification(domain.TransitionStillBreaching)
	require.NoError(t, sink.Send(context.Background(), &n))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, []string{"oncall@example.com", "lead@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: [chatwatch WARNING] error-rate still breaching\r\n")
	assert.Contains(t, gotMsg, "To: oncall@example.com, lead@example.com\r\n")
	assert.Contains(t, gotMsg, n.Message)
	assert.Contains(t, gotMsg, "Action:    page on-call")
}

func TestEmailSink_Errors(t *testing.T) {
	t.Parallel()

	n := testNotification(domain.TransitionRaised)

	noRecipients := NewEmailSink(EmailConfig{Host: "localhost", Port: 25})
	err := noRecipients.Send(context.Background(), &n)
	require.Error(t, err)
	assert.True(t, IsPermanent(err))

	failing := NewEmailSink(EmailConfig{Host: "localhost", Port: 25, To: []string{"a@example.com"}})
	failing.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}
	err = failing.Send(context.Background(), &n)
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
	assert.Contains(t, err.Error(), "sending email")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, failing.Send(ctx, &n), context.Canceled)
}
