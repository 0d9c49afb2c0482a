package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSink sends plain-text notification email over SMTP.
type EmailSink struct {
	name     string
	host     string
	port     int
	from     string
	to       []string
	username string
	password string
	send     sendMailFunc
}

// EmailConfig holds SMTP settings for an EmailSink.
type EmailConfig struct {
	Name     string
	Host     string
	Port     int
	From     string
	To       []string
	Username string
	Password string
}

// NewEmailSink creates an EmailSink.
func NewEmailSink(cfg EmailConfig) *EmailSink {
	name := cfg.Name
	if name == "" {
		name = "email"
	}
	return &EmailSink{
		name:     name,
		host:     cfg.Host,
		port:     cfg.Port,
		from:     cfg.From,
		to:       append([]string(nil), cfg.To...),
		username: cfg.Username,
		password: cfg.Password,
		send:     smtp.SendMail,
	}
}

// Name implements Sink.
func (e *EmailSink) Name() string { return e.name }

// Send delivers one message. smtp.SendMail does not take a context, so a
// cancelled context is only checked before sending.
func (e *EmailSink) Send(ctx context.Context, n *domain.AlertNotification) error {
	defer observe(e.name, time.Now())

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(e.to) == 0 {
		return Permanent(fmt.Errorf("email sink %s has no recipients", e.name))
	}

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	addr := net.JoinHostPort(e.host, strconv.Itoa(e.port))
	if err := e.send(addr, auth, e.from, e.to, e.message(n)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func (e *EmailSink) message(n *domain.AlertNotification) []byte {
	subject := fmt.Sprintf("[chatwatch %s] %s %s",
		strings.ToUpper(string(n.Severity)), n.RuleID, strings.ReplaceAll(string(n.Transition), "_", " "))

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", n.Timestamp.UTC().Format(time.RFC1123Z))
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "%s\r\n\r\n", n.Message)
	fmt.Fprintf(&b, "Rule:      %s\r\n", n.RuleID)
	fmt.Fprintf(&b, "Statistic: %s = %.4f\r\n", n.Statistic, n.Value)
	fmt.Fprintf(&b, "Threshold: %s %.4f\r\n", n.Comparator, n.Threshold)
	fmt.Fprintf(&b, "Window:    %s\r\n", n.Window)
	if n.ActionLabel != "" {
		fmt.Fprintf(&b, "Action:    %s\r\n", n.ActionLabel)
	}
	fmt.Fprintf(&b, "Alert ID:  %s\r\n", n.AlertID)
	return []byte(b.String())
}
