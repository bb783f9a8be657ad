package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/blueprint/internal/messaging"
)

type captureSender struct {
	to, subject, html, text string
	calls                   int
}

func (c *captureSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	c.calls++
	c.to, c.subject, c.html, c.text = to, subject, htmlBody, textBody
	return nil
}

func TestPasswordChangedSendsEmail(t *testing.T) {
	bus := messaging.New()
	cs := &captureSender{}
	NewNotifier(cs).Register(bus)

	err := bus.Publish(context.Background(), messaging.TopicPasswordChanged, messaging.PasswordChanged{
		AccountID: "a1",
		Username:  "<john>",
		Email:     "john.doe@test.me",
		At:        time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, 1, cs.calls)
	require.Equal(t, "john.doe@test.me", cs.to)
	require.Equal(t, passwordChangedSubject, cs.subject)
	require.True(t, strings.Contains(cs.text, "2024-03-01 10:00 UTC"))
	require.True(t, strings.Contains(cs.html, "&lt;john&gt;"), "html body must escape")
}

func TestPasswordChangedWithoutEmailIsSkipped(t *testing.T) {
	bus := messaging.New()
	cs := &captureSender{}
	NewNotifier(cs).Register(bus)

	require.NoError(t, bus.Publish(context.Background(), messaging.TopicPasswordChanged, messaging.PasswordChanged{AccountID: "a1"}))
	require.Equal(t, 0, cs.calls)
}

func TestPasswordChangedWrongPayload(t *testing.T) {
	bus := messaging.New()
	NewNotifier(&captureSender{}).Register(bus)
	require.Error(t, bus.Publish(context.Background(), messaging.TopicPasswordChanged, "nope"))
}

func TestNewSMTPSenderDefaults(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "localhost"})
	require.Equal(t, 587, s.cfg.Port)
	require.Equal(t, "auto", s.cfg.TLSMode)
}
