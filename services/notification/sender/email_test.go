package sender

import (
	"context"
	"errors"
	"testing"
	"time"

	"chefly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent  []*gomail.Message
	err   error
	delay time.Duration
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.sent = append(f.sent, m...)
	return f.err
}

func TestEmailSenderSends(t *testing.T) {
	dialer := &fakeDialer{}
	s := &EmailSender{Dialer: dialer, From: "notifications@chefly.app", Domain: "chefly.app"}

	out := s.Send(context.Background(),
		Destination{UserID: "user-1", Email: "dana@example.com"},
		models.NotificationPayload{Title: "Booking confirmed", Body: "See you June 14."})

	require.True(t, out.OK)
	assert.NotEmpty(t, out.ProviderMessageID)
	require.Len(t, dialer.sent, 1)
	msg := dialer.sent[0]
	assert.Equal(t, []string{"dana@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Booking confirmed"}, msg.GetHeader("Subject"))
}

func TestEmailSenderNoAddress(t *testing.T) {
	s := &EmailSender{Dialer: &fakeDialer{}, From: "notifications@chefly.app", Domain: "chefly.app"}

	out := s.Send(context.Background(), Destination{UserID: "user-1"}, models.NotificationPayload{Title: "x"})

	assert.False(t, out.OK)
	assert.Equal(t, models.ErrorKindNoDestination, out.ErrorKind)
}

func TestEmailSenderSMTPError(t *testing.T) {
	s := &EmailSender{
		Dialer: &fakeDialer{err: errors.New("550 mailbox unavailable")},
		From:   "notifications@chefly.app",
		Domain: "chefly.app",
	}

	out := s.Send(context.Background(),
		Destination{UserID: "user-1", Email: "dana@example.com"},
		models.NotificationPayload{Title: "x"})

	assert.False(t, out.OK)
	assert.Equal(t, models.ErrorKindProvider, out.ErrorKind)
}

func TestEmailSenderTimeout(t *testing.T) {
	s := &EmailSender{
		Dialer: &fakeDialer{delay: 500 * time.Millisecond},
		From:   "notifications@chefly.app",
		Domain: "chefly.app",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out := s.Send(ctx,
		Destination{UserID: "user-1", Email: "dana@example.com"},
		models.NotificationPayload{Title: "x"})

	assert.False(t, out.OK)
	assert.Equal(t, models.ErrorKindTimeout, out.ErrorKind)
}

func TestRenderEmailHTMLIncludesLink(t *testing.T) {
	html := renderEmailHTML(models.NotificationPayload{
		Title: "New message",
		Body:  "Amara sent you a message.",
		Data:  map[string]string{"url": "https://chefly.app/messages/42"},
	})

	assert.Contains(t, html, "<h2>New message</h2>")
	assert.Contains(t, html, `href="https://chefly.app/messages/42"`)
}
