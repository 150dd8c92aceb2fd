package sender

import (
	"context"
	"fmt"
	"time"

	"chefly/models"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// mailDialer is the slice of *gomail.Dialer the email sender uses.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender delivers over SMTP. Fire-and-forget beyond recording the
// outcome: email has no delivery confirmation, so sent is terminal.
type EmailSender struct {
	Dialer mailDialer
	From   string
	Domain string
}

// NewEmailSender wires the production SMTP dialer.
func NewEmailSender(host string, port int, username, password, from string) *EmailSender {
	return &EmailSender{
		Dialer: gomail.NewDialer(host, port, username, password),
		From:   from,
		Domain: host,
	}
}

func (s *EmailSender) Channel() models.NotificationChannel { return models.ChannelEmail }

func (s *EmailSender) Send(ctx context.Context, dest Destination, payload models.NotificationPayload) Outcome {
	if dest.Email == "" {
		return failure(models.ErrorKindNoDestination, fmt.Errorf("user %s has no email address", dest.UserID))
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), s.Domain)

	msg := gomail.NewMessage()
	msg.SetHeader("Message-ID", messageID)
	msg.SetHeader("Date", time.Now().Format(time.RFC1123Z))
	msg.SetHeader("From", s.From)
	msg.SetHeader("To", dest.Email)
	msg.SetHeader("Subject", payload.Title)
	msg.SetBody("text/plain", payload.Body)
	msg.AddAlternative("text/html", renderEmailHTML(payload))

	// gomail has no context support; bound the dial+send by honouring the
	// deadline check afterwards so a timed-out attempt is classified as such.
	errCh := make(chan error, 1)
	go func() { errCh <- s.Dialer.DialAndSend(msg) }()

	select {
	case err := <-errCh:
		if err != nil {
			return failure(classify(err), err)
		}
		return Outcome{OK: true, ProviderMessageID: messageID}
	case <-ctx.Done():
		return failure(models.ErrorKindTimeout, ctx.Err())
	}
}

func renderEmailHTML(payload models.NotificationPayload) string {
	html := fmt.Sprintf("<h2>%s</h2><p>%s</p>", payload.Title, payload.Body)
	if url, ok := payload.Data["url"]; ok {
		html += fmt.Sprintf(`<p><a href="%s">View in Chefly</a></p>`, url)
	}
	return html
}
