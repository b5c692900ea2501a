package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/go-faster/errors"
)

// SMTPNotifier delivers messages through a plain SMTP relay.
type SMTPNotifier struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPNotifier creates an SMTPNotifier for the given relay address
// (host:port) and from address. auth may be nil for unauthenticated relays.
func NewSMTPNotifier(addr, from string, auth smtp.Auth) *SMTPNotifier {
	return &SMTPNotifier{addr: addr, from: from, auth: auth}
}

// Send delivers the message. The context is checked before dialing; net/smtp
// itself does not support cancellation mid-send.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(n.addr, n.auth, n.from, []string{msg.To}, []byte(b.String())); err != nil {
		return errors.Wrap(err, "smtp send")
	}
	return nil
}
