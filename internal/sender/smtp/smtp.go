// Package smtp implements a Sender that submits fixtures over a
// plaintext SMTP connection, the way the capture service expects them:
// no authentication, no STARTTLS, one connection per message.
package smtp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/emersion/go-message/mail"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/probekit/hogcheck/internal/synth"
)

// dialTimeout bounds the TCP connect to the SMTP endpoint.
const dialTimeout = 10 * time.Second

// Sender submits fixtures to a single SMTP endpoint.
type Sender struct {
	addr string
}

// New creates a Sender for the given host:port.
func New(addr string) *Sender {
	return &Sender{addr: addr}
}

// Send composes the fixture as an RFC 5322 message with a
// quoted-printable text body and submits it in one SMTP session.
func (s *Sender) Send(ctx context.Context, fixture synth.Fixture) error {
	var buf bytes.Buffer
	if err := compose(&buf, fixture); err != nil {
		return fmt.Errorf("failed to compose message: %w", err)
	}

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", s.addr, err)
	}

	client := gosmtp.NewClient(conn)
	defer func() { _ = client.Close() }()

	if err := client.Mail(fixture.From, nil); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(fixture.To, nil); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", fixture.To, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data transfer: %w", err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("failed to quit SMTP session: %w", err)
	}

	return nil
}

// Name returns the backend name.
func (s *Sender) Name() string {
	return "smtp"
}

// compose writes the fixture as a single-part text/plain message. The
// mail writer applies quoted-printable transfer encoding, so what goes
// over the wire carries the soft line breaks the verification protocol
// later normalizes away.
func compose(w io.Writer, fixture synth.Fixture) error {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Address: fixture.From}})
	h.SetAddressList("To", []*mail.Address{{Address: fixture.To}})
	h.SetSubject(fixture.Subject)

	mw, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(mw, fixture.Body); err != nil {
		_ = mw.Close()
		return err
	}
	return mw.Close()
}
