// Package stdout implements a Sender that prints fixtures to standard
// output instead of delivering them. Used for dry runs.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/probekit/hogcheck/internal/synth"
)

// Sender prints fixtures to stdout in a human-readable format.
type Sender struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a Sender that writes to os.Stdout.
func New() *Sender {
	return &Sender{writer: os.Stdout}
}

// NewWithWriter creates a Sender that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Sender {
	return &Sender{writer: w}
}

// Send prints the fixture. It always succeeds.
func (s *Sender) Send(_ context.Context, fixture synth.Fixture) error {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString(fmt.Sprintf("From: %s\n", fixture.From))
	b.WriteString(fmt.Sprintf("To: %s\n", fixture.To))
	b.WriteString(fmt.Sprintf("Subject: %s\n", fixture.Subject))
	b.WriteString("Body:\n")
	b.WriteString(fixture.Body + "\n")
	b.WriteString("========================================\n")

	_, _ = fmt.Fprint(s.writer, b.String())
	return nil
}

// Name returns the backend name.
func (s *Sender) Name() string {
	return "stdout"
}
