// Package verify implements the end-to-end verification protocol: send
// synthesized messages through the capture service's SMTP endpoint,
// retrieve them through its HTTP API, and prove that what was captured
// matches what was sent, byte-faithfully, in arrival order.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/probekit/hogcheck/internal/mailhog"
	"github.com/probekit/hogcheck/internal/sender"
	"github.com/probekit/hogcheck/internal/synth"
)

// defaultTimeout bounds the wait for the capture service to persist
// sent messages. The service accepts SMTP before it writes, so a
// retrieve immediately after send may come up short.
const defaultTimeout = 30 * time.Second

// pollInterval is the delay between delivery-await retrievals.
const pollInterval = 250 * time.Millisecond

// ErrDeliveryTimeout is returned when the capture service never
// reported the expected number of messages before the deadline.
var ErrDeliveryTimeout = errors.New("verify: sent messages not retrievable before deadline")

// MismatchError reports the first divergence between a sent fixture
// and its captured counterpart. The scenario halts on the first
// mismatch; later pairs are not examined.
type MismatchError struct {
	Index int    // position in creation order
	Field string // which comparison failed
	Got   string
	Want  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("verify: message %d: %s: got %q, want %q", e.Index, e.Field, e.Got, e.Want)
}

// Scenario is one configured verification run.
type Scenario struct {
	// Client retrieves captured messages. Required.
	Client *mailhog.Client

	// Sender delivers fixtures. Required.
	Sender sender.Sender

	// Gen supplies fixture randomness. Defaults to a time-seeded
	// generator; pass a seeded one for reproducible runs.
	Gen *synth.Generator

	// Count is the number of messages to send. Defaults to 1.
	Count int

	// Fixture pins fixture fields shared by the whole batch.
	Fixture synth.Params

	// Search selects retrieval through the search endpoint with the
	// given parameters. When nil, retrieval uses plain listing.
	Search *mailhog.SearchParams

	// Timeout bounds the delivery await. Defaults to 30s.
	Timeout time.Duration

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Report summarizes a completed verification run.
type Report struct {
	RunID    uuid.UUID
	Sent     int
	Verified int
	Elapsed  time.Duration
}

// Run executes the protocol: confirm the instance starts empty, send
// the batch, await delivery, then compare each captured message with
// its fixture in creation order. The first failure aborts the run.
func (s *Scenario) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	runID := uuid.New()

	gen := s.Gen
	if gen == nil {
		gen = synth.NewRandom()
	}
	count := s.Count
	if count <= 0 {
		count = 1
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", runID)

	// A fresh instance must report a completely empty page.
	initial, err := s.Client.ListMessages(ctx, mailhog.ListParams{})
	if err != nil {
		return nil, err
	}
	if err := checkEmpty(initial); err != nil {
		return nil, err
	}

	fixtures := gen.Generate(count, s.Fixture)
	for i, f := range fixtures {
		if err := s.Sender.Send(ctx, f); err != nil {
			return nil, fmt.Errorf("sending message %d: %w", i, err)
		}
	}
	logger.Debug("fixtures sent", "count", count, "sender", s.Sender.Name())

	list, err := s.awaitTotal(ctx, count)
	if err != nil {
		return nil, err
	}

	if list.Total != count {
		return nil, pageMismatch("total", list.Total, count)
	}
	if list.Count != count {
		return nil, pageMismatch("count", list.Count, count)
	}
	if list.Start != 0 {
		return nil, pageMismatch("start", list.Start, 0)
	}
	if len(list.Items) != list.Count {
		return nil, pageMismatch("items length", len(list.Items), list.Count)
	}

	// Page order is not guaranteed to match send order; the creation
	// timestamp is the only ordering contract, so sort before pairing.
	items := make([]mailhog.Message, len(list.Items))
	copy(items, list.Items)
	mailhog.SortByCreated(items)

	for i := range items {
		if err := checkPair(i, items[i], fixtures[i]); err != nil {
			return nil, err
		}
	}

	logger.Info("verification complete", "sent", count, "verified", len(items))
	return &Report{
		RunID:    runID,
		Sent:     count,
		Verified: len(items),
		Elapsed:  time.Since(started),
	}, nil
}

// retrieve fetches the current page through search or listing,
// whichever the scenario is configured for.
func (s *Scenario) retrieve(ctx context.Context) (*mailhog.MessageList, error) {
	if s.Search != nil {
		return s.Client.Search(ctx, *s.Search)
	}
	return s.Client.ListMessages(ctx, mailhog.ListParams{})
}

// awaitTotal polls until the retrieval reports want messages or the
// deadline passes. Retrieval errors abort immediately; only a short
// count is retried.
func (s *Scenario) awaitTotal(ctx context.Context, want int) (*mailhog.MessageList, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	deadline := time.Now().Add(timeout)

	for {
		list, err := s.retrieve(ctx)
		if err != nil {
			return nil, err
		}
		if list.Total >= want {
			return list, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w (got %d of %d)", ErrDeliveryTimeout, list.Total, want)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// checkEmpty asserts the zero-state page shape of a fresh instance.
func checkEmpty(list *mailhog.MessageList) error {
	if list.Total != 0 || list.Count != 0 || list.Start != 0 || len(list.Items) != 0 {
		return &MismatchError{
			Field: "initial state",
			Got:   fmt.Sprintf("total=%d count=%d start=%d items=%d", list.Total, list.Count, list.Start, len(list.Items)),
			Want:  "total=0 count=0 start=0 items=0",
		}
	}
	return nil
}

// checkPair compares one captured message with the fixture sent at the
// same position in creation order.
func checkPair(idx int, msg mailhog.Message, fixture synth.Fixture) error {
	if got := msg.From.String(); got != fixture.From {
		return &MismatchError{Index: idx, Field: "from", Got: got, Want: fixture.From}
	}

	if len(msg.To) != 1 {
		return &MismatchError{
			Index: idx,
			Field: "recipients",
			Got:   fmt.Sprintf("%d recipients", len(msg.To)),
			Want:  "exactly 1",
		}
	}
	if got := msg.To[0].String(); got != fixture.To {
		return &MismatchError{Index: idx, Field: "to", Got: got, Want: fixture.To}
	}

	if got := NormalizeBody(msg.Content.Body); got != fixture.Body {
		return &MismatchError{Index: idx, Field: "body", Got: got, Want: fixture.Body}
	}

	// The reported size is that of the encoded body, so it must
	// exceed the raw body; equality would mean no encoding happened.
	if msg.Content.Size <= len(fixture.Body) {
		return &MismatchError{
			Index: idx,
			Field: "size",
			Got:   fmt.Sprintf("%d", msg.Content.Size),
			Want:  fmt.Sprintf("> %d", len(fixture.Body)),
		}
	}

	// A real capture timestamp is non-zero and in the past.
	if now := time.Now(); msg.Created.IsZero() || !msg.Created.Before(now) {
		return &MismatchError{
			Index: idx,
			Field: "created",
			Got:   msg.Created.String(),
			Want:  fmt.Sprintf("before %s", now),
		}
	}

	subject := msg.Content.Headers["Subject"]
	if len(subject) != 1 || subject[0] != fixture.Subject {
		return &MismatchError{
			Index: idx,
			Field: "headers[Subject]",
			Got:   fmt.Sprintf("%v", subject),
			Want:  fmt.Sprintf("[%s]", fixture.Subject),
		}
	}

	return nil
}

// pageMismatch builds the error for a page-shape assertion.
func pageMismatch(field string, got, want int) error {
	return &MismatchError{
		Field: "page " + field,
		Got:   fmt.Sprintf("%d", got),
		Want:  fmt.Sprintf("%d", want),
	}
}

// NormalizeBody removes quoted-printable soft line breaks (a literal
// "=" followed by CRLF) from a retrieved body. These are transport
// artifacts, not content differences.
func NormalizeBody(body string) string {
	return strings.ReplaceAll(body, "=\r\n", "")
}
