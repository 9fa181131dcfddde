// Package sender defines the interface for fixture delivery backends.
package sender

import (
	"context"

	"github.com/probekit/hogcheck/internal/synth"
)

// Sender is the interface that fixture delivery backends implement.
// Each backend hands a synthesized message to its destination (the
// capture service's SMTP endpoint, or stdout for dry runs).
type Sender interface {
	// Send delivers one fixture. It returns an error if delivery
	// fails; partial delivery is not reported.
	Send(ctx context.Context, fixture synth.Fixture) error

	// Name returns the human-readable name of this backend.
	Name() string
}
