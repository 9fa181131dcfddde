// Package synth generates randomized email fixtures for verification
// scenarios: a (sender, recipient, subject, body) tuple per message,
// with any subset of fields pinned to caller-supplied values.
package synth

import (
	"math/rand"
	"strings"
	"time"
)

// Field lengths for randomized values. Pinned values are free-form.
const (
	mailboxLen = 10
	domainLen  = 10
	subjectLen = 50
	bodyLen    = 200
)

// alphanumeric is the alphabet for all randomized strings. Plain ASCII
// keeps fixture bodies free of characters that would need their own
// quoted-printable escapes.
const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Fixture is one synthesized message payload.
type Fixture struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Params pins fixture fields. A nil field is randomized independently
// for every generated message; a pinned field is shared by the whole
// batch. Domain pins only the domain part of randomized addresses and
// has no effect on a pinned From/To.
type Params struct {
	From    *string
	To      *string
	Subject *string
	Body    *string
	Domain  *string
}

// Pin is a convenience for building Params literals.
func Pin(s string) *string { return &s }

// Generator produces fixtures from an injected randomness source. It
// is deterministic for a given seed, letting failed scenarios be
// replayed exactly. A Generator is not safe for concurrent use; each
// scenario owns its own.
type Generator struct {
	rng *rand.Rand
}

// New returns a Generator seeded with the given value.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NewRandom returns a time-seeded Generator for callers that do not
// need reproducibility.
func NewRandom() *Generator {
	return New(time.Now().UnixNano())
}

// NewFromSource returns a Generator drawing from rng.
func NewFromSource(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate produces n fixtures. Pinned fields repeat across the batch;
// everything else is fresh per message.
func (g *Generator) Generate(n int, p Params) []Fixture {
	fixtures := make([]Fixture, 0, n)
	for i := 0; i < n; i++ {
		fixtures = append(fixtures, Fixture{
			From:    g.pick(p.From, func() string { return g.Addr(p.Domain) }),
			To:      g.pick(p.To, func() string { return g.Addr(p.Domain) }),
			Subject: g.pick(p.Subject, func() string { return g.Str(subjectLen) }),
			Body:    g.pick(p.Body, func() string { return g.Str(bodyLen) }),
		})
	}
	return fixtures
}

// GenerateOne produces a single fixture.
func (g *Generator) GenerateOne(p Params) Fixture {
	return g.Generate(1, p)[0]
}

// Str returns a random alphanumeric string of length n.
func (g *Generator) Str(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphanumeric[g.rng.Intn(len(alphanumeric))])
	}
	return b.String()
}

// Addr returns a random mailbox at the given domain, or at a random
// .com domain when domain is nil.
func (g *Generator) Addr(domain *string) string {
	d := ""
	if domain != nil {
		d = *domain
	} else {
		d = g.Str(domainLen) + ".com"
	}
	return g.Str(mailboxLen) + "@" + d
}

// pick returns the pinned value when present, otherwise a fresh random
// one.
func (g *Generator) pick(pinned *string, random func() string) string {
	if pinned != nil {
		return *pinned
	}
	return random()
}
