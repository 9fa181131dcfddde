// Package mailhog is a read-only client for the MailHog v2 HTTP API.
// It covers the two retrieval operations (message listing and search)
// and the value types they decode into.
package mailhog

import (
	"fmt"
	"sort"
	"time"
)

// EmailAddr is one mailbox@domain pair as captured by the server.
// Params and Relays are preserved from the wire but take no part in
// display or in verification equality.
type EmailAddr struct {
	Mailbox string  `json:"Mailbox"`
	Domain  string  `json:"Domain"`
	Params  string  `json:"Params"`
	Relays  *string `json:"Relays"`
}

// String renders the address in its textual form, mailbox@domain.
func (a EmailAddr) String() string {
	return fmt.Sprintf("%s@%s", a.Mailbox, a.Domain)
}

// MessageContent holds the captured headers, raw body and encoded size.
// The body may still contain transport-encoding artifacts such as
// quoted-printable soft line breaks; Size is the size of the encoded
// body, so Size >= len(decoded body) for any non-trivial encoding.
type MessageContent struct {
	Headers map[string][]string `json:"Headers"`
	Body    string              `json:"Body"`
	Size    int                 `json:"Size"`
	MIME    *string             `json:"MIME"`
}

// Message is one captured email. ID is opaque and server-assigned.
// Created is the server-side capture timestamp, normalized to UTC on
// decode; it is the only ordering relation the API guarantees.
type Message struct {
	ID      string         `json:"ID"`
	From    EmailAddr      `json:"From"`
	To      []EmailAddr    `json:"To"`
	Content MessageContent `json:"Content"`
	Created time.Time      `json:"Created"`
}

// Before reports whether m was captured strictly before other.
func (m Message) Before(other Message) bool {
	return m.Created.Before(other.Created)
}

// MessageList is one page of a message collection. Total counts all
// matches server-side; Count is the number of items on this page.
// Page order is whatever the server returned; callers that need a
// deterministic order must sort with SortByCreated.
type MessageList struct {
	Total int       `json:"total"`
	Start int       `json:"start"`
	Count int       `json:"count"`
	Items []Message `json:"items"`
}

// SortByCreated sorts messages by capture time ascending. The sort is
// stable, so server page order survives for equal timestamps.
func SortByCreated(items []Message) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Created.Before(items[j].Created)
	})
}

// ListParams selects a page for ListMessages. A nil field is omitted
// from the request entirely; the server then applies its default
// paging. Zero is a meaningful explicit offset, distinct from nil.
type ListParams struct {
	Start *int
	Limit *int
}

// SearchKind selects the field a search query matches against.
type SearchKind int

const (
	// SearchFrom matches the sender address exactly.
	SearchFrom SearchKind = iota + 1
	// SearchTo matches a recipient address exactly.
	SearchTo
	// SearchContaining substring-matches subject or body. Case
	// sensitivity and matching scope are defined by the server.
	SearchContaining
)

// searchKindTokens are the only values the server accepts.
var searchKindTokens = map[SearchKind]string{
	SearchFrom:       "from",
	SearchTo:         "to",
	SearchContaining: "containing",
}

// String returns the lowercase wire token for the kind, or an empty
// string for an invalid value.
func (k SearchKind) String() string {
	return searchKindTokens[k]
}

// token returns the wire token, failing for values outside the closed
// set so an invalid kind never reaches the server.
func (k SearchKind) token() (string, error) {
	tok, ok := searchKindTokens[k]
	if !ok {
		return "", fmt.Errorf("invalid search kind %d", int(k))
	}
	return tok, nil
}

// ParseSearchKind maps a wire token back to its SearchKind.
func ParseSearchKind(s string) (SearchKind, error) {
	for k, tok := range searchKindTokens {
		if tok == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown search kind %q (want from, to or containing)", s)
}

// SearchParams describes one search request. Start and Limit behave as
// in ListParams.
type SearchParams struct {
	Kind  SearchKind
	Query string
	Start *int
	Limit *int
}
