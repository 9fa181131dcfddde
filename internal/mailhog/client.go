package mailhog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const applicationJSON = "application/json"

// defaultTimeout bounds a single API request when the caller supplies
// no HTTP client of their own.
const defaultTimeout = 30 * time.Second

// Client talks to one MailHog instance. It holds no mutable state
// beyond the reusable transport, so a single Client is safe for
// concurrent use. Both operations are read-only; a failure is surfaced
// immediately with no retrying.
type Client struct {
	base       string
	httpClient *http.Client
}

// New creates a Client for the API rooted at baseURL, for example
// "http://localhost:8025". A nil httpClient selects a default with a
// 30 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		base:       strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ListMessages fetches one page of captured messages. Unset params
// fields are omitted from the query string so the server applies its
// default paging.
func (c *Client) ListMessages(ctx context.Context, params ListParams) (*MessageList, error) {
	q := url.Values{}
	if params.Start != nil {
		q.Set("start", strconv.Itoa(*params.Start))
	}
	if params.Limit != nil {
		q.Set("limit", strconv.Itoa(*params.Limit))
	}
	return c.get(ctx, "/api/v2/messages", q)
}

// Search fetches one page of messages matching the given query. The
// kind is validated client-side before any request is made.
func (c *Client) Search(ctx context.Context, params SearchParams) (*MessageList, error) {
	tok, err := params.Kind.token()
	if err != nil {
		return nil, fmt.Errorf("mailhog: %w", err)
	}

	q := url.Values{}
	q.Set("kind", tok)
	q.Set("query", params.Query)
	if params.Start != nil {
		q.Set("start", strconv.Itoa(*params.Start))
	}
	if params.Limit != nil {
		q.Set("limit", strconv.Itoa(*params.Limit))
	}
	return c.get(ctx, "/api/v2/search", q)
}

// get performs one GET against the API and decodes the response.
func (c *Client) get(ctx context.Context, path string, q url.Values) (*MessageList, error) {
	u := c.base + path
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{URL: u, Err: err}
	}
	req.Header.Set("Accept", applicationJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: u, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{Code: resp.StatusCode, URL: u}
	}

	return decodeMessageList(resp.Body)
}

// decodeMessageList decodes and validates one MessageList payload.
// An absent items array decodes to an empty page, not an error.
func decodeMessageList(r io.Reader) (*MessageList, error) {
	var list MessageList
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return nil, &DecodeError{Reason: "body is not a message list", Err: err}
	}
	if list.Items == nil {
		list.Items = []Message{}
	}
	for i := range list.Items {
		if err := validateMessage(&list.Items[i]); err != nil {
			return nil, &DecodeError{Reason: fmt.Sprintf("items[%d]", i), Err: err}
		}
	}
	return &list, nil
}

// validateMessage enforces the required fields of a captured message
// and normalizes its timestamp to UTC.
func validateMessage(m *Message) error {
	if m.ID == "" {
		return fmt.Errorf("missing ID")
	}
	if m.From.Mailbox == "" && m.From.Domain == "" {
		return fmt.Errorf("missing From")
	}
	if m.Created.IsZero() {
		return fmt.Errorf("missing or invalid Created timestamp")
	}
	m.Created = m.Created.UTC()
	return nil
}
