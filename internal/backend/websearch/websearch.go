// Package websearch implements the search backend on top of the DuckDuckGo
// Instant Answer API.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"switchboard/internal/backend"
)

const (
	defaultBaseURL = "https://api.duckduckgo.com"
	defaultTimeout = 10 * time.Second

	// maxRelatedTopics bounds how many related results go into one answer.
	maxRelatedTopics = 3
)

// Backend answers search queries.
type Backend struct {
	client *resty.Client
}

// Compile-time interface assertion.
var _ backend.Responder = (*Backend)(nil)

// Option configures a [Backend].
type Option func(*Backend)

// WithBaseURL overrides the API endpoint. Used in tests.
func WithBaseURL(u string) Option {
	return func(b *Backend) {
		b.client.SetBaseURL(u)
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(b *Backend) {
		b.client.SetTimeout(d)
	}
}

// New creates a search backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		client: resty.New().
			SetBaseURL(defaultBaseURL).
			SetTimeout(defaultTimeout).
			SetHeader("User-Agent", "switchboard"),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// instantAnswer is the subset of the DuckDuckGo response we consume. The API
// labels its JSON as javascript, so we decode the raw body ourselves.
type instantAnswer struct {
	Heading        string         `json:"Heading"`
	Answer         string         `json:"Answer"`
	AbstractText   string         `json:"AbstractText"`
	AbstractSource string         `json:"AbstractSource"`
	AbstractURL    string         `json:"AbstractURL"`
	RelatedTopics  []relatedTopic `json:"RelatedTopics"`
}

// relatedTopic is either a direct result or a named group of results.
type relatedTopic struct {
	Text     string         `json:"Text"`
	FirstURL string         `json:"FirstURL"`
	Topics   []relatedTopic `json:"Topics"`
}

var queryPrefixRe = regexp.MustCompile(`(?i)^(?:search for|search|find|look up|research|tell me about|what is|what are|who is|who was)\b\s*`)

// Answer implements backend.Responder.
func (b *Backend) Answer(ctx context.Context, q backend.Query) (string, error) {
	query := extractQuery(q.Text)
	if query == "" {
		return "Tell me what to search for, e.g. \"search for the Eiffel Tower\".", nil
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":             query,
			"format":        "json",
			"no_html":       "1",
			"skip_disambig": "1",
			"no_redirect":   "1",
		}).
		Get("/")
	if err != nil {
		return "", fmt.Errorf("websearch: query %q: %w", query, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("websearch: query %q: unexpected status %s", query, resp.Status())
	}

	var ia instantAnswer
	if err := json.Unmarshal(resp.Body(), &ia); err != nil {
		return "", fmt.Errorf("websearch: decode response: %w", err)
	}

	return synthesize(query, ia), nil
}

// extractQuery strips the search-intent preamble from the message so the
// remainder can be sent verbatim.
func extractQuery(text string) string {
	q := strings.TrimSpace(text)
	q = queryPrefixRe.ReplaceAllString(q, "")
	q = strings.TrimRight(q, "?!. ")
	return strings.TrimSpace(q)
}

// synthesize turns an instant answer into a single text reply, preferring a
// direct answer, then the abstract, then related topics.
func synthesize(query string, ia instantAnswer) string {
	if ia.Answer != "" {
		return ia.Answer
	}

	if ia.AbstractText != "" {
		var sb strings.Builder
		if ia.Heading != "" {
			sb.WriteString(ia.Heading + ": ")
		}
		sb.WriteString(ia.AbstractText)
		if ia.AbstractURL != "" {
			fmt.Fprintf(&sb, "\nSource: %s (%s)", ia.AbstractSource, ia.AbstractURL)
		}
		return sb.String()
	}

	topics := flattenTopics(ia.RelatedTopics, maxRelatedTopics)
	if len(topics) > 0 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Here's what I found about %q:", query)
		for _, t := range topics {
			sb.WriteString("\n- " + t)
		}
		return sb.String()
	}

	return fmt.Sprintf("I couldn't find anything about %q.", query)
}

// flattenTopics collects up to limit topic texts, descending into groups.
func flattenTopics(topics []relatedTopic, limit int) []string {
	var out []string
	for _, t := range topics {
		if len(out) >= limit {
			break
		}
		if t.Text != "" {
			out = append(out, t.Text)
			continue
		}
		for _, nested := range flattenTopics(t.Topics, limit-len(out)) {
			out = append(out, nested)
		}
	}
	return out
}
