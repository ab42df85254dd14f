package canvas

import (
	"context"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tomnomnom/linkheader"
)

// StatusError is returned when a page request does not come back 2xx
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: unexpected status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Paginator walks a resource that links pages through the Link header
type Paginator struct {
	HTTP  *http.Client
	Token string
}

// Walk fetches startURL and every page reachable through rel="next",
// returning the raw records of all pages in order. A non-2xx status on any
// page aborts the walk.
func (p *Paginator) Walk(ctx context.Context, startURL string) ([]json.RawMessage, error) {
	records := []json.RawMessage{}
	next := startURL
	for next != "" {
		page, link, err := p.fetch(ctx, next)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
		next = nextLink(link)
	}
	return records, nil
}

func (p *Paginator) fetch(ctx context.Context, url string) ([]json.RawMessage, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", errors.Wrapf(err, "build request %s", url)
	}
	req.Header.Set("Authorization", "Bearer "+p.Token)
	req.Header.Set("Accept", "application/json")

	client := p.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", errors.Wrapf(err, "GET %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var page []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, resp.Header.Get("Link"), nil
		}
		return nil, "", errors.Wrapf(err, "decode page %s", url)
	}
	return page, resp.Header.Get("Link"), nil
}

func nextLink(header string) string {
	if header == "" {
		return ""
	}
	for _, l := range linkheader.Parse(header).FilterByRel("next") {
		if l.URL != "" {
			return l.URL
		}
	}
	return ""
}

// collect walks a resource and decodes every record into T
func collect[T any](ctx context.Context, p *Paginator, url string) ([]T, error) {
	raw, err := p.Walk(ctx, url)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, errors.Wrapf(err, "decode record %d of %s", i, url)
		}
		out = append(out, v)
	}
	return out, nil
}
