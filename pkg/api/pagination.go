package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FetchAll returns the complete logical collection at path by following the
// Link header's rel="next" cursor until the server stops issuing one.
//
// The initial request is scoped and carries params; every follow-up request
// reuses only the next-page URI the server returned (it already encodes all
// query state) plus the fixed auth headers. When a page that has a next link
// also carries a Backoff directive, the traversal sleeps that many seconds
// before continuing. A missing or malformed next link ends the traversal:
// stopping early beats looping forever on garbage metadata.
//
// Pages are fetched strictly one at a time and records are returned in
// server-delivered order.
func (c *Client) FetchAll(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	next := c.url(path, true, params)
	var records []json.RawMessage

	for page := 1; next != ""; page++ {
		resp, err := c.do(ctx, http.MethodGet, next, nil, nil)
		if err != nil {
			return nil, err
		}

		var pageRecords []json.RawMessage
		if err := json.Unmarshal(resp.Body, &pageRecords); err != nil {
			return nil, fmt.Errorf("failed to decode page %d: %w", page, err)
		}
		records = append(records, pageRecords...)

		if c.onPage != nil {
			c.onPage(page)
		}

		next = nextLink(resp.Header)
		if next != "" {
			if secs := backoffSeconds(resp.Header); secs > 0 {
				c.sleep(time.Duration(secs) * time.Second)
			}
		}
	}
	return records, nil
}

// nextLink extracts the rel="next" URI from a Link header, or "" when no
// usable next relation is present.
func nextLink(header http.Header) string {
	link := header.Get("Link")
	if link == "" {
		return ""
	}
	for _, part := range strings.Split(link, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		uri := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(uri, "<") || !strings.HasSuffix(uri, ">") {
			continue
		}
		for _, attr := range segments[1:] {
			attr = strings.TrimSpace(attr)
			if attr == `rel="next"` || attr == "rel=next" {
				return strings.TrimSuffix(strings.TrimPrefix(uri, "<"), ">")
			}
		}
	}
	return ""
}

// backoffSeconds reads the server's rate-limit directive. A missing or
// malformed header means no delay.
func backoffSeconds(header http.Header) int {
	raw := header.Get(headerBackoff)
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}
