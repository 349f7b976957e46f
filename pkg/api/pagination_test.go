package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedServer serves /page/{n} with numbered records, linking each page to
// the next until the last one.
func pagedServer(t *testing.T, pages int, backoff map[int]string) (*httptest.Server, *[]string) {
	t.Helper()
	var paths []string
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?"+r.URL.RawQuery)

		var page int
		_, err := fmt.Sscanf(r.URL.Path, "/users/1/page/%d", &page)
		if err != nil {
			_, err = fmt.Sscanf(r.URL.Path, "/page/%d", &page)
		}
		require.NoError(t, err)

		if page < pages {
			w.Header().Set("Link", fmt.Sprintf(`<%s/page/%d>; rel="next", <%s/page/%d>; rel="last"`,
				server.URL, page+1, server.URL, pages))
		}
		if b, ok := backoff[page]; ok {
			w.Header().Set("Backoff", b)
		}
		_, _ = w.Write([]byte(fmt.Sprintf(`[{"page":%d,"n":1},{"page":%d,"n":2}]`, page, page)))
	}))
	return server, &paths
}

func TestFetchAll_FollowsNextLinks(t *testing.T) {
	server, paths := pagedServer(t, 3, nil)
	defer server.Close()

	var slept []time.Duration
	c := New(Config{
		BaseURL: server.URL,
		APIKey:  "k",
		Scope:   UserScope(1),
		Sleep:   func(d time.Duration) { slept = append(slept, d) },
	})

	params := url.Values{}
	params.Set("limit", "2")
	records, err := c.FetchAll(context.Background(), "/page/1", params)
	require.NoError(t, err)

	// All three pages' records, concatenated in server order.
	require.Len(t, records, 6)
	var first, last map[string]int
	require.NoError(t, json.Unmarshal(records[0], &first))
	require.NoError(t, json.Unmarshal(records[5], &last))
	assert.Equal(t, 1, first["page"])
	assert.Equal(t, 3, last["page"])

	// Exactly N requests: scoped with params for page one, then the bare
	// next-page URIs, with no scope prefix or original params reapplied.
	require.Len(t, *paths, 3)
	assert.Equal(t, "/users/1/page/1?limit=2", (*paths)[0])
	assert.Equal(t, "/page/2?", (*paths)[1])
	assert.Equal(t, "/page/3?", (*paths)[2])

	assert.Empty(t, slept, "no backoff directives means no delays")
}

func TestFetchAll_HonorsBackoff(t *testing.T) {
	server, _ := pagedServer(t, 3, map[int]string{1: "5", 3: "9"})
	defer server.Close()

	var slept []time.Duration
	c := New(Config{
		BaseURL: server.URL,
		APIKey:  "k",
		Scope:   UserScope(1),
		Sleep:   func(d time.Duration) { slept = append(slept, d) },
	})

	_, err := c.FetchAll(context.Background(), "/page/1", nil)
	require.NoError(t, err)

	// The directive on page one delays page two. The directive on the
	// final page has no next fetch to delay.
	assert.Equal(t, []time.Duration{5 * time.Second}, slept)
}

func TestFetchAll_SinglePage(t *testing.T) {
	server, paths := pagedServer(t, 1, nil)
	defer server.Close()

	c := New(Config{BaseURL: server.URL, APIKey: "k", Scope: UserScope(1)})
	records, err := c.FetchAll(context.Background(), "/page/1", nil)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Len(t, *paths, 1)
}

func TestFetchAll_MalformedLinkEndsTraversal(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// Garbage link data where a continuation was expected.
		w.Header().Set("Link", `junk without angle brackets; rel="next"`)
		_, _ = w.Write([]byte(`[{"n":1}]`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, APIKey: "k", Scope: UserScope(1)})
	records, err := c.FetchAll(context.Background(), "/items", nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, requests, "fail open: stop paginating rather than loop")
}

func TestFetchAll_ErrorMidTraversal(t *testing.T) {
	requests := 0
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("server fell over"))
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/next>; rel="next"`, server.URL))
		_, _ = w.Write([]byte(`[{"n":1}]`))
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, APIKey: "k", Scope: UserScope(1)})
	_, err := c.FetchAll(context.Background(), "/items", nil)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusInternalServerError, reqErr.Status)
}

func TestFetchAll_ReportsPages(t *testing.T) {
	server, _ := pagedServer(t, 2, nil)
	defer server.Close()

	var seen []int
	c := New(Config{
		BaseURL: server.URL,
		APIKey:  "k",
		Scope:   UserScope(1),
		OnPage:  func(page int) { seen = append(seen, page) },
	})
	_, err := c.FetchAll(context.Background(), "/page/1", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestNextLink(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{"absent", "", ""},
		{"next only", `<https://api.example.org/p2>; rel="next"`, "https://api.example.org/p2"},
		{"among others", `<https://x/alt>; rel="alternate", <https://x/p2>; rel="next", <https://x/p9>; rel="last"`, "https://x/p2"},
		{"unquoted rel", `<https://x/p2>; rel=next`, "https://x/p2"},
		{"no next relation", `<https://x/p9>; rel="last"`, ""},
		{"malformed uri", `https://x/p2; rel="next"`, ""},
		{"missing rel", `<https://x/p2>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.link != "" {
				h.Set("Link", tt.link)
			}
			assert.Equal(t, tt.want, nextLink(h))
		})
	}
}

func TestBackoffSeconds(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, 0, backoffSeconds(h))
	h.Set("Backoff", "12")
	assert.Equal(t, 12, backoffSeconds(h))
	h.Set("Backoff", " 3 ")
	assert.Equal(t, 3, backoffSeconds(h))
	h.Set("Backoff", "soon")
	assert.Equal(t, 0, backoffSeconds(h))
	h.Set("Backoff", "-4")
	assert.Equal(t, 0, backoffSeconds(h))
}
