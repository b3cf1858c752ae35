package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testOptions(baseURL string) Options {
	return Options{
		BaseURL:  baseURL,
		Repo:     "test/gazette",
		Attempts: 3,
		Backoff:  time.Millisecond,
	}
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	client := NewClient(testOptions(server.URL))
	body, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected 'hello', got %q", data)
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(testOptions(server.URL))
	data, err := client.GetBytes(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetBytes: %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("expected 'ok', got %q", data)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryExhaustion(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testOptions(server.URL))
	_, err := client.GetBytes(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !errors.Is(err, ErrServerError) {
		t.Errorf("expected ErrServerError, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestClientErrorsAreRetried(t *testing.T) {
	// The retry policy makes no distinction between status classes.
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testOptions(server.URL))
	_, err := client.GetBytes(context.Background(), server.URL)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts for 404, got %d", attempts)
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	opts := testOptions(server.URL)
	opts.Backoff = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(opts)
	_, err := client.GetBytes(ctx, server.URL)
	if err == nil {
		t.Error("expected error due to context cancellation")
	}
}

func TestResolveURL(t *testing.T) {
	client := NewClient(Options{BaseURL: "https://example.com", Repo: "org/repo"})
	got := client.ResolveURL("pdf/2024/2024-01/doc.pdf")
	want := "https://example.com/datasets/org/repo/resolve/main/pdf/2024/2024-01/doc.pdf"
	if got != want {
		t.Errorf("ResolveURL = %q, want %q", got, want)
	}
}

func TestListTreePagination(t *testing.T) {
	// Two full pages linked by a cursor, then a short final page.
	pages := map[string][]TreeEntry{}
	for _, c := range []string{"", "c1", "c2"} {
		n := PageCap
		if c == "c2" {
			n = 2
		}
		page := make([]TreeEntry, n)
		for i := range page {
			page[i] = TreeEntry{Type: "file", Path: fmt.Sprintf("pdf/%s-%d.pdf", c, i), Size: 10}
		}
		pages[c] = page
	}
	nextOf := map[string]string{"": "c1", "c1": "c2"}

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		cursor := r.URL.Query().Get("cursor")
		page, ok := pages[cursor]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if next, ok := nextOf[cursor]; ok {
			w.Header().Set("Link", fmt.Sprintf(`<%s%s?cursor=%s>; rel="next"`, "http://example", r.URL.Path, next))
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	client := NewClient(testOptions(server.URL))
	entries, truncated, err := client.ListTree(context.Background(), "pdf/2024/2024-01")
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}
	if truncated {
		t.Error("expected truncated=false")
	}
	if requests != 3 {
		t.Errorf("expected 3 requests, got %d", requests)
	}
	if len(entries) != 2*PageCap+2 {
		t.Errorf("expected %d entries, got %d", 2*PageCap+2, len(entries))
	}
}

func TestListTreeStopsOnShortPage(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		json.NewEncoder(w).Encode([]TreeEntry{
			{Type: "file", Path: "pdf/a.pdf", Size: 1},
			{Type: "directory", Path: "pdf/sub"},
		})
	}))
	defer server.Close()

	client := NewClient(testOptions(server.URL))
	entries, truncated, err := client.ListTree(context.Background(), "pdf")
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}
	if requests != 1 {
		t.Errorf("expected 1 request, got %d", requests)
	}
	if truncated {
		t.Error("expected truncated=false")
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 file entry, got %d", len(entries))
	}
	if entries[0].Path != "pdf/a.pdf" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestListTreeTruncatedWithoutCursor(t *testing.T) {
	// A full page with no Link header: the listing may be incomplete.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := make([]TreeEntry, PageCap)
		for i := range page {
			page[i] = TreeEntry{Type: "file", Path: fmt.Sprintf("pdf/%d.pdf", i)}
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer server.Close()

	client := NewClient(testOptions(server.URL))
	entries, truncated, err := client.ListTree(context.Background(), "pdf")
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}
	if !truncated {
		t.Error("expected truncated=true")
	}
	if len(entries) != PageCap {
		t.Errorf("expected %d entries, got %d", PageCap, len(entries))
	}
}

func TestNextCursor(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{`<https://h.co/api/datasets/o/r/tree/main/p?cursor=abc123>; rel="next"`, "abc123"},
		{`<https://h.co/x?cursor=a%3Db>; rel="next"`, "a=b"},
		{`<https://h.co/x?cursor=zzz>; rel="prev", <https://h.co/x?cursor=nnn>; rel="next"`, "nnn"},
		{`<https://h.co/x>; rel="prev"`, ""},
		{``, ""},
	}

	for _, tt := range tests {
		if got := nextCursor(tt.link); got != tt.want {
			t.Errorf("nextCursor(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}
}
