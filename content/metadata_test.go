package content

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tribeshq/tribes-go/gateway/gatewaytest"
	"github.com/tribeshq/tribes-go/internal/ratelimit"
	"github.com/tribeshq/tribes-go/pkg/errors"
)

func newFetcher(limit int) *metadataFetcher {
	return &metadataFetcher{
		timeout: 5 * time.Second,
		limiter: ratelimit.New(limit, time.Minute),
	}
}

func TestParse_EmptyMetadata(t *testing.T) {
	f := newFetcher(10)

	doc, err := f.parse(context.Background(), "")
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	if doc["title"] != "" || doc["content"] != "" {
		t.Errorf("doc = %v, want empty title and content", doc)
	}
	if _, ok := doc["media"]; !ok {
		t.Error("doc should carry a media field")
	}
}

func TestParse_InlineJSON(t *testing.T) {
	f := newFetcher(10)

	doc, err := f.parse(context.Background(), `{"title":"hello","content":"world"}`)
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	if doc["title"] != "hello" || doc["content"] != "world" {
		t.Errorf("doc = %v", doc)
	}
}

func TestParse_FreeformTextFallback(t *testing.T) {
	f := newFetcher(10)

	doc, err := f.parse(context.Background(), "just a plain caption")
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	if doc["content"] != "just a plain caption" {
		t.Errorf("content = %v, want the raw text", doc["content"])
	}
	if doc["title"] != "" {
		t.Errorf("title = %v, want empty", doc["title"])
	}
}

func TestParse_RemoteDocument(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"title":"<b>bold</b> title","content":"<script>alert(1)</script>safe text"}`)
	}))
	defer server.Close()

	f := newFetcher(10)
	doc, err := f.parse(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}

	// Markup is stripped from every top-level string.
	if doc["title"] != "bold title" {
		t.Errorf("title = %q, want markup stripped", doc["title"])
	}
	if doc["content"] != "safe text" {
		t.Errorf("content = %q, want script removed", doc["content"])
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}
}

func TestParse_RemoteErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/garbage":
			fmt.Fprint(w, "not json")
		}
	}))
	defer server.Close()

	f := newFetcher(10)
	for _, path := range []string{"/missing", "/garbage"} {
		_, err := f.parse(context.Background(), server.URL+path)
		if err == nil {
			t.Errorf("parse(%s) expected error", path)
			continue
		}
		if !errors.IsCode(err, errors.ErrCodeAPI) {
			t.Errorf("parse(%s) error code = %v, want API_ERROR", path, err)
		}
	}
}

func TestParse_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	f := newFetcher(1)
	if _, err := f.parse(context.Background(), server.URL+"/a"); err != nil {
		t.Fatalf("first fetch error = %v", err)
	}
	_, err := f.parse(context.Background(), server.URL+"/b")
	if err == nil {
		t.Fatal("second fetch within the window should be throttled")
	}
	if !errors.IsCode(err, errors.ErrCodeAPI) {
		t.Errorf("error code = %v, want API_ERROR", err)
	}
}

func TestGetParsedPost_CachedByAge(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"title":"doc"}`)
	}))
	defer server.Close()

	f := newFixture(t)
	id := f.createPost(t, server.URL)
	post, err := f.svc.GetPost(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}

	parsed, err := f.svc.GetParsedPost(context.Background(), post)
	if err != nil {
		t.Fatalf("GetParsedPost() error = %v", err)
	}
	if parsed.ParsedMetadata["title"] != "doc" {
		t.Errorf("title = %v, want doc", parsed.ParsedMetadata["title"])
	}

	// The entry is time-based, so even advancing the chain must not refetch.
	f.ledger.AdvanceBlock()
	if _, err := f.svc.GetParsedPost(context.Background(), post); err != nil {
		t.Fatalf("second GetParsedPost() error = %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1 (second read served from cache)", hits.Load())
	}
}

func TestFeedWithParsedMetadata_KeepsFailedPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := newFixture(t)
	f.createPost(t, `{"title":"fine"}`)
	f.createPost(t, server.URL)

	user := gatewaytest.Account(1)
	parsed, err := f.svc.FeedWithParsedMetadata(context.Background(), user, PostQuery{Limit: 10})
	if err != nil {
		t.Fatalf("FeedWithParsedMetadata() error = %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("parsed = %d entries, want 2 (failures kept)", len(parsed))
	}
	if parsed[0].ParsedMetadata["title"] != "fine" {
		t.Errorf("first title = %v, want fine", parsed[0].ParsedMetadata["title"])
	}
	if parsed[1].ParsedMetadata["error"] != "Invalid metadata format" {
		t.Errorf("second entry = %v, want error marker", parsed[1].ParsedMetadata)
	}
}
