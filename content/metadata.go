package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/microcosm-cc/bluemonday"

	"github.com/tribeshq/tribes-go/cache"
	"github.com/tribeshq/tribes-go/internal/ratelimit"
	"github.com/tribeshq/tribes-go/models"
	"github.com/tribeshq/tribes-go/pkg/errors"
	"github.com/tribeshq/tribes-go/pkg/logger"
)

// maxMetadataBody bounds how much of a remote metadata document is read.
const maxMetadataBody = 1 << 20

// metadataFetcher dereferences metadata that is itself a remote document
// reference. Fetches are throttled per host; no retry policy is applied.
type metadataFetcher struct {
	timeout time.Duration
	limiter *ratelimit.Limiter
	client  *http.Client

	// sanitizer strips markup from untrusted remote document strings.
	sanitizer *bluemonday.Policy
}

func (f *metadataFetcher) httpClient() *http.Client {
	if f.client == nil {
		f.client = &http.Client{Timeout: f.timeout}
	}
	return f.client
}

func (f *metadataFetcher) policy() *bluemonday.Policy {
	if f.sanitizer == nil {
		f.sanitizer = bluemonday.StrictPolicy()
	}
	return f.sanitizer
}

// parse resolves a post's raw metadata into a structured document:
// an http(s) URL is dereferenced and decoded, anything else is parsed as
// JSON directly, and unparsable content is wrapped as freeform text.
func (f *metadataFetcher) parse(ctx context.Context, metadata string) (map[string]any, error) {
	if metadata == "" {
		return map[string]any{"title": "", "content": "", "media": []any{}}, nil
	}

	if strings.HasPrefix(metadata, "http://") || strings.HasPrefix(metadata, "https://") {
		doc, err := f.fetch(ctx, metadata)
		if err != nil {
			return nil, err
		}
		return f.sanitize(doc), nil
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(metadata), &doc); err != nil {
		return map[string]any{
			"title":   "",
			"content": f.policy().Sanitize(metadata),
			"media":   []any{},
		}, nil
	}
	return f.sanitize(doc), nil
}

func (f *metadataFetcher) fetch(ctx context.Context, rawURL string) (map[string]any, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAPI, "invalid metadata URL")
	}
	if !f.limiter.Allow(u.Host) {
		return nil, errors.New(errors.ErrCodeAPI, fmt.Sprintf("metadata fetch rate limit exceeded for host %s", u.Host))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAPI, "failed to build metadata request")
	}
	resp, err := f.httpClient().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAPI, "failed to fetch metadata document")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeAPI, fmt.Sprintf("metadata fetch returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBody))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAPI, "failed to read metadata document")
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAPI, "metadata document is not valid JSON")
	}
	return doc, nil
}

// sanitize passes every top-level string field of a remote document through
// the strict policy. Remote content is untrusted.
func (f *metadataFetcher) sanitize(doc map[string]any) map[string]any {
	for key, value := range doc {
		if s, ok := value.(string); ok {
			doc[key] = f.policy().Sanitize(s)
		}
	}
	return doc
}

// GetParsedPost returns a post with its metadata resolved into a structured
// document. The result is cached with a generous time-based window,
// independent of the chain head: it depends on external content, not
// ledger state.
func (s *Service) GetParsedPost(ctx context.Context, post models.Post) (models.ParsedPost, error) {
	return cache.Lookup(ctx, s.cache, cache.KeyParsedPost(post.ID), cache.Policy{MaxAge: s.cfg.MetadataMaxAge},
		func(ctx context.Context) (models.ParsedPost, error) {
			doc, err := s.fetcher.parse(ctx, post.Metadata)
			if err != nil {
				return models.ParsedPost{}, errors.Normalize(err, errors.ErrCodeAPI, fmt.Sprintf("failed to parse post details for post %d", post.ID))
			}
			return models.ParsedPost{Post: post, ParsedMetadata: doc}, nil
		})
}

// FeedWithParsedMetadata returns one feed page with each post's metadata
// parsed for display. A post whose metadata cannot be resolved is kept with
// an error marker rather than dropped.
func (s *Service) FeedWithParsedMetadata(ctx context.Context, user common.Address, query PostQuery) ([]models.ParsedPost, error) {
	feed, err := s.GetFeedForUser(ctx, user, query)
	if err != nil {
		return nil, errors.Normalize(err, errors.ErrCodeContract, "failed to get feed with parsed metadata")
	}
	if len(feed.Posts) == 0 {
		return nil, nil
	}

	parsed := make([]models.ParsedPost, 0, len(feed.Posts))
	for _, post := range feed.Posts {
		p, err := s.GetParsedPost(ctx, post)
		if err != nil {
			logger.Warn("failed to parse post metadata", "postId", post.ID, "error", err)
			p = models.ParsedPost{
				Post:           post,
				ParsedMetadata: map[string]any{"error": "Invalid metadata format"},
			}
		}
		parsed = append(parsed, p)
	}
	return parsed, nil
}
