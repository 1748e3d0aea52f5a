// Package content is the content registry: post creation variants,
// interaction recording, moderation and the paginated, filterable query
// paths. All reads go through the consistency cache; mutations invalidate
// the entries they affect only after ledger confirmation.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tribeshq/tribes-go/cache"
	"github.com/tribeshq/tribes-go/config"
	"github.com/tribeshq/tribes-go/gateway"
	"github.com/tribeshq/tribes-go/internal/ratelimit"
	"github.com/tribeshq/tribes-go/internal/validate"
	"github.com/tribeshq/tribes-go/models"
	"github.com/tribeshq/tribes-go/pkg/errors"
	"github.com/tribeshq/tribes-go/pkg/logger"
	"github.com/tribeshq/tribes-go/security"
)

// batchThreshold is the batching heuristic cutoff: fetching details for at
// most this many identifiers issues per-identifier cached calls (maximizes
// reuse); above it, one combined entry keyed by the sorted identifier list
// (minimizes round-trips at the cost of coarser invalidation).
const batchThreshold = 3

// Service is the content module.
type Service struct {
	gw      gateway.Gateway
	cache   *cache.Cache
	cfg     *config.Config
	fetcher *metadataFetcher
}

func NewService(gw gateway.Gateway, c *cache.Cache, cfg *config.Config) *Service {
	return &Service{
		gw:    gw,
		cache: c,
		cfg:   cfg,
		fetcher: &metadataFetcher{
			timeout: cfg.MetadataTimeout,
			limiter: ratelimit.New(cfg.MetadataRateLimit, cfg.MetadataRateWindow),
		},
	}
}

// CreatePostParams are the inputs for a plain or collectible-gated post.
type CreatePostParams struct {
	TribeID             uint64
	Metadata            string
	IsGated             bool
	CollectibleContract common.Address
	CollectibleID       uint64
}

// CreatePost creates a post and returns its ledger-assigned identifier,
// extracted from the PostCreated event in the confirmation receipt.
func (s *Service) CreatePost(ctx context.Context, params CreatePostParams) (uint64, error) {
	if err := validate.NonEmptyString(params.Metadata, "metadata"); err != nil {
		return 0, err
	}

	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractPostMinter,
		Method:   "createPost",
		Args: []any{
			params.TribeID,
			params.Metadata,
			params.IsGated,
			params.CollectibleContract,
			params.CollectibleID,
		},
	})
	if err != nil {
		return 0, errors.Normalize(err, errors.ErrCodeContract, "failed to create post")
	}

	postID, err := postIDFromEvent(receipt, gateway.EventPostCreated, "post creation event not found")
	if err != nil {
		return 0, err
	}

	s.cache.InvalidateByPrefix(cache.PrefixTribePosts(params.TribeID))
	s.cache.InvalidateByPrefix(cache.PrefixAllFeeds)

	logger.Info("created post",
		"postId", postID,
		"tribeId", params.TribeID,
		"txHash", receipt.TxHash.Hex(),
	)
	return postID, nil
}

// BatchPostData is one post in a batch creation call.
type BatchPostData struct {
	Metadata            string
	PostType            models.PostType
	IsGated             bool
	CollectibleContract common.Address
	CollectibleID       uint64
}

// CreateBatchPosts creates several posts in one transaction and returns
// their identifiers from the BatchPostsCreated event. Each post's content
// kind travels as its numeric code.
func (s *Service) CreateBatchPosts(ctx context.Context, tribeID uint64, posts []BatchPostData) ([]uint64, error) {
	if len(posts) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "posts must not be empty")
	}

	batch := make([]gateway.BatchPostData, len(posts))
	for i, post := range posts {
		if err := validate.NonEmptyString(post.Metadata, fmt.Sprintf("posts[%d].metadata", i)); err != nil {
			return nil, err
		}
		batch[i] = gateway.BatchPostData{
			Metadata:            post.Metadata,
			IsGated:             post.IsGated,
			CollectibleContract: post.CollectibleContract,
			CollectibleID:       post.CollectibleID,
			PostType:            post.PostType.Code(),
		}
	}

	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractPostMinter,
		Method:   "createBatchPosts",
		Args:     []any{tribeID, batch},
	})
	if err != nil {
		return nil, errors.Normalize(err, errors.ErrCodeContract, "failed to create batch posts")
	}

	event, ok := receipt.FindEvent(gateway.EventBatchPostsCreated)
	if !ok {
		return nil, errors.New(errors.ErrCodeContract, "batch post creation event not found")
	}
	var postIDs []uint64
	ok = len(event.Args) > 2
	if ok {
		postIDs, ok = event.Args[2].([]uint64)
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeContract, "malformed batch post creation event")
	}

	s.cache.InvalidateByPrefix(cache.PrefixTribePosts(tribeID))
	s.cache.InvalidateByPrefix(cache.PrefixAllFeeds)

	logger.Info("created batch posts",
		"tribeId", tribeID,
		"count", len(postIDs),
		"txHash", receipt.TxHash.Hex(),
	)
	return postIDs, nil
}

// CreateEncryptedPostParams are the inputs for an encrypted post.
type CreateEncryptedPostParams struct {
	TribeID           uint64
	Metadata          string
	EncryptionKeyHash common.Hash
	AccessSigner      common.Address
}

// CreateEncryptedPost creates an encrypted post and returns its identifier
// from the EncryptedPostCreated event.
func (s *Service) CreateEncryptedPost(ctx context.Context, params CreateEncryptedPostParams) (uint64, error) {
	if err := validate.NonEmptyString(params.Metadata, "metadata"); err != nil {
		return 0, err
	}
	if err := validate.Address(params.AccessSigner.Hex(), "accessSigner"); err != nil {
		return 0, err
	}

	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractPostMinter,
		Method:   "createEncryptedPost",
		Args: []any{
			params.TribeID,
			params.Metadata,
			params.EncryptionKeyHash,
			params.AccessSigner,
		},
	})
	if err != nil {
		return 0, errors.Normalize(err, errors.ErrCodeContract, "failed to create encrypted post")
	}

	postID, err := postIDFromEvent(receipt, gateway.EventEncryptedPostCreated, "encrypted post creation event not found")
	if err != nil {
		return 0, err
	}

	s.cache.InvalidateByPrefix(cache.PrefixTribePosts(params.TribeID))

	logger.Info("created encrypted post",
		"postId", postID,
		"tribeId", params.TribeID,
		"txHash", receipt.TxHash.Hex(),
	)
	return postID, nil
}

// CreateSignatureGatedPostParams are the inputs for a post gated on both
// collectible ownership and signature-based decryption.
type CreateSignatureGatedPostParams struct {
	TribeID             uint64
	Metadata            string
	EncryptionKeyHash   common.Hash
	AccessSigner        common.Address
	CollectibleContract common.Address
	CollectibleID       uint64
}

// CreateSignatureGatedPost creates a signature-gated post and returns its
// identifier from the SignatureGatedPostCreated event.
func (s *Service) CreateSignatureGatedPost(ctx context.Context, params CreateSignatureGatedPostParams) (uint64, error) {
	if err := validate.NonEmptyString(params.Metadata, "metadata"); err != nil {
		return 0, err
	}
	if err := validate.Address(params.AccessSigner.Hex(), "accessSigner"); err != nil {
		return 0, err
	}

	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractPostMinter,
		Method:   "createSignatureGatedPost",
		Args: []any{
			params.TribeID,
			params.Metadata,
			params.EncryptionKeyHash,
			params.AccessSigner,
			params.CollectibleContract,
			params.CollectibleID,
		},
	})
	if err != nil {
		return 0, errors.Normalize(err, errors.ErrCodeContract, "failed to create signature gated post")
	}

	postID, err := postIDFromEvent(receipt, gateway.EventSignatureGatedPostCreated, "signature gated post creation event not found")
	if err != nil {
		return 0, err
	}

	s.cache.InvalidateByPrefix(cache.PrefixTribePosts(params.TribeID))

	logger.Info("created signature gated post",
		"postId", postID,
		"tribeId", params.TribeID,
		"txHash", receipt.TxHash.Hex(),
	)
	return postID, nil
}

// DeletePost records a deletion on the ledger. History is not removed; the
// post remains readable with its deletion recorded.
func (s *Service) DeletePost(ctx context.Context, postID uint64) (common.Hash, error) {
	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractPostMinter,
		Method:   "deletePost",
		Args:     []any{postID},
	})
	if err != nil {
		return common.Hash{}, errors.Normalize(err, errors.ErrCodeContract, fmt.Sprintf("failed to delete post %d", postID))
	}

	s.invalidatePost(postID)

	// Re-read the post to learn its tribe, then drop that tribe's listings.
	post, err := s.GetPost(ctx, postID)
	if err == nil {
		s.cache.InvalidateByPrefix(cache.PrefixTribePosts(post.TribeID))
	}

	logger.Info("deleted post", "postId", postID, "txHash", receipt.TxHash.Hex())
	return receipt.TxHash, nil
}

// ReportPost reports a post for moderation.
func (s *Service) ReportPost(ctx context.Context, postID uint64, reason string) (common.Hash, error) {
	if err := validate.NonEmptyString(reason, "reason"); err != nil {
		return common.Hash{}, err
	}

	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractPostMinter,
		Method:   "reportPost",
		Args:     []any{postID, reason},
	})
	if err != nil {
		return common.Hash{}, errors.Normalize(err, errors.ErrCodeContract, "failed to report post")
	}

	s.invalidatePost(postID)

	logger.Info("reported post", "postId", postID, "txHash", receipt.TxHash.Hex())
	return receipt.TxHash, nil
}

// InteractWithPost records an interaction (like, comment, share, ...) and
// invalidates the post's cache entry so the next detail fetch reflects the
// updated counters.
func (s *Service) InteractWithPost(ctx context.Context, postID uint64, kind models.InteractionType) (common.Hash, error) {
	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractPostMinter,
		Method:   "interactWithPost",
		Args:     []any{postID, kind.Code()},
	})
	if err != nil {
		return common.Hash{}, errors.Normalize(err, errors.ErrCodeContract, "failed to interact with post")
	}

	if _, ok := receipt.FindEvent(gateway.EventPostInteraction); !ok {
		return common.Hash{}, errors.New(errors.ErrCodeContract, "post interaction event not found")
	}

	s.invalidatePost(postID)

	logger.Info("interacted with post",
		"postId", postID,
		"interactionType", string(kind),
		"txHash", receipt.TxHash.Hex(),
	)
	return receipt.TxHash, nil
}

// AuthorizeViewer grants a viewer ledger-side access to an encrypted post.
func (s *Service) AuthorizeViewer(ctx context.Context, postID uint64, viewer common.Address) (common.Hash, error) {
	if err := validate.Address(viewer.Hex(), "viewer"); err != nil {
		return common.Hash{}, err
	}

	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractPostMinter,
		Method:   "authorizeViewer",
		Args:     []any{postID, viewer},
	})
	if err != nil {
		return common.Hash{}, errors.Normalize(err, errors.ErrCodeContract, "failed to authorize viewer")
	}

	logger.Info("authorized viewer", "postId", postID, "viewer", viewer.Hex(), "txHash", receipt.TxHash.Hex())
	return receipt.TxHash, nil
}

// IssueViewerToken mints a signed access token an off-chain content server
// can verify before releasing an encrypted payload to an authorized viewer.
// Requires ViewerTokenSecret to be configured.
func (s *Service) IssueViewerToken(postID uint64, viewer common.Address) (string, error) {
	if s.cfg.ViewerTokenSecret == "" {
		return "", errors.New(errors.ErrCodeValidation, "viewer token secret is not configured")
	}
	token, err := security.GenerateViewerToken(postID, viewer, s.cfg.ViewerTokenSecret, s.cfg.ViewerTokenTTL)
	if err != nil {
		return "", errors.Normalize(err, errors.ErrCodeAPI, "failed to issue viewer token")
	}
	return token, nil
}

// ValidatePostMetadata asks the ledger whether metadata is well-formed for
// the given content kind.
func (s *Service) ValidatePostMetadata(ctx context.Context, metadata string, postType models.PostType) (bool, error) {
	raw, err := s.gw.Query(ctx, gateway.Call{
		Contract: gateway.ContractPostMinter,
		Method:   "validateMetadata",
		Args:     []any{metadata, postType.Code()},
	})
	if err != nil {
		return false, errors.Normalize(err, errors.ErrCodeContract, "failed to validate post metadata")
	}
	valid, _ := raw.(bool)
	return valid, nil
}

// GetPost returns a post's details, cached against the chain head.
func (s *Service) GetPost(ctx context.Context, postID uint64) (models.Post, error) {
	return cache.Lookup(ctx, s.cache, cache.KeyPost(postID), cache.Policy{BlockBased: true},
		func(ctx context.Context) (models.Post, error) {
			raw, err := s.gw.Query(ctx, gateway.Call{
				Contract: gateway.ContractPostMinter,
				Method:   "getPost",
				Args:     []any{postID},
			})
			if err != nil {
				return models.Post{}, errors.Normalize(err, errors.ErrCodeContract, fmt.Sprintf("failed to get post %d", postID))
			}
			rec, ok := raw.(gateway.PostRecord)
			if !ok {
				return models.Post{}, errors.New(errors.ErrCodeContract, fmt.Sprintf("unexpected post record type %T", raw))
			}
			return postFromRecord(rec), nil
		})
}

// PostDetailsByIDs fetches full details for a set of identifiers, applying
// the batching heuristic.
func (s *Service) PostDetailsByIDs(ctx context.Context, postIDs []uint64) ([]models.Post, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	if len(postIDs) <= batchThreshold {
		posts := make([]models.Post, len(postIDs))
		for i, id := range postIDs {
			post, err := s.GetPost(ctx, id)
			if err != nil {
				return nil, err
			}
			posts[i] = post
		}
		return posts, nil
	}

	sorted := append([]uint64(nil), postIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return cache.Lookup(ctx, s.cache, cache.KeyPostBatch(sorted), cache.Policy{BlockBased: true},
		func(ctx context.Context) ([]models.Post, error) {
			raw, err := s.gw.Query(ctx, gateway.Call{
				Contract: gateway.ContractPostMinter,
				Method:   "getPostBatch",
				Args:     []any{sorted},
			})
			if err != nil {
				return nil, errors.Normalize(err, errors.ErrCodeContract, "failed to get post batch")
			}
			recs, ok := raw.([]gateway.PostRecord)
			if !ok {
				return nil, errors.New(errors.ErrCodeContract, fmt.Sprintf("unexpected post batch type %T", raw))
			}
			posts := make([]models.Post, len(recs))
			for i, rec := range recs {
				posts[i] = postFromRecord(rec)
			}
			return posts, nil
		})
}

// PostQuery is the shared pagination and filter surface of the query paths.
// A nil PostType returns everything; a set one keeps only posts whose
// parsed metadata kind matches, and Total then reflects the filtered count.
type PostQuery struct {
	Offset   uint64
	Limit    uint64
	PostType *models.PostType
}

func (q PostQuery) limit() uint64 {
	if q.Limit == 0 {
		return 10
	}
	return q.Limit
}

func (q PostQuery) filterLabel() string {
	if q.PostType == nil {
		return "all"
	}
	return string(*q.PostType)
}

// GetPostsByTribe returns one page of a tribe's posts, cached against the
// chain head.
func (s *Service) GetPostsByTribe(ctx context.Context, tribeID uint64, query PostQuery) (models.PostPage, error) {
	key := cache.KeyTribePosts(tribeID, query.Offset, query.limit(), query.filterLabel())
	return cache.Lookup(ctx, s.cache, key, cache.Policy{BlockBased: true},
		func(ctx context.Context) (models.PostPage, error) {
			page, err := s.queryPostPage(ctx, gateway.Call{
				Contract: gateway.ContractPostMinter,
				Method:   "getPostsByTribe",
				Args:     []any{tribeID, query.Offset, query.limit()},
			}, fmt.Sprintf("failed to get posts for tribe %d", tribeID))
			if err != nil {
				return models.PostPage{}, err
			}
			return s.resolvePage(ctx, page, query.PostType)
		})
}

// GetPostsByUser returns one page of a user's posts across tribes.
func (s *Service) GetPostsByUser(ctx context.Context, user common.Address, query PostQuery) (models.PostPage, error) {
	if err := validate.Address(user.Hex(), "user"); err != nil {
		return models.PostPage{}, err
	}
	page, err := s.queryPostPage(ctx, gateway.Call{
		Contract: gateway.ContractPostMinter,
		Method:   "getPostsByUser",
		Args:     []any{user, query.Offset, query.limit()},
	}, "failed to get posts by user")
	if err != nil {
		return models.PostPage{}, err
	}
	return s.resolvePage(ctx, page, query.PostType)
}

// GetPostsByTribeAndUser returns one page of a user's posts within one
// tribe.
func (s *Service) GetPostsByTribeAndUser(ctx context.Context, tribeID uint64, user common.Address, query PostQuery) (models.PostPage, error) {
	if err := validate.Address(user.Hex(), "user"); err != nil {
		return models.PostPage{}, err
	}
	page, err := s.queryPostPage(ctx, gateway.Call{
		Contract: gateway.ContractPostMinter,
		Method:   "getPostsByTribeAndUser",
		Args:     []any{tribeID, user, query.Offset, query.limit()},
	}, "failed to get posts by tribe and user")
	if err != nil {
		return models.PostPage{}, err
	}
	return s.resolvePage(ctx, page, query.PostType)
}

// GetFeedForUser returns one page of the user's cross-tribe feed, cached
// against the chain head and capped by the feed max-age window.
func (s *Service) GetFeedForUser(ctx context.Context, user common.Address, query PostQuery) (models.PostPage, error) {
	if err := validate.Address(user.Hex(), "user"); err != nil {
		return models.PostPage{}, err
	}
	key := cache.KeyUserFeed(user, query.Offset, query.limit(), query.filterLabel())
	return cache.Lookup(ctx, s.cache, key, cache.Policy{BlockBased: true, MaxAge: s.cfg.FeedMaxAge},
		func(ctx context.Context) (models.PostPage, error) {
			page, err := s.queryPostPage(ctx, gateway.Call{
				Contract: gateway.ContractPostFeedManager,
				Method:   "getFeedForUser",
				Args:     []any{user, query.Offset, query.limit()},
			}, fmt.Sprintf("failed to get feed for user %s", user.Hex()))
			if err != nil {
				return models.PostPage{}, err
			}
			return s.resolvePage(ctx, page, query.PostType)
		})
}

// RefreshFeed is an alias for GetFeedForUser, invoked right after something
// changed. It does not bypass the cache; it simply hits it again, picking
// up fresh data whenever the entry has naturally gone stale or been
// invalidated.
func (s *Service) RefreshFeed(ctx context.Context, user common.Address, query PostQuery) (models.PostPage, error) {
	logger.Debug("refreshing feed", "user", user.Hex())
	return s.GetFeedForUser(ctx, user, query)
}

func (s *Service) queryPostPage(ctx context.Context, call gateway.Call, failMsg string) (gateway.PostPageRecord, error) {
	raw, err := s.gw.Query(ctx, call)
	if err != nil {
		return gateway.PostPageRecord{}, errors.Normalize(err, errors.ErrCodeContract, failMsg)
	}
	rec, ok := raw.(gateway.PostPageRecord)
	if !ok {
		return gateway.PostPageRecord{}, errors.New(errors.ErrCodeContract, fmt.Sprintf("unexpected post page type %T", raw))
	}
	return rec, nil
}

// resolvePage fetches details for a page of identifiers and applies the
// content-kind filter when one is set.
func (s *Service) resolvePage(ctx context.Context, page gateway.PostPageRecord, postType *models.PostType) (models.PostPage, error) {
	posts, err := s.PostDetailsByIDs(ctx, page.PostIDs)
	if err != nil {
		return models.PostPage{}, err
	}

	if postType == nil {
		return models.PostPage{
			PostIDs: page.PostIDs,
			Posts:   posts,
			Total:   page.Total,
		}, nil
	}

	filtered := filterPostsByType(posts, *postType)
	ids := make([]uint64, len(filtered))
	for i, post := range filtered {
		ids[i] = post.ID
	}
	return models.PostPage{
		PostIDs: ids,
		Posts:   filtered,
		Total:   uint64(len(filtered)),
	}, nil
}

// filterPostsByType keeps posts whose metadata parses as a structured
// document with a matching kind field, preserving relative order.
// Unparsable or mismatched records are silently excluded.
func filterPostsByType(posts []models.Post, postType models.PostType) []models.Post {
	filtered := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		var doc struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(post.Metadata), &doc); err != nil {
			continue
		}
		if doc.Type == string(postType) {
			filtered = append(filtered, post)
		}
	}
	return filtered
}

func (s *Service) transact(ctx context.Context, call gateway.Call) (*gateway.Receipt, error) {
	tx, err := s.gw.Submit(ctx, call)
	if err != nil {
		return nil, err
	}
	return s.gw.Confirm(ctx, tx)
}

// invalidatePost drops the post's detail and parsed entries plus every
// combined batch entry that may contain it.
func (s *Service) invalidatePost(postID uint64) {
	s.cache.Invalidate(cache.KeyPost(postID))
	s.cache.Invalidate(cache.KeyParsedPost(postID))
	s.cache.InvalidateByPrefix(cache.PrefixPostBatch)
}

// InvalidateTribePosts drops every cached listing page of a tribe.
func (s *Service) InvalidateTribePosts(tribeID uint64) {
	s.cache.InvalidateByPrefix(cache.PrefixTribePosts(tribeID))
}

// InvalidateUserFeed drops every cached feed page of a user.
func (s *Service) InvalidateUserFeed(user common.Address) {
	s.cache.InvalidateByPrefix(cache.PrefixUserFeed(user))
}

func postIDFromEvent(receipt *gateway.Receipt, name, missingMsg string) (uint64, error) {
	event, ok := receipt.FindEvent(name)
	if !ok {
		// The transaction mined but the expected event is absent. Treated
		// as a hard failure even though ledger state may have changed.
		return 0, errors.New(errors.ErrCodeContract, missingMsg)
	}
	var postID uint64
	ok = len(event.Args) > 0
	if ok {
		postID, ok = event.Args[0].(uint64)
	}
	if !ok {
		return 0, errors.New(errors.ErrCodeContract, "malformed "+name+" event")
	}
	return postID, nil
}

func postFromRecord(rec gateway.PostRecord) models.Post {
	return models.Post{
		ID:                  rec.ID,
		TribeID:             rec.TribeID,
		Creator:             rec.Creator,
		Metadata:            rec.Metadata,
		IsGated:             rec.IsGated,
		CollectibleContract: rec.CollectibleContract,
		CollectibleID:       rec.CollectibleID,
		IsEncrypted:         rec.IsEncrypted,
		AccessSigner:        rec.AccessSigner,
		CreatedAt:           time.Unix(int64(rec.Timestamp), 0),
		ReportCount:         rec.ReportCount,
		InteractionCounts: models.InteractionCounts{
			Likes:    rec.InteractionCounts[0],
			Dislikes: rec.InteractionCounts[1],
			Shares:   rec.InteractionCounts[2],
			Comments: rec.InteractionCounts[3],
			Saves:    rec.InteractionCounts[4],
		},
	}
}
