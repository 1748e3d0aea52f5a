package cache

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Shared cache key builders. Invalidation relies on these prefixes staying
// consistent across the membership, content and event packages, so every
// key is built here.

func KeyTribe(tribeID uint64) string {
	return fmt.Sprintf("tribe:%d", tribeID)
}

func KeyMember(tribeID uint64, addr common.Address) string {
	return fmt.Sprintf("member:%d:%s", tribeID, strings.ToLower(addr.Hex()))
}

func KeyUserTribes(addr common.Address) string {
	return fmt.Sprintf("tribes:user:%s", strings.ToLower(addr.Hex()))
}

func KeyAllTribes(offset, limit uint64) string {
	return fmt.Sprintf("tribes:all:%d:%d", offset, limit)
}

// PrefixTribeListings covers every paginated tribe listing variant.
const PrefixTribeListings = "tribes:all:"

func KeyPost(postID uint64) string {
	return fmt.Sprintf("post:%d", postID)
}

func KeyParsedPost(postID uint64) string {
	return fmt.Sprintf("parsed:post:%d", postID)
}

// PrefixPostBatch covers every combined batch-detail entry. Batch keys
// embed the sorted identifier list, so a single post's change invalidates
// all batches by prefix.
const PrefixPostBatch = "post:batch:"

func KeyPostBatch(sortedIDs []uint64) string {
	parts := make([]string, len(sortedIDs))
	for i, id := range sortedIDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return PrefixPostBatch + strings.Join(parts, ",")
}

func KeyTribePosts(tribeID uint64, offset, limit uint64, filter string) string {
	return fmt.Sprintf("posts:tribe:%d:%d:%d:%s", tribeID, offset, limit, filter)
}

func PrefixTribePosts(tribeID uint64) string {
	return fmt.Sprintf("posts:tribe:%d:", tribeID)
}

func KeyUserFeed(addr common.Address, offset, limit uint64, filter string) string {
	return fmt.Sprintf("feed:user:%s:%d:%d:%s", strings.ToLower(addr.Hex()), offset, limit, filter)
}

func PrefixUserFeed(addr common.Address) string {
	return fmt.Sprintf("feed:user:%s:", strings.ToLower(addr.Hex()))
}

// PrefixAllFeeds covers every user's feed pages. Membership transitions
// change feed composition for the affected user only, but post creation in
// a tribe can affect any member's feed, so writers invalidate broadly.
const PrefixAllFeeds = "feed:user:"
