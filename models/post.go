package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PostType is the closed set of content kinds a post can carry.
type PostType string

const (
	PostTypeText            PostType = "TEXT"
	PostTypeRichMedia       PostType = "RICH_MEDIA"
	PostTypeEvent           PostType = "EVENT"
	PostTypePoll            PostType = "POLL"
	PostTypeProjectUpdate   PostType = "PROJECT_UPDATE"
	PostTypeCommunityUpdate PostType = "COMMUNITY_UPDATE"
	PostTypeEncrypted       PostType = "ENCRYPTED"
)

var postTypeCodes = map[PostType]uint8{
	PostTypeText:            0,
	PostTypeRichMedia:       1,
	PostTypeEvent:           2,
	PostTypePoll:            3,
	PostTypeProjectUpdate:   4,
	PostTypeCommunityUpdate: 5,
	PostTypeEncrypted:       6,
}

var postTypesByCode = []PostType{
	PostTypeText,
	PostTypeRichMedia,
	PostTypeEvent,
	PostTypePoll,
	PostTypeProjectUpdate,
	PostTypeCommunityUpdate,
	PostTypeEncrypted,
}

// Code returns the numeric ledger code for the post type. An unrecognized
// type maps to 0 (TEXT), matching the contract's existing behavior.
func (t PostType) Code() uint8 {
	return postTypeCodes[t]
}

// PostTypeFromCode is the inverse mapping. An out-of-range code maps to TEXT.
func PostTypeFromCode(code uint8) PostType {
	if int(code) < len(postTypesByCode) {
		return postTypesByCode[code]
	}
	return PostTypeText
}

// InteractionType is the closed set of engagement actions on a post.
type InteractionType string

const (
	InteractionLike     InteractionType = "LIKE"
	InteractionComment  InteractionType = "COMMENT"
	InteractionShare    InteractionType = "SHARE"
	InteractionBookmark InteractionType = "BOOKMARK"
	InteractionReport   InteractionType = "REPORT"
	InteractionReply    InteractionType = "REPLY"
	InteractionMention  InteractionType = "MENTION"
	InteractionRepost   InteractionType = "REPOST"
	InteractionTip      InteractionType = "TIP"
)

var interactionCodes = map[InteractionType]uint8{
	InteractionLike:     0,
	InteractionComment:  1,
	InteractionShare:    2,
	InteractionBookmark: 3,
	InteractionReport:   4,
	InteractionReply:    5,
	InteractionMention:  6,
	InteractionRepost:   7,
	InteractionTip:      8,
}

var interactionsByCode = []InteractionType{
	InteractionLike,
	InteractionComment,
	InteractionShare,
	InteractionBookmark,
	InteractionReport,
	InteractionReply,
	InteractionMention,
	InteractionRepost,
	InteractionTip,
}

// Code returns the numeric ledger code for the interaction type. An
// unrecognized type maps to 0 (LIKE), matching the contract's existing
// behavior.
func (t InteractionType) Code() uint8 {
	return interactionCodes[t]
}

// InteractionFromCode is the inverse mapping. An out-of-range code maps to
// LIKE.
func InteractionFromCode(code uint8) InteractionType {
	if int(code) < len(interactionsByCode) {
		return interactionsByCode[code]
	}
	return InteractionLike
}

// InteractionCounts is the fixed counter vector the ledger keeps per post.
type InteractionCounts struct {
	Likes    uint64
	Dislikes uint64
	Shares   uint64
	Comments uint64
	Saves    uint64
}

// Post mirrors a post recorded on the ledger. Deletion is a ledger event,
// not removal of history.
type Post struct {
	ID                  uint64
	TribeID             uint64
	Creator             common.Address
	Metadata            string
	IsGated             bool
	CollectibleContract common.Address
	CollectibleID       uint64
	IsEncrypted         bool
	AccessSigner        common.Address
	CreatedAt           time.Time
	ReportCount         uint64
	InteractionCounts   InteractionCounts
}

// PostPage is one page of a paginated post query. When a post-type filter
// was applied, Total reflects the filtered count.
type PostPage struct {
	PostIDs []uint64
	Posts   []Post
	Total   uint64
}

// ParsedPost is a post whose metadata has been dereferenced (when it is a
// remote document URL) and decoded into a structured document.
type ParsedPost struct {
	Post
	ParsedMetadata map[string]any
}
