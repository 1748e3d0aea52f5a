package gateway

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Wire records returned by Query, mirroring the contract return tuples.
// Modules map these onto the SDK's domain types.

// TribeRecord is the getTribeDetails return tuple.
type TribeRecord struct {
	ID              uint64
	Name            string
	Metadata        string
	Admin           common.Address
	JoinType        uint8
	EntryFee        *big.Int
	MemberCount     uint64
	CreationTime    uint64
	NFTRequirements []NFTRequirementRecord
	IsActive        bool
	CanMerge        bool
}

// NFTRequirementRecord is one collectible entry requirement.
type NFTRequirementRecord struct {
	Contract common.Address
	TokenID  uint64
}

// TribePageRecord is the getAllTribes return tuple.
type TribePageRecord struct {
	TribeIDs []uint64
	Total    uint64
}

// PostRecord is the getPost / getPostBatch element return tuple.
// InteractionCounts is the contract's fixed five-slot counter vector:
// [likes, dislikes, shares, comments, saves].
type PostRecord struct {
	ID                  uint64
	TribeID             uint64
	Creator             common.Address
	Metadata            string
	IsGated             bool
	CollectibleContract common.Address
	CollectibleID       uint64
	IsEncrypted         bool
	AccessSigner        common.Address
	Timestamp           uint64
	ReportCount         uint64
	InteractionCounts   [5]uint64
}

// PostPageRecord is the return tuple of the paginated post queries.
type PostPageRecord struct {
	PostIDs []uint64
	Total   uint64
}

// BatchPostData is one element of the createBatchPosts call payload. The
// post type travels as its numeric code.
type BatchPostData struct {
	Metadata            string
	IsGated             bool
	CollectibleContract common.Address
	CollectibleID       uint64
	PostType            uint8
}
