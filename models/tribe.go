package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// JoinType is a tribe's join policy as recorded on the ledger.
type JoinType uint8

const (
	JoinTypePublic JoinType = iota
	JoinTypePrivate
	JoinTypeInviteOnly
	JoinTypeInviteCode
)

func (j JoinType) String() string {
	switch j {
	case JoinTypePublic:
		return "PUBLIC"
	case JoinTypePrivate:
		return "PRIVATE"
	case JoinTypeInviteOnly:
		return "INVITE_ONLY"
	case JoinTypeInviteCode:
		return "INVITE_CODE"
	}
	return "UNKNOWN"
}

// MemberStatus is the ledger-owned membership state for a (tribe, address)
// pair. The numeric order matches the contract enum.
type MemberStatus uint8

const (
	MemberNone MemberStatus = iota
	MemberPending
	MemberActive
	MemberBanned
)

func (s MemberStatus) String() string {
	switch s {
	case MemberNone:
		return "NONE"
	case MemberPending:
		return "PENDING"
	case MemberActive:
		return "ACTIVE"
	case MemberBanned:
		return "BANNED"
	}
	return "UNKNOWN"
}

// NFTRequirement gates tribe entry on ownership of a collectible.
type NFTRequirement struct {
	Contract common.Address
	TokenID  uint64
}

// Tribe mirrors a tribe recorded on the ledger. Never deleted locally; the
// ledger may mark it inactive.
type Tribe struct {
	ID              uint64
	Name            string
	Metadata        string
	Admin           common.Address
	JoinType        JoinType
	EntryFee        *big.Int
	MemberCount     uint64
	CreatedAt       time.Time
	NFTRequirements []NFTRequirement
	IsActive        bool
	CanMerge        bool
}

// InviteCode is a consumable, expirable token granting direct ACTIVE
// membership. Only the keccak hash of the code ever reaches the ledger.
type InviteCode struct {
	TribeID       uint64
	CodeHash      common.Hash
	MaxUses       uint64
	UsesRemaining uint64
	ExpiresAt     time.Time
}

// TribePage is one page of a paginated tribe listing.
type TribePage struct {
	TribeIDs []uint64
	Total    uint64
}
