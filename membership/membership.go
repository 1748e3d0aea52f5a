// Package membership drives tribe lifecycle and membership transitions
// through the ledger and mirrors them back into the consistency cache.
//
// Authorization lives on the ledger: admin checks, join policy enforcement
// and rate limits are the contract's. A rejected call surfaces here as a
// CONTRACT_ERROR carrying the ledger's message verbatim.
package membership

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tribeshq/tribes-go/cache"
	"github.com/tribeshq/tribes-go/gateway"
	"github.com/tribeshq/tribes-go/internal/validate"
	"github.com/tribeshq/tribes-go/models"
	"github.com/tribeshq/tribes-go/pkg/errors"
	"github.com/tribeshq/tribes-go/pkg/logger"
	"github.com/tribeshq/tribes-go/security"
)

// Service is the membership module. All reads go through the shared cache;
// every confirmed transition invalidates the entries it affects.
type Service struct {
	gw    gateway.Gateway
	cache *cache.Cache
}

func NewService(gw gateway.Gateway, c *cache.Cache) *Service {
	return &Service{gw: gw, cache: c}
}

// CreateTribeParams are the inputs for a new tribe.
type CreateTribeParams struct {
	Name            string
	Metadata        string
	Admins          []common.Address
	JoinType        models.JoinType
	EntryFee        *big.Int
	NFTRequirements []models.NFTRequirement
}

// CreateTribe creates a tribe and returns its ledger-assigned identifier,
// extracted from the TribeCreated event in the confirmation receipt.
func (s *Service) CreateTribe(ctx context.Context, params CreateTribeParams) (uint64, error) {
	if err := validate.NonEmptyString(params.Name, "name"); err != nil {
		return 0, err
	}
	if err := validate.NonEmptyString(params.Metadata, "metadata"); err != nil {
		return 0, err
	}
	for i, admin := range params.Admins {
		if err := validate.Address(admin.Hex(), fmt.Sprintf("admins[%d]", i)); err != nil {
			return 0, err
		}
	}
	if err := validate.PositiveAmount(params.EntryFee, "entryFee"); err != nil {
		return 0, err
	}

	fee := params.EntryFee
	if fee == nil {
		fee = big.NewInt(0)
	}
	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractTribeController,
		Method:   "createTribe",
		Args: []any{
			params.Name,
			params.Metadata,
			params.Admins,
			uint8(params.JoinType),
			fee,
			nftRecords(params.NFTRequirements),
		},
	})
	if err != nil {
		return 0, errors.Normalize(err, errors.ErrCodeContract, "failed to create tribe")
	}

	event, ok := receipt.FindEvent(gateway.EventTribeCreated)
	if !ok {
		return 0, errors.New(errors.ErrCodeContract, "tribe creation event not found")
	}
	var tribeID uint64
	ok = len(event.Args) > 0
	if ok {
		tribeID, ok = event.Args[0].(uint64)
	}
	if !ok {
		return 0, errors.New(errors.ErrCodeContract, "malformed tribe creation event")
	}

	s.cache.InvalidateByPrefix(cache.PrefixTribeListings)
	s.cache.Invalidate("tribes:count")

	logger.Info("created tribe",
		"tribeId", tribeID,
		"name", params.Name,
		"txHash", receipt.TxHash.Hex(),
	)
	return tribeID, nil
}

// UpdateTribeConfigParams change a tribe's join policy, fee or collectible
// requirements.
type UpdateTribeConfigParams struct {
	TribeID         uint64
	JoinType        models.JoinType
	EntryFee        *big.Int
	NFTRequirements []models.NFTRequirement
}

// UpdateTribeConfig updates the join configuration. Admin-gated on the
// ledger.
func (s *Service) UpdateTribeConfig(ctx context.Context, params UpdateTribeConfigParams) (common.Hash, error) {
	if err := validate.PositiveAmount(params.EntryFee, "entryFee"); err != nil {
		return common.Hash{}, err
	}

	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractTribeController,
		Method:   "updateTribeConfig",
		Args: []any{
			params.TribeID,
			uint8(params.JoinType),
			params.EntryFee,
			nftRecords(params.NFTRequirements),
		},
	})
	if err != nil {
		return common.Hash{}, errors.Normalize(err, errors.ErrCodeContract, "failed to update tribe configuration")
	}

	s.cache.Invalidate(cache.KeyTribe(params.TribeID))

	logger.Info("updated tribe configuration",
		"tribeId", params.TribeID,
		"joinType", params.JoinType.String(),
		"txHash", receipt.TxHash.Hex(),
	)
	return receipt.TxHash, nil
}

// UpdateTribe updates a tribe's metadata and whitelist. Admin-gated on the
// ledger.
func (s *Service) UpdateTribe(ctx context.Context, tribeID uint64, newMetadata string, whitelist []common.Address) (common.Hash, error) {
	if err := validate.NonEmptyString(newMetadata, "newMetadata"); err != nil {
		return common.Hash{}, err
	}
	for i, addr := range whitelist {
		if err := validate.Address(addr.Hex(), fmt.Sprintf("updatedWhitelist[%d]", i)); err != nil {
			return common.Hash{}, err
		}
	}

	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractTribeController,
		Method:   "updateTribe",
		Args:     []any{tribeID, newMetadata, whitelist},
	})
	if err != nil {
		return common.Hash{}, errors.Normalize(err, errors.ErrCodeContract, "failed to update tribe")
	}

	s.cache.Invalidate(cache.KeyTribe(tribeID))

	logger.Info("updated tribe", "tribeId", tribeID, "txHash", receipt.TxHash.Hex())
	return receipt.TxHash, nil
}

// JoinTribe joins a PUBLIC tribe: NONE -> ACTIVE in one call.
func (s *Service) JoinTribe(ctx context.Context, tribeID uint64, member common.Address) (common.Hash, error) {
	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractTribeController,
		Method:   "joinTribe",
		Args:     []any{tribeID},
	})
	if err != nil {
		return common.Hash{}, errors.Normalize(err, errors.ErrCodeContract, "failed to join tribe")
	}

	s.invalidateMembership(tribeID, member)

	logger.Info("joined tribe", "tribeId", tribeID, "txHash", receipt.TxHash.Hex())
	return receipt.TxHash, nil
}

// RequestToJoinTribe requests membership in a PRIVATE tribe, paying the
// entry fee with the request: NONE -> PENDING until an admin approves.
func (s *Service) RequestToJoinTribe(ctx context.Context, tribeID uint64, member common.Address, entryFee *big.Int) (common.Hash, error) {
	if err := validate.PositiveAmount(entryFee, "entryFee"); err != nil {
		return common.Hash{}, err
	}

	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractTribeController,
		Method:   "requestToJoinTribe",
		Args:     []any{tribeID},
		Value:    entryFee,
	})
	if err != nil {
		return common.Hash{}, errors.Normalize(err, errors.ErrCodeContract, "failed to request to join tribe")
	}

	s.invalidateMembership(tribeID, member)

	logger.Info("requested to join tribe", "tribeId", tribeID, "txHash", receipt.TxHash.Hex())
	return receipt.TxHash, nil
}

// JoinTribeWithCode joins an INVITE_CODE tribe: NONE -> ACTIVE and the
// code's remaining uses decrement. Only the keccak hash of the code is
// submitted.
func (s *Service) JoinTribeWithCode(ctx context.Context, tribeID uint64, member common.Address, inviteCode string) (common.Hash, error) {
	if err := validate.NonEmptyString(inviteCode, "inviteCode"); err != nil {
		return common.Hash{}, err
	}

	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractTribeController,
		Method:   "joinTribeWithCode",
		Args:     []any{tribeID, crypto.Keccak256Hash([]byte(inviteCode))},
	})
	if err != nil {
		return common.Hash{}, errors.Normalize(err, errors.ErrCodeContract, "failed to join tribe with code")
	}

	s.invalidateMembership(tribeID, member)

	logger.Info("joined tribe with code", "tribeId", tribeID, "txHash", receipt.TxHash.Hex())
	return receipt.TxHash, nil
}

// ApproveMember moves a PENDING member to ACTIVE (or admits directly on an
// INVITE_ONLY tribe). Admin-gated on the ledger.
func (s *Service) ApproveMember(ctx context.Context, tribeID uint64, member common.Address) (common.Hash, error) {
	return s.manageMember(ctx, "approveMember", "failed to approve member", tribeID, member)
}

// RemoveMember moves an ACTIVE member back to NONE. Admin-gated on the
// ledger.
func (s *Service) RemoveMember(ctx context.Context, tribeID uint64, member common.Address) (common.Hash, error) {
	return s.manageMember(ctx, "removeMember", "failed to remove member", tribeID, member)
}

// BanMember moves a member to BANNED. No operation in this layer
// transitions out of BANNED.
func (s *Service) BanMember(ctx context.Context, tribeID uint64, member common.Address) (common.Hash, error) {
	return s.manageMember(ctx, "banMember", "failed to ban member", tribeID, member)
}

func (s *Service) manageMember(ctx context.Context, method, failMsg string, tribeID uint64, member common.Address) (common.Hash, error) {
	if err := validate.Address(member.Hex(), "memberAddress"); err != nil {
		return common.Hash{}, err
	}

	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractTribeController,
		Method:   method,
		Args:     []any{tribeID, member},
	})
	if err != nil {
		return common.Hash{}, errors.Normalize(err, errors.ErrCodeContract, failMsg)
	}

	s.invalidateMembership(tribeID, member)

	logger.Info(method, "tribeId", tribeID, "member", member.Hex(), "txHash", receipt.TxHash.Hex())
	return receipt.TxHash, nil
}

// CreateInviteCode registers an invite code for a tribe and returns its
// ledger-side record. Admin-gated on the ledger. expiry of zero means the
// code never expires.
func (s *Service) CreateInviteCode(ctx context.Context, tribeID uint64, code string, maxUses uint64, expiry time.Time) (models.InviteCode, error) {
	if err := validate.NonEmptyString(code, "code"); err != nil {
		return models.InviteCode{}, err
	}

	var expiresAt uint64
	if !expiry.IsZero() {
		expiresAt = uint64(expiry.Unix())
	}
	receipt, err := s.transact(ctx, gateway.Call{
		Contract: gateway.ContractTribeController,
		Method:   "createInviteCode",
		Args:     []any{tribeID, code, maxUses, expiresAt},
	})
	if err != nil {
		return models.InviteCode{}, errors.Normalize(err, errors.ErrCodeContract, "failed to create invite code")
	}

	logger.Info("created invite code",
		"tribeId", tribeID,
		"maxUses", maxUses,
		"txHash", receipt.TxHash.Hex(),
	)
	return models.InviteCode{
		TribeID:       tribeID,
		CodeHash:      crypto.Keccak256Hash([]byte(code)),
		MaxUses:       maxUses,
		UsesRemaining: maxUses,
		ExpiresAt:     expiry,
	}, nil
}

// NewInviteCode generates a cryptographically random code, registers it on
// the ledger and returns the plain code for distribution.
func (s *Service) NewInviteCode(ctx context.Context, tribeID uint64, maxUses uint64, expiry time.Time) (string, error) {
	code := security.GenerateInviteCode(12)
	if _, err := s.CreateInviteCode(ctx, tribeID, code, maxUses, expiry); err != nil {
		return "", err
	}
	return code, nil
}

// GetTribeDetails returns a tribe's details, cached against the chain head.
func (s *Service) GetTribeDetails(ctx context.Context, tribeID uint64) (models.Tribe, error) {
	return cache.Lookup(ctx, s.cache, cache.KeyTribe(tribeID), cache.Policy{BlockBased: true},
		func(ctx context.Context) (models.Tribe, error) {
			raw, err := s.gw.Query(ctx, gateway.Call{
				Contract: gateway.ContractTribeController,
				Method:   "getTribeDetails",
				Args:     []any{tribeID},
			})
			if err != nil {
				return models.Tribe{}, errors.Normalize(err, errors.ErrCodeContract, "failed to get tribe details")
			}
			rec, ok := raw.(gateway.TribeRecord)
			if !ok {
				return models.Tribe{}, errors.New(errors.ErrCodeContract, fmt.Sprintf("unexpected tribe record type %T", raw))
			}
			return tribeFromRecord(rec), nil
		})
}

// GetMemberStatus returns the ledger-owned membership status for a
// (tribe, address) pair, cached against the chain head.
func (s *Service) GetMemberStatus(ctx context.Context, tribeID uint64, member common.Address) (models.MemberStatus, error) {
	if err := validate.Address(member.Hex(), "address"); err != nil {
		return models.MemberNone, err
	}

	return cache.Lookup(ctx, s.cache, cache.KeyMember(tribeID, member), cache.Policy{BlockBased: true},
		func(ctx context.Context) (models.MemberStatus, error) {
			raw, err := s.gw.Query(ctx, gateway.Call{
				Contract: gateway.ContractTribeController,
				Method:   "getMemberStatus",
				Args:     []any{tribeID, member},
			})
			if err != nil {
				return models.MemberNone, errors.Normalize(err, errors.ErrCodeContract, "failed to get member status")
			}
			status, ok := raw.(uint8)
			if !ok {
				return models.MemberNone, errors.New(errors.ErrCodeContract, fmt.Sprintf("unexpected member status type %T", raw))
			}
			return models.MemberStatus(status), nil
		})
}

// GetUserTribes returns the tribes an address is an active member of,
// cached against the chain head.
func (s *Service) GetUserTribes(ctx context.Context, member common.Address) ([]uint64, error) {
	if err := validate.Address(member.Hex(), "address"); err != nil {
		return nil, err
	}

	return cache.Lookup(ctx, s.cache, cache.KeyUserTribes(member), cache.Policy{BlockBased: true},
		func(ctx context.Context) ([]uint64, error) {
			raw, err := s.gw.Query(ctx, gateway.Call{
				Contract: gateway.ContractTribeController,
				Method:   "getUserTribes",
				Args:     []any{member},
			})
			if err != nil {
				return nil, errors.Normalize(err, errors.ErrCodeContract, "failed to get user tribes")
			}
			ids, ok := raw.([]uint64)
			if !ok {
				return nil, errors.New(errors.ErrCodeContract, fmt.Sprintf("unexpected user tribes type %T", raw))
			}
			return ids, nil
		})
}

// FindFirstActiveTribe returns the first tribe in member's list that is
// still active on the ledger, or false when there is none.
func (s *Service) FindFirstActiveTribe(ctx context.Context, member common.Address) (uint64, bool, error) {
	ids, err := s.GetUserTribes(ctx, member)
	if err != nil {
		return 0, false, err
	}
	for _, id := range ids {
		tribe, err := s.GetTribeDetails(ctx, id)
		if err != nil {
			continue
		}
		if tribe.IsActive {
			return id, true, nil
		}
	}
	return 0, false, nil
}

// IsInviteCodeValid checks whether a code is known, unexpired and has uses
// remaining. Uncached: validity can flip on any block.
func (s *Service) IsInviteCodeValid(ctx context.Context, tribeID uint64, code string) (bool, error) {
	if err := validate.NonEmptyString(code, "code"); err != nil {
		return false, err
	}

	raw, err := s.gw.Query(ctx, gateway.Call{
		Contract: gateway.ContractTribeController,
		Method:   "isInviteCodeValid",
		Args:     []any{tribeID, code},
	})
	if err != nil {
		return false, errors.Normalize(err, errors.ErrCodeContract, "failed to check invite code validity")
	}
	valid, _ := raw.(bool)
	return valid, nil
}

// GetAllTribes returns one page of the global tribe listing, cached against
// the chain head.
func (s *Service) GetAllTribes(ctx context.Context, offset, limit uint64) (models.TribePage, error) {
	if limit == 0 {
		limit = 100
	}
	return cache.Lookup(ctx, s.cache, cache.KeyAllTribes(offset, limit), cache.Policy{BlockBased: true},
		func(ctx context.Context) (models.TribePage, error) {
			raw, err := s.gw.Query(ctx, gateway.Call{
				Contract: gateway.ContractTribeController,
				Method:   "getAllTribes",
				Args:     []any{offset, limit},
			})
			if err != nil {
				return models.TribePage{}, errors.Normalize(err, errors.ErrCodeContract, "failed to get all tribes")
			}
			rec, ok := raw.(gateway.TribePageRecord)
			if !ok {
				return models.TribePage{}, errors.New(errors.ErrCodeContract, fmt.Sprintf("unexpected tribe page type %T", raw))
			}
			return models.TribePage{TribeIDs: rec.TribeIDs, Total: rec.Total}, nil
		})
}

// TribeExists reports whether a tribe exists. Query errors degrade to
// false with a log line rather than failing the caller.
func (s *Service) TribeExists(ctx context.Context, tribeID uint64) bool {
	raw, err := s.gw.Query(ctx, gateway.Call{
		Contract: gateway.ContractTribeController,
		Method:   "tribeExists",
		Args:     []any{tribeID},
	})
	if err != nil {
		logger.Warn("tribe existence check failed, assuming absent", "tribeId", tribeID, "error", err)
		return false
	}
	exists, _ := raw.(bool)
	return exists
}

// GetTribeCount returns the total number of tribes. Query errors degrade to
// zero with a log line.
func (s *Service) GetTribeCount(ctx context.Context) uint64 {
	count, err := cache.Lookup(ctx, s.cache, "tribes:count", cache.Policy{BlockBased: true},
		func(ctx context.Context) (uint64, error) {
			raw, err := s.gw.Query(ctx, gateway.Call{
				Contract: gateway.ContractTribeController,
				Method:   "getTribeCount",
			})
			if err != nil {
				return 0, err
			}
			n, _ := raw.(uint64)
			return n, nil
		})
	if err != nil {
		logger.Warn("tribe count query failed, returning 0", "error", err)
		return 0
	}
	return count
}

// IsActiveMember reports whether member's status in the tribe is ACTIVE.
func (s *Service) IsActiveMember(ctx context.Context, tribeID uint64, member common.Address) (bool, error) {
	status, err := s.GetMemberStatus(ctx, tribeID, member)
	if err != nil {
		return false, err
	}
	return status == models.MemberActive, nil
}

// CanPostInTribe reports whether the tribe exists and member is active in
// it. Pure composition; no independent state.
func (s *Service) CanPostInTribe(ctx context.Context, tribeID uint64, member common.Address) (bool, error) {
	if !s.TribeExists(ctx, tribeID) {
		return false, nil
	}
	return s.IsActiveMember(ctx, tribeID, member)
}

// transact submits a mutating call and blocks until confirmation.
func (s *Service) transact(ctx context.Context, call gateway.Call) (*gateway.Receipt, error) {
	tx, err := s.gw.Submit(ctx, call)
	if err != nil {
		return nil, err
	}
	return s.gw.Confirm(ctx, tx)
}

// invalidateMembership drops every cache entry a membership transition can
// affect: the (tribe, address) status, the tribe details (member count),
// the member's tribe list, and the membership-dependent feeds.
func (s *Service) invalidateMembership(tribeID uint64, member common.Address) {
	s.cache.Invalidate(cache.KeyMember(tribeID, member))
	s.cache.Invalidate(cache.KeyTribe(tribeID))
	s.cache.Invalidate(cache.KeyUserTribes(member))
	s.cache.InvalidateByPrefix(cache.PrefixUserFeed(member))
}

func nftRecords(reqs []models.NFTRequirement) []gateway.NFTRequirementRecord {
	records := make([]gateway.NFTRequirementRecord, len(reqs))
	for i, r := range reqs {
		records[i] = gateway.NFTRequirementRecord{Contract: r.Contract, TokenID: r.TokenID}
	}
	return records
}

func tribeFromRecord(rec gateway.TribeRecord) models.Tribe {
	reqs := make([]models.NFTRequirement, len(rec.NFTRequirements))
	for i, r := range rec.NFTRequirements {
		reqs[i] = models.NFTRequirement{Contract: r.Contract, TokenID: r.TokenID}
	}
	return models.Tribe{
		ID:              rec.ID,
		Name:            rec.Name,
		Metadata:        rec.Metadata,
		Admin:           rec.Admin,
		JoinType:        models.JoinType(rec.JoinType),
		EntryFee:        rec.EntryFee,
		MemberCount:     rec.MemberCount,
		CreatedAt:       time.Unix(int64(rec.CreationTime), 0),
		NFTRequirements: reqs,
		IsActive:        rec.IsActive,
		CanMerge:        rec.CanMerge,
	}
}
