// Package gateway defines the contract this SDK consumes from the ledger:
// transaction submission, confirmation, read-only queries and a confirmed
// event stream. The gateway owns signing, transport, retry and timeout
// policy; nothing in this layer re-implements them.
//
// Code that depends on the ledger accepts the Gateway interface, enabling
// the deterministic in-memory implementation in gatewaytest.
package gateway

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Contract names of the ledger surface this layer talks to.
const (
	ContractTribeController = "TribeController"
	ContractPostMinter      = "PostMinter"
	ContractPostFeedManager = "PostFeedManager"
)

// Event names emitted by the contracts above.
const (
	EventTribeCreated              = "TribeCreated"
	EventPostCreated               = "PostCreated"
	EventBatchPostsCreated         = "BatchPostsCreated"
	EventEncryptedPostCreated      = "EncryptedPostCreated"
	EventSignatureGatedPostCreated = "SignatureGatedPostCreated"
	EventPostInteraction           = "PostInteraction"
)

// Call identifies one contract method invocation. Value carries native
// currency attached to a mutating call (entry fees); nil means zero.
type Call struct {
	Contract string
	Method   string
	Args     []any
	Value    *big.Int
}

// Event is one confirmed, decoded contract event. Args are positional, in
// the order the contract declares them.
type Event struct {
	Name string
	Args []any
}

// Receipt is the confirmation record of a mined transaction.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	Events      []Event
}

// FindEvent returns the first event with the given name, if present.
func (r *Receipt) FindEvent(name string) (Event, bool) {
	for _, ev := range r.Events {
		if ev.Name == name {
			return ev, true
		}
	}
	return Event{}, false
}

// EventFilter selects which confirmed events a subscription delivers.
// EntityID optionally pins the stream to one entity (the event's first
// argument).
type EventFilter struct {
	Contract string
	Name     string
	EntityID *uint64
}

// Unsubscribe tears down a subscription and closes its sink.
type Unsubscribe func()

// Gateway is the external ledger collaborator.
type Gateway interface {
	// Submit sends a mutating call and returns its transaction hash. The
	// ledger enforces the actual rules; a rejected call surfaces here or at
	// Confirm as an error.
	Submit(ctx context.Context, call Call) (common.Hash, error)

	// Confirm blocks until the transaction is confirmed and returns its
	// receipt. Timeout and cancellation are the gateway's contract.
	Confirm(ctx context.Context, tx common.Hash) (*Receipt, error)

	// Query executes a read-only call and returns the decoded result. The
	// concrete type depends on the method; see the record types below.
	Query(ctx context.Context, call Call) (any, error)

	// BlockNumber reports the current chain head.
	BlockNumber(ctx context.Context) (uint64, error)

	// Subscribe streams confirmed events matching the filter into sink.
	// The returned Unsubscribe closes sink; it must be safe to call once.
	Subscribe(ctx context.Context, filter EventFilter, sink chan<- Event) (Unsubscribe, error)
}
