// Package gatewaytest provides a deterministic in-memory ledger implementing
// gateway.Gateway, so the cache, membership and content layers can be tested
// without a network. It enforces the same rules the contracts do: join
// policies, invite code consumption and expiry, admin gating, entry fees and
// post interaction counters.
package gatewaytest

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tribeshq/tribes-go/gateway"
)

// Membership states, matching the contract enum.
const (
	statusNone uint8 = iota
	statusPending
	statusActive
	statusBanned
)

// Join policies, matching the contract enum.
const (
	joinPublic uint8 = iota
	joinPrivate
	joinInviteOnly
	joinInviteCode
)

type codeState struct {
	maxUses   uint64
	remaining uint64
	expiresAt int64 // unix seconds, 0 = never
}

type tribeState struct {
	rec     gateway.TribeRecord
	members map[common.Address]uint8
	admins  map[common.Address]bool
	codes   map[common.Hash]*codeState
}

type postState struct {
	rec        gateway.PostRecord
	deleted    bool
	authorized map[common.Address]bool
}

type subscription struct {
	id     int
	filter gateway.EventFilter
	sink   chan<- gateway.Event
}

// Ledger is a fake gateway.Gateway. The zero value is not usable; call New.
// Every mutating call executes synchronously and advances the chain head by
// one block.
type Ledger struct {
	mu     sync.Mutex
	block  uint64
	caller common.Address

	tribes      map[uint64]*tribeState
	tribeOrder  []uint64
	nextTribeID uint64

	posts      map[uint64]*postState
	postOrder  []uint64
	nextPostID uint64

	receipts  map[common.Hash]*gateway.Receipt
	txCounter uint64

	subs    map[int]*subscription
	nextSub int

	omitEvents   map[string]bool
	stripArgs    map[string]bool
	queryErrs    map[string]error
	subscribeErr error
}

func New() *Ledger {
	return &Ledger{
		caller:      Account(1),
		tribes:      make(map[uint64]*tribeState),
		nextTribeID: 1,
		posts:       make(map[uint64]*postState),
		nextPostID:  1,
		receipts:    make(map[common.Hash]*gateway.Receipt),
		subs:        make(map[int]*subscription),
		omitEvents:  make(map[string]bool),
		stripArgs:   make(map[string]bool),
		queryErrs:   make(map[string]error),
	}
}

// Account returns a deterministic address for test identity n.
func Account(n uint64) common.Address {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return common.BytesToAddress(b[:])
}

// SetCaller switches the identity submitting subsequent calls.
func (l *Ledger) SetCaller(addr common.Address) {
	l.mu.Lock()
	l.caller = addr
	l.mu.Unlock()
}

// Caller reports the current submitting identity.
func (l *Ledger) Caller() common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.caller
}

// AdvanceBlock moves the chain head forward without a transaction.
func (l *Ledger) AdvanceBlock() {
	l.mu.Lock()
	l.block++
	l.mu.Unlock()
}

// OmitEvent suppresses the named event in subsequent receipts, simulating a
// mined transaction whose expected event is missing.
func (l *Ledger) OmitEvent(name string) {
	l.mu.Lock()
	l.omitEvents[name] = true
	l.mu.Unlock()
}

// StripEventArgs makes subsequent receipts carry the named event with no
// arguments, simulating a gateway that recognizes an event but fails to
// decode its payload.
func (l *Ledger) StripEventArgs(name string) {
	l.mu.Lock()
	l.stripArgs[name] = true
	l.mu.Unlock()
}

// FailQuery makes subsequent queries for method fail with err.
func (l *Ledger) FailQuery(method string, err error) {
	l.mu.Lock()
	l.queryErrs[method] = err
	l.mu.Unlock()
}

// FailSubscribe makes subsequent Subscribe calls fail with err.
func (l *Ledger) FailSubscribe(err error) {
	l.mu.Lock()
	l.subscribeErr = err
	l.mu.Unlock()
}

// Submit executes a mutating call, advances the head and records a receipt.
// Rule violations are returned as errors, the way a reverting transaction
// surfaces through a real gateway.
func (l *Ledger) Submit(ctx context.Context, call gateway.Call) (common.Hash, error) {
	l.mu.Lock()
	events, err := l.execute(call)
	if err != nil {
		l.mu.Unlock()
		return common.Hash{}, err
	}

	l.block++
	l.txCounter++
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], l.txCounter)
	hash := crypto.Keccak256Hash(seed[:])

	kept := events[:0]
	for _, ev := range events {
		if l.omitEvents[ev.Name] {
			continue
		}
		if l.stripArgs[ev.Name] {
			ev.Args = nil
		}
		kept = append(kept, ev)
	}
	receipt := &gateway.Receipt{
		TxHash:      hash,
		BlockNumber: l.block,
		Events:      append([]gateway.Event(nil), kept...),
	}
	l.receipts[hash] = receipt

	var sinks []chan<- gateway.Event
	var deliveries []gateway.Event
	for _, sub := range l.subs {
		for _, ev := range kept {
			if matches(sub.filter, ev) {
				sinks = append(sinks, sub.sink)
				deliveries = append(deliveries, ev)
			}
		}
	}
	l.mu.Unlock()

	for i, sink := range sinks {
		sink <- deliveries[i]
	}
	return hash, nil
}

// Confirm returns the receipt recorded at Submit.
func (l *Ledger) Confirm(ctx context.Context, tx common.Hash) (*gateway.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	receipt, ok := l.receipts[tx]
	if !ok {
		return nil, fmt.Errorf("transaction %s not found", tx)
	}
	return receipt, nil
}

// BlockNumber reports the current head.
func (l *Ledger) BlockNumber(ctx context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.block, nil
}

// Subscribe registers a confirmed-event stream.
func (l *Ledger) Subscribe(ctx context.Context, filter gateway.EventFilter, sink chan<- gateway.Event) (gateway.Unsubscribe, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subscribeErr != nil {
		return nil, l.subscribeErr
	}

	id := l.nextSub
	l.nextSub++
	l.subs[id] = &subscription{id: id, filter: filter, sink: sink}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(sink)
		}
	}, nil
}

func matches(filter gateway.EventFilter, ev gateway.Event) bool {
	if filter.Name != "" && filter.Name != ev.Name {
		return false
	}
	if filter.EntityID != nil {
		if len(ev.Args) == 0 {
			return false
		}
		id, ok := ev.Args[0].(uint64)
		if !ok || id != *filter.EntityID {
			return false
		}
	}
	return true
}

func (l *Ledger) execute(call gateway.Call) ([]gateway.Event, error) {
	switch call.Method {
	case "createTribe":
		return l.createTribe(call)
	case "updateTribeConfig":
		return l.updateTribeConfig(call)
	case "updateTribe":
		return l.updateTribe(call)
	case "joinTribe":
		return l.joinTribe(call)
	case "requestToJoinTribe":
		return l.requestToJoinTribe(call)
	case "joinTribeWithCode":
		return l.joinTribeWithCode(call)
	case "approveMember":
		return l.manageMember(call, "approve")
	case "removeMember":
		return l.manageMember(call, "remove")
	case "banMember":
		return l.manageMember(call, "ban")
	case "createInviteCode":
		return l.createInviteCode(call)
	case "createPost":
		return l.createPost(call)
	case "createBatchPosts":
		return l.createBatchPosts(call)
	case "createEncryptedPost":
		return l.createEncryptedPost(call)
	case "createSignatureGatedPost":
		return l.createSignatureGatedPost(call)
	case "deletePost":
		return l.deletePost(call)
	case "reportPost":
		return l.reportPost(call)
	case "interactWithPost":
		return l.interactWithPost(call)
	case "authorizeViewer":
		return l.authorizeViewer(call)
	}
	return nil, fmt.Errorf("unknown method %q", call.Method)
}

func (l *Ledger) createTribe(call gateway.Call) ([]gateway.Event, error) {
	name := call.Args[0].(string)
	metadata := call.Args[1].(string)
	admins := call.Args[2].([]common.Address)
	joinType := call.Args[3].(uint8)
	entryFee := call.Args[4].(*big.Int)
	nftReqs := call.Args[5].([]gateway.NFTRequirementRecord)

	id := l.nextTribeID
	l.nextTribeID++

	if entryFee == nil {
		entryFee = big.NewInt(0)
	}
	t := &tribeState{
		rec: gateway.TribeRecord{
			ID:              id,
			Name:            name,
			Metadata:        metadata,
			Admin:           l.caller,
			JoinType:        joinType,
			EntryFee:        new(big.Int).Set(entryFee),
			MemberCount:     1,
			CreationTime:    uint64(time.Now().Unix()),
			NFTRequirements: nftReqs,
			IsActive:        true,
		},
		members: map[common.Address]uint8{l.caller: statusActive},
		admins:  map[common.Address]bool{l.caller: true},
		codes:   make(map[common.Hash]*codeState),
	}
	for _, admin := range admins {
		t.admins[admin] = true
	}
	l.tribes[id] = t
	l.tribeOrder = append(l.tribeOrder, id)

	return []gateway.Event{{
		Name: gateway.EventTribeCreated,
		Args: []any{id, l.caller, metadata},
	}}, nil
}

func (l *Ledger) updateTribeConfig(call gateway.Call) ([]gateway.Event, error) {
	t, err := l.tribe(call.Args[0].(uint64))
	if err != nil {
		return nil, err
	}
	if !t.admins[l.caller] {
		return nil, fmt.Errorf("caller is not a tribe admin")
	}
	t.rec.JoinType = call.Args[1].(uint8)
	if fee := call.Args[2].(*big.Int); fee != nil {
		t.rec.EntryFee = new(big.Int).Set(fee)
	}
	t.rec.NFTRequirements = call.Args[3].([]gateway.NFTRequirementRecord)
	return nil, nil
}

func (l *Ledger) updateTribe(call gateway.Call) ([]gateway.Event, error) {
	t, err := l.tribe(call.Args[0].(uint64))
	if err != nil {
		return nil, err
	}
	if !t.admins[l.caller] {
		return nil, fmt.Errorf("caller is not a tribe admin")
	}
	t.rec.Metadata = call.Args[1].(string)
	return nil, nil
}

func (l *Ledger) joinTribe(call gateway.Call) ([]gateway.Event, error) {
	t, err := l.tribe(call.Args[0].(uint64))
	if err != nil {
		return nil, err
	}
	if t.rec.JoinType != joinPublic {
		return nil, fmt.Errorf("tribe is not public")
	}
	return nil, l.admit(t, l.caller)
}

func (l *Ledger) requestToJoinTribe(call gateway.Call) ([]gateway.Event, error) {
	t, err := l.tribe(call.Args[0].(uint64))
	if err != nil {
		return nil, err
	}
	if t.rec.JoinType != joinPrivate {
		return nil, fmt.Errorf("tribe is not private")
	}
	switch t.members[l.caller] {
	case statusBanned:
		return nil, fmt.Errorf("member is banned from this tribe")
	case statusActive, statusPending:
		return nil, fmt.Errorf("membership already requested or granted")
	}
	paid := big.NewInt(0)
	if call.Value != nil {
		paid = call.Value
	}
	if paid.Cmp(t.rec.EntryFee) < 0 {
		return nil, fmt.Errorf("insufficient entry fee")
	}
	t.members[l.caller] = statusPending
	return nil, nil
}

func (l *Ledger) joinTribeWithCode(call gateway.Call) ([]gateway.Event, error) {
	t, err := l.tribe(call.Args[0].(uint64))
	if err != nil {
		return nil, err
	}
	codeHash := call.Args[1].(common.Hash)
	code, ok := t.codes[codeHash]
	if !ok {
		return nil, fmt.Errorf("invalid invite code")
	}
	if code.remaining == 0 {
		return nil, fmt.Errorf("invite code exhausted")
	}
	if code.expiresAt != 0 && time.Now().Unix() > code.expiresAt {
		return nil, fmt.Errorf("invite code expired")
	}
	if err := l.admit(t, l.caller); err != nil {
		return nil, err
	}
	code.remaining--
	return nil, nil
}

// admit moves addr from NONE to ACTIVE. BANNED never re-enters.
func (l *Ledger) admit(t *tribeState, addr common.Address) error {
	switch t.members[addr] {
	case statusBanned:
		return fmt.Errorf("member is banned from this tribe")
	case statusActive:
		return fmt.Errorf("already a member")
	}
	t.members[addr] = statusActive
	t.rec.MemberCount++
	return nil
}

func (l *Ledger) manageMember(call gateway.Call, action string) ([]gateway.Event, error) {
	t, err := l.tribe(call.Args[0].(uint64))
	if err != nil {
		return nil, err
	}
	if !t.admins[l.caller] {
		return nil, fmt.Errorf("caller is not a tribe admin")
	}
	member := call.Args[1].(common.Address)

	switch action {
	case "approve":
		switch t.members[member] {
		case statusPending:
			t.members[member] = statusActive
			t.rec.MemberCount++
		case statusNone:
			// Invite-only tribes admit directly by admin action.
			if t.rec.JoinType != joinInviteOnly {
				return nil, fmt.Errorf("member has no pending request")
			}
			t.members[member] = statusActive
			t.rec.MemberCount++
		case statusBanned:
			return nil, fmt.Errorf("member is banned from this tribe")
		default:
			return nil, fmt.Errorf("member is already active")
		}
	case "remove":
		if t.members[member] != statusActive {
			return nil, fmt.Errorf("member is not active")
		}
		t.members[member] = statusNone
		t.rec.MemberCount--
	case "ban":
		if t.members[member] == statusActive {
			t.rec.MemberCount--
		}
		t.members[member] = statusBanned
	}
	return nil, nil
}

func (l *Ledger) createInviteCode(call gateway.Call) ([]gateway.Event, error) {
	t, err := l.tribe(call.Args[0].(uint64))
	if err != nil {
		return nil, err
	}
	if !t.admins[l.caller] {
		return nil, fmt.Errorf("caller is not a tribe admin")
	}
	code := call.Args[1].(string)
	maxUses := call.Args[2].(uint64)
	expiry := call.Args[3].(uint64)

	t.codes[crypto.Keccak256Hash([]byte(code))] = &codeState{
		maxUses:   maxUses,
		remaining: maxUses,
		expiresAt: int64(expiry),
	}
	return nil, nil
}

func (l *Ledger) newPost(tribeID uint64, metadata string, mutate func(*gateway.PostRecord)) (uint64, error) {
	t, err := l.tribe(tribeID)
	if err != nil {
		return 0, err
	}
	if t.members[l.caller] != statusActive {
		return 0, fmt.Errorf("caller is not an active member of the tribe")
	}

	id := l.nextPostID
	l.nextPostID++
	rec := gateway.PostRecord{
		ID:        id,
		TribeID:   tribeID,
		Creator:   l.caller,
		Metadata:  metadata,
		Timestamp: uint64(time.Now().Unix()),
	}
	if mutate != nil {
		mutate(&rec)
	}
	l.posts[id] = &postState{rec: rec, authorized: make(map[common.Address]bool)}
	l.postOrder = append(l.postOrder, id)
	return id, nil
}

func (l *Ledger) createPost(call gateway.Call) ([]gateway.Event, error) {
	tribeID := call.Args[0].(uint64)
	id, err := l.newPost(tribeID, call.Args[1].(string), func(rec *gateway.PostRecord) {
		rec.IsGated = call.Args[2].(bool)
		rec.CollectibleContract = call.Args[3].(common.Address)
		rec.CollectibleID = call.Args[4].(uint64)
	})
	if err != nil {
		return nil, err
	}
	return []gateway.Event{{
		Name: gateway.EventPostCreated,
		Args: []any{id, tribeID, l.caller},
	}}, nil
}

func (l *Ledger) createBatchPosts(call gateway.Call) ([]gateway.Event, error) {
	tribeID := call.Args[0].(uint64)
	batch := call.Args[1].([]gateway.BatchPostData)

	ids := make([]uint64, 0, len(batch))
	for _, data := range batch {
		data := data
		id, err := l.newPost(tribeID, data.Metadata, func(rec *gateway.PostRecord) {
			rec.IsGated = data.IsGated
			rec.CollectibleContract = data.CollectibleContract
			rec.CollectibleID = data.CollectibleID
			rec.IsEncrypted = data.PostType == 6
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return []gateway.Event{{
		Name: gateway.EventBatchPostsCreated,
		Args: []any{tribeID, l.caller, ids},
	}}, nil
}

func (l *Ledger) createEncryptedPost(call gateway.Call) ([]gateway.Event, error) {
	tribeID := call.Args[0].(uint64)
	id, err := l.newPost(tribeID, call.Args[1].(string), func(rec *gateway.PostRecord) {
		rec.IsEncrypted = true
		rec.AccessSigner = call.Args[3].(common.Address)
	})
	if err != nil {
		return nil, err
	}
	return []gateway.Event{{
		Name: gateway.EventEncryptedPostCreated,
		Args: []any{id, tribeID, l.caller},
	}}, nil
}

func (l *Ledger) createSignatureGatedPost(call gateway.Call) ([]gateway.Event, error) {
	tribeID := call.Args[0].(uint64)
	id, err := l.newPost(tribeID, call.Args[1].(string), func(rec *gateway.PostRecord) {
		rec.IsEncrypted = true
		rec.AccessSigner = call.Args[3].(common.Address)
		rec.IsGated = true
		rec.CollectibleContract = call.Args[4].(common.Address)
		rec.CollectibleID = call.Args[5].(uint64)
	})
	if err != nil {
		return nil, err
	}
	return []gateway.Event{{
		Name: gateway.EventSignatureGatedPostCreated,
		Args: []any{id, tribeID, l.caller},
	}}, nil
}

func (l *Ledger) deletePost(call gateway.Call) ([]gateway.Event, error) {
	p, err := l.post(call.Args[0].(uint64))
	if err != nil {
		return nil, err
	}
	if p.rec.Creator != l.caller {
		return nil, fmt.Errorf("only the creator can delete a post")
	}
	p.deleted = true
	return nil, nil
}

func (l *Ledger) reportPost(call gateway.Call) ([]gateway.Event, error) {
	p, err := l.post(call.Args[0].(uint64))
	if err != nil {
		return nil, err
	}
	p.rec.ReportCount++
	return nil, nil
}

func (l *Ledger) interactWithPost(call gateway.Call) ([]gateway.Event, error) {
	p, err := l.post(call.Args[0].(uint64))
	if err != nil {
		return nil, err
	}
	if p.deleted {
		return nil, fmt.Errorf("post has been deleted")
	}
	code := call.Args[1].(uint8)

	// Counter vector is [likes, dislikes, shares, comments, saves]; only a
	// subset of interaction kinds move a counter.
	switch code {
	case 0:
		p.rec.InteractionCounts[0]++
	case 1:
		p.rec.InteractionCounts[3]++
	case 2:
		p.rec.InteractionCounts[2]++
	case 3:
		p.rec.InteractionCounts[4]++
	case 4:
		p.rec.ReportCount++
	}
	return []gateway.Event{{
		Name: gateway.EventPostInteraction,
		Args: []any{p.rec.ID, l.caller, code},
	}}, nil
}

func (l *Ledger) authorizeViewer(call gateway.Call) ([]gateway.Event, error) {
	p, err := l.post(call.Args[0].(uint64))
	if err != nil {
		return nil, err
	}
	if p.rec.Creator != l.caller {
		return nil, fmt.Errorf("only the creator can authorize viewers")
	}
	p.authorized[call.Args[1].(common.Address)] = true
	return nil, nil
}

// Query executes a read-only call.
func (l *Ledger) Query(ctx context.Context, call gateway.Call) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.queryErrs[call.Method]; err != nil {
		return nil, err
	}

	switch call.Method {
	case "getTribeDetails":
		t, err := l.tribe(call.Args[0].(uint64))
		if err != nil {
			return nil, err
		}
		rec := t.rec
		rec.EntryFee = new(big.Int).Set(t.rec.EntryFee)
		return rec, nil

	case "getMemberStatus":
		t, err := l.tribe(call.Args[0].(uint64))
		if err != nil {
			return nil, err
		}
		return t.members[call.Args[1].(common.Address)], nil

	case "getUserTribes":
		addr := call.Args[0].(common.Address)
		var ids []uint64
		for _, id := range l.tribeOrder {
			if l.tribes[id].members[addr] == statusActive {
				ids = append(ids, id)
			}
		}
		return ids, nil

	case "isInviteCodeValid":
		t, err := l.tribe(call.Args[0].(uint64))
		if err != nil {
			return nil, err
		}
		code, ok := t.codes[crypto.Keccak256Hash([]byte(call.Args[1].(string)))]
		if !ok || code.remaining == 0 {
			return false, nil
		}
		if code.expiresAt != 0 && time.Now().Unix() > code.expiresAt {
			return false, nil
		}
		return true, nil

	case "getAllTribes":
		offset := call.Args[0].(uint64)
		limit := call.Args[1].(uint64)
		return gateway.TribePageRecord{
			TribeIDs: paginate(l.tribeOrder, offset, limit),
			Total:    uint64(len(l.tribeOrder)),
		}, nil

	case "tribeExists":
		_, ok := l.tribes[call.Args[0].(uint64)]
		return ok, nil

	case "getTribeCount":
		return uint64(len(l.tribeOrder)), nil

	case "getPost":
		p, err := l.post(call.Args[0].(uint64))
		if err != nil {
			return nil, err
		}
		return p.rec, nil

	case "getPostBatch":
		ids := call.Args[0].([]uint64)
		recs := make([]gateway.PostRecord, 0, len(ids))
		for _, id := range ids {
			p, err := l.post(id)
			if err != nil {
				return nil, err
			}
			recs = append(recs, p.rec)
		}
		return recs, nil

	case "getPostsByTribe":
		tribeID := call.Args[0].(uint64)
		return l.postPage(call.Args[1].(uint64), call.Args[2].(uint64), func(p *postState) bool {
			return p.rec.TribeID == tribeID
		}), nil

	case "getPostsByUser":
		user := call.Args[0].(common.Address)
		return l.postPage(call.Args[1].(uint64), call.Args[2].(uint64), func(p *postState) bool {
			return p.rec.Creator == user
		}), nil

	case "getPostsByTribeAndUser":
		tribeID := call.Args[0].(uint64)
		user := call.Args[1].(common.Address)
		return l.postPage(call.Args[2].(uint64), call.Args[3].(uint64), func(p *postState) bool {
			return p.rec.TribeID == tribeID && p.rec.Creator == user
		}), nil

	case "getFeedForUser":
		user := call.Args[0].(common.Address)
		return l.postPage(call.Args[1].(uint64), call.Args[2].(uint64), func(p *postState) bool {
			t, ok := l.tribes[p.rec.TribeID]
			return ok && t.members[user] == statusActive
		}), nil

	case "validateMetadata":
		metadata := call.Args[0].(string)
		if metadata == "" {
			return false, nil
		}
		var doc map[string]any
		return json.Unmarshal([]byte(metadata), &doc) == nil, nil
	}
	return nil, fmt.Errorf("unknown method %q", call.Method)
}

func (l *Ledger) postPage(offset, limit uint64, keep func(*postState) bool) gateway.PostPageRecord {
	var ids []uint64
	for _, id := range l.postOrder {
		p := l.posts[id]
		if !p.deleted && keep(p) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return gateway.PostPageRecord{
		PostIDs: paginate(ids, offset, limit),
		Total:   uint64(len(ids)),
	}
}

func paginate(ids []uint64, offset, limit uint64) []uint64 {
	if offset >= uint64(len(ids)) {
		return nil
	}
	end := offset + limit
	if end > uint64(len(ids)) {
		end = uint64(len(ids))
	}
	return append([]uint64(nil), ids[offset:end]...)
}

func (l *Ledger) tribe(id uint64) (*tribeState, error) {
	t, ok := l.tribes[id]
	if !ok {
		return nil, fmt.Errorf("tribe %d does not exist", id)
	}
	if !t.rec.IsActive {
		return nil, fmt.Errorf("tribe %d is not active", id)
	}
	return t, nil
}

func (l *Ledger) post(id uint64) (*postState, error) {
	p, ok := l.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d does not exist", id)
	}
	return p, nil
}
