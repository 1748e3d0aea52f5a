// Package events reacts to confirmed ledger events: it decodes them,
// translates numeric kinds back to their symbolic form, notifies registered
// listeners and invalidates the cache entries each event logically affects.
package events

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tribeshq/tribes-go/cache"
	"github.com/tribeshq/tribes-go/gateway"
	"github.com/tribeshq/tribes-go/models"
	"github.com/tribeshq/tribes-go/pkg/logger"
)

// sinkBuffer keeps event delivery from blocking the gateway while a
// listener runs.
const sinkBuffer = 16

// Subscription is the cancellation handle every listener registration
// returns. Cancel is idempotent; a handle from a failed setup is a no-op.
type Subscription struct {
	once   sync.Once
	cancel gateway.Unsubscribe
}

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

func noopSubscription() *Subscription {
	return &Subscription{}
}

// Invalidator owns the event subscriptions of one client instance.
type Invalidator struct {
	gw    gateway.Gateway
	cache *cache.Cache
}

func NewInvalidator(gw gateway.Gateway, c *cache.Cache) *Invalidator {
	return &Invalidator{gw: gw, cache: c}
}

// PostInteractionListener receives decoded PostInteraction events.
type PostInteractionListener func(postID uint64, user common.Address, kind models.InteractionType)

// OnPostInteraction registers a listener for interaction events, optionally
// pre-filtered to one post. Each delivery invalidates the post's cache
// entries so the next detail fetch reflects updated counters.
//
// Registration never fails from the caller's perspective: a setup failure
// is reported through the log side channel and a no-op handle is returned.
func (i *Invalidator) OnPostInteraction(ctx context.Context, postID *uint64, listener PostInteractionListener) *Subscription {
	return i.subscribe(ctx, gateway.EventFilter{
		Contract: gateway.ContractPostMinter,
		Name:     gateway.EventPostInteraction,
		EntityID: postID,
	}, func(ev gateway.Event) {
		id, user, code, ok := decodeInteraction(ev)
		if !ok {
			logger.Warn("discarding malformed post interaction event")
			return
		}
		listener(id, user, models.InteractionFromCode(code))
		i.cache.Invalidate(cache.KeyPost(id))
		i.cache.Invalidate(cache.KeyParsedPost(id))
		i.cache.InvalidateByPrefix(cache.PrefixPostBatch)
	})
}

// PostCreatedListener receives decoded PostCreated events.
type PostCreatedListener func(postID, tribeID uint64, creator common.Address)

// OnPostCreated registers a listener for post creation events, optionally
// pre-filtered to one post. Each delivery invalidates the owning tribe's
// listing pages and all user feeds.
func (i *Invalidator) OnPostCreated(ctx context.Context, postID *uint64, listener PostCreatedListener) *Subscription {
	return i.subscribe(ctx, gateway.EventFilter{
		Contract: gateway.ContractPostMinter,
		Name:     gateway.EventPostCreated,
		EntityID: postID,
	}, func(ev gateway.Event) {
		if len(ev.Args) < 3 {
			logger.Warn("discarding malformed post created event")
			return
		}
		id, ok1 := ev.Args[0].(uint64)
		tribeID, ok2 := ev.Args[1].(uint64)
		creator, ok3 := ev.Args[2].(common.Address)
		if !ok1 || !ok2 || !ok3 {
			logger.Warn("discarding malformed post created event")
			return
		}
		listener(id, tribeID, creator)
		i.cache.InvalidateByPrefix(cache.PrefixTribePosts(tribeID))
		i.cache.InvalidateByPrefix(cache.PrefixAllFeeds)
	})
}

// TribeCreatedListener receives decoded TribeCreated events.
type TribeCreatedListener func(tribeID uint64, creator common.Address, metadata string)

// OnTribeCreated registers a listener for tribe creation events. Each
// delivery invalidates the global tribe listings.
func (i *Invalidator) OnTribeCreated(ctx context.Context, listener TribeCreatedListener) *Subscription {
	return i.subscribe(ctx, gateway.EventFilter{
		Contract: gateway.ContractTribeController,
		Name:     gateway.EventTribeCreated,
	}, func(ev gateway.Event) {
		if len(ev.Args) < 3 {
			logger.Warn("discarding malformed tribe created event")
			return
		}
		tribeID, ok1 := ev.Args[0].(uint64)
		creator, ok2 := ev.Args[1].(common.Address)
		metadata, ok3 := ev.Args[2].(string)
		if !ok1 || !ok2 || !ok3 {
			logger.Warn("discarding malformed tribe created event")
			return
		}
		listener(tribeID, creator, metadata)
		i.cache.InvalidateByPrefix(cache.PrefixTribeListings)
		i.cache.Invalidate("tribes:count")
	})
}

func (i *Invalidator) subscribe(ctx context.Context, filter gateway.EventFilter, handle func(gateway.Event)) *Subscription {
	sink := make(chan gateway.Event, sinkBuffer)
	unsubscribe, err := i.gw.Subscribe(ctx, filter, sink)
	if err != nil {
		// Registering a listener must never crash calling code; absorb the
		// failure into a no-op handle.
		logger.Error("failed to set up event listener", "event", filter.Name, "error", err)
		return noopSubscription()
	}

	go func() {
		for ev := range sink {
			handle(ev)
		}
	}()

	logger.Debug("set up event listener", "event", filter.Name)
	return &Subscription{cancel: unsubscribe}
}

func decodeInteraction(ev gateway.Event) (postID uint64, user common.Address, code uint8, ok bool) {
	if len(ev.Args) < 3 {
		return 0, common.Address{}, 0, false
	}
	postID, ok1 := ev.Args[0].(uint64)
	user, ok2 := ev.Args[1].(common.Address)
	code, ok3 := ev.Args[2].(uint8)
	if !ok1 || !ok2 || !ok3 {
		return 0, common.Address{}, 0, false
	}
	return postID, user, code, true
}
