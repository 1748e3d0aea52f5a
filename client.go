// Package tribes is a client-side mediation layer between application code
// and an authoritative append-only ledger recording a social graph: tribes,
// membership and posts. The ledger enforces the rules; this layer presents
// a consistent low-latency read view over it and drives mutations through
// to confirmation, keeping the view in sync afterward.
package tribes

import (
	"github.com/tribeshq/tribes-go/cache"
	"github.com/tribeshq/tribes-go/config"
	"github.com/tribeshq/tribes-go/content"
	"github.com/tribeshq/tribes-go/events"
	"github.com/tribeshq/tribes-go/gateway"
	"github.com/tribeshq/tribes-go/membership"
	"github.com/tribeshq/tribes-go/pkg/errors"
)

// Client aggregates the SDK modules over one shared consistency cache.
// Cache state is scoped to the client instance: separate clients never
// share entries.
type Client struct {
	Membership *membership.Service
	Content    *content.Service
	Events     *events.Invalidator

	cfg   *config.Config
	cache *cache.Cache
}

// NewClient wires a client against the given gateway. A nil cfg uses
// config.Default().
func NewClient(cfg *config.Config, gw gateway.Gateway) (*Client, error) {
	if gw == nil {
		return nil, errors.New(errors.ErrCodeValidation, "gateway must not be nil")
	}
	if cfg == nil {
		cfg = config.Default()
	}

	c := cache.New(gw.BlockNumber)
	return &Client{
		Membership: membership.NewService(gw, c),
		Content:    content.NewService(gw, c, cfg),
		Events:     events.NewInvalidator(gw, c),
		cfg:        cfg,
		cache:      c,
	}, nil
}

// Cache exposes the client's consistency cache for explicit invalidation.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// Close tears the client down, dropping all cached state. Event
// subscriptions are cancelled individually via their handles.
func (c *Client) Close() {
	c.cache.Clear()
}
