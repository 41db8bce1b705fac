// Package events publishes fulfillment notifications for downstream consumers
// such as receipt mailers. Publishing is best-effort: a failed publish never changes the verification outcome.
package events

import (
	"context"
	"time"
)

// FulfillmentEvent is emitted once per successful verification.
type FulfillmentEvent struct {
	Reference    string    `json:"reference"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
	Files        []string  `json:"files"`
	ItemIDs      []string  `json:"item_ids"`
	UsedFallback bool      `json:"used_fallback"`
	RequestID    string    `json:"request_id,omitempty"`
	VerifiedAt   time.Time `json:"verified_at"`
}

type Publisher interface {
	PublishFulfillment(ctx context.Context, ev FulfillmentEvent) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishFulfillment(context.Context, FulfillmentEvent) error { return nil }
func (NopPublisher) Close() error                                              { return nil }
