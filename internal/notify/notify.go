// Package notify fans sale and stock events out to live subscribers.
package notify

import (
	"context"
	"errors"
	"time"
)

const (
	TypeSale  = "sale_update"
	TypeStock = "stock_update"

	ActionSaleCreated = "sale_created"
	ActionSaleUpdated = "sale_updated"
	ActionSaleDeleted = "sale_deleted"
	ActionStockChange = "stock_changed"
)

type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type Event struct {
	Type    string      `json:"type"`
	Action  string      `json:"action"`
	Data    interface{} `json:"data,omitempty"`
	User    *Actor      `json:"user,omitempty"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
