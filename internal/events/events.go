package events

import (
	"context"
	"time"
)

const (
	TopicUserEvents    = "user_events"
	TopicProductEvents = "product_events"
)

const (
	TypeUserRegistered = "user_registered"
	TypeUserLoggedIn   = "user_logged_in"
	TypeProductCreated = "product_created"
	TypeProductUpdated = "product_updated"
	TypeProductDeleted = "product_deleted"
)

var Topics = []string{TopicUserEvents, TopicProductEvents}

type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userID,omitempty"`
	ProductID string    `json:"productID,omitempty"`
	Name      string    `json:"name,omitempty"`
	At        time.Time `json:"at"`
}

// Noop discards events. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) error { return nil }
