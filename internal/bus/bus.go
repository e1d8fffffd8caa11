package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// ChatGroup is the multicast address for one chat room.
func ChatGroup(chatID int) string {
	return fmt.Sprintf("chat:%d", chatID)
}

// UserGroup is the multicast address for one user's personal notifications.
func UserGroup(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}

// Broadcaster is the local delivery sink for a group, implemented by the
// connection registry.
type Broadcaster interface {
	Broadcast(group string, payload []byte)
}

// Bus fans an event out to every connection subscribed to a group.
// Delivery is best effort, at most once, with no replay: an event published
// while nobody listens is gone.
type Bus interface {
	Publish(ctx context.Context, group string, event any) error
}

// New picks the bus backend: AMQP when a broker URL is configured so
// publishes reach connections registered on other processes, otherwise an
// in-process fan-out.
func New(amqpURL, exchange string, local Broadcaster) Bus {
	if amqpURL == "" {
		log.Printf("event bus: in-memory fan-out (no amqp url)")
		return NewLocalBus(local)
	}
	b, err := NewAMQPBus(amqpURL, exchange, local)
	if err != nil {
		log.Printf("event bus: falling back to in-memory fan-out: %v", err)
		return NewLocalBus(local)
	}
	log.Printf("event bus: amqp fan-out exchange=%s", exchange)
	return b
}

// LocalBus delivers events straight to the local registry. Suitable for
// single-process deployments and tests.
type LocalBus struct {
	local Broadcaster
}

// NewLocalBus constructs a LocalBus.
func NewLocalBus(local Broadcaster) *LocalBus {
	return &LocalBus{local: local}
}

// Publish marshals the event and hands it to the registry.
func (b *LocalBus) Publish(_ context.Context, group string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	b.local.Broadcast(group, payload)
	return nil
}
