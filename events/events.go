package events

import (
	"context"
	"sync"

	"nerdbot/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeClaimableSpawned EventType = "claimable_spawned"
	EventTypeClaimableClaimed EventType = "claimable_claimed"
	EventTypeScoreChanged     EventType = "score_changed"
	EventTypeUserMuted        EventType = "user_muted"
	EventTypeUserUnmuted      EventType = "user_unmuted"
)

// AllEventTypes lists every event type the bus can carry
var AllEventTypes = []EventType{
	EventTypeClaimableSpawned,
	EventTypeClaimableClaimed,
	EventTypeScoreChanged,
	EventTypeUserMuted,
	EventTypeUserUnmuted,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// ClaimableSpawnedEvent is emitted once a spawned collectible has been recorded as live
type ClaimableSpawnedEvent struct {
	GuildID   int64
	ChannelID int64
	MessageID int64
	Kind      models.ClaimableKind
}

func (e ClaimableSpawnedEvent) Type() EventType {
	return EventTypeClaimableSpawned
}

// ClaimableClaimedEvent is emitted after a claim commits
type ClaimableClaimedEvent struct {
	GuildID   int64
	ChannelID int64
	MessageID int64
	Kind      models.ClaimableKind
	UserID    int64
	Reward    int64
}

func (e ClaimableClaimedEvent) Type() EventType {
	return EventTypeClaimableClaimed
}

// ScoreChangedEvent represents a change to a user's total for one kind
type ScoreChangedEvent struct {
	UserID   int64
	Kind     models.ClaimableKind
	Delta    int64
	NewTotal int64
}

func (e ScoreChangedEvent) Type() EventType {
	return EventTypeScoreChanged
}

// UserMutedEvent represents a mute being applied
type UserMutedEvent struct {
	GuildID         int64
	UserID          int64
	ModeratorID     int64
	RevokedChannels int
	FailedChannels  int
}

func (e UserMutedEvent) Type() EventType {
	return EventTypeUserMuted
}

// UserUnmutedEvent represents a mute being lifted
type UserUnmutedEvent struct {
	GuildID          int64
	UserID           int64
	RestoredChannels int
}

func (e UserUnmutedEvent) Type() EventType {
	return EventTypeUserUnmuted
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow subscriber never blocks a command
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits pending events; called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing transactional bus")

	// The transaction context may already be done; events outlive it
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events; called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
