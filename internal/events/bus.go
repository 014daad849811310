package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fsbruva/airsonic-advanced/internal/logger"
)

// EventBus delivers events to subscribers.
type EventBus interface {
	// Publish delivers the event, blocking until it is queued or ctx ends.
	Publish(ctx context.Context, event Event) error

	// PublishAsync queues the event without blocking. Events are dropped
	// when the queue is full; publication never fails the caller's work.
	PublishAsync(event Event)

	// Subscribe registers a handler for the given event types (all types
	// when none are given).
	Subscribe(handler EventHandler, types ...EventType) *Subscription

	// Unsubscribe removes a subscription.
	Unsubscribe(subscriptionID string)

	// Stop drains the queue and stops delivery.
	Stop()
}

type eventBus struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	queue         chan Event
	stopOnce      sync.Once
	done          chan struct{}
}

// NewBus creates and starts an event bus with the given queue size.
func NewBus(bufferSize int) EventBus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	eb := &eventBus{
		subscriptions: make(map[string]*Subscription),
		queue:         make(chan Event, bufferSize),
		done:          make(chan struct{}),
	}
	go eb.dispatch()
	return eb
}

func (eb *eventBus) dispatch() {
	defer close(eb.done)
	for event := range eb.queue {
		eb.mu.RLock()
		subs := make([]*Subscription, 0, len(eb.subscriptions))
		for _, sub := range eb.subscriptions {
			if sub.matches(event) {
				subs = append(subs, sub)
			}
		}
		eb.mu.RUnlock()

		for _, sub := range subs {
			eb.deliver(sub, event)
		}
	}
}

func (eb *eventBus) deliver(sub *Subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panicked", "subscription", sub.ID, "event_type", event.Type, "panic", fmt.Sprint(r))
		}
	}()
	sub.Handler(event)
}

func (eb *eventBus) Publish(ctx context.Context, event Event) error {
	event = eb.stamp(event)
	select {
	case eb.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (eb *eventBus) PublishAsync(event Event) {
	event = eb.stamp(event)
	select {
	case eb.queue <- event:
	default:
		logger.Warn("event queue full, dropping event", "event_type", event.Type)
	}
}

func (eb *eventBus) stamp(event Event) Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	return event
}

func (eb *eventBus) Subscribe(handler EventHandler, types ...EventType) *Subscription {
	sub := &Subscription{
		ID:      uuid.NewString(),
		Types:   types,
		Handler: handler,
		Created: time.Now(),
	}
	eb.mu.Lock()
	eb.subscriptions[sub.ID] = sub
	eb.mu.Unlock()
	return sub
}

func (eb *eventBus) Unsubscribe(subscriptionID string) {
	eb.mu.Lock()
	delete(eb.subscriptions, subscriptionID)
	eb.mu.Unlock()
}

func (eb *eventBus) Stop() {
	eb.stopOnce.Do(func() {
		close(eb.queue)
		<-eb.done
	})
}
