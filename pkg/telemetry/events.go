package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one notification produced during a planning run. The engine emits
// an informational event before each environment's comparison, one result
// event per environment, and one terminal event per run.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Source identifies where the event originated.
	Source string `json:"source"`

	// Environment is the deployment target the event is scoped to, if any.
	Environment string `json:"environment,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity (info, warning, error).
	Level string `json:"level"`

	// Data carries event-specific payloads, such as the per-environment
	// refactor result.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for the refactor planning run.
const (
	EventTypeRunStarted         = "refactor.run.started"
	EventTypeRunCompleted       = "refactor.run.completed"
	EventTypeEnvironmentStarted = "refactor.environment.started"
	EventTypeEnvironmentResult  = "refactor.environment.result"
	EventTypeWarning            = "refactor.warning"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventPublisher fans events out to subscribers, inline by default or through
// a buffered channel when configured asynchronous.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []EventSubscriber
	wg          sync.WaitGroup
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewEventPublisher creates a new event publisher with the given
// configuration.
func NewEventPublisher(cfg EventsConfig) *EventPublisher {
	ep := &EventPublisher{config: cfg}
	if !cfg.Enabled {
		return ep
	}
	ep.ctx, ep.cancel = context.WithCancel(context.Background())
	if cfg.EnableAsync {
		ep.buffer = make(chan Event, cfg.BufferSize)
		ep.wg.Add(1)
		go ep.processEvents()
	}
	return ep
}

// Subscribe registers a subscriber for all future events.
func (ep *EventPublisher) Subscribe(sub EventSubscriber) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.subscribers = append(ep.subscribers, sub)
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) error {
	if ep == nil || !ep.config.Enabled {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Level == "" {
		event.Level = EventLevelInfo
	}

	if ep.config.EnableAsync {
		select {
		case ep.buffer <- event:
			return nil
		case <-ep.ctx.Done():
			return fmt.Errorf("event publisher stopped")
		default:
			return fmt.Errorf("event buffer full, event dropped")
		}
	}

	ep.deliverEvent(event)
	return nil
}

// Close stops asynchronous delivery and waits for buffered events to drain.
func (ep *EventPublisher) Close() {
	if ep == nil || !ep.config.Enabled {
		return
	}
	if ep.config.EnableAsync {
		close(ep.buffer)
		ep.wg.Wait()
	}
	ep.cancel()
}

func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()
	for event := range ep.buffer {
		ep.deliverEvent(event)
	}
}

func (ep *EventPublisher) deliverEvent(event Event) {
	ep.mu.RLock()
	subs := make([]EventSubscriber, len(ep.subscribers))
	copy(subs, ep.subscribers)
	ep.mu.RUnlock()
	for _, sub := range subs {
		sub(event)
	}
}
