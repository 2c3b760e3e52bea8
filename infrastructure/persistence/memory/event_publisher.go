package memory

import (
	"context"
	"sync"

	"exerciselinks/domain/events"

	"go.uber.org/zap"
)

// InMemoryEventPublisher keeps published events in memory and logs them.
// It backs local runs where no event bus is configured.
type InMemoryEventPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
	logger *zap.Logger
}

// NewInMemoryEventPublisher creates a new publisher
func NewInMemoryEventPublisher(logger *zap.Logger) *InMemoryEventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventPublisher{logger: logger}
}

// Publish records a single event
func (p *InMemoryEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch records events in order
func (p *InMemoryEventPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, event := range batch {
		p.logger.Debug("Event published",
			zap.String("event_type", event.GetEventType()),
			zap.String("aggregate_id", event.GetAggregateID()),
		)
	}
	p.events = append(p.events, batch...)
	return nil
}

// Events returns a snapshot of everything published so far
func (p *InMemoryEventPublisher) Events() []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.DomainEvent(nil), p.events...)
}
