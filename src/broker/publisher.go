package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"travisjr/src/contracts"
	"travisjr/src/logger"
)

// StatePublisher sends build state events to a topic.
type StatePublisher struct {
	broker Broker
	topic  string
	logger logger.Logger
}

func NewStatePublisher(b Broker, topic string, log logger.Logger) *StatePublisher {
	if topic == "" {
		topic = contracts.TopicBuildStates
	}
	return &StatePublisher{broker: b, topic: topic, logger: logger.OrSilent(log)}
}

// Publish encodes event as JSON keyed by its build.
func (p *StatePublisher) Publish(ctx context.Context, event contracts.BuildStateEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.broker.Publish(ctx, p.topic, event.Key(), data); err != nil {
		return fmt.Errorf("failed to publish %s event for %s: %w", event.State, event.Key(), err)
	}
	p.logger.Debug("[Publisher] %s -> %s (%s)", event.Key(), event.State, p.topic)
	return nil
}

// DefaultQueueSize bounds the events a Forwarder holds while the broker is slow.
const DefaultQueueSize = 64

// Forwarder publishes events from its own goroutine. Enqueue never waits on
// the broker; when the queue is full the oldest waiting event is dropped.
type Forwarder struct {
	publisher *StatePublisher
	queue     chan contracts.BuildStateEvent
}

// Forward starts a Forwarder that publishes until ctx is done.
func (p *StatePublisher) Forward(ctx context.Context, size int) *Forwarder {
	if size <= 0 {
		size = DefaultQueueSize
	}
	f := &Forwarder{publisher: p, queue: make(chan contracts.BuildStateEvent, size)}
	go f.run(ctx)
	return f
}

// Enqueue hands event to the publishing goroutine.
func (f *Forwarder) Enqueue(event contracts.BuildStateEvent) {
	for {
		select {
		case f.queue <- event:
			return
		default:
		}
		select {
		case dropped := <-f.queue:
			f.publisher.logger.Debug("[Publisher] Queue full, dropping %s event for %s", dropped.State, dropped.Key())
		default:
		}
	}
}

func (f *Forwarder) run(ctx context.Context) {
	for {
		select {
		case event := <-f.queue:
			if err := f.publisher.Publish(ctx, event); err != nil && ctx.Err() == nil {
				f.publisher.logger.Error("[Publisher] %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Events subscribes to the state topic and decodes each message. Messages
// that fail to decode are logged and skipped. The returned channel closes
// when the subscription ends.
func (p *StatePublisher) Events(ctx context.Context, groupID string) (<-chan contracts.BuildStateEvent, error) {
	msgs, err := p.broker.Subscribe(ctx, p.topic, groupID)
	if err != nil {
		return nil, err
	}

	out := make(chan contracts.BuildStateEvent)
	go func() {
		defer close(out)
		for msg := range msgs {
			var event contracts.BuildStateEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				p.logger.Error("[Publisher] Skipping malformed event at offset %d: %v", msg.Offset, err)
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
