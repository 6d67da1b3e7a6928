package events

import (
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
)

// Topic is a named event channel.
type Topic string

// TopicResultApproved fires after approval artifacts are materialized.
// Payload: {"meta": models.ApprovalMeta, "path": string}.
const TopicResultApproved Topic = "result.approved"

// Event is a named payload delivered to every subscriber of its topic.
type Event struct {
	Topic   Topic
	Payload map[string]interface{}
}

// Handler consumes an event. Errors are logged and never interrupt
// delivery to later subscribers.
type Handler func(event Event) error

// Service is a process-local pub/sub bus. Delivery is synchronous on the
// publisher's goroutine, in subscriber registration order.
type Service struct {
	mu          sync.RWMutex
	subscribers map[Topic][]Handler
	logger      arbor.ILogger
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		subscribers: make(map[Topic][]Handler),
		logger:      logger,
	}
}

// Subscribe registers a handler for a topic.
func (s *Service) Subscribe(topic Topic, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers[topic] = append(s.subscribers[topic], handler)

	s.logger.Debug().
		Str("topic", string(topic)).
		Int("subscriber_count", len(s.subscribers[topic])).
		Msg("Event handler subscribed")

	return nil
}

// Publish delivers the event to every subscriber in registration order.
// A failing or panicking handler is logged and does not stop delivery.
func (s *Service) Publish(event Event) {
	s.mu.RLock()
	handlers := make([]Handler, len(s.subscribers[event.Topic]))
	copy(handlers, s.subscribers[event.Topic])
	s.mu.RUnlock()

	if len(handlers) == 0 {
		s.logger.Debug().
			Str("topic", string(event.Topic)).
			Msg("No subscribers for event")
		return
	}

	for _, handler := range handlers {
		s.invoke(handler, event)
	}
}

func (s *Service) invoke(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("topic", string(event.Topic)).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Event handler panicked")
		}
	}()

	if err := handler(event); err != nil {
		s.logger.Error().
			Err(err).
			Str("topic", string(event.Topic)).
			Msg("Event handler failed")
	}
}

// Clear removes all subscribers, or only those of the given topic.
// Intended for tests.
func (s *Service) Clear(topic Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if topic == "" {
		s.subscribers = make(map[Topic][]Handler)
		return
	}
	delete(s.subscribers, topic)
}
