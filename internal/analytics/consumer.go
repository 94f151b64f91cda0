package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/shortlink-go/internal/messaging"
	"go.uber.org/zap"
)

// NewConsumers returns one consumer per analytics topic, all persisting to store.
func NewConsumers(subscriber message.Subscriber, store Store, logger *zap.Logger) []messaging.Runnable {
	return []messaging.Runnable{
		messaging.NewConsumer[LinkCreatedEvent](subscriber, TopicLinkCreated, store.SaveLinkCreated, logger),
		messaging.NewConsumer[LinkAccessedEvent](subscriber, TopicLinkAccessed, store.SaveLinkAccessed, logger),
	}
}
