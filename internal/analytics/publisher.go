package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/shortlink-go/internal/messaging"
)

// Publishers holds the typed publish functions for every analytics topic.
type Publishers struct {
	LinkCreated  messaging.Publish[LinkCreatedEvent]
	LinkAccessed messaging.Publish[LinkAccessedEvent]
}

// NewPublishers binds the analytics topics to publisher.
func NewPublishers(publisher message.Publisher) *Publishers {
	return &Publishers{
		LinkCreated:  messaging.NewPublishFunc[LinkCreatedEvent](publisher, TopicLinkCreated),
		LinkAccessed: messaging.NewPublishFunc[LinkAccessedEvent](publisher, TopicLinkAccessed),
	}
}
