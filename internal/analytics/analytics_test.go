package analytics_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/serroba/shortlink-go/internal/analytics"
	"github.com/serroba/shortlink-go/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingStore struct {
	mu       sync.Mutex
	created  []analytics.LinkCreatedEvent
	accessed []analytics.LinkAccessedEvent
}

func (s *recordingStore) SaveLinkCreated(_ context.Context, e *analytics.LinkCreatedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.created = append(s.created, *e)

	return nil
}

func (s *recordingStore) SaveLinkAccessed(_ context.Context, e *analytics.LinkAccessedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessed = append(s.accessed, *e)

	return nil
}

func (s *recordingStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.created), len(s.accessed)
}

func TestPublishAndConsume(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	rec := &recordingStore{}

	group := messaging.NewConsumerGroup(pubsub, zap.NewNop())
	group.Add(analytics.NewConsumers(pubsub, rec, zap.NewNop())...)
	require.NoError(t, group.Start(context.Background()))

	t.Cleanup(func() { _ = group.Shutdown() })

	publishers := analytics.NewPublishers(pubsub)
	ctx := context.Background()

	require.NoError(t, publishers.LinkCreated(ctx, &analytics.LinkCreatedEvent{
		Code:      "twitch-tv-url",
		LongURL:   "https://twitch.tv",
		IsCustom:  true,
		OwnerID:   1,
		CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, publishers.LinkAccessed(ctx, &analytics.LinkAccessedEvent{
		Code:        "twitch-tv-url",
		CacheStatus: "MISS",
		AccessedAt:  time.Now().UTC(),
	}))

	require.Eventually(t, func() bool {
		created, accessed := rec.counts()

		return created == 1 && accessed == 1
	}, time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	assert.Equal(t, "https://twitch.tv", rec.created[0].LongURL)
	assert.True(t, rec.created[0].IsCustom)
	assert.Equal(t, "MISS", rec.accessed[0].CacheStatus)
}

func TestNewConsumersTopics(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubsub.Close() })

	consumers := analytics.NewConsumers(pubsub, &recordingStore{}, zap.NewNop())

	require.Len(t, consumers, 2)
	assert.Equal(t, analytics.TopicLinkCreated, consumers[0].(interface{ Topic() string }).Topic())
	assert.Equal(t, analytics.TopicLinkAccessed, consumers[1].(interface{ Topic() string }).Topic())
}
