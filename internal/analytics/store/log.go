package store

import (
	"context"

	"github.com/serroba/shortlink-go/internal/analytics"
	"go.uber.org/zap"
)

// Log is an analytics.Store that writes events to the logger.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a new logging analytics store.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	l.logger.Info("link created",
		zap.String("code", event.Code),
		zap.String("longUrl", event.LongURL),
		zap.Bool("isCustom", event.IsCustom),
		zap.Int64("ownerId", event.OwnerID),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (l *Log) SaveLinkAccessed(_ context.Context, event *analytics.LinkAccessedEvent) error {
	l.logger.Info("link accessed",
		zap.String("code", event.Code),
		zap.String("cacheStatus", event.CacheStatus),
		zap.Time("accessedAt", event.AccessedAt),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

var _ analytics.Store = (*Log)(nil)
