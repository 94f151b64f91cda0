package analytics

import "time"

const (
	TopicLinkCreated  = "link.created"
	TopicLinkAccessed = "link.accessed"
)

// LinkCreatedEvent is emitted when a short link is created.
type LinkCreatedEvent struct {
	Code      string    `json:"code"`
	LongURL   string    `json:"longUrl"`
	IsCustom  bool      `json:"isCustom"`
	OwnerID   int64     `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
}

// LinkAccessedEvent is emitted on every successful redirect.
type LinkAccessedEvent struct {
	Code        string    `json:"code"`
	CacheStatus string    `json:"cacheStatus"`
	AccessedAt  time.Time `json:"accessedAt"`
	ClientIP    string    `json:"clientIp"`
	UserAgent   string    `json:"userAgent"`
	Referrer    string    `json:"referrer,omitempty"`
}
