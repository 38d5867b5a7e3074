package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

const ArticleViewedSubject = "articles.viewed"

type ArticleViewedEvent struct {
	ArticleID string    `json:"articleId"`
	ViewedAt  time.Time `json:"viewedAt"`
}

// Bus publishes domain events for downstream analytics. A nil Bus is a
// valid no-op publisher, so the server runs fine without NATS_URL set.
type Bus struct {
	nc *nats.Conn
}

func Connect(url string) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &Bus{nc: nc}, nil
}

// PublishArticleViewed is best effort: the view counter is already
// incremented in the store, so a publish failure is only logged.
func (b *Bus) PublishArticleViewed(articleID string) {
	if b == nil {
		return
	}
	payload, err := json.Marshal(ArticleViewedEvent{
		ArticleID: articleID,
		ViewedAt:  time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := b.nc.Publish(ArticleViewedSubject, payload); err != nil {
		log.Printf("publish %s: %v", ArticleViewedSubject, err)
	}
}

func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.nc.Drain()
}
