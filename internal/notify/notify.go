// Package notify emits publish events for downstream collaborators such as
// the subscriber mailer. Delivery failures are surfaced as warnings by the
// publish workflow, never as publish failures.
package notify

import (
	"context"
	"time"
)

// PublishedEvent describes a post that just went live.
type PublishedEvent struct {
	PostID      string    `json:"post_id"`
	Title       string    `json:"title"`
	Release     string    `json:"release"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Subscribers []string  `json:"subscribers"`
}

type Notifier interface {
	// PostPublished announces a publish to subscribers.
	PostPublished(ctx context.Context, event *PublishedEvent) error
}
