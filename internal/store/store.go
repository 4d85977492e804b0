package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/inkpost/inkpost/internal/model"
)

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrVersionNotFound   = errors.New("version not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrQueueItemNotFound = errors.New("queue item not found")
)

type Store interface {
	PostStore
	VersionStore
	SessionStore
	QueueStore
	SubscriberStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type PostStore interface {
	// CreatePost creates a new post draft.
	CreatePost(ctx context.Context, post *model.Post) error
	// GetPost retrieves a post by ID.
	GetPost(ctx context.Context, id uuid.UUID) (*model.Post, error)
	// ListPosts retrieves posts by author, newest first.
	ListPosts(ctx context.Context, authorID string) ([]*model.Post, int64, error)
	// ListPublishedPosts retrieves all live posts, used by the sitemap writer.
	ListPublishedPosts(ctx context.Context) ([]*model.Post, error)
	// GetPostForUpdate retrieves a post holding a row lock for the rest of
	// the surrounding transaction.
	GetPostForUpdate(ctx context.Context, id uuid.UUID) (*model.Post, error)
	// UpdatePost saves a post.
	UpdatePost(ctx context.Context, post *model.Post) error
	// MarkPostDeleted soft-deletes a post and stamps its versions, keeping
	// the version log for audit.
	MarkPostDeleted(ctx context.Context, id uuid.UUID) error
}

type VersionStore interface {
	// CreateVersion appends a new immutable version snapshot.
	CreateVersion(ctx context.Context, version *model.PostVersion) error
	// GetVersion retrieves a version by ID.
	GetVersion(ctx context.Context, id uuid.UUID) (*model.PostVersion, error)
	// GetLatestVersion retrieves the highest-numbered version of a post.
	GetLatestVersion(ctx context.Context, postID uuid.UUID) (*model.PostVersion, error)
	// ListVersions retrieves the full history of a post, newest first.
	ListVersions(ctx context.Context, postID uuid.UUID) ([]*model.PostVersion, error)
	// MarkVersionPublished flips the published pointer to the given version,
	// clearing it from every other version of the post.
	MarkVersionPublished(ctx context.Context, postID, versionID uuid.UUID) error
}

type SessionStore interface {
	// CreateSession creates a new collaborative session.
	CreateSession(ctx context.Context, session *model.CollaborativeSession) error
	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, id uuid.UUID) (*model.CollaborativeSession, error)
	// GetActiveSessionForPost returns the unexpired session governing a post, if any.
	GetActiveSessionForPost(ctx context.Context, postID uuid.UUID, now time.Time) (*model.CollaborativeSession, error)
	// ListActiveSessions returns sessions whose lock has not expired.
	ListActiveSessions(ctx context.Context, postID uuid.UUID, now time.Time) ([]*model.CollaborativeSession, error)
	// RefreshSessionLock pushes last_activity and lock_expiry without
	// touching the membership columns.
	RefreshSessionLock(ctx context.Context, id uuid.UUID, lastActivity, lockExpiry time.Time) error
	// SwapSessionMembership writes the membership and lock fields only while
	// the participants column still holds the expected value. Returns false
	// when another writer got there first.
	SwapSessionMembership(ctx context.Context, session *model.CollaborativeSession, expectedParticipants string) (bool, error)
	// DeleteExpiredSessions removes sessions whose lock expired before now.
	// Idempotent, safe to run from concurrent sweeps.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type QueueStore interface {
	// CreateQueueItem enqueues a pending publication.
	CreateQueueItem(ctx context.Context, item *model.PublishingQueueItem) error
	// GetQueueItem retrieves a queue item by ID.
	GetQueueItem(ctx context.Context, id uuid.UUID) (*model.PublishingQueueItem, error)
	// ListDueQueueItems returns pending items scheduled at or before now.
	ListDueQueueItems(ctx context.Context, now time.Time) ([]*model.PublishingQueueItem, error)
	// ClaimQueueItem transitions an item between statuses only if it still
	// holds the expected one. Returns false when another actor won the claim.
	ClaimQueueItem(ctx context.Context, id uuid.UUID, from, to model.QueueStatus) (bool, error)
	// UpdateQueueItem saves a queue item.
	UpdateQueueItem(ctx context.Context, item *model.PublishingQueueItem) error
	// DeletePendingQueueItem deletes an item only while it is still pending.
	// Returns false when the item has already left the pending state.
	DeletePendingQueueItem(ctx context.Context, id uuid.UUID) (bool, error)
}

type SubscriberStore interface {
	// CreateSubscriber registers a notification recipient.
	CreateSubscriber(ctx context.Context, sub *model.Subscriber) error
	// ListSubscribers returns every notification recipient.
	ListSubscribers(ctx context.Context) ([]*model.Subscriber, error)
}
