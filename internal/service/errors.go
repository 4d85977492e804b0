package service

import "errors"

var (
	// ErrNoChange is returned when a create-version request carries no field
	// that differs from the latest version.
	ErrNoChange = errors.New("no fields changed relative to the latest version")
	// ErrPostNotFound is returned when the referenced post does not exist or
	// has been deleted.
	ErrPostNotFound = errors.New("post not found")
	// ErrVersionNotFound is returned when a version id does not belong to the
	// given post.
	ErrVersionNotFound = errors.New("version not found")
	// ErrNoCommonAncestor is returned when an automatic merge is impossible
	// because the two versions share no ancestor.
	ErrNoCommonAncestor = errors.New("no common ancestor, manual merge required")
	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when the edit lock has lapsed; callers
	// must treat the session as nonexistent.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidSchedule is returned when the scheduled time is not in the
	// future; the caller should publish immediately instead.
	ErrInvalidSchedule = errors.New("scheduled time must be in the future")
	// ErrIncompletePost is returned when publishing a post with an empty
	// title or content.
	ErrIncompletePost = errors.New("post must have a title and content to be published")
	// ErrQueueItemNotFound is returned when a queue item id is unknown.
	ErrQueueItemNotFound = errors.New("queue item not found")
	// ErrAlreadyProcessed is returned when cancelling a queue item that is no
	// longer pending.
	ErrAlreadyProcessed = errors.New("queue item already processed")
	// ErrStorageUnavailable wraps transient database failures during the
	// sweep; those are retried up to the item's attempt budget.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
