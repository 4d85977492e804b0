package model

import (
	"time"

	"gorm.io/gorm"
)

type QueueStatus string

const (
	QueueStatusPending    QueueStatus = "pending"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusCompleted  QueueStatus = "completed"
	QueueStatusFailed     QueueStatus = "failed"
)

const DefaultMaxAttempts = 3

// PublishingQueueItem is a scheduled publication. The sweep moves items
// pending -> processing -> completed|failed; the pending -> processing hop is
// a conditional write so concurrent sweeps cannot double-process an item.
// Completed and failed are terminal.
type PublishingQueueItem struct {
	gorm.Model
	ID           string      `gorm:"primaryKey;uuid;not null;"`
	PostID       string      `gorm:"uuid;not null;index:idx_publishing_queue_post_id"`
	ScheduledFor time.Time   `gorm:"index:idx_publishing_queue_scheduled_for"`
	Status       QueueStatus `gorm:"not null;default:'pending'"`
	Attempts     int         `gorm:"not null;default:0"`
	MaxAttempts  int         `gorm:"not null;default:3"`
	LastError    string
}

func (PublishingQueueItem) TableName() string {
	return "publishing_queue"
}

// Terminal reports whether the item must never be picked up by a sweep again.
func (q *PublishingQueueItem) Terminal() bool {
	return q.Status == QueueStatusCompleted || q.Status == QueueStatusFailed
}
