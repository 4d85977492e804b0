package model

import "gorm.io/gorm"

// Subscriber is a reader who asked to be notified when a post goes live.
// Notification delivery itself is handled by an external service; the publish
// workflow only emits an event carrying the subscriber addresses.
type Subscriber struct {
	gorm.Model
	ID    string `gorm:"primaryKey;uuid;not null;"`
	Email string `gorm:"not null;uniqueIndex"`
}

func (Subscriber) TableName() string {
	return "subscribers"
}
