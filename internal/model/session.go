package model

import (
	"encoding/json"
	"sort"
	"time"

	"gorm.io/gorm"
)

// CollaborativeSession tracks who is concurrently editing a post and carries
// the time-bounded edit lock. A session whose LockExpiry is in the past is
// treated as nonexistent by every caller regardless of the stored row.
type CollaborativeSession struct {
	gorm.Model
	ID            string `gorm:"primaryKey;uuid;not null;"`
	PostID        string `gorm:"uuid;not null;index:idx_collaborative_sessions_post_id"`
	Participants  string // JSON-encoded set of user ids
	ActiveEditors string // JSON-encoded subset of Participants
	LastActivity  time.Time
	LockExpiry    time.Time `gorm:"index:idx_collaborative_sessions_lock_expiry"`
}

func (CollaborativeSession) TableName() string {
	return "collaborative_sessions"
}

// Expired reports whether the edit lock has lapsed at the given instant.
func (s *CollaborativeSession) Expired(now time.Time) bool {
	return s.LockExpiry.Before(now)
}

func (s *CollaborativeSession) ParticipantList() []string {
	return decodeUserSet(s.Participants)
}

func (s *CollaborativeSession) ActiveEditorList() []string {
	return decodeUserSet(s.ActiveEditors)
}

func EncodeUserSet(users []string) string {
	if users == nil {
		users = make([]string, 0)
	}
	sort.Strings(users)
	data, _ := json.Marshal(users)
	return string(data)
}

func decodeUserSet(data string) []string {
	users := make([]string, 0)
	if data == "" {
		return users
	}
	if err := json.Unmarshal([]byte(data), &users); err != nil {
		return make([]string, 0)
	}
	return users
}
