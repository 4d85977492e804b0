package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type ChangeType string

const (
	ChangeTypeInsert ChangeType = "insert"
	ChangeTypeDelete ChangeType = "delete"
	ChangeTypeUpdate ChangeType = "update"
)

// Change describes exactly what differs from the parent version. Changes are
// embedded in the owning PostVersion row as a JSON list, they have no table
// of their own.
type Change struct {
	Type      ChangeType `json:"type"`
	Field     string     `json:"field"`
	OldValue  string     `json:"old_value,omitempty"`
	NewValue  string     `json:"new_value"`
	Timestamp time.Time  `json:"timestamp"`
	AuthorID  string     `json:"author_id"`
}

// PostVersion is an immutable snapshot of a post's editable fields.
// Rows are append-only: created on every accepted edit or rollback and never
// mutated afterwards, except the IsPublished pointer flip on publish and the
// PostDeleted stamp when the owning post is soft deleted.
type PostVersion struct {
	gorm.Model
	ID              string `gorm:"primaryKey;uuid;not null;"`
	PostID          string `gorm:"uuid;not null;index:idx_post_versions_post_id"`
	VersionNumber   int64  `gorm:"not null"`
	Title           string
	Content         string
	Excerpt         string
	Tags            string // JSON-encoded ordered list
	AuthorID        string `gorm:"uuid;not null"`
	IsPublished     bool   `gorm:"not null;default:false"`
	Changes         string // JSON-encoded list of Change
	ParentVersionID *string `gorm:"uuid"`
	BranchName      *string
	PostDeleted     bool   `gorm:"not null;default:false"`
	Compression     string
}

func (PostVersion) TableName() string {
	return "post_versions"
}

// Fields returns the editable field set captured by this snapshot.
func (v *PostVersion) Fields() PostFields {
	return PostFields{
		Title:   v.Title,
		Content: v.Content,
		Excerpt: v.Excerpt,
		Tags:    DecodeTags(v.Tags),
	}
}

func (v *PostVersion) ChangeList() ([]Change, error) {
	changes := make([]Change, 0)
	if v.Changes == "" {
		return changes, nil
	}
	if err := json.Unmarshal([]byte(v.Changes), &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

func (v *PostVersion) SetChangeList(changes []Change) error {
	if changes == nil {
		changes = make([]Change, 0)
	}
	data, err := json.Marshal(changes)
	if err != nil {
		return err
	}
	v.Changes = string(data)
	return nil
}
