package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Post is the editable blog post. The editable fields (title, content,
// excerpt, tags) are snapshotted into post_versions on every accepted edit;
// the row here always holds the current working copy.
type Post struct {
	gorm.Model
	ID             string `gorm:"primaryKey;uuid;not null;"`
	AuthorID       string `gorm:"uuid;not null"`
	Title          string
	Content        string
	Excerpt        string
	Tags           string     // JSON-encoded ordered list of tag strings
	Status         PostStatus `gorm:"not null;default:'draft'"`
	PublishedAt    *time.Time
	ReleaseVersion string // semantic version label, bumped on every publish
	Deleted        bool   `gorm:"not null;default:false"`
	Compression    string // codec used for content at rest
}

func (Post) TableName() string {
	return "posts"
}

// PostFields holds the editable field set of a post. It is the unit the
// version store snapshots and the merge engine operates on.
type PostFields struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Excerpt string   `json:"excerpt"`
	Tags    []string `json:"tags"`
}

func (f *PostFields) TagsJSON() string {
	if f.Tags == nil {
		f.Tags = make([]string, 0)
	}
	data, _ := json.Marshal(f.Tags)
	return string(data)
}

func DecodeTags(tags string) []string {
	list := make([]string, 0)
	if tags == "" {
		return list
	}
	if err := json.Unmarshal([]byte(tags), &list); err != nil {
		return make([]string, 0)
	}
	return list
}
