package diff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/inkpost/inkpost/internal/model"
)

func TestFields_Identical(t *testing.T) {
	fields := model.PostFields{
		Title:   "go generics",
		Content: "a long read",
		Excerpt: "short",
		Tags:    []string{"go"},
	}

	result := Fields(fields, fields)
	assert.True(t, result.Empty())
}

func TestFields_Modified(t *testing.T) {
	a := model.PostFields{Title: "draft", Content: "first", Excerpt: "e"}
	b := model.PostFields{Title: "final", Content: "second", Excerpt: "e"}

	result := Fields(a, b)
	assert.False(t, result.Empty())
	assert.ElementsMatch(t, []Field{FieldTitle, FieldContent}, result.Modified)
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Removed)
}

func TestFields_AddedAndRemoved(t *testing.T) {
	a := model.PostFields{Title: "t", Tags: []string{"go"}}
	b := model.PostFields{Title: "t", Excerpt: "now present"}

	result := Fields(a, b)
	assert.Equal(t, []Field{FieldExcerpt}, result.Added)
	assert.Equal(t, []Field{FieldTags}, result.Removed)
	assert.Empty(t, result.Modified)
}

func TestFields_TagsEmptied(t *testing.T) {
	a := model.PostFields{Title: "t", Tags: []string{"go", "til"}}
	b := model.PostFields{Title: "t", Tags: []string{}}

	result := Fields(a, b)
	assert.Equal(t, []Field{FieldTags}, result.Removed)
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Modified)
}

func TestContentLines(t *testing.T) {
	a := "intro\nmiddle\noutro\n"
	b := "intro\nrevised middle\noutro\n"

	changes := ContentLines(a, b)

	assert.Equal(t, []LineChange{
		{Op: LineEqual, Text: "intro"},
		{Op: LineDelete, Text: "middle"},
		{Op: LineInsert, Text: "revised middle"},
		{Op: LineEqual, Text: "outro"},
	}, changes)
}

func TestContentLines_InsertOnly(t *testing.T) {
	changes := ContentLines("intro\n", "intro\nnew line\n")

	assert.Equal(t, []LineChange{
		{Op: LineEqual, Text: "intro"},
		{Op: LineInsert, Text: "new line"},
	}, changes)
}

func TestContentLines_TrailingNewline(t *testing.T) {
	// only the trailing terminator differs, which is not a line change
	changes := ContentLines("intro", "intro\n")

	assert.Equal(t, []LineChange{
		{Op: LineEqual, Text: "intro"},
	}, changes)
}

func TestChanges_FirstVersion(t *testing.T) {
	now := time.Now().UTC()
	fields := model.PostFields{Title: "t", Content: "c"}

	changes := Changes(nil, fields, "author-1", now)

	assert.Len(t, changes, 2)
	for _, c := range changes {
		assert.Equal(t, model.ChangeTypeInsert, c.Type)
		assert.Equal(t, "author-1", c.AuthorID)
		assert.Empty(t, c.OldValue)
	}
}

func TestChanges_AgainstParent(t *testing.T) {
	parent := &model.PostVersion{Title: "old", Content: "same"}
	next := model.PostFields{Title: "new", Content: "same"}

	changes := Changes(parent, next, "author-1", time.Now().UTC())

	assert.Len(t, changes, 1)
	assert.Equal(t, model.ChangeTypeUpdate, changes[0].Type)
	assert.Equal(t, string(FieldTitle), changes[0].Field)
	assert.Equal(t, "old", changes[0].OldValue)
	assert.Equal(t, "new", changes[0].NewValue)
}
