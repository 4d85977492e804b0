package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/inkpost/inkpost/internal/compress"
	"github.com/inkpost/inkpost/internal/markdown"
	"github.com/inkpost/inkpost/internal/merge"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/store"
	"github.com/inkpost/inkpost/internal/tester"
)

func newTestPost(t *testing.T, posts *PostService, fields model.PostFields) uuid.UUID {
	t.Helper()

	post, err := posts.CreatePost(context.TODO(), fields, "author-1")
	assert.NoError(t, err)

	return uuid.MustParse(post.ID)
}

func testServices(t *testing.T) (*PostService, *VersionService) {
	t.Helper()

	gormStore := store.NewGormStore(tester.TestDB())
	versions := NewVersionService(compress.NewNop(), gormStore, nil)
	posts := NewPostService(gormStore, markdown.NewRenderer(), nil, nil)

	return posts, versions
}

func TestVersionService_CreateVersion(t *testing.T) {
	posts, versions := testServices(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "first", Content: "hello"})

	v1, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "first", Content: "hello world"}, "author-1", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), v1.VersionNumber)
	assert.Nil(t, v1.ParentVersionID)

	v2, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "second", Content: "hello world"}, "author-2", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), v2.VersionNumber)
	assert.NotNil(t, v2.ParentVersionID)
	assert.Equal(t, v1.ID, *v2.ParentVersionID)

	changes, err := v2.ChangeList()
	assert.NoError(t, err)
	assert.Len(t, changes, 1)
	assert.Equal(t, model.ChangeTypeUpdate, changes[0].Type)
	assert.Equal(t, "title", changes[0].Field)
}

func TestVersionService_CreateVersion_NoChange(t *testing.T) {
	posts, versions := testServices(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	fields := model.PostFields{Title: "t", Content: "c2"}
	_, err := versions.CreateVersion(context.TODO(), postID, fields, "author-1", nil)
	assert.NoError(t, err)

	_, err = versions.CreateVersion(context.TODO(), postID, fields, "author-1", nil)
	assert.ErrorIs(t, err, ErrNoChange)
}

func TestVersionService_CreateVersion_PostMissing(t *testing.T) {
	_, versions := testServices(t)

	_, err := versions.CreateVersion(context.TODO(), uuid.New(), model.PostFields{Title: "x"}, "author-1", nil)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestVersionService_History(t *testing.T) {
	posts, versions := testServices(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "v0"})

	for _, content := range []string{"v1", "v2", "v3"} {
		_, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: content}, "author-1", nil)
		assert.NoError(t, err)
	}

	history, err := versions.GetVersionHistory(context.TODO(), postID)
	assert.NoError(t, err)
	assert.Len(t, history, 3)

	// newest first, numbering contiguous from 1
	assert.Equal(t, int64(3), history[0].VersionNumber)
	assert.Equal(t, "v3", history[0].Content)
	assert.Equal(t, int64(1), history[2].VersionNumber)
	assert.Equal(t, "v1", history[2].Content)
}

func TestVersionService_GetLatestVersion_NoVersions(t *testing.T) {
	posts, versions := testServices(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t"})

	latest, err := versions.GetLatestVersion(context.TODO(), postID)
	assert.NoError(t, err)
	assert.Nil(t, latest)
}

func TestVersionService_Rollback(t *testing.T) {
	posts, versions := testServices(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "original"})

	v1, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: "original"}, "author-1", nil)
	assert.NoError(t, err)

	_, err = versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: "edited"}, "author-1", nil)
	assert.NoError(t, err)

	restored, err := versions.RollbackToVersion(context.TODO(), postID, uuid.MustParse(v1.ID), "author-2")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), restored.VersionNumber)
	assert.Equal(t, "original", restored.Content)

	changes, err := restored.ChangeList()
	assert.NoError(t, err)

	var sawRollback bool
	for _, c := range changes {
		if c.Field == "rollback" {
			sawRollback = true
			assert.Equal(t, "1", c.NewValue)
		}
	}
	assert.True(t, sawRollback)

	// the working copy follows the rollback
	post, err := posts.GetPost(context.TODO(), postID)
	assert.NoError(t, err)
	assert.Equal(t, "original", post.Content)
}

func TestVersionService_Rollback_WrongPost(t *testing.T) {
	posts, versions := testServices(t)

	postA := newTestPost(t, posts, model.PostFields{Title: "a", Content: "a"})
	postB := newTestPost(t, posts, model.PostFields{Title: "b", Content: "b"})

	v1, err := versions.CreateVersion(context.TODO(), postA, model.PostFields{Title: "a", Content: "a2"}, "author-1", nil)
	assert.NoError(t, err)

	_, err = versions.RollbackToVersion(context.TODO(), postB, uuid.MustParse(v1.ID), "author-1")
	assert.ErrorIs(t, err, ErrVersionNotFound)
}

func TestVersionService_Diff(t *testing.T) {
	posts, versions := testServices(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "line one\nline two"})

	v1, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: "line one\nline two"}, "author-1", nil)
	assert.NoError(t, err)

	v2, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: "line one\nline two changed"}, "author-1", nil)
	assert.NoError(t, err)

	result, err := versions.DiffVersions(context.TODO(), postID, uuid.MustParse(v1.ID), uuid.MustParse(v2.ID))
	assert.NoError(t, err)
	assert.Len(t, result.Modified, 1)
	assert.NotEmpty(t, result.ContentDiff)
}

func TestVersionService_Merge_NoConflict(t *testing.T) {
	posts, versions := testServices(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "body"})

	base, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: "body"}, "author-1", nil)
	assert.NoError(t, err)

	// remote edit changes the title
	_, err = versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "remote title", Content: "body"}, "author-2", nil)
	assert.NoError(t, err)

	// local edit changes the content on top of base
	local := model.PostFields{Title: "t", Content: "local body"}

	merged, conflicts, err := versions.MergeVersions(context.TODO(), postID, uuid.MustParse(base.ID), local, "author-1", merge.StrategyManual)
	assert.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.NotNil(t, merged)
	assert.Equal(t, "remote title", merged.Title)
	assert.Equal(t, "local body", merged.Content)
	assert.Equal(t, int64(3), merged.VersionNumber)
}

func TestVersionService_Merge_ManualConflict(t *testing.T) {
	posts, versions := testServices(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "base", Content: "body"})

	base, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "base", Content: "body"}, "author-1", nil)
	assert.NoError(t, err)

	_, err = versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "remote", Content: "body"}, "author-2", nil)
	assert.NoError(t, err)

	local := model.PostFields{Title: "local", Content: "body"}

	merged, conflicts, err := versions.MergeVersions(context.TODO(), postID, uuid.MustParse(base.ID), local, "author-1", merge.StrategyManual)
	assert.NoError(t, err)
	assert.Nil(t, merged)
	assert.Len(t, conflicts, 1)
	assert.Equal(t, "local", conflicts[0].LocalValue)
	assert.Equal(t, "remote", conflicts[0].RemoteValue)
}

func TestVersionService_Merge_NoCommonAncestor(t *testing.T) {
	posts, versions := testServices(t)

	postA := newTestPost(t, posts, model.PostFields{Title: "a", Content: "a"})
	postB := newTestPost(t, posts, model.PostFields{Title: "b", Content: "b"})

	vA, err := versions.CreateVersion(context.TODO(), postA, model.PostFields{Title: "a", Content: "a2"}, "author-1", nil)
	assert.NoError(t, err)

	_, err = versions.CreateVersion(context.TODO(), postB, model.PostFields{Title: "b", Content: "b2"}, "author-1", nil)
	assert.NoError(t, err)

	_, _, err = versions.MergeVersions(context.TODO(), postB, uuid.MustParse(vA.ID), model.PostFields{Title: "x"}, "author-1", merge.StrategyLocal)
	assert.ErrorIs(t, err, ErrVersionNotFound)
}

func TestVersionService_Merge_DivergedBranch(t *testing.T) {
	posts, versions := testServices(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "v1"})

	v1, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: "v1"}, "author-1", nil)
	assert.NoError(t, err)

	v2, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: "v2"}, "author-1", nil)
	assert.NoError(t, err)

	// branch off v1 so the latest no longer descends from v2
	v1ID := uuid.MustParse(v1.ID)
	_, err = versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: "v3"}, "author-2", &v1ID)
	assert.NoError(t, err)

	_, _, err = versions.MergeVersions(context.TODO(), postID, uuid.MustParse(v2.ID), model.PostFields{Title: "x", Content: "v2"}, "author-1", merge.StrategyLocal)
	assert.ErrorIs(t, err, ErrNoCommonAncestor)
}

func TestVersionService_CompressedContent(t *testing.T) {
	gormStore := store.NewGormStore(tester.TestDB())
	versions := NewVersionService(compress.NewGZip(), gormStore, nil)
	posts := NewPostService(gormStore, markdown.NewRenderer(), nil, nil)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "plain"})

	v1, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: "compressed body"}, "author-1", nil)
	assert.NoError(t, err)
	assert.Equal(t, "compressed body", v1.Content)

	latest, err := versions.GetLatestVersion(context.TODO(), postID)
	assert.NoError(t, err)
	assert.Equal(t, "compressed body", latest.Content)
}
