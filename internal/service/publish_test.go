package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/inkpost/inkpost/internal/compress"
	"github.com/inkpost/inkpost/internal/markdown"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/notify"
	"github.com/inkpost/inkpost/internal/store"
	"github.com/inkpost/inkpost/internal/tester"
)

type capturedEvents struct {
	events []*notify.PublishedEvent
}

func (c *capturedEvents) PostPublished(ctx context.Context, event *notify.PublishedEvent) error {
	c.events = append(c.events, event)
	return nil
}

func testPublishService(t *testing.T) (*PostService, *VersionService, *PublishService, store.Store, *capturedEvents) {
	t.Helper()

	gormStore := store.NewGormStore(tester.TestDB())
	captured := &capturedEvents{}

	posts := NewPostService(gormStore, markdown.NewRenderer(), nil, nil)
	versions := NewVersionService(compress.NewNop(), gormStore, nil)
	publish := NewPublishService(gormStore, captured, "https://blog.example.com", "", 3)

	return posts, versions, publish, gormStore, captured
}

func TestPublishService_PublishNow(t *testing.T) {
	posts, versions, publish, gormStore, captured := testPublishService(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	v1, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: "c2"}, "author-1", nil)
	assert.NoError(t, err)

	result, err := publish.PublishNow(context.TODO(), postID, nil)
	assert.NoError(t, err)
	assert.Equal(t, "0.0.1", result.Release)
	assert.Equal(t, model.PostStatusPublished, result.Post.Status)
	assert.NotNil(t, result.Post.PublishedAt)

	published, err := gormStore.GetVersion(context.TODO(), uuid.MustParse(v1.ID))
	assert.NoError(t, err)
	assert.True(t, published.IsPublished)

	assert.Len(t, captured.events, 1)
	assert.Equal(t, "https://blog.example.com/posts/"+postID.String(), captured.events[0].URL)

	// the release label keeps climbing on republish
	_, err = versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: "c3"}, "author-1", nil)
	assert.NoError(t, err)

	result, err = publish.PublishNow(context.TODO(), postID, nil)
	assert.NoError(t, err)
	assert.Equal(t, "0.0.2", result.Release)
}

func TestPublishService_PublishNow_ExclusivePublishedVersion(t *testing.T) {
	posts, versions, publish, gormStore, _ := testPublishService(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	v1, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: "c2"}, "author-1", nil)
	assert.NoError(t, err)

	_, err = publish.PublishNow(context.TODO(), postID, nil)
	assert.NoError(t, err)

	v2, err := versions.CreateVersion(context.TODO(), postID, model.PostFields{Title: "t", Content: "c3"}, "author-1", nil)
	assert.NoError(t, err)

	_, err = publish.PublishNow(context.TODO(), postID, nil)
	assert.NoError(t, err)

	old, err := gormStore.GetVersion(context.TODO(), uuid.MustParse(v1.ID))
	assert.NoError(t, err)
	assert.False(t, old.IsPublished)

	current, err := gormStore.GetVersion(context.TODO(), uuid.MustParse(v2.ID))
	assert.NoError(t, err)
	assert.True(t, current.IsPublished)
}

func TestPublishService_PublishNow_Incomplete(t *testing.T) {
	posts, _, publish, _, _ := testPublishService(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "only a title"})

	_, err := publish.PublishNow(context.TODO(), postID, nil)
	assert.ErrorIs(t, err, ErrIncompletePost)

	// a failed publish leaves the draft untouched
	post, err := posts.GetPost(context.TODO(), postID)
	assert.NoError(t, err)
	assert.Equal(t, model.PostStatusDraft, post.Status)
	assert.Nil(t, post.PublishedAt)
}

func TestPublishService_ShareLinks(t *testing.T) {
	posts, _, publish, _, _ := testPublishService(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	result, err := publish.PublishNow(context.TODO(), postID, []string{"twitter", "myspace"})
	assert.NoError(t, err)
	assert.Contains(t, result.ShareLinks, "twitter")
	assert.NotContains(t, result.ShareLinks, "myspace")
	assert.Len(t, result.Warnings, 1)
}

func TestPublishService_SchedulePost(t *testing.T) {
	posts, _, publish, _, _ := testPublishService(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	item, err := publish.SchedulePost(context.TODO(), postID, time.Now().Add(time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, model.QueueStatusPending, item.Status)
	assert.Equal(t, 0, item.Attempts)
	assert.Equal(t, 3, item.MaxAttempts)
	assert.False(t, item.Terminal())
}

func TestPublishService_GetQueueItem_Missing(t *testing.T) {
	_, _, publish, _, _ := testPublishService(t)

	_, err := publish.GetQueueItem(context.TODO(), uuid.New())
	assert.ErrorIs(t, err, ErrQueueItemNotFound)
}

func TestPublishService_SchedulePost_PastTime(t *testing.T) {
	posts, _, publish, _, _ := testPublishService(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	_, err := publish.SchedulePost(context.TODO(), postID, time.Now().Add(-time.Minute))
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = publish.SchedulePost(context.TODO(), uuid.New(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPublishService_CancelScheduledPost(t *testing.T) {
	posts, _, publish, _, _ := testPublishService(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	item, err := publish.SchedulePost(context.TODO(), postID, time.Now().Add(time.Hour))
	assert.NoError(t, err)

	assert.NoError(t, publish.CancelScheduledPost(context.TODO(), uuid.MustParse(item.ID)))

	// already gone, counts as processed
	err = publish.CancelScheduledPost(context.TODO(), uuid.MustParse(item.ID))
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestPublishService_ProcessScheduledPosts(t *testing.T) {
	posts, _, publish, gormStore, captured := testPublishService(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	item, err := publish.SchedulePost(context.TODO(), postID, time.Now().Add(time.Hour))
	assert.NoError(t, err)

	// pull the schedule into the past so the sweep picks it up
	item.ScheduledFor = time.Now().Add(-time.Minute).UTC()
	assert.NoError(t, gormStore.UpdateQueueItem(context.TODO(), item))

	published, err := publish.ProcessScheduledPosts(context.TODO())
	assert.NoError(t, err)
	assert.Equal(t, 1, published)

	done, err := publish.GetQueueItem(context.TODO(), uuid.MustParse(item.ID))
	assert.NoError(t, err)
	assert.Equal(t, model.QueueStatusCompleted, done.Status)

	post, err := posts.GetPost(context.TODO(), postID)
	assert.NoError(t, err)
	assert.Equal(t, model.PostStatusPublished, post.Status)
	assert.Len(t, captured.events, 1)

	// a second sweep finds nothing to do
	published, err = publish.ProcessScheduledPosts(context.TODO())
	assert.NoError(t, err)
	assert.Equal(t, 0, published)
}

func TestPublishService_ProcessScheduledPosts_IncompleteFailsTerminally(t *testing.T) {
	posts, _, publish, gormStore, _ := testPublishService(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "no content"})

	item, err := publish.SchedulePost(context.TODO(), postID, time.Now().Add(time.Hour))
	assert.NoError(t, err)

	item.ScheduledFor = time.Now().Add(-time.Minute).UTC()
	assert.NoError(t, gormStore.UpdateQueueItem(context.TODO(), item))

	published, err := publish.ProcessScheduledPosts(context.TODO())
	assert.NoError(t, err)
	assert.Equal(t, 0, published)

	failed, err := publish.GetQueueItem(context.TODO(), uuid.MustParse(item.ID))
	assert.NoError(t, err)
	assert.Equal(t, model.QueueStatusFailed, failed.Status)
	assert.True(t, failed.Terminal())
	assert.NotEmpty(t, failed.LastError)

	// validation failures do not burn retry attempts
	post, err := posts.GetPost(context.TODO(), postID)
	assert.NoError(t, err)
	assert.Equal(t, model.PostStatusDraft, post.Status)
}

func TestPublishService_ClaimQueueItem_SingleWinner(t *testing.T) {
	posts, _, publish, gormStore, _ := testPublishService(t)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	item, err := publish.SchedulePost(context.TODO(), postID, time.Now().Add(time.Hour))
	assert.NoError(t, err)

	itemID := uuid.MustParse(item.ID)

	claimed, err := gormStore.ClaimQueueItem(context.TODO(), itemID, model.QueueStatusPending, model.QueueStatusProcessing)
	assert.NoError(t, err)
	assert.True(t, claimed)

	// the second claim loses the conditional write
	claimed, err = gormStore.ClaimQueueItem(context.TODO(), itemID, model.QueueStatusPending, model.QueueStatusProcessing)
	assert.NoError(t, err)
	assert.False(t, claimed)
}
