package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/inkpost/inkpost/internal/markdown"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/store"
	"github.com/inkpost/inkpost/internal/tester"
)

func testSessionService(t *testing.T, ttl time.Duration) (*PostService, *SessionService) {
	t.Helper()

	gormStore := store.NewGormStore(tester.TestDB())
	posts := NewPostService(gormStore, markdown.NewRenderer(), nil, nil)
	sessions := NewSessionService(gormStore, nil, ttl)

	return posts, sessions
}

func TestSessionService_StartSession(t *testing.T) {
	posts, sessions := testSessionService(t, 0)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	session, err := sessions.StartSession(context.TODO(), postID, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, postID.String(), session.PostID)
	assert.Equal(t, []string{"user-1"}, session.ParticipantList())
	assert.Equal(t, []string{"user-1"}, session.ActiveEditorList())
	assert.True(t, session.LockExpiry.After(time.Now().UTC()))
}

func TestSessionService_StartSession_JoinsActive(t *testing.T) {
	posts, sessions := testSessionService(t, 0)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	first, err := sessions.StartSession(context.TODO(), postID, "user-1")
	assert.NoError(t, err)

	// the second editor lands in the same session instead of racing a
	// second lock into existence
	second, err := sessions.StartSession(context.TODO(), postID, "user-2")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, second.ParticipantList())
}

func TestSessionService_StartSession_SingleActiveSession(t *testing.T) {
	posts, sessions := testSessionService(t, 0)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	for _, user := range []string{"user-1", "user-2", "user-3"} {
		_, err := sessions.StartSession(context.TODO(), postID, user)
		assert.NoError(t, err)
	}

	active, err := sessions.GetActiveSessions(context.TODO(), postID)
	assert.NoError(t, err)
	assert.Len(t, active, 1)
	assert.ElementsMatch(t, []string{"user-1", "user-2", "user-3"}, active[0].ParticipantList())
}

func TestSessionService_StartSession_PostMissing(t *testing.T) {
	_, sessions := testSessionService(t, 0)

	_, err := sessions.StartSession(context.TODO(), uuid.New(), "user-1")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestSessionService_JoinSession(t *testing.T) {
	posts, sessions := testSessionService(t, 0)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	session, err := sessions.StartSession(context.TODO(), postID, "user-1")
	assert.NoError(t, err)

	joined, err := sessions.JoinSession(context.TODO(), uuid.MustParse(session.ID), "user-2")
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, joined.ParticipantList())

	// joining twice does not duplicate membership
	again, err := sessions.JoinSession(context.TODO(), uuid.MustParse(session.ID), "user-2")
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, again.ParticipantList())
}

func TestSessionService_JoinSession_OverlappingUnion(t *testing.T) {
	gormStore := store.NewGormStore(tester.TestDB())
	posts := NewPostService(gormStore, markdown.NewRenderer(), nil, nil)
	sessions := NewSessionService(gormStore, nil, 0)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	session, err := sessions.StartSession(context.TODO(), postID, "user-1")
	assert.NoError(t, err)

	// a second writer starts from a snapshot taken before user-2 joined
	stale := *session

	_, err = sessions.JoinSession(context.TODO(), uuid.MustParse(session.ID), "user-2")
	assert.NoError(t, err)

	// the stale write loses the swap, re-reads and folds user-3 into the
	// membership that already contains user-2
	err = sessions.addParticipant(context.TODO(), gormStore, &stale, "user-3", time.Now().UTC())
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"user-1", "user-2", "user-3"}, stale.ParticipantList())

	current, err := gormStore.GetSession(context.TODO(), uuid.MustParse(session.ID))
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"user-1", "user-2", "user-3"}, current.ParticipantList())
}

func TestSessionService_JoinSession_Missing(t *testing.T) {
	_, sessions := testSessionService(t, 0)

	_, err := sessions.JoinSession(context.TODO(), uuid.New(), "user-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_Heartbeat_RefreshesLock(t *testing.T) {
	posts, sessions := testSessionService(t, 0)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	session, err := sessions.StartSession(context.TODO(), postID, "user-1")
	assert.NoError(t, err)
	before := session.LockExpiry

	time.Sleep(10 * time.Millisecond)

	refreshed, err := sessions.Heartbeat(context.TODO(), uuid.MustParse(session.ID), "user-1")
	assert.NoError(t, err)
	assert.True(t, refreshed.LockExpiry.After(before))
	assert.Equal(t, session.ParticipantList(), refreshed.ParticipantList())
}

func TestSessionService_Heartbeat_PreservesMembership(t *testing.T) {
	posts, sessions := testSessionService(t, 0)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	session, err := sessions.StartSession(context.TODO(), postID, "user-1")
	assert.NoError(t, err)

	_, err = sessions.JoinSession(context.TODO(), uuid.MustParse(session.ID), "user-2")
	assert.NoError(t, err)

	// the lock refresh never writes the membership columns, so a join that
	// landed after the heartbeat's read survives
	refreshed, err := sessions.Heartbeat(context.TODO(), uuid.MustParse(session.ID), "user-1")
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, refreshed.ParticipantList())
}

func TestSessionService_ExpiredSession(t *testing.T) {
	posts, sessions := testSessionService(t, time.Millisecond)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	session, err := sessions.StartSession(context.TODO(), postID, "user-1")
	assert.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = sessions.Heartbeat(context.TODO(), uuid.MustParse(session.ID), "user-1")
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = sessions.JoinSession(context.TODO(), uuid.MustParse(session.ID), "user-2")
	assert.ErrorIs(t, err, ErrSessionExpired)

	// expired sessions never appear as active, swept or not
	active, err := sessions.GetActiveSessions(context.TODO(), postID)
	assert.NoError(t, err)
	assert.Empty(t, active)
}

func TestSessionService_CleanupExpired(t *testing.T) {
	posts, sessions := testSessionService(t, time.Millisecond)

	postID := newTestPost(t, posts, model.PostFields{Title: "t", Content: "c"})

	_, err := sessions.StartSession(context.TODO(), postID, "user-1")
	assert.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	removed, err := sessions.CleanupExpired(context.TODO())
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	// idempotent, a second sweep finds nothing new for this post
	session, err := sessions.StartSession(context.TODO(), postID, "user-1")
	assert.NoError(t, err)
	assert.NotEmpty(t, session.ID)
}
