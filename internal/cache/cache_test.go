package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/tester"
)

// The cache suite runs against real containers; set INTEGRATION=1 to enable.
func integrationRedis(t *testing.T) *Redis {
	t.Helper()

	if os.Getenv("INTEGRATION") == "" {
		t.Skip("set INTEGRATION=1 to run the docker-backed cache tests")
	}

	env, purge, err := tester.SetupDocker()
	assert.NoError(t, err)
	t.Cleanup(purge)

	return NewRedis(env.RedisAddr, "")
}

func TestVersionCache_LatestRoundTrip(t *testing.T) {
	versions := NewVersionCache(integrationRedis(t))

	postID := uuid.New().String()

	miss, err := versions.GetLatest(context.TODO(), postID)
	assert.NoError(t, err)
	assert.Nil(t, miss)

	version := &model.PostVersion{
		ID:            uuid.New().String(),
		PostID:        postID,
		VersionNumber: 3,
		Title:         "cached",
	}
	assert.NoError(t, versions.SetLatest(context.TODO(), version))

	hit, err := versions.GetLatest(context.TODO(), postID)
	assert.NoError(t, err)
	assert.Equal(t, version.ID, hit.ID)
	assert.Equal(t, int64(3), hit.VersionNumber)

	assert.NoError(t, versions.Invalidate(context.TODO(), postID))

	gone, err := versions.GetLatest(context.TODO(), postID)
	assert.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSessionCache_Presence(t *testing.T) {
	presence := NewSessionCache(integrationRedis(t))

	postID := uuid.New().String()
	now := time.Now().UTC()

	assert.NoError(t, presence.Touch(context.TODO(), postID, "user-1", now))
	assert.NoError(t, presence.Touch(context.TODO(), postID, "user-2", now))
	assert.NoError(t, presence.Touch(context.TODO(), postID, "user-stale", now.Add(-time.Hour)))

	editors, err := presence.Editors(context.TODO(), postID, now.Add(-time.Minute))
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, editors)

	assert.NoError(t, presence.Forget(context.TODO(), postID))

	editors, err = presence.Editors(context.TODO(), postID, now.Add(-time.Minute))
	assert.NoError(t, err)
	assert.Empty(t, editors)
}
