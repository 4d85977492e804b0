package cache

import (
	"context"
	"time"

	"github.com/inkpost/inkpost/internal/model"
)

const latestVersionTTL = time.Hour

func latestVersionKey(postID string) string {
	return "post:latest:" + postID
}

// VersionCache keeps the latest version of a post warm for the editor's
// read-before-edit round trip.
type VersionCache struct {
	redis *Redis
}

func NewVersionCache(r *Redis) *VersionCache {
	return &VersionCache{redis: r}
}

func (c *VersionCache) GetLatest(ctx context.Context, postID string) (*model.PostVersion, error) {
	var version model.PostVersion
	ok, err := c.redis.Get(ctx, latestVersionKey(postID), &version)
	if err != nil || !ok {
		return nil, err
	}
	return &version, nil
}

func (c *VersionCache) SetLatest(ctx context.Context, version *model.PostVersion) error {
	return c.redis.Set(ctx, latestVersionKey(version.PostID), version, latestVersionTTL)
}

func (c *VersionCache) Invalidate(ctx context.Context, postID string) error {
	return c.redis.Del(ctx, latestVersionKey(postID))
}
