package cache

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const presenceTTL = 35 * time.Minute

func presenceKey(postID string) string {
	return "session:presence:" + postID
}

// SessionCache mirrors editor presence into redis so "who is editing" reads
// do not hit the database on every poll. The database rows stay authoritative;
// every write here is best effort.
type SessionCache struct {
	client *redis.Client
}

func NewSessionCache(r *Redis) *SessionCache {
	return &SessionCache{client: r.client}
}

// Touch records a heartbeat for a user on a post.
func (s *SessionCache) Touch(ctx context.Context, postID, userID string, now time.Time) error {
	key := presenceKey(postID)

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if err := p.HSet(ctx, key, userID, now.Format(time.RFC3339)).Err(); err != nil {
			return err
		}
		return p.Expire(ctx, key, presenceTTL).Err()
	})

	return err
}

// Editors returns the user ids seen editing a post since the cutoff.
func (s *SessionCache) Editors(ctx context.Context, postID string, cutoff time.Time) ([]string, error) {
	res := s.client.HGetAll(ctx, presenceKey(postID))
	if res.Err() != nil {
		return nil, res.Err()
	}

	editors := make([]string, 0, len(res.Val()))
	for userID, seen := range res.Val() {
		ts, err := time.Parse(time.RFC3339, seen)
		if err == nil && ts.Before(cutoff) {
			continue
		}
		editors = append(editors, userID)
	}

	return editors, nil
}

// Forget drops the presence entry for a post.
func (s *SessionCache) Forget(ctx context.Context, postID string) error {
	return s.client.Del(ctx, presenceKey(postID)).Err()
}
