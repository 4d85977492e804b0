package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inkpost/inkpost/internal/model"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreatePost(ctx context.Context, post *model.Post) error {
	return g.db.WithContext(ctx).Create(post).Error
}

func (g *GormStore) GetPost(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var post model.Post
	err := g.db.WithContext(ctx).Where("id = ?", id.String()).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPostForUpdate reads the post under SELECT ... FOR UPDATE so concurrent
// transactions on the same post serialize. sqlite has no FOR UPDATE syntax;
// its single-writer model gives the same exclusion.
func (g *GormStore) GetPostForUpdate(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	db := g.db.WithContext(ctx)
	if g.db.Dialector.Name() != "sqlite" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var post model.Post
	err := db.Where("id = ?", id.String()).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (g *GormStore) ListPosts(ctx context.Context, authorID string) ([]*model.Post, int64, error) {
	var posts []*model.Post
	q := g.db.WithContext(ctx).Model(&model.Post{}).Where("deleted = ?", false)
	if authorID != "" {
		q = q.Where("author_id = ?", authorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at desc").Find(&posts).Error
	return posts, total, err
}

func (g *GormStore) ListPublishedPosts(ctx context.Context) ([]*model.Post, error) {
	var posts []*model.Post
	err := g.db.WithContext(ctx).
		Where("status = ? AND deleted = ?", model.PostStatusPublished, false).
		Order("published_at desc").
		Find(&posts).Error
	return posts, err
}

func (g *GormStore) UpdatePost(ctx context.Context, post *model.Post) error {
	return g.db.WithContext(ctx).Save(post).Error
}

// MarkPostDeleted flags the post and every version row instead of removing
// them, the version log is preserved for audit.
func (g *GormStore) MarkPostDeleted(ctx context.Context, id uuid.UUID) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Post{}).Where("id = ?", id.String()).Update("deleted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPostNotFound
		}

		if err := tx.Model(&model.PostVersion{}).
			Where("post_id = ?", id.String()).
			Update("post_deleted", true).Error; err != nil {
			return err
		}

		if err := tx.Where("post_id = ?", id.String()).
			Delete(&model.CollaborativeSession{}).Error; err != nil {
			return err
		}

		return tx.Where("post_id = ? AND status = ?", id.String(), model.QueueStatusPending).
			Delete(&model.PublishingQueueItem{}).Error
	})
}

func (g *GormStore) CreateVersion(ctx context.Context, version *model.PostVersion) error {
	return g.db.WithContext(ctx).Create(version).Error
}

func (g *GormStore) GetVersion(ctx context.Context, id uuid.UUID) (*model.PostVersion, error) {
	var version model.PostVersion
	err := g.db.WithContext(ctx).Where("id = ?", id.String()).First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (g *GormStore) GetLatestVersion(ctx context.Context, postID uuid.UUID) (*model.PostVersion, error) {
	var version model.PostVersion
	err := g.db.WithContext(ctx).
		Where("post_id = ?", postID.String()).
		Order("version_number desc").
		First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (g *GormStore) ListVersions(ctx context.Context, postID uuid.UUID) ([]*model.PostVersion, error) {
	var versions []*model.PostVersion
	err := g.db.WithContext(ctx).
		Where("post_id = ?", postID.String()).
		Order("version_number desc").
		Find(&versions).Error
	return versions, err
}

// MarkVersionPublished keeps the single-live-version invariant: the clear and
// the set run in one transaction.
func (g *GormStore) MarkVersionPublished(ctx context.Context, postID, versionID uuid.UUID) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PostVersion{}).
			Where("post_id = ? AND is_published = ?", postID.String(), true).
			Update("is_published", false).Error; err != nil {
			return err
		}

		res := tx.Model(&model.PostVersion{}).
			Where("id = ? AND post_id = ?", versionID.String(), postID.String()).
			Update("is_published", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionNotFound
		}
		return nil
	})
}

func (g *GormStore) CreateSession(ctx context.Context, session *model.CollaborativeSession) error {
	return g.db.WithContext(ctx).Create(session).Error
}

func (g *GormStore) GetSession(ctx context.Context, id uuid.UUID) (*model.CollaborativeSession, error) {
	var session model.CollaborativeSession
	err := g.db.WithContext(ctx).Where("id = ?", id.String()).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (g *GormStore) GetActiveSessionForPost(ctx context.Context, postID uuid.UUID, now time.Time) (*model.CollaborativeSession, error) {
	var session model.CollaborativeSession
	err := g.db.WithContext(ctx).
		Where("post_id = ? AND lock_expiry > ?", postID.String(), now).
		Order("lock_expiry desc").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (g *GormStore) ListActiveSessions(ctx context.Context, postID uuid.UUID, now time.Time) ([]*model.CollaborativeSession, error) {
	var sessions []*model.CollaborativeSession
	err := g.db.WithContext(ctx).
		Where("post_id = ? AND lock_expiry > ?", postID.String(), now).
		Find(&sessions).Error
	return sessions, err
}

// RefreshSessionLock leaves the membership columns alone so a heartbeat can
// never clobber a join that committed after the heartbeat's read.
func (g *GormStore) RefreshSessionLock(ctx context.Context, id uuid.UUID, lastActivity, lockExpiry time.Time) error {
	res := g.db.WithContext(ctx).Model(&model.CollaborativeSession{}).
		Where("id = ?", id.String()).
		Updates(map[string]interface{}{
			"last_activity": lastActivity,
			"lock_expiry":   lockExpiry,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// SwapSessionMembership is the compare-and-swap behind the membership union:
// the update only lands while the participants column still holds the value
// the caller read, so an overlapping join re-reads instead of overwriting.
func (g *GormStore) SwapSessionMembership(ctx context.Context, session *model.CollaborativeSession, expectedParticipants string) (bool, error) {
	res := g.db.WithContext(ctx).Model(&model.CollaborativeSession{}).
		Where("id = ? AND participants = ?", session.ID, expectedParticipants).
		Updates(map[string]interface{}{
			"participants":   session.Participants,
			"active_editors": session.ActiveEditors,
			"last_activity":  session.LastActivity,
			"lock_expiry":    session.LockExpiry,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (g *GormStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := g.db.WithContext(ctx).
		Where("lock_expiry < ?", now).
		Delete(&model.CollaborativeSession{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		logrus.Infof("purged %d expired collaborative sessions", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

func (g *GormStore) CreateQueueItem(ctx context.Context, item *model.PublishingQueueItem) error {
	return g.db.WithContext(ctx).Create(item).Error
}

func (g *GormStore) GetQueueItem(ctx context.Context, id uuid.UUID) (*model.PublishingQueueItem, error) {
	var item model.PublishingQueueItem
	err := g.db.WithContext(ctx).Where("id = ?", id.String()).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQueueItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (g *GormStore) ListDueQueueItems(ctx context.Context, now time.Time) ([]*model.PublishingQueueItem, error) {
	var items []*model.PublishingQueueItem
	err := g.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", model.QueueStatusPending, now).
		Order("scheduled_for asc").
		Find(&items).Error
	return items, err
}

// ClaimQueueItem is the compare-and-swap the sweep relies on: the update only
// lands when the row still holds the expected status.
func (g *GormStore) ClaimQueueItem(ctx context.Context, id uuid.UUID, from, to model.QueueStatus) (bool, error) {
	res := g.db.WithContext(ctx).Model(&model.PublishingQueueItem{}).
		Where("id = ? AND status = ?", id.String(), from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (g *GormStore) UpdateQueueItem(ctx context.Context, item *model.PublishingQueueItem) error {
	return g.db.WithContext(ctx).Save(item).Error
}

func (g *GormStore) DeletePendingQueueItem(ctx context.Context, id uuid.UUID) (bool, error) {
	res := g.db.WithContext(ctx).
		Where("id = ? AND status = ?", id.String(), model.QueueStatusPending).
		Delete(&model.PublishingQueueItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (g *GormStore) CreateSubscriber(ctx context.Context, sub *model.Subscriber) error {
	return g.db.WithContext(ctx).Create(sub).Error
}

func (g *GormStore) ListSubscribers(ctx context.Context) ([]*model.Subscriber, error) {
	var subs []*model.Subscriber
	err := g.db.WithContext(ctx).Find(&subs).Error
	return subs, err
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
