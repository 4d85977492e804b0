package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inkpost/inkpost/internal/cache"
	"github.com/inkpost/inkpost/internal/compress"
	"github.com/inkpost/inkpost/internal/diff"
	"github.com/inkpost/inkpost/internal/merge"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/store"
)

// NewVersionService creates a new VersionService.
func NewVersionService(codec compress.Compress, store store.Store, versions *cache.VersionCache) *VersionService {
	return &VersionService{
		codec: codec,
		store: store,
		cache: versions,
	}
}

// VersionService is the append-only version store: it snapshots post fields,
// derives change lists, and serves history, rollback, diff and merge.
type VersionService struct {
	codec compress.Compress
	store store.Store
	cache *cache.VersionCache
}

// CreateVersion snapshots the given fields as the next version of the post.
// It rejects no-op edits with ErrNoChange and validates that parentID, when
// set, references a version of the same post.
func (s *VersionService) CreateVersion(ctx context.Context, postID uuid.UUID, fields model.PostFields, authorID string, parentID *uuid.UUID) (*model.PostVersion, error) {
	return s.appendVersion(ctx, postID, fields, authorID, parentID, nil, true)
}

// GetLatestVersion returns the highest-numbered version of a post, or nil
// when the post has no versions yet.
func (s *VersionService) GetLatestVersion(ctx context.Context, postID uuid.UUID) (*model.PostVersion, error) {
	if s.cache != nil {
		cached, err := s.cache.GetLatest(ctx, postID.String())
		if err != nil {
			logrus.Warnf("version cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	latest, err := s.latest(ctx, s.store, postID)
	if err != nil || latest == nil {
		return nil, err
	}

	s.cacheLatest(ctx, latest)
	return latest, nil
}

// GetVersionHistory returns the full history of a post, newest first.
func (s *VersionService) GetVersionHistory(ctx context.Context, postID uuid.UUID) ([]*model.PostVersion, error) {
	versions, err := s.store.ListVersions(ctx, postID)
	if err != nil {
		return nil, err
	}

	out := make([]*model.PostVersion, 0, len(versions))
	for _, v := range versions {
		decoded, err := s.decode(v)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}

	return out, nil
}

// RollbackToVersion creates a new version whose fields equal the target's,
// with a synthetic rollback change referencing the target's version number.
func (s *VersionService) RollbackToVersion(ctx context.Context, postID, versionID uuid.UUID, authorID string) (*model.PostVersion, error) {
	target, err := s.version(ctx, s.store, postID, versionID)
	if err != nil {
		return nil, err
	}

	rollback := []model.Change{{
		Type:      model.ChangeTypeUpdate,
		Field:     "rollback",
		NewValue:  strconv.FormatInt(target.VersionNumber, 10),
		Timestamp: time.Now().UTC(),
		AuthorID:  authorID,
	}}

	return s.appendVersion(ctx, postID, target.Fields(), authorID, nil, rollback, false)
}

// VersionDiff is the derived comparison between two versions.
type VersionDiff struct {
	*diff.Result
	ContentDiff []diff.LineChange `json:"content_diff,omitempty"`
}

// DiffVersions compares two stored versions of the same post. A modified
// content field additionally carries a line-level diff for UI display.
func (s *VersionService) DiffVersions(ctx context.Context, postID, fromID, toID uuid.UUID) (*VersionDiff, error) {
	from, err := s.version(ctx, s.store, postID, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.version(ctx, s.store, postID, toID)
	if err != nil {
		return nil, err
	}

	result := diff.Versions(from, to)

	out := &VersionDiff{Result: result}
	for _, f := range result.Modified {
		if f == diff.FieldContent {
			out.ContentDiff = diff.ContentLines(from.Content, to.Content)
		}
	}

	return out, nil
}

// MergeVersions merges uncommitted local fields with the latest persisted
// version on top of their common ancestor. With the manual strategy and
// conflicts present, the conflicts are returned for the caller to resolve and
// no version is committed.
func (s *VersionService) MergeVersions(ctx context.Context, postID, baseID uuid.UUID, local model.PostFields, authorID string, strategy merge.Strategy) (*model.PostVersion, []merge.Conflict, error) {
	base, err := s.version(ctx, s.store, postID, baseID)
	if err != nil {
		return nil, nil, err
	}

	remote, err := s.latest(ctx, s.store, postID)
	if err != nil {
		return nil, nil, err
	}
	if remote == nil {
		return nil, nil, ErrVersionNotFound
	}

	reachable, err := s.ancestorOf(ctx, base, remote)
	if err != nil {
		return nil, nil, err
	}
	if !reachable {
		return nil, nil, ErrNoCommonAncestor
	}

	merged, conflicts, err := merge.Merge(base.Fields(), local, remote.Fields(), strategy)
	if err != nil {
		return nil, nil, err
	}
	if merged == nil {
		return nil, conflicts, nil
	}

	// fold each resolved conflict into the committed change list
	extra := make([]model.Change, 0, len(conflicts))
	now := time.Now().UTC()
	for _, c := range conflicts {
		losing, winning := c.RemoteValue, c.LocalValue
		if c.Resolution == merge.StrategyRemote {
			losing, winning = winning, losing
		}
		extra = append(extra, model.Change{
			Type:      model.ChangeTypeUpdate,
			Field:     "conflict:" + string(c.Field),
			OldValue:  losing,
			NewValue:  winning,
			Timestamp: now,
			AuthorID:  authorID,
		})
	}

	version, err := s.appendVersion(ctx, postID, *merged, authorID, nil, extra, false)
	if errors.Is(err, ErrNoChange) {
		// both sides converged on identical content
		version, err = s.GetLatestVersion(ctx, postID)
	}
	if err != nil {
		return nil, nil, err
	}

	return version, conflicts, nil
}

// appendVersion is the single write path for new snapshots. rejectNoChange
// only applies to plain edits; rollbacks and merges always commit.
func (s *VersionService) appendVersion(ctx context.Context, postID uuid.UUID, fields model.PostFields, authorID string, parentID *uuid.UUID, extraChanges []model.Change, rejectNoChange bool) (*model.PostVersion, error) {
	var version *model.PostVersion

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		post, err := tx.GetPost(ctx, postID)
		if err != nil {
			return mapStoreErr(err)
		}
		if post.Deleted {
			return ErrPostNotFound
		}

		latest, err := s.latest(ctx, tx, postID)
		if err != nil {
			return err
		}

		if latest != nil && diff.Fields(latest.Fields(), fields).Empty() {
			if rejectNoChange || len(extraChanges) == 0 {
				return ErrNoChange
			}
		}

		parent := latest
		if parentID != nil {
			parent, err = s.version(ctx, tx, postID, *parentID)
			if err != nil {
				return err
			}
		}

		var number int64 = 1
		if latest != nil {
			number = latest.VersionNumber + 1
		}

		version = &model.PostVersion{
			ID:            uuid.New().String(),
			PostID:        post.ID,
			VersionNumber: number,
			Title:         fields.Title,
			Content:       fields.Content,
			Excerpt:       fields.Excerpt,
			Tags:          fields.TagsJSON(),
			AuthorID:      authorID,
		}
		if parent != nil {
			pid := parent.ID
			version.ParentVersionID = &pid
		}

		changes := diff.Changes(parent, fields, authorID, time.Now().UTC())
		changes = append(changes, extraChanges...)
		if err := version.SetChangeList(changes); err != nil {
			return err
		}

		if err := s.encode(version); err != nil {
			return err
		}

		if err := tx.CreateVersion(ctx, version); err != nil {
			return err
		}

		// keep the working copy in sync with the accepted edit
		post.Title = fields.Title
		post.Content = fields.Content
		post.Excerpt = fields.Excerpt
		post.Tags = fields.TagsJSON()
		return tx.UpdatePost(ctx, post)
	})
	if err != nil {
		return nil, err
	}

	decoded, err := s.decode(version)
	if err != nil {
		return nil, err
	}

	s.cacheLatest(ctx, decoded)

	return decoded, nil
}

// ancestorOf walks remote's parent chain looking for base.
func (s *VersionService) ancestorOf(ctx context.Context, base, remote *model.PostVersion) (bool, error) {
	if base.ID == remote.ID {
		return true, nil
	}

	current := remote
	for current.ParentVersionID != nil {
		parentID, err := uuid.Parse(*current.ParentVersionID)
		if err != nil {
			return false, err
		}

		parent, err := s.store.GetVersion(ctx, parentID)
		if err != nil {
			if errors.Is(err, store.ErrVersionNotFound) {
				return false, nil
			}
			return false, err
		}

		if parent.ID == base.ID {
			return true, nil
		}
		current = parent
	}

	return false, nil
}

// latest fetches and decodes the newest version, mapping "no versions yet" to
// a nil result.
func (s *VersionService) latest(ctx context.Context, tx store.Store, postID uuid.UUID) (*model.PostVersion, error) {
	latest, err := tx.GetLatestVersion(ctx, postID)
	if errors.Is(err, store.ErrVersionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.decode(latest)
}

// version fetches a version and checks it belongs to the post.
func (s *VersionService) version(ctx context.Context, tx store.Store, postID, versionID uuid.UUID) (*model.PostVersion, error) {
	version, err := tx.GetVersion(ctx, versionID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if version.PostID != postID.String() {
		return nil, ErrVersionNotFound
	}
	return s.decode(version)
}

func (s *VersionService) encode(version *model.PostVersion) error {
	data, err := s.codec.Encode([]byte(version.Content))
	if err != nil {
		return err
	}
	version.Content = string(data)
	version.Compression = s.codec.Name()
	return nil
}

func (s *VersionService) decode(version *model.PostVersion) (*model.PostVersion, error) {
	out := *version
	codec := compress.ForName(version.Compression)
	data, err := codec.Decode([]byte(version.Content))
	if err != nil {
		return nil, err
	}
	out.Content = string(data)
	return &out, nil
}

func (s *VersionService) cacheLatest(ctx context.Context, version *model.PostVersion) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetLatest(ctx, version); err != nil {
		logrus.Warnf("version cache write failed: %v", err)
	}
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrPostNotFound):
		return ErrPostNotFound
	case errors.Is(err, store.ErrVersionNotFound):
		return ErrVersionNotFound
	case errors.Is(err, store.ErrSessionNotFound):
		return ErrSessionNotFound
	default:
		return err
	}
}
