package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inkpost/inkpost/internal/cache"
	"github.com/inkpost/inkpost/internal/markdown"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/store"
)

const excerptLength = 200

// NewPostService creates a new PostService.
func NewPostService(store store.Store, renderer *markdown.Renderer, versions *cache.VersionCache, presence *cache.SessionCache) *PostService {
	return &PostService{
		store:    store,
		renderer: renderer,
		versions: versions,
		presence: presence,
	}
}

// PostService manages post drafts and the preview rendering path. Versioning
// of the editable fields lives in VersionService; this service owns the post
// rows themselves.
type PostService struct {
	store    store.Store
	renderer *markdown.Renderer
	versions *cache.VersionCache
	presence *cache.SessionCache
}

// CreatePost creates a new draft. The excerpt is derived from the content
// when the author left it empty.
func (s *PostService) CreatePost(ctx context.Context, fields model.PostFields, authorID string) (*model.Post, error) {
	if fields.Excerpt == "" && fields.Content != "" {
		fields.Excerpt = markdown.Excerpt(fields.Content, excerptLength)
	}

	post := &model.Post{
		ID:       uuid.New().String(),
		AuthorID: authorID,
		Title:    fields.Title,
		Content:  fields.Content,
		Excerpt:  fields.Excerpt,
		Tags:     fields.TagsJSON(),
		Status:   model.PostStatusDraft,
	}

	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// GetPost retrieves a post.
func (s *PostService) GetPost(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if post.Deleted {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// ListPosts lists posts, optionally filtered by author, newest first.
func (s *PostService) ListPosts(ctx context.Context, authorID string) ([]*model.Post, int64, error) {
	return s.store.ListPosts(ctx, authorID)
}

// DeletePost soft-deletes a post. Versions are stamped and preserved for
// audit; sessions and pending queue items are dropped.
func (s *PostService) DeletePost(ctx context.Context, id uuid.UUID) error {
	if err := s.store.MarkPostDeleted(ctx, id); err != nil {
		return mapStoreErr(err)
	}

	if s.versions != nil {
		if err := s.versions.Invalidate(ctx, id.String()); err != nil {
			logrus.Warnf("version cache invalidation failed: %v", err)
		}
	}
	if s.presence != nil {
		if err := s.presence.Forget(ctx, id.String()); err != nil {
			logrus.Warnf("presence cleanup failed: %v", err)
		}
	}

	return nil
}

// Preview renders the post's working copy to HTML.
func (s *PostService) Preview(ctx context.Context, id uuid.UUID) (string, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return "", err
	}
	return s.renderer.Render(post.Content)
}

// Subscribe registers a notification recipient for publish events.
func (s *PostService) Subscribe(ctx context.Context, email string) (*model.Subscriber, error) {
	if email == "" {
		return nil, errors.New("email is required")
	}

	sub := &model.Subscriber{
		ID:    uuid.New().String(),
		Email: email,
	}

	if err := s.store.CreateSubscriber(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}
