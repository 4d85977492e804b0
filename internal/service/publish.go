package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/notify"
	"github.com/inkpost/inkpost/internal/store"
)

// NewPublishService creates a new PublishService.
func NewPublishService(store store.Store, notifier notify.Notifier, siteURL, sitemapPath string, maxAttempts int) *PublishService {
	if maxAttempts <= 0 {
		maxAttempts = model.DefaultMaxAttempts
	}
	return &PublishService{
		store:       store,
		notifier:    notifier,
		siteURL:     siteURL,
		sitemapPath: sitemapPath,
		maxAttempts: maxAttempts,
	}
}

// PublishService owns the publish workflow and the scheduled-publication
// queue. Side effects of a publish (share links, sitemap, subscriber
// notification) are partial-failure tolerant: they surface as warnings and
// never roll back the publish itself.
type PublishService struct {
	store       store.Store
	notifier    notify.Notifier
	siteURL     string
	sitemapPath string
	maxAttempts int
}

// PublishResult is returned by a successful publish alongside any side-effect
// warnings.
type PublishResult struct {
	Post       *model.Post       `json:"post"`
	Release    string            `json:"release"`
	ShareLinks map[string]string `json:"share_links,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// PublishNow validates and publishes a post immediately, bumping its release
// label and flipping the published pointer to the latest version.
func (s *PublishService) PublishNow(ctx context.Context, postID uuid.UUID, platforms []string) (*PublishResult, error) {
	var post *model.Post
	var release string

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		post, err = tx.GetPost(ctx, postID)
		if err != nil {
			return mapStoreErr(err)
		}
		if post.Deleted {
			return ErrPostNotFound
		}

		if post.Title == "" || post.Content == "" {
			return ErrIncompletePost
		}

		release, err = nextRelease(post.ReleaseVersion)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		post.Status = model.PostStatusPublished
		post.PublishedAt = &now
		post.ReleaseVersion = release

		if err := tx.UpdatePost(ctx, post); err != nil {
			return err
		}

		latest, err := tx.GetLatestVersion(ctx, postID)
		if errors.Is(err, store.ErrVersionNotFound) {
			// nothing snapshotted yet, the working copy alone goes live
			return nil
		}
		if err != nil {
			return err
		}

		latestID, err := uuid.Parse(latest.ID)
		if err != nil {
			return err
		}
		return tx.MarkVersionPublished(ctx, postID, latestID)
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("published post %s as release %s", post.ID, release)

	result := &PublishResult{
		Post:    post,
		Release: release,
	}

	s.runSideEffects(ctx, post, platforms, result)

	return result, nil
}

// SchedulePost enqueues a future publication. Past or present timestamps are
// rejected; the caller should publish immediately instead.
func (s *PublishService) SchedulePost(ctx context.Context, postID uuid.UUID, scheduledFor time.Time) (*model.PublishingQueueItem, error) {
	if !scheduledFor.After(time.Now().UTC()) {
		return nil, ErrInvalidSchedule
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if post.Deleted {
		return nil, ErrPostNotFound
	}

	item := &model.PublishingQueueItem{
		ID:           uuid.New().String(),
		PostID:       post.ID,
		ScheduledFor: scheduledFor.UTC(),
		Status:       model.QueueStatusPending,
		Attempts:     0,
		MaxAttempts:  s.maxAttempts,
	}

	if err := s.store.CreateQueueItem(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// CancelScheduledPost removes a queue item while it is still pending. An item
// that left the pending state, or that no longer exists, counts as already
// processed.
func (s *PublishService) CancelScheduledPost(ctx context.Context, queueID uuid.UUID) error {
	deleted, err := s.store.DeletePendingQueueItem(ctx, queueID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrAlreadyProcessed
	}
	return nil
}

// GetQueueItem retrieves one queue item.
func (s *PublishService) GetQueueItem(ctx context.Context, queueID uuid.UUID) (*model.PublishingQueueItem, error) {
	item, err := s.store.GetQueueItem(ctx, queueID)
	if errors.Is(err, store.ErrQueueItemNotFound) {
		return nil, ErrQueueItemNotFound
	}
	return item, err
}

// ProcessScheduledPosts is the periodic sweep: it claims each due pending
// item with a conditional pending -> processing update so a concurrent sweep
// cannot process it twice, then runs the immediate-publish workflow.
func (s *PublishService) ProcessScheduledPosts(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	due, err := s.store.ListDueQueueItems(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	published := 0
	for _, item := range due {
		itemID, err := uuid.Parse(item.ID)
		if err != nil {
			logrus.Errorf("queue item %s has a malformed id: %v", item.ID, err)
			continue
		}

		claimed, err := s.store.ClaimQueueItem(ctx, itemID, model.QueueStatusPending, model.QueueStatusProcessing)
		if err != nil {
			logrus.Errorf("failed to claim queue item %s: %v", item.ID, err)
			continue
		}
		if !claimed {
			// another sweep won the item
			continue
		}
		item.Status = model.QueueStatusProcessing

		postID, err := uuid.Parse(item.PostID)
		if err != nil {
			s.finishItem(ctx, item, model.QueueStatusFailed, fmt.Errorf("malformed post id: %v", err))
			continue
		}

		if _, err := s.PublishNow(ctx, postID, nil); err != nil {
			s.handlePublishFailure(ctx, item, err)
			continue
		}

		s.finishItem(ctx, item, model.QueueStatusCompleted, nil)
		published++
	}

	return published, nil
}

// handlePublishFailure decides between retry and terminal failure. Validation
// errors are never retried; transient storage failures requeue the item until
// its attempt budget is spent.
func (s *PublishService) handlePublishFailure(ctx context.Context, item *model.PublishingQueueItem, cause error) {
	if errors.Is(cause, ErrIncompletePost) || errors.Is(cause, ErrPostNotFound) {
		s.finishItem(ctx, item, model.QueueStatusFailed, cause)
		return
	}

	item.Attempts++
	if item.Attempts < item.MaxAttempts {
		logrus.Warnf("publish attempt %d/%d for post %s failed: %v",
			item.Attempts, item.MaxAttempts, item.PostID, cause)
		item.Status = model.QueueStatusPending
		item.LastError = cause.Error()
		if err := s.store.UpdateQueueItem(ctx, item); err != nil {
			logrus.Errorf("failed to requeue item %s: %v", item.ID, err)
		}
		return
	}

	s.finishItem(ctx, item, model.QueueStatusFailed, cause)
}

func (s *PublishService) finishItem(ctx context.Context, item *model.PublishingQueueItem, status model.QueueStatus, cause error) {
	item.Status = status
	if cause != nil {
		item.LastError = cause.Error()
	}
	if err := s.store.UpdateQueueItem(ctx, item); err != nil {
		logrus.Errorf("failed to update queue item %s: %v", item.ID, err)
		return
	}
	// terminal failures need an operator; no sweep picks them up again
	if item.Terminal() && cause != nil {
		logrus.Errorf("queue item %s for post %s marked %s: %v", item.ID, item.PostID, status, cause)
	}
}

func (s *PublishService) runSideEffects(ctx context.Context, post *model.Post, platforms []string, result *PublishResult) {
	if len(platforms) > 0 {
		result.ShareLinks = make(map[string]string, len(platforms))
		for _, platform := range platforms {
			link, err := ShareLink(platform, post.Title, s.postURL(post.ID))
			if err != nil {
				result.Warnings = append(result.Warnings, err.Error())
				continue
			}
			result.ShareLinks[platform] = link
		}
	}

	if err := s.regenerateSitemap(ctx); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("sitemap regeneration failed: %v", err))
	}

	if err := s.notifySubscribers(ctx, post); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("subscriber notification failed: %v", err))
	}
}

func (s *PublishService) notifySubscribers(ctx context.Context, post *model.Post) error {
	if s.notifier == nil {
		return nil
	}

	subs, err := s.store.ListSubscribers(ctx)
	if err != nil {
		return err
	}

	emails := make([]string, 0, len(subs))
	for _, sub := range subs {
		emails = append(emails, sub.Email)
	}

	return s.notifier.PostPublished(ctx, &notify.PublishedEvent{
		PostID:      post.ID,
		Title:       post.Title,
		Release:     post.ReleaseVersion,
		URL:         s.postURL(post.ID),
		PublishedAt: *post.PublishedAt,
		Subscribers: emails,
	})
}

func (s *PublishService) postURL(postID string) string {
	return s.siteURL + "/posts/" + postID
}

// nextRelease bumps the semantic release label, starting at 0.0.1 for the
// first publish.
func nextRelease(current string) (string, error) {
	if current == "" {
		return "0.0.1", nil
	}

	version, err := semver.NewVersion(current)
	if err != nil {
		return "", err
	}

	next := version.IncPatch()
	return next.String(), nil
}
