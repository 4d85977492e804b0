package service

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inkpost/inkpost/internal/cache"
	"github.com/inkpost/inkpost/internal/model"
	"github.com/inkpost/inkpost/internal/store"
)

// DefaultSessionTTL is the edit-lock window; every heartbeat or join pushes
// lockExpiry to lastActivity + TTL.
const DefaultSessionTTL = 30 * time.Minute

// NewSessionService creates a new SessionService.
func NewSessionService(store store.Store, presence *cache.SessionCache, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		store:    store,
		presence: presence,
		ttl:      ttl,
	}
}

// SessionService tracks who is concurrently editing a post and owns the
// time-bounded edit lock. The data model permits several sessions per post;
// single-writer-lock semantics are enforced here by always funnelling
// StartSession into the already-active session when one exists.
type SessionService struct {
	store    store.Store
	presence *cache.SessionCache
	ttl      time.Duration
}

// StartSession opens a session for the user. When an unexpired session
// already governs the post, the user joins it instead of racing a second
// lock into existence.
func (s *SessionService) StartSession(ctx context.Context, postID uuid.UUID, userID string) (*model.CollaborativeSession, error) {
	var session *model.CollaborativeSession

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		// the locking read serializes concurrent starts on the same post,
		// otherwise two callers could both miss the active-session lookup
		// and insert two lock rows
		post, err := tx.GetPostForUpdate(ctx, postID)
		if err != nil {
			return mapStoreErr(err)
		}
		if post.Deleted {
			return ErrPostNotFound
		}

		now := time.Now().UTC()

		existing, err := tx.GetActiveSessionForPost(ctx, postID, now)
		if err == nil {
			session = existing
			return s.addParticipant(ctx, tx, session, userID, now)
		}
		if err != store.ErrSessionNotFound {
			return err
		}

		users := model.EncodeUserSet([]string{userID})
		session = &model.CollaborativeSession{
			ID:            uuid.New().String(),
			PostID:        postID.String(),
			Participants:  users,
			ActiveEditors: users,
			LastActivity:  now,
			LockExpiry:    now.Add(s.ttl),
		}
		return tx.CreateSession(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.touchPresence(ctx, session.PostID, userID)

	return session, nil
}

// JoinSession adds the user to an existing session and refreshes the lock.
func (s *SessionService) JoinSession(ctx context.Context, sessionID uuid.UUID, userID string) (*model.CollaborativeSession, error) {
	var session *model.CollaborativeSession

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		session, err = tx.GetSession(ctx, sessionID)
		if err != nil {
			return mapStoreErr(err)
		}

		now := time.Now().UTC()
		if session.Expired(now) {
			return ErrSessionExpired
		}

		return s.addParticipant(ctx, tx, session, userID, now)
	})
	if err != nil {
		return nil, err
	}

	s.touchPresence(ctx, session.PostID, userID)

	return session, nil
}

// Heartbeat refreshes the edit lock without changing membership. Editors call
// it every few minutes; a silent editor lets the session expire.
func (s *SessionService) Heartbeat(ctx context.Context, sessionID uuid.UUID, userID string) (*model.CollaborativeSession, error) {
	var session *model.CollaborativeSession

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		session, err = tx.GetSession(ctx, sessionID)
		if err != nil {
			return mapStoreErr(err)
		}

		now := time.Now().UTC()
		if session.Expired(now) {
			return ErrSessionExpired
		}

		session.LastActivity = now
		session.LockExpiry = now.Add(s.ttl)
		return tx.RefreshSessionLock(ctx, sessionID, session.LastActivity, session.LockExpiry)
	})
	if err != nil {
		return nil, err
	}

	s.touchPresence(ctx, session.PostID, userID)

	return session, nil
}

// GetActiveSessions returns the sessions whose lock has not expired. Expired
// rows never appear here, whether or not the cleanup sweep has run. When the
// presence mirror is configured its heartbeat view replaces the stored
// active-editor list, which only moves on joins and heartbeats.
func (s *SessionService) GetActiveSessions(ctx context.Context, postID uuid.UUID) ([]*model.CollaborativeSession, error) {
	now := time.Now().UTC()

	sessions, err := s.store.ListActiveSessions(ctx, postID, now)
	if err != nil {
		return nil, err
	}

	if s.presence != nil && len(sessions) > 0 {
		editors, err := s.presence.Editors(ctx, postID.String(), now.Add(-s.ttl))
		if err != nil {
			logrus.Warnf("session presence read failed: %v", err)
		} else if len(editors) > 0 {
			for _, session := range sessions {
				session.ActiveEditors = model.EncodeUserSet(editors)
			}
		}
	}

	return sessions, nil
}

// CleanupExpired batch-deletes lapsed sessions. Idempotent and safe to run
// from concurrent sweeps.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, time.Now().UTC())
}

// addParticipant folds the user into the membership sets through a
// compare-and-swap on the participants column. A lost swap means another join
// landed in between; the fold re-reads and runs again so no member is dropped.
func (s *SessionService) addParticipant(ctx context.Context, tx store.Store, session *model.CollaborativeSession, userID string, now time.Time) error {
	for {
		expected := session.Participants

		participants := mapset.NewSet(session.ParticipantList()...)
		editors := mapset.NewSet(session.ActiveEditorList()...)
		participants.Add(userID)
		editors.Add(userID)

		session.Participants = model.EncodeUserSet(participants.ToSlice())
		session.ActiveEditors = model.EncodeUserSet(editors.ToSlice())
		session.LastActivity = now
		session.LockExpiry = now.Add(s.ttl)

		swapped, err := tx.SwapSessionMembership(ctx, session, expected)
		if err != nil {
			return err
		}
		if swapped {
			return nil
		}

		fresh, err := tx.GetSession(ctx, uuid.MustParse(session.ID))
		if err != nil {
			return mapStoreErr(err)
		}
		*session = *fresh
	}
}

func (s *SessionService) touchPresence(ctx context.Context, postID, userID string) {
	if s.presence == nil {
		return
	}
	if err := s.presence.Touch(ctx, postID, userID, time.Now().UTC()); err != nil {
		logrus.Warnf("session presence write failed: %v", err)
	}
}
