package jobs

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/inkpost/inkpost/internal/service"
)

// SessionCleanup purges collaborative sessions whose edit lock lapsed.
type SessionCleanup struct {
	sessions *service.SessionService
	schedule string
}

func NewSessionCleanup(sessions *service.SessionService, schedule string) *SessionCleanup {
	return &SessionCleanup{
		sessions: sessions,
		schedule: schedule,
	}
}

func (s *SessionCleanup) Name() string {
	return "session_cleanup"
}

func (s *SessionCleanup) Schedule() string {
	return s.schedule
}

func (s *SessionCleanup) Run() {
	if _, err := s.sessions.CleanupExpired(context.Background()); err != nil {
		logrus.Errorf("session cleanup failed: %v", err)
	}
}
