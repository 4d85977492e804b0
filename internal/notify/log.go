package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

var _ Notifier = (*LogNotifier)(nil)

// LogNotifier is the fallback when no kafka brokers are configured.
type LogNotifier struct {
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (l *LogNotifier) PostPublished(ctx context.Context, event *PublishedEvent) error {
	logrus.Infof("post %s published as %s, %d subscribers to notify",
		event.PostID, event.Release, len(event.Subscribers))
	return nil
}
