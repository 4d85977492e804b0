package jobs

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/inkpost/inkpost/internal/service"
)

// PublishSweep promotes due queue items to published. Safe to run from
// several processes at once, the queue claim is a conditional write.
type PublishSweep struct {
	publish  *service.PublishService
	schedule string
}

func NewPublishSweep(publish *service.PublishService, schedule string) *PublishSweep {
	return &PublishSweep{
		publish:  publish,
		schedule: schedule,
	}
}

func (p *PublishSweep) Name() string {
	return "publish_sweep"
}

func (p *PublishSweep) Schedule() string {
	return p.schedule
}

func (p *PublishSweep) Run() {
	published, err := p.publish.ProcessScheduledPosts(context.Background())
	if err != nil {
		logrus.Errorf("publish sweep failed: %v", err)
		return
	}
	if published > 0 {
		logrus.Infof("publish sweep promoted %d posts", published)
	}
}
