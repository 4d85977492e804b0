package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inkpost/inkpost/internal/config"
	"github.com/inkpost/inkpost/internal/notify"
	"github.com/inkpost/inkpost/internal/service"
	"github.com/inkpost/inkpost/internal/store"
)

// sweepCmd runs the scheduled-publish and session-cleanup sweeps once and
// exits, for cron driven deployments without a long running server.
func sweepCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "sweep",
		Short: "run the publish and session sweeps once",
		Run: func(cmd *cobra.Command, args []string) {
			cnf := config.LoadConfig()
			postStore := store.NewGormStore(config.GetDb(cnf))

			publish := service.NewPublishService(postStore, notify.NewLogNotifier(), cnf.SiteURL, cnf.SitemapPath, cnf.QueueMaxRetries)
			sessions := service.NewSessionService(postStore, nil, cnf.SessionTTL)

			ctx := context.Background()

			published, err := publish.ProcessScheduledPosts(ctx)
			if err != nil {
				logrus.Errorf("publish sweep failed: %v", err)
			} else {
				logrus.Infof("publish sweep promoted %d posts", published)
			}

			cleaned, err := sessions.CleanupExpired(ctx)
			if err != nil {
				logrus.Errorf("session cleanup failed: %v", err)
			} else {
				logrus.Infof("session cleanup removed %d sessions", cleaned)
			}
		},
	}

	return command
}
