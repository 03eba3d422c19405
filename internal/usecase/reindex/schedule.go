package reindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/osfio/osfsearch/internal/domain"
)

// Schedule starts running reindexes on a cron spec (five fields, e.g.
// "0 3 * * *"). Stop the returned cron to end the schedule; runs that fail
// are logged and retried at the next tick.
func (s *Service) Schedule(ctx context.Context, spec string, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		log.Info("Running scheduled reindex")
		if _, err := s.Run(ctx, Options{}); err != nil {
			if errors.Is(err, domain.ErrReindexRunning) {
				log.Info("Scheduled reindex skipped, another run in progress")
				return
			}
			log.Error("Scheduled reindex failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reindex schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
