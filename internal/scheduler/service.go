package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mavericks/crisis-monitor/internal/store"
)

// Service runs store maintenance on a fixed schedule, currently just the
// retention sweep. The monitor loop itself is interval-driven and owned
// by the monitor package; cron only covers static housekeeping.
type Service struct {
	store     store.AlertStore
	retention time.Duration
	cron      *cron.Cron
}

// NewService creates a maintenance scheduler for the given store.
func NewService(alertStore store.AlertStore, retentionHours int) *Service {
	return &Service{
		store:     alertStore,
		retention: time.Duration(retentionHours) * time.Hour,
		cron:      cron.New(),
	}
}

// Start begins the hourly retention sweep.
func (s *Service) Start() error {
	_, err := s.cron.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed, err := s.store.Sweep(ctx, s.retention)
		if err != nil {
			logrus.Errorf("Retention sweep failed: %v", err)
			return
		}
		if removed > 0 {
			logrus.Infof("Retention sweep removed %d alerts older than %s", removed, s.retention)
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Maintenance scheduler started (retention %s)", s.retention)
	return nil
}

// Stop stops the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Maintenance scheduler stopped")
	}
}
