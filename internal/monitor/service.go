package monitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mavericks/crisis-monitor/internal/models"
	"github.com/mavericks/crisis-monitor/internal/sentiment"
	"github.com/mavericks/crisis-monitor/internal/sources"
	"github.com/mavericks/crisis-monitor/internal/store"
)

const cycleTimeout = 5 * time.Minute

// Notifier receives committed alerts. Delivery is best effort; failures
// are logged and never affect the cycle.
type Notifier interface {
	NotifyAlert(alert models.Alert) error
}

// Service owns the monitor loop lifecycle: Idle until Start, Running
// until Stop. Starting while running swaps the configuration; the cycle
// already in flight finishes under the config it read at cycle start and
// the new config applies from the next cycle boundary.
type Service struct {
	store        store.AlertStore
	sources      []sources.Source
	scorer       *sentiment.Adapter
	notifier     Notifier
	defaultQuery string
	maxResults   int

	mu      sync.Mutex
	running bool
	cfg     models.MonitorConfig
	stopCh  chan struct{}
}

// NewService creates a monitor service. notifier may be nil.
func NewService(alertStore store.AlertStore, srcs []sources.Source, scorer *sentiment.Adapter, notifier Notifier, defaultQuery string, maxResults int) *Service {
	if defaultQuery == "" {
		defaultQuery = "breaking"
	}
	if maxResults <= 0 {
		maxResults = 50
	}
	return &Service{
		store:        alertStore,
		sources:      srcs,
		scorer:       scorer,
		notifier:     notifier,
		defaultQuery: defaultQuery,
		maxResults:   maxResults,
	}
}

// Start resets the store session for cfg and ensures the loop is
// running. Re-arming a running monitor is idempotent apart from the
// session reset.
func (s *Service) Start(ctx context.Context, cfg models.MonitorConfig) error {
	cfg = cfg.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ResetSession(ctx, cfg); err != nil {
		return err
	}
	s.cfg = cfg

	if !s.running {
		s.running = true
		s.stopCh = make(chan struct{})
		go s.runLoop(s.stopCh)
		logrus.Infof("Monitor started for client %q with keywords %v (interval %ds)",
			cfg.Client, cfg.Keywords, cfg.IntervalSeconds)
	} else {
		logrus.Infof("Monitor reconfigured for client %q; new config applies next cycle", cfg.Client)
	}

	return nil
}

// Stop transitions Running -> Idle. Cooperative: an in-flight cycle
// completes, no further cycles are scheduled.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
	logrus.Info("Monitor stopping; in-flight cycle will complete")
}

// IsRunning reports the loop state.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) currentConfig() models.MonitorConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// runLoop cycles until stopCh closes. Nothing escaping a cycle may kill
// the loop; after any outcome it sleeps the configured interval.
func (s *Service) runLoop(stopCh chan struct{}) {
	cycle := 0
	for {
		cycle++
		cfg := s.currentConfig()
		s.runCycle(cycle, cfg)

		select {
		case <-stopCh:
			logrus.Info("Monitor loop stopped")
			return
		case <-time.After(cfg.Interval()):
		}
	}
}

func (s *Service) runCycle(cycle int, cfg models.MonitorConfig) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[Cycle %d] Recovered from panic: %v", cycle, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	query := strings.Join(cfg.Keywords, " ")
	if strings.TrimSpace(query) == "" {
		query = s.defaultQuery
	}

	var wg sync.WaitGroup
	itemsChan := make(chan []models.CandidateItem, len(s.sources))

	for _, src := range s.sources {
		if !src.IsEnabled() {
			continue
		}
		wg.Add(1)
		go func(src sources.Source) {
			defer wg.Done()

			items, err := src.Fetch(ctx, query, s.maxResults)
			if err != nil {
				logrus.Errorf("[Cycle %d] %s fetch failed: %v", cycle, src.Name(), err)
				return
			}
			logrus.Debugf("[Cycle %d] %s returned %d items", cycle, src.Name(), len(items))
			itemsChan <- items
		}(src)
	}

	go func() {
		wg.Wait()
		close(itemsChan)
	}()

	created := 0
	for items := range itemsChan {
		for _, item := range items {
			if strings.TrimSpace(item.Text) == "" {
				continue
			}

			score := s.scorer.Score(ctx, item.Text)

			alert := Synthesize(item, score, cfg, time.Now().UTC())
			if alert == nil {
				continue
			}

			id, err := s.store.Append(ctx, *alert)
			if err != nil {
				logrus.Errorf("[Cycle %d] Failed to store alert: %v", cycle, err)
				continue
			}
			alert.ID = id
			created++

			if s.notifier != nil {
				if err := s.notifier.NotifyAlert(*alert); err != nil {
					logrus.Warnf("[Cycle %d] Notification for alert %d failed: %v", cycle, id, err)
				}
			}
		}
	}

	total, _ := s.store.Count(ctx)
	logrus.Infof("[Cycle %d] Created %d alerts | Total stored: %d", cycle, created, total)
}
