package store

import (
	"context"
	"sync"
	"time"

	"github.com/mavericks/crisis-monitor/internal/models"
)

// MemoryStore keeps the session's alerts in process memory. The slice,
// the id counter, and the active config are guarded by one mutex.
type MemoryStore struct {
	mu     sync.Mutex
	alerts []models.Alert
	nextID int64
	cfg    models.MonitorConfig
}

var _ AlertStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory alert store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, alert models.Alert) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	alert.ID = s.nextID
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	s.alerts = append(s.alerts, alert)

	return alert.ID, nil
}

func (s *MemoryStore) List(ctx context.Context, limit int, since time.Time) ([]models.Alert, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	out := make([]models.Alert, 0, limit)
	for i := len(s.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		alert := s.alerts[i]
		if !since.IsZero() && alert.CreatedAt.Before(since) {
			continue
		}
		alert.TimeAgo = RenderTimeAgo(alert.CreatedAt, now)
		alert.Keywords = append([]string(nil), alert.Keywords...)
		alert.Sources = append([]models.SourceTag(nil), alert.Sources...)
		out = append(out, alert)
	}

	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts), nil
}

func (s *MemoryStore) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.alerts)
	s.alerts = nil
	s.nextID = 0

	return removed, nil
}

func (s *MemoryStore) ResetSession(ctx context.Context, cfg models.MonitorConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = nil
	s.nextID = 0
	s.cfg = cfg

	return nil
}

func (s *MemoryStore) ActiveConfig() models.MonitorConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *MemoryStore) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.alerts[:0]
	removed := 0
	for _, alert := range s.alerts {
		if alert.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, alert)
	}
	s.alerts = kept

	return removed, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
