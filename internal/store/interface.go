package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mavericks/crisis-monitor/internal/models"
)

// DefaultListLimit caps List reads when the caller passes no limit.
const DefaultListLimit = 50

// AlertStore is the single source of truth for the current session's
// alerts. Append assigns ids sequentially from 1 within a session;
// Clear and ResetSession wipe the store and zero the counter. All
// operations serialize on one internal lock, so no reader observes a
// partially written alert and no two appends share an id.
type AlertStore interface {
	// Append assigns the next id, stamps CreatedAt, and commits the alert.
	Append(ctx context.Context, alert models.Alert) (int64, error)

	// List returns a most-recent-first snapshot, at most limit alerts.
	// A zero since means no time filter.
	List(ctx context.Context, limit int, since time.Time) ([]models.Alert, error)

	Count(ctx context.Context) (int, error)

	// Clear empties the store, resets the id counter, and returns the
	// number of alerts removed.
	Clear(ctx context.Context) (int, error)

	// ResetSession atomically clears the store and records the new
	// active configuration.
	ResetSession(ctx context.Context, cfg models.MonitorConfig) error

	ActiveConfig() models.MonitorConfig

	// Sweep removes alerts older than the horizon. Maintenance only;
	// it does not touch the id counter.
	Sweep(ctx context.Context, olderThan time.Duration) (int, error)

	Close() error
}

// RenderTimeAgo renders a coarse relative age for UI callers.
func RenderTimeAgo(createdAt, now time.Time) string {
	delta := now.Sub(createdAt)
	switch {
	case delta < time.Minute:
		return "just now"
	case delta < time.Hour:
		return plural(int(delta.Minutes()), "min")
	default:
		return plural(int(delta.Hours()), "hour")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
