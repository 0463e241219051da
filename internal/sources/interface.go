package sources

import (
	"context"

	"github.com/mavericks/crisis-monitor/internal/models"
)

// Source interface defines the contract for all content sources.
// Fetch returns a finite batch of candidate items for a query; a failed
// fetch returns an error but must never take down the monitor cycle —
// the caller logs it and moves on to the next source.
type Source interface {
	Name() string
	Fetch(ctx context.Context, query string, maxResults int) ([]models.CandidateItem, error)
	IsEnabled() bool
}
