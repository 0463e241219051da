package monitor

import (
	"math"
	"strings"
	"time"

	"github.com/mavericks/crisis-monitor/internal/models"
)

// NegativeThreshold is the compound score below which an item becomes an
// alert. Fixed for now; making it per-session is the obvious extension.
const NegativeThreshold = -0.3

const (
	topicMaxLen        = 120
	triggerEventMaxLen = 1000
)

// Synthesize turns a scored candidate item into an alert, or nil when
// the score does not cross the negative threshold. Pure: it never
// touches the store, so the threshold and normalization rules are
// testable in isolation.
func Synthesize(item models.CandidateItem, score float64, cfg models.MonitorConfig, now time.Time) *models.Alert {
	if score >= NegativeThreshold {
		return nil
	}

	publishedAt := item.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = now
	}

	topicSource := item.Title
	if strings.TrimSpace(topicSource) == "" {
		topicSource = item.Text
	}

	language := item.Language
	if language == "" {
		language = "en"
	}

	return &models.Alert{
		Client:       cfg.Client,
		RiskScore:    riskScore(score),
		Region:       item.Region,
		Language:     language,
		Topic:        truncateRunes(topicSource, topicMaxLen),
		TriggerEvent: truncateRunes(item.Text, triggerEventMaxLen),
		TimeElapsed:  publishedAt.UTC().Format(time.RFC3339),
		Sentiment:    score,
		Keywords:     append([]string(nil), cfg.Keywords...),
		Sources:      []models.SourceTag{{Type: item.Region, Count: 1}},
		Link:         item.Permalink,
		CreatedAt:    now.UTC(),
	}
}

// riskScore maps sentiment magnitude to a 0-100 severity.
func riskScore(score float64) int {
	magnitude := math.Abs(score)
	if magnitude > 1.0 {
		magnitude = 1.0
	}
	return int(math.Round(magnitude * 100))
}

// truncateRunes cuts at a code-point boundary, never mid-character.
func truncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
