package models

import "time"

// SourceKind identifies which kind of platform produced a candidate item.
type SourceKind string

const (
	SourceSocialPost  SourceKind = "social_post"
	SourceNewsArticle SourceKind = "news_article"
)

// CandidateItem is a normalized piece of content produced by a source
// fetcher, before sentiment scoring. Items with empty text are dropped
// by the fetchers and never reach the scorer.
type CandidateItem struct {
	Text        string
	Title       string
	Kind        SourceKind
	Region      string // "Twitter", "Reddit", "Global", ...
	ExternalID  string
	Permalink   string
	PublishedAt time.Time
	Language    string
}

// SourceTag attributes an alert to the platform it came from.
type SourceTag struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Alert is the persisted record created when an item's sentiment falls
// below the negative threshold. Immutable once committed; the ID is
// assigned by the store at commit time.
type Alert struct {
	ID           int64       `json:"id"`
	Client       string      `json:"client"`
	RiskScore    int         `json:"riskScore"`
	Region       string      `json:"region"`
	Language     string      `json:"language"`
	Topic        string      `json:"topic"`
	TriggerEvent string      `json:"triggerEvent"`
	TimeElapsed  string      `json:"timeElapsed"` // RFC3339 publish/commit time
	TimeAgo      string      `json:"timeAgo,omitempty"`
	Sentiment    float64     `json:"sentiment"`
	Keywords     []string    `json:"keywords"`
	Sources      []SourceTag `json:"sources"`
	Link         string      `json:"link"`
	CreatedAt    time.Time   `json:"created_at"`
}

// MonitorConfig describes one monitoring session. Exactly one session is
// active at a time; starting a new one supersedes the previous session.
type MonitorConfig struct {
	Keywords        []string `json:"keywords"`
	Client          string   `json:"client"`
	IntervalSeconds int      `json:"interval_seconds"`
}

const (
	DefaultClient          = "AutoMonitor"
	DefaultIntervalSeconds = 300
)

// Normalize fills defaults for omitted optional fields.
func (c MonitorConfig) Normalize() MonitorConfig {
	if c.Client == "" {
		c.Client = DefaultClient
	}
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = DefaultIntervalSeconds
	}
	return c
}

// Interval returns the cycle interval as a duration.
func (c MonitorConfig) Interval() time.Duration {
	secs := c.IntervalSeconds
	if secs <= 0 {
		secs = DefaultIntervalSeconds
	}
	return time.Duration(secs) * time.Second
}
