package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Analyzer produces a compound polarity score in [-1, 1] for a text.
// Implementations may fail; the Adapter is what callers use.
type Analyzer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// Words that mark a text as negative when no real analyzer is available.
var negativeSignals = []string{
	"crisis", "disaster", "emergency", "urgent", "critical", "issue", "problem", "fail",
}

const (
	fallbackNegative = -0.5
	fallbackNeutral  = 0.1
)

// Adapter wraps an optional Analyzer and guarantees a score for every
// text. When the analyzer is absent or errors, it falls back to a keyword
// heuristic, which is materially less precise than a real analyzer:
// any text containing a negative-signal word scores -0.5, everything
// else +0.1.
type Adapter struct {
	analyzer Analyzer
}

// NewAdapter creates an adapter. A nil analyzer selects the fallback
// heuristic for every call.
func NewAdapter(analyzer Analyzer) *Adapter {
	return &Adapter{analyzer: analyzer}
}

// HasAnalyzer reports whether a real analyzer is wired in.
func (a *Adapter) HasAnalyzer() bool {
	return a.analyzer != nil
}

// Score never fails. Real analyzer results are clamped to [-1, 1].
func (a *Adapter) Score(ctx context.Context, text string) float64 {
	if a.analyzer != nil {
		score, err := a.analyzer.Score(ctx, text)
		if err == nil {
			return clamp(score)
		}
		logrus.Warnf("Sentiment analyzer failed, using fallback heuristic: %v", err)
	}
	return FallbackScore(text)
}

// FallbackScore is the deterministic keyword heuristic.
func FallbackScore(text string) float64 {
	lower := strings.ToLower(text)
	for _, word := range negativeSignals {
		if strings.Contains(lower, word) {
			return fallbackNegative
		}
	}
	return fallbackNeutral
}

func clamp(score float64) float64 {
	if score < -1.0 {
		return -1.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

// RemoteAnalyzer scores text against an HTTP sentiment endpoint that
// accepts {"text": ...} and returns {"compound": f}.
type RemoteAnalyzer struct {
	url    string
	client *resty.Client
}

type remoteScoreRequest struct {
	Text string `json:"text"`
}

type remoteScoreResponse struct {
	Compound float64 `json:"compound"`
}

// NewRemoteAnalyzer creates an analyzer client for the given endpoint.
func NewRemoteAnalyzer(url string) *RemoteAnalyzer {
	return &RemoteAnalyzer{
		url: url,
		client: resty.New().
			SetTimeout(15 * time.Second).
			SetHeader("User-Agent", "crisis-monitor/1.0"),
	}
}

func (r *RemoteAnalyzer) Score(ctx context.Context, text string) (float64, error) {
	var result remoteScoreResponse

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(remoteScoreRequest{Text: text}).
		SetResult(&result).
		Post(r.url)

	if err != nil {
		return 0, fmt.Errorf("sentiment request failed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("sentiment endpoint returned status %d", resp.StatusCode())
	}

	return result.Compound, nil
}
