package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/mavericks/crisis-monitor/internal/models"
)

const twitterAPIBase = "https://api.twitter.com/2"

// TwitterSource implements the Twitter/X v2 recent search source
type TwitterSource struct {
	bearerToken string
	baseURL     string
	client      *resty.Client
}

type twitterSearchResponse struct {
	Data []twitterTweet `json:"data"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
}

type twitterTweet struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	Lang      string `json:"lang"`
}

// NewTwitterSource creates a new Twitter source
func NewTwitterSource(bearerToken string) *TwitterSource {
	return &TwitterSource{
		bearerToken: bearerToken,
		baseURL:     twitterAPIBase,
		client: resty.New().
			SetTimeout(20 * time.Second).
			SetHeader("User-Agent", "crisis-monitor/1.0"),
	}
}

func (t *TwitterSource) Name() string {
	return "Twitter"
}

func (t *TwitterSource) IsEnabled() bool {
	return t.bearerToken != ""
}

// Fetch runs one recent-search call. Retweets are excluded so the same
// text does not produce duplicate alerts within a cycle.
func (t *TwitterSource) Fetch(ctx context.Context, query string, maxResults int) ([]models.CandidateItem, error) {
	if !t.IsEnabled() {
		logrus.Debug("Twitter source disabled - missing bearer token")
		return nil, nil
	}

	if maxResults > 100 {
		maxResults = 100
	}

	params := url.Values{}
	params.Set("query", t.buildSearchQuery(query))
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("tweet.fields", "created_at,lang,public_metrics")

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+t.bearerToken).
		Get(t.baseURL + "/tweets/search/recent?" + params.Encode())

	if err != nil {
		return nil, fmt.Errorf("twitter search failed: %w", err)
	}

	// Rate limiting yields an empty batch so other sources still run.
	if resp.StatusCode() == 429 {
		logrus.Warn("Twitter API rate limit hit - skipping this cycle")
		return nil, nil
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("twitter API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var searchResp twitterSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse Twitter response: %w", err)
	}

	var items []models.CandidateItem
	now := time.Now().UTC()

	for _, tweet := range searchResp.Data {
		text := strings.TrimSpace(tweet.Text)
		if text == "" {
			continue
		}

		publishedAt := now
		if tweet.CreatedAt != "" {
			if parsed, err := time.Parse(time.RFC3339, tweet.CreatedAt); err == nil {
				publishedAt = parsed.UTC()
			} else {
				logrus.Debugf("Unparsable tweet timestamp %q, using fetch time", tweet.CreatedAt)
			}
		}

		lang := tweet.Lang
		if lang == "" {
			lang = "en"
		}

		items = append(items, models.CandidateItem{
			Text:        text,
			Kind:        models.SourceSocialPost,
			Region:      t.Name(),
			ExternalID:  tweet.ID,
			Permalink:   fmt.Sprintf("https://twitter.com/i/web/status/%s", tweet.ID),
			PublishedAt: publishedAt,
			Language:    lang,
		})
	}

	return items, nil
}

func (t *TwitterSource) buildSearchQuery(query string) string {
	return fmt.Sprintf("(%s) -is:retweet", query)
}
