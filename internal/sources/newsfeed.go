package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"github.com/mavericks/crisis-monitor/internal/models"
)

const newsFeedBase = "https://news.google.com/rss/search"

// NewsFeedSource fetches news articles from the Google News search feed.
// No credentials are required.
type NewsFeedSource struct {
	enabled bool
	baseURL string
	client  *http.Client
	parser  *gofeed.Parser
}

// NewNewsFeedSource creates a new news-feed source
func NewNewsFeedSource(enabled bool) *NewsFeedSource {
	return &NewsFeedSource{
		enabled: enabled,
		baseURL: newsFeedBase,
		client:  &http.Client{Timeout: 20 * time.Second},
		parser:  gofeed.NewParser(),
	}
}

func (n *NewsFeedSource) Name() string {
	return "Global"
}

func (n *NewsFeedSource) IsEnabled() bool {
	return n.enabled
}

func (n *NewsFeedSource) Fetch(ctx context.Context, query string, maxResults int) ([]models.CandidateItem, error) {
	if !n.IsEnabled() {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create news feed request: %w", err)
	}
	req.Header.Set("User-Agent", "crisis-monitor/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch news feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news feed returned status %d", resp.StatusCode)
	}

	parsed, err := n.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse news feed: %w", err)
	}

	var items []models.CandidateItem
	now := time.Now().UTC()

	for _, entry := range parsed.Items {
		if len(items) >= maxResults {
			break
		}

		text := strings.TrimSpace(entry.Title)
		if entry.Description != "" {
			text = strings.TrimSpace(entry.Title + "\n" + entry.Description)
		}
		if text == "" {
			continue
		}

		publishedAt := now
		if entry.PublishedParsed != nil {
			publishedAt = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			publishedAt = entry.UpdatedParsed.UTC()
		} else if entry.Published != "" {
			logrus.Debugf("Unparsable article timestamp %q, using fetch time", entry.Published)
		}

		items = append(items, models.CandidateItem{
			Text:        text,
			Title:       entry.Title,
			Kind:        models.SourceNewsArticle,
			Region:      n.Name(),
			ExternalID:  entry.GUID,
			Permalink:   entry.Link,
			PublishedAt: publishedAt,
			Language:    "en",
		})
	}

	return items, nil
}
