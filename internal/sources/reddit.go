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

const (
	redditAuthURL = "https://www.reddit.com/api/v1/access_token"
	redditAPIBase = "https://oauth.reddit.com"
)

// RedditSource implements the Reddit submission-search source
type RedditSource struct {
	clientID     string
	clientSecret string
	userAgent    string
	subreddits   []string
	authURL      string
	baseURL      string
	client       *resty.Client
	accessToken  string
}

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditSearchResponse struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Selftext  string  `json:"selftext"`
	Subreddit string  `json:"subreddit"`
	Permalink string  `json:"permalink"`
	Created   float64 `json:"created_utc"`
}

// NewRedditSource creates a new Reddit source searching the given subreddits
func NewRedditSource(clientID, clientSecret, userAgent string, subreddits []string) *RedditSource {
	return &RedditSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		subreddits:   subreddits,
		authURL:      redditAuthURL,
		baseURL:      redditAPIBase,
		client:       resty.New().SetTimeout(20 * time.Second),
	}
}

func (r *RedditSource) Name() string {
	return "Reddit"
}

func (r *RedditSource) IsEnabled() bool {
	return r.clientID != "" && r.clientSecret != ""
}

// Fetch searches each configured subreddit for recent submissions. A
// failing subreddit is skipped; the rest still contribute items.
func (r *RedditSource) Fetch(ctx context.Context, query string, maxResults int) ([]models.CandidateItem, error) {
	if !r.IsEnabled() {
		logrus.Debug("Reddit source disabled - missing credentials")
		return nil, nil
	}

	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	var allItems []models.CandidateItem

	for _, subreddit := range r.subreddits {
		subreddit = strings.TrimSpace(subreddit)
		if subreddit == "" {
			continue
		}

		items, err := r.searchSubreddit(ctx, subreddit, query, maxResults)
		if err != nil {
			logrus.Errorf("Failed to search subreddit %s: %v", subreddit, err)
			continue
		}
		allItems = append(allItems, items...)
	}

	return allItems, nil
}

func (r *RedditSource) authenticate(ctx context.Context) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", r.userAgent).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post(r.authURL)

	if err != nil {
		return err
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return err
	}

	if authResp.AccessToken == "" {
		return fmt.Errorf("reddit auth returned no token (status %d)", resp.StatusCode())
	}

	r.accessToken = authResp.AccessToken
	return nil
}

func (r *RedditSource) searchSubreddit(ctx context.Context, subreddit, query string, maxResults int) ([]models.CandidateItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("restrict_sr", "1")
	params.Set("sort", "new")
	params.Set("t", "day")
	params.Set("limit", strconv.Itoa(maxResults))

	searchURL := fmt.Sprintf("%s/r/%s/search.json?%s", r.baseURL, subreddit, params.Encode())

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+r.accessToken).
		SetHeader("User-Agent", r.userAgent).
		Get(searchURL)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var searchResp redditSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, err
	}

	var items []models.CandidateItem
	now := time.Now().UTC()

	for _, child := range searchResp.Data.Children {
		post := child.Data

		text := strings.TrimSpace(post.Title)
		if post.Selftext != "" {
			text = strings.TrimSpace(post.Title + "\n" + post.Selftext)
		}
		if text == "" {
			continue
		}

		publishedAt := now
		if post.Created > 0 {
			publishedAt = time.Unix(int64(post.Created), 0).UTC()
		}

		items = append(items, models.CandidateItem{
			Text:        text,
			Title:       post.Title,
			Kind:        models.SourceSocialPost,
			Region:      r.Name(),
			ExternalID:  post.ID,
			Permalink:   "https://www.reddit.com" + post.Permalink,
			PublishedAt: publishedAt,
			Language:    "en",
		})
	}

	return items, nil
}
