package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Shared-secret for the control API. Empty means open access.
	APIKey string

	// Alert store. Empty DBPath selects the in-memory store.
	DBPath         string
	RetentionHours int

	// Monitor defaults
	DefaultQuery        string
	MaxResultsPerSource int

	// Source credentials
	TwitterBearerToken string
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	RedditSubreddits   []string
	NewsFeedEnabled    bool

	// Optional remote sentiment analyzer endpoint
	SentimentAPIURL string

	// Notification configuration
	AlertWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:   getEnv("PORT", "5001"),
		Debug:  getBoolEnv("DEBUG", false),
		APIKey: getEnv("API_KEY", ""),

		DBPath:         getEnv("ALERTS_DB_PATH", ""),
		RetentionHours: getIntEnv("RETENTION_HOURS", 72),

		DefaultQuery:        getEnv("DEFAULT_QUERY", "breaking"),
		MaxResultsPerSource: getIntEnv("MAX_RESULTS_PER_SOURCE", 50),

		TwitterBearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),
		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditUserAgent:    getEnv("REDDIT_USER_AGENT", "crisis-monitor/1.0"),
		RedditSubreddits: getSliceEnv("REDDIT_SUBREDDITS", []string{
			"india",
			"technology",
			"IndianStreetBets",
		}),
		NewsFeedEnabled: getBoolEnv("NEWS_FEED_ENABLED", true),

		SentimentAPIURL: getEnv("SENTIMENT_API_URL", ""),

		AlertWebhookURL:   getEnv("ALERT_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.RetentionHours <= 0 {
		return fmt.Errorf("RETENTION_HOURS must be positive")
	}

	if c.MaxResultsPerSource < 1 || c.MaxResultsPerSource > 100 {
		return fmt.Errorf("MAX_RESULTS_PER_SOURCE must be between 1 and 100")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
