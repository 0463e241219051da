package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mavericks/crisis-monitor/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS alerts (
	id            INTEGER PRIMARY KEY,
	client        TEXT NOT NULL,
	risk_score    INTEGER NOT NULL,
	region        TEXT NOT NULL,
	language      TEXT NOT NULL,
	topic         TEXT NOT NULL,
	trigger_event TEXT NOT NULL,
	time_elapsed  TEXT NOT NULL,
	sentiment     REAL NOT NULL,
	keywords      TEXT NOT NULL,
	sources       TEXT NOT NULL,
	link          TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at);
`

type alertRow struct {
	ID           int64     `db:"id"`
	Client       string    `db:"client"`
	RiskScore    int       `db:"risk_score"`
	Region       string    `db:"region"`
	Language     string    `db:"language"`
	Topic        string    `db:"topic"`
	TriggerEvent string    `db:"trigger_event"`
	TimeElapsed  string    `db:"time_elapsed"`
	Sentiment    float64   `db:"sentiment"`
	KeywordsJSON string    `db:"keywords"`
	SourcesJSON  string    `db:"sources"`
	Link         string    `db:"link"`
	CreatedAt    time.Time `db:"created_at"`
}

// SQLiteStore is the durable AlertStore backend. Id assignment stays
// in-process so session ids remain gapless regardless of sqlite's
// rowid behavior; the mutex covers the counter, the active config,
// and write serialization.
type SQLiteStore struct {
	db     *sqlx.DB
	mu     sync.Mutex
	nextID int64
	cfg    models.MonitorConfig
}

var _ AlertStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLiteStore{db: db}

	// Resume the id sequence from whatever the last session left behind.
	var maxID int64
	if err := db.Get(&maxID, "SELECT COALESCE(MAX(id), 0) FROM alerts"); err != nil {
		db.Close()
		return nil, fmt.Errorf("read max alert id: %w", err)
	}
	s.nextID = maxID

	return s, nil
}

func (s *SQLiteStore) Append(ctx context.Context, alert models.Alert) (int64, error) {
	keywordsJSON, _ := json.Marshal(alert.Keywords)
	sourcesJSON, _ := json.Marshal(alert.Sources)

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID + 1
	createdAt := alert.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, client, risk_score, region, language, topic, trigger_event, time_elapsed, sentiment, keywords, sources, link, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, alert.Client, alert.RiskScore, alert.Region, alert.Language,
		alert.Topic, alert.TriggerEvent, alert.TimeElapsed, alert.Sentiment,
		string(keywordsJSON), string(sourcesJSON), alert.Link, createdAt)
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}

	s.nextID = id
	return id, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int, since time.Time) ([]models.Alert, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := "SELECT * FROM alerts WHERE 1=1"
	var args []any

	if !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, since)
	}

	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	var rows []alertRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	now := time.Now().UTC()
	alerts := make([]models.Alert, 0, len(rows))
	for _, row := range rows {
		alert := models.Alert{
			ID:           row.ID,
			Client:       row.Client,
			RiskScore:    row.RiskScore,
			Region:       row.Region,
			Language:     row.Language,
			Topic:        row.Topic,
			TriggerEvent: row.TriggerEvent,
			TimeElapsed:  row.TimeElapsed,
			TimeAgo:      RenderTimeAgo(row.CreatedAt, now),
			Sentiment:    row.Sentiment,
			Link:         row.Link,
			CreatedAt:    row.CreatedAt,
		}
		json.Unmarshal([]byte(row.KeywordsJSON), &alert.Keywords)
		json.Unmarshal([]byte(row.SourcesJSON), &alert.Sources)
		alerts = append(alerts, alert)
	}

	return alerts, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM alerts"); err != nil {
		return 0, fmt.Errorf("count alerts: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clearLocked(ctx)
}

func (s *SQLiteStore) clearLocked(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM alerts")
	if err != nil {
		return 0, fmt.Errorf("clear alerts: %w", err)
	}

	removed, _ := res.RowsAffected()
	s.nextID = 0

	return int(removed), nil
}

func (s *SQLiteStore) ResetSession(ctx context.Context, cfg models.MonitorConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.clearLocked(ctx); err != nil {
		return err
	}
	s.cfg = cfg

	return nil
}

func (s *SQLiteStore) ActiveConfig() models.MonitorConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *SQLiteStore) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	res, err := s.db.ExecContext(ctx, "DELETE FROM alerts WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep alerts: %w", err)
	}

	removed, _ := res.RowsAffected()
	return int(removed), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
