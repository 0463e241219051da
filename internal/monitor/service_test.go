package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavericks/crisis-monitor/internal/models"
	"github.com/mavericks/crisis-monitor/internal/sentiment"
	"github.com/mavericks/crisis-monitor/internal/sources"
	"github.com/mavericks/crisis-monitor/internal/store"
)

type stubSource struct {
	name    string
	items   []models.CandidateItem
	err     error
	enabled bool

	mu      sync.Mutex
	queries []string
}

func (s *stubSource) Name() string    { return s.name }
func (s *stubSource) IsEnabled() bool { return s.enabled }

func (s *stubSource) Fetch(ctx context.Context, query string, maxResults int) ([]models.CandidateItem, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	return s.items, s.err
}

func (s *stubSource) lastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return ""
	}
	return s.queries[len(s.queries)-1]
}

func newTestService(srcs ...sources.Source) (*Service, *store.MemoryStore) {
	memStore := store.NewMemoryStore()
	scorer := sentiment.NewAdapter(nil)
	return NewService(memStore, srcs, scorer, nil, "breaking", 50), memStore
}

func TestService_OneCycleCreatesAlert(t *testing.T) {
	src := &stubSource{
		name:    "Twitter",
		enabled: true,
		items: []models.CandidateItem{
			{
				Text:      "Urgent flood emergency in the city",
				Region:    "Twitter",
				Permalink: "https://twitter.com/i/web/status/42",
				Language:  "en",
			},
		},
	}

	service, memStore := newTestService(src)

	cfg := models.MonitorConfig{Keywords: []string{"flood"}, IntervalSeconds: 1}
	require.NoError(t, service.Start(context.Background(), cfg))
	defer service.Stop()

	assert.Eventually(t, func() bool {
		count, _ := memStore.Count(context.Background())
		return count >= 1
	}, 3*time.Second, 20*time.Millisecond)

	alerts, err := memStore.List(context.Background(), 10, time.Time{})
	require.NoError(t, err)
	require.NotEmpty(t, alerts)

	alert := alerts[0]
	assert.Equal(t, 50, alert.RiskScore) // fallback score -0.5
	assert.Equal(t, -0.5, alert.Sentiment)
	assert.Equal(t, "AutoMonitor", alert.Client)
	assert.Contains(t, alert.Topic, "Urgent flood")
	assert.Equal(t, []models.SourceTag{{Type: "Twitter", Count: 1}}, alert.Sources)
	assert.Equal(t, "flood", src.lastQuery())
}

func TestService_PositiveItemsProduceNoAlert(t *testing.T) {
	src := &stubSource{
		name:    "Reddit",
		enabled: true,
		items: []models.CandidateItem{
			{Text: "Great community cleanup drive this weekend", Region: "Reddit"},
		},
	}

	service, memStore := newTestService(src)

	require.NoError(t, service.Start(context.Background(), models.MonitorConfig{
		Keywords:        []string{"cleanup"},
		IntervalSeconds: 1,
	}))
	defer service.Stop()

	assert.Eventually(t, func() bool {
		return src.lastQuery() != ""
	}, 3*time.Second, 20*time.Millisecond)

	count, err := memStore.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestService_FailingSourceDoesNotBlockOthers(t *testing.T) {
	broken := &stubSource{
		name:    "Twitter",
		enabled: true,
		err:     errors.New("rate limited"),
	}
	working := &stubSource{
		name:    "Reddit",
		enabled: true,
		items: []models.CandidateItem{
			{Text: "Disaster declared after the storm", Region: "Reddit"},
		},
	}

	service, memStore := newTestService(broken, working)

	require.NoError(t, service.Start(context.Background(), models.MonitorConfig{
		Keywords:        []string{"storm"},
		IntervalSeconds: 1,
	}))
	defer service.Stop()

	assert.Eventually(t, func() bool {
		count, _ := memStore.Count(context.Background())
		return count == 1
	}, 3*time.Second, 20*time.Millisecond)

	alerts, err := memStore.List(context.Background(), 10, time.Time{})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Reddit", alerts[0].Region)
}

func TestService_EmptyTextItemsAreDropped(t *testing.T) {
	src := &stubSource{
		name:    "Twitter",
		enabled: true,
		items: []models.CandidateItem{
			{Text: "   ", Region: "Twitter"},
			{Text: "Critical failure at the plant", Region: "Twitter"},
		},
	}

	service, memStore := newTestService(src)

	require.NoError(t, service.Start(context.Background(), models.MonitorConfig{
		Keywords:        []string{"plant"},
		IntervalSeconds: 1,
	}))
	defer service.Stop()

	assert.Eventually(t, func() bool {
		count, _ := memStore.Count(context.Background())
		return count == 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestService_DisabledSourceIsSkipped(t *testing.T) {
	disabled := &stubSource{
		name:  "Twitter",
		items: []models.CandidateItem{{Text: "Emergency downtown", Region: "Twitter"}},
	}

	service, memStore := newTestService(disabled)

	require.NoError(t, service.Start(context.Background(), models.MonitorConfig{
		Keywords:        []string{"downtown"},
		IntervalSeconds: 1,
	}))
	defer service.Stop()

	time.Sleep(300 * time.Millisecond)

	count, err := memStore.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, "", disabled.lastQuery())
}

func TestService_EmptyKeywordsUseDefaultQuery(t *testing.T) {
	src := &stubSource{name: "Twitter", enabled: true}

	service, _ := newTestService(src)

	require.NoError(t, service.Start(context.Background(), models.MonitorConfig{IntervalSeconds: 1}))
	defer service.Stop()

	assert.Eventually(t, func() bool {
		return src.lastQuery() == "breaking"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestService_StartResetsSession(t *testing.T) {
	src := &stubSource{
		name:    "Twitter",
		enabled: true,
		items: []models.CandidateItem{
			{Text: "Urgent evacuation in progress", Region: "Twitter"},
		},
	}

	service, memStore := newTestService(src)

	require.NoError(t, service.Start(context.Background(), models.MonitorConfig{
		Keywords:        []string{"evacuation"},
		IntervalSeconds: 1,
	}))
	defer service.Stop()

	assert.Eventually(t, func() bool {
		count, _ := memStore.Count(context.Background())
		return count >= 1
	}, 3*time.Second, 20*time.Millisecond)

	// Re-arming wipes the previous session's alerts and records the
	// new config.
	require.NoError(t, service.Start(context.Background(), models.MonitorConfig{
		Keywords:        []string{"wildfire"},
		Client:          "NewClient",
		IntervalSeconds: 60,
	}))

	activeCfg := memStore.ActiveConfig()
	assert.Equal(t, []string{"wildfire"}, activeCfg.Keywords)
	assert.Equal(t, "NewClient", activeCfg.Client)
	assert.True(t, service.IsRunning())
}

func TestService_StopIsIdempotent(t *testing.T) {
	service, _ := newTestService(&stubSource{name: "Twitter", enabled: true})

	require.NoError(t, service.Start(context.Background(), models.MonitorConfig{
		Keywords:        []string{"x"},
		IntervalSeconds: 60,
	}))
	assert.True(t, service.IsRunning())

	service.Stop()
	assert.False(t, service.IsRunning())

	service.Stop() // second stop must not panic
	assert.False(t, service.IsRunning())
}
