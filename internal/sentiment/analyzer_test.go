package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubAnalyzer struct {
	score float64
	err   error
}

func (s *stubAnalyzer) Score(ctx context.Context, text string) (float64, error) {
	return s.score, s.err
}

func TestFallbackScore(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{
			name:     "Text with crisis word",
			text:     "Major crisis unfolding downtown",
			expected: -0.5,
		},
		{
			name:     "Text with emergency word",
			text:     "Urgent flood emergency in the city",
			expected: -0.5,
		},
		{
			name:     "Upper-cased signal word",
			text:     "DISASTER declared in the region",
			expected: -0.5,
		},
		{
			name:     "Signal word inside larger word",
			text:     "The deployment failed again",
			expected: -0.5,
		},
		{
			name:     "Neutral text",
			text:     "Lovely weather across the coast today",
			expected: 0.1,
		},
		{
			name:     "Empty text",
			text:     "",
			expected: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FallbackScore(tt.text))
		})
	}
}

func TestAdapter_ScoreWithAnalyzer(t *testing.T) {
	adapter := NewAdapter(&stubAnalyzer{score: -0.72})

	assert.True(t, adapter.HasAnalyzer())
	assert.Equal(t, -0.72, adapter.Score(context.Background(), "some text"))
}

func TestAdapter_ScoreClampsAnalyzerResult(t *testing.T) {
	tests := []struct {
		name     string
		raw      float64
		expected float64
	}{
		{name: "Below range", raw: -1.7, expected: -1.0},
		{name: "Above range", raw: 2.3, expected: 1.0},
		{name: "In range", raw: 0.4, expected: 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewAdapter(&stubAnalyzer{score: tt.raw})
			assert.Equal(t, tt.expected, adapter.Score(context.Background(), "text"))
		})
	}
}

func TestAdapter_ScoreWithoutAnalyzer(t *testing.T) {
	adapter := NewAdapter(nil)

	assert.False(t, adapter.HasAnalyzer())
	assert.Equal(t, -0.5, adapter.Score(context.Background(), "critical outage reported"))
	assert.Equal(t, 0.1, adapter.Score(context.Background(), "all quiet"))
}

func TestAdapter_ScoreFallsBackOnAnalyzerError(t *testing.T) {
	adapter := NewAdapter(&stubAnalyzer{err: errors.New("analyzer down")})

	assert.Equal(t, -0.5, adapter.Score(context.Background(), "urgent situation"))
	assert.Equal(t, 0.1, adapter.Score(context.Background(), "nothing to report"))
}
