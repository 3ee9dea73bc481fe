package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.StoryCreated("api", 1)
		m.StoryDeleted()
		m.Liked(true)
		m.Commented()
		m.Followed(false)
		m.UserCreated()
		m.UserDeleted()
		m.RankingOutcome(RankingFallback)
		m.EventHandled("story_liked", nil)
		m.EventPublished("story_liked", nil)
	})
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.StoryCreated("import", 3)
	m.StoryCreated("api", 0)
	m.Liked(true)
	m.Liked(false)
	m.Liked(true)
	m.RankingOutcome(RankingFallback)
	m.EventHandled("story_liked", errors.New("boom"))
	m.EventPublished("user_followed", nil)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.StoriesCreated.WithLabelValues("import")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StoriesCreated.WithLabelValues("api")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Likes.WithLabelValues("like")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Likes.WithLabelValues("unlike")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ranking.WithLabelValues(RankingFallback)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues("story_liked", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Published.WithLabelValues("user_followed", "ok")))
}
