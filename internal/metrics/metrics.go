package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ranking outcomes
const (
	RankingRanked   = "ranked"
	RankingFallback = "fallback"
	RankingDisabled = "disabled"
)

// Metrics holds the application counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	StoriesCreated *prometheus.CounterVec
	StoriesDeleted prometheus.Counter
	Likes          *prometheus.CounterVec
	Comments       prometheus.Counter
	Follows        *prometheus.CounterVec
	UsersCreated   prometheus.Counter
	UsersDeleted   prometheus.Counter
	Ranking        *prometheus.CounterVec
	Events         *prometheus.CounterVec
	Published      *prometheus.CounterVec
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StoriesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stories_created_total",
				Help: "Total number of stories saved",
			},
			[]string{"source"},
		),
		StoriesDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stories_deleted_total",
				Help: "Total number of stories removed by their author or an admin",
			},
		),
		Likes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "story_likes_total",
				Help: "Total number of like and unlike state changes",
			},
			[]string{"action"},
		),
		Comments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "story_comments_total",
				Help: "Total number of comments added",
			},
		),
		Follows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "follow_changes_total",
				Help: "Total number of follow and unfollow state changes",
			},
			[]string{"action"},
		),
		UsersCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "users_created_total",
				Help: "Total number of accounts created",
			},
		),
		UsersDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "users_deleted_total",
				Help: "Total number of accounts deleted with their stories",
			},
		),
		Ranking: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_ranking_total",
				Help: "Feed requests by ranking outcome",
			},
			[]string{"outcome"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_events_total",
				Help: "Activity events handled by the worker",
			},
			[]string{"type", "status"},
		),
		Published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_events_published_total",
				Help: "Activity events handed to the stream after a mutation",
			},
			[]string{"type", "status"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.StoriesCreated,
			m.StoriesDeleted,
			m.Likes,
			m.Comments,
			m.Follows,
			m.UsersCreated,
			m.UsersDeleted,
			m.Ranking,
			m.Events,
			m.Published,
		)
	}
	return m
}

func (m *Metrics) StoryCreated(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StoriesCreated.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) StoryDeleted() {
	if m == nil {
		return
	}
	m.StoriesDeleted.Inc()
}

func (m *Metrics) Liked(liked bool) {
	if m == nil {
		return
	}
	m.Likes.WithLabelValues(action(liked, "like", "unlike")).Inc()
}

func (m *Metrics) Commented() {
	if m == nil {
		return
	}
	m.Comments.Inc()
}

func (m *Metrics) Followed(followed bool) {
	if m == nil {
		return
	}
	m.Follows.WithLabelValues(action(followed, "follow", "unfollow")).Inc()
}

func (m *Metrics) UserCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

func (m *Metrics) UserDeleted() {
	if m == nil {
		return
	}
	m.UsersDeleted.Inc()
}

func (m *Metrics) RankingOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Ranking.WithLabelValues(outcome).Inc()
}

func (m *Metrics) EventHandled(eventType string, err error) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(eventType, status(err)).Inc()
}

func (m *Metrics) EventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	m.Published.WithLabelValues(eventType, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func action(positive bool, yes, no string) string {
	if positive {
		return yes
	}
	return no
}
