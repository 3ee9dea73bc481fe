package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"kathaipom/internal/cache"
	"kathaipom/internal/logger"
	"kathaipom/internal/metrics"
	"kathaipom/internal/model"
	"kathaipom/internal/ranking"
)

const (
	// HistoryLimit is how many recent interactions are sent to the ranker
	HistoryLimit = 20

	// MaxInterests caps the interest tags a reader may send
	MaxInterests = 10

	// DefaultRankingTimeout bounds one ranking call when none is configured
	DefaultRankingTimeout = 15 * time.Second
)

// StoryLister is the chronological, joined story list the feed starts from.
type StoryLister interface {
	GetStories(ctx context.Context) ([]model.EnrichedStory, error)
}

// FeedOptions are the reader's feed preferences.
type FeedOptions struct {
	Prioritize bool
	Interests  []string
}

type FeedService struct {
	stories      StoryLister
	ranker       ranking.Ranker
	interactions cache.InteractionLog
	timeout      time.Duration
	metrics      *metrics.Metrics
	log          *zap.Logger
}

// NewFeedService creates the feed service. ranker may be nil, which disables prioritization.
func NewFeedService(
	stories StoryLister,
	ranker ranking.Ranker,
	interactions cache.InteractionLog,
	timeout time.Duration,
	m *metrics.Metrics,
	log *zap.Logger,
) *FeedService {
	if interactions == nil {
		interactions = cache.NewMemoryInteractionLog()
	}
	if timeout <= 0 {
		timeout = DefaultRankingTimeout
	}
	return &FeedService{
		stories:      stories,
		ranker:       ranker,
		interactions: interactions,
		timeout:      timeout,
		metrics:      m,
		log:          logger.OrNop(log).Named("feed"),
	}
}

// GetFeed returns every story newest first. With Prioritize set and a ranker configured, the
// stories are reordered by the ranker's score; any ranking failure falls back to the
// chronological order and is logged as a warning.
func (s *FeedService) GetFeed(ctx context.Context, viewerID string, opts FeedOptions) (*model.FeedResponse, error) {
	stories, err := s.stories.GetStories(ctx)
	if err != nil {
		return nil, err
	}
	chronological := &model.FeedResponse{Stories: stories}

	if !opts.Prioritize || len(stories) == 0 {
		return chronological, nil
	}
	if s.ranker == nil {
		s.metrics.RankingOutcome(metrics.RankingDisabled)
		return chronological, nil
	}

	var history []model.Interaction
	if viewerID != "" {
		history, err = s.interactions.Recent(ctx, viewerID, HistoryLimit)
		if err != nil {
			s.log.Warn("interaction history unavailable", zap.String("user", viewerID), zap.Error(err))
			history = nil
		}
	}

	rankCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	rankings, err := s.ranker.Rank(rankCtx, ranking.FromStories(stories, normalizeInterests(opts.Interests), history))
	if err != nil {
		s.metrics.RankingOutcome(metrics.RankingFallback)
		s.log.Warn("feed ranking failed, using chronological order",
			zap.String("user", viewerID),
			zap.Duration("duration", time.Since(startTime)),
			zap.Error(err))
		return chronological, nil
	}

	s.metrics.RankingOutcome(metrics.RankingRanked)
	s.log.Debug("feed ranked", zap.Int("stories", len(stories)), zap.Int("scored", len(rankings)), zap.Duration("duration", time.Since(startTime)))
	return &model.FeedResponse{Stories: applyRankings(stories, rankings), Prioritized: true}, nil
}

// applyRankings annotates the stories and orders them by descending score. Ties keep their
// chronological order and unscored stories follow the scored ones.
func applyRankings(stories []model.EnrichedStory, rankings []ranking.Ranking) []model.EnrichedStory {
	byID := make(map[string]ranking.Ranking, len(rankings))
	for _, r := range rankings {
		byID[r.StoryID] = r
	}

	out := make([]model.EnrichedStory, len(stories))
	copy(out, stories)
	for i := range out {
		if r, ok := byID[out[i].ID]; ok {
			score := r.PriorityScore
			out[i].PriorityScore = &score
			out[i].Reason = r.Reason
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PriorityScore, out[j].PriorityScore
		switch {
		case a != nil && b != nil:
			return *a > *b
		case a != nil:
			return true
		default:
			return false
		}
	})
	return out
}

// normalizeInterests trims, drops blanks and duplicates, and caps the list.
func normalizeInterests(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
		if len(out) == MaxInterests {
			break
		}
	}
	return out
}
