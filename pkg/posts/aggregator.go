package posts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hatchways-assessment/posts-api/pkg/metrics"
)

var (
	aggregatePosts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Name:      "aggregate_posts",
		Help:      "Number of posts returned per aggregated query",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	aggregateDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "aggregate_duplicates_total",
		Help:      "Total number of posts dropped because their id was already merged",
	})
)

// Fetcher retrieves the posts labelled with a single tag.
type Fetcher interface {
	FetchPosts(ctx context.Context, tag string) ([]Post, error)
}

// AggregatorConfig configures the pipeline.
type AggregatorConfig struct {
	// MaxConcurrency bounds parallel tag fetches (1 = strictly sequential)
	MaxConcurrency int
}

// DefaultAggregatorConfig returns the default pipeline configuration.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		MaxConcurrency: 4,
	}
}

// Aggregator runs the fetch-merge-sort pipeline for a Query.
type Aggregator struct {
	fetcher Fetcher
	config  AggregatorConfig
	logger  zerolog.Logger
}

// NewAggregator creates a pipeline over fetcher.
func NewAggregator(fetcher Fetcher, cfg AggregatorConfig, logger zerolog.Logger) *Aggregator {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	return &Aggregator{
		fetcher: fetcher,
		config:  cfg,
		logger:  logger,
	}
}

// Aggregate fetches every tag in q, merges the batches in tag order without
// duplicate ids and returns them sorted by q.SortBy in q.Direction.
// Any fetch failure fails the whole call; no partial result is returned.
func (a *Aggregator) Aggregate(ctx context.Context, q Query) ([]Post, error) {
	start := time.Now()

	// Step 1: Fetch one batch per tag
	batches, err := a.fetchAll(ctx, q.Tags)
	if err != nil {
		return nil, err
	}

	// Step 2: Merge in tag order so the first tag wins on duplicates
	merged, dropped := Merge(q.Tags, batches)
	aggregateDuplicates.Add(float64(dropped))

	// Step 3: Order by the requested field
	Sort(merged, q.SortBy, q.Direction)
	aggregatePosts.Observe(float64(len(merged)))

	a.logger.Debug().
		Strs("tags", q.Tags).
		Str("sort_by", string(q.SortBy)).
		Str("direction", string(q.Direction)).
		Int("posts", len(merged)).
		Int("duplicates", dropped).
		Dur("duration", time.Since(start)).
		Msg("Aggregated posts")

	return merged, nil
}

// fetchAll fetches all tags concurrently. batches[i] always holds the
// result for tags[i], whatever order the fetches complete in.
func (a *Aggregator) fetchAll(ctx context.Context, tags []string) ([][]Post, error) {
	batches := make([][]Post, len(tags))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.MaxConcurrency)

	for i, tag := range tags {
		i, tag := i, tag
		g.Go(func() error {
			batch, err := a.fetcher.FetchPosts(gCtx, tag)
			if err != nil {
				return fmt.Errorf("fetch posts for tag %q: %w", tag, err)
			}
			a.logger.Debug().
				Str("tag", tag).
				Int("posts", len(batch)).
				Msg("Fetched tag")
			batches[i] = batch
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batches, nil
}

// Merge concatenates batches in order, skipping posts whose id is already
// present and posts that do not carry their batch's tag. It returns the
// merged posts and the number of duplicates dropped.
func Merge(tags []string, batches [][]Post) ([]Post, int) {
	var merged []Post
	seen := make(map[int]struct{})
	dropped := 0

	for i, batch := range batches {
		for _, post := range batch {
			if i < len(tags) && !post.HasTag(tags[i]) {
				continue
			}
			if _, dup := seen[post.ID]; dup {
				dropped++
				continue
			}
			seen[post.ID] = struct{}{}
			merged = append(merged, post)
		}
	}

	if merged == nil {
		merged = []Post{}
	}
	return merged, dropped
}

// Sort orders posts in place by field. The sort is stable: posts with
// equal values keep their merge order in both directions.
func Sort(posts []Post, field SortField, direction Direction) {
	sort.SliceStable(posts, func(i, j int) bool {
		vi, vj := posts[i].Value(field), posts[j].Value(field)
		if direction == Descending {
			return vi > vj
		}
		return vi < vj
	})
}
