package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db8_http_requests_total",
		Help: "HTTP requests served, by method and status class.",
	}, []string{"method", "status"})

	CaptionGenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db8_caption_generations_total",
		Help: "Caption generation attempts by provider and outcome.",
	}, []string{"provider", "outcome"})

	CaptionGenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db8_caption_generation_duration_seconds",
		Help:    "Wall time of a single provider round trip including parsing.",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"provider"})

	CaptionCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db8_caption_cache_total",
		Help: "Caption cache lookups by result (hit, miss, error).",
	}, []string{"result"})

	PublishesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db8_publishes_total",
		Help: "Publish attempts by outcome.",
	}, []string{"outcome"})

	SocialPostsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "db8_social_posts_total",
		Help: "Social mirror posts by outcome.",
	}, []string{"outcome"})
)
