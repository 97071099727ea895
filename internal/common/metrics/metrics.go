// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	MatchGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_generations_total",
			Help: "Match generation runs by direction and outcome",
		},
		[]string{"direction", "outcome"},
	)

	MatchesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_matches_created_total",
			Help: "Match records persisted by the generator",
		},
		[]string{"direction"},
	)

	MatchWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_match_write_failures_total",
			Help: "Individual match writes that failed or were skipped as duplicates",
		},
		[]string{"reason"},
	)

	CandidatesScored = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matchmaking_candidates_scored",
			Help:    "Candidates scored per generation run",
			Buckets: []float64{0, 5, 10, 25, 50, 75, 100},
		},
		[]string{"direction"},
	)

	CompatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchmaking_compatibility_score",
			Help:    "Distribution of computed compatibility scores",
			Buckets: []float64{20, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "matchmaking_generation_duration_seconds",
			Help: "Wall time of one generation run",
		},
		[]string{"direction"},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_status_transitions_total",
			Help: "Accepted match status transitions",
		},
		[]string{"from", "to"},
	)

	FeedbackRatings = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchmaking_feedback_rating",
			Help:    "Feedback ratings received",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_notifications_total",
			Help: "Notification deliveries by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	ProfileCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchmaking_profile_cache_lookups_total",
			Help: "Profile cache hits and misses",
		},
		[]string{"result"},
	)
)
