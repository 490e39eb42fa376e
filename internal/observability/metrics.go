// Package observability holds the process-wide Prometheus collectors
// shared across the capture, detection and storage components.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safelynx",
		Name:      "frames_processed_total",
		Help:      "Total number of frames processed",
	}, []string{"camera_id"})

	FacesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safelynx",
		Name:      "faces_detected_total",
		Help:      "Total number of faces detected",
	}, []string{"camera_id"})

	FacesRecognized = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safelynx",
		Name:      "faces_recognized_total",
		Help:      "Total number of faces matched to an existing profile",
	}, []string{"camera_id"})

	ProfilesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safelynx",
		Name:      "profiles_created_total",
		Help:      "Total number of profiles created from unmatched faces",
	})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "safelynx",
		Name:      "inference_duration_seconds",
		Help:      "Duration of ML inference stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	DetectorQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "safelynx",
		Name:      "detector_queue_depth",
		Help:      "Number of pending requests in the detector worker's queue",
	})

	DetectorQueueDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safelynx",
		Name:      "detector_queue_drops_total",
		Help:      "Total number of detection requests dropped because the worker queue was full",
	})

	ActiveCameras = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "safelynx",
		Name:      "active_cameras",
		Help:      "Number of camera capture loops started by this process; loops that later stop or fail are not subtracted",
	})

	MatcherCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "safelynx",
		Name:      "matcher_cache_size",
		Help:      "Number of profile embeddings currently held in the matcher cache",
	})

	SightingCooldownSkips = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safelynx",
		Name:      "sighting_cooldown_skips_total",
		Help:      "Total number of sightings skipped because the per-profile cooldown was active",
	})

	ActiveRecordingSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "safelynx",
		Name:      "active_recording_sessions",
		Help:      "Number of cameras with an open recording session",
	})

	StorageUsagePercent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "safelynx",
		Name:      "storage_usage_percent",
		Help:      "Total persisted bytes (recordings + snapshots) as a percentage of the configured quota",
	})

	FramesQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "safelynx",
		Name:      "frames_queue_depth",
		Help:      "Number of pending frame tasks in the FRAMES NATS stream",
	})
)
