// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clipstream"

var (
	// PipelineRunsTotal tracks pipeline invocations by outcome.
	// Labels:
	//   - result: done, download_failed, transcode_failed, storage_failed
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of processing pipeline runs",
		},
		[]string{"result"},
	)

	// PipelineStageDuration tracks time spent per pipeline stage.
	// Labels:
	//   - stage: download, transcode, commit
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"stage"},
	)

	// DeliveryRequestsTotal tracks artifact delivery requests.
	// Labels:
	//   - status: ok, not_found, bad_request
	//   - kind: playlist, segment, other
	DeliveryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_requests_total",
			Help:      "Total number of HLS delivery requests",
		},
		[]string{"status", "kind"},
	)

	// CacheOperationsTotal tracks artifact cache operations.
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success, error
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of artifact cache operations",
		},
		[]string{"operation", "status"},
	)
)

// Pipeline result constants.
const (
	PipelineResultDone            = "done"
	PipelineResultDownloadFailed  = "download_failed"
	PipelineResultTranscodeFailed = "transcode_failed"
	PipelineResultStorageFailed   = "storage_failed"
)

// Pipeline stage constants.
const (
	StageDownload  = "download"
	StageTranscode = "transcode"
	StageCommit    = "commit"
)

// Delivery status constants.
const (
	DeliveryStatusOK         = "ok"
	DeliveryStatusNotFound   = "not_found"
	DeliveryStatusBadRequest = "bad_request"
)

// Delivery kind constants.
const (
	DeliveryKindPlaylist = "playlist"
	DeliveryKindSegment  = "segment"
	DeliveryKindOther    = "other"
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)
