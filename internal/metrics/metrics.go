// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Tour lookup metrics
	IncTourCacheHit()
	IncTourCacheMiss()
	ObserveTourLookupDuration(duration time.Duration)

	// Catalog management metrics
	IncTourCreated()
	IncTourUpdated()
	IncTourDeleted()

	// Auth metrics
	IncLoginSuccess()
	IncLoginFailure()
	IncSignup()
	IncPasswordReset()

	// Booking metrics
	IncBookingCreated()

	// Analytics pipeline metrics
	IncViewEventPublished(status string) // status: "success" or "dropped"
	IncViewEventProcessed(status string) // status: "success", "failed", "dead_lettered"
	ObserveViewBatchSize(size int)
	ObserveViewBatchDuration(duration time.Duration)
	SetViewQueueDepth(depth int64)
	ObserveViewIngestLag(lag time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
