package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncTourCacheHit is a no-op.
func (n *NoopRecorder) IncTourCacheHit() {}

// IncTourCacheMiss is a no-op.
func (n *NoopRecorder) IncTourCacheMiss() {}

// ObserveTourLookupDuration is a no-op.
func (n *NoopRecorder) ObserveTourLookupDuration(duration time.Duration) {}

// IncTourCreated is a no-op.
func (n *NoopRecorder) IncTourCreated() {}

// IncTourUpdated is a no-op.
func (n *NoopRecorder) IncTourUpdated() {}

// IncTourDeleted is a no-op.
func (n *NoopRecorder) IncTourDeleted() {}

// IncLoginSuccess is a no-op.
func (n *NoopRecorder) IncLoginSuccess() {}

// IncLoginFailure is a no-op.
func (n *NoopRecorder) IncLoginFailure() {}

// IncSignup is a no-op.
func (n *NoopRecorder) IncSignup() {}

// IncPasswordReset is a no-op.
func (n *NoopRecorder) IncPasswordReset() {}

// IncBookingCreated is a no-op.
func (n *NoopRecorder) IncBookingCreated() {}

// IncViewEventPublished is a no-op.
func (n *NoopRecorder) IncViewEventPublished(status string) {}

// IncViewEventProcessed is a no-op.
func (n *NoopRecorder) IncViewEventProcessed(status string) {}

// ObserveViewBatchSize is a no-op.
func (n *NoopRecorder) ObserveViewBatchSize(size int) {}

// ObserveViewBatchDuration is a no-op.
func (n *NoopRecorder) ObserveViewBatchDuration(duration time.Duration) {}

// SetViewQueueDepth is a no-op.
func (n *NoopRecorder) SetViewQueueDepth(depth int64) {}

// ObserveViewIngestLag is a no-op.
func (n *NoopRecorder) ObserveViewIngestLag(lag time.Duration) {}
