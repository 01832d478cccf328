package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	TourCacheHits          uint64
	TourCacheMisses        uint64
	TourLookupCount        uint64
	TourLookupTotalNs      int64
	ToursCreated           uint64
	ToursUpdated           uint64
	ToursDeleted           uint64
	LoginSuccesses         uint64
	LoginFailures          uint64
	Signups                uint64
	PasswordResets         uint64
	BookingsCreated        uint64
	ViewEventsPublished    uint64
	ViewEventsDropped      uint64
	ViewEventsProcessed    uint64
	ViewEventsFailed       uint64
	ViewEventsDeadLettered uint64
}

// InMemoryRecorder stores metrics in memory for tests and the debug
// metrics endpoint.
type InMemoryRecorder struct {
	tourCacheHits          uint64
	tourCacheMisses        uint64
	tourLookupCount        uint64
	tourLookupTotalNs      int64
	toursCreated           uint64
	toursUpdated           uint64
	toursDeleted           uint64
	loginSuccesses         uint64
	loginFailures          uint64
	signups                uint64
	passwordResets         uint64
	bookingsCreated        uint64
	viewEventsPublished    uint64
	viewEventsDropped      uint64
	viewEventsProcessed    uint64
	viewEventsFailed       uint64
	viewEventsDeadLettered uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		TourCacheHits:          atomic.LoadUint64(&m.tourCacheHits),
		TourCacheMisses:        atomic.LoadUint64(&m.tourCacheMisses),
		TourLookupCount:        atomic.LoadUint64(&m.tourLookupCount),
		TourLookupTotalNs:      atomic.LoadInt64(&m.tourLookupTotalNs),
		ToursCreated:           atomic.LoadUint64(&m.toursCreated),
		ToursUpdated:           atomic.LoadUint64(&m.toursUpdated),
		ToursDeleted:           atomic.LoadUint64(&m.toursDeleted),
		LoginSuccesses:         atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:          atomic.LoadUint64(&m.loginFailures),
		Signups:                atomic.LoadUint64(&m.signups),
		PasswordResets:         atomic.LoadUint64(&m.passwordResets),
		BookingsCreated:        atomic.LoadUint64(&m.bookingsCreated),
		ViewEventsPublished:    atomic.LoadUint64(&m.viewEventsPublished),
		ViewEventsDropped:      atomic.LoadUint64(&m.viewEventsDropped),
		ViewEventsProcessed:    atomic.LoadUint64(&m.viewEventsProcessed),
		ViewEventsFailed:       atomic.LoadUint64(&m.viewEventsFailed),
		ViewEventsDeadLettered: atomic.LoadUint64(&m.viewEventsDeadLettered),
	}
}

// IncTourCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncTourCacheHit() {
	atomic.AddUint64(&m.tourCacheHits, 1)
}

// IncTourCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncTourCacheMiss() {
	atomic.AddUint64(&m.tourCacheMisses, 1)
}

// ObserveTourLookupDuration records a tour lookup duration.
func (m *InMemoryRecorder) ObserveTourLookupDuration(duration time.Duration) {
	atomic.AddUint64(&m.tourLookupCount, 1)
	atomic.AddInt64(&m.tourLookupTotalNs, duration.Nanoseconds())
}

// IncTourCreated increments the tour created counter.
func (m *InMemoryRecorder) IncTourCreated() {
	atomic.AddUint64(&m.toursCreated, 1)
}

// IncTourUpdated increments the tour updated counter.
func (m *InMemoryRecorder) IncTourUpdated() {
	atomic.AddUint64(&m.toursUpdated, 1)
}

// IncTourDeleted increments the tour deleted counter.
func (m *InMemoryRecorder) IncTourDeleted() {
	atomic.AddUint64(&m.toursDeleted, 1)
}

// IncLoginSuccess increments the successful login counter.
func (m *InMemoryRecorder) IncLoginSuccess() {
	atomic.AddUint64(&m.loginSuccesses, 1)
}

// IncLoginFailure increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailure() {
	atomic.AddUint64(&m.loginFailures, 1)
}

// IncSignup increments the signup counter.
func (m *InMemoryRecorder) IncSignup() {
	atomic.AddUint64(&m.signups, 1)
}

// IncPasswordReset increments the password reset counter.
func (m *InMemoryRecorder) IncPasswordReset() {
	atomic.AddUint64(&m.passwordResets, 1)
}

// IncBookingCreated increments the booking counter.
func (m *InMemoryRecorder) IncBookingCreated() {
	atomic.AddUint64(&m.bookingsCreated, 1)
}

// IncViewEventPublished counts published view events by status.
func (m *InMemoryRecorder) IncViewEventPublished(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.viewEventsPublished, 1)
	case "dropped":
		atomic.AddUint64(&m.viewEventsDropped, 1)
	}
}

// IncViewEventProcessed counts processed view events by status.
func (m *InMemoryRecorder) IncViewEventProcessed(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.viewEventsProcessed, 1)
	case "failed":
		atomic.AddUint64(&m.viewEventsFailed, 1)
	case "dead_lettered":
		atomic.AddUint64(&m.viewEventsDeadLettered, 1)
	}
}

// ObserveViewBatchSize is recorded only by external backends.
func (m *InMemoryRecorder) ObserveViewBatchSize(size int) {}

// ObserveViewBatchDuration is recorded only by external backends.
func (m *InMemoryRecorder) ObserveViewBatchDuration(duration time.Duration) {}

// SetViewQueueDepth is recorded only by external backends.
func (m *InMemoryRecorder) SetViewQueueDepth(depth int64) {}

// ObserveViewIngestLag is recorded only by external backends.
func (m *InMemoryRecorder) ObserveViewIngestLag(lag time.Duration) {}
