package diag

import (
	"sync/atomic"
	"time"
)

// Metrics tracks silent-degradation episodes in the storage and sync paths.
// Failures in those paths are swallowed by contract; these counters are the
// observable record that a fallback happened.
type Metrics struct {
	remoteCalls         int64
	remoteErrors        int64
	remoteLatency       int64 // Total latency in nanoseconds
	localFallbacks      int64
	storageDegradations int64
	hydrationTimeouts   int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the current metrics snapshot
func GetMetrics() Metrics {
	return Metrics{
		remoteCalls:         atomic.LoadInt64(&globalMetrics.remoteCalls),
		remoteErrors:        atomic.LoadInt64(&globalMetrics.remoteErrors),
		remoteLatency:       atomic.LoadInt64(&globalMetrics.remoteLatency),
		localFallbacks:      atomic.LoadInt64(&globalMetrics.localFallbacks),
		storageDegradations: atomic.LoadInt64(&globalMetrics.storageDegradations),
		hydrationTimeouts:   atomic.LoadInt64(&globalMetrics.hydrationTimeouts),
	}
}

// ResetMetrics resets all metrics (useful for testing)
func ResetMetrics() {
	atomic.StoreInt64(&globalMetrics.remoteCalls, 0)
	atomic.StoreInt64(&globalMetrics.remoteErrors, 0)
	atomic.StoreInt64(&globalMetrics.remoteLatency, 0)
	atomic.StoreInt64(&globalMetrics.localFallbacks, 0)
	atomic.StoreInt64(&globalMetrics.storageDegradations, 0)
	atomic.StoreInt64(&globalMetrics.hydrationTimeouts, 0)
}

// RecordRemoteCall records an attempt against the remote service
func RecordRemoteCall(duration time.Duration, err error) {
	atomic.AddInt64(&globalMetrics.remoteCalls, 1)
	atomic.AddInt64(&globalMetrics.remoteLatency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&globalMetrics.remoteErrors, 1)
	}
}

// RecordLocalFallback records a remote operation served by local storage instead
func RecordLocalFallback() {
	atomic.AddInt64(&globalMetrics.localFallbacks, 1)
}

// RecordStorageDegradation records a durable-medium failure routed to the
// volatile fallback
func RecordStorageDegradation() {
	atomic.AddInt64(&globalMetrics.storageDegradations, 1)
}

// RecordHydrationTimeout records a hydration gate forced open by its safety timer
func RecordHydrationTimeout() {
	atomic.AddInt64(&globalMetrics.hydrationTimeouts, 1)
}

// RemoteCalls returns the number of remote attempts in this snapshot.
func (m Metrics) RemoteCalls() int64 { return m.remoteCalls }

// LocalFallbacks returns the number of operations served locally after a
// remote attempt failed or was skipped.
func (m Metrics) LocalFallbacks() int64 { return m.localFallbacks }

// StorageDegradations returns the number of durable-medium failures.
func (m Metrics) StorageDegradations() int64 { return m.storageDegradations }

// HydrationTimeouts returns the number of force-opened hydration gates.
func (m Metrics) HydrationTimeouts() int64 { return m.hydrationTimeouts }

// RemoteErrorRate returns the error rate as a percentage
func (m Metrics) RemoteErrorRate() float64 {
	if m.remoteCalls == 0 {
		return 0
	}
	return float64(m.remoteErrors) / float64(m.remoteCalls) * 100
}

// AverageRemoteLatency returns the average latency in milliseconds
func (m Metrics) AverageRemoteLatency() float64 {
	if m.remoteCalls == 0 {
		return 0
	}
	avgNs := float64(m.remoteLatency) / float64(m.remoteCalls)
	return avgNs / 1e6 // Convert nanoseconds to milliseconds
}
