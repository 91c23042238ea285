package monitor

import (
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Metrics holds runtime counters for the bank node
type Metrics struct {
	// Protocol commands fully processed (response written)
	CommandsProcessed int64
	// Peer port probes attempted and failed
	ForwardAttempts int64
	ForwardFailures int64
	// Currently open client connections
	ActiveConns int64
	// Server start time
	ServerStart time.Time
}

// Global metrics instance
var Global = &Metrics{
	ServerStart: time.Now(),
}

// RecordCommand counts one fully processed protocol command.
func RecordCommand() {
	atomic.AddInt64(&Global.CommandsProcessed, 1)
}

// RecordForwardAttempt counts one peer port probe.
func RecordForwardAttempt() {
	atomic.AddInt64(&Global.ForwardAttempts, 1)
}

// RecordForwardFailure counts one failed peer port probe.
func RecordForwardFailure() {
	atomic.AddInt64(&Global.ForwardFailures, 1)
}

// ConnOpened and ConnClosed track the live connection count.
func ConnOpened() {
	atomic.AddInt64(&Global.ActiveConns, 1)
}

func ConnClosed() {
	atomic.AddInt64(&Global.ActiveConns, -1)
}

// LogPeriodic logs runtime metrics at the specified interval
func LogPeriodic(log *zap.SugaredLogger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Infof("[Metrics] Goroutines=%d | HeapAlloc=%dMB | Conns=%d | Commands=%d | ForwardAttempts=%d | ForwardFailures=%d",
			runtime.NumGoroutine(),
			m.HeapAlloc/1024/1024,
			atomic.LoadInt64(&Global.ActiveConns),
			atomic.LoadInt64(&Global.CommandsProcessed),
			atomic.LoadInt64(&Global.ForwardAttempts),
			atomic.LoadInt64(&Global.ForwardFailures),
		)
	}
}
