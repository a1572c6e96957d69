package database

import (
	"database/sql"
	"sync/atomic"
	"time"
)

// QueryStats keeps running counters for the health endpoint. Prometheus
// gets the same observations through the metrics package.
type QueryStats struct {
	queryCount     int64
	queryDuration  int64 // nanoseconds
	errorCount     int64
	slowQueryCount int64

	slowQueryThreshold time.Duration
}

// StatsSnapshot is a point-in-time view of QueryStats.
type StatsSnapshot struct {
	QueryCount       int64         `json:"query_count"`
	ErrorCount       int64         `json:"error_count"`
	SlowQueryCount   int64         `json:"slow_query_count"`
	AvgQueryDuration time.Duration `json:"avg_query_duration"`
	DBStats          sql.DBStats   `json:"db_stats"`
	Timestamp        time.Time     `json:"timestamp"`
}

// NewQueryStats creates counters using threshold to classify slow queries.
func NewQueryStats(threshold time.Duration) *QueryStats {
	if threshold <= 0 {
		threshold = 100 * time.Millisecond
	}
	return &QueryStats{slowQueryThreshold: threshold}
}

// Record adds one statement and reports whether it was slow.
func (s *QueryStats) Record(duration time.Duration, err error) bool {
	atomic.AddInt64(&s.queryCount, 1)
	atomic.AddInt64(&s.queryDuration, int64(duration))
	if err != nil && err != sql.ErrNoRows {
		atomic.AddInt64(&s.errorCount, 1)
	}
	if duration > s.slowQueryThreshold {
		atomic.AddInt64(&s.slowQueryCount, 1)
		return true
	}
	return false
}

// Snapshot reads the counters.
func (s *QueryStats) Snapshot() *StatsSnapshot {
	count := atomic.LoadInt64(&s.queryCount)
	total := atomic.LoadInt64(&s.queryDuration)

	var avg time.Duration
	if count > 0 {
		avg = time.Duration(total / count)
	}
	return &StatsSnapshot{
		QueryCount:       count,
		ErrorCount:       atomic.LoadInt64(&s.errorCount),
		SlowQueryCount:   atomic.LoadInt64(&s.slowQueryCount),
		AvgQueryDuration: avg,
		Timestamp:        time.Now(),
	}
}
