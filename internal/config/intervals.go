package config

import "time"

const (
	// DefaultSweepWindow is how long a sweep stays open after its first ward
	DefaultSweepWindow = 10 * time.Minute

	// DefaultScanThrottle is the minimum spacing between ward requests to the host
	DefaultScanThrottle = 100 * time.Millisecond
)

// Worker intervals
const (
	// SnapshotInterval defines how often to save changed zones to Redis
	SnapshotInterval = 10 * time.Second

	// HistoryFlushInterval defines how often buffered observations are written to PostgreSQL
	HistoryFlushInterval = 30 * time.Second
)
