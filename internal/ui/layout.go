package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutExtraWideWidth is the threshold for extra-wide layouts.
	LayoutExtraWideWidth = 160
)

// Activity log limits.
const (
	// ActivityLineLimit is the number of log lines read from the tail.
	ActivityLineLimit = 2000
)

// Timing constants.
const (
	// DefaultUIInterval is how often the UI re-reads store snapshots.
	DefaultUIInterval = 250 * time.Millisecond

	// ActivityRefreshInterval is how often the activity view re-reads the log.
	ActivityRefreshInterval = 2 * time.Second

	// StatusTTL is how long a transient status message stays in the header.
	StatusTTL = 6 * time.Second
)
