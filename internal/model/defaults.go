package model

import "time"

// Shared defaults used across the viewer and its components.
const (
	// DefaultRedisplayDebounce separates "entries applied" from "redisplay
	// executed" so bursts of appends coalesce into one visual update.
	DefaultRedisplayDebounce = 10 * time.Millisecond

	// DefaultScrollDelay separates "redisplay executed" from
	// "scroll-to-end" when the view never reports redisplay completion.
	DefaultScrollDelay = 100 * time.Millisecond

	DefaultLineBuffer = 1000
	DefaultHTTPLimit  = 200
)
