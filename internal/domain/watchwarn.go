package domain

import (
	"time"

	"github.com/couchcryptid/storm-track-verify/internal/atcf"
)

// WatchWarnBulletin is the most severe watch or warning issued for a storm
// at one time. Issued already includes the configured offset.
type WatchWarnBulletin struct {
	StormID string
	Issued  time.Time
	Level   atcf.WatchWarn
}
