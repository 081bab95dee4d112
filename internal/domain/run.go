package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run identifies one verification pass. Every record it produces carries
// the run ID so downstream consumers can replace a previous run's output.
type Run struct {
	ID        string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
}

// NewRun starts a run with a random ID.
func NewRun() Run {
	return Run{ID: uuid.NewString(), StartedAt: clock.Now().UTC()}
}
