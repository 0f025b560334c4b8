package models

import "time"

// Outcome is the terminal state reached by a sync pass.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeOffline Outcome = "offline"
	OutcomeFailed  Outcome = "failed"
)

// SyncRun records one completed sync pass for a genre.
//
// Offline runs that were caused by a failed fetch or write keep the cause in Error.
type SyncRun struct {
	ID         string    `json:"id"`
	Genre      Genre     `json:"genre"`
	Outcome    Outcome   `json:"outcome"`
	SongCount  int       `json:"song_count"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the pass took.
func (r SyncRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
