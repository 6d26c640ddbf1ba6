package models

import (
	"fmt"
	"time"
)

// SyncStatus is the state of a stats sync.
type SyncStatus string

const (
	SyncRunning   SyncStatus = "running"
	SyncCompleted SyncStatus = "completed"
	SyncFailed    SyncStatus = "failed"
)

// SyncRun records one Spotify stats sync for a user.
type SyncRun struct {
	ID          string     `json:"id"`
	UserID      int64      `json:"-"`
	Status      SyncStatus `json:"status"`
	TimeRanges  []string   `json:"timeRanges"`
	Tracks      int        `json:"tracks"`
	Artists     int        `json:"artists"`
	Genres      int        `json:"genres"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (s *SyncRun) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("sync run id is required")
	}
	if s.UserID <= 0 {
		return fmt.Errorf("sync run user is required")
	}
	switch s.Status {
	case SyncRunning, SyncCompleted, SyncFailed:
	default:
		return fmt.Errorf("invalid sync status %q", s.Status)
	}
	return nil
}

// Duration returns how long the run took, or zero while it is running.
func (s *SyncRun) Duration() time.Duration {
	if s.CompletedAt == nil {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}
