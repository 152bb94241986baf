package scan

import (
	"context"
	"time"

	"ats-screener/internal/candidate"
	"ats-screener/internal/profile"
)

// Status is the lifecycle state of a scan run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Counters track scan progress. They are derived convenience numbers; the
// candidate records remain the source of truth.
type Counters struct {
	Found       int `json:"found"`
	Processed   int `json:"processed"`
	Filtered    int `json:"filtered"`
	Scored      int `json:"scored"`
	Shortlisted int `json:"shortlisted"`
}

// Run is one execution of the ingestion-score-rank pipeline for one user.
type Run struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Status      Status     `json:"status"`
	Counters    Counters   `json:"counters"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Store is the persistence boundary the orchestrator writes through. The
// storage layer enforces the uniqueness constraints: one active profile per
// user and one candidate record per (user, dedup key).
type Store interface {
	SaveProfile(ctx context.Context, p *profile.Profile) error
	GetProfile(ctx context.Context, userID string) (*profile.Profile, error)

	// UpsertCandidate inserts or, for an existing (user, dedup key) pair,
	// replaces the record.
	UpsertCandidate(ctx context.Context, rec *candidate.Record) error
	// GetCandidate returns nil without error when no record exists.
	GetCandidate(ctx context.Context, userID, dedupKey string) (*candidate.Record, error)
	CandidatesByRun(ctx context.Context, runID string) ([]*candidate.Record, error)

	CreateRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
}
