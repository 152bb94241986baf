// Package postgres persists profiles, candidate records and scan runs in
// PostgreSQL. It is the single implementation of the orchestrator's Store
// boundary; the schema enforces the uniqueness rules the engine relies on.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"ats-screener/internal/candidate"
	"ats-screener/internal/profile"
	"ats-screener/internal/scan"
)

type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens a pooled connection and verifies it with a ping.
func New(dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("closing database connection", zap.Error(err))
	}
}

// Migrate creates the schema when it does not exist yet. Safe to run on
// every startup.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id           TEXT PRIMARY KEY,
			job_title         TEXT NOT NULL,
			job_description   TEXT NOT NULL DEFAULT '',
			required_skills   TEXT[] NOT NULL DEFAULT '{}',
			must_have_skills  TEXT[] NOT NULL DEFAULT '{}',
			allowed_locations TEXT[] NOT NULL DEFAULT '{}',
			min_experience    INTEGER NOT NULL DEFAULT 0,
			max_experience    INTEGER NOT NULL DEFAULT 99,
			weights           JSONB NOT NULL,
			top_n             INTEGER NOT NULL DEFAULT 10,
			min_score         INTEGER NOT NULL DEFAULT 0,
			created_at        TIMESTAMPTZ NOT NULL,
			updated_at        TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS candidates (
			id                  TEXT PRIMARY KEY,
			user_id             TEXT NOT NULL,
			run_id              TEXT NOT NULL DEFAULT '',
			dedup_key           TEXT NOT NULL,
			source              TEXT NOT NULL DEFAULT '',
			source_ref          TEXT NOT NULL DEFAULT '',
			file_name           TEXT NOT NULL DEFAULT '',
			full_name           TEXT NOT NULL DEFAULT '',
			email               TEXT NOT NULL DEFAULT '',
			phone               TEXT NOT NULL DEFAULT '',
			location            TEXT NOT NULL DEFAULT '',
			years_of_experience DOUBLE PRECISION,
			skills              TEXT[] NOT NULL DEFAULT '{}',
			education_level     TEXT NOT NULL DEFAULT '',
			current_title       TEXT NOT NULL DEFAULT '',
			cv_text             TEXT NOT NULL DEFAULT '',
			status              TEXT NOT NULL,
			criteria            JSONB,
			final_score         DOUBLE PRECISION,
			overall_assessment  TEXT NOT NULL DEFAULT '',
			red_flags           TEXT[] NOT NULL DEFAULT '{}',
			filter_reasons      TEXT[] NOT NULL DEFAULT '{}',
			weights             JSONB NOT NULL,
			ingested_at         TIMESTAMPTZ NOT NULL,
			processed_at        TIMESTAMPTZ,
			UNIQUE (user_id, dedup_key)
		)`,
		`CREATE INDEX IF NOT EXISTS candidates_run_id_idx ON candidates (run_id)`,
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			status       TEXT NOT NULL,
			found        INTEGER NOT NULL DEFAULT 0,
			processed    INTEGER NOT NULL DEFAULT 0,
			filtered     INTEGER NOT NULL DEFAULT 0,
			scored       INTEGER NOT NULL DEFAULT 0,
			shortlisted  INTEGER NOT NULL DEFAULT 0,
			error        TEXT NOT NULL DEFAULT '',
			started_at   TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
	}

	return nil
}

func (s *Store) SaveProfile(ctx context.Context, p *profile.Profile) error {
	weights, err := json.Marshal(p.Weights)
	if err != nil {
		return fmt.Errorf("encoding weights: %w", err)
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query := `INSERT INTO profiles (user_id, job_title, job_description, required_skills,
	              must_have_skills, allowed_locations, min_experience, max_experience,
	              weights, top_n, min_score, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          ON CONFLICT (user_id) DO UPDATE
	            SET job_title = EXCLUDED.job_title,
	                job_description = EXCLUDED.job_description,
	                required_skills = EXCLUDED.required_skills,
	                must_have_skills = EXCLUDED.must_have_skills,
	                allowed_locations = EXCLUDED.allowed_locations,
	                min_experience = EXCLUDED.min_experience,
	                max_experience = EXCLUDED.max_experience,
	                weights = EXCLUDED.weights,
	                top_n = EXCLUDED.top_n,
	                min_score = EXCLUDED.min_score,
	                updated_at = EXCLUDED.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		p.UserID,
		p.JobTitle,
		p.JobDescription,
		pq.Array(p.RequiredSkills),
		pq.Array(p.MustHaveSkills),
		pq.Array(p.AllowedLocations),
		p.MinExperience,
		p.MaxExperience,
		weights,
		p.TopN,
		p.MinScore,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	query := `SELECT user_id, job_title, job_description, required_skills, must_have_skills,
	              allowed_locations, min_experience, max_experience, weights, top_n,
	              min_score, created_at, updated_at
	          FROM profiles WHERE user_id = $1`

	p := &profile.Profile{}
	var weights []byte

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.JobTitle,
		&p.JobDescription,
		pq.Array(&p.RequiredSkills),
		pq.Array(&p.MustHaveSkills),
		pq.Array(&p.AllowedLocations),
		&p.MinExperience,
		&p.MaxExperience,
		&weights,
		&p.TopN,
		&p.MinScore,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile for user %s not found", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	if err := json.Unmarshal(weights, &p.Weights); err != nil {
		return nil, fmt.Errorf("decoding weights: %w", err)
	}

	return p, nil
}

func (s *Store) UpsertCandidate(ctx context.Context, rec *candidate.Record) error {
	criteria, err := json.Marshal(rec.Criteria)
	if err != nil {
		return fmt.Errorf("encoding criteria: %w", err)
	}

	weights, err := json.Marshal(rec.Weights)
	if err != nil {
		return fmt.Errorf("encoding weights: %w", err)
	}

	query := `INSERT INTO candidates (id, user_id, run_id, dedup_key, source, source_ref,
	              file_name, full_name, email, phone, location, years_of_experience,
	              skills, education_level, current_title, cv_text, status, criteria,
	              final_score, overall_assessment, red_flags, filter_reasons, weights,
	              ingested_at, processed_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
	              $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	          ON CONFLICT (user_id, dedup_key) DO UPDATE
	            SET run_id = EXCLUDED.run_id,
	                source = EXCLUDED.source,
	                source_ref = EXCLUDED.source_ref,
	                file_name = EXCLUDED.file_name,
	                full_name = EXCLUDED.full_name,
	                email = EXCLUDED.email,
	                phone = EXCLUDED.phone,
	                location = EXCLUDED.location,
	                years_of_experience = EXCLUDED.years_of_experience,
	                skills = EXCLUDED.skills,
	                education_level = EXCLUDED.education_level,
	                current_title = EXCLUDED.current_title,
	                cv_text = EXCLUDED.cv_text,
	                status = EXCLUDED.status,
	                criteria = EXCLUDED.criteria,
	                final_score = EXCLUDED.final_score,
	                overall_assessment = EXCLUDED.overall_assessment,
	                red_flags = EXCLUDED.red_flags,
	                filter_reasons = EXCLUDED.filter_reasons,
	                weights = EXCLUDED.weights,
	                processed_at = EXCLUDED.processed_at`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.RunID,
		rec.DedupKey,
		rec.Source,
		rec.SourceRef,
		rec.FileName,
		rec.FullName,
		rec.Email,
		rec.Phone,
		rec.Location,
		rec.YearsOfExperience,
		pq.Array(rec.Skills),
		rec.EducationLevel,
		rec.CurrentTitle,
		rec.CVText,
		string(rec.Status),
		criteria,
		rec.FinalScore,
		rec.OverallAssessment,
		pq.Array(rec.RedFlags),
		pq.Array(rec.FilterReasons),
		weights,
		rec.IngestedAt,
		rec.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("saving candidate %s: %w", rec.DedupKey, err)
	}
	return nil
}

const candidateColumns = `id, user_id, run_id, dedup_key, source, source_ref, file_name,
	full_name, email, phone, location, years_of_experience, skills, education_level,
	current_title, cv_text, status, criteria, final_score, overall_assessment,
	red_flags, filter_reasons, weights, ingested_at, processed_at`

func (s *Store) GetCandidate(ctx context.Context, userID, dedupKey string) (*candidate.Record, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE user_id = $1 AND dedup_key = $2`

	rec, err := scanCandidate(s.db.QueryRowContext(ctx, query, userID, dedupKey))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading candidate %s: %w", dedupKey, err)
	}
	return rec, nil
}

func (s *Store) CandidatesByRun(ctx context.Context, runID string) ([]*candidate.Record, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE run_id = $1 ORDER BY ingested_at`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("loading candidates for run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []*candidate.Record
	for rows.Next() {
		rec, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("loading candidates for run %s: %w", runID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (*candidate.Record, error) {
	rec := &candidate.Record{}
	var (
		years       sql.NullFloat64
		criteria    []byte
		finalScore  sql.NullFloat64
		weights     []byte
		processedAt sql.NullTime
		status      string
	)

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.RunID,
		&rec.DedupKey,
		&rec.Source,
		&rec.SourceRef,
		&rec.FileName,
		&rec.FullName,
		&rec.Email,
		&rec.Phone,
		&rec.Location,
		&years,
		pq.Array(&rec.Skills),
		&rec.EducationLevel,
		&rec.CurrentTitle,
		&rec.CVText,
		&status,
		&criteria,
		&finalScore,
		&rec.OverallAssessment,
		pq.Array(&rec.RedFlags),
		pq.Array(&rec.FilterReasons),
		&weights,
		&rec.IngestedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = candidate.Status(status)

	if years.Valid {
		rec.YearsOfExperience = &years.Float64
	}
	if finalScore.Valid {
		rec.FinalScore = &finalScore.Float64
	}
	if processedAt.Valid {
		t := processedAt.Time
		rec.ProcessedAt = &t
	}

	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &rec.Criteria); err != nil {
			return nil, fmt.Errorf("decoding criteria: %w", err)
		}
	}
	if len(weights) > 0 {
		if err := json.Unmarshal(weights, &rec.Weights); err != nil {
			return nil, fmt.Errorf("decoding weights: %w", err)
		}
	}

	return rec, nil
}

func (s *Store) CreateRun(ctx context.Context, run *scan.Run) error {
	query := `INSERT INTO scan_runs (id, user_id, status, found, processed, filtered,
	              scored, shortlisted, error, started_at, completed_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.UserID,
		string(run.Status),
		run.Counters.Found,
		run.Counters.Processed,
		run.Counters.Filtered,
		run.Counters.Scored,
		run.Counters.Shortlisted,
		run.Error,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("creating scan run: %w", err)
	}
	return nil
}

func (s *Store) UpdateRun(ctx context.Context, run *scan.Run) error {
	query := `UPDATE scan_runs
	          SET status = $2, found = $3, processed = $4, filtered = $5, scored = $6,
	              shortlisted = $7, error = $8, completed_at = $9
	          WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query,
		run.ID,
		string(run.Status),
		run.Counters.Found,
		run.Counters.Processed,
		run.Counters.Filtered,
		run.Counters.Scored,
		run.Counters.Shortlisted,
		run.Error,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("updating scan run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("scan run %s not found", run.ID)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, runID string) (*scan.Run, error) {
	query := `SELECT id, user_id, status, found, processed, filtered, scored,
	              shortlisted, error, started_at, completed_at
	          FROM scan_runs WHERE id = $1`

	run := &scan.Run{}
	var (
		status      string
		completedAt sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&run.ID,
		&run.UserID,
		&status,
		&run.Counters.Found,
		&run.Counters.Processed,
		&run.Counters.Filtered,
		&run.Counters.Scored,
		&run.Counters.Shortlisted,
		&run.Error,
		&run.StartedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scan run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading scan run: %w", err)
	}

	run.Status = scan.Status(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}

	return run, nil
}
