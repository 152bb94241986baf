package ai

import (
	"context"

	"ats-screener/internal/candidate"
	"ats-screener/internal/profile"
)

// CriterionAssessment is the reasoning service's answer for one criterion.
// The score is already clamped to [0, 100] at the provider boundary.
type CriterionAssessment struct {
	Score     int
	Reasoning string
	RedFlags  []string
	Raw       string
}

// Extraction holds candidate facts parsed out of raw CV text.
type Extraction struct {
	Name              string   `mapstructure:"name"`
	Email             string   `mapstructure:"email"`
	Phone             string   `mapstructure:"phone"`
	Location          string   `mapstructure:"location"`
	CurrentTitle      string   `mapstructure:"current_title"`
	EducationLevel    string   `mapstructure:"education_level"`
	YearsOfExperience *float64 `mapstructure:"years_of_experience"`
	Skills            []string `mapstructure:"skills"`
	Summary           string   `mapstructure:"summary"`
}

// Scorer evaluates one criterion of a CV against a job profile. Calls are
// fallible; callers must treat a failure as a sentinel unscored result, never
// as a reason to abort the candidate's evaluation.
type Scorer interface {
	ScoreCriterion(ctx context.Context, criterion candidate.Criterion, cvText string, p *profile.Profile) (*CriterionAssessment, error)
}

// Extractor pulls structured candidate facts from raw CV text.
type Extractor interface {
	Extract(ctx context.Context, cvText string) (*Extraction, error)
}
