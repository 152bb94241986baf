package profile

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultTopN          = 10
	DefaultMaxExperience = 99
)

// Weights holds the non-negative integer weights for the five scoring
// criteria. They do not have to sum to 100 in configuration; the aggregator
// normalizes them at evaluation time.
type Weights struct {
	Skills     int `mapstructure:"skills" json:"skills"`
	Title      int `mapstructure:"title" json:"title"`
	Experience int `mapstructure:"experience" json:"experience"`
	Education  int `mapstructure:"education" json:"education"`
	Keywords   int `mapstructure:"keywords" json:"keywords"`
}

// DefaultWeights mirrors the default rubric: skills dominate, title and
// experience matter, education and keywords round it out.
func DefaultWeights() Weights {
	return Weights{
		Skills:     40,
		Title:      20,
		Experience: 20,
		Education:  10,
		Keywords:   10,
	}
}

func (w Weights) Total() int {
	return w.Skills + w.Title + w.Experience + w.Education + w.Keywords
}

func (w Weights) Validate() error {
	for name, v := range map[string]int{
		"skills":     w.Skills,
		"title":      w.Title,
		"experience": w.Experience,
		"education":  w.Education,
		"keywords":   w.Keywords,
	} {
		if v < 0 {
			return fmt.Errorf("weight %q must not be negative, got %d", name, v)
		}
	}

	if w.Total() == 0 {
		return fmt.Errorf("at least one weight must be positive")
	}

	return nil
}

// Profile is the configured target-role definition driving filtering and
// scoring. One active profile exists per user; candidates are scored against
// a snapshot of its weights taken at ingestion time.
type Profile struct {
	UserID           string    `mapstructure:"-" json:"user_id"`
	JobTitle         string    `mapstructure:"job-title" json:"job_title"`
	JobDescription   string    `mapstructure:"job-description" json:"job_description"`
	RequiredSkills   []string  `mapstructure:"required-skills" json:"required_skills"`
	MustHaveSkills   []string  `mapstructure:"must-have-skills" json:"must_have_skills"`
	AllowedLocations []string  `mapstructure:"allowed-locations" json:"allowed_locations"`
	MinExperience    int       `mapstructure:"min-experience" json:"min_experience"`
	MaxExperience    int       `mapstructure:"max-experience" json:"max_experience"`
	Weights          Weights   `mapstructure:"weights" json:"weights"`
	TopN             int       `mapstructure:"top-n" json:"top_n"`
	MinScore         int       `mapstructure:"min-score" json:"min_score"`
	CreatedAt        time.Time `mapstructure:"-" json:"created_at"`
	UpdatedAt        time.Time `mapstructure:"-" json:"updated_at"`
}

// Validate rejects invalid profiles synchronously, before a run starts.
func (p *Profile) Validate() error {
	if p == nil {
		return fmt.Errorf("profile is required")
	}

	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("profile owner is required")
	}

	if strings.TrimSpace(p.JobTitle) == "" {
		return fmt.Errorf("job title is required")
	}

	if p.MinExperience < 0 {
		return fmt.Errorf("min-experience must not be negative, got %d", p.MinExperience)
	}

	if p.MaxExperience < p.MinExperience {
		return fmt.Errorf("max-experience (%d) must not be less than min-experience (%d)", p.MaxExperience, p.MinExperience)
	}

	if p.TopN < 0 {
		return fmt.Errorf("top-n must not be negative, got %d", p.TopN)
	}

	if p.MinScore < 0 || p.MinScore > 100 {
		return fmt.Errorf("min-score must be within [0, 100], got %d", p.MinScore)
	}

	return p.Weights.Validate()
}

// ApplyDefaults fills zero values that have configured defaults. It never
// touches explicitly configured fields.
func (p *Profile) ApplyDefaults() {
	if p.TopN == 0 {
		p.TopN = DefaultTopN
	}

	if p.MaxExperience == 0 {
		p.MaxExperience = DefaultMaxExperience
	}

	if p.Weights.Total() == 0 {
		p.Weights = DefaultWeights()
	}
}

// ExperienceBounded reports whether the experience hard filter is configured
// at all. Bounds at their defaults mean the filter is off.
func (p *Profile) ExperienceBounded() bool {
	return p.MinExperience > 0 || p.MaxExperience < DefaultMaxExperience
}
