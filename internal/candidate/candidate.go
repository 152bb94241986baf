package candidate

import (
	"encoding/json"
	"os"
	"time"

	"ats-screener/internal/profile"
)

// Status is the lifecycle state of a candidate record.
type Status string

const (
	// StatusPending marks a freshly ingested record.
	StatusPending Status = "pending"
	// StatusFiltered marks a record rejected by hard filters before scoring.
	StatusFiltered Status = "filtered"
	// StatusScored marks a record whose five criteria have been evaluated.
	StatusScored Status = "scored"
	// StatusRanked marks a record retained in a scan's top-N output.
	StatusRanked Status = "ranked"
)

// Criterion is one axis of candidate evaluation.
type Criterion string

const (
	CriterionSkills     Criterion = "skills"
	CriterionTitle      Criterion = "title"
	CriterionExperience Criterion = "experience"
	CriterionEducation  Criterion = "education"
	CriterionKeywords   Criterion = "keywords"
)

// Criteria returns all criteria in rubric order.
func Criteria() []Criterion {
	return []Criterion{
		CriterionSkills,
		CriterionTitle,
		CriterionExperience,
		CriterionEducation,
		CriterionKeywords,
	}
}

// CriterionResult holds the outcome of one criterion evaluation. A nil Score
// is the sentinel "unscored" result: the reasoning then explains the failure.
type CriterionResult struct {
	Score     *int   `json:"score,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

func (r CriterionResult) Scored() bool {
	return r.Score != nil
}

// Record is one CV evaluated against one profile. Identity is
// (UserID, DedupKey); re-ingesting the same source document updates the
// record instead of duplicating it.
type Record struct {
	ID       string `json:"id,omitempty"`
	UserID   string `json:"user_id"`
	RunID    string `json:"run_id,omitempty"`
	DedupKey string `json:"dedup_key"`

	Source     string `json:"source,omitempty"`
	SourceRef  string `json:"source_ref,omitempty"`
	FileName   string `json:"file_name,omitempty"`

	FullName          string   `json:"full_name,omitempty"`
	Email             string   `json:"email,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Location          string   `json:"location,omitempty"`
	YearsOfExperience *float64 `json:"years_of_experience,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	EducationLevel    string   `json:"education_level,omitempty"`
	CurrentTitle      string   `json:"current_title,omitempty"`
	CVText            string   `json:"cv_text,omitempty"`

	Status            Status                        `json:"status"`
	Criteria          map[Criterion]CriterionResult `json:"criteria,omitempty"`
	FinalScore        *float64                      `json:"final_score,omitempty"`
	OverallAssessment string                        `json:"overall_assessment,omitempty"`
	RedFlags          []string                      `json:"red_flags,omitempty"`
	FilterReasons     []string                      `json:"filter_reasons,omitempty"`

	// Weights is the profile weight snapshot taken at ingestion time. Later
	// profile edits never change historical scores.
	Weights profile.Weights `json:"weights"`

	IngestedAt  time.Time  `json:"ingested_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// SetResult records one criterion outcome on the record.
func (r *Record) SetResult(c Criterion, res CriterionResult) {
	if r.Criteria == nil {
		r.Criteria = make(map[Criterion]CriterionResult, len(Criteria()))
	}
	r.Criteria[c] = res
}

// Candidates is a mutable list of records with report helpers.
type Candidates struct {
	Items []*Record
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

func (c *Candidates) FindByDedupKey(key string) *Record {
	for _, rec := range c.Items {
		if rec.DedupKey == key {
			return rec
		}
	}
	return nil
}

// WithStatus returns the records currently in the given status.
func (c *Candidates) WithStatus(status Status) []*Record {
	out := make([]*Record, 0, len(c.Items))
	for _, rec := range c.Items {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out
}

func (c *Candidates) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "candidates_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// Report summarizes the list for human inspection, one row per candidate.
func (c *Candidates) Report() []map[string]string {
	report := make([]map[string]string, 0, len(c.Items))
	for _, rec := range c.Items {
		row := map[string]string{
			"name":     rec.FullName,
			"title":    rec.CurrentTitle,
			"location": rec.Location,
			"status":   string(rec.Status),
			"file":     rec.FileName,
		}
		if rec.FinalScore != nil {
			row["final_score"] = formatScore(*rec.FinalScore)
		}
		report = append(report, row)
	}
	return report
}

func formatScore(score float64) string {
	b, _ := json.Marshal(score)
	return string(b)
}
