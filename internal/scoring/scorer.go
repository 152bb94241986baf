package scoring

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ats-screener/internal/ai"
	"ats-screener/internal/candidate"
	"ats-screener/internal/profile"
)

const DefaultTimeout = 45 * time.Second

// Result is the outcome of one criterion evaluation. A nil Score is the
// sentinel "unscored" result; Reasoning then explains the failure.
type Result struct {
	Score     *int
	Reasoning string
	RedFlags  []string
}

func (r Result) Scored() bool {
	return r.Score != nil
}

// Unscored builds the sentinel result for a failed evaluation.
func Unscored(reason string) Result {
	return Result{Reasoning: reason}
}

// CriterionScorer evaluates one rubric dimension. Implementations never
// return an error: a failed evaluation yields the sentinel unscored result,
// so one criterion's failure cannot abort the others.
type CriterionScorer interface {
	Criterion() candidate.Criterion
	Evaluate(ctx context.Context, cvText string, p *profile.Profile) Result
}

// Deps holds the collaborators shared by all criterion scorers. The scorers
// themselves keep no mutable state.
type Deps struct {
	Scorer  ai.Scorer
	Timeout time.Duration
	Logger  *zap.Logger
}

type criterionScorer struct {
	criterion candidate.Criterion
	scorer    ai.Scorer
	timeout   time.Duration
	logger    *zap.Logger
}

func newCriterionScorer(criterion candidate.Criterion, deps Deps) CriterionScorer {
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &criterionScorer{
		criterion: criterion,
		scorer:    deps.Scorer,
		timeout:   timeout,
		logger:    logger,
	}
}

func NewSkills(deps Deps) CriterionScorer     { return newCriterionScorer(candidate.CriterionSkills, deps) }
func NewTitle(deps Deps) CriterionScorer      { return newCriterionScorer(candidate.CriterionTitle, deps) }
func NewExperience(deps Deps) CriterionScorer { return newCriterionScorer(candidate.CriterionExperience, deps) }
func NewEducation(deps Deps) CriterionScorer  { return newCriterionScorer(candidate.CriterionEducation, deps) }
func NewKeywords(deps Deps) CriterionScorer   { return newCriterionScorer(candidate.CriterionKeywords, deps) }

// All returns the five scorers in rubric order.
func All(deps Deps) []CriterionScorer {
	return []CriterionScorer{
		NewSkills(deps),
		NewTitle(deps),
		NewExperience(deps),
		NewEducation(deps),
		NewKeywords(deps),
	}
}

func (s *criterionScorer) Criterion() candidate.Criterion {
	return s.criterion
}

func (s *criterionScorer) Evaluate(ctx context.Context, cvText string, p *profile.Profile) Result {
	if s.scorer == nil {
		return Unscored("no reasoning service configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	assessment, err := s.scorer.ScoreCriterion(ctx, s.criterion, cvText, p)
	if err != nil {
		s.logger.Warn("criterion evaluation failed",
			zap.String("criterion", string(s.criterion)),
			zap.Error(err),
		)
		return Unscored(fmt.Sprintf("evaluation failed: %v", err))
	}

	score := clampScore(assessment.Score)
	return Result{
		Score:     &score,
		Reasoning: assessment.Reasoning,
		RedFlags:  assessment.RedFlags,
	}
}

// clampScore corrects out-of-range scorer output at the boundary instead of
// propagating it.
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
