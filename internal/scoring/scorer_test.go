package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"ats-screener/internal/ai"
	"ats-screener/internal/candidate"
	"ats-screener/internal/profile"
)

type stubAIScorer struct {
	score int
	err   error
	calls int
}

func (s *stubAIScorer) ScoreCriterion(_ context.Context, _ candidate.Criterion, _ string, _ *profile.Profile) (*ai.CriterionAssessment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &ai.CriterionAssessment{Score: s.score, Reasoning: "stub reasoning"}, nil
}

type hangingAIScorer struct{}

func (hangingAIScorer) ScoreCriterion(ctx context.Context, _ candidate.Criterion, _ string, _ *profile.Profile) (*ai.CriterionAssessment, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		UserID:   "u1",
		JobTitle: "Go Developer",
		Weights:  profile.DefaultWeights(),
	}
}

func TestEvaluateReturnsScore(t *testing.T) {
	scorer := NewSkills(Deps{Scorer: &stubAIScorer{score: 77}})

	res := scorer.Evaluate(context.Background(), "cv text", testProfile())
	if !res.Scored() {
		t.Fatalf("expected a scored result, got: %s", res.Reasoning)
	}

	if *res.Score != 77 {
		t.Fatalf("expected score 77, got %d", *res.Score)
	}
}

func TestEvaluateFailureYieldsSentinel(t *testing.T) {
	scorer := NewTitle(Deps{Scorer: &stubAIScorer{err: errors.New("service unavailable")}})

	res := scorer.Evaluate(context.Background(), "cv text", testProfile())
	if res.Scored() {
		t.Fatalf("expected unscored sentinel, got score %d", *res.Score)
	}

	if res.Reasoning == "" {
		t.Fatalf("expected reasoning to explain the failure")
	}
}

func TestEvaluateClampsOutOfRangeScores(t *testing.T) {
	cases := []struct {
		name  string
		score int
		want  int
	}{
		{name: "above", score: 250, want: 100},
		{name: "below", score: -5, want: 0},
		{name: "in range", score: 42, want: 42},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scorer := NewKeywords(Deps{Scorer: &stubAIScorer{score: tc.score}})

			res := scorer.Evaluate(context.Background(), "cv text", testProfile())
			if !res.Scored() || *res.Score != tc.want {
				t.Fatalf("expected score %d, got %+v", tc.want, res)
			}
		})
	}
}

func TestEvaluateTimesOut(t *testing.T) {
	scorer := NewEducation(Deps{Scorer: hangingAIScorer{}, Timeout: 10 * time.Millisecond})

	res := scorer.Evaluate(context.Background(), "cv text", testProfile())
	if res.Scored() {
		t.Fatalf("expected unscored sentinel on timeout")
	}
}

func TestEvaluateWithoutReasoningService(t *testing.T) {
	scorer := NewExperience(Deps{})

	res := scorer.Evaluate(context.Background(), "cv text", testProfile())
	if res.Scored() {
		t.Fatalf("expected unscored sentinel without a reasoning service")
	}
}

func TestAllReturnsFiveIndependentScorers(t *testing.T) {
	stub := &stubAIScorer{score: 50}
	scorers := All(Deps{Scorer: stub})

	if len(scorers) != len(candidate.Criteria()) {
		t.Fatalf("expected %d scorers, got %d", len(candidate.Criteria()), len(scorers))
	}

	seen := make(map[candidate.Criterion]bool)
	for _, s := range scorers {
		if seen[s.Criterion()] {
			t.Fatalf("duplicate criterion %s", s.Criterion())
		}
		seen[s.Criterion()] = true
		s.Evaluate(context.Background(), "cv text", testProfile())
	}

	if stub.calls != len(scorers) {
		t.Fatalf("expected %d evaluations, got %d", len(scorers), stub.calls)
	}
}
