package scoring

import (
	"testing"

	"ats-screener/internal/candidate"
	"ats-screener/internal/profile"
)

func scored(score int) Result {
	return Result{Score: &score}
}

func TestAggregateAllCriteriaScored(t *testing.T) {
	results := map[candidate.Criterion]Result{
		candidate.CriterionSkills:     scored(80),
		candidate.CriterionTitle:      scored(60),
		candidate.CriterionExperience: scored(70),
		candidate.CriterionEducation:  scored(90),
		candidate.CriterionKeywords:   scored(50),
	}

	final, ok := Aggregate(results, profile.DefaultWeights())
	if !ok {
		t.Fatalf("expected a final score")
	}

	// 80*40 + 60*20 + 70*20 + 90*10 + 50*10 = 7200 over 100 weight.
	if final != 72.00 {
		t.Fatalf("expected 72.00, got %v", final)
	}
}

func TestAggregateRenormalizesOverScoredSubset(t *testing.T) {
	// Three of five absent: final must be the weighted average of the two
	// present criteria only.
	results := map[candidate.Criterion]Result{
		candidate.CriterionSkills: scored(90),
		candidate.CriterionTitle:  scored(60),
		candidate.CriterionExperience: Unscored("timeout"),
		candidate.CriterionEducation:  Unscored("timeout"),
		candidate.CriterionKeywords:   Unscored("timeout"),
	}

	final, ok := Aggregate(results, profile.DefaultWeights())
	if !ok {
		t.Fatalf("expected a final score")
	}

	// (90*40 + 60*20) / 60 = 80.
	if final != 80.00 {
		t.Fatalf("expected 80.00, got %v", final)
	}
}

func TestAggregateWeightsNotSummingToHundred(t *testing.T) {
	results := map[candidate.Criterion]Result{
		candidate.CriterionSkills: scored(100),
		candidate.CriterionTitle:  scored(50),
	}

	// 3:1 ratio regardless of the absolute values.
	final, ok := Aggregate(results, profile.Weights{Skills: 3, Title: 1})
	if !ok {
		t.Fatalf("expected a final score")
	}

	if final != 87.50 {
		t.Fatalf("expected 87.50, got %v", final)
	}
}

func TestAggregateAllAbsentIsUnscorable(t *testing.T) {
	results := map[candidate.Criterion]Result{
		candidate.CriterionSkills: Unscored("timeout"),
		candidate.CriterionTitle:  Unscored("timeout"),
	}

	if _, ok := Aggregate(results, profile.DefaultWeights()); ok {
		t.Fatalf("expected unscorable, got a final score")
	}

	if _, ok := Aggregate(nil, profile.DefaultWeights()); ok {
		t.Fatalf("expected unscorable for empty results")
	}
}

func TestAggregateRoundsHalfToEven(t *testing.T) {
	cases := []struct {
		name   string
		scores [2]int
		want   float64
	}{
		// (86*3 + 87*5) / 8 = 86.625; the half cent rounds to the even 86.62.
		{name: "half rounds down to even", scores: [2]int{86, 87}, want: 86.62},
		// (87*3 + 86*5) / 8 = 86.375; the half cent rounds to the even 86.38.
		{name: "half rounds up to even", scores: [2]int{87, 86}, want: 86.38},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results := map[candidate.Criterion]Result{
				candidate.CriterionSkills: scored(tc.scores[0]),
				candidate.CriterionTitle:  scored(tc.scores[1]),
			}

			final, ok := Aggregate(results, profile.Weights{Skills: 3, Title: 5})
			if !ok {
				t.Fatalf("expected a final score")
			}

			if final != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, final)
			}
		})
	}
}
