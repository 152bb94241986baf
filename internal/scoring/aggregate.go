package scoring

import (
	"math"

	"ats-screener/internal/candidate"
	"ats-screener/internal/profile"
)

// Aggregate blends the five criterion results into a final score using the
// profile weights. Weights are renormalized over only the criteria that
// produced a score, so partial scoring still yields a meaningful result.
// When no criterion scored, ok is false and the candidate is unscorable.
//
// Rounding is to two decimals, half to even.
func Aggregate(results map[candidate.Criterion]Result, w profile.Weights) (final float64, ok bool) {
	var weighted float64
	var total int

	for _, criterion := range candidate.Criteria() {
		res, present := results[criterion]
		if !present || !res.Scored() {
			continue
		}

		weight := weightOf(w, criterion)
		weighted += float64(*res.Score) * float64(weight)
		total += weight
	}

	if total == 0 {
		return 0, false
	}

	return math.RoundToEven(weighted/float64(total)*100) / 100, true
}

func weightOf(w profile.Weights, criterion candidate.Criterion) int {
	switch criterion {
	case candidate.CriterionSkills:
		return w.Skills
	case candidate.CriterionTitle:
		return w.Title
	case candidate.CriterionExperience:
		return w.Experience
	case candidate.CriterionEducation:
		return w.Education
	case candidate.CriterionKeywords:
		return w.Keywords
	default:
		return 0
	}
}
