package ranking

import (
	"fmt"
	"sort"
	"strings"

	"ats-screener/internal/candidate"
	"ats-screener/internal/profile"
)

// HardFilter applies the profile's hard constraints to a record before any
// scoring happens. It short-circuits on the first failed constraint so the
// scoring cost is skipped entirely. Order: experience bounds, must-have
// skills, allowed locations.
func HardFilter(rec *candidate.Record, p *profile.Profile) (bool, []string) {
	if passed, reason := checkExperience(rec, p); !passed {
		return false, []string{reason}
	}

	if passed, reason := checkMustHaveSkills(rec, p); !passed {
		return false, []string{reason}
	}

	if passed, reason := checkLocation(rec, p); !passed {
		return false, []string{reason}
	}

	return true, nil
}

// checkExperience rejects candidates outside the configured bounds. Unknown
// experience is allowed to proceed; the experience criterion scorer will
// judge it instead.
func checkExperience(rec *candidate.Record, p *profile.Profile) (bool, string) {
	if !p.ExperienceBounded() || rec.YearsOfExperience == nil {
		return true, ""
	}

	years := *rec.YearsOfExperience
	if years < float64(p.MinExperience) {
		return false, fmt.Sprintf("experience %.1f years below minimum %d years", years, p.MinExperience)
	}

	if years > float64(p.MaxExperience) {
		return false, fmt.Sprintf("experience %.1f years above maximum %d years", years, p.MaxExperience)
	}

	return true, ""
}

// checkMustHaveSkills rejects candidates with none of the must-have skills in
// their skill set. Matching is case-insensitive on exact skill tokens.
func checkMustHaveSkills(rec *candidate.Record, p *profile.Profile) (bool, string) {
	if len(p.MustHaveSkills) == 0 {
		return true, ""
	}

	have := make(map[string]bool, len(rec.Skills))
	for _, skill := range rec.Skills {
		have[normalizeToken(skill)] = true
	}

	for _, skill := range p.MustHaveSkills {
		if have[normalizeToken(skill)] {
			return true, ""
		}
	}

	return false, fmt.Sprintf("none of the must-have skills present: %s", strings.Join(p.MustHaveSkills, ", "))
}

// checkLocation rejects candidates outside the allowed locations when the
// set is non-empty. A candidate with no extracted location passes only if
// the raw CV text mentions an allowed location.
func checkLocation(rec *candidate.Record, p *profile.Profile) (bool, string) {
	if len(p.AllowedLocations) == 0 {
		return true, ""
	}

	location := strings.TrimSpace(rec.Location)
	if location == "" {
		cvLower := strings.ToLower(rec.CVText)
		for _, allowed := range p.AllowedLocations {
			if strings.Contains(cvLower, strings.ToLower(allowed)) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("location not in allowed list: %s", strings.Join(p.AllowedLocations, ", "))
	}

	locationLower := strings.ToLower(location)
	for _, allowed := range p.AllowedLocations {
		if strings.Contains(locationLower, strings.ToLower(allowed)) {
			return true, ""
		}
	}

	return false, fmt.Sprintf("location %q not in allowed list", location)
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Rank orders the scored survivors by final score descending, breaking ties
// by earlier ingestion time, and truncates to the profile's top-N. Records
// without a final score (unscorable or not yet scored) never rank.
func Rank(records []*candidate.Record, p *profile.Profile) []*candidate.Record {
	eligible := make([]*candidate.Record, 0, len(records))
	for _, rec := range records {
		if rec.Status != candidate.StatusScored && rec.Status != candidate.StatusRanked {
			continue
		}
		if rec.FinalScore == nil {
			continue
		}
		if p.MinScore > 0 && *rec.FinalScore < float64(p.MinScore) {
			continue
		}
		eligible = append(eligible, rec)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if *eligible[i].FinalScore != *eligible[j].FinalScore {
			return *eligible[i].FinalScore > *eligible[j].FinalScore
		}
		return eligible[i].IngestedAt.Before(eligible[j].IngestedAt)
	})

	topN := p.TopN
	if topN <= 0 {
		topN = profile.DefaultTopN
	}

	if len(eligible) > topN {
		eligible = eligible[:topN]
	}

	return eligible
}
