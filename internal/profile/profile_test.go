package profile

import (
	"strings"
	"testing"
)

func validProfile() *Profile {
	return &Profile{
		UserID:   "u1",
		JobTitle: "Backend Engineer",
		Weights:  DefaultWeights(),
	}
}

func TestProfileValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(p *Profile)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Profile) {},
		},
		{
			name:    "missing owner",
			mutate:  func(p *Profile) { p.UserID = " " },
			wantErr: "owner",
		},
		{
			name:    "missing job title",
			mutate:  func(p *Profile) { p.JobTitle = "" },
			wantErr: "job title",
		},
		{
			name:    "negative weight",
			mutate:  func(p *Profile) { p.Weights.Skills = -1 },
			wantErr: "must not be negative",
		},
		{
			name:    "all weights zero",
			mutate:  func(p *Profile) { p.Weights = Weights{} },
			wantErr: "at least one weight",
		},
		{
			name: "inverted experience bounds",
			mutate: func(p *Profile) {
				p.MinExperience = 5
				p.MaxExperience = 3
			},
			wantErr: "max-experience",
		},
		{
			name:    "min-score out of range",
			mutate:  func(p *Profile) { p.MinScore = 150 },
			wantErr: "min-score",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProfile()
			tc.mutate(p)

			err := p.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}

			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %q", tc.wantErr, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	p := &Profile{UserID: "u1", JobTitle: "SRE"}
	p.ApplyDefaults()

	if p.TopN != DefaultTopN {
		t.Fatalf("expected default top-n %d, got %d", DefaultTopN, p.TopN)
	}

	if p.MaxExperience != DefaultMaxExperience {
		t.Fatalf("expected default max-experience %d, got %d", DefaultMaxExperience, p.MaxExperience)
	}

	if p.Weights != DefaultWeights() {
		t.Fatalf("expected default weights, got %+v", p.Weights)
	}
}

func TestApplyDefaultsKeepsConfiguredValues(t *testing.T) {
	p := &Profile{
		UserID:        "u1",
		JobTitle:      "SRE",
		TopN:          3,
		MaxExperience: 12,
		Weights:       Weights{Skills: 100},
	}
	p.ApplyDefaults()

	if p.TopN != 3 || p.MaxExperience != 12 || p.Weights.Skills != 100 {
		t.Fatalf("configured values overwritten: %+v", p)
	}
}

func TestExperienceBounded(t *testing.T) {
	p := validProfile()
	p.ApplyDefaults()

	if p.ExperienceBounded() {
		t.Fatalf("default bounds should not enable the experience filter")
	}

	p.MinExperience = 3
	if !p.ExperienceBounded() {
		t.Fatalf("expected filter enabled with min-experience set")
	}
}
