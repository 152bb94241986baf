package candidate

import (
	"encoding/json"
	"os"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestCriteriaOrder(t *testing.T) {
	want := []Criterion{
		CriterionSkills,
		CriterionTitle,
		CriterionExperience,
		CriterionEducation,
		CriterionKeywords,
	}

	got := Criteria()
	if len(got) != len(want) {
		t.Fatalf("expected %d criteria, got %d", len(want), len(got))
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCriterionResultScored(t *testing.T) {
	if (CriterionResult{}).Scored() {
		t.Fatalf("nil score must read as unscored")
	}

	if !(CriterionResult{Score: intPtr(0)}).Scored() {
		t.Fatalf("a zero score is still a score")
	}
}

func TestSetResultInitializesMap(t *testing.T) {
	rec := &Record{}
	rec.SetResult(CriterionSkills, CriterionResult{Score: intPtr(80)})
	rec.SetResult(CriterionTitle, CriterionResult{Reasoning: "service unavailable"})

	if len(rec.Criteria) != 2 {
		t.Fatalf("expected 2 results, got %d", len(rec.Criteria))
	}

	if !rec.Criteria[CriterionSkills].Scored() || rec.Criteria[CriterionTitle].Scored() {
		t.Fatalf("unexpected scored flags: %+v", rec.Criteria)
	}
}

func TestCandidatesHelpers(t *testing.T) {
	list := &Candidates{Items: []*Record{
		{DedupKey: "directory:/cvs/a.pdf", Status: StatusScored},
		{DedupKey: "directory:/cvs/b.pdf", Status: StatusFiltered},
		{DedupKey: "outlook:msg-1/att-2", Status: StatusScored},
	}}

	if list.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", list.Len())
	}

	if rec := list.FindByDedupKey("outlook:msg-1/att-2"); rec == nil {
		t.Fatalf("expected to find record by dedup key")
	}

	if rec := list.FindByDedupKey("outlook:missing"); rec != nil {
		t.Fatalf("expected nil for unknown dedup key, got %+v", rec)
	}

	if scored := list.WithStatus(StatusScored); len(scored) != 2 {
		t.Fatalf("expected 2 scored records, got %d", len(scored))
	}
}

func TestDumpToTmpFile(t *testing.T) {
	score := 86.5
	list := &Candidates{Items: []*Record{
		{DedupKey: "directory:/cvs/a.pdf", FullName: "Ada Lovelace", FinalScore: &score},
	}}

	filename, err := list.DumpToTmpFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer os.Remove(filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("reading dump: %v", err)
	}

	var decoded Candidates
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding dump: %v", err)
	}

	if decoded.Len() != 1 || decoded.Items[0].FullName != "Ada Lovelace" {
		t.Fatalf("unexpected dump contents: %+v", decoded)
	}
}

func TestReport(t *testing.T) {
	score := 72.25
	list := &Candidates{Items: []*Record{
		{FullName: "With Score", FinalScore: &score, Status: StatusRanked, FileName: "a.pdf"},
		{FullName: "Unscorable", Status: StatusScored, FileName: "b.pdf"},
	}}

	report := list.Report()
	if len(report) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(report))
	}

	if report[0]["final_score"] != "72.25" {
		t.Fatalf("expected final_score 72.25, got %q", report[0]["final_score"])
	}

	if _, ok := report[1]["final_score"]; ok {
		t.Fatalf("unscorable candidates must not report a final score")
	}
}
