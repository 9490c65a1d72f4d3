package models

import "testing"

func TestFindingsStats(t *testing.T) {
	findings := Findings{
		Issues: []Issue{
			{Severity: SeverityCritical},
			{Severity: SeverityCritical},
			{Severity: SeverityMinor},
		},
		Rewrites:         []RewriteSuggestion{{Original: "a", Suggested: "b"}},
		SectionSummaries: []SectionSummary{{Section: "Abstract"}, {Section: "Results"}},
	}

	stats := findings.Stats()
	if stats.Issues != 3 {
		t.Errorf("Expected 3 issues, got %d", stats.Issues)
	}
	if stats.CriticalIssues != 2 {
		t.Errorf("Expected 2 critical issues, got %d", stats.CriticalIssues)
	}
	if stats.Rewrites != 1 {
		t.Errorf("Expected 1 rewrite, got %d", stats.Rewrites)
	}
	if stats.SectionSummaries != 2 {
		t.Errorf("Expected 2 section summaries, got %d", stats.SectionSummaries)
	}
}

func TestFindingsStatsEmpty(t *testing.T) {
	stats := Findings{}.Stats()
	if stats != (ReviewStats{}) {
		t.Errorf("Expected zero stats, got %+v", stats)
	}
}

func TestSeverityWeightOrdering(t *testing.T) {
	ordered := []Severity{SeverityStrength, SeveritySuggestion, SeverityMinor, SeverityMajor, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Weight() <= ordered[i-1].Weight() {
			t.Errorf("Expected %s to outweigh %s", ordered[i], ordered[i-1])
		}
	}
	if Severity("unknown").Weight() != 0 {
		t.Errorf("Expected unknown severity to weigh 0")
	}
}

func TestReviewModeValid(t *testing.T) {
	for _, mode := range ReviewModes {
		if !mode.Valid() {
			t.Errorf("Expected %s to be valid", mode)
		}
	}
	if ReviewMode("peer_review").Valid() {
		t.Error("Expected unknown mode to be invalid")
	}
	if ReviewMode("").Valid() {
		t.Error("Expected empty mode to be invalid")
	}
}

func TestRectDimensions(t *testing.T) {
	r := Rect{LLx: 10, LLy: 20, URx: 110, URy: 50}
	if r.Width() != 100 {
		t.Errorf("Expected width 100, got %f", r.Width())
	}
	if r.Height() != 30 {
		t.Errorf("Expected height 30, got %f", r.Height())
	}
}
