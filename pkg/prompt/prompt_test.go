package prompt

import (
	"strings"
	"testing"
)

func TestGeneration_IncludesAllSections(t *testing.T) {
	p := Generation("sys prompt", []File{{Path: "a.go", Content: "package a"}}, "do the thing")
	if !strings.Contains(p, "[SYSTEM]\nsys prompt") {
		t.Errorf("missing SYSTEM section: %s", p)
	}
	if !strings.Contains(p, "[CONTEXT]") || !strings.Contains(p, "a.go") {
		t.Errorf("missing CONTEXT section: %s", p)
	}
	if !strings.Contains(p, "[INSTRUCTIONS]\ndo the thing") {
		t.Errorf("missing INSTRUCTIONS section: %s", p)
	}
}

func TestGeneration_EmptyContextOmitsSection(t *testing.T) {
	p := Generation("sys", nil, "do it")
	if strings.Contains(p, "[CONTEXT]") {
		t.Errorf("expected no CONTEXT section when context is empty: %s", p)
	}
}

func TestEdit_IncludesTargetsAndEditModeMarker(t *testing.T) {
	p := Edit("sys", nil, []File{{Path: "a.go", Content: "old"}}, "change it", "use FILE/FIND/REPLACE/END")
	if !strings.Contains(p, "[TARGET FILES]") {
		t.Errorf("missing TARGET FILES section: %s", p)
	}
	if !strings.Contains(p, "[EDIT MODE]\nuse FILE/FIND/REPLACE/END") {
		t.Errorf("missing EDIT MODE section: %s", p)
	}
}

func TestSequential_IncludesRemainingFilesWhenPresent(t *testing.T) {
	p := Sequential("sys", nil, "do it", nil, "b.go", []string{"c.go", "d.go"})
	if !strings.Contains(p, "[CURRENT OUTPUT FILE]\nb.go") {
		t.Errorf("missing CURRENT OUTPUT FILE section: %s", p)
	}
	if !strings.Contains(p, "[REMAINING FILES]\nc.go\nd.go") {
		t.Errorf("missing REMAINING FILES section: %s", p)
	}
}

func TestSequential_OmitsRemainingFilesWhenEmpty(t *testing.T) {
	p := Sequential("sys", nil, "do it", nil, "b.go", nil)
	if strings.Contains(p, "[REMAINING FILES]") {
		t.Errorf("expected no REMAINING FILES section: %s", p)
	}
}

func TestRetry_IncludesPreviousAttemptAndFeedback(t *testing.T) {
	p := Retry("sys", nil, "do it", []File{{Path: "a.go", Content: "broken"}}, "FailSoft: missing import")
	if !strings.Contains(p, "[PREVIOUS ATTEMPT]") || !strings.Contains(p, "broken") {
		t.Errorf("missing PREVIOUS ATTEMPT section: %s", p)
	}
	if !strings.Contains(p, "[VERIFICATION FEEDBACK]\nFailSoft: missing import") {
		t.Errorf("missing VERIFICATION FEEDBACK section: %s", p)
	}
}

func TestBuilder_SectionsSeparatedByBlankLine(t *testing.T) {
	p := NewBuilder().Section("A", "x").Section("B", "y").String()
	if p != "[A]\nx\n\n[B]\ny" {
		t.Errorf("p = %q", p)
	}
}
