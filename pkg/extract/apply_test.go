package extract

import (
	"errors"
	"testing"

	"github.com/plasticdigits/worksplit/pkg/wkerr"
)

func TestApplyEdit_FirstOccurrenceOnly(t *testing.T) {
	content := "foo bar foo baz foo"
	out, err := ApplyEdit(content, Edit{File: "a.go", Find: "foo", Replace: "qux"})
	if err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}
	want := "qux bar foo baz foo"
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestApplyEdit_MissReturnsFuzzyDiagnostics(t *testing.T) {
	content := "func Foo() {\n  return 1\n}\n"
	_, err := ApplyEdit(content, Edit{File: "a.go", Find: "func Fob() {\n  return 1\n}", Replace: "x"})
	if err == nil {
		t.Fatal("expected error on miss")
	}
	var ews *wkerr.EditFailedWithSuggestions
	if !errors.As(err, &ews) {
		t.Fatalf("error = %v, want *wkerr.EditFailedWithSuggestions", err)
	}
}

func TestApplyEdits_ChainsOutputToInput(t *testing.T) {
	content := "one two three"
	edits := []Edit{
		{File: "a.go", Find: "one", Replace: "1"},
		{File: "a.go", Find: "1 two", Replace: "1-2"},
	}
	out, err := ApplyEdits(content, edits)
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if out != "1-2 three" {
		t.Errorf("out = %q", out)
	}
}

func TestApplyEdits_AbortsOnFirstFailure(t *testing.T) {
	content := "alpha beta"
	edits := []Edit{
		{File: "a.go", Find: "nonexistent", Replace: "x"},
		{File: "a.go", Find: "beta", Replace: "gamma"},
	}
	out, err := ApplyEdits(content, edits)
	if err == nil {
		t.Fatal("expected error")
	}
	if out != content {
		t.Errorf("out = %q, want unchanged content on first-edit failure", out)
	}
}

func TestApplyEditsPerFile_IndependentPerFile(t *testing.T) {
	files := map[string]string{
		"a.go": "alpha content",
		"b.go": "beta content",
	}
	loadContent := func(path string) (string, error) { return files[path], nil }

	edits := []Edit{
		{File: "a.go", Find: "nonexistent", Replace: "x"},
		{File: "b.go", Find: "beta", Replace: "gamma"},
	}

	results, err := ApplyEditsPerFile(loadContent, edits)
	if err != nil {
		t.Fatalf("ApplyEditsPerFile: %v", err)
	}

	a := results["a.go"]
	if a.Applied != 0 || len(a.Failures) != 1 {
		t.Errorf("a.go result = %+v, want 1 failure and 0 applied", a)
	}

	b := results["b.go"]
	if b.Applied != 1 || len(b.Failures) != 0 || b.NewContent != "gamma content" {
		t.Errorf("b.go result = %+v", b)
	}
}

func TestApplyEdits_Idempotence(t *testing.T) {
	content := "const x = 1"
	edits := []Edit{{File: "a.go", Find: "const x = 1", Replace: "const x = 2"}}

	first, err := ApplyEdits(content, edits)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if first != "const x = 2" {
		t.Fatalf("first = %q", first)
	}

	// Re-applying the same edits against the already-edited content must
	// fail: the original FIND text is gone, so apply_edits(apply_edits(..))
	// never silently succeeds a second time.
	_, err = ApplyEdits(first, edits)
	if err == nil {
		t.Fatal("expected second application to fail, FIND text no longer present")
	}
}
