package extract

import "testing"

func TestParsePatternInstructions_Basic(t *testing.T) {
	text := "FILE: a.go\nAFTER:\nfunc Foo() {\nINSERT:\n// inserted\nEND\n"
	insts, err := ParsePatternInstructions(text)
	if err != nil {
		t.Fatalf("ParsePatternInstructions: %v", err)
	}
	if len(insts) != 1 {
		t.Fatalf("insts = %v, want 1", insts)
	}
	if insts[0].File != "a.go" || insts[0].After != "func Foo() {" || insts[0].Insert != "// inserted" {
		t.Errorf("inst = %+v", insts[0])
	}
	if insts[0].Scope != "" {
		t.Errorf("scope = %q, want empty", insts[0].Scope)
	}
}

func TestParsePatternInstructions_WithScope(t *testing.T) {
	text := "FILE: a.go\nAFTER:\nx: 1,\nSCOPE: Config {\nINSERT:\ny: 2,\nEND\n"
	insts, err := ParsePatternInstructions(text)
	if err != nil {
		t.Fatalf("ParsePatternInstructions: %v", err)
	}
	if len(insts) != 1 || insts[0].Scope != "Config {" {
		t.Fatalf("insts = %+v", insts)
	}
}

func TestApplyPatternInstruction_UnscopedAllOccurrences(t *testing.T) {
	content := "a(); a(); a();"
	inst := PatternInstruction{After: "a();", Insert: "b();"}
	out, count, err := ApplyPatternInstruction(content, inst)
	if err != nil {
		t.Fatalf("ApplyPatternInstruction: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	want := "a();b(); a();b(); a();b();"
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestApplyPatternInstruction_NoMatchErrors(t *testing.T) {
	_, _, err := ApplyPatternInstruction("nothing here", PatternInstruction{After: "missing", Insert: "x"})
	if err == nil {
		t.Fatal("expected error for pattern matching nowhere")
	}
}

func TestApplyPatternInstruction_ScopedOnlyInsideBlock(t *testing.T) {
	content := "func A() {\n  x: 1,\n}\nfunc B() {\n  x: 1,\n}\n"
	inst := PatternInstruction{After: "x: 1,", Insert: "y: 2,", Scope: "func A() {"}
	out, count, err := ApplyPatternInstruction(content, inst)
	if err != nil {
		t.Fatalf("ApplyPatternInstruction: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1 (only inside scope A)", count)
	}
	wantFirstOccurrence := "func A() {\n  x: 1,y: 2,\n}\nfunc B() {\n  x: 1,\n}\n"
	if out != wantFirstOccurrence {
		t.Errorf("out = %q, want %q", out, wantFirstOccurrence)
	}
}

func TestApplyPatternInstructions_GroupedByFile(t *testing.T) {
	files := map[string]string{
		"a.go": "call(); call();",
	}
	loadContent := func(path string) (string, error) { return files[path], nil }
	insts := []PatternInstruction{
		{File: "a.go", After: "call();", Insert: "done();"},
	}
	results, err := ApplyPatternInstructions(loadContent, insts)
	if err != nil {
		t.Fatalf("ApplyPatternInstructions: %v", err)
	}
	want := "call();done(); call();done();"
	if results["a.go"] != want {
		t.Errorf("result = %q, want %q", results["a.go"], want)
	}
}
