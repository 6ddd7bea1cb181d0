package extract

import "testing"

func TestExtract_WorksplitFence(t *testing.T) {
	reply := "Here is the file:\n~~~worksplit:pkg/foo.go\npackage foo\n~~~worksplit\n"
	files := Extract(reply, "default.go")
	if len(files) != 1 {
		t.Fatalf("files = %v, want 1", files)
	}
	if files[0].Path != "pkg/foo.go" {
		t.Errorf("path = %q, want pkg/foo.go", files[0].Path)
	}
	if files[0].Content != "package foo" {
		t.Errorf("content = %q", files[0].Content)
	}
}

func TestExtract_WorksplitFenceNoPathFallsBackToPrimary(t *testing.T) {
	reply := "~~~worksplit\npackage foo\n~~~worksplit\n"
	files := Extract(reply, "default.go")
	if len(files) != 1 || files[0].Path != "default.go" {
		t.Fatalf("files = %v, want fallback to default.go", files)
	}
}

func TestExtract_PathHeading(t *testing.T) {
	reply := "pkg/foo.go\n```go\npackage foo\n```\n"
	files := Extract(reply, "default.go")
	if len(files) != 1 || files[0].Path != "pkg/foo.go" {
		t.Fatalf("files = %v", files)
	}
}

func TestExtract_GenericFenceFallback(t *testing.T) {
	reply := "Here you go:\n```go\npackage foo\n```\n"
	files := Extract(reply, "default.go")
	if len(files) != 1 || files[0].Path != "default.go" {
		t.Fatalf("files = %v", files)
	}
	if files[0].Content != "package foo" {
		t.Errorf("content = %q", files[0].Content)
	}
}

func TestExtract_OrderedProbe_WorksplitWinsOverGeneric(t *testing.T) {
	reply := "~~~worksplit:a.go\npackage a\n~~~worksplit\n```go\npackage b\n```\n"
	files := Extract(reply, "default.go")
	if len(files) != 1 || files[0].Path != "a.go" {
		t.Fatalf("files = %v, want worksplit fence to win", files)
	}
}

func TestExtract_NoContentReturnsNil(t *testing.T) {
	files := Extract("no code here at all", "default.go")
	if files != nil {
		t.Fatalf("files = %v, want nil", files)
	}
}
