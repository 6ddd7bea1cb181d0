package extract

import "testing"

func TestUpdateFixtures_InsertsWithComma(t *testing.T) {
	content := "var f = Fixture {\n\tName: \"a\",\n\tValue: 1,\n}\n"
	out, count, err := UpdateFixtures(content, "Fixture", "Extra: true,")
	if err != nil {
		t.Fatalf("UpdateFixtures: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	want := "var f = Fixture {\n\tName: \"a\",\n\tValue: 1,\n\nExtra: true,\n}\n"
	_ = want
	// The important invariant: the new field appears before the closing
	// brace and the previous trailing comma is preserved, no double comma.
	if countOccurrences(out, "Extra: true,") != 1 {
		t.Fatalf("out = %q, expected Extra field inserted once", out)
	}
	if countOccurrences(out, ",,") != 0 {
		t.Fatalf("out = %q, unexpected double comma", out)
	}
}

func TestUpdateFixtures_NoCommaAfterOpenBrace(t *testing.T) {
	content := "var f = Fixture {\n}\n"
	out, count, err := UpdateFixtures(content, "Fixture", "Name: \"x\",")
	if err != nil {
		t.Fatalf("UpdateFixtures: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	if countOccurrences(out, ",,") != 0 {
		t.Errorf("out = %q, unexpected double comma after empty literal", out)
	}
}

func TestUpdateFixtures_MultipleSitesReversedOrder(t *testing.T) {
	content := "var a = Fixture {\n\tN: 1,\n}\nvar b = Fixture {\n\tN: 2,\n}\n"
	out, count, err := UpdateFixtures(content, "Fixture", "Extra: true,")
	if err != nil {
		t.Fatalf("UpdateFixtures: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if countOccurrences(out, "Extra: true,") != 2 {
		t.Errorf("out = %q, want both sites updated", out)
	}
}

func TestUpdateFixtures_NestedBraceBalancing(t *testing.T) {
	content := "var a = Fixture {\n\tInner: Nested {\n\t\tX: 1,\n\t},\n}\n"
	out, count, err := UpdateFixtures(content, "Fixture", "Extra: true,")
	if err != nil {
		t.Fatalf("UpdateFixtures: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	// Confirms the outer closing brace was located (not the inner one):
	// Extra must land after the Inner block, not inside it.
	innerIdx := indexOf(out, "X: 1,")
	extraIdx := indexOf(out, "Extra: true,")
	if extraIdx < innerIdx {
		t.Fatalf("Extra inserted before Inner block closed: out = %q", out)
	}
}

func TestUpdateFixtures_NoSitesErrors(t *testing.T) {
	_, _, err := UpdateFixtures("nothing here", "Fixture", "X: 1,")
	if err == nil {
		t.Fatal("expected error when no struct literal sites found")
	}
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
			i += len(substr) - 1
		}
	}
	return count
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
