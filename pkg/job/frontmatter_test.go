package job

import (
	"reflect"
	"testing"
)

func TestParseFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		want     map[string]any
		wantBody string
		wantErr  bool
	}{
		{
			name: "valid front matter",
			content: `---
output_dir: src
output_file: greeting.rs
---
Define greet(name).`,
			want: map[string]any{
				"output_dir":  "src",
				"output_file": "greeting.rs",
			},
			wantBody: "Define greet(name).",
		},
		{
			name:    "missing front matter",
			content: "Just markdown, no delimiters.",
			wantErr: true,
		},
		{
			name: "unterminated front matter",
			content: `---
output_file: a.rs
body here`,
			wantErr: true,
		},
		{
			name: "empty front matter",
			content: `---
---
Body content here.`,
			want:     map[string]any{},
			wantBody: "Body content here.",
		},
		{
			name: "list values",
			content: `---
context_files:
  - a.go
  - b.go
output_file: c.go
---
Body.`,
			want: map[string]any{
				"context_files": []any{"a.go", "b.go"},
				"output_file":   "c.go",
			},
			wantBody: "Body.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			front, body, err := ParseFrontMatter([]byte(tt.content))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(front, tt.want) {
				t.Errorf("front matter = %#v, want %#v", front, tt.want)
			}
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}
