package frontmatter

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantFields map[string]string
		wantBody   string
	}{
		{
			name:    "basic document",
			content: "---\ntype: email\nstatus: pending\n---\n\n# Title\n\nBody text",
			wantFields: map[string]string{
				"type":   "email",
				"status": "pending",
			},
			wantBody: "# Title\n\nBody text",
		},
		{
			name:       "quoted values stripped",
			content:    "---\ncontact: \"Jane Doe\"\nnote: 'quoted'\n---\nbody",
			wantFields: map[string]string{"contact": "Jane Doe", "note": "quoted"},
			wantBody:   "body",
		},
		{
			name:       "comment and blank lines ignored",
			content:    "---\n# a comment\n\nkey: value\n---\nbody",
			wantFields: map[string]string{"key": "value"},
			wantBody:   "body",
		},
		{
			name:       "value containing colon",
			content:    "---\ncreated: 2026-01-15T10:30:00Z\n---\nbody",
			wantFields: map[string]string{"created": "2026-01-15T10:30:00Z"},
			wantBody:   "body",
		},
		{
			name:       "no frontmatter",
			content:    "just a body\nwith lines",
			wantFields: map[string]string{},
			wantBody:   "just a body\nwith lines",
		},
		{
			name:       "unterminated header",
			content:    "---\nkey: value\nno closing delimiter",
			wantFields: map[string]string{},
			wantBody:   "---\nkey: value\nno closing delimiter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, body := Parse(tt.content)
			if len(fields) != len(tt.wantFields) {
				t.Fatalf("got %d fields %v, want %d", len(fields), fields, len(tt.wantFields))
			}
			for k, want := range tt.wantFields {
				if fields[k] != want {
					t.Errorf("field %q = %q, want %q", k, fields[k], want)
				}
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	fields := []Field{
		{Key: "type", Value: "email"},
		{Key: "status", Value: "pending"},
		{Key: "subject", Value: "Invoice overdue"},
	}
	body := "# Email\n\n## Snippet\n\nPlease pay."

	doc := Render(fields, body)
	gotFields, gotBody := Parse(doc)

	for _, f := range fields {
		if gotFields[f.Key] != f.Value {
			t.Errorf("field %q = %q, want %q", f.Key, gotFields[f.Key], f.Value)
		}
	}
	if gotBody != body {
		t.Errorf("body = %q, want %q", gotBody, body)
	}
}

func TestExtractSection(t *testing.T) {
	body := "# Title\n\n## Draft Reply\n\nHello there,\nthanks for reaching out.\n\n## Suggested Actions\n\n- [ ] Send it"

	tests := []struct {
		section string
		want    string
	}{
		{"Draft Reply", "Hello there,\nthanks for reaching out."},
		{"Suggested Actions", "- [ ] Send it"},
		{"Missing", ""},
	}
	for _, tt := range tests {
		if got := ExtractSection(body, tt.section); got != tt.want {
			t.Errorf("ExtractSection(%q) = %q, want %q", tt.section, got, tt.want)
		}
	}
}

func TestRewriteStatus(t *testing.T) {
	doc := "---\ntype: email\nstatus: approved\npriority: high\n---\n\n# Title\n\nstatus: not a header line"

	got := RewriteStatus(doc, "done")

	if !strings.Contains(got, "status: done\n") {
		t.Fatalf("status not rewritten: %q", got)
	}
	if strings.Count(got, "status: done") != 1 {
		t.Errorf("expected exactly one rewrite, got %q", got)
	}
	if !strings.Contains(got, "priority: high") {
		t.Errorf("other fields disturbed: %q", got)
	}

	// No status line at all.
	if got := RewriteStatus("---\ntype: x\n---\nbody", "done"); strings.Contains(got, "status") {
		t.Errorf("rewrite invented a status line: %q", got)
	}
}
