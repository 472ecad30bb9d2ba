package usecase

import (
	"strings"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/frontmatter"
)

// RenderDocument serializes an action record into its vault document form:
// the standard header fields, then the channel payload, then a body built
// from the record's title and sections.
func RenderDocument(rec *domain.ActionRecord) string {
	fields := []frontmatter.Field{
		{Key: "type", Value: string(rec.Kind)},
		{Key: "status", Value: string(rec.Status)},
		{Key: "priority", Value: string(rec.Priority)},
		{Key: "created", Value: rec.CreatedAt.UTC().Format(time.RFC3339)},
		{Key: "source", Value: rec.SourceChannel},
	}
	for _, f := range rec.Payload {
		fields = append(fields, frontmatter.Field{Key: f.Key, Value: f.Value})
	}

	var body strings.Builder
	body.WriteString("# " + rec.Title + "\n")
	for _, s := range rec.Sections {
		body.WriteString("\n## " + s.Name + "\n\n")
		body.WriteString(strings.TrimSpace(s.Text))
		body.WriteString("\n")
	}
	return frontmatter.Render(fields, body.String())
}

// SanitizePreview makes free text safe for a single-line header value:
// newlines become spaces, double quotes become single quotes, and the result
// is capped at maxLen characters. Truncation counts runes, never splitting a
// multi-byte character.
func SanitizePreview(text string, maxLen int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, `"`, "'")
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > maxLen {
		text = string(runes[:maxLen])
	}
	return text
}
