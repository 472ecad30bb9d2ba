// Package frontmatter implements the structured-header document format used
// for vault records: a block of "key: value" lines between two "---"
// delimiter lines, followed by a markdown body of level-2 sections.
package frontmatter

import (
	"regexp"
	"strings"
)

const delimiter = "---"

// Field is one header entry. Order is preserved on render.
type Field struct {
	Key   string
	Value string
}

// Parse splits a document into its header fields and body. A document that
// does not begin with the delimiter has no header and the whole input is
// body. Values are single-line scalars; surrounding double or single quotes
// are stripped, and lines starting with "#" inside the header are ignored.
func Parse(content string) (map[string]string, string) {
	fields := map[string]string{}
	if !strings.HasPrefix(content, delimiter) {
		return fields, content
	}
	rest := content[len(delimiter):]
	end := strings.Index(rest, "\n"+delimiter)
	if end == -1 {
		return fields, content
	}
	header := rest[:end]
	body := strings.TrimSpace(rest[end+len(delimiter)+1:])

	for _, line := range strings.Split(header, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"`)
		value = strings.Trim(value, `'`)
		fields[strings.TrimSpace(key)] = value
	}
	return fields, body
}

// Render serializes header fields and a body back into document form.
func Render(fields []Field, body string) string {
	var b strings.Builder
	b.WriteString(delimiter + "\n")
	for _, f := range fields {
		b.WriteString(f.Key + ": " + f.Value + "\n")
	}
	b.WriteString(delimiter + "\n\n")
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
	return b.String()
}

// ExtractSection returns the trimmed text between the "## name" heading and
// the next level-2 heading or the end of the body. A missing section yields
// the empty string.
func ExtractSection(body, name string) string {
	var out []string
	in := false
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "## ") {
			if in {
				break
			}
			if strings.TrimSpace(strings.TrimPrefix(line, "## ")) == name {
				in = true
			}
			continue
		}
		if in {
			out = append(out, line)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

var statusLine = regexp.MustCompile(`(?m)^status:\s*\S+`)

// RewriteStatus replaces the value of the first status line in the document
// header with the given value, leaving everything else byte-identical. A
// document without a status line is returned unchanged.
func RewriteStatus(content, status string) string {
	loc := statusLine.FindStringIndex(content)
	if loc == nil {
		return content
	}
	return content[:loc[0]] + "status: " + status + content[loc[1]:]
}
