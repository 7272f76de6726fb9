package markdown

import (
	"strings"

	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
)

// Document renders the exported Markdown file for an item: a YAML
// front-matter block built from metadata, an H1 of the title, then the
// server's pre-rendered Markdown body verbatim. Absent fields are omitted
// from the front-matter.
func Document(meta *huntlyapi.ItemMeta, content *huntlyapi.ItemContent) string {
	var b strings.Builder

	b.WriteString("---\n")
	writeField(&b, "title", meta.Title, true)
	writeField(&b, "url", meta.URL, false)
	writeField(&b, "author", meta.Author, true)
	writeField(&b, "savedAt", meta.SavedAt, false)
	writeField(&b, "updatedAt", meta.UpdatedAt, false)
	writeField(&b, "source", meta.ConnectorName, true)
	writeField(&b, "folder", meta.FolderName, true)
	b.WriteString("---\n\n")

	if meta.Title != nil {
		b.WriteString("# ")
		b.WriteString(*meta.Title)
		b.WriteString("\n\n")
	}

	if content != nil && content.Markdown != nil && *content.Markdown != "" {
		b.WriteString(*content.Markdown)
	}

	return b.String()
}

// writeField emits one front-matter line, skipping absent values. URLs and
// timestamps are emitted as-is; free-text values go through escapeYAML.
func writeField(b *strings.Builder, key string, value *string, escape bool) {
	if value == nil {
		return
	}

	v := *value
	if escape {
		v = escapeYAML(v)
	}

	b.WriteString(key)
	b.WriteString(`: "`)
	b.WriteString(v)
	b.WriteString("\"\n")
}

// escapeYAML escapes a string for a double-quoted YAML scalar: backslash and
// quote are escaped, newlines collapse to spaces, carriage returns drop.
func escapeYAML(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")

	return s
}
