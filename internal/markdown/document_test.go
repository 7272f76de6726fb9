package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
)

func TestDocument_FullFrontMatter(t *testing.T) {
	m := &huntlyapi.ItemMeta{
		ID:            7,
		Title:         strp("Hello"),
		URL:           strp("https://example.com/a"),
		Author:        strp("Jane"),
		SavedAt:       strp("2024-01-01T00:00:00Z"),
		UpdatedAt:     strp("2024-01-02T00:00:00Z"),
		ConnectorName: strp("Some Blog"),
		FolderName:    strp("Tech"),
	}
	c := &huntlyapi.ItemContent{ID: 7, Markdown: strp("Body.")}

	want := `---
title: "Hello"
url: "https://example.com/a"
author: "Jane"
savedAt: "2024-01-01T00:00:00Z"
updatedAt: "2024-01-02T00:00:00Z"
source: "Some Blog"
folder: "Tech"
---

# Hello

Body.`

	assert.Equal(t, want, Document(m, c))
}

func TestDocument_OmitsAbsentFields(t *testing.T) {
	m := &huntlyapi.ItemMeta{ID: 1}
	doc := Document(m, &huntlyapi.ItemContent{ID: 1})

	assert.Equal(t, "---\n---\n\n", doc)
}

func TestDocument_EscapesYAMLStrings(t *testing.T) {
	m := &huntlyapi.ItemMeta{
		ID:    2,
		Title: strp("a \"quoted\"\nback\\slash\r"),
	}
	doc := Document(m, nil)

	assert.Contains(t, doc, `title: "a \"quoted\" back\\slash"`)
	// The H1 keeps the raw title.
	assert.Contains(t, doc, "# a \"quoted\"\nback\\slash")
}

func TestDocument_EmptyBodyStillHasHeading(t *testing.T) {
	m := &huntlyapi.ItemMeta{ID: 3, Title: strp("T")}
	c := &huntlyapi.ItemContent{ID: 3, Markdown: strp("")}

	assert.Equal(t, "---\ntitle: \"T\"\n---\n\n# T\n\n", Document(m, c))
}
