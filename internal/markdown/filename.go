// Package markdown maps item metadata to stable filenames and renders the
// exported Markdown documents. Filenames are pure functions of metadata —
// the dirty-set computation depends on that.
package markdown

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/lcomplete/huntly-companion/internal/huntlyapi"
)

// Content-type codes for tweets. Everything else is exported as a page.
const (
	contentTypeTweet       = 1
	contentTypeQuotedTweet = 3
)

// Title truncation, in Unicode scalar values. Tweets get a shorter slice
// because the full text is the title.
const (
	tweetTitleRunes = 50
	pageTitleRunes  = 80
)

// maxNamePartBytes caps the sanitized content part, leaving 15 bytes of the
// 255-byte component limit common to every supported filesystem for the id,
// type label, and ".md": enough for page ids of up to six digits and tweet
// ids of up to nine. Longer ids can push the full name past 255 bytes. The
// 80-rune page truncation can reach 240 bytes for CJK titles and survives
// intact.
const maxNamePartBytes = 240

// IsTweet reports whether the item's content type is a tweet or quoted
// tweet.
func IsTweet(meta *huntlyapi.ItemMeta) bool {
	if meta.ContentType == nil {
		return false
	}

	return *meta.ContentType == contentTypeTweet || *meta.ContentType == contentTypeQuotedTweet
}

// TypeLabel returns the filename type label: "x" for tweets, "page"
// otherwise.
func TypeLabel(meta *huntlyapi.ItemMeta) string {
	if IsTweet(meta) {
		return "x"
	}

	return "page"
}

// Filename returns the deterministic export filename for an item:
// "<id>-<type>-<safeTitle>.md". Identical metadata always yields an
// identical name; only id, content type, and title participate.
func Filename(meta *huntlyapi.ItemMeta) string {
	limit := pageTitleRunes
	fallback := "untitled"

	if IsTweet(meta) {
		limit = tweetTitleRunes
		fallback = "tweet"
	}

	content := strings.TrimSpace(huntlyapi.Str(meta.Title))
	if content == "" {
		content = fallback
	} else {
		content = truncateRunes(norm.NFC.String(content), limit)
	}

	return fmt.Sprintf("%d-%s-%s.md", meta.ID, TypeLabel(meta), sanitizeNamePart(content))
}

// SanitizeDirName sanitizes a connector name for use as a directory name.
// Empty or whitespace-only names become "unknown".
func SanitizeDirName(name string) string {
	cleaned := sanitizeNamePart(strings.TrimSpace(norm.NFC.String(name)))
	if cleaned == "" {
		return "unknown"
	}

	return cleaned
}

// truncateRunes returns the first n Unicode scalar values of s.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}

// unsafeRunes are rejected on at least one of Windows, macOS, or Linux.
const unsafeRunes = `<>:"/\|?*`

// sanitizeNamePart makes a string safe as a filename component on every
// supported platform: unsafe and control characters become "_", whitespace
// runs collapse to a single space, Windows-hostile trailing dots and spaces
// are trimmed, and the result is capped at maxNamePartBytes on a rune
// boundary.
func sanitizeNamePart(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastWasSpace := false

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastWasSpace {
				b.WriteByte(' ')
			}

			lastWasSpace = true

			continue
		case r < 0x20 || r == 0x7f || strings.ContainsRune(unsafeRunes, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}

		lastWasSpace = false
	}

	out := strings.Trim(b.String(), " ")
	out = strings.TrimRight(out, ".")

	for len(out) > maxNamePartBytes {
		runes := []rune(out)
		out = string(runes[:len(runes)-1])
	}

	return out
}
