// Package sanitize maps arbitrary page titles and image names to
// filesystem-safe names. Both functions are total and idempotent:
// they never fail, never return an empty string, and applying them
// twice yields the same result as applying them once.
package sanitize

import "strings"

// fallback is used when sanitization leaves nothing behind.
const fallback = "untitled"

// Title makes a page title safe for use as a file or directory name
// while keeping it human-readable. Path separators become dashes,
// control characters are stripped, runs of dashes or spaces collapse
// to one, and leading/trailing spaces, dashes, and dots are trimmed.
func Title(name string) string {
	if name == "" {
		return fallback
	}

	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = stripControl(name)
	name = collapseRuns(name, '-')
	name = collapseRuns(name, ' ')
	name = strings.Trim(name, " .-")

	if name == "" {
		return fallback
	}
	return name
}

// ImageName is the stricter policy used for image files: like Title,
// but lower-cased and with every character outside [a-z0-9.-] replaced
// by a dash before collapsing.
func ImageName(name string) string {
	if name == "" {
		return fallback
	}

	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, ch := range name {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') || ch == '.' || ch == '-' {
			b.WriteRune(ch)
		} else {
			b.WriteRune('-')
		}
	}
	name = collapseRuns(b.String(), '-')
	name = strings.Trim(name, ".-")

	if name == "" {
		return fallback
	}
	return name
}

// stripControl removes C0 and C1 control characters (and DEL).
func stripControl(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch < 0x20 || (ch >= 0x7f && ch <= 0x9f) {
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// collapseRuns replaces consecutive repeats of ch with a single ch.
func collapseRuns(s string, ch byte) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev byte
	for i := 0; i < len(s); i++ {
		if s[i] == ch && prev == ch {
			continue
		}
		b.WriteByte(s[i])
		prev = s[i]
	}
	return b.String()
}
