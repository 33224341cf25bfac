// Package textnorm turns raw user input into the canonical form used for
// keyword matching and cache keys.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize composes the text (NFC), lower-cases it, trims it and collapses
// runs of whitespace into a single space.
func Normalize(text string) string {
	composed := norm.NFC.String(text)
	// Casers keep state, so each call gets its own.
	lowered := cases.Lower(language.Und).String(composed)
	return strings.Join(strings.Fields(lowered), " ")
}

// Locale reduces a BCP 47 tag such as "es-AR" or "pt_BR" to its base
// language. It returns an empty string when the tag cannot be parsed.
func Locale(raw string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if raw == "" {
		return ""
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

// Title capitalises a single name as written by the user.
func Title(name string) string {
	return cases.Title(language.Und).String(strings.ToLower(strings.TrimSpace(name)))
}
