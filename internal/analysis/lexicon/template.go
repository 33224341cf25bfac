package lexicon

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z][a-zA-Z0-9_]*)\}`)

// Template is one localized response text keyed by (Key, Locale).
type Template struct {
	Key        string
	Locale     string
	Text       string
	Parameters map[string]struct{}
}

func newTemplate(key, locale, text string) Template {
	params := make(map[string]struct{})
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		params[m[1]] = struct{}{}
	}
	return Template{Key: key, Locale: locale, Text: text, Parameters: params}
}

// Render fills every declared placeholder. Placeholders without a value are
// dropped so they never reach the user.
func (t Template) Render(values map[string]string) string {
	if len(t.Parameters) == 0 {
		return t.Text
	}
	pairs := make([]string, 0, len(t.Parameters)*2)
	for name := range t.Parameters {
		pairs = append(pairs, "{"+name+"}", values[name])
	}
	return strings.NewReplacer(pairs...).Replace(t.Text)
}

// Resolve returns the template pool for key. It tries the exact locale, then
// the default locale, and finally a single template whose text is the key
// itself, so the result is never empty.
func (l *Lexicon) Resolve(key, locale string) []Template {
	if pool, ok := l.templates[locale][key]; ok {
		return pool
	}
	if pool, ok := l.templates[l.defaultLocale][key]; ok {
		return pool
	}
	return []Template{{Key: key, Locale: locale, Text: key}}
}

// Has reports whether key resolves to real text for locale, directly or via
// the default locale.
func (l *Lexicon) Has(key, locale string) bool {
	if _, ok := l.templates[locale][key]; ok {
		return true
	}
	_, ok := l.templates[l.defaultLocale][key]
	return ok
}
