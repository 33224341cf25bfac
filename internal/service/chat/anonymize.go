package chat

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	emailToken = "[email]"
	phoneToken = "[phone]"
	nameToken  = "[name]"
)

var (
	emailPattern = regexp.MustCompile(`[\p{L}0-9._%+\-]+@[\p{L}0-9.\-]+\.[\p{L}]{2,}`)
	// Seven or more digits, optionally grouped by spaces, dots, dashes or
	// parentheses, with an optional leading +.
	phonePattern = regexp.MustCompile(`\+?\(?\d(?:[\s.\-()]*\d){6,}`)
)

// Anonymizer strips personal data from text before it leaves the process.
// Applying it twice yields the same result as applying it once.
type Anonymizer struct {
	namePatterns []*regexp.Regexp
}

// NewAnonymizer returns an anonymizer that also masks the first capture
// group of every name pattern.
func NewAnonymizer(namePatterns []*regexp.Regexp) *Anonymizer {
	return &Anonymizer{namePatterns: namePatterns}
}

// Anonymize masks emails, phone numbers, self-introduced names and, when
// known, every occurrence of the user's name.
func (a *Anonymizer) Anonymize(text, userName string) string {
	text = emailPattern.ReplaceAllString(text, emailToken)
	text = phonePattern.ReplaceAllString(text, phoneToken)
	for _, re := range a.namePatterns {
		text = replaceGroup(re, text)
	}
	if name := strings.TrimSpace(userName); name != "" {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name))
		text = replaceOutsideTokens(re, text)
	}
	return text
}

// replaceGroup masks capture group 1 of every match.
func replaceGroup(re *regexp.Regexp, text string) string {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if len(m) < 4 || m[2] < 0 {
			continue
		}
		b.WriteString(text[last:m[2]])
		b.WriteString(nameToken)
		last = m[3]
	}
	b.WriteString(text[last:])
	return b.String()
}

// replaceOutsideTokens masks whole-word matches that are not the inside of
// a placeholder such as "[name]".
func replaceOutsideTokens(re *regexp.Regexp, text string) string {
	matches := re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		before, _ := utf8.DecodeLastRuneInString(text[:m[0]])
		after, _ := utf8.DecodeRuneInString(text[m[1]:])
		if unicode.IsLetter(before) || unicode.IsLetter(after) {
			continue
		}
		if before == '[' && after == ']' {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(nameToken)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}
