// Package emotion classifies a user message into a mood category, a crisis
// flag and a secondary intent using the keyword tables of a Lexicon.
package emotion

import (
	"fmt"
	"strings"

	"github.com/serenamente/serenbot/backend/internal/analysis/lexicon"
	"github.com/serenamente/serenbot/backend/internal/analysis/textnorm"
	"github.com/serenamente/serenbot/backend/internal/model/chat"
)

// Decision is the outcome of classifying one message.
type Decision struct {
	Category chat.Category
	IsCrisis bool
	Intent   chat.Intent
	// Keyword is the lexicon entry that decided the result, if any.
	Keyword string
}

// Analyzer matches normalized text against the lexicon tables.
type Analyzer struct {
	lex *lexicon.Lexicon
}

// NewAnalyzer returns an analyzer bound to lex.
func NewAnalyzer(lex *lexicon.Lexicon) *Analyzer {
	return &Analyzer{lex: lex}
}

// Classify never looks at anything but text and locale. Crisis phrases of
// every locale are checked first, then moods in table order, then intents.
func (a *Analyzer) Classify(text, locale string) (Decision, error) {
	if a == nil || a.lex == nil || len(a.lex.CrisisKeywords()) == 0 || len(a.lex.Moods()) == 0 {
		return Decision{}, fmt.Errorf("%w: lexicon has no crisis or mood tables", chat.ErrClassification)
	}

	normalized := textnorm.Normalize(text)
	if normalized == "" {
		return Decision{}, nil
	}

	if kw, ok := firstContained(normalized, a.lex.CrisisKeywords()); ok {
		return Decision{Category: chat.Crisis, IsCrisis: true, Keyword: kw}, nil
	}

	for _, mood := range a.lex.Moods() {
		if kw, ok := firstContained(normalized, mood.Keywords(locale)); ok {
			return Decision{Category: mood.Category, Keyword: kw}, nil
		}
	}

	for _, rule := range a.lex.Intents() {
		if kw, ok := firstContained(normalized, rule.Keywords(locale)); ok {
			return Decision{Intent: rule.Intent, Keyword: kw}, nil
		}
	}

	return Decision{}, nil
}

// DetectName returns the name the user introduced themselves with, title
// cased, or an empty string.
func (a *Analyzer) DetectName(text string) string {
	if a == nil || a.lex == nil {
		return ""
	}
	for _, re := range a.lex.NamePatterns() {
		m := re.FindStringSubmatch(text)
		if len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			return textnorm.Title(m[1])
		}
	}
	return ""
}

func firstContained(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}
