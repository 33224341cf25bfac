// Package lexicon holds the declarative reference data of the bot: keyword
// sets for moods, intents and crisis language, and localized response
// templates. A Lexicon is immutable once built and safe to share.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/serenamente/serenbot/backend/internal/analysis/textnorm"
	"github.com/serenamente/serenbot/backend/internal/model/chat"
)

//go:embed lexicon.yaml
var defaultDocument []byte

// Language describes a configured locale.
type Language struct {
	Code string `yaml:"code" json:"code" validate:"required"`
	Name string `yaml:"name" json:"name" validate:"required"`
}

type document struct {
	DefaultLocale     string                         `yaml:"defaultLocale" validate:"required"`
	Locales           []Language                     `yaml:"locales" validate:"required,min=1,dive"`
	Crisis            map[string][]string            `yaml:"crisis" validate:"required,min=1,dive,min=1"`
	CrisisTechniques  []string                       `yaml:"crisisTechniques"`
	GeneralTechniques []string                       `yaml:"generalTechniques"`
	ActionTechniques  map[string][]string            `yaml:"actionTechniques"`
	Moods             []moodEntry                    `yaml:"moods" validate:"required,min=1,dive"`
	Intents           []intentEntry                  `yaml:"intents" validate:"dive"`
	NamePatterns      []string                       `yaml:"namePatterns"`
	Templates         map[string]map[string][]string `yaml:"templates" validate:"required,min=1"`
}

type moodEntry struct {
	Category   string              `yaml:"category" validate:"required"`
	Techniques []string            `yaml:"techniques"`
	Keywords   map[string][]string `yaml:"keywords" validate:"required,min=1"`
}

type intentEntry struct {
	Intent   string              `yaml:"intent" validate:"required,oneof=greeting techniques help"`
	Keywords map[string][]string `yaml:"keywords" validate:"required,min=1"`
}

// keywordSet stores, per locale, that locale's keywords merged with the
// default locale's.
type keywordSet struct {
	byLocale map[string][]string
	fallback []string
}

func (k keywordSet) forLocale(locale string) []string {
	if kw, ok := k.byLocale[locale]; ok {
		return kw
	}
	return k.fallback
}

// Mood is one entry of the ordered mood table.
type Mood struct {
	Category   chat.Category
	Techniques []string
	keywords   keywordSet
}

// Keywords returns the normalized keywords to match for locale.
func (m Mood) Keywords(locale string) []string {
	return m.keywords.forLocale(locale)
}

// IntentRule is one entry of the ordered intent table.
type IntentRule struct {
	Intent   chat.Intent
	keywords keywordSet
}

// Keywords returns the normalized keywords to match for locale.
func (r IntentRule) Keywords(locale string) []string {
	return r.keywords.forLocale(locale)
}

// Lexicon is the loaded, validated reference data.
type Lexicon struct {
	defaultLocale     string
	languages         []Language
	crisis            []string
	crisisTechniques  []string
	generalTechniques []string
	actionTechniques  map[string][]string
	moods             []Mood
	intents           []IntentRule
	namePatterns      []*regexp.Regexp
	templates         map[string]map[string][]Template
}

// Option adjusts a document before it is validated.
type Option func(*document)

// WithDefaultLocale overrides the document's default locale. An empty code
// keeps the document's own.
func WithDefaultLocale(code string) Option {
	return func(doc *document) {
		if code != "" {
			doc.DefaultLocale = code
		}
	}
}

// Default parses the embedded lexicon.
func Default(opts ...Option) (*Lexicon, error) {
	return Parse(defaultDocument, opts...)
}

// Load parses a lexicon document from disk.
func Load(path string, opts ...Option) (*Lexicon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return Parse(raw, opts...)
}

// Parse decodes and validates a YAML lexicon document.
func Parse(raw []byte, opts ...Option) (*Lexicon, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode lexicon: %w", err)
	}
	for _, opt := range opts {
		opt(&doc)
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid lexicon: %w", err)
	}
	return build(doc)
}

func build(doc document) (*Lexicon, error) {
	defaultLocale := textnorm.Locale(doc.DefaultLocale)
	if defaultLocale == "" {
		return nil, fmt.Errorf("invalid lexicon: default locale %q", doc.DefaultLocale)
	}

	lex := &Lexicon{
		defaultLocale:     defaultLocale,
		crisisTechniques:  append([]string(nil), doc.CrisisTechniques...),
		generalTechniques: append([]string(nil), doc.GeneralTechniques...),
		actionTechniques:  make(map[string][]string, len(doc.ActionTechniques)),
		templates:         make(map[string]map[string][]Template, len(doc.Templates)),
	}

	for name, ids := range doc.ActionTechniques {
		lex.actionTechniques[name] = append([]string(nil), ids...)
	}

	hasDefault := false
	for _, l := range doc.Locales {
		code := textnorm.Locale(l.Code)
		if code == "" {
			return nil, fmt.Errorf("invalid lexicon: locale %q", l.Code)
		}
		hasDefault = hasDefault || code == defaultLocale
		lex.languages = append(lex.languages, Language{Code: code, Name: l.Name})
	}
	if !hasDefault {
		return nil, fmt.Errorf("invalid lexicon: default locale %q is not listed", defaultLocale)
	}

	// Crisis phrases are matched regardless of locale, so they are flattened.
	seen := make(map[string]struct{})
	for _, locale := range sortedKeys(doc.Crisis) {
		for _, kw := range doc.Crisis[locale] {
			kw = textnorm.Normalize(kw)
			if kw == "" {
				continue
			}
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			lex.crisis = append(lex.crisis, kw)
		}
	}

	for _, entry := range doc.Moods {
		category, ok := chat.ParseCategory(entry.Category)
		if !ok || category == chat.Crisis || category == chat.Neutral {
			return nil, fmt.Errorf("invalid lexicon: mood category %q", entry.Category)
		}
		lex.moods = append(lex.moods, Mood{
			Category:   category,
			Techniques: append([]string(nil), entry.Techniques...),
			keywords:   buildKeywordSet(entry.Keywords, defaultLocale),
		})
	}

	for _, entry := range doc.Intents {
		lex.intents = append(lex.intents, IntentRule{
			Intent:   chat.Intent(entry.Intent),
			keywords: buildKeywordSet(entry.Keywords, defaultLocale),
		})
	}

	for _, raw := range doc.NamePatterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid lexicon: name pattern %q: %w", raw, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("invalid lexicon: name pattern %q has no capture group", raw)
		}
		lex.namePatterns = append(lex.namePatterns, re)
	}

	for rawLocale, entries := range doc.Templates {
		locale := textnorm.Locale(rawLocale)
		if locale == "" {
			return nil, fmt.Errorf("invalid lexicon: template locale %q", rawLocale)
		}
		byKey := make(map[string][]Template, len(entries))
		for key, texts := range entries {
			pool := make([]Template, 0, len(texts))
			for _, text := range texts {
				pool = append(pool, newTemplate(key, locale, text))
			}
			if len(pool) > 0 {
				byKey[key] = pool
			}
		}
		lex.templates[locale] = byKey
	}
	if _, ok := lex.templates[defaultLocale]; !ok {
		return nil, fmt.Errorf("invalid lexicon: no templates for default locale %q", defaultLocale)
	}

	return lex, nil
}

func buildKeywordSet(raw map[string][]string, defaultLocale string) keywordSet {
	normalized := make(map[string][]string, len(raw))
	for rawLocale, words := range raw {
		locale := textnorm.Locale(rawLocale)
		if locale == "" {
			continue
		}
		for _, w := range words {
			if w = textnorm.Normalize(w); w != "" {
				normalized[locale] = append(normalized[locale], w)
			}
		}
	}

	fallback := normalized[defaultLocale]
	set := keywordSet{byLocale: make(map[string][]string, len(normalized)), fallback: fallback}
	for locale, words := range normalized {
		if locale == defaultLocale {
			set.byLocale[locale] = words
			continue
		}
		merged := make([]string, 0, len(words)+len(fallback))
		merged = append(merged, words...)
		merged = append(merged, fallback...)
		set.byLocale[locale] = merged
	}
	return set
}

// DefaultLocale is the locale used when a requested one is not configured.
func (l *Lexicon) DefaultLocale() string { return l.defaultLocale }

// Languages lists the configured locales.
func (l *Lexicon) Languages() []Language {
	return append([]Language(nil), l.languages...)
}

// Supports reports whether locale has its own template table.
func (l *Lexicon) Supports(locale string) bool {
	_, ok := l.templates[locale]
	return ok
}

// ResolveLocale canonicalises raw and falls back to the default locale when
// it is empty or not configured.
func (l *Lexicon) ResolveLocale(raw string) string {
	locale := textnorm.Locale(raw)
	if locale == "" || !l.Supports(locale) {
		return l.defaultLocale
	}
	return locale
}

// CrisisKeywords returns the crisis phrases of every configured locale.
func (l *Lexicon) CrisisKeywords() []string { return l.crisis }

// CrisisTechniques are attached to every crisis response.
func (l *Lexicon) CrisisTechniques() []string { return l.crisisTechniques }

// GeneralTechniques are suggested when no mood has been detected yet.
func (l *Lexicon) GeneralTechniques() []string { return l.generalTechniques }

// ActionTechniques returns the technique ids behind a named help action,
// such as "breathing" or "relaxation".
func (l *Lexicon) ActionTechniques(name string) []string { return l.actionTechniques[name] }

// Moods returns the mood table in priority order.
func (l *Lexicon) Moods() []Mood { return l.moods }

// Intents returns the intent table in priority order.
func (l *Lexicon) Intents() []IntentRule { return l.intents }

// NamePatterns return the self-introduction patterns. The first capture
// group of each is the name.
func (l *Lexicon) NamePatterns() []*regexp.Regexp { return l.namePatterns }

// TechniquesFor returns the technique ids linked to a mood category.
func (l *Lexicon) TechniquesFor(category chat.Category) []string {
	if category == chat.Crisis {
		return l.crisisTechniques
	}
	for _, m := range l.moods {
		if m.Category == category {
			return m.Techniques
		}
	}
	return nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
