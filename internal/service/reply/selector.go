// Package reply turns a classification into a localized Response.
package reply

import (
	"strings"

	"github.com/serenamente/serenbot/backend/internal/analysis/lexicon"
	"github.com/serenamente/serenbot/backend/internal/model/chat"
	"github.com/serenamente/serenbot/backend/internal/model/technique"
)

// DefaultHotline is the crisis line offered when none is configured.
const DefaultHotline = "0800 345 1435"

// Audience is the part of a session the selector may read.
type Audience struct {
	Locale      string
	UserName    string
	CurrentMood chat.Category
}

// Selector picks and renders response templates.
type Selector struct {
	lex     *lexicon.Lexicon
	catalog technique.Store
	picker  Picker
	hotline string
}

// NewSelector wires a selector. A nil picker selects unseeded randomness.
func NewSelector(lex *lexicon.Lexicon, catalog technique.Store, picker Picker, hotline string) *Selector {
	if picker == nil {
		picker = NewPicker(0)
	}
	if strings.TrimSpace(hotline) == "" {
		hotline = DefaultHotline
	}
	return &Selector{lex: lex, catalog: catalog, picker: picker, hotline: hotline}
}

// Hotline returns the configured crisis line.
func (s *Selector) Hotline() string { return s.hotline }

// Lexicon exposes the reference data the selector renders from.
func (s *Selector) Lexicon() *lexicon.Lexicon { return s.lex }

// Text picks one template of key for locale and renders it.
func (s *Selector) Text(key, locale string, values map[string]string) string {
	pool := s.lex.Resolve(key, locale)
	tpl := pool[0]
	if len(pool) > 1 {
		tpl = pool[s.picker.IntN(len(pool))]
	}
	return tpl.Render(s.values(values))
}

// Label renders key like Text but reports false when the key does not exist
// in any locale, so callers can supply their own fallback.
func (s *Selector) Label(key, locale string, values map[string]string) (string, bool) {
	if !s.lex.Has(key, locale) {
		return "", false
	}
	return s.Text(key, locale, values), true
}

// Notice builds a plain response from a single template key.
func (s *Selector) Notice(kind chat.Kind, key string, a Audience) *chat.Response {
	return &chat.Response{
		Text: s.Text(key, a.Locale, nameValues(a.UserName)),
		Kind: kind,
	}
}

// Select builds the response for a non-crisis turn. A matched mood takes
// precedence; otherwise intent picks the pool.
func (s *Selector) Select(category chat.Category, intent chat.Intent, a Audience) *chat.Response {
	if category != chat.CategoryNone && category != chat.Neutral && category != chat.Crisis {
		return s.moodResponse(category, a)
	}

	switch intent {
	case chat.IntentGreeting:
		return s.Notice(chat.KindGreeting, "greeting", a)
	case chat.IntentHelp:
		return s.helpResponse(a)
	case chat.IntentTechniques:
		return s.techniqueSuggestion(a)
	default:
		return s.Notice(chat.KindEmpathic, "empathic", a)
	}
}

func (s *Selector) moodResponse(category chat.Category, a Audience) *chat.Response {
	ids := append([]string(nil), s.lex.TechniquesFor(category)...)
	resp := &chat.Response{
		Text:       s.Text("mood."+string(category), a.Locale, nameValues(a.UserName)),
		Category:   category,
		Kind:       chat.KindMood,
		Techniques: ids,
	}
	if len(ids) > 0 {
		resp.SuggestedActions = []chat.SuggestedAction{{
			Label:    s.Text("action.showTechniques", a.Locale, nil),
			ActionID: chat.ActionShowTechniques,
			Payload:  strings.Join(ids, ","),
		}}
	}
	return resp
}

func (s *Selector) helpResponse(a Audience) *chat.Response {
	return &chat.Response{
		Text: s.Text("help", a.Locale, nameValues(a.UserName)),
		Kind: chat.KindHelp,
		SuggestedActions: []chat.SuggestedAction{
			{
				Label:    s.Text("action.breathing", a.Locale, nil),
				ActionID: chat.ActionBreathing,
				Payload:  strings.Join(s.lex.ActionTechniques("breathing"), ","),
			},
			{
				Label:    s.Text("action.relaxation", a.Locale, nil),
				ActionID: chat.ActionRelaxation,
				Payload:  strings.Join(s.lex.ActionTechniques("relaxation"), ","),
			},
			{Label: s.Text("action.moodCheck", a.Locale, nil), ActionID: chat.ActionMoodCheck},
		},
	}
}

func (s *Selector) techniqueSuggestion(a Audience) *chat.Response {
	ids := s.lex.TechniquesFor(a.CurrentMood)
	if len(ids) == 0 || a.CurrentMood == chat.Crisis {
		ids = s.lex.GeneralTechniques()
	}
	return s.Techniques(ids, a)
}

// Techniques offers one guided exercise per technique id.
func (s *Selector) Techniques(ids []string, a Audience) *chat.Response {
	resp := &chat.Response{
		Text:       s.Text("techniqueSuggestion", a.Locale, nameValues(a.UserName)),
		Kind:       chat.KindTechniques,
		Techniques: append([]string(nil), ids...),
	}
	for _, id := range ids {
		label := id
		if t, ok := s.lookup(id); ok {
			label = t.Name
		}
		resp.SuggestedActions = append(resp.SuggestedActions, chat.SuggestedAction{
			Label:    label,
			ActionID: chat.ActionStartExercise,
			Payload:  id,
		})
	}
	return resp
}

// StartExercise returns the guided steps of a technique, or a not-found
// notice when the id is unknown.
func (s *Selector) StartExercise(id string, a Audience) *chat.Response {
	t, ok := s.lookup(strings.TrimSpace(id))
	if !ok {
		return s.Notice(chat.KindNotUnderstood, "techniqueNotFound", a)
	}
	return &chat.Response{
		Text: s.Text("exerciseStart", a.Locale, map[string]string{
			"technique":   t.Name,
			"description": t.Description,
		}),
		Kind:       chat.KindExercise,
		Techniques: []string{t.ID},
		Steps:      t.Steps,
	}
}

func (s *Selector) lookup(id string) (technique.Technique, bool) {
	if s.catalog == nil || id == "" {
		return technique.Technique{}, false
	}
	return s.catalog.FindByID(id)
}

// values adds the placeholders every template may use.
func (s *Selector) values(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	out["hotline"] = s.hotline
	for k, v := range in {
		out[k] = v
	}
	return out
}

func nameValues(userName string) map[string]string {
	if userName == "" {
		return nil
	}
	return map[string]string{"name": ", " + userName}
}
