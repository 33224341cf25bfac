package reply

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenamente/serenbot/backend/internal/analysis/lexicon"
	"github.com/serenamente/serenbot/backend/internal/model/chat"
	"github.com/serenamente/serenbot/backend/internal/model/technique"
)

func newTestSelector(t *testing.T, picker Picker) *Selector {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	return NewSelector(lex, technique.NewMemoryStore(technique.Seed()), picker, "")
}

func TestSelectMoodAttachesTechniques(t *testing.T) {
	s := newTestSelector(t, FirstPicker{})

	resp := s.Select(chat.Anxiety, chat.IntentNone, Audience{Locale: "es"})
	assert.Equal(t, chat.Anxiety, resp.Category)
	assert.Equal(t, chat.KindMood, resp.Kind)
	assert.False(t, resp.IsCrisis)
	assert.Equal(t, []string{"respiracion_4_7_8", "tecnica_5_4_3_2_1", "respiracion_diafragmatica"}, resp.Techniques)
	require.Len(t, resp.SuggestedActions, 1)
	assert.Equal(t, chat.ActionShowTechniques, resp.SuggestedActions[0].ActionID)
	assert.Equal(t, "respiracion_4_7_8,tecnica_5_4_3_2_1,respiracion_diafragmatica", resp.SuggestedActions[0].Payload)
	assert.True(t, strings.HasPrefix(resp.Text, "Entiendo que estés sintiendo ansiedad"))
}

func TestSelectMoodTextComesFromPool(t *testing.T) {
	s := newTestSelector(t, NewPicker(0))
	pool := s.lex.Resolve("mood.stress", "en")

	for i := 0; i < 30; i++ {
		resp := s.Select(chat.Stress, chat.IntentNone, Audience{Locale: "en"})
		var found bool
		for _, tpl := range pool {
			found = found || tpl.Text == resp.Text
		}
		assert.True(t, found, "unexpected text %q", resp.Text)
	}
}

func TestSelectGreetingSubstitutesName(t *testing.T) {
	s := newTestSelector(t, FirstPicker{})

	resp := s.Select(chat.CategoryNone, chat.IntentGreeting, Audience{Locale: "es", UserName: "Ana"})
	assert.Equal(t, chat.KindGreeting, resp.Kind)
	assert.Equal(t, chat.CategoryNone, resp.Category)
	assert.True(t, strings.HasPrefix(resp.Text, "¡Hola, Ana!"), resp.Text)

	resp = s.Select(chat.CategoryNone, chat.IntentGreeting, Audience{Locale: "es"})
	assert.True(t, strings.HasPrefix(resp.Text, "¡Hola!"), resp.Text)
	assert.NotContains(t, resp.Text, "{")
}

func TestSelectFallsBackToEmpathic(t *testing.T) {
	s := newTestSelector(t, FirstPicker{})

	resp := s.Select(chat.CategoryNone, chat.IntentNone, Audience{Locale: "en"})
	assert.Equal(t, chat.KindEmpathic, resp.Kind)
	assert.Equal(t, "I'm listening. Can you tell me a little more about how you feel?", resp.Text)
}

func TestSelectHelpOffersActions(t *testing.T) {
	s := newTestSelector(t, FirstPicker{})

	resp := s.Select(chat.CategoryNone, chat.IntentHelp, Audience{Locale: "pt"})
	assert.Equal(t, chat.KindHelp, resp.Kind)
	require.Len(t, resp.SuggestedActions, 3)
	assert.Equal(t, chat.ActionBreathing, resp.SuggestedActions[0].ActionID)
	assert.Equal(t, "Técnicas de respiração", resp.SuggestedActions[0].Label)
	assert.Equal(t, "respiracion_4_7_8,respiracion_diafragmatica,respiracion_segura", resp.SuggestedActions[0].Payload)
	assert.Equal(t, chat.ActionMoodCheck, resp.SuggestedActions[2].ActionID)
}

func TestSelectTechniquesUsesCurrentMood(t *testing.T) {
	s := newTestSelector(t, FirstPicker{})

	resp := s.Select(chat.CategoryNone, chat.IntentTechniques, Audience{Locale: "es", CurrentMood: chat.Panic})
	assert.Equal(t, chat.KindTechniques, resp.Kind)
	assert.Equal(t, []string{"respiracion_diafragmatica", "anclaje_presente", "reestructuracion_panico"}, resp.Techniques)
	require.Len(t, resp.SuggestedActions, 3)
	for _, action := range resp.SuggestedActions {
		assert.Equal(t, chat.ActionStartExercise, action.ActionID)
		assert.NotEqual(t, action.Payload, action.Label)
	}

	resp = s.Select(chat.CategoryNone, chat.IntentTechniques, Audience{Locale: "es", CurrentMood: chat.Neutral})
	assert.Equal(t, s.lex.GeneralTechniques(), resp.Techniques)
}

func TestTemplateLocaleFallback(t *testing.T) {
	s := newTestSelector(t, FirstPicker{})

	assert.Equal(t, s.Text("messageTooLong", "es", nil), s.Text("messageTooLong", "pt", nil))
	assert.Equal(t, s.Text("welcome", "es", nil), s.Text("welcome", "fr", nil))
	assert.Equal(t, "no.such.key", s.Text("no.such.key", "en", nil))

	_, ok := s.Label("no.such.key", "en", nil)
	assert.False(t, ok)
	label, ok := s.Label("action.callCrisisLine", "en", nil)
	assert.True(t, ok)
	assert.Equal(t, "Call the crisis line: "+DefaultHotline, label)
}

func TestStartExercise(t *testing.T) {
	s := newTestSelector(t, FirstPicker{})

	resp := s.StartExercise("respiracion_4_7_8", Audience{Locale: "es"})
	assert.Equal(t, chat.KindExercise, resp.Kind)
	assert.Equal(t, []string{"respiracion_4_7_8"}, resp.Techniques)
	assert.Len(t, resp.Steps, 5)
	assert.Contains(t, resp.Text, "Respiración 4-7-8")

	resp = s.StartExercise("nope", Audience{Locale: "en"})
	assert.Equal(t, chat.KindNotUnderstood, resp.Kind)
	assert.Empty(t, resp.Steps)
}

func TestSeededPickerIsReproducible(t *testing.T) {
	a, b := NewPicker(42), NewPicker(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.IntN(7), b.IntN(7))
	}
}
