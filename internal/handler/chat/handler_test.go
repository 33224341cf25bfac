package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenamente/serenbot/backend/internal/analysis/emotion"
	"github.com/serenamente/serenbot/backend/internal/analysis/lexicon"
	"github.com/serenamente/serenbot/backend/internal/model/chat"
	"github.com/serenamente/serenbot/backend/internal/model/technique"
	chatservice "github.com/serenamente/serenbot/backend/internal/service/chat"
	"github.com/serenamente/serenbot/backend/internal/service/conversation"
	"github.com/serenamente/serenbot/backend/internal/service/crisis"
	"github.com/serenamente/serenbot/backend/internal/service/reply"
	"github.com/serenamente/serenbot/backend/internal/storage"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)

	selector := reply.NewSelector(lex, technique.NewMemoryStore(technique.Seed()), reply.FirstPicker{}, "")
	store := chatservice.NewService(lex, storage.NewMemory(), chatservice.DefaultOptions())
	engine := conversation.NewEngine(store, emotion.NewAnalyzer(lex), selector, crisis.NewPolicy(selector))
	t.Cleanup(engine.Close)

	r := chi.NewRouter()
	New(engine, nil).RegisterRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestOpenSessionReturnsWelcome(t *testing.T) {
	r := setupRouter(t)

	resp := do(t, r, http.MethodPost, "/sessions", map[string]string{"locale": "en"})
	require.Equal(t, http.StatusCreated, resp.Code)

	var body openSessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Session.ID)
	assert.Equal(t, "en", body.Session.Preferences.Locale)
	require.NotNil(t, body.Welcome)
	assert.Equal(t, chat.KindWelcome, body.Welcome.Kind)

	resp = do(t, r, http.MethodPost, "/sessions", map[string]string{"sessionId": body.Session.ID})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestOpenSessionRejectsBadLocale(t *testing.T) {
	r := setupRouter(t)

	resp := do(t, r, http.MethodPost, "/sessions", map[string]string{"locale": "not a locale!"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader([]byte(`{"locale":`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessage(t *testing.T) {
	r := setupRouter(t)

	resp := do(t, r, http.MethodPost, "/sessions/abc/messages", map[string]string{"text": "estoy muy ansiosa", "locale": "es"})
	require.Equal(t, http.StatusOK, resp.Code)

	var body chat.Response
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, chat.Anxiety, body.Category)
	assert.Equal(t, chat.KindMood, body.Kind)
	assert.NotEmpty(t, body.Techniques)

	resp = do(t, r, http.MethodGet, "/sessions/abc", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var snap chat.Snapshot
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &snap))
	assert.Len(t, snap.History, 2)
}

func TestCrisisMessage(t *testing.T) {
	r := setupRouter(t)

	resp := do(t, r, http.MethodPost, "/sessions/abc/messages", map[string]string{"text": "quiero morir"})
	require.Equal(t, http.StatusOK, resp.Code)

	var body chat.Response
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.True(t, body.IsCrisis)
	assert.Equal(t, chat.ActionCallCrisisLine, body.SuggestedActions[0].ActionID)
}

func TestActionRequiresActionID(t *testing.T) {
	r := setupRouter(t)

	resp := do(t, r, http.MethodPost, "/sessions/abc/actions", map[string]string{"payload": "x"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "actionID")

	resp = do(t, r, http.MethodPost, "/sessions/abc/actions", map[string]string{
		"actionId": chat.ActionStartExercise,
		"payload":  "respiracion_4_7_8",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), string(chat.KindExercise))
}

func TestUnknownSessionIs404(t *testing.T) {
	r := setupRouter(t)

	for _, path := range []string{"/sessions/missing", "/sessions/missing/stats", "/sessions/missing/export"} {
		resp := do(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, resp.Code, path)
	}
	resp := do(t, r, http.MethodDelete, "/sessions/missing/history", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPreferencesClearAndExport(t *testing.T) {
	r := setupRouter(t)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/sessions/abc/messages", map[string]string{"text": "hola"}).Code)

	resp := do(t, r, http.MethodPut, "/sessions/abc/preferences", map[string]any{
		"locale":        "pt-BR",
		"accessibility": map[string]bool{"highContrast": true},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var prefs chat.Preferences
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &prefs))
	assert.Equal(t, "pt", prefs.Locale)
	assert.True(t, prefs.Accessibility.HighContrast)

	resp = do(t, r, http.MethodGet, "/sessions/abc/export", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "attachment")

	resp = do(t, r, http.MethodDelete, "/sessions/abc/history", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), string(chat.KindDataCleared))

	resp = do(t, r, http.MethodGet, "/sessions/abc/stats", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var stats chat.Stats
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.TotalMessages)
}

func TestLanguages(t *testing.T) {
	r := setupRouter(t)
	resp := do(t, r, http.MethodGet, "/languages", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var langs []lexicon.Language
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &langs))
	assert.Len(t, langs, 3)
}
