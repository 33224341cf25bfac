package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/serenamente/serenbot/backend/internal/analysis/lexicon"
	"github.com/serenamente/serenbot/backend/internal/model/chat"
	"github.com/serenamente/serenbot/backend/pkg/utils"
)

// Engine is the conversation surface used by the HTTP handlers.
type Engine interface {
	Languages() []lexicon.Language
	Open(ctx context.Context, sessionID, locale string) (chat.Snapshot, *chat.Response, error)
	Process(ctx context.Context, sessionID, text, locale string) (*chat.Response, error)
	Act(ctx context.Context, sessionID, actionID, payload, label string) (*chat.Response, error)
	UpdatePreferences(ctx context.Context, sessionID string, locale *string, accessibility *chat.Accessibility) (chat.Snapshot, error)
	ClearHistory(ctx context.Context, sessionID string) (*chat.Response, error)
	Snapshot(sessionID string) (chat.Snapshot, error)
	Stats(sessionID string) (chat.Stats, error)
	Export(sessionID string) (chat.Export, error)
}

// Handler serves the session and message endpoints.
type Handler struct {
	engine Engine
	logger *zap.Logger
}

// New creates the chat handler.
func New(engine Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, logger: logger}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/languages", h.handleLanguages)
	r.Post("/sessions", h.handleOpenSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Post("/messages", h.handleSendMessage)
		r.Post("/actions", h.handleAction)
		r.Put("/preferences", h.handlePreferences)
		r.Delete("/history", h.handleClearHistory)
		r.Get("/stats", h.handleStats)
		r.Get("/export", h.handleExport)
	})
}

type openSessionRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,max=128"`
	Locale    string `json:"locale" validate:"omitempty,bcp47_language_tag"`
}

type openSessionResponse struct {
	Session chat.Snapshot  `json:"session"`
	Welcome *chat.Response `json:"welcome,omitempty"`
}

type messageRequest struct {
	Text   string `json:"text"`
	Locale string `json:"locale" validate:"omitempty,bcp47_language_tag"`
}

type actionRequest struct {
	ActionID string `json:"actionId" validate:"required,max=64"`
	Payload  string `json:"payload" validate:"max=1024"`
	Label    string `json:"label" validate:"max=256"`
}

type preferencesRequest struct {
	Locale        *string             `json:"locale" validate:"omitempty,bcp47_language_tag"`
	Accessibility *chat.Accessibility `json:"accessibility"`
}

func (h *Handler) handleLanguages(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.engine.Languages())
}

func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var payload openSessionRequest
	if !h.decode(w, r, &payload) {
		return
	}

	snapshot, welcome, err := h.engine.Open(r.Context(), payload.SessionID, payload.Locale)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}

	status := http.StatusOK
	if welcome != nil {
		status = http.StatusCreated
	}
	utils.RespondJSON(w, status, openSessionResponse{Session: snapshot, Welcome: welcome})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.engine.Snapshot(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload messageRequest
	if !h.decode(w, r, &payload) {
		return
	}

	resp, err := h.engine.Process(r.Context(), chi.URLParam(r, "sessionID"), payload.Text, payload.Locale)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	var payload actionRequest
	if !h.decode(w, r, &payload) {
		return
	}

	resp, err := h.engine.Act(r.Context(), chi.URLParam(r, "sessionID"), payload.ActionID, payload.Payload, payload.Label)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePreferences(w http.ResponseWriter, r *http.Request) {
	var payload preferencesRequest
	if !h.decode(w, r, &payload) {
		return
	}

	snapshot, err := h.engine.UpdatePreferences(r.Context(), chi.URLParam(r, "sessionID"), payload.Locale, payload.Accessibility)
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snapshot.Preferences)
}

func (h *Handler) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := h.engine.ClearHistory(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	export, err := h.engine.Export(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondEngineError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="serenbot-conversation.json"`)
	utils.RespondJSON(w, http.StatusOK, export)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := utils.DecodeJSON(r, dst)
	switch {
	case err == nil:
		return true
	case errors.Is(err, utils.ErrInvalidBody):
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
	default:
		utils.RespondValidationError(w, err)
	}
	return false
}

func (h *Handler) respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		utils.RespondError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.logger.Error("chat request failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
