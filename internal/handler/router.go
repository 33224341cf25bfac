package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/serenamente/serenbot/backend/internal/handler/chat"
	"github.com/serenamente/serenbot/backend/internal/handler/stream"
	"github.com/serenamente/serenbot/backend/internal/handler/technique"
	middlewarePkg "github.com/serenamente/serenbot/backend/internal/middleware"
	techniqueModel "github.com/serenamente/serenbot/backend/internal/model/technique"
	"github.com/serenamente/serenbot/backend/pkg/utils"
)

// NewRouter wires HTTP routes to the conversation engine.
func NewRouter(engine chat.Engine, techniques techniqueModel.Store, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	chatHandler := chat.New(engine, logger.Named("chat"))
	techniqueHandler := technique.New(techniques)
	wsHandler := stream.NewWebSocketHandler(engine, logger.Named("ws"))

	r.Route("/api", func(api chi.Router) {
		techniqueHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
