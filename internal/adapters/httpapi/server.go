package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/AbdulbariSoylemez/SterkAgents/internal/app"
	"github.com/AbdulbariSoylemez/SterkAgents/internal/ports"
)

// Server expose le contrôleur de session au lecteur vidéo: état de session,
// progression, chat, et un flux SSE qui remplace le câblage DOM d'origine.
type Server struct {
	logger  zerolog.Logger
	session *app.SessionController
	chat    *app.ChatSession
	bus     ports.EventBus
}

func NewServer(logger zerolog.Logger, session *app.SessionController, chat *app.ChatSession, bus ports.EventBus) *Server {
	return &Server{logger: logger, session: session, chat: chat, bus: bus}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	r.Route("/api/v1", func(r chi.Router) {
		// Le flux SSE vit hors du timeout global.
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(defaultRequestTimeout))

			r.Get("/health", s.handleHealth)
			r.Get("/version", s.handleVersion)

			if s.session != nil {
				NewSessionHandler(s.session).Routes(r)
			}
			if s.chat != nil {
				NewChatHandler(s.chat).Routes(r)
			}
		})
	})

	return r
}
