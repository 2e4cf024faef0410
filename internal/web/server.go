package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jaminalder/codex-three-mens-morris/internal/app"
	"github.com/rs/zerolog"
)

type Option func(*handlers)

// WithLogger sets the logger used for access logs and handler diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(h *handlers) { h.log = l }
}

// NewServer wires routes and returns an http.Handler.
func NewServer(s *app.Service, options ...Option) http.Handler {
	h := &handlers{svc: s, tpl: loadTemplates(), log: zerolog.Nop()}
	for _, option := range options {
		option(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/click", h.click)
		r.Post("/undo", h.undo)
		r.Post("/reset", h.reset)
		r.Get("/state", h.state)
		r.Post("/move", h.move)
		r.Get("/events", h.events)
		r.Get("/ws", h.ws)
	})
	return r
}

func accessLog(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}
