package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/BorisDmv/vignettes/internal/assistant"
	"github.com/BorisDmv/vignettes/internal/media"
	appmiddleware "github.com/BorisDmv/vignettes/internal/middleware"
	"github.com/BorisDmv/vignettes/internal/store"
)

type Deps struct {
	Store     store.Store
	Media     media.Reader
	Assistant assistant.Assistant
	Auth      *Auth

	// AuthToken guards the /api/private operator routes.
	AuthToken          string
	BlogTitle          string
	BaseURL            string
	CorsAllowedOrigins []string
}

// Router is the server's http.Handler. Stop releases the rate limiters.
type Router struct {
	chi.Router
	limiters []*appmiddleware.RateLimiter
}

func (rt *Router) Stop() {
	for _, l := range rt.limiters {
		l.Stop()
	}
}

func NewRouter(d Deps) *Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   d.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler)

	// 5 login attempts per minute per IP
	loginLimiter := appmiddleware.NewRateLimiter(5, time.Minute)
	// 30 requests per minute per IP for reader-facing writes
	publicLimiter := appmiddleware.NewRateLimiter(30, time.Minute)
	rt := &Router{Router: r, limiters: []*appmiddleware.RateLimiter{loginLimiter, publicLimiter}}

	if d.Assistant == nil {
		d.Assistant = assistant.Disabled{}
	}
	posts := NewPostsHandler(d.Store)
	ai := NewAssistantHandler(d.Assistant, d.Store, d.BlogTitle)
	pages := NewPageHandler(d.Store, d.BaseURL, d.BlogTitle)

	r.Get("/health", Health)
	r.Get("/post/{id}", pages.Post)
	if d.Media != nil {
		r.Get("/media/{id}", NewMediaHandler(d.Media).Get)
	}

	r.Route("/api", func(r chi.Router) {
		r.With(loginLimiter.Limit).Post("/login", d.Auth.Login)

		r.Get("/posts", posts.List)
		r.Get("/posts/page", posts.Page)
		r.Get("/posts/{id}", posts.Get)
		r.Get("/tags", posts.Tags)

		// Anyone may comment and ask the chatbot.
		r.Group(func(r chi.Router) {
			r.Use(publicLimiter.Limit)
			r.Post("/posts/{id}/comments", posts.AddComment)
			r.Post("/assistant/chat", ai.Chat)
		})

		r.Group(func(r chi.Router) {
			r.Use(d.Auth.JWTAuth)
			r.Post("/posts", posts.Create)
			r.Put("/posts/{id}", posts.Update)
			r.Delete("/posts/{id}", posts.Delete)
			r.Delete("/posts/{id}/comments/{commentId}", posts.RemoveComment)
			r.Post("/assistant/hashtags", ai.Hashtags)
			r.Post("/assistant/spellcheck", ai.Spellcheck)
		})

		r.Route("/private", func(r chi.Router) {
			r.Use(appmiddleware.Auth(d.AuthToken))
			r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
				respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			})
			r.Get("/setup", Setup(d.Store))
		})
	})
	return rt
}
