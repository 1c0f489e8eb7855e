// Package httpapi wires the HTTP routes of the gitreel service.
package httpapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"gitreel/internal/httpapi/handlers"
	"gitreel/internal/httpkit"
	"gitreel/internal/pkg/logger"
	"gitreel/internal/pkg/middleware"
)

type Deps struct {
	Log      *logger.Logger
	Pipeline handlers.VideoRenderer
	Resolver handlers.ProfileResolver
	// TemplateDir is reported by the health endpoint.
	TemplateDir string
	// MaxConcurrentRenders caps simultaneous video renders. Zero or
	// negative disables the cap.
	MaxConcurrentRenders int
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(d.Log))
	r.Use(middleware.Recovery(d.Log))

	allowedOrigins := envCSV("CORS_ALLOWED_ORIGINS", []string{
		"http://localhost:3000",
		"http://localhost:5173",
	})
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		ExposedHeaders: []string{"Content-Length"},
	}))

	h := handlers.New(handlers.Deps{
		Log:         d.Log,
		Pipeline:    d.Pipeline,
		Resolver:    d.Resolver,
		TemplateDir: d.TemplateDir,
	})

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/username", h.PostUsername)

		r.Group(func(r chi.Router) {
			if d.MaxConcurrentRenders > 0 {
				r.Use(chimw.Throttle(d.MaxConcurrentRenders))
			}
			r.Get("/video/{username}", h.GetVideo)
		})
	})

	return r
}

func envCSV(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
