package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/rogerio-castellano/reorder-signal/internal/http/handlers"
)

func NewRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handlers.HealthHandler)
	r.Post("/register", handlers.RegisterHandler)
	r.Post("/login", handlers.LoginHandler)

	r.Get("/runs/latest", handlers.GetLatestRunHandler)
	r.Get("/runs/latest/products", handlers.GetLatestRunProductsHandler)
	r.Get("/runs/{id}", handlers.GetRunByIDHandler)

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware)
		pr.Use(RateLimitMiddleware)
		pr.Post("/runs", handlers.TriggerRunHandler)
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}
