package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter wires up the HTTP surface of the cart service.
func NewRouter(handler *CartHandler, logger zerolog.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Route("/{user_id}", func(r chi.Router) {
			r.Get("/", handler.GetCart)
			r.Get("/summary", handler.GetSummary)
			r.Get("/count", handler.GetItemCount)
			r.Post("/items", handler.AddItem)
			r.Put("/items", handler.UpdateQuantity)
			r.Delete("/items", handler.RemoveItem)
			r.Delete("/items/batch", handler.RemoveItemsBatch)
			r.Delete("/", handler.ClearCart)
		})
	})

	return otelhttp.NewHandler(r, "cart-service")
}
