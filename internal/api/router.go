/**
 * @description
 * This file sets up the HTTP router for the medley-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as CORS and authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for browser checkout flows.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// PurchaseRoutes creates and returns a new router for the purchase service.
func PurchaseRoutes(h *PurchaseHandlers, jwksURL string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Checkout runs in the browser, so the purchase endpoints must answer
	// cross-origin requests from the storefront.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Purchases can be made anonymously, so auth on these routes is optional.
	// When a token is present the buyer identity is attached to the context.
	r.Group(func(r chi.Router) {
		r.Use(OptionalAuthMiddleware(jwksURL))

		r.Post("/purchases/orders", h.CreatePurchaseOrderHandler)
		r.Post("/purchases/orders/{orderID}/capture", h.CapturePurchaseHandler)
	})

	// Free downloads require a signed-in user.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwksURL))

		r.Post("/purchases/free-download", h.FreeDownloadHandler)
	})

	return r
}
